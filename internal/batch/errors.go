package batch

import (
	"errors"
	"fmt"
)

// ErrStreamTooShort means the encoded corpus cannot hold a single window.
var ErrStreamTooShort = errors.New("stream too short to sample")

// ErrInvalidWindow is returned for non-positive window lengths.
var ErrInvalidWindow = errors.New("invalid window length")

// ConfigError reports a sampler configuration that can never produce a batch.
//
// It is fatal: training must not start.
type ConfigError struct {
	StreamLen int
	WindowLen int
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("batch configuration: %v: stream length %d, window length %d (need stream length > window length + 1)",
		e.Err, e.StreamLen, e.WindowLen)
}

// Unwrap returns the underlying sentinel error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
