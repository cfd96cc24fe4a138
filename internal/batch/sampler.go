// Package batch draws fixed-length training windows from an encoded corpus.
//
// Windows are drawn uniformly at random with replacement; there are no
// epochs and no coverage guarantee.
package batch

import (
	"fmt"

	"github.com/born-ml/sophie/internal/corpus"
	"golang.org/x/exp/rand"
)

// Window is one training example: Target is Input shifted left by one.
type Window struct {
	Offset int
	Input  []int32
	Target []int32
}

// Batch is a set of independently drawn windows.
type Batch struct {
	Windows []Window
}

// Size returns the number of windows.
func (b Batch) Size() int {
	return len(b.Windows)
}

// Tokens returns the number of target positions in the batch.
func (b Batch) Tokens() int {
	n := 0
	for _, w := range b.Windows {
		n += len(w.Target)
	}
	return n
}

// Sampler draws windows of a fixed length from a Stream.
//
// The stream is only read. A Sampler owns its random source and is not safe
// for concurrent use; create one Sampler per goroutine over the same Stream.
type Sampler struct {
	stream    corpus.Stream
	windowLen int
	rng       *rand.Rand
}

// NewSampler creates a sampler of windowLen-long windows.
//
// The stream must be longer than windowLen+1, otherwise a *ConfigError
// wrapping ErrStreamTooShort is returned. A nil src uses a fixed seed.
func NewSampler(stream corpus.Stream, windowLen int, src rand.Source) (*Sampler, error) {
	if windowLen <= 0 {
		return nil, &ConfigError{StreamLen: stream.Len(), WindowLen: windowLen, Err: ErrInvalidWindow}
	}
	if stream.Len() <= windowLen+1 {
		return nil, &ConfigError{StreamLen: stream.Len(), WindowLen: windowLen, Err: ErrStreamTooShort}
	}
	if src == nil {
		src = rand.NewSource(1)
	}

	return &Sampler{
		stream:    stream,
		windowLen: windowLen,
		rng:       rand.New(src),
	}, nil
}

// WindowLen returns the window length.
func (s *Sampler) WindowLen() int {
	return s.windowLen
}

// MaxOffset returns the largest valid start offset; valid offsets are
// [0, MaxOffset].
func (s *Sampler) MaxOffset() int {
	return s.stream.Len() - s.windowLen - 1
}

// Window builds the window starting at offset.
func (s *Sampler) Window(offset int) (Window, error) {
	if offset < 0 || offset > s.MaxOffset() {
		return Window{}, fmt.Errorf("offset %d out of range [0, %d]", offset, s.MaxOffset())
	}

	ids, err := s.stream.Window(offset, offset+s.windowLen+1)
	if err != nil {
		return Window{}, err
	}

	return Window{
		Offset: offset,
		Input:  append([]int32(nil), ids[:s.windowLen]...),
		Target: ids[1:],
	}, nil
}

// Sample draws n windows with uniformly random offsets.
func (s *Sampler) Sample(n int) Batch {
	b := Batch{Windows: make([]Window, n)}
	for i := range b.Windows {
		w, err := s.Window(s.rng.Intn(s.MaxOffset() + 1))
		if err != nil {
			// Unreachable: the offset is drawn from the valid range.
			panic(err)
		}
		b.Windows[i] = w
	}
	return b
}
