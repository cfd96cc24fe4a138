package serialization

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksum_KnownVectors(t *testing.T) {
	tests := map[string]string{
		"":            "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"hello world": "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
	}

	for input, want := range tests {
		sum := ComputeChecksum([]byte(input))
		assert.Equal(t, want, FormatChecksum(sum), "%q", input)

		fromReader, err := ComputeChecksumReader(bytes.NewReader([]byte(input)))
		require.NoError(t, err)
		assert.Equal(t, sum, fromReader)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestComputeChecksumReader_Error(t *testing.T) {
	_, err := ComputeChecksumReader(failingReader{})
	assert.EqualError(t, err, "disk gone")
}

func TestValidateChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("tensor data"))
	assert.NoError(t, ValidateChecksum(sum, sum))

	other := ComputeChecksum([]byte("tensor datA"))
	assert.ErrorIs(t, ValidateChecksum(sum, other), ErrChecksumMismatch)
}

func TestParseChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("hello world"))
	parsed, err := ParseChecksum(FormatChecksum(sum))
	require.NoError(t, err)
	assert.Equal(t, sum, parsed)

	_, err = ParseChecksum("zz")
	assert.Error(t, err)
	_, err = ParseChecksum("abcd")
	assert.ErrorContains(t, err, "got 2 bytes, want 32")
}
