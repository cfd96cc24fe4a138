package corpus

import (
	"fmt"
)

// Stream is an encoded corpus: (token_id, speaker_id) pairs in source order.
//
// A Stream is immutable. Accessors return copies, so one Stream can be shared
// read-only by any number of samplers.
type Stream struct {
	ids []int32
}

// NewStream copies ids into a Stream.
func NewStream(ids []int32) Stream {
	return Stream{ids: append([]int32(nil), ids...)}
}

// Len returns the number of IDs (twice the number of content words).
func (s Stream) Len() int {
	return len(s.ids)
}

// Pairs returns the number of (token, speaker) pairs.
func (s Stream) Pairs() int {
	return len(s.ids) / 2
}

// At returns the ID at position i.
func (s Stream) At(i int) int32 {
	return s.ids[i]
}

// IDs returns a copy of the whole stream.
func (s Stream) IDs() []int32 {
	return append([]int32(nil), s.ids...)
}

// Window returns a copy of s[lo:hi].
func (s Stream) Window(lo, hi int) ([]int32, error) {
	if lo < 0 || hi < lo || hi > len(s.ids) {
		return nil, fmt.Errorf("window [%d:%d] out of range for stream of length %d", lo, hi, len(s.ids))
	}
	return append([]int32(nil), s.ids[lo:hi]...), nil
}

// Split divides the stream into a training prefix and a held-out suffix.
//
// fraction is the share of pairs that goes to the suffix. The cut never
// separates a token from its speaker tag. fraction <= 0 returns s and an
// empty stream.
func (s Stream) Split(fraction float64) (Stream, Stream) {
	if fraction <= 0 {
		return s, Stream{}
	}
	if fraction >= 1 {
		return Stream{}, s
	}

	held := int(float64(s.Pairs()) * fraction)
	cut := (s.Pairs() - held) * 2

	// Sub-slices share the backing array; both halves stay read-only.
	return Stream{ids: s.ids[:cut:cut]}, Stream{ids: s.ids[cut:]}
}
