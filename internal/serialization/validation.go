package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Limits on what a checkpoint header may declare.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// ValidateTensorOffsets checks for overlapping tensor offsets and out-of-bounds access.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	// Sort tensors by offset for efficient overlap detection.
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
				Err:     ErrNegativeOffset,
			}
		}

		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
				Err:     ErrOutOfBounds,
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
					Err: ErrOffsetOverlap,
				}
			}
		}
	}

	return nil
}

// nameRules reject tensor names that could escape a directory or collide
// with the header layout. They are checked in order.
var nameRules = []struct {
	bad    func(string) bool
	detail string
}{
	{func(n string) bool { return strings.Contains(n, "..") }, "contains '..'"},
	{func(n string) bool { return strings.ContainsAny(n, "/\\") }, "contains path separator (/ or \\)"},
	{func(n string) bool { return strings.ContainsRune(n, 0) }, "contains null byte"},
	{func(n string) bool { return n == metadataKey }, "reserved for metadata"},
}

// ValidateTensorName rejects names that are empty, too long, or path-like.
// Parameter names such as "blocks.0.attn.query.weight" pass.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name", Err: ErrInvalidTensorName}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
			Err:     ErrTensorNameTooLong,
		}
	}
	for _, r := range nameRules {
		if r.bad(name) {
			return &ValidationError{Type: "invalid_name", Tensor: name, Details: r.detail, Err: ErrInvalidTensorName}
		}
	}
	return nil
}

// ValidateHeader checks tensor names, sizes against shapes, and offsets.
func ValidateHeader(h *Header, dataSize int64) error {
	metas := h.TensorMetas()
	for _, m := range metas {
		if err := ValidateTensorName(m.Name); err != nil {
			return err
		}

		info := h.Tensors[m.Name]
		elemSize, ok := info.DType.Size()
		if !ok {
			return &ValidationError{
				Type:    "unsupported_dtype",
				Tensor:  m.Name,
				Details: string(info.DType),
				Err:     ErrUnsupportedDType,
			}
		}
		want := int64(elemSize)
		for _, d := range info.Shape {
			if d < 0 {
				return &ValidationError{
					Type:    "negative_offset",
					Tensor:  m.Name,
					Details: fmt.Sprintf("negative dimension in shape %v", info.Shape),
					Err:     ErrNegativeOffset,
				}
			}
			want *= d
		}
		if want != m.Size {
			return &ValidationError{
				Type:    "shape_mismatch",
				Tensor:  m.Name,
				Details: fmt.Sprintf("shape %v needs %d bytes, data has %d", info.Shape, want, m.Size),
				Err:     ErrShapeMismatch,
			}
		}
	}

	return ValidateTensorOffsets(metas, dataSize)
}
