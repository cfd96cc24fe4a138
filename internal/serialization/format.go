package serialization

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SafeTensorsDType represents supported SafeTensors data types.
type SafeTensorsDType string

// Supported SafeTensors dtypes.
const (
	DTypeF32 SafeTensorsDType = "F32"
	DTypeF64 SafeTensorsDType = "F64"
)

// Size returns the element size in bytes.
func (d SafeTensorsDType) Size() (int, bool) {
	switch d {
	case DTypeF32:
		return 4, true
	case DTypeF64:
		return 8, true
	default:
		return 0, false
	}
}

const metadataKey = "__metadata__"

// Metadata keys of a checkpoint.
const (
	MetaFormat           = "format"
	MetaFormatVersion    = "format_version"
	MetaConfig           = "config"
	MetaVocab            = "vocab"
	MetaVocabFingerprint = "vocab_fingerprint"
	MetaChecksum         = "checksum"
	MetaStep             = "step"
	MetaLoss             = "loss"
)

// Format identification.
const (
	FormatName    = "sophie"
	FormatVersion = 1
)

// TensorInfo describes a tensor entry in the SafeTensors header.
type TensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int64          `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end)
}

// TensorMeta is the flattened view of one tensor used for validation.
type TensorMeta struct {
	Name   string // Tensor name (e.g., "blocks.0.attn.query.weight")
	Offset int64  // Offset in the data section
	Size   int64  // Size in bytes
}

// Header is the JSON header of a SafeTensors file.
type Header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

// UnmarshalJSON splits "__metadata__" from the tensor entries.
func (h *Header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap[metadataKey]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == metadataKey {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// MarshalJSON writes tensor entries and "__metadata__" into one object.
func (h Header) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(h.Tensors)+1)
	if len(h.Metadata) > 0 {
		out[metadataKey] = h.Metadata
	}
	for name, info := range h.Tensors {
		out[name] = info
	}
	return json.Marshal(out)
}

// TensorNames returns the tensor names in sorted order.
func (h *Header) TensorNames() []string {
	names := make([]string, 0, len(h.Tensors))
	for name := range h.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TensorMetas returns offset and size of every tensor, in name order.
func (h *Header) TensorMetas() []TensorMeta {
	names := h.TensorNames()
	metas := make([]TensorMeta, len(names))
	for i, name := range names {
		info := h.Tensors[name]
		metas[i] = TensorMeta{
			Name:   name,
			Offset: info.DataOffsets[0],
			Size:   info.DataOffsets[1] - info.DataOffsets[0],
		}
	}
	return metas
}
