package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// WriteSafeTensors writes matrices as F64 tensors of shape [rows, cols].
//
// Format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]
//
// Tensors are written in alphabetical order by name. The SHA-256 of the data
// section is added to metadata under MetaChecksum.
func WriteSafeTensors(w io.Writer, tensors map[string]*mat.Dense, metadata map[string]string) error {
	header := Header{
		Metadata: make(map[string]string, len(metadata)+1),
		Tensors:  make(map[string]TensorInfo, len(tensors)),
	}
	for k, v := range metadata {
		header.Metadata[k] = v
	}

	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
	}

	var data bytes.Buffer
	buf := make([]byte, 8)
	for _, name := range sortedKeys(tensors) {
		m := tensors[name]
		rows, cols := m.Dims()
		start := int64(data.Len())
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				binary.LittleEndian.PutUint64(buf, math.Float64bits(m.At(i, j)))
				data.Write(buf)
			}
		}
		header.Tensors[name] = TensorInfo{
			DType:       DTypeF64,
			Shape:       []int64{int64(rows), int64(cols)},
			DataOffsets: [2]int64{start, int64(data.Len())},
		}
	}
	header.Metadata[MetaChecksum] = FormatChecksum(ComputeChecksum(data.Bytes()))

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// ReadSafeTensors parses a SafeTensors stream into matrices and metadata.
//
// One-dimensional tensors load as a single row. F32 data is widened to
// float64. When metadata carries MetaChecksum, the data section is verified
// against it.
func ReadSafeTensors(r io.Reader) (map[string]*mat.Dense, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateHeader(&header, int64(len(data))); err != nil {
		return nil, nil, err
	}

	if stored, ok := header.Metadata[MetaChecksum]; ok {
		sum, err := ParseChecksum(stored)
		if err != nil {
			return nil, nil, err
		}
		if err := ValidateChecksum(ComputeChecksum(data), sum); err != nil {
			return nil, nil, err
		}
	}

	tensors := make(map[string]*mat.Dense, len(header.Tensors))
	for _, name := range header.TensorNames() {
		info := header.Tensors[name]
		m, err := decodeTensor(name, info, data[info.DataOffsets[0]:info.DataOffsets[1]])
		if err != nil {
			return nil, nil, err
		}
		tensors[name] = m
	}
	return tensors, header.Metadata, nil
}

// WriteSafeTensorsFile writes a SafeTensors file at path.
func WriteSafeTensorsFile(path string, tensors map[string]*mat.Dense, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteSafeTensors(file, tensors, metadata); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	return file.Close()
}

// ReadSafeTensorsFile reads a SafeTensors file at path.
func ReadSafeTensorsFile(path string) (map[string]*mat.Dense, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return ReadSafeTensors(file)
}

func decodeTensor(name string, info TensorInfo, raw []byte) (*mat.Dense, error) {
	var rows, cols int
	switch len(info.Shape) {
	case 1:
		rows, cols = 1, int(info.Shape[0])
	case 2:
		rows, cols = int(info.Shape[0]), int(info.Shape[1])
	default:
		return nil, fmt.Errorf("%w: tensor %q has rank %d, want 1 or 2", ErrShapeMismatch, name, len(info.Shape))
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: tensor %q is empty", ErrShapeMismatch, name)
	}

	values := make([]float64, rows*cols)
	switch info.DType {
	case DTypeF64:
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	case DTypeF32:
		for i := range values {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, info.DType)
	}
	return mat.NewDense(rows, cols, values), nil
}

func sortedKeys(tensors map[string]*mat.Dense) []string {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
