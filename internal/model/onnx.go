package model

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/born-ml/sophie/internal/nn"
)

// ErrClosed is returned by a scorer used after Close.
var ErrClosed = errors.New("scorer closed")

// ONNXConfig describes an exported dialogue model.
//
// The model takes InputName as int64 [1, T] token ids and produces
// OutputName as float32 [1, T, VocabSize] logits.
type ONNXConfig struct {
	ModelPath         string
	SharedLibraryPath string // onnxruntime shared library; empty uses the default lookup
	ContextLen        int
	VocabSize         int
	InputName         string
	OutputName        string
	IntraOpThreads    int
}

// DefaultONNXConfig returns the tensor names used by the exporter.
func DefaultONNXConfig(modelPath string) ONNXConfig {
	return ONNXConfig{
		ModelPath:      modelPath,
		ContextLen:     64,
		InputName:      "input_ids",
		OutputName:     "logits",
		IntraOpThreads: 4,
	}
}

// ONNXScorer runs an exported model through ONNX Runtime.
type ONNXScorer struct {
	cfg     ONNXConfig
	session *ort.DynamicAdvancedSession

	mu sync.Mutex
}

// NewONNXScorer initializes ONNX Runtime if needed and opens cfg.ModelPath.
func NewONNXScorer(cfg ONNXConfig) (*ONNXScorer, error) {
	if cfg.ContextLen <= 0 || cfg.VocabSize <= 0 {
		return nil, fmt.Errorf("%w: onnx context %d, vocab %d", ErrInvalidConfig, cfg.ContextLen, cfg.VocabSize)
	}

	if !ort.IsInitialized() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if cfg.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ONNXScorer{cfg: cfg, session: session}, nil
}

// ContextLen returns the configured context length.
func (s *ONNXScorer) ContextLen() int {
	return s.cfg.ContextLen
}

// VocabSize returns the configured vocabulary size.
func (s *ONNXScorer) VocabSize() int {
	return s.cfg.VocabSize
}

// NextTokenProbs runs the model on context and returns softmax of the last
// position's logits.
func (s *ONNXScorer) NextTokenProbs(context []int32) ([]float64, error) {
	if err := ValidateContext(s, context); err != nil {
		return nil, err
	}

	ids := make([]int64, len(context))
	for i, id := range context {
		ids[i] = int64(id)
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(len(ids))), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(ids)), int64(s.cfg.VocabSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	err = s.session.Run([]ort.Value{input}, []ort.Value{output})
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	logits := output.GetData()
	last := logits[(len(ids)-1)*s.cfg.VocabSize : len(ids)*s.cfg.VocabSize]
	return softmax32(last), nil
}

// Close releases the ONNX session.
func (s *ONNXScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}

func softmax32(logits []float32) []float64 {
	wide := make([]float64, len(logits))
	for i, v := range logits {
		wide[i] = float64(v)
	}
	return nn.Softmax(wide)
}
