// Package onnx runs exported dialogue models with ONNX Runtime.
//
// A model trained elsewhere can be exported to ONNX and served through the
// same generator as a native checkpoint. The exported graph takes int64
// token ids of shape [1, T] and returns float32 logits of shape
// [1, T, VocabSize].
//
// # Example Usage
//
//	import (
//	    "github.com/born-ml/sophie/generate"
//	    "github.com/born-ml/sophie/onnx"
//	    "github.com/born-ml/sophie/tokenizer"
//	)
//
//	vocab := tokenizer.BuildVocabulary(text, tokenizer.DefaultVocabConfig())
//
//	cfg := onnx.DefaultConfig("sophie.onnx")
//	cfg.VocabSize = vocab.Size()
//	scorer, err := onnx.NewScorer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer scorer.Close()
//
//	gen, err := generate.NewGenerator(scorer, vocab, nil)
//
// The onnxruntime shared library must be installed. Set
// Config.SharedLibraryPath when it is not on the default search path.
package onnx

import (
	"github.com/born-ml/sophie/internal/model"
)

// ErrClosed is returned by a Scorer after Close.
var ErrClosed = model.ErrClosed

// Config describes an exported model.
type Config = model.ONNXConfig

// Scorer runs an exported model through ONNX Runtime. It is safe for
// concurrent use.
type Scorer = model.ONNXScorer

// DefaultConfig returns the tensor names used by the exporter and a
// context of 64 tokens. VocabSize must be set before NewScorer.
func DefaultConfig(modelPath string) Config {
	return model.DefaultONNXConfig(modelPath)
}

// NewScorer initializes ONNX Runtime if needed and opens cfg.ModelPath.
func NewScorer(cfg Config) (*Scorer, error) {
	return model.NewONNXScorer(cfg)
}
