// Package loader provides model loading functionality for dialogue models.
//
// This package wraps internal model and serialization implementations and
// exports a clean public API for loading trained models from checkpoints.
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/sophie/loader"
//	)
//
//	// Detect the format from the file name
//	if loader.DetectFormat(path) != loader.FormatSafeTensors {
//	    log.Fatal("not a checkpoint")
//	}
//
//	// Restore the model together with its vocabulary
//	lm, vocab, err := loader.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Vocabulary: %d words, context %d\n", vocab.Size(), lm.ContextLen())
package loader

import (
	"path/filepath"
	"strings"

	"github.com/born-ml/sophie/internal/model"
	"github.com/born-ml/sophie/internal/serialization"
	"github.com/born-ml/sophie/internal/tokenizer"
)

// ModelFormat represents the model file format.
type ModelFormat string

// Supported model formats.
const (
	FormatUnknown     ModelFormat = "unknown"
	FormatSafeTensors ModelFormat = "safetensors"
	FormatONNX        ModelFormat = "onnx"
)

// Model is a trained word-level dialogue model.
type Model = model.DialogLM

// Config holds the model hyperparameters.
type Config = model.Config

// Checkpoint is a model's weights with its vocabulary and training progress.
type Checkpoint = serialization.Checkpoint

// DetectFormat guesses the format of path from its extension.
func DetectFormat(path string) ModelFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".safetensors":
		return FormatSafeTensors
	case ".onnx":
		return FormatONNX
	default:
		return FormatUnknown
	}
}

// New creates a randomly initialized model.
func New(cfg Config) (*Model, error) {
	return model.New(cfg)
}

// DefaultConfig returns the default model hyperparameters. VocabSize must be
// set before New.
func DefaultConfig() Config {
	return model.DefaultConfig()
}

// Load reads a checkpoint and rebuilds the model and its vocabulary.
func Load(path string) (*Model, *tokenizer.Vocabulary, error) {
	return model.Load(path)
}

// ReadCheckpoint reads a checkpoint without building the model, for
// inspecting its training progress.
func ReadCheckpoint(path string) (*Checkpoint, error) {
	return serialization.ReadCheckpoint(path)
}
