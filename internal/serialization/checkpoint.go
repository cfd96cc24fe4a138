package serialization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/sophie/internal/tokenizer"
	"gonum.org/v1/gonum/mat"
)

// Checkpoint is a trained model together with everything needed to use it.
type Checkpoint struct {
	Tensors map[string]*mat.Dense // parameters by name
	Config  json.RawMessage       // model configuration
	Vocab   []string              // vocabulary words, index = token id
	Step    int                   // optimizer steps taken
	Loss    float64               // last training loss
}

// Metadata returns the "__metadata__" map written for c.
func (c *Checkpoint) Metadata() (map[string]string, error) {
	vocab, err := tokenizer.NewVocabulary(c.Vocab)
	if err != nil {
		return nil, fmt.Errorf("checkpoint vocabulary: %w", err)
	}
	words, err := marshalWords(c.Vocab)
	if err != nil {
		return nil, fmt.Errorf("marshal vocabulary: %w", err)
	}
	if len(c.Config) > 0 && !json.Valid(c.Config) {
		return nil, fmt.Errorf("checkpoint config is not valid JSON")
	}

	return map[string]string{
		MetaFormat:           FormatName,
		MetaFormatVersion:    strconv.Itoa(FormatVersion),
		MetaConfig:           string(c.Config),
		MetaVocab:            words,
		MetaVocabFingerprint: formatFingerprint(vocab.Fingerprint()),
		MetaStep:             strconv.Itoa(c.Step),
		MetaLoss:             strconv.FormatFloat(c.Loss, 'g', -1, 64),
	}, nil
}

// marshalWords encodes words as a JSON array without HTML escaping, so
// control tokens such as <PAD> stay readable in the header.
func marshalWords(words []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(words); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// WriteCheckpointTo writes c to w.
func WriteCheckpointTo(w io.Writer, c *Checkpoint) error {
	meta, err := c.Metadata()
	if err != nil {
		return err
	}
	return WriteSafeTensors(w, c.Tensors, meta)
}

// WriteCheckpoint writes c to a file at path.
func WriteCheckpoint(path string, c *Checkpoint) error {
	meta, err := c.Metadata()
	if err != nil {
		return err
	}
	return WriteSafeTensorsFile(path, c.Tensors, meta)
}

// ReadCheckpointFrom reads a checkpoint from r.
//
// The vocabulary is rebuilt and its fingerprint compared with the stored one.
func ReadCheckpointFrom(r io.Reader) (*Checkpoint, error) {
	tensors, meta, err := ReadSafeTensors(r)
	if err != nil {
		return nil, err
	}
	return checkpointFromMetadata(tensors, meta)
}

// ReadCheckpoint reads a checkpoint file at path.
func ReadCheckpoint(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	c, err := ReadCheckpointFrom(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func checkpointFromMetadata(tensors map[string]*mat.Dense, meta map[string]string) (*Checkpoint, error) {
	if meta[MetaFormat] != FormatName {
		return nil, fmt.Errorf("%w: format %q", ErrNotCheckpoint, meta[MetaFormat])
	}
	if v := meta[MetaFormatVersion]; v != strconv.Itoa(FormatVersion) {
		return nil, fmt.Errorf("%w: format version %q", ErrNotCheckpoint, v)
	}

	c := &Checkpoint{Tensors: tensors}
	if err := json.Unmarshal([]byte(meta[MetaVocab]), &c.Vocab); err != nil {
		return nil, fmt.Errorf("checkpoint vocabulary: %w", err)
	}
	vocab, err := tokenizer.NewVocabulary(c.Vocab)
	if err != nil {
		return nil, fmt.Errorf("checkpoint vocabulary: %w", err)
	}

	stored, err := strconv.ParseUint(meta[MetaVocabFingerprint], 16, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable fingerprint %q", ErrFingerprintMismatch, meta[MetaVocabFingerprint])
	}
	if got := vocab.Fingerprint(); got != stored {
		return nil, fmt.Errorf("%w: stored %016x, vocabulary hashes to %016x", ErrFingerprintMismatch, stored, got)
	}

	if s := meta[MetaConfig]; s != "" {
		c.Config = json.RawMessage(s)
	}
	if s := meta[MetaStep]; s != "" {
		if c.Step, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("checkpoint step: %w", err)
		}
	}
	if s := meta[MetaLoss]; s != "" {
		if c.Loss, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("checkpoint loss: %w", err)
		}
	}
	return c, nil
}

func formatFingerprint(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
