package model

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/sophie/internal/batch"
	"github.com/born-ml/sophie/internal/nn"
	"github.com/born-ml/sophie/internal/parallel"
	"github.com/born-ml/sophie/internal/serialization"
	"github.com/born-ml/sophie/internal/tokenizer"
)

// ErrUnexpectedTensor is returned when a state dict holds a name the model
// does not have.
var ErrUnexpectedTensor = errors.New("unexpected tensor")

// DialogLM is a decoder-only transformer over the word vocabulary.
//
// Architecture:
//
//	h = TokenEmbed(ids) + PosEmbed(0..T-1)
//	h = Block_L(...Block_1(h))
//	logits = Head(FinalNorm(h))            // [T, VocabSize]
//
// All layers are explicit fields; there is no global model state.
type DialogLM struct {
	Config     Config
	TokenEmbed *nn.Embedding
	PosEmbed   *nn.Embedding
	Blocks     []*nn.TransformerBlock
	FinalNorm  *nn.LayerNorm
	Head       *nn.Linear

	loss     *nn.CrossEntropyLoss
	parallel parallel.Config
}

// forwardCache holds what backward needs from one sequence forward pass.
type forwardCache struct {
	ids       []int32
	blocks    []*nn.BlockCache
	finalNorm *nn.LayerNormCache
	normed    *mat.Dense
}

// New builds a DialogLM with weights drawn from N(0, InitStd²) using a
// source seeded by cfg.Seed.
func New(cfg Config) (*DialogLM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src := rand.NewSource(cfg.Seed)

	m := &DialogLM{
		Config:     cfg,
		TokenEmbed: nn.NewEmbedding("token_embed", cfg.VocabSize, cfg.EmbedDim, cfg.InitStd, src),
		PosEmbed:   nn.NewEmbedding("pos_embed", cfg.ContextLen, cfg.EmbedDim, cfg.InitStd, src),
		Blocks:     make([]*nn.TransformerBlock, cfg.NumLayers),
		FinalNorm:  nn.NewLayerNorm("final_norm", cfg.EmbedDim, cfg.NormEps),
		loss:       nn.NewCrossEntropyLoss(tokenizer.PadID),
		parallel:   parallel.DefaultConfig(),
	}
	for i := range m.Blocks {
		block, err := nn.NewTransformerBlock(fmt.Sprintf("blocks.%d", i), nn.TransformerConfig{
			EmbedDim: cfg.EmbedDim,
			NumHeads: cfg.NumHeads,
			FFNDim:   cfg.FFNDim,
			NormEps:  cfg.NormEps,
			InitStd:  cfg.InitStd,
		}, src)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		m.Blocks[i] = block
	}
	m.Head = nn.NewLinear("head", cfg.EmbedDim, cfg.VocabSize, true, cfg.InitStd, src)
	return m, nil
}

// SetParallel sets how windows of a batch are spread over goroutines.
func (m *DialogLM) SetParallel(cfg parallel.Config) {
	m.parallel = cfg
}

// ContextLen returns the longest sequence the model accepts.
func (m *DialogLM) ContextLen() int {
	return m.Config.ContextLen
}

// VocabSize returns the number of output classes.
func (m *DialogLM) VocabSize() int {
	return m.Config.VocabSize
}

// Parameters returns all parameters in a stable order.
func (m *DialogLM) Parameters() []*nn.Parameter {
	params := append([]*nn.Parameter{}, m.TokenEmbed.Parameters()...)
	params = append(params, m.PosEmbed.Parameters()...)
	for _, b := range m.Blocks {
		params = append(params, b.Parameters()...)
	}
	params = append(params, m.FinalNorm.Parameters()...)
	params = append(params, m.Head.Parameters()...)
	return params
}

// Forward returns logits [len(ids), VocabSize] for every position.
func (m *DialogLM) Forward(ids []int32) (*mat.Dense, error) {
	logits, _, err := m.forward(ids)
	return logits, err
}

// NextTokenProbs returns softmax of the logits at the last context position.
func (m *DialogLM) NextTokenProbs(context []int32) ([]float64, error) {
	if err := ValidateContext(m, context); err != nil {
		return nil, err
	}
	logits, err := m.Forward(context)
	if err != nil {
		return nil, err
	}
	rows, _ := logits.Dims()
	return nn.Softmax(logits.RawRowView(rows - 1)), nil
}

// windowResult is the forward outcome of one batch window.
type windowResult struct {
	sum   float64
	grad  *mat.Dense
	cache *forwardCache
}

// TrainStep runs forward and backward over every window of b and returns the
// mean cross-entropy over non-<PAD> targets.
//
// Gradients are accumulated into the parameters scaled by 1/N, where N is the
// number of counted targets in the whole batch. Call ZeroGrad between steps.
// A batch with no counted targets leaves gradients untouched and returns 0.
func (m *DialogLM) TrainStep(b batch.Batch) (float64, error) {
	results, total, err := m.evaluate(b, true)
	if err != nil || total == 0 {
		return 0, err
	}

	scale := 1 / float64(total)
	var sum float64
	for _, r := range results {
		sum += r.sum
		r.grad.Scale(scale, r.grad)
		m.backward(r.cache, r.grad)
	}
	return sum / float64(total), nil
}

// Loss returns the mean cross-entropy over non-<PAD> targets of b without
// touching gradients. A batch with no counted targets has loss 0.
func (m *DialogLM) Loss(b batch.Batch) (float64, error) {
	results, total, err := m.evaluate(b, false)
	if err != nil || total == 0 {
		return 0, err
	}

	var sum float64
	for _, r := range results {
		sum += r.sum
	}
	return sum / float64(total), nil
}

// ZeroGrad clears the gradients of every parameter.
func (m *DialogLM) ZeroGrad() {
	nn.ZeroGrad(m.Parameters())
}

// StateDict returns the parameter matrices by name. The matrices are the
// live parameter values, not copies.
func (m *DialogLM) StateDict() map[string]*mat.Dense {
	params := m.Parameters()
	state := make(map[string]*mat.Dense, len(params))
	for _, p := range params {
		state[p.Name()] = p.Value()
	}
	return state
}

// LoadStateDict copies state into the parameters. Every parameter must be
// present with a matching shape, and no other names are allowed.
func (m *DialogLM) LoadStateDict(state map[string]*mat.Dense) error {
	params := m.Parameters()
	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p.Name()] = true
		src, ok := state[p.Name()]
		if !ok {
			return fmt.Errorf("%w: %s", serialization.ErrMissingTensor, p.Name())
		}
		wr, wc := p.Dims()
		gr, gc := src.Dims()
		if wr != gr || wc != gc {
			return fmt.Errorf("%w: %s is %dx%d, want %dx%d", serialization.ErrShapeMismatch, p.Name(), gr, gc, wr, wc)
		}
	}
	for name := range state {
		if !known[name] {
			return fmt.Errorf("%w: %s", ErrUnexpectedTensor, name)
		}
	}

	for _, p := range params {
		p.SetValue(state[p.Name()])
	}
	return nil
}

func (m *DialogLM) evaluate(b batch.Batch, keep bool) ([]windowResult, int, error) {
	total := 0
	for i, w := range b.Windows {
		if len(w.Input) != len(w.Target) {
			return nil, 0, fmt.Errorf("window %d: %d inputs, %d targets", i, len(w.Input), len(w.Target))
		}
		total += m.loss.Counted(w.Target)
	}

	results := make([]windowResult, len(b.Windows))
	err := parallel.ForErr(len(b.Windows), func(i int) error {
		w := b.Windows[i]
		logits, cache, err := m.forward(w.Input)
		if err != nil {
			return fmt.Errorf("window %d: %w", i, err)
		}
		sum, grad, err := m.loss.Forward(logits, w.Target)
		if err != nil {
			return fmt.Errorf("window %d: %w", i, err)
		}
		results[i] = windowResult{sum: sum}
		if keep {
			results[i].grad = grad
			results[i].cache = cache
		}
		return nil
	}, m.parallel)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (m *DialogLM) forward(ids []int32) (*mat.Dense, *forwardCache, error) {
	if len(ids) == 0 {
		return nil, nil, ErrEmptyContext
	}
	if len(ids) > m.Config.ContextLen {
		return nil, nil, fmt.Errorf("%w: %d > %d", ErrContextTooLong, len(ids), m.Config.ContextLen)
	}

	h, err := m.TokenEmbed.Forward(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTokenOutOfVocab, err)
	}
	pos, err := m.PosEmbed.Forward(nn.Positions(len(ids)))
	if err != nil {
		return nil, nil, err
	}
	h.Add(h, pos)

	c := &forwardCache{
		ids:    ids,
		blocks: make([]*nn.BlockCache, len(m.Blocks)),
	}
	for i, block := range m.Blocks {
		h, c.blocks[i] = block.Forward(h)
	}
	c.normed, c.finalNorm = m.FinalNorm.Forward(h)
	return m.Head.Forward(c.normed), c, nil
}

func (m *DialogLM) backward(c *forwardCache, dLogits *mat.Dense) {
	d := m.Head.Backward(c.normed, dLogits)
	d = m.FinalNorm.Backward(c.finalNorm, d)
	for i := len(m.Blocks) - 1; i >= 0; i-- {
		d = m.Blocks[i].Backward(c.blocks[i], d)
	}
	m.TokenEmbed.Backward(c.ids, d)
	m.PosEmbed.Backward(nn.Positions(len(c.ids)), d)
}
