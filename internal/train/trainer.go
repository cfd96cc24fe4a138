// Package train runs the optimization loop for a dialogue language model.
//
// Each step draws a batch of random windows, accumulates gradients with one
// forward/backward pass and applies one optimizer update:
//
//	t, err := train.New(lm, optim.NewAdamW(lm.Parameters(), optim.DefaultAdamWConfig()),
//	    stream, train.DefaultConfig(), train.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	result, err := t.Run(ctx)
package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/exp/rand"

	"github.com/born-ml/sophie/internal/batch"
	"github.com/born-ml/sophie/internal/corpus"
	"github.com/born-ml/sophie/internal/nn"
	"github.com/born-ml/sophie/internal/optim"
)

// ErrInvalidConfig is returned for out-of-range training settings.
var ErrInvalidConfig = errors.New("invalid training config")

// Model is the part of model.DialogLM the trainer drives.
type Model interface {
	TrainStep(b batch.Batch) (float64, error)
	Loss(b batch.Batch) (float64, error)
	Parameters() []*nn.Parameter
	ContextLen() int
}

// Config holds the training loop settings.
type Config struct {
	BatchSize   int     `yaml:"batch_size"`   // Windows per step (default: 32)
	Steps       int     `yaml:"steps"`        // Optimizer updates (default: 1000)
	LogEvery    int     `yaml:"log_every"`    // Log interval in steps, 0 disables (default: 200)
	EvalEvery   int     `yaml:"eval_every"`   // Validation interval in steps, 0 disables
	EvalBatches int     `yaml:"eval_batches"` // Batches averaged per validation (default: 4)
	ValFraction float64 `yaml:"val_fraction"` // Share of pairs held out for validation
	GradClip    float64 `yaml:"grad_clip"`    // Global gradient norm limit, 0 disables
	Seed        uint64  `yaml:"seed"`         // Window sampling seed
}

// DefaultConfig returns 1000 steps of 32 windows, logging every 200.
func DefaultConfig() Config {
	return Config{
		BatchSize:   32,
		Steps:       1000,
		LogEvery:    200,
		EvalBatches: 4,
		Seed:        1,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.Steps < 0:
		return fmt.Errorf("%w: steps must not be negative, got %d", ErrInvalidConfig, c.Steps)
	case c.LogEvery < 0 || c.EvalEvery < 0:
		return fmt.Errorf("%w: log_every and eval_every must not be negative", ErrInvalidConfig)
	case c.EvalEvery > 0 && c.EvalBatches <= 0:
		return fmt.Errorf("%w: eval_batches must be positive, got %d", ErrInvalidConfig, c.EvalBatches)
	case c.ValFraction < 0 || c.ValFraction >= 1:
		return fmt.Errorf("%w: val_fraction must be in [0, 1), got %g", ErrInvalidConfig, c.ValFraction)
	case c.EvalEvery > 0 && c.ValFraction == 0:
		return fmt.Errorf("%w: eval_every needs a val_fraction", ErrInvalidConfig)
	case c.GradClip < 0:
		return fmt.Errorf("%w: grad_clip must not be negative, got %g", ErrInvalidConfig, c.GradClip)
	}
	return nil
}

// Point is one logged step.
type Point struct {
	Step    int
	Loss    float64
	ValLoss float64 // NaN when no validation ran at this step
}

// Result summarizes a run.
type Result struct {
	Steps    int     // Completed optimizer updates
	Loss     float64 // Training loss of the last completed step
	ValLoss  float64 // Last validation loss, NaN if none ran
	GradNorm float64 // Gradient norm of the last step before clipping
	History  []Point // Logged steps
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger for periodic loss lines.
func WithLogger(l *log.Logger) Option {
	return func(t *Trainer) {
		t.logger = l
	}
}

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(t *Trainer) {
		t.progress = w
	}
}

// Trainer owns the sampling state of one training run.
type Trainer struct {
	cfg       Config
	model     Model
	optimizer optim.Optimizer
	train     *batch.Sampler
	val       *batch.Sampler
	logger    *log.Logger
	progress  io.Writer
}

// New prepares a run over stream.
//
// A stream too short for one window of the model's context length fails
// here, before any step runs, with a *batch.ConfigError.
func New(m Model, optimizer optim.Optimizer, stream corpus.Stream, cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	trainStream, valStream := stream.Split(cfg.ValFraction)
	trainSampler, err := batch.NewSampler(trainStream, m.ContextLen(), rand.NewSource(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("training split: %w", err)
	}

	t := &Trainer{
		cfg:       cfg,
		model:     m,
		optimizer: optimizer,
		train:     trainSampler,
		logger:    log.New(io.Discard, "", 0),
	}
	if cfg.ValFraction > 0 {
		t.val, err = batch.NewSampler(valStream, m.ContextLen(), rand.NewSource(cfg.Seed+1))
		if err != nil {
			return nil, fmt.Errorf("validation split: %w", err)
		}
	}

	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard, "", 0)
	}
	return t, nil
}

// Run performs cfg.Steps updates.
//
// Cancellation is checked between steps; the partial result is returned
// together with ctx.Err().
func (t *Trainer) Run(ctx context.Context) (Result, error) {
	res := Result{ValLoss: math.NaN()}

	var bar *progressbar.ProgressBar
	if t.progress != nil {
		bar = newProgressBar(t.progress, t.cfg.Steps)
		defer func() { _ = bar.Finish() }()
	}

	params := t.model.Parameters()
	for step := 1; step <= t.cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		t.optimizer.ZeroGrad()
		loss, err := t.model.TrainStep(t.train.Sample(t.cfg.BatchSize))
		if err != nil {
			return res, fmt.Errorf("step %d: %w", step, err)
		}
		res.GradNorm = optim.ClipGradNorm(params, t.cfg.GradClip)
		t.optimizer.Step()

		res.Steps = step
		res.Loss = loss

		point := Point{Step: step, Loss: loss, ValLoss: math.NaN()}
		evaluated := false
		if t.val != nil && t.cfg.EvalEvery > 0 && step%t.cfg.EvalEvery == 0 {
			vl, err := t.Evaluate()
			if err != nil {
				return res, fmt.Errorf("step %d: validation: %w", step, err)
			}
			res.ValLoss = vl
			point.ValLoss = vl
			evaluated = true
		}

		if t.cfg.LogEvery > 0 && step%t.cfg.LogEvery == 0 {
			if evaluated {
				t.logger.Printf("step %d, loss %.4f, val loss %.4f", step, loss, point.ValLoss)
			} else {
				t.logger.Printf("step %d, loss %.4f", step, loss)
			}
			res.History = append(res.History, point)
		} else if evaluated {
			res.History = append(res.History, point)
		}

		if bar != nil {
			bar.Describe(fmt.Sprintf("Training (loss %.4f)", loss))
			_ = bar.Add(1)
		}
	}
	return res, nil
}

// Evaluate returns the mean loss over EvalBatches held-out batches.
// It does not touch gradients.
func (t *Trainer) Evaluate() (float64, error) {
	if t.val == nil {
		return math.NaN(), fmt.Errorf("%w: no validation split", ErrInvalidConfig)
	}

	n := t.cfg.EvalBatches
	if n <= 0 {
		n = 1
	}
	var sum float64
	for range n {
		loss, err := t.model.Loss(t.val.Sample(t.cfg.BatchSize))
		if err != nil {
			return math.NaN(), err
		}
		sum += loss
	}
	return sum / float64(n), nil
}

func newProgressBar(w io.Writer, steps int) *progressbar.ProgressBar {
	return progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Training"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
