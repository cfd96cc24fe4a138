// Package model provides the sequence models that score dialogue continuations.
//
// Everything downstream of the model depends only on Scorer. Two
// implementations exist:
//   - DialogLM: a small decoder-only transformer trained in pure Go
//   - ONNXScorer: an exported model run through ONNX Runtime
//
// Example:
//
//	cfg := model.DefaultConfig()
//	cfg.VocabSize = vocab.Size()
//	lm, err := model.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	probs, err := lm.NextTokenProbs([]int32{tokenizer.UserID, 7, tokenizer.BotID})
package model
