// Package serialization stores dialogue model checkpoints in SafeTensors format.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor entries plus "__metadata__"]
//	  [Tensor data: raw little-endian bytes, tensors in name order]
//
// A checkpoint is an ordinary SafeTensors file, so other tools can open it.
// The "__metadata__" map carries everything needed to rebuild the model and
// its vocabulary:
//   - format: always "sophie"
//   - config: model configuration as JSON
//   - vocab: the vocabulary word list as a JSON array
//   - vocab_fingerprint: xxhash of the vocabulary (hex)
//   - checksum: SHA-256 of the data section (hex)
//   - step, loss: training progress
//
// Example usage:
//
//	ckpt := &serialization.Checkpoint{
//	    Tensors: model.StateDict(),
//	    Config:  cfgJSON,
//	    Vocab:   vocab.Words(),
//	    Step:    1000,
//	}
//	if err := serialization.WriteCheckpoint("sophie.safetensors", ckpt); err != nil {
//	    log.Fatal(err)
//	}
//
//	loaded, err := serialization.ReadCheckpoint("sophie.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
