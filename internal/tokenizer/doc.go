// Package tokenizer provides word-level tokenization for dialogue corpora.
//
// The package implements:
//   - Vocabulary: top-K frequent words with a minimum count, behind four
//     reserved control tokens (<PAD>, <UNK>, <USER>, <BOT>)
//   - DialogTemplate: renders chat turns back into "Label: text" corpus lines
//   - TikToken: BPE token counting used by corpus reports
//
// Example usage:
//
//	vocab := tokenizer.BuildVocabulary(text, tokenizer.DefaultVocabConfig())
//
//	ids, _ := vocab.Encode("hello there")
//	text, _ := vocab.Decode(ids)
package tokenizer
