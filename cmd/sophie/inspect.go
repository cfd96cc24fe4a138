package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/born-ml/sophie/internal/corpus"
	"github.com/born-ml/sophie/internal/tokenizer"
)

func runInspect(args []string, _ io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	corpusPath := fs.String("corpus", "", "Dialogue corpus")
	configPath := fs.String("config", "", "YAML config file (defaults are used when empty)")
	top := fs.Int("top", 20, "Number of most frequent words to list")
	bpe := fs.String("bpe", "", "Also count tokens with a tiktoken encoding, e.g. "+tokenizer.DefaultBPEEncoding)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *corpusPath == "" {
		return errors.New("-corpus is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	text, err := corpus.ReadFile(*corpusPath)
	if err != nil {
		return err
	}

	var bpeTok *tokenizer.TikToken
	if *bpe != "" {
		bpeTok, err = tokenizer.NewTikToken(*bpe)
		if err != nil {
			return err
		}
	}
	return inspect(stdout, text, cfg.Vocab, *top, bpeTok)
}

func inspect(w io.Writer, text string, vcfg tokenizer.VocabConfig, top int, bpe *tokenizer.TikToken) error {
	vocab := tokenizer.BuildVocabulary(text, vcfg)
	stream, stats := corpus.EncodeWithStats(text, vocab)
	counts := tokenizer.CountWords(text)

	fmt.Fprintf(w, "Corpus:      %d words, %d distinct, %d speaker labels\n", stats.Words, len(counts), stats.Labels)
	fmt.Fprintf(w, "Turns:       %d user words, %d bot words\n", stats.UserWords, stats.BotWords)
	fmt.Fprintf(w, "Vocabulary:  %d tokens (%d control), fingerprint %016x\n",
		vocab.Size(), tokenizer.NumControlTokens, vocab.Fingerprint())
	fmt.Fprintf(w, "Coverage:    %.1f%% of content words known, %d unknown\n", 100*stats.Coverage(), stats.UnknownWords)
	fmt.Fprintf(w, "Stream:      %d ids\n", stream.Len())

	if bpe != nil {
		n := bpe.Count(text)
		perWord := 0.0
		if stats.Words > 0 {
			perWord = float64(n) / float64(stats.Words)
		}
		fmt.Fprintf(w, "BPE (%s): %d tokens, %.2f per word\n", bpe.Name(), n, perWord)
	}

	if top > 0 && len(counts) > 0 {
		fmt.Fprintln(w, "\nMost frequent words:")
		for i, wc := range counts[:min(top, len(counts))] {
			fmt.Fprintf(w, "  %3d. %-20s %d\n", i+1, wc.Word, wc.Count)
		}
	}
	return nil
}
