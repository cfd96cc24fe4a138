// Package main provides the sophie CLI: train a word-level dialogue model on
// a corpus and chat with it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

const version = "v0.1.0"

type command struct {
	name  string
	usage string
	run   func(args []string, stdin io.Reader, stdout io.Writer) error
}

var commands = []command{
	{"train", "Train a model on a corpus and save a checkpoint", runTrain},
	{"chat", "Chat with a trained model", runChat},
	{"run", "Train on a corpus, then chat with the result", runTrainAndChat},
	{"inspect", "Print corpus and vocabulary statistics", runInspect},
	{"version", "Show version", runVersion},
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("sophie: ")

	if err := dispatch(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func dispatch(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:], stdin, stdout)
		}
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout)
		return nil
	}
	printUsage(stdout)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Sophie dialogue model %s\n\n", version)
	fmt.Fprintln(w, "Usage: sophie <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'sophie <command> -h' for command flags.")
}

func runVersion(_ []string, _ io.Reader, stdout io.Writer) error {
	fmt.Fprintf(stdout, "sophie %s\n", version)
	return nil
}
