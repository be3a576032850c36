package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func runSentiment() {
	fs := flag.NewFlagSet("sentiment", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: quill sentiment <thread-id>")
		os.Exit(1)
	}
	threadID := fs.Arg(0)

	st := openStore()
	defer st.Close()

	item, err := st.GetItem(threadID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: loading thread: %v\n", err)
		os.Exit(1)
	}
	sum, err := st.GetSentiment(threadID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: loading sentiment: %v\n", err)
		os.Exit(1)
	}
	if sum == nil {
		fmt.Fprintf(os.Stderr, "quill: no sentiment summary for %q\n", threadID)
		os.Exit(1)
	}

	if item != nil {
		fmt.Printf("%s (%s)\n\n", item.Title, item.SourceName)
	}
	fmt.Printf("Overall:    %+.2f\n", sum.Overall)
	fmt.Printf("Confidence: %.2f\n", sum.Confidence)
	fmt.Printf("Consensus:  %s\n", sum.Consensus)
	fmt.Printf("Sampled:    %d comments", sum.SampleSize)
	if sum.DissentCount > 0 {
		fmt.Printf(" (%d dissenting)", sum.DissentCount)
	}
	fmt.Println()
	if len(sum.KeyThemes) > 0 {
		fmt.Printf("Themes:     %s\n", strings.Join(sum.KeyThemes, ", "))
	}
	fmt.Printf("Analyzed:   %s\n", sum.AnalyzedAt.Format("2006-01-02 15:04"))
}
