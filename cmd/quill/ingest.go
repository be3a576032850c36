package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/quillstream/quillstream/internal/pipeline"
)

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	timeout := fs.Duration("timeout", 5*time.Minute, "Overall cycle timeout")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	srcs := buildSources(cfg)
	if len(srcs) == 0 {
		fmt.Fprintln(os.Stderr, "quill: no feeds or boards configured; edit", configHint())
		os.Exit(1)
	}

	st := openStore()
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stats, err := pipeline.New(st, cfg).RunCycle(ctx, srcs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: ingest failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Fetched:      %d payloads from %d sources\n", stats.Fetched, len(srcs))
	fmt.Printf("Inserted:     %d\n", stats.Inserted)
	fmt.Printf("Merged:       %d\n", stats.Merged)
	fmt.Printf("Malformed:    %d\n", stats.Malformed)
	fmt.Printf("Correlated:   %d\n", stats.Correlated)
	if stats.FailedFeeds > 0 {
		fmt.Printf("Failed feeds: %d\n", stats.FailedFeeds)
	}
	if stats.TotalRejected() > 0 {
		fmt.Printf("Rejected:     %d\n", stats.TotalRejected())
		reasons := make([]string, 0, len(stats.Rejected))
		for r := range stats.Rejected {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Printf("  %-25s %d\n", r, stats.Rejected[r])
		}
	}
	fmt.Printf("Duration:     %s\n", stats.Duration.Round(time.Millisecond))
}
