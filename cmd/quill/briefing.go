package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/quillstream/quillstream/internal/briefing"
)

func runBriefing() {
	fs := flag.NewFlagSet("briefing", flag.ExitOnError)
	limit := fs.Int("n", 30, "How many items to assemble from")
	timeout := fs.Duration("timeout", 3*time.Minute, "Generation timeout")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openStore()
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	builder := briefing.New(st, buildProviders(cfg), *limit)
	br, err := builder.Build(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: briefing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("# Briefing - %s\n\n", br.GeneratedAt.Format("Monday, January 2 15:04 MST"))
	fmt.Println(br.Narrative)
	if br.Model != "" {
		fmt.Printf("\n(narrated by %s from %d items)\n", br.Model, len(br.Items))
	}
}
