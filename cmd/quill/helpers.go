package main

import (
	"fmt"
	"os"
	"time"

	"github.com/quillstream/quillstream/internal/brain"
	"github.com/quillstream/quillstream/internal/config"
	"github.com/quillstream/quillstream/internal/model"
	"github.com/quillstream/quillstream/internal/sources"
	"github.com/quillstream/quillstream/internal/sources/board"
	"github.com/quillstream/quillstream/internal/sources/rss"
)

const fetchTimeout = 30 * time.Second

// loadConfig reads the config or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore opens the corpus database or exits.
func openStore() *model.Store {
	st, err := model.NewStore(config.DataPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: opening corpus: %v\n", err)
		os.Exit(1)
	}
	return st
}

// buildSources turns the config into source adapters.
func buildSources(cfg *config.Config) []sources.Source {
	var srcs []sources.Source
	for _, f := range cfg.Feeds {
		srcs = append(srcs, rss.New(sources.Config{
			Name:     f.Name,
			Category: f.Category,
		}, f.URL, fetchTimeout))
	}
	for _, b := range cfg.Boards {
		srcs = append(srcs, board.New(sources.Config{
			Name:     b.Name,
			Category: b.Category,
			MinScore: b.MinScore,
		}, b.URL, b.Limit, fetchTimeout))
	}
	return srcs
}

// buildProviders wires the configured model backends.
func buildProviders(cfg *config.Config) *brain.Manager {
	mgr := brain.NewManager()
	if cfg.Models.Claude.Enabled && cfg.Models.Claude.APIKey != "" {
		mgr.Add(brain.NewClaudeProvider(cfg.Models.Claude.APIKey, cfg.Models.Claude.Model))
	}
	if cfg.Models.Ollama.Enabled {
		mgr.Add(brain.NewOllamaProvider(cfg.Models.Ollama.Endpoint, cfg.Models.Ollama.Model))
	}
	mgr.SetPreferred("claude")
	return mgr
}
