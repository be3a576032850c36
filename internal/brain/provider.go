// Package brain abstracts the language model backends used for briefing
// narration and session answers. Providers are interchangeable; the manager
// picks the preferred one and falls back to whatever else is configured.
package brain

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the interface for model backends
type Provider interface {
	// Name returns the provider name (e.g., "claude", "ollama")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Generate sends a prompt and returns the response
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a prompt request to a provider
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is the provider's response
type Response struct {
	Content     string
	Model       string
	RawResponse string // The raw API response body for logging/debugging
}

// GenerationError wraps a provider failure with enough context for callers
// to report which backend failed and whether it timed out.
type GenerationError struct {
	Provider string
	Timeout  bool
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: generation timed out: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func wrapErr(provider string, err error) error {
	return &GenerationError{
		Provider: provider,
		Timeout:  errors.Is(err, context.DeadlineExceeded),
		Err:      err,
	}
}

// Manager holds the configured providers with fallback ordering.
type Manager struct {
	providers []Provider
	preferred string
}

// NewManager creates an empty provider manager
func NewManager() *Manager {
	return &Manager{providers: make([]Provider, 0)}
}

// Add registers a provider
func (m *Manager) Add(p Provider) {
	m.providers = append(m.providers, p)
}

// SetPreferred sets the preferred provider by name
func (m *Manager) SetPreferred(name string) {
	m.preferred = name
}

// Available returns the first usable provider, preferring the preferred one.
// Returns nil when nothing is configured.
func (m *Manager) Available() Provider {
	if m.preferred != "" {
		for _, p := range m.providers {
			if p.Name() == m.preferred && p.Available() {
				return p
			}
		}
	}
	for _, p := range m.providers {
		if p.Available() {
			return p
		}
	}
	return nil
}

// ByName returns an available provider by name, or nil.
func (m *Manager) ByName(name string) Provider {
	for _, p := range m.providers {
		if p.Name() == name && p.Available() {
			return p
		}
	}
	return nil
}

// ListAvailable returns the names of every usable provider
func (m *Manager) ListAvailable() []string {
	var names []string
	for _, p := range m.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}
