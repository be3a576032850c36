package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quillstream/quillstream/internal/session"
	"github.com/quillstream/quillstream/internal/ui/chat"
)

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openStore()
	defer st.Close()

	sess, err := session.Open(st, buildProviders(cfg).Available(), session.Options{
		MaxContextItems: cfg.Session.MaxContextItems,
		MaxTurns:        cfg.Session.MaxTurns,
		MinImportance:   cfg.Session.MinImportance,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: opening session: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	p := tea.NewProgram(chat.New(sess), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "quill: chat: %v\n", err)
		os.Exit(1)
	}
}
