// Command quill is the unified CLI for the quillstream pipeline.
//
// Usage:
//
//	quill                   Show help
//	quill ingest            Run one full ingest cycle
//	quill items             List top items by importance
//	quill group <id>        Show a correlation group
//	quill sentiment <id>    Show the sentiment summary for a thread
//	quill briefing          Assemble and print a briefing
//	quill chat              Open an interactive reading session
//	quill stats             Corpus and last-cycle statistics
package main

import (
	"fmt"
	"os"

	"github.com/quillstream/quillstream/internal/logging"
)

const usage = `quill - news & discussion intelligence CLI

Usage:
  quill <command> [flags]

Commands:
  ingest      Fetch all configured sources and run one pipeline cycle
  items       List top corpus items by importance
  group       Show the members and terms of a correlation group
  sentiment   Show the community sentiment summary for a thread
  briefing    Assemble a briefing from the corpus top
  chat        Open an interactive grounded session over the corpus
  stats       Corpus counts and last ingest cycle diagnostics

Environment:
  ANTHROPIC_API_KEY   Enables the Claude provider for briefings and chat
  OLLAMA_ENDPOINT     Enables a local Ollama provider

Run 'quill <command> -h' for command-specific help.
`

func main() {
	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "quill: logging init: %v\n", err)
	}
	defer logging.Close()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		return
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "ingest":
		runIngest()
	case "items":
		runItems()
	case "group":
		runGroup()
	case "sentiment":
		runSentiment()
	case "briefing":
		runBriefing()
	case "chat":
		runChat()
	case "stats":
		runStats()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "quill: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
