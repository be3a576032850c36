package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quillstream/quillstream/internal/config"
)

func configHint() string {
	return config.ConfigPath()
}

func runItems() {
	fs := flag.NewFlagSet("items", flag.ExitOnError)
	limit := fs.Int("n", 20, "How many items to show")
	category := fs.String("category", "", "Restrict to one category")
	fs.Parse(os.Args[1:])

	st := openStore()
	defer st.Close()

	items, err := st.TopByImportance(*limit, 0)
	if *category != "" {
		items, err = st.ItemsByCategory(*category, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: listing items: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("Corpus is empty. Run 'quill ingest' first.")
		return
	}

	for i, item := range items {
		marker := " "
		if item.GroupID != "" {
			marker = "*"
		}
		fmt.Printf("%2d.%s [%.3f] %-12s %s (%s)\n", i+1, marker, item.Importance, item.Kind, item.Title, item.SourceName)
		fmt.Printf("       id=%s  published=%s  score=%d comments=%d\n",
			item.ID, item.Published.Format("2006-01-02 15:04"), item.Engagement.Score, item.Engagement.Comments)
	}
	fmt.Println("\n* = part of a correlation group (see 'quill group')")
}
