package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/quillstream/quillstream/internal/model"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	st := openStore()
	defer st.Close()

	articles, _ := st.ItemCount(model.KindFeedArticle)
	threads, _ := st.ItemCount(model.KindDiscussionThread)
	comments, _ := st.ItemCount(model.KindDiscussionComment)
	groups, _ := st.GroupCount()

	fmt.Printf("Articles:   %d\n", articles)
	fmt.Printf("Threads:    %d\n", threads)
	fmt.Printf("Comments:   %d\n", comments)
	fmt.Printf("Groups:     %d\n", groups)

	last, err := st.LastCycleStats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: loading cycle stats: %v\n", err)
		os.Exit(1)
	}
	if last == nil {
		fmt.Println("\nNo ingest cycle recorded yet.")
		return
	}

	fmt.Println("\n=== Last ingest cycle ===")
	fmt.Printf("Started:    %s\n", last.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Duration:   %s\n", last.Duration.Round(time.Millisecond))
	fmt.Printf("Fetched:    %d\n", last.Fetched)
	fmt.Printf("Inserted:   %d\n", last.Inserted)
	fmt.Printf("Merged:     %d\n", last.Merged)
	fmt.Printf("Malformed:  %d\n", last.Malformed)
	fmt.Printf("Correlated: %d\n", last.Correlated)
	fmt.Printf("Failed:     %d sources\n", last.FailedFeeds)
	if last.TotalRejected() > 0 {
		fmt.Printf("Rejected:   %d\n", last.TotalRejected())
		reasons := make([]string, 0, len(last.Rejected))
		for r := range last.Rejected {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Printf("  %-25s %d\n", r, last.Rejected[r])
		}
	}
}
