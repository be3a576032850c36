package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func runGroup() {
	fs := flag.NewFlagSet("group", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: quill group <group-id | item-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	st := openStore()
	defer st.Close()

	group, err := st.GetGroup(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quill: loading group: %v\n", err)
		os.Exit(1)
	}
	if group == nil {
		// Maybe they gave an item id.
		if item, err := st.GetItem(id); err == nil && item != nil && item.GroupID != "" {
			group, err = st.GetGroup(item.GroupID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "quill: loading group: %v\n", err)
				os.Exit(1)
			}
		}
	}
	if group == nil {
		fmt.Fprintf(os.Stderr, "quill: no group found for %q\n", id)
		os.Exit(1)
	}

	fmt.Printf("Group %s\n", group.ID)
	fmt.Printf("Created: %s\n", group.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Terms:   %s\n\n", strings.Join(group.Terms, ", "))
	fmt.Printf("Members (%d, discovery order):\n", len(group.MemberIDs))
	for i, memberID := range group.MemberIDs {
		item, err := st.GetItem(memberID)
		if err != nil || item == nil {
			fmt.Printf("%2d. %s (missing)\n", i+1, memberID)
			continue
		}
		fmt.Printf("%2d. [%s] %s (%s)\n", i+1, item.Kind, item.Title, item.SourceName)
	}
}
