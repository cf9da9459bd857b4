package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftgate/draftgate/internal/assistant"
)

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start a prompt loop for multiple requests",
		Long: `Start an interactive session. Each line is processed as a request
unless it is one of the built-in commands:

  search <query>   search your mailbox for matching messages
  recent           list recent inbox messages
  events           list calendar events for the next seven days
  quit             exit the session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := buildAssistant(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}

			return runInteractive(ctx, a, os.Stdin)
		},
	}
}

func runInteractive(ctx context.Context, a *assistant.Assistant, in *os.File) error {
	fmt.Println("draftgate - interactive mode")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Type a request to draft an email, or:")
	fmt.Println("  search <query>   search your mailbox")
	fmt.Println("  recent           list recent messages")
	fmt.Println("  events           list upcoming calendar events")
	fmt.Println("  quit             exit")
	fmt.Println(strings.Repeat("=", 60))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.EqualFold(line, "quit"), strings.EqualFold(line, "exit"):
			fmt.Println("Goodbye.")
			return nil
		case strings.HasPrefix(strings.ToLower(line), "search "):
			showSearch(ctx, a, strings.TrimSpace(line[len("search "):]))
		case strings.EqualFold(line, "recent"):
			showSearch(ctx, a, "in:inbox")
		case strings.EqualFold(line, "events"):
			showEvents(ctx, a)
		default:
			if err := runRequest(ctx, a, line, false); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
		fmt.Println()
	}

	return scanner.Err()
}

func showSearch(ctx context.Context, a *assistant.Assistant, query string) {
	snippets, err := a.SearchContext(ctx, query)
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		return
	}
	if len(snippets) == 0 {
		fmt.Println("No matching messages.")
		return
	}
	for i, s := range snippets {
		fmt.Printf("%d. %s\n", i+1, strings.ReplaceAll(s.Text, "\n", "\n   "))
	}
}

func showEvents(ctx context.Context, a *assistant.Assistant) {
	events, err := a.UpcomingEvents(ctx, 7*24*time.Hour)
	if err != nil {
		fmt.Printf("Listing events failed: %v\n", err)
		return
	}
	if len(events) == 0 {
		fmt.Println("No events in the next seven days.")
		return
	}
	for i, ev := range events {
		fmt.Printf("%d. %s\n", i+1, formatEvent(ev))
	}
}

func formatEvent(ev assistant.Event) string {
	var b strings.Builder
	b.WriteString(ev.Summary)
	if !ev.Start.IsZero() {
		fmt.Fprintf(&b, " (%s", ev.Start.Format("Mon Jan 2 15:04"))
		if !ev.End.IsZero() {
			fmt.Fprintf(&b, " - %s", ev.End.Format("15:04"))
		}
		b.WriteString(")")
	}
	if len(ev.Attendees) > 0 {
		fmt.Fprintf(&b, " with %s", strings.Join(ev.Attendees, ", "))
	}
	return b.String()
}
