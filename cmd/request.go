package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/draftgate/draftgate/internal/assistant"
	"github.com/draftgate/draftgate/internal/executor"
	"github.com/draftgate/draftgate/internal/gate"
)

func newRequestCmd() *cobra.Command {
	var autoSend bool

	cmd := &cobra.Command{
		Use:   "request [text]",
		Short: "Process one natural language request",
		Long: `Process a single request end to end: plan it, execute the plan
against Gmail, Calendar and Contacts, and show the gated draft.

Examples:
  draftgate request "email bob@example.com about the delayed shipment"
  draftgate request --auto-send "schedule a sync with Sarah tomorrow at 3pm"`,
		Args: cobra.MinimumNArgs(1),
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

			return runRequest(ctx, a, strings.Join(args, " "), autoSend)
		},
	}

	cmd.Flags().BoolVar(&autoSend, "auto-send", false, "Send the draft automatically when the gate approves it")
	return cmd
}

func runRequest(ctx context.Context, a *assistant.Assistant, text string, autoSend bool) error {
	result, err := a.ProcessRequest(ctx, text, autoSend)
	if err != nil {
		return err
	}

	displayResult(result)

	if result.Verdict != nil && result.Verdict.Decision == gate.DecisionBlock {
		return fmt.Errorf("draft blocked by the validation gate")
	}
	if result.Execution.Outcome == executor.OutcomePartialFailure {
		return fmt.Errorf("some plan actions failed")
	}
	return nil
}

func displayResult(result *assistant.RunResult) {
	for i, action := range result.Plan.Actions {
		r := result.Execution.Results[i]
		fmt.Printf("  [%d] %-14s %s\n", i, action.Kind, r.Status)
		if r.Err != nil {
			fmt.Printf("      %v\n", r.Err)
		}
	}
	fmt.Println()

	if result.Verdict != nil && result.Verdict.Decision == gate.DecisionBlock {
		fmt.Println("Draft BLOCKED by the validation gate.")
		fmt.Printf("Blocking categories: %s\n", strings.Join(blockingCategories(result.Verdict), ", "))
		return
	}

	if result.Draft != nil {
		displayDraft(result.Draft.To, result.Draft.Subject, result.Draft.Body)
		if result.Verdict.Decision == gate.DecisionRedactAndApprove {
			fmt.Println("Note: sensitive data was detected and redacted.")
		}
	}

	if result.Sent {
		fmt.Printf("Email sent (id %s).\n", result.SentID)
	}
}

func displayDraft(to []string, subject, body string) {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Printf("TO:      %s\n", strings.Join(to, ", "))
	fmt.Printf("SUBJECT: %s\n", subject)
	fmt.Println(line)
	fmt.Println(body)
	fmt.Println(line)
}

func blockingCategories(verdict *gate.Verdict) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range verdict.Blocking {
		label := f.Category.String()
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}
