package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the draftgate application
var rootCmd = &cobra.Command{
	Use:   "draftgate",
	Short: "Drafts and sends email through a PII validation gate",
	Long: `draftgate turns natural language requests into email drafts and
calendar events. Every outbound draft passes a validation gate that scans
for sensitive data: redactable findings are replaced with placeholders,
hard-block findings withhold the draft entirely.

It can run as:
  - An interactive prompt loop (default)
  - A one-shot CLI for a single request
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "draftgate version %s\n" .Version}}`)

	// If no subcommand is provided, start the interactive prompt
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "interactive")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("draftgate version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newRequestCmd())
	rootCmd.AddCommand(newInteractiveCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
