// Package cmd implements the command-line interface for draftgate.
//
// This package provides the following commands:
//   - request: Process one natural language request and show the gated draft
//   - interactive: Start a prompt loop for multiple requests
//   - auth: Run the Google OAuth flow and cache the token
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//
// The interactive command is the default when no subcommand is specified.
package cmd
