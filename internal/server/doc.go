// Package server provides the HTTP sidecar for the MCP server: a
// dedicated metrics endpoint for Prometheus scraping, kept off the main
// stdio transport.
package server
