package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/draftgate/draftgate/internal/instrumentation"
	"github.com/draftgate/draftgate/internal/server"
	"github.com/draftgate/draftgate/internal/tools/assistant_tools"
)

func newServeCmd() *cobra.Command {
	var (
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start an MCP (Model Context Protocol) server over stdio. The server
exposes the assistant workflow as tools:

  assistant_process_request - plan, execute and gate a request end to end
  assistant_scan_text       - scan text for PII
  assistant_validate_draft  - run a draft through the validation gate

With --metrics, Prometheus metrics are served on a dedicated port.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(metricsEnabled, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&metricsEnabled, "metrics", false, "Serve Prometheus metrics on a dedicated port")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Address for the metrics server")
	return cmd
}

func runServe(metricsEnabled bool, metricsAddr string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	if !metricsEnabled && os.Getenv("METRICS_ENABLED") == "true" {
		metricsEnabled = true
	}
	if addr := os.Getenv("METRICS_ADDR"); addr != "" && metricsAddr == server.DefaultMetricsAddr {
		metricsAddr = addr
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during instrumentation shutdown: %v", err)
		}
	}()

	var metricsServer *server.MetricsServer
	if metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}()
	}

	a, err := buildAssistant(shutdownCtx, cfg, logger, provider.Metrics())
	if err != nil {
		return err
	}

	mcpSrv := mcpserver.NewMCPServer("draftgate", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := assistant_tools.RegisterAssistantTools(mcpSrv, a, provider.Metrics()); err != nil {
		return fmt.Errorf("failed to register assistant tools: %w", err)
	}

	return runStdioServer(mcpSrv)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
