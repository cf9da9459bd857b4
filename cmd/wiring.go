package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/draftgate/draftgate/internal/assistant"
	"github.com/draftgate/draftgate/internal/calendar"
	"github.com/draftgate/draftgate/internal/config"
	"github.com/draftgate/draftgate/internal/contacts"
	"github.com/draftgate/draftgate/internal/executor"
	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/gmail"
	"github.com/draftgate/draftgate/internal/google"
	"github.com/draftgate/draftgate/internal/instrumentation"
	"github.com/draftgate/draftgate/internal/logging"
	"github.com/draftgate/draftgate/internal/pii"
)

// loadConfig reads and validates configuration and sets up logging.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.Setup(cfg.LogLevel)
	return cfg, logger, nil
}

// buildAssistant wires the Google service clients and policy into an
// Assistant. It fails when no cached OAuth token exists; run "draftgate
// auth" first.
func buildAssistant(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*assistant.Assistant, error) {
	auth, err := google.NewAuthenticator(cfg.Google.ClientID, cfg.Google.ClientSecret)
	if err != nil {
		return nil, err
	}
	logger.Debug("google oauth client configured",
		slog.String("client_id", logging.MaskValue(cfg.Google.ClientID)))
	if !auth.HasToken() {
		return nil, fmt.Errorf("no cached Google token; run 'draftgate auth' first")
	}
	httpClient, err := auth.HTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build authenticated client: %w", err)
	}

	gmailClient, err := gmail.NewClient(ctx, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client: %w", err)
	}
	calendarClient, err := calendar.NewClient(ctx, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client: %w", err)
	}
	contactsClient, err := contacts.NewClient(ctx, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create People client: %w", err)
	}

	policy, err := gate.PolicyFromNames(cfg.PII.Redactable, cfg.PII.HardBlock)
	if err != nil {
		return nil, err
	}
	scanner := pii.NewScanner()
	if !cfg.PII.Enabled {
		logger.Warn("outbound PII scanning is disabled")
		scanner = pii.NewDisabledScanner()
	}

	return assistant.New(assistant.Options{
		Retriever: &gmailRetriever{client: gmailClient, maxResults: cfg.Search.MaxResults, metrics: metrics},
		Drafter:   &assistant.TemplateDrafter{},
		Directory: &contactsDirectory{client: contactsClient, metrics: metrics},
		Scheduler: &calendarScheduler{client: calendarClient, timeZone: cfg.Timezone, metrics: metrics},
		Sender:    &gmailSender{client: gmailClient, metrics: metrics},
		Mailbox:   &gmailMailbox{client: gmailClient, metrics: metrics},
		Scanner:   scanner,
		Policy:    policy,
		Executor: executor.Options{
			MaxAttempts:   cfg.Retry.MaxAttempts,
			BaseDelay:     cfg.Retry.BaseDelay,
			ActionTimeout: cfg.Retry.ActionTimeout,
			MaxParallel:   cfg.Retry.MaxParallel,
		},
		TopK:     cfg.Search.ContextTopK,
		Location: cfg.Location(),
		Logger:   logger,
		Metrics:  metrics,
	})
}
