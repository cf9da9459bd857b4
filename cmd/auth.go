package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/draftgate/draftgate/internal/google"
	"github.com/draftgate/draftgate/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the Google OAuth flow and cache the token",
		Long: `Authorize draftgate against your Google account. Prints an
authorization URL, waits for the code, and caches the resulting token for
later runs. Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			logger = logging.WithService(logger, "google")

			auth, err := google.NewAuthenticator(cfg.Google.ClientID, cfg.Google.ClientSecret)
			if err != nil {
				return err
			}

			if auth.HasToken() && !force {
				fmt.Println("A cached token already exists; use --force to replace it.")
				return nil
			}

			fmt.Println("Open the following URL in your browser and authorize draftgate:")
			fmt.Println()
			fmt.Println("  " + auth.AuthURL())
			fmt.Println()
			fmt.Print("Paste the authorization code here: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}
			logger.Debug("exchanging authorization code",
				slog.String("code", logging.SanitizeToken(code)))

			if err := auth.SaveToken(context.Background(), code); err != nil {
				return err
			}
			logger.Info("token cached")
			fmt.Println("Token cached.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing cached token")
	return cmd
}
