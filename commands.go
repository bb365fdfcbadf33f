package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fmuoria/interview-coach/internal/config"
	"github.com/fmuoria/interview-coach/internal/export"
	"github.com/fmuoria/interview-coach/internal/secrets"
	"github.com/fmuoria/interview-coach/internal/storage"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "interview-coach",
		Short:         "Interview practice backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(newConfigCmd())
	root.AddCommand(newSecretCmd())
	root.AddCommand(newExportCmd())
	return root
}

func newConfigCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage the config file"}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().SaveTo(path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}

func newSecretCmd() *cobra.Command {
	secretCmd := &cobra.Command{Use: "google-secret", Short: "Manage the Google OAuth client secret in the OS keychain"}

	var clientID string
	secretCmd.PersistentFlags().StringVar(&clientID, "client-id", "", "OAuth client id (defaults to google_client_id)")

	secretCmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the secret read from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := googleClientID(clientID)
			if err != nil {
				return err
			}
			secret, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := secrets.SetGoogleClientSecret(id, secret); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stored secret for %s\n", id)
			return nil
		},
	})
	secretCmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := googleClientID(clientID)
			if err != nil {
				return err
			}
			if err := secrets.DeleteGoogleClientSecret(id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted secret for %s\n", id)
			return nil
		},
	})
	return secretCmd
}

func newExportCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Write finished interviews to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			n, err := exportResults(cmd.Context(), cfg, userID, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d interviews\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "only this user's interviews")
	return cmd
}

func exportResults(ctx context.Context, cfg *config.Config, userID, outputPath string) (int, error) {
	dbPath := filepath.Join(cfg.DataDir, "interview.db")
	if _, err := os.Stat(dbPath); err != nil {
		return 0, fmt.Errorf("no results database at %s: %w", dbPath, err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	results, err := db.ListInterviews(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := export.ExportToExcel(results, outputPath); err != nil {
		return 0, err
	}
	return len(results), nil
}

func googleClientID(flagValue string) (string, error) {
	if id := strings.TrimSpace(flagValue); id != "" {
		return id, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.GoogleClientID == "" {
		return "", errors.New("no google client id: pass --client-id or set google_client_id")
	}
	return cfg.GoogleClientID, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
