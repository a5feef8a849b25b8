package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-client/internal/api"
	"github.com/stemsi/exstem-client/internal/config"
	"github.com/stemsi/exstem-client/internal/logger"
	"github.com/stemsi/exstem-client/internal/store"
	"github.com/stemsi/exstem-client/internal/validator"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "exstem-client",
		Short:         "Student exam-taking client for the ExStem platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(loginCmd(), logoutCmd(), lobbyCmd(), takeCmd())
	return root
}

// app bundles everything a command needs.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *api.Client
	local  *store.Store
}

// setup loads config, validates it, opens the local store, and restores a
// previously saved auth token onto the API client.
func setup() (*app, error) {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	validator.Setup()
	if fields := validator.Check(cfg); fields != nil {
		for name, msg := range fields {
			log.Error().Str("field", name).Msg(msg)
		}
		return nil, fmt.Errorf("invalid configuration")
	}

	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	local, err := store.Open(filepath.Join(cfg.StateDir, "client.db"))
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	if token, err := local.LoadToken(); err == nil && token != "" {
		client.SetToken(token)
	}

	return &app{cfg: cfg, log: log, client: client, local: local}, nil
}

func (a *app) close() {
	if err := a.local.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close local store")
	}
}
