package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vetting/interviewer/internal/config"
	"vetting/interviewer/internal/llm"
	_ "vetting/interviewer/internal/llm/gemini"
	_ "vetting/interviewer/internal/llm/openai"
	"vetting/interviewer/internal/utils"
)

const version = "1.0.0"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "interviewer",
		Short:        "AI moderated screening interview service",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSweepCommand())
	return cmd
}

// bootstrap loads configuration and builds the logger every command starts from
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := utils.NewLogger(cfg.LogPretty)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// startApp connects to the database and the model provider and wires the service graph
func startApp(migrateFirst bool) (*app, error) {
	cfg, logger, err := bootstrap()
	if err != nil {
		return nil, err
	}
	logger.Info("Configuration loaded", zap.String("provider", cfg.Provider))

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if migrateFirst {
		if err := migrate(db); err != nil {
			return nil, err
		}
	}

	provider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AI provider: %w", err)
	}
	return buildApp(cfg, logger, db, provider)
}

func newServeCommand() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the maintenance scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := startApp(autoMigrate)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.logger.Sync()
			return serve(a)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "migrate the database schema before serving")
	return cmd
}

func serve(a *app) error {
	if err := a.job.Start(); err != nil {
		return err
	}
	defer a.job.Stop()

	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.requestTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Interviewer service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-shutdownChan:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	a.logger.Info("Interviewer service shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("Interviewer service exited")
	return nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if err := migrate(db); err != nil {
				return err
			}
			logger.Info("Database migrated")
			return nil
		},
	}
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Abandon idle sessions and backfill missing reports once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := startApp(false)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.logger.Sync()

			result, err := a.job.RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "abandoned %d sessions, generated %d reports\n", result.Abandoned, result.Reports)
			return err
		},
	}
}
