// Package serve implements the HTTP server command.
package serve

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linkforge/linkwatch/internal/api"
	"github.com/linkforge/linkwatch/internal/logger"
)

const errorChannelBufferSize = 1

// Command returns the serve cobra command.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and in-process batch scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Start(*cfgFile)
		},
	}
}

// Start starts the HTTP server and runs until interrupted.
// It handles graceful shutdown on SIGINT or SIGTERM signals.
func Start(cfgFile string) error {
	deps, err := newDeps(cfgFile)
	if err != nil {
		return err
	}
	defer deps.Close()

	router := api.SetupRouter(deps.Logger, deps.BacklinksHandler, deps.CronHandler, deps.Config)
	server := api.NewHTTPServer(router, deps.Config)

	if deps.CronRunner != nil {
		if cronErr := deps.CronRunner.Start(); cronErr != nil {
			return fmt.Errorf("start batch cron: %w", cronErr)
		}
	}

	deps.Logger.Info("Starting HTTP server", "addr", deps.Config.Server.Address)

	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return runUntilInterrupt(deps, server, errChan)
}

// runUntilInterrupt blocks until a shutdown signal or server error.
func runUntilInterrupt(deps *Deps, server *http.Server, errChan chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case serverErr := <-errChan:
		deps.Logger.Error("Server error", "error", serverErr)
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		return shutdown(deps.Logger, deps, server, sig)
	}
}

// shutdown performs graceful shutdown of the cron runner and the server.
func shutdown(log logger.Interface, deps *Deps, server *http.Server, sig os.Signal) error {
	log.Info("Shutdown signal received", "signal", sig.String())

	if deps.CronRunner != nil {
		deps.CronRunner.Stop()
	}

	shutdownCtx, cancel := shutdownContext()
	defer cancel()

	log.Info("Stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop server", "error", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	log.Info("Server stopped successfully")
	return nil
}
