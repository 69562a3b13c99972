package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talentledger/anchor-service/internal/api"
	"github.com/talentledger/anchor-service/internal/api/container"
	sharedconfig "github.com/talentledger/anchor-service/internal/shared/config"
	"github.com/talentledger/anchor-service/internal/shared/logging"
)

const serverPortKey = "SERVER_PORT"
const shutdownTimeout = 30 * time.Second

func main() {
	logger := logging.Default
	if err := run(logger); err != nil {
		logger.Error("anchor service exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	dependencyContainer, err := container.NewContainer()
	if err != nil {
		return err
	}
	dependencyContainer.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper, err := dependencyContainer.Sweeper()
	if err != nil {
		return err
	}
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.Run(ctx)
	}()

	port := sharedconfig.GetEnvOrDefault(serverPortKey, "8080")
	server := &http.Server{
		Addr:    net.JoinHostPort("", port),
		Handler: api.AnchorServiceAPIHandler(dependencyContainer, dependencyContainer.Config),
	}

	serverErrs := make(chan error, 1)
	go func() {
		logger.Info("anchor service listening", slog.String("addr", server.Addr))
		serverErrs <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("error shutting down server", slog.Any("error", err))
	}

	// in-flight publish operations finalize in the background; let them finish
	if orchestrator, err := dependencyContainer.Orchestrator(); err == nil {
		orchestrator.Wait()
	}
	<-sweeperDone

	logger.Info("anchor service stopped")
	return nil
}
