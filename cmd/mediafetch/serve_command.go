package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/Belphemur/MediaFetch/internal/config"
	grpcserver "github.com/Belphemur/MediaFetch/internal/grpc"
	"github.com/Belphemur/MediaFetch/internal/jobs"
	"github.com/Belphemur/MediaFetch/internal/jobstore"
	"github.com/Belphemur/MediaFetch/internal/metrics"
	"github.com/Belphemur/MediaFetch/internal/services"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the media gRPC API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cc *commandContext, cfg *config.Config) error {
	logger := config.GetLogger()

	logger.Info().
		Str("version", version).
		Int("server_port", cfg.Server.Port).
		Str("server_address", cfg.Server.Address).
		Str("output_dir", cfg.Downloads.OutputDir).
		Str("jobs_provider", cfg.Jobs.Provider).
		Msg("Application started with configuration")

	store, err := jobstore.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("create job store: %w", err)
	}
	defer store.Close()

	downloader := services.NewDownloader(cc.newEngine(cfg), services.SettingsFromConfig(cfg))
	runner := jobs.NewRunner(downloader, store, jobs.SettingsFromConfig(cfg))
	defer runner.Close()

	grpcServer := grpcserver.NewGRPCServer(runner, cfg.Downloads.OutputDir)

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	logger.Info().Str("address", listener.Addr().String()).Msg("Starting gRPC server")

	// The command context is canceled on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		logger.Info().Msg("Received shutdown signal")
		grpcServer.GracefulStop()
	}()

	if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	logger.Info().Msg("Server stopped gracefully")
	return nil
}
