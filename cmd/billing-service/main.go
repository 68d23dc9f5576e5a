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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/greenhangar/ghe-billing/internal/auth"
	"github.com/greenhangar/ghe-billing/internal/config"
	"github.com/greenhangar/ghe-billing/internal/db"
	"github.com/greenhangar/ghe-billing/internal/excel"
	httphandler "github.com/greenhangar/ghe-billing/internal/http"
	"github.com/greenhangar/ghe-billing/internal/http/middleware"
	"github.com/greenhangar/ghe-billing/internal/logger"
	"github.com/greenhangar/ghe-billing/internal/metrics"
	"github.com/greenhangar/ghe-billing/internal/pdf"
	"github.com/greenhangar/ghe-billing/internal/repository"
	"github.com/greenhangar/ghe-billing/internal/selection"
	"github.com/greenhangar/ghe-billing/internal/service"
	"github.com/greenhangar/ghe-billing/internal/storage"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "billing-service",
		Short:         "Contract billing and invoicing for the GHE operations console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("billing-service version %s\n", version)
		},
	})
	return cmd
}

func migrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close(database)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("migrations applied")
	return nil
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)
	decimal.MarshalJSONWithoutQuotes = true

	database, err := db.New(cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close(database)

	blobs, err := storage.NewDiskBlobStore(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	loc := cfg.Billing.Location
	contracts := repository.NewContractRepository(database)
	ledger := service.NewLedgerService(contracts)
	payments := service.NewPaymentService(repository.NewPaymentRepository(database), recorder, loc, time.Now)
	selections := service.NewSelectionService(ledger, selection.NewStore(loc, time.Now))
	profiles := service.NewProfileService(repository.NewProfileRepository(database), blobs, cfg.Storage.MaxImageWidth, log)
	documents := service.NewDocumentService(
		selections,
		payments,
		pdf.NewGenerator(),
		excel.NewGenerator(),
		cfg.Billing,
		recorder,
		time.Now,
	)

	handler := httphandler.NewHandler(httphandler.Services{
		Ledger:    ledger,
		Pricing:   service.NewPricingService(repository.NewPricingRepository(database), time.Now),
		Payments:  payments,
		Selection: selections,
		Documents: documents,
		Profiles:  profiles,
	}, recorder, loc, log)
	router := httphandler.NewRouter(
		handler,
		middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret)),
		httphandler.RouterConfig{Environment: cfg.Environment, AllowedOrigins: cfg.HTTP.CORSAllowedOrigins},
		registry,
		log,
	)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", version).Msg("starting billing service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	profiles.Drain()
	return nil
}
