// Command rpslvalidate runs a submitted change batch through the
// authoritative change validation core and prints one result per request
// as JSON. It stands in for the external update handler that the core
// assumes upstream: parsing RPSL text into objects, and committing
// accepted changes, both happen outside this binary.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/irrdcore/rpslvalidate/internal/batchio"
	"github.com/irrdcore/rpslvalidate/internal/config"
	"github.com/irrdcore/rpslvalidate/internal/metrics"
	"github.com/irrdcore/rpslvalidate/internal/store"
	"github.com/irrdcore/rpslvalidate/internal/validation"
	"github.com/irrdcore/rpslvalidate/pkg/logger"
)

func main() {
	var configPath, batchPath, metricsAddr string

	cmd := &cobra.Command{
		Use:   "rpslvalidate",
		Short: "Validate an RPSL change batch against the authoritative core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, batchPath, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&batchPath, "batch", "-", "path to a batch JSON file (\"-\" for stdin)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address while the batch is validated")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, batchPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.NewLogger(logger.Config(cfg.Log))

	reg := prometheus.NewRegistry()
	validatorMetrics := metrics.NewValidator(reg)
	if metricsAddr != "" {
		go serveMetrics(metricsAddr, reg, log)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	objStore := store.NewPostgresStore(pool, log)

	raw, err := readBatch(batchPath)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}
	requests, creds, err := batchio.DecodeBatch(raw)
	if err != nil {
		return err
	}

	authCfg := validation.AuthConfig{
		OverridePasswordHash:             cfg.Auth.OverridePasswordHash,
		AuthenticateParentsRouteCreation: cfg.Auth.AuthenticateParentsRouteCreation,
		SetAuthModes:                     cfg.Auth.ResolveSetAuthModes(),
	}

	referenceValidator := validation.NewReferenceValidator(objStore, log)
	authValidator := validation.NewAuthValidator(objStore, objStore, authCfg, log)
	rulesValidator := validation.NewRulesValidator(objStore, objStore, log)
	runner := validation.NewBatchRunner(referenceValidator, authValidator, rulesValidator, log)

	start := time.Now()
	results, err := runner.Run(ctx, requests, creds)
	if err != nil {
		return fmt.Errorf("validate batch: %w", err)
	}
	validatorMetrics.BatchSize.Observe(float64(len(results)))
	validatorMetrics.BatchDuration.Observe(time.Since(start).Seconds())

	for _, rr := range results {
		category := ""
		if !rr.Result.IsValid() {
			category = "rejected"
		}
		validatorMetrics.ObserveRequest(string(rr.Request.New.Class()), rr.Request.Type.String(), rr.Result.IsValid(), rr.Result.UsedOverride(), category)
	}

	out, err := batchio.EncodeResults(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func readBatch(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped", "error", err)
	}
}
