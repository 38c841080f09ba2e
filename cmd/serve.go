package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/courier/internal/api"
	"github.com/shaharia-lab/courier/internal/config"
	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/eventbus"
	"github.com/shaharia-lab/courier/internal/health"
	"github.com/shaharia-lab/courier/internal/logger"
	"github.com/shaharia-lab/courier/internal/metrics"
	"github.com/shaharia-lab/courier/internal/server"
	"github.com/shaharia-lab/courier/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP delivery service",
	Long:  "Start the HTTP API server that accepts messages and delivers them through the configured providers.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (overrides PORT env var)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("creating data directory %q: %w", cfg.DataDir, err)
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.SlogLevel(),
		ToFile: cfg.LogToFile,
		Dir:    cfg.LogDir(),
	})
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, fresh, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening delivery database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if fresh {
		log.Info("initialized delivery database", slog.String("path", cfg.DBPath()))
	}
	store := storage.NewSQLiteDeliveryStore(db)

	providers, err := buildProviders(cfg)
	if err != nil {
		return err
	}
	defer closeProviders(providers)

	policyFile, err := config.LoadRoutingPolicy(cfg.RoutingPath())
	if err != nil {
		return err
	}
	policy, err := buildPolicy(policyFile)
	if err != nil {
		return err
	}

	bus := eventbus.New(0, log)
	defer bus.Close()
	bus.Subscribe(deliveryAuditListener(log))

	m := metrics.New()

	dispatcher, err := dispatch.New(dispatch.Config{
		Providers: providers,
		Policy:    policy,
		Store:     store,
		Events:    bus,
		Metrics:   m,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	prober, err := health.New(providers, cfg.HealthProbeInterval, log)
	if err != nil {
		return err
	}
	if err := prober.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = prober.Stop() }()

	apiSrv := api.New(dispatcher, store, prober, log)
	srv := server.New(apiSrv, m, cfg.Port, log)

	log.Info("courier service starting",
		slog.Int("port", cfg.Port),
		slog.Any("providers", dispatcher.Providers()))
	fmt.Fprintf(os.Stderr, "Courier running on http://localhost:%d\n", cfg.Port)
	fmt.Fprintf(os.Stderr, "  POST /api/send                         → deliver a message\n")
	fmt.Fprintf(os.Stderr, "  GET  /api/deliveries                   → recent delivery log\n")
	fmt.Fprintf(os.Stderr, "  GET  /api/providers                    → provider health\n")
	fmt.Fprintf(os.Stderr, "  POST /api/providers/{name}/validate    → probe one provider\n")
	fmt.Fprintf(os.Stderr, "  GET  /metrics                          → Prometheus metrics\n")

	return srv.Run(ctx)
}

// deliveryAuditListener logs every delivery event carried by the bus.
func deliveryAuditListener(log *slog.Logger) eventbus.Listener {
	return func(e eventbus.Event) {
		attrs := []any{slog.String("event_type", e.Type)}
		for k, v := range e.Payload {
			attrs = append(attrs, slog.String(k, v))
		}
		log.Info("delivery event", attrs...)
	}
}
