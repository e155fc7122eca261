package cli

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/piicleaner/internal/config"
	"github.com/dshills/piicleaner/internal/logger"
	"github.com/dshills/piicleaner/internal/server"
	"github.com/dshills/piicleaner/internal/telemetry"
)

const shutdownGrace = 15 * time.Second

var (
	flagAddr      string
	flagLogMode   string
	flagTelemetry string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve detection and cleaning over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagAddr != "" {
			overrides["server.addr"] = flagAddr
		}
		if flagLogMode != "" {
			overrides["server.logMode"] = flagLogMode
		}
		if flagTelemetry != "" {
			overrides["telemetry.provider"] = flagTelemetry
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}
		c, err := cfg.NewCleaner()
		if err != nil {
			return err
		}

		log := logger.New(cfg.Server.LogMode)
		defer func() { _ = log.Sync() }()

		metrics, err := telemetry.New(telemetry.Config{
			Provider:   cfg.Telemetry.Provider,
			StatsdAddr: cfg.Telemetry.StatsdAddr,
		})
		if err != nil {
			fail(cmd, "telemetry: %v", err)
			return nil
		}
		var exporter http.Handler
		switch m := metrics.(type) {
		case *telemetry.Prometheus:
			exporter = m.Handler()
		case *telemetry.Statsd:
			defer m.Close()
		}

		srv := server.New(server.Options{
			Cleaner:        c,
			CleanerOptions: cfg.CleanerOptions(),
			Logger:         log,
			Metrics:        metrics,
			MetricsHandler: exporter,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("starting piicleaner",
			zap.String("version", version),
			zap.Strings("cleaners", c.Detectors()),
			zap.String("telemetry", cfg.Telemetry.Provider),
		)
		if err := srv.Run(ctx, cfg.Server.Addr, shutdownGrace); err != nil {
			log.Error("server stopped", zap.Error(err))
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default :8080)")
	serveCmd.Flags().StringVar(&flagLogMode, "log-mode", "", "Log mode (production, development)")
	serveCmd.Flags().StringVar(&flagTelemetry, "telemetry", "", "Metrics provider (none, prometheus, statsd)")
}
