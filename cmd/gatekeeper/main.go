package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatekeeper-bot/internal/access"
	"gatekeeper-bot/internal/bot"
	"gatekeeper-bot/internal/config"
	"gatekeeper-bot/internal/metrics"
	"gatekeeper-bot/internal/modules/approval"
	"gatekeeper-bot/internal/modules/audit"
	"gatekeeper-bot/internal/stats"
	"gatekeeper-bot/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	if cfg.RetentionDays > 0 {
		if err := store.CleanupAuditLogs(context.Background(), cfg.RetentionDays); err != nil {
			logger.Warn("audit cleanup failed", zap.Error(err))
		}
	}

	provider := metrics.New(cfg.Health.Enabled && cfg.Health.Metrics)
	auditLogger := audit.NewLogger(store, logger)
	policy := access.New(cfg.Admins.IDs, cfg.Admins.ChannelOwnerID)
	aggregator := stats.New(store, cfg.Location(), cfg.Stats.TopUsers)
	approvalModule := approval.New(approval.Config{
		RequireUsername: cfg.JoinRequests.RequireUsername,
		AutoApprove:     cfg.JoinRequests.AutoApprove,
	}, store, auditLogger, provider, logger)

	botSvc, err := bot.New(cfg, logger, policy, aggregator, approvalModule, auditLogger, provider)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		if cfg.Health.Metrics {
			http.Handle("/metrics", promhttp.Handler())
		}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	botSvc.Close(ctx)
}
