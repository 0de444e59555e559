package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/moneta-app/moneta-backend/internal/adapter/httpapi"
	"github.com/moneta-app/moneta-backend/internal/adapter/repository/postgres"
	"github.com/moneta-app/moneta-backend/internal/config"
	cronrunner "github.com/moneta-app/moneta-backend/internal/cron"
	"github.com/moneta-app/moneta-backend/internal/logger"
	"github.com/moneta-app/moneta-backend/internal/usecase/account"
	"github.com/moneta-app/moneta-backend/internal/usecase/performance"
	"github.com/moneta-app/moneta-backend/internal/usecase/snapshot"
	"github.com/moneta-app/moneta-backend/internal/usecase/timeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envOnly := flag.Bool("env-only", false, "skip the config file, use env vars only")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envOnly)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := postgres.NewDB(cfg.DB.DSN)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	accountRepo := postgres.NewAccountRepository(db)
	updateRepo := postgres.NewUpdateRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)

	maintainer := snapshot.NewMaintainer(accountRepo, updateRepo, snapshotRepo, zlog)
	timelineService := timeline.NewService(accountRepo, updateRepo)
	calculator := performance.NewCalculator(updateRepo, timelineService)
	accountService := account.NewService(accountRepo, updateRepo, snapshotRepo, maintainer, db, zlog)
	accountService.Invalidate = calculator.Invalidate

	router := httpapi.NewRouter(httpapi.Deps{
		AccountRepo: accountRepo,
		Accounts:    accountService,
		Timeline:    timelineService,
		Performance: calculator,
		Maintainer:  maintainer,
		Store:       db,
		Logger:      zlog,
		AuthToken:   cfg.Server.AuthToken,
	})

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runner *cronrunner.Runner
	if cfg.Cron.Enabled {
		runner = cronrunner.New(zlog, baseCtx)
		_, err := runner.Add(cfg.Cron.SnapshotSchedule, func(ctx context.Context) {
			if err := maintainer.EnsureCoverage(ctx); err != nil {
				zlog.Error("snapshot coverage run failed", zap.Error(err))
			}
		})
		if err != nil {
			zlog.Fatal("failed to schedule snapshot coverage", zap.Error(err))
		}
		runner.Start()
	}

	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}()

	waitForShutdown(server, runner, cfg, zlog, cancel)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server, runner *cronrunner.Runner, cfg config.Config, zlog *zap.Logger, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	zlog.Info("shutting down", zap.String("signal", sig.String()))

	if runner != nil {
		runner.Stop()
	}
	cancel()

	ctx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("http server shutdown failed", zap.Error(err))
	}
	zlog.Info("http server stopped")
}
