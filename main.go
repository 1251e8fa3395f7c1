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

	"github.com/serroba/richdocs/internal/acl"
	"github.com/serroba/richdocs/internal/api"
	"github.com/serroba/richdocs/internal/collab"
	"github.com/serroba/richdocs/internal/config"
	"github.com/serroba/richdocs/internal/editor"
	"github.com/serroba/richdocs/internal/layout"
	"github.com/serroba/richdocs/internal/storage"
	"github.com/serroba/richdocs/internal/ws"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Parse(os.Args[1:], os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}

func run(cfg config.Config, logger *zap.Logger) error {
	// Initialize stores
	store := storage.NewMemoryStore()
	permStore := acl.NewMemoryStore()

	hub := ws.NewHub(ws.HubConfig{Logger: logger.Named("hub")})

	manager := collab.NewManager(collab.ManagerConfig{
		Store:          store,
		PermStore:      permStore,
		Hub:            hub,
		SnapshotPolicy: storage.NewSnapshotPolicy(cfg.SnapshotEvery),
		HistorySize:    cfg.HistorySize,
		Editor: editor.Config{
			WrapWidth: cfg.WrapWidth,
			Measurer:  layout.CellMeasurer{TabWidth: cfg.TabWidth},
		},
		Logger: logger.Named("collab"),
	})

	server := api.NewServer(api.ServerConfig{
		Manager:   manager,
		Store:     store,
		PermStore: permStore,
		Hub:       hub,
		Logger:    logger.Named("api"),
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}

	return manager.CloseAll()
}
