package daemon

import (
	"context"
	"fmt"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/catalog"
	"github.com/matheus3301/huddle/internal/chatlist"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/kv"
	"github.com/matheus3301/huddle/internal/lock"
	"github.com/matheus3301/huddle/internal/logging"
	"github.com/matheus3301/huddle/internal/metrics"
	"github.com/matheus3301/huddle/internal/profile"
	"github.com/matheus3301/huddle/internal/readstate"
	"github.com/matheus3301/huddle/internal/status"
	"github.com/matheus3301/huddle/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Params holds the resolved profile passed to the fx module.
type Params struct {
	ProfileName string
	SocketPath  string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideKV,
			provideStore,
			provideRegistry,
			provideMetrics,
			provideCatalog,
			provideBuilder,
			provideController,
			provideService,
			NewServer,
			NewMetricsServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	return profile.LoadConfig()
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(lc fx.Lifecycle, p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.LockPath(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	lc.Append(fx.StopHook(func() {
		if err := l.Release(); err != nil {
			logger.Warn("error releasing lock", zap.Error(err))
		}
	}))
	return l, nil
}

// provideKV opens and migrates the profile database. It takes the lock so
// the database is never opened without holding it.
func provideKV(lc fx.Lifecycle, p Params, _ *lock.Lock, machine *status.Machine, logger *zap.Logger) (*kv.SQLite, error) {
	if err := machine.Transition(status.Migrating); err != nil {
		return nil, err
	}
	dbPath := profile.DBPath(p.ProfileName)
	db, err := kv.Open(dbPath)
	if err != nil {
		_ = machine.TransitionWithReason(status.Error, err.Error())
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		_ = machine.TransitionWithReason(status.Error, err.Error())
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	lc.Append(fx.StopHook(db.Close))
	return db, nil
}

func provideStore(db *kv.SQLite) *store.Store {
	return store.New(db)
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func provideCatalog(cfg *config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
	}
	logger.Info("catalog loaded", zap.Int("conversations", len(cat.Conversations)))
	return cat, nil
}

func provideBuilder(st *store.Store, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *chatlist.Builder {
	return chatlist.NewBuilder(st, chatlist.Bootstrap{
		ConversationIDs: cfg.Bootstrap.Conversations,
		Placeholders:    cfg.Bootstrap.Placeholders,
		UnreadMin:       cfg.Bootstrap.UnreadMin,
		UnreadMax:       cfg.Bootstrap.UnreadMax,
		MaxAge:          cfg.Bootstrap.MaxAge.Duration,
	},
		chatlist.WithLogger(logger.Named("chatlist")),
		chatlist.WithObserver(m.Built),
	)
}

func provideController(st *store.Store, b *bus.Bus, cfg *config.Config, cat *catalog.Catalog, m *metrics.Metrics, logger *zap.Logger) *readstate.Controller {
	identity := readstate.Sender{
		ID:     cfg.Identity.ID,
		Name:   cfg.Identity.Name,
		Avatar: cfg.Identity.Avatar,
	}
	return readstate.NewController(st, b, identity, cat, m, logger.Named("readstate"))
}

func provideService(
	p Params,
	machine *status.Machine,
	cat *catalog.Catalog,
	st *store.Store,
	builder *chatlist.Builder,
	ctl *readstate.Controller,
	b *bus.Bus,
	logger *zap.Logger,
) *api.Service {
	return api.NewService(p.ProfileName, machine, cat, st, builder, ctl, b, logger.Named("api"))
}

func registerLifecycle(lc fx.Lifecycle, svc *api.Service, srv *Server, ms *MetricsServer, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			if err := ms.Start(); err != nil {
				return err
			}
			return machine.Transition(status.Ready)
		},
		OnStop: func(ctx context.Context) error {
			if err := machine.Transition(status.Stopping); err != nil {
				logger.Warn("status transition failed", zap.Error(err))
			}
			svc.Close()
			srv.Stop(ctx)
			if err := ms.Stop(ctx); err != nil {
				logger.Warn("metrics server shutdown", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
