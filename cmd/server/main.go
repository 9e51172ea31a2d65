package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/auction-marketplace/internal/auction"
	"github.com/iliyamo/auction-marketplace/internal/config"
	"github.com/iliyamo/auction-marketplace/internal/database"
	"github.com/iliyamo/auction-marketplace/internal/handler"
	"github.com/iliyamo/auction-marketplace/internal/ledger"
	"github.com/iliyamo/auction-marketplace/internal/notify"
	"github.com/iliyamo/auction-marketplace/internal/repository"
	"github.com/iliyamo/auction-marketplace/internal/repository/memstore"
	"github.com/iliyamo/auction-marketplace/internal/router"
	"github.com/iliyamo/auction-marketplace/internal/utils"
)

// settingsStore is read by the engine and written by the admin handler.
type settingsStore interface {
	auction.Settings
	handler.SettingsWriter
}

// backend is the storage side selected by STORE_DRIVER.
type backend struct {
	store      ledger.Store
	settings   settingsStore
	reputation handler.ReputationReader
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := utils.ConfigureLogger(cfg.LogLevel).WithField("component", "server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable: settings cache and rate limiting disabled")
	}

	be, err := openBackend(ctx, cfg, rdb, log)
	if err != nil {
		log.WithError(err).Fatal("storage init failed")
	}
	defer be.close()

	var notifier auction.Notifier = notify.NewLogPublisher(nil)
	if cfg.NotifyDriver == config.NotifyAMQP {
		notifier = notify.NewAMQPPublisher(cfg.RabbitURL, cfg.NotifyQueue)
	}

	engine := auction.NewEngine(be.store, be.settings, notifier,
		auction.WithLogger(logrus.WithField("component", "auction")),
		auction.WithMaxSettlementAttempts(cfg.SettlementMaxAttempts),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	router.RegisterRoutes(e, router.Deps{
		Engine:     engine,
		Settings:   be.settings,
		Reputation: be.reputation,
		JWTSecret:  cfg.JWTSecret,
		RateLimit:  config.LoadRateLimitConfig(),
		Redis:      rdb,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return engine.RunSweeps(gctx, cfg.SweepInterval)
	})
	if cfg.NotifyDriver == config.NotifyAMQP && cfg.NotifyConsumerEnabled {
		consumer := notify.NewConsumer(cfg.RabbitURL, cfg.NotifyQueue, cfg.NotifyLogPath)
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
	}
	engine.Wait() // flush in-flight notifications
	log.Info("shutdown complete")
}

// openBackend connects the selected store and runs migrations for MySQL.
func openBackend(ctx context.Context, cfg config.Config, rdb *redis.Client, log *logrus.Entry) (backend, error) {
	if cfg.StoreDriver == config.StoreMemory {
		mem := memstore.New()
		if cfg.SeedDemo {
			l := mem.SeedDemo(time.Now().UTC())
			log.WithFields(logrus.Fields{"listing_id": l.ID, "seller_id": l.SellerID, "ends_at": l.EndsAt}).Info("seeded demo listing")
		}
		return backend{
			store:      mem,
			settings:   memstore.NewSettings(nil),
			reputation: mem,
			close:      closer(nil, rdb),
		}, nil
	}

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return backend{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return backend{}, err
	}
	l := repository.NewLedger(db)
	return backend{
		store:      l,
		settings:   repository.NewSettingsRepo(db, rdb, cfg.SettingsCacheTTL),
		reputation: l,
		close:      closer(db, rdb),
	}, nil
}

func closer(db *sql.DB, rdb *redis.Client) func() {
	return func() {
		if db != nil {
			_ = db.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}
}
