package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/theater-management/internal/config"
	"github.com/iliyamo/theater-management/internal/database"
	"github.com/iliyamo/theater-management/internal/handler"
	"github.com/iliyamo/theater-management/internal/metrics"
	"github.com/iliyamo/theater-management/internal/middleware"
	"github.com/iliyamo/theater-management/internal/queue"
	"github.com/iliyamo/theater-management/internal/repository"
	"github.com/iliyamo/theater-management/internal/router"
	"github.com/iliyamo/theater-management/internal/seed"
	"github.com/iliyamo/theater-management/internal/service"
)

const sessionSweepInterval = 15 * time.Minute

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := database.Open(cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	roles := repository.NewRoleRepo(db)
	theaters := repository.NewTheaterRepo(db)
	sessions := repository.NewSessionRepo(db)

	if cfg.SeedEnabled {
		st := seed.Stores{Roles: roles, Users: users, Theaters: theaters}
		if err := seed.Run(ctx, st, cfg.SeedPassword, logger); err != nil {
			logger.Fatalf("seed: %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)
	metrics.RegisterDBStats(registry, db, string(dialect))

	rdb := config.NewRedisClient(config.RedisOptions(), logger)
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, m, logger)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.RabbitMQURL)
	}

	authSvc := service.NewAuthService(users, sessions, cfg.SessionSecret, cfg.SessionTTL, logger)
	theaterSvc := service.NewTheaterService(theaters, users, events, logger)
	userSvc := service.NewUserService(users, roles, logger)

	cookie := middleware.SessionCookie{Name: cfg.SessionCookieName, Secure: !cfg.IsDevelopment()}
	errs := handler.Errors{Log: logger, Dev: cfg.IsDevelopment()}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.HTTPMetrics(m))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowCredentials: !allowsAnyOrigin(cfg.CORSAllowOrigins),
	}))
	e.Use(middleware.Session(authSvc, cookie, logger))

	router.RegisterOps(e, db, metrics.Handler(registry))
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, cookie, m, errs), limiter)
	router.RegisterTheaters(e, handler.NewTheaterHandler(theaterSvc, cache, m, errs), cache.Middleware())
	router.RegisterUsers(e, handler.NewUserHandler(userSvc, errs))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{"addr": srv.Addr, "env": cfg.Env, "db": dialect}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		sweepSessions(gctx, sessions, logger)
		return nil
	})
	if cfg.EventsEnabled {
		consumer := &queue.Consumer{URL: cfg.RabbitMQURL, AuditPath: cfg.AuditLogPath, Log: logger}
		g.Go(func() error { return consumer.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
	logger.Info("bye")
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.IsDevelopment() {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("invalid LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// sweepSessions deletes expired session rows until ctx is done.
func sweepSessions(ctx context.Context, sessions *repository.SessionRepo, logger *logrus.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := sessions.DeleteExpired(ctx, now)
			if err != nil {
				logger.WithError(err).Warn("session sweep failed")
				continue
			}
			if n > 0 {
				logger.WithField("deleted", n).Debug("expired sessions removed")
			}
		}
	}
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
