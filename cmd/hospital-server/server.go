package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/hospital/internal/config"
	"github.com/ehr/hospital/internal/domain/admission"
	"github.com/ehr/hospital/internal/domain/appointment"
	"github.com/ehr/hospital/internal/domain/billing"
	"github.com/ehr/hospital/internal/domain/dashboard"
	"github.com/ehr/hospital/internal/domain/patient"
	"github.com/ehr/hospital/internal/domain/staff"
	"github.com/ehr/hospital/internal/platform/auth"
	"github.com/ehr/hospital/internal/platform/db"
	"github.com/ehr/hospital/internal/platform/events"
	"github.com/ehr/hospital/internal/platform/middleware"
)

// eventsMaxLen caps the lifecycle stream (approximate XADD MAXLEN).
const eventsMaxLen = 10000

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// routes is implemented by every domain handler.
type routes interface {
	RegisterRoutes(api *echo.Group)
}

// app holds the long-lived dependencies shared by the HTTP surface.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	pool      *pgxpool.Pool
	issuer    *auth.TokenIssuer
	revoked   auth.RevocationStore
	publisher events.Publisher
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	a := &app{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		issuer:    auth.NewTokenIssuer(cfg.SigningKey(), cfg.AuthTokenTTL),
		publisher: events.NopPublisher{},
	}

	if cfg.RedisURL != "" {
		client, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		a.revoked = auth.NewRedisRevocationStore(client)
		a.publisher = events.NewRedisStreamPublisher(client, cfg.EventsStream, eventsMaxLen)
		logger.Info().Str("stream", cfg.EventsStream).Msg("redis revocation store and event stream enabled")
	} else {
		mem := auth.NewMemoryRevocationStore(time.Minute)
		defer mem.Close()
		a.revoked = mem
		logger.Warn().Msg("REDIS_URL not set: revoked tokens are kept in memory and lifecycle events are dropped")
	}

	e := a.newEcho()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (a *app) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout))

	e.GET("/health", db.HealthHandler(a.pool, version))

	session := auth.SessionMiddleware(a.issuer, a.revoked)
	if a.cfg.IsDev() {
		session = auth.DevAuthMiddleware(session)
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: a.cfg.RateLimitRPS,
		BurstSize:         a.cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	api := e.Group("", session, middleware.RateLimit(rateLimitCfg), db.ConnMiddleware(a.pool))
	for _, h := range a.handlers() {
		h.RegisterRoutes(api)
	}
	return e
}

func (a *app) handlers() []routes {
	tx := db.NewTxManager(a.pool)

	staffSvc := staff.NewService(staff.NewRepo(a.pool))
	patientSvc := patient.NewService(patient.NewRepo(a.pool))

	admissionSvc := admission.NewService(admission.NewRepo(a.pool), tx, patientSvc)
	admissionSvc.SetDoctorDirectory(staffSvc)
	admissionSvc.SetPublisher(a.publisher)

	appointmentSvc := appointment.NewService(appointment.NewRepo(a.pool), tx, patientSvc, staffSvc)
	billingSvc := billing.NewService(billing.NewRepo(a.pool), tx, patientSvc, admissionSvc)
	dashboardSvc := dashboard.NewService(dashboard.NewRepo(a.pool))

	return []routes{
		staff.NewHandler(staffSvc, a.issuer, a.revoked),
		patient.NewHandler(patientSvc),
		admission.NewHandler(admissionSvc),
		appointment.NewHandler(appointmentSvc),
		billing.NewHandler(billingSvc),
		dashboard.NewHandler(dashboardSvc),
	}
}
