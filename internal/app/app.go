// Package app wires configuration, storage, services, and the HTTP surface
// into one runnable unit.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pickemlab/confidence-pool/internal/config"
	"github.com/pickemlab/confidence-pool/internal/infrastructure/events"
	"github.com/pickemlab/confidence-pool/internal/infrastructure/repository/postgres"
	"github.com/pickemlab/confidence-pool/internal/interfaces/httpapi"
	"github.com/pickemlab/confidence-pool/internal/platform/cache"
	idgen "github.com/pickemlab/confidence-pool/internal/platform/id"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
	"github.com/pickemlab/confidence-pool/internal/usecase"
)

// App owns every long-lived component: the HTTP server, the lock
// scheduler, the DB pool, and the broker connection.
type App struct {
	Server    *http.Server
	Scheduler *Scheduler

	db        closer
	publisher *events.NATSPublisher
	logger    *logging.Logger
}

type closer interface {
	Close() error
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, err := otelsqlx.Connect("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	leagueRepo := postgres.NewLeagueRepository(db)
	entryRepo := postgres.NewEntryRepository(db)
	gameRepo := postgres.NewGameRepository(db)
	pickRepo := postgres.NewPickRepository(db)
	standingsRepo := postgres.NewStandingsRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	ids := idgen.NewRandomGenerator()
	auditor := usecase.NewAuditRecorder(auditRepo, ids, logger)

	var cacheStore *cache.Store
	if cfg.CacheEnabled {
		cacheStore = cache.NewStore(cfg.CacheTTL)
	}
	reportingSvc := usecase.NewReportingService(entryRepo, gameRepo, pickRepo, standingsRepo, cacheStore, logger)

	// The reporting service rides the event stream for cache eviction, so
	// it sits behind the same publisher fan-out as the broker.
	var natsPublisher *events.NATSPublisher
	publishers := usecase.MultiPublisher{reportingSvc}
	if cfg.NATSEnabled {
		conn, connErr := events.Connect(events.NATSConfig{
			URL:     cfg.NATSURL,
			Token:   cfg.NATSToken,
			Name:    cfg.ServiceName,
			Timeout: cfg.NATSTimeout,
		})
		if connErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect broker: %w", connErr)
		}
		natsPublisher = events.NewNATSPublisher(conn, logger)
		publishers = append(publishers, natsPublisher)
	}

	resultSvc := usecase.NewResultService(leagueRepo, gameRepo, pickRepo, publishers, logger)
	fallbackSvc := usecase.NewFallbackService(entryRepo, gameRepo, pickRepo, auditor, logger)
	lockSvc := usecase.NewLockService(leagueRepo, gameRepo, pickRepo, fallbackSvc, publishers, logger)
	winnerSvc := usecase.NewWinnerService(leagueRepo, entryRepo, gameRepo, pickRepo, standingsRepo, publishers, logger)
	commissionerSvc := usecase.NewCommissionerService(entryRepo, gameRepo, pickRepo, ids, auditor, logger)

	handler := httpapi.NewHandler(resultSvc, lockSvc, winnerSvc, commissionerSvc, reportingSvc, auditor, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server:    server,
		Scheduler: NewScheduler(lockSvc, cfg.LockTickInterval, logger),
		db:        db,
		publisher: natsPublisher,
		logger:    logger,
	}, nil
}

// Shutdown stops the scheduler, drains the HTTP server, and releases the
// DB and broker connections.
func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()

	var firstErr error
	if err := a.Server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown http server: %w", err)
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close database: %w", err)
	}

	return firstErr
}
