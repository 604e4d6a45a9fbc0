// Package app wires the store, archive and services from configuration. Both
// the HTTP server and the CLI start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/config"
	"github.com/Dosada05/bracket-of-death/db"
	"github.com/Dosada05/bracket-of-death/events"
	"github.com/Dosada05/bracket-of-death/metrics"
	"github.com/Dosada05/bracket-of-death/repositories"
	"github.com/Dosada05/bracket-of-death/scoring"
	"github.com/Dosada05/bracket-of-death/services"
	"github.com/Dosada05/bracket-of-death/storage"
)

const tracerName = "github.com/Dosada05/bracket-of-death"

type App struct {
	Store       repositories.Store
	Progression services.ProgressionService
	Matches     services.MatchService
	Live        services.LiveService

	dbConn *sql.DB
	log    *zap.SugaredLogger
}

// New opens the configured store and builds the services around it.
// publisher may be nil when nobody listens for events.
func New(ctx context.Context, cfg *config.Config, publisher events.Publisher, m metrics.Metrics, log *zap.SugaredLogger) (*App, error) {
	a := &App{log: log}

	switch cfg.Store.Driver {
	case config.StorePostgres:
		conn, err := db.Connect(cfg.Database.URL, time.Duration(cfg.Database.ConnectTimeout)*time.Second, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		a.dbConn = conn
		a.Store = repositories.NewPostgresStore(conn, log, cfg.Store.ResultRetries)
		log.Infow("Postgres store ready")
	default:
		a.Store = repositories.NewMemoryStore()
		log.Infow("In-memory store ready")
	}

	var archiver storage.Archiver
	if cfg.Archive.Enabled() {
		objects, err := storage.NewR2ObjectStore(ctx, storage.BucketConfig{
			AccountID:       cfg.Archive.AccountID,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			BucketName:      cfg.Archive.BucketName,
			PublicBaseURL:   cfg.Archive.PublicBaseURL,
			Endpoint:        cfg.Archive.Endpoint,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		archiver = storage.NewSnapshotArchive(objects)
		log.Infow("Final snapshot archive enabled", "bucket", cfg.Archive.BucketName)
	}

	tracer := otel.Tracer(tracerName)
	resolver := scoring.NewResolver(scoring.NewProSetRule())
	a.Progression = services.NewProgressionService(a.Store, publisher, archiver, m, tracer, log)
	a.Matches = services.NewMatchService(a.Store, resolver, publisher, m, tracer, log)
	a.Live = services.NewLiveService(a.Store, log)
	return a, nil
}

func (a *App) Close() {
	if a.dbConn == nil {
		return
	}
	if err := a.dbConn.Close(); err != nil {
		a.log.Errorw("Failed to close database connection", "error", err)
		return
	}
	a.log.Infow("Database connection closed")
}
