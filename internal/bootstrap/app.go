package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"advisor-backend/internal/actions"
	"advisor-backend/internal/analysis"
	"advisor-backend/internal/analysis/gemini"
	"advisor-backend/internal/analysis/openai"
	"advisor-backend/internal/pipeline"
	"advisor-backend/internal/progress"
	"advisor-backend/internal/sessions"
	"advisor-backend/internal/shared/config"
	"advisor-backend/internal/shared/server"
	"advisor-backend/internal/shared/storage/db"
	"advisor-backend/internal/shared/storage/object"
	localstore "advisor-backend/internal/shared/storage/object/local"
	s3store "advisor-backend/internal/shared/storage/object/s3"
	"advisor-backend/internal/shared/telemetry"
)

// App is the wired application: the router plus any resources that need
// closing on shutdown.
type App struct {
	Router *gin.Engine
	Store  *sessions.Store

	closers []func() error
}

// Close releases provider clients and other held resources.
func (a *App) Close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			telemetry.Warn("bootstrap.close_failed", map[string]any{"err": err.Error()})
		}
	}
}

// Build wires the object store, session snapshotter, analyzer chain, progress
// broadcaster, action engine and HTTP handlers from configuration.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{}

	objects, err := buildObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	var vision pipeline.VisionAnalyzer
	var analyzers []analysis.Analyzer
	if cfg.OpenAIAPIKey != "" {
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.ProviderTimeout)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		vision = client
		analyzers = append(analyzers, client)
	}
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		analyzers = append(analyzers, client)
		app.closers = append(app.closers, client.Close)
	}
	chain := analysis.NewChain(analyzers...)

	broadcaster := progress.NewBroadcaster(cfg.ProgressGraceDelay, cfg.ProgressSafetyTimeout)
	orchestrator := pipeline.NewOrchestrator(store, objects, chain, vision, broadcaster)
	engine := actions.NewEngine(store)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Sessions: sessions.NewHandler(store),
		Pipeline: pipeline.NewHandler(orchestrator),
		Progress: progress.NewHandler(broadcaster, store),
		Actions:  actions.NewHandler(store, engine),
	})
	return app, nil
}

func buildObjectStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return store, nil
	}
	return localstore.New(cfg.LocalStoreDir), nil
}

func buildStore(ctx context.Context, cfg config.Config) (*sessions.Store, error) {
	if cfg.SnapshotBackend == "postgres" && cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err == nil {
			if migErr := db.RunMigrations(ctx, database); migErr == nil {
				return sessions.NewStore(&sessions.PGSnapshotter{DB: database}), nil
			} else if cfg.Env == "production" {
				return nil, fmt.Errorf("migrations: %w", migErr)
			} else {
				log.Printf("migrations failed, falling back to file snapshots: %v", migErr)
			}
		} else if cfg.Env == "production" {
			return nil, fmt.Errorf("database connect: %w", err)
		} else {
			log.Printf("database unavailable, falling back to file snapshots: %v", err)
		}
	}

	snap, err := sessions.NewFileSnapshotter(cfg.SnapshotPath)
	if err != nil {
		log.Printf("file snapshotter unavailable, running without snapshots: %v", err)
		return sessions.NewStore(nil), nil
	}
	store := sessions.NewStore(snap)
	store.Restore(snap.LoadAll())
	return store, nil
}
