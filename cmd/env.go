package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zonova/leadscout/internal/pipeline"
	"github.com/zonova/leadscout/internal/qualify"
	"github.com/zonova/leadscout/internal/search"
	"github.com/zonova/leadscout/pkg/google"
)

// appEnv holds the initialized store, pipeline, and search components shared
// by the search/pipeline/serve commands.
type appEnv struct {
	Store        pipeline.Store
	Adapter      *pipeline.Adapter
	Coordinator  *pipeline.Coordinator
	Orchestrator *search.Orchestrator
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (pipeline.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "leadscout.db"
		}
		return pipeline.NewSQLite(dsn)
	case "postgres":
		return pipeline.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv validates config for the given mode, opens and migrates the store,
// loads the pipeline mirror, and wires the search orchestrator. Callers
// should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	adapter := pipeline.NewAdapter(st)
	if err := adapter.Refresh(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	var googleClient google.Client
	if cfg.Google.Key != "" {
		googleClient = google.NewClient(cfg.Google.Key)
		zap.L().Debug("google places api enabled")
	}

	orch := search.New(googleClient,
		qualify.Rules{MinReviews: cfg.Search.MinReviews},
		search.Config{
			CenterLat:     cfg.Search.CenterLat,
			CenterLng:     cfg.Search.CenterLng,
			RadiusMeters:  cfg.Search.RadiusMeters,
			MaxCandidates: cfg.Search.MaxCandidates,
			CallTimeout:   time.Duration(cfg.Search.CallTimeoutSecs) * time.Second,
			RateLimit:     cfg.Search.RateLimit,
		},
	)

	return &appEnv{
		Store:        st,
		Adapter:      adapter,
		Coordinator:  pipeline.NewCoordinator(adapter, orch),
		Orchestrator: orch,
	}, nil
}
