package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/clawtrends/claw-trends/internal/config"
	"github.com/clawtrends/claw-trends/internal/embedding"
	"github.com/clawtrends/claw-trends/internal/github"
	"github.com/clawtrends/claw-trends/internal/store"
	"github.com/clawtrends/claw-trends/internal/syncer"
	"github.com/clawtrends/claw-trends/internal/vectordb"
)

// app bundles the wired collaborators every command needs. Commands build only
// what they use via the with* options.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	source   *github.Client
	embedder *embedding.FallbackProvider
	index    *vectordb.Client
	store    *store.Postgres
}

type appOption int

const (
	withSource appOption = iota
	withEmbedder
	withIndex
	withStore
)

func loadConfig() (*config.Config, error) {
	cfgPath := config.FindConfigPath(cfgFile)
	if cfgPath == "" {
		return nil, fmt.Errorf("config file not found")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("config error: %v\n", e)
		}
		return nil, fmt.Errorf("invalid configuration")
	}

	return cfg, nil
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// newApp loads config and wires the requested collaborators.
func newApp(ctx context.Context, opts ...appOption) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: newLogger()}

	for _, opt := range opts {
		switch opt {
		case withSource:
			a.source, err = github.NewClient(cfg.GitHub.Owner, cfg.GitHub.Repo)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to create github client: %w", err)
			}
		case withEmbedder:
			a.embedder, err = embedding.NewFallbackProvider(&cfg.Embedding, a.log)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to create embedding provider: %w", err)
			}
		case withIndex:
			a.index, err = vectordb.NewClient(&cfg.Qdrant)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to create vector index client: %w", err)
			}
			if err := a.index.EnsureCollection(ctx, a.log); err != nil {
				a.Close()
				return nil, err
			}
		case withStore:
			a.store, err = store.Connect(ctx, cfg.Database.URL)
			if err != nil {
				a.Close()
				return nil, err
			}
			if err := a.store.EnsureSchema(ctx); err != nil {
				a.Close()
				return nil, err
			}
		}
	}

	return a, nil
}

func (a *app) Close() {
	if a.embedder != nil {
		a.embedder.Close()
	}
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

func (a *app) newReconciler() *syncer.Reconciler {
	return syncer.NewReconciler(a.source, a.embedder, a.index, a.store,
		a.cfg.Sync.FullCheckInterval(), a.log)
}
