// Package app assembles the pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/consistencyguard/internal/categorizer"
	"github.com/agenthands/consistencyguard/internal/config"
	"github.com/agenthands/consistencyguard/internal/consistency"
	"github.com/agenthands/consistencyguard/internal/driver"
	"github.com/agenthands/consistencyguard/internal/embedding"
	"github.com/agenthands/consistencyguard/internal/framework"
	"github.com/agenthands/consistencyguard/internal/ingest"
	"github.com/agenthands/consistencyguard/internal/store"
	"github.com/agenthands/consistencyguard/internal/vectorindex"
)

type App struct {
	Config      *config.Config
	Catalog     *framework.Catalog
	Embedder    *embedding.CachedProvider
	Categorizer *categorizer.Categorizer
	Oracle      *consistency.Oracle
	Store       store.Store
	Index       vectorindex.Index
	Service     *ingest.Service

	closers []func(context.Context) error
}

// NewCategorizer builds the embedding provider and categorizer only.
func NewCategorizer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*categorizer.Categorizer, *embedding.CachedProvider, error) {
	emb, err := embedding.NewProvider(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding provider: %w", err)
	}
	protos, err := categorizer.DefaultPrototypes()
	if err != nil {
		emb.Close()
		return nil, nil, err
	}
	return categorizer.New(emb, categorizer.NewCentroidCache(protos, emb), logger), emb, nil
}

// New wires every component. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg}

	catalog, err := framework.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog.WithDefault(cfg.Ingest.DefaultFramework)

	a.Categorizer, a.Embedder, err = NewCategorizer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return a.Embedder.Close() })

	a.Oracle, err = consistency.NewOracleFromConfig(ctx, cfg, logger)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("consistency oracle: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return a.Oracle.Close() })

	a.Store, err = newStore(ctx, cfg, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, a.Store.Close)

	if cfg.Store.IndexPath == "" {
		a.Index = vectorindex.NewMemoryIndex()
	} else {
		idx, err := vectorindex.NewSQLiteIndex(cfg.Store.IndexPath)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("vector index: %w", err)
		}
		a.Index = idx
		a.closers = append(a.closers, func(context.Context) error { return idx.Close() })
	}

	a.Service = ingest.NewService(a.Categorizer, a.Embedder, a.Index, a.Store, a.Oracle, logger)
	a.Service.TopK = cfg.Ingest.TopK
	return a, nil
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case "sqlite", "":
		s, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		return s, nil
	case "memgraph":
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			return nil, err
		}
		if err := d.BuildIndices(ctx); err != nil {
			d.Close(ctx)
			return nil, err
		}
		return store.NewGraphStore(d), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
