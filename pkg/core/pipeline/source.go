package pipeline

import (
	"context"

	"wacc_simulator/pkg/core/config"
	"wacc_simulator/pkg/core/ingest"
	"wacc_simulator/pkg/core/store"
)

// SourcePostgres selects store.TableRepo instead of a file adapter.
const SourcePostgres = "postgres"

// OpenSource builds the configured input source wrapped in a TTL cache.
// The returned close func releases any database pool.
func OpenSource(ctx context.Context, data config.DataConfig) (*ingest.CachedSource, func(), error) {
	if data.Source == SourcePostgres {
		pool, err := store.Connect(ctx, data.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := store.NewTableRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return ingest.NewCachedSource(repo, data.CacheTTL), pool.Close, nil
	}

	src, err := ingest.Open(data.Source, data.Path)
	if err != nil {
		return nil, nil, err
	}
	return ingest.NewCachedSource(src, data.CacheTTL), func() {}, nil
}
