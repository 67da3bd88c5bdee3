package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herd-marketplace/internal/adapters/storage/sqlite"
	"herd-marketplace/internal/platform/config"
	"herd-marketplace/internal/platform/logger"
)

func TestApplication_RequiresConfiguredStores(t *testing.T) {
	app := newApplication(config.Config{}, logger.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, app.Migrate(ctx), ErrNoDatabase)
	assert.ErrorIs(t, app.CompactCache(ctx), ErrNoCacheStore)
}

func TestApplication_CompactCacheDropsExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	kv, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "@cache:listings:state=active", `{"written_at":"2020-01-01T00:00:00Z","payload":[]}`))
	require.NoError(t, kv.Close())

	var cfg config.Config
	cfg.Cache.SQLitePath = path
	cfg.Cache.TTL = time.Minute
	require.NoError(t, newApplication(cfg, logger.NewNop()).CompactCache(ctx))

	kv, err = sqlite.Open(path)
	require.NoError(t, err)
	defer kv.Close()
	keys, err := kv.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRun_MigrateWithoutDatabaseFails(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("CONFIG_FILE", "")
	stderr := new(bytes.Buffer)

	code := run(context.Background(), []string{"migrate"}, new(bytes.Buffer), stderr)
	assert.Equal(t, 1, code)
}
