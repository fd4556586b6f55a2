package behavior_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/behaviortrace/pkg/mongo"
	"github.com/dmitrymomot/behaviortrace/pkg/pg"
	"github.com/dmitrymomot/behaviortrace/svc/behavior"
)

// Set TEST_MONGODB_URL or TEST_PG_CONN_URL to run the store contract against
// a real server.

func TestMongoStore(t *testing.T) {
	url := os.Getenv("TEST_MONGODB_URL")
	if url == "" {
		t.Skip("TEST_MONGODB_URL not set")
	}
	ctx := context.Background()

	runStoreContract(t, func(t *testing.T) behavior.Store {
		db, err := mongo.NewWithDatabase(ctx, mongo.Config{
			ConnectionURL: url,
			Database:      "behaviortrace_test_" + uuid.NewString()[:8],
			RetryAttempts: 1,
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Drop(ctx)
			_ = db.Client().Disconnect(ctx)
		})

		store := behavior.NewMongoStore(db)
		require.NoError(t, store.EnsureIndexes(ctx))
		return store
	})
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_PG_CONN_URL")
	if url == "" {
		t.Skip("TEST_PG_CONN_URL not set")
	}
	ctx := context.Background()

	runStoreContract(t, func(t *testing.T) behavior.Store {
		cfg := pg.Config{ConnectionString: url, RetryAttempts: 1}
		pool, err := pg.Connect(ctx, cfg)
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		require.NoError(t, pg.Migrate(ctx, pool, behavior.Migrations, behavior.MigrationsDir, cfg, nil))
		_, err = pool.Exec(ctx, "TRUNCATE behavior_data")
		require.NoError(t, err)
		return behavior.NewPostgresStore(pool)
	})
}
