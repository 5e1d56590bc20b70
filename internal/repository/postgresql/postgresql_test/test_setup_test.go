package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// newTestDatabase connects to TEST_DATABASE_URL, migrates it and empties every
// table. Tests are skipped when the variable is unset.
func newTestDatabase(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, database.Migrate(ctx, db))
	truncateAllTables(t, db)

	return db
}

func truncateAllTables(t *testing.T, db *database.DB) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"TRUNCATE TABLE notifications, leave_request_reviewers, leave_requests, users CASCADE")
	require.NoError(t, err)
}
