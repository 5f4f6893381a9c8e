package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDSNEnv names the environment variable holding the integration database connection string.
const TestDSNEnv = "STREAK_ORACLE_TEST_DSN"

// SetupTestDB connects to the integration database, skipping the test when none is configured
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("integration test - set %s to run", TestDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := openDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			db.Close()
			t.Fatalf("failed to apply test schema: %v", err)
		}
	}
	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	if db != nil {
		db.Close()
	}
}
