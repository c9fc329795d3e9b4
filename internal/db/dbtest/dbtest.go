// Package dbtest opens migrated databases private to one test.
package dbtest

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shyamsivadas/event-lens/internal/db"
)

// PostgresURLEnv selects Postgres for tests. It must be a postgres:// URL.
const PostgresURLEnv = "EVENTLENS_TEST_POSTGRES_URL"

var schemaSeq atomic.Int64

// Open returns a migrated database. With PostgresURLEnv set every call gets
// a fresh schema, otherwise a SQLite file under t.TempDir().
func Open(t testing.TB) *db.Database {
	t.Helper()
	if dsn := strings.TrimSpace(os.Getenv(PostgresURLEnv)); dsn != "" {
		return openPostgres(t, dsn)
	}
	database, err := db.New(filepath.Join(t.TempDir(), "eventlens"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func openPostgres(t testing.TB, dsn string) *db.Database {
	t.Helper()
	admin, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	schema := fmt.Sprintf("eventlens_test_%d_%d", time.Now().UnixNano(), schemaSeq.Add(1))
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec("DROP SCHEMA " + schema + " CASCADE")
		_ = admin.Close()
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse %s: %v", PostgresURLEnv, err)
	}
	query := u.Query()
	query.Set("search_path", schema)
	u.RawQuery = query.Encode()

	database, err := db.Open(db.Options{Driver: "postgres", URL: u.String()})
	if err != nil {
		t.Fatalf("open postgres schema %s: %v", schema, err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}
