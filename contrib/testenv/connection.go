// Package testenv connects tests to a SurrealDB instance.
//
// The server is taken from SURREALDB_URL and defaults to
// ws://localhost:8000, signed in as root/root. Tests that need the server
// call Store, which skips them when the server cannot be reached.
package testenv

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	surrealdb "github.com/surrealdb/surrealdb.go"

	"github.com/surrealcrud/surrealcrud/pkg/logger"
	"github.com/surrealcrud/surrealcrud/pkg/store/surrealstore"
)

const (
	// DefaultURL is the default SurrealDB URL.
	DefaultURL = "ws://localhost:8000"

	// EnvURL is the environment variable that specifies the SurrealDB URL.
	// If not set, it defaults to DefaultURL.
	EnvURL = "SURREALDB_URL"

	// DefaultNamespace holds every test database.
	DefaultNamespace = "surrealcrud_test"
)

// connectTimeout bounds the connection attempt of Store.
const connectTimeout = 5 * time.Second

// URL returns the SurrealDB URL tests connect to.
func URL() string {
	if u := os.Getenv(EnvURL); u != "" {
		return u
	}
	return DefaultURL
}

func MustNew(namespace, database string, tables ...string) *surrealstore.Store {
	st, err := New(context.Background(), namespace, database, tables...)
	if err != nil {
		panic(fmt.Sprintf("Failed to create SurrealDB connection: %v", err))
	}
	return st
}

// New connects to namespace/database as root and removes the given tables
// so every test starts empty.
func New(ctx context.Context, namespace, database string, tables ...string) (*surrealstore.Store, error) {
	if database == "" {
		return nil, fmt.Errorf("database name must be specified")
	}

	st, err := surrealstore.New(ctx, surrealstore.Config{
		URL:       URL(),
		Namespace: namespace,
		Database:  database,
		Username:  "root",
		Password:  "root",
		Logger:    logger.Nop(),
	})
	if err != nil {
		return nil, err
	}
	if err := removeTables(ctx, st.DB(), tables...); err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	return st, nil
}

func removeTables(ctx context.Context, db *surrealdb.DB, tables ...string) error {
	for _, table := range tables {
		// Table names cannot be bound as parameters in REMOVE TABLE.
		if _, err := surrealdb.Query[any](ctx, db, "REMOVE TABLE IF EXISTS "+table, nil); err != nil {
			return fmt.Errorf("failed to remove table %s: %w", table, err)
		}
	}
	return nil
}

// Store returns a store on a fresh database named after the test, or skips
// the test when SurrealDB is unreachable. The store is closed and the
// tables removed when the test ends.
func Store(t testing.TB, tables ...string) *surrealstore.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping SurrealDB test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	st, err := New(ctx, DefaultNamespace, databaseName(t.Name()), tables...)
	if err != nil {
		t.Skipf("SurrealDB unavailable at %s: %v", URL(), err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_ = removeTables(ctx, st.DB(), tables...)
		_ = st.Close(ctx)
	})
	return st
}

// databaseName turns a test name into an identifier.
func databaseName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
