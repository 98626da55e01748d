// Package surrealstore implements store.Store on SurrealDB.
//
// Statements are sent as their SurrealQL text plus variables through the
// official SDK. Values are never interpolated into the query text; record
// ids travel as CBOR record id tags (models.ID implements the codec), so
// `$id`, `$user_id` and record links inside `$value` reach SurrealDB as
// record links.
//
//	st, err := surrealstore.New(ctx, surrealstore.Config{
//		URL:       "ws://localhost:8000",
//		Namespace: "app",
//		Database:  "app",
//		Username:  "root",
//		Password:  "root",
//	})
//	if err != nil {
//		return err
//	}
//	defer st.Close(ctx)
package surrealstore

import (
	"context"
	"fmt"

	"github.com/surrealcrud/surrealcrud/pkg/logger"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/surrealql"
	"github.com/surrealdb/surrealdb.go"
)

// StatusOK is the status SurrealDB reports for a successful statement.
const StatusOK = "OK"

type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	Logger    logger.Logger
}

// Store sends statements to SurrealDB.
type Store struct {
	db  *surrealdb.DB
	log logger.Logger
}

// New connects, signs in when credentials are given and selects the
// namespace and database.
func New(ctx context.Context, cfg Config) (*Store, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return FromDB(db, cfg.Logger), nil
}

// FromDB wraps an already connected database.
func FromDB(db *surrealdb.DB, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log}
}

// DB returns the underlying connection.
func (s *Store) DB() *surrealdb.DB { return s.db }

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

func (s *Store) Exec(ctx context.Context, stmt surrealql.Statement) ([]models.Document, error) {
	s.log.Debug("surrealdb query", "op", stmt.Op.String(), "table", stmt.Table, "sql", stmt.SQL)

	results, err := surrealdb.Query[any](ctx, s.db, stmt.SQL, stmt.Vars)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", stmt.Op, stmt.Table, err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	// Templates are single statements.
	res := (*results)[0]
	if res.Status != StatusOK {
		return nil, fmt.Errorf("%s %s: query status %s: %v", stmt.Op, stmt.Table, res.Status, res.Result)
	}
	return Documents(res.Result)
}

// Documents normalizes a decoded query result into rows. NONE and null are
// no rows, a single object is one row, and SDK record ids become models.ID
// at any depth.
func Documents(result any) ([]models.Document, error) {
	switch v := result.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]models.Document, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			d, ok := normalize(item).(map[string]any)
			if !ok {
				return nil, fmt.Errorf("unexpected row of type %T", item)
			}
			out = append(out, models.Document(d))
		}
		return out, nil
	case map[string]any, map[any]any:
		d, _ := normalize(v).(map[string]any)
		return []models.Document{d}, nil
	}
	return nil, fmt.Errorf("unexpected result of type %T", result)
}

func normalize(v any) any {
	if id, ok := models.FromRecordID(v); ok {
		return id
	}
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}
