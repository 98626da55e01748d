// Package store defines the database boundary of the engine.
//
// The engine never talks to a database directly: it synthesizes a
// [surrealql.Statement] and hands it to a [Store]. Two implementations ship
// with the module:
//
//   - [github.com/surrealcrud/surrealcrud/pkg/store/surrealstore.Store] sends
//     the statement's SurrealQL and variables to SurrealDB through the
//     official SDK;
//   - [github.com/surrealcrud/surrealcrud/pkg/store/memstore.Store] keeps rows
//     in memory and evaluates the statement's structured form, for tests and
//     local development.
//
// Stores are request/response channels: they never open multi-statement
// transactions.
package store

import (
	"context"
	"errors"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/surrealql"
)

// Store executes synthesized statements.
//
// Exec returns the rows the statement produced. Record links in the
// returned documents are models.ID values. Reads return the matching rows;
// creates and updates return the row ids; deletes return the removed rows.
// A statement that matched nothing returns no rows and no error.
type Store interface {
	Exec(ctx context.Context, stmt surrealql.Statement) ([]models.Document, error)
	Close(ctx context.Context) error
}

// ErrReadOnly is returned by a read-only store for write statements.
var ErrReadOnly = errors.New("store is read-only")

// IsWrite reports whether op modifies rows.
func IsWrite(op surrealql.Op) bool {
	switch op {
	case surrealql.OpInsert, surrealql.OpUpdate, surrealql.OpDelete, surrealql.OpUnbind:
		return true
	}
	return false
}
