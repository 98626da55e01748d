// Package memstore provides an in-memory store.Store. It evaluates the
// structured form of synthesized templates (ownership paths, guards and
// equality filters) against rows held in memory, following record links the
// way SurrealDB follows them in field paths.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/surrealcrud/surrealcrud/internal/rand"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/surrealql"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("memstore: closed")

type row struct {
	seq uint64
	doc models.Document
}

// Store keeps rows by record id. It is safe for concurrent use; every
// statement runs under one lock, so each statement is atomic.
type Store struct {
	mu     sync.RWMutex
	rows   map[models.ID]*row
	seq    uint64
	closed bool
}

func New() *Store {
	return &Store{rows: make(map[models.ID]*row)}
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Put stores doc under id as is, bypassing ownership. It seeds reference
// data and fixtures.
func (s *Store) Put(id models.ID, doc models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := doc.Clone()
	if d == nil {
		d = models.Document{}
	}
	d[idField] = id
	s.put(id, d)
}

// Row returns a copy of the row stored under id, bypassing ownership.
func (s *Store) Row(id models.ID) (models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	return r.doc.Clone(), true
}

// Len counts the rows of table.
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for id := range s.rows {
		if id.Table == table {
			n++
		}
	}
	return n
}

const idField = "id"

func (s *Store) put(id models.ID, doc models.Document) {
	if r, ok := s.rows[id]; ok {
		r.doc = doc
		return
	}
	s.seq++
	s.rows[id] = &row{seq: s.seq, doc: doc}
}

func (s *Store) Exec(ctx context.Context, stmt surrealql.Statement) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if stmt.Op == surrealql.OpSelect || stmt.Op == surrealql.OpSelectAll || stmt.Op == surrealql.OpSelectByFkey {
		s.mu.RLock()
		defer s.mu.RUnlock()
	} else {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if s.closed {
		return nil, ErrClosed
	}

	var user models.ID
	if len(stmt.Owner) > 0 || len(stmt.Guard) > 0 {
		var err error
		if user, err = idVar(stmt, surrealql.VarUser); err != nil {
			return nil, err
		}
	}

	switch stmt.Op {
	case surrealql.OpSelect:
		r, err := s.target(stmt, user)
		if err != nil || r == nil {
			return nil, err
		}
		return []models.Document{r.doc.Clone()}, nil

	case surrealql.OpSelectAll, surrealql.OpSelectByFkey:
		rows, err := s.scan(stmt, user)
		if err != nil {
			return nil, err
		}
		out := make([]models.Document, len(rows))
		for i, r := range rows {
			out[i] = r.doc.Clone()
		}
		return out, nil

	case surrealql.OpInsert:
		return s.insert(stmt, user)

	case surrealql.OpUpdate:
		r, err := s.target(stmt, user)
		if err != nil || r == nil {
			return nil, err
		}
		value, err := docVar(stmt, surrealql.VarValue)
		if err != nil {
			return nil, err
		}
		if !s.relinkAllowed(value, stmt.Guard, user) {
			return nil, nil
		}
		id, _ := r.doc.ID()
		for k, v := range value.Clone() {
			if k != idField {
				r.doc[k] = v
			}
		}
		return []models.Document{{idField: id}}, nil

	case surrealql.OpDelete:
		r, err := s.target(stmt, user)
		if err != nil || r == nil {
			return nil, err
		}
		id, _ := r.doc.ID()
		delete(s.rows, id)
		return []models.Document{r.doc}, nil

	case surrealql.OpUnbind:
		rows, err := s.scan(stmt, user)
		if err != nil {
			return nil, err
		}
		out := make([]models.Document, len(rows))
		for i, r := range rows {
			id, _ := r.doc.ID()
			delete(s.rows, id)
			out[i] = r.doc
		}
		return out, nil
	}
	return nil, fmt.Errorf("memstore: unsupported operation %s", stmt.Op)
}

// target finds the row $id when it belongs to the statement's table and is
// owned by user. A nil row means no match.
func (s *Store) target(stmt surrealql.Statement, user models.ID) (*row, error) {
	id, err := idVar(stmt, surrealql.VarID)
	if err != nil {
		return nil, err
	}
	r, ok := s.rows[id]
	if !ok || id.Table != stmt.Table || !s.owned(r.doc, stmt.Owner, user) {
		return nil, nil
	}
	return r, nil
}

// scan returns the owned rows of the statement's table matching every
// equality filter, in insertion order.
func (s *Store) scan(stmt surrealql.Statement, user models.ID) ([]*row, error) {
	for _, m := range stmt.Match {
		if _, ok := stmt.Vars[m.Var]; !ok {
			return nil, fmt.Errorf("memstore: %s %s: $%s is not bound", stmt.Op, stmt.Table, m.Var)
		}
	}

	var out []*row
	for id, r := range s.rows {
		if id.Table != stmt.Table {
			continue
		}
		matched := true
		for _, m := range stmt.Match {
			if !equal(r.doc[m.Field], stmt.Vars[m.Var]) {
				matched = false
				break
			}
		}
		if matched && s.owned(r.doc, stmt.Owner, user) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out, nil
}

func (s *Store) insert(stmt surrealql.Statement, user models.ID) ([]models.Document, error) {
	value, err := docVar(stmt, surrealql.VarValue)
	if err != nil {
		return nil, err
	}
	doc := value.Clone()
	if len(stmt.Guard) > 0 && !s.owned(doc, stmt.Guard, user) {
		return nil, nil
	}

	var id models.ID
	if v, ok := doc[idField]; ok && v != nil {
		given, ok := models.FromRecordID(v)
		if !ok || given.Table != stmt.Table {
			return nil, fmt.Errorf("memstore: create %s: invalid id %v", stmt.Table, v)
		}
		if _, exists := s.rows[given]; exists {
			return nil, fmt.Errorf("memstore: create %s: record %s already exists", stmt.Table, given)
		}
		id = given
	} else {
		id = models.NewID(stmt.Table, rand.NewKey(rand.KeyLength))
	}

	doc[idField] = id
	s.put(id, doc)
	return []models.Document{{idField: id}}, nil
}

// owned reports whether any path resolves to user from doc. No paths means
// the statement is not ownership constrained.
func (s *Store) owned(doc models.Document, paths []string, user models.ID) bool {
	if len(paths) == 0 {
		return true
	}
	for _, p := range paths {
		if equal(s.resolve(doc, p), user) {
			return true
		}
	}
	return false
}

// relinkAllowed reports whether every guard path whose first field is set
// in value resolves to user.
func (s *Store) relinkAllowed(value models.Document, guard []string, user models.ID) bool {
	for _, p := range guard {
		head, _, _ := strings.Cut(p, ".")
		if value[head] == nil {
			continue
		}
		if !equal(s.resolve(value, p), user) {
			return false
		}
	}
	return true
}

// resolve follows path from doc. Every segment but the last must hold a
// record id of a stored row. Broken links resolve to nil.
func (s *Store) resolve(doc models.Document, path string) any {
	segments := strings.Split(path, ".")
	cur := doc
	for i, seg := range segments {
		v, ok := cur[seg]
		if !ok {
			return nil
		}
		if i == len(segments)-1 {
			return v
		}
		id, ok := models.FromRecordID(v)
		if !ok {
			return nil
		}
		next, ok := s.rows[id]
		if !ok {
			return nil
		}
		cur = next.doc
	}
	return nil
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ida, okA := models.FromRecordID(a)
	idb, okB := models.FromRecordID(b)
	if okA || okB {
		return okA && okB && ida == idb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func idVar(stmt surrealql.Statement, name string) (models.ID, error) {
	v, ok := stmt.Vars[name]
	if !ok {
		return models.ID{}, fmt.Errorf("memstore: %s %s: $%s is not bound", stmt.Op, stmt.Table, name)
	}
	id, ok := models.FromRecordID(v)
	if !ok {
		return models.ID{}, fmt.Errorf("memstore: %s %s: $%s is not a record id", stmt.Op, stmt.Table, name)
	}
	return id, nil
}

func docVar(stmt surrealql.Statement, name string) (models.Document, error) {
	switch v := stmt.Vars[name].(type) {
	case models.Document:
		return v, nil
	case map[string]any:
		return models.Document(v), nil
	}
	return nil, fmt.Errorf("memstore: %s %s: $%s is not a document", stmt.Op, stmt.Table, name)
}
