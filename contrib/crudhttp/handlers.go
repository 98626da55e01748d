package crudhttp

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/surrealcrud/surrealcrud"
	"github.com/surrealcrud/surrealcrud/pkg/models"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

type updateRequest struct {
	ID   models.ID       `json:"id"`
	Data json.RawMessage `json:"data"`
}

type otmRequest struct {
	ID      models.ID               `json:"id"`
	Changes []surrealcrud.OtmChange `json:"changes"`
}

type mtmRequest struct {
	ID      models.ID               `json:"id"`
	Changes []surrealcrud.MtmChange `json:"changes"`
}

// table serves the endpoints of one table.
type table struct {
	s    *Server
	name string
}

// fail writes err as a client error or, for server errors, logs it and
// answers 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if body, ok := EncodeError(err); ok {
		respondClientError(w, http.StatusOK, body)
		return
	}
	s.log.Error("request failed",
		"request_id", w.Header().Get(RequestIDHeader),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	respondJSON(w, http.StatusInternalServerError, map[string]string{"Err": internalError})
}

func (s *Server) badRequest(w http.ResponseWriter, reason string) {
	respondClientError(w, http.StatusOK, ErrorBody{BadRequest: reason})
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBody))
}

func (t *table) decodeID(w http.ResponseWriter, r *http.Request) (models.ID, bool) {
	raw, err := readBody(r)
	if err != nil {
		t.s.badRequest(w, "unreadable body")
		return models.ID{}, false
	}
	var id models.ID
	if err := json.Unmarshal(raw, &id); err != nil || id.IsZero() {
		t.s.badRequest(w, "body must be a record id")
		return models.ID{}, false
	}
	return id, true
}

func (t *table) decodeDocument(w http.ResponseWriter, raw []byte) (models.Document, bool) {
	doc, err := models.DecodeDocument(raw)
	if err != nil {
		t.s.badRequest(w, "body must be a JSON object")
		return nil, false
	}
	return doc, true
}

func (t *table) handleGetAll(w http.ResponseWriter, r *http.Request) {
	rows, err := t.s.engine.GetAll(r.Context(), userFrom(r), t.name)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondRows(w, rows)
}

func (t *table) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := t.decodeID(w, r)
	if !ok {
		return
	}
	if id.Table != t.name {
		t.s.badRequest(w, "id "+id.String()+" is not in "+t.name)
		return
	}
	doc, err := t.s.engine.Get(r.Context(), userFrom(r), id)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondOk(w, doc)
}

func (t *table) handleGetByFkey(w http.ResponseWriter, r *http.Request) {
	id, ok := t.decodeID(w, r)
	if !ok {
		return
	}
	rows, err := t.s.engine.GetAllByFkey(r.Context(), userFrom(r), t.name, mux.Vars(r)["fkey"], id)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondRows(w, rows)
}

func (t *table) handleInsert(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		t.s.badRequest(w, "unreadable body")
		return
	}
	doc, ok := t.decodeDocument(w, raw)
	if !ok {
		return
	}
	node, err := t.s.engine.Insert(r.Context(), userFrom(r), t.name, doc)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondOk(w, node)
}

func (t *table) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		t.s.badRequest(w, "unreadable body")
		return
	}
	doc, ok := t.decodeDocument(w, raw)
	if !ok {
		return
	}
	rep, err := t.s.engine.Validate(t.name, doc)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondOk(w, rep)
}

func (t *table) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil || req.ID.IsZero() {
		t.s.badRequest(w, "body must be {\"id\": ..., \"data\": {...}}")
		return
	}
	if req.ID.Table != t.name {
		t.s.badRequest(w, "id "+req.ID.String()+" is not in "+t.name)
		return
	}
	doc, ok := t.decodeDocument(w, req.Data)
	if !ok {
		return
	}
	node, err := t.s.engine.Update(r.Context(), userFrom(r), req.ID, doc)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondOk(w, node)
}

func (t *table) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := t.decodeID(w, r)
	if !ok {
		return
	}
	if id.Table != t.name {
		t.s.badRequest(w, "id "+id.String()+" is not in "+t.name)
		return
	}
	doc, err := t.s.engine.Delete(r.Context(), userFrom(r), id)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondOk(w, doc)
}

func (t *table) handleOneToMany(w http.ResponseWriter, r *http.Request) {
	var req otmRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil || req.ID.IsZero() {
		t.s.badRequest(w, "body must be {\"id\": ..., \"changes\": [...]}")
		return
	}
	out, err := t.s.engine.ApplyOneToMany(r.Context(), userFrom(r), t.name, mux.Vars(r)["fkey"], req.ID, req.Changes)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondOk(w, out)
}

func (t *table) handleManyToMany(w http.ResponseWriter, r *http.Request) {
	var req mtmRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil || req.ID.IsZero() {
		t.s.badRequest(w, "body must be {\"id\": ..., \"changes\": [...]}")
		return
	}
	out, err := t.s.engine.ApplyManyToMany(r.Context(), userFrom(r), t.name, mux.Vars(r)["side"], req.ID, req.Changes)
	if err != nil {
		t.s.fail(w, r, err)
		return
	}
	respondOk(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"tables": len(s.engine.Registry().Entities()),
		"time":   time.Now().Unix(),
	})
}
