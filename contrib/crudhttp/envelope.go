package crudhttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/surrealcrud/surrealcrud"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

// Envelope is the body of every API response: {"Ok": value} or
// {"Err": error}.
type Envelope struct {
	Ok  json.RawMessage `json:"Ok,omitempty"`
	Err json.RawMessage `json:"Err,omitempty"`
}

// ErrorBody is the wire form of an error the caller can correct. Exactly
// one field is set.
type ErrorBody struct {
	MissingRecord   *models.ID         `json:"MissingRecord,omitempty"`
	Validation      *validation.Report `json:"Validation,omitempty"`
	BadRequest      string             `json:"BadRequest,omitempty"`
	ReadOnly        string             `json:"ReadOnly,omitempty"`
	Unauthenticated bool               `json:"Unauthenticated,omitempty"`
}

// internalError is the Err of every server side failure. Details are
// logged, not sent.
const internalError = "internal server error"

// EncodeError maps a client error to its wire form. ok is false for server
// errors.
func EncodeError(err error) (body ErrorBody, ok bool) {
	var (
		missing  *surrealcrud.MissingRecordError
		invalid  *surrealcrud.ValidationError
		document *surrealcrud.DocumentError
	)
	switch {
	case errors.As(err, &missing):
		id := missing.ID
		return ErrorBody{MissingRecord: &id}, true
	case errors.As(err, &invalid):
		return ErrorBody{Validation: invalid.Report}, true
	case errors.As(err, &document):
		return ErrorBody{BadRequest: document.Error()}, true
	case surrealcrud.IsClientError(err):
		return ErrorBody{ReadOnly: err.Error()}, true
	}
	return ErrorBody{}, false
}

// Err turns the body back into the error it was encoded from.
func (b ErrorBody) Err() error {
	switch {
	case b.MissingRecord != nil:
		return &surrealcrud.MissingRecordError{ID: *b.MissingRecord}
	case b.Validation != nil:
		return &surrealcrud.ValidationError{Report: b.Validation}
	case b.ReadOnly != "":
		return surrealcrud.ErrReadOnly
	case b.Unauthenticated:
		return ErrUnauthenticated
	}
	return &surrealcrud.DocumentError{Reason: b.BadRequest}
}

// ErrUnauthenticated is returned when a request carries no user.
var ErrUnauthenticated = errors.New("unauthenticated")

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		response = []byte(`{"Err":"` + internalError + `"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondOk(w http.ResponseWriter, value any) {
	respondJSON(w, http.StatusOK, map[string]any{"Ok": value})
}

// respondRows answers with a list, empty rather than null when nothing
// matched.
func respondRows(w http.ResponseWriter, rows []models.Document) {
	if rows == nil {
		rows = []models.Document{}
	}
	respondOk(w, rows)
}

func respondClientError(w http.ResponseWriter, status int, body ErrorBody) {
	respondJSON(w, status, map[string]any{"Err": body})
}
