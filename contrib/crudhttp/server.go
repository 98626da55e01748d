// Package crudhttp exposes an Engine over HTTP. Every registered table gets
// the same family of endpoints under /api/<table>; responses use the
// {"Ok": ...} / {"Err": ...} envelope.
//
//	GET    /api/<t>/all          every row visible to the user
//	GET    /api/<t>              body: id
//	POST   /api/<t>              body: entity, inline records allowed
//	PUT    /api/<t>              body: {"id": id, "data": entity}
//	DELETE /api/<t>              body: id
//	GET    /api/<t>/by/{fkey}    body: id of the referenced row
//	POST   /api/<t>/validate     body: entity
//	PATCH  /api/<t>/otm/{fkey}   body: {"id": parent, "changes": [...]}
//	PATCH  /api/<t>/mtm/{side}   body: {"id": self, "changes": [...]}
//	GET    /health
//
// Client errors are answered with 200 and an Err body, server errors with
// 500, requests without a user with 401. Unknown routes get 404 and known
// routes called with another method 405, both with a BadRequest body.
package crudhttp

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/surrealcrud/surrealcrud"
	"github.com/surrealcrud/surrealcrud/pkg/logger"
	"github.com/surrealcrud/surrealcrud/pkg/models"
)

// RequestIDHeader carries the id of a request, generated when absent.
const RequestIDHeader = "X-Request-Id"

// UserFunc extracts the requesting user. ok is false for anonymous
// requests.
type UserFunc func(r *http.Request) (user models.ID, ok bool)

// HeaderUser reads the user's record id from a request header. It trusts
// the header and suits development and deployments behind an
// authenticating proxy.
func HeaderUser(name string) UserFunc {
	return func(r *http.Request) (models.ID, bool) {
		v := r.Header.Get(name)
		if v == "" {
			return models.ID{}, false
		}
		id, err := models.ParseID(v)
		if err != nil {
			return models.ID{}, false
		}
		return id, true
	}
}

type Server struct {
	engine *surrealcrud.Engine
	user   UserFunc
	log    logger.Logger
}

type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithUser replaces the default HeaderUser("X-User-Id").
func WithUser(f UserFunc) Option {
	return func(s *Server) {
		if f != nil {
			s.user = f
		}
	}
}

func New(engine *surrealcrud.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		user:   HeaderUser("X-User-Id"),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router serving every table of the engine's registry.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = routeError(http.StatusNotFound, "no route")
	router.MethodNotAllowedHandler = routeError(http.StatusMethodNotAllowed, "method not allowed")
	router.Use(s.requestID)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)
	for _, ent := range s.engine.Registry().Entities() {
		t := &table{s: s, name: ent.Table}
		base := "/" + ent.Table
		api.HandleFunc(base+"/all", t.handleGetAll).Methods(http.MethodGet)
		api.HandleFunc(base, t.handleGet).Methods(http.MethodGet)
		api.HandleFunc(base, t.handleInsert).Methods(http.MethodPost)
		api.HandleFunc(base, t.handleUpdate).Methods(http.MethodPut)
		api.HandleFunc(base, t.handleDelete).Methods(http.MethodDelete)
		api.HandleFunc(base+"/by/{fkey}", t.handleGetByFkey).Methods(http.MethodGet)
		api.HandleFunc(base+"/validate", t.handleValidate).Methods(http.MethodPost)
		api.HandleFunc(base+"/otm/{fkey}", t.handleOneToMany).Methods(http.MethodPatch)
		if ent.Junction != nil {
			api.HandleFunc(base+"/mtm/{side}", t.handleManyToMany).Methods(http.MethodPatch)
		}
	}
	return router
}

// routeError answers requests no route serves with the error envelope.
func routeError(status int, reason string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondClientError(w, status, ErrorBody{BadRequest: reason + ": " + r.Method + " " + r.URL.Path})
	})
}

type userKey struct{}

func userFrom(r *http.Request) models.ID {
	id, _ := r.Context().Value(userKey{}).(models.ID)
	return id
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.user(r)
		if !ok {
			respondClientError(w, http.StatusUnauthorized, ErrorBody{Unauthenticated: true})
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		s.log.Debug("request", "request_id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
