package remote

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/shard/internal/db"
	"github.com/hpungsan/shard/internal/project"
)

// maxProjectBody bounds an upserted project document.
const maxProjectBody = 4 << 20

// Server is the reference document-store implementation the sync client
// talks to. Projects are stored per identity in the same bucket layer the
// local store uses, under the identity's user namespace.
type Server struct {
	database *sql.DB
	logger   *slog.Logger
}

// NewServer creates the server on top of an initialized database.
// logger may be nil.
func NewServer(database *sql.DB, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{database: database, logger: logger}
}

// Router builds the chi router. authEnabled controls whether Bearer token
// auth is enforced on every route.
func (s *Server) Router(authEnabled bool, token string) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/v1/users/{identity}/projects", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Put("/{id}", s.handleUpsert)
		r.Delete("/{id}", s.handleDelete)
	})

	return r
}

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	namespace, ok := s.namespaceParam(w, r)
	if !ok {
		return
	}

	history, err := db.LoadHistory(s.database, namespace)
	if err != nil {
		// A corrupt bucket serves as empty rather than failing the sync.
		s.logger.Warn("list: unreadable bucket served empty",
			slog.String("namespace", namespace), slog.String("error", err.Error()))
		history = nil
	}
	if history == nil {
		history = []project.Project{}
	}
	writeJSON(w, http.StatusOK, listResponse{Projects: history})
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	namespace, ok := s.namespaceParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var p project.Project
	if err := json.NewDecoder(io.LimitReader(r.Body, maxProjectBody)).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid project body"))
		return
	}
	if p.ID == "" {
		p.ID = id
	}
	if p.ID != id {
		writeJSON(w, http.StatusBadRequest, errorBody("body id does not match path id"))
		return
	}

	history, err := db.LoadHistory(s.database, namespace)
	if err != nil {
		s.logger.Warn("upsert: unreadable bucket reset",
			slog.String("namespace", namespace), slog.String("error", err.Error()))
		history = nil
	}

	replaced := false
	for i := range history {
		if history[i].ID == p.ID {
			history[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		history = append(history, p)
	}

	if err := db.SaveHistory(s.database, namespace, history); err != nil {
		s.logger.Error("upsert: save failed",
			slog.String("namespace", namespace), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("save failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": p.ID})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	namespace, ok := s.namespaceParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	history, err := db.LoadHistory(s.database, namespace)
	if err != nil {
		s.logger.Warn("delete: unreadable bucket reset",
			slog.String("namespace", namespace), slog.String("error", err.Error()))
		history = nil
	}

	kept := history[:0]
	for _, p := range history {
		if p.ID != id {
			kept = append(kept, p)
		}
	}

	if err := db.SaveHistory(s.database, namespace, kept); err != nil {
		s.logger.Error("delete: save failed",
			slog.String("namespace", namespace), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("save failed"))
		return
	}
	// Deleting an unknown id is not an error.
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// namespaceParam maps the identity path parameter to its storage namespace.
func (s *Server) namespaceParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity := chi.URLParam(r, "identity")
	if strings.TrimSpace(identity) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("identity is required"))
		return "", false
	}
	return "user:" + identity, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
