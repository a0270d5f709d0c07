package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"expense-manager/internal/auth"
	"expense-manager/internal/storage"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store  storage.Store
	tokens *auth.TokenService
	log    *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store storage.Store, tokens *auth.TokenService, log *zap.Logger) *Handlers {
	return &Handlers{store: store, tokens: tokens, log: log}
}

// RegisterRoutes mounts every API route on mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	protect := func(f http.HandlerFunc) http.Handler { return h.RequireAuth(f) }

	mux.HandleFunc("GET /{$}", h.Health)

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.Handle("GET /api/auth/profile", protect(h.Profile))
	mux.Handle("PUT /api/auth/{id}/update", protect(h.UpdateProfile))

	mux.Handle("GET /api/expenses", protect(h.ListExpenses))
	mux.Handle("POST /api/expenses", protect(h.CreateExpense))
	mux.Handle("GET /api/expenses/{id}", protect(h.GetExpense))
	mux.Handle("PUT /api/expenses/{id}", protect(h.UpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", protect(h.DeleteExpense))

	mux.Handle("GET /api/savings", protect(h.ListSavings))
	mux.Handle("POST /api/savings", protect(h.CreateSavings))
	mux.Handle("GET /api/savings/{id}", protect(h.GetSavings))
	mux.Handle("PUT /api/savings/{id}", protect(h.UpdateSavings))
	mux.Handle("DELETE /api/savings/{id}", protect(h.DeleteSavings))
}

// Health reports that the process is serving.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Backend is running!")
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// serverError logs err with its context and sends a generic 500.
func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, message string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.String("path", r.URL.Path))
	h.log.Error(message, fields...)
	writeError(w, http.StatusInternalServerError, message)
}

// notFoundOrServerError maps storage.ErrNotFound to a 404 and anything else to a 500.
func (h *Handlers) notFoundOrServerError(w http.ResponseWriter, r *http.Request, notFound, message string, err error, fields ...zap.Field) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	h.serverError(w, r, message, err, fields...)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// currentUser returns the identity attached by RequireAuth.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
	}
	return userID, ok
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and plain calendar dates.
func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
