package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"expense-manager/internal/auth"
	"expense-manager/internal/handlers"
	"expense-manager/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetupRouter(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err, "failed to create database")
	defer store.Close()

	h := handlers.NewHandlers(store, auth.NewTokenService("test-secret", auth.TokenTTL), zap.NewNop())

	// Building the router panics on conflicting patterns.
	router := setupRouter(h, zap.NewNop(), []string{"*"})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "Root reports health",
			method:     "GET",
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "List Expenses requires auth",
			method:     "GET",
			path:       "/api/expenses",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Savings require auth",
			method:     "POST",
			path:       "/api/savings",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Unknown path",
			method:     "GET",
			path:       "/api/nothing",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Wrong method",
			method:     "PATCH",
			path:       "/api/expenses/1",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code,
				"%s %s returned unexpected status", tt.method, tt.path)
		})
	}
}

func TestSetupRouterCORSPreflight(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	h := handlers.NewHandlers(store, auth.NewTokenService("test-secret", auth.TokenTTL), zap.NewNop())
	router := setupRouter(h, zap.NewNop(), []string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300, "preflight should succeed")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	// Without credentials nothing is created.
	require.NoError(t, seedAdmin(ctx, store, "", "", zap.NewNop()))
	count, err := store.UserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, seedAdmin(ctx, store, "admin@example.com", "changeme", zap.NewNop()))
	user, err := store.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("changeme", user.PasswordHash))

	// A second run with users present is a no-op.
	require.NoError(t, seedAdmin(ctx, store, "other@example.com", "changeme", zap.NewNop()))
	count, err = store.UserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
