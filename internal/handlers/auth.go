package handlers

import (
	"errors"
	"net/http"
	"strings"

	"expense-manager/internal/auth"
	"expense-manager/internal/models"
	"expense-manager/internal/storage"

	"go.uber.org/zap"
)

type registerRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	UserName      string  `json:"userName"`
	MonthlyBudget float64 `json:"monthlyBudget"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	UserName      *string  `json:"userName"`
	MonthlyBudget *float64 `json:"monthlyBudget"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type profileResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// Register creates an account and returns a token for it.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if _, err := h.store.GetUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "User already exists")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.serverError(w, r, "Error registering user", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.serverError(w, r, "Error registering user", err)
		return
	}

	user := &models.User{
		Email:         req.Email,
		PasswordHash:  hash,
		UserName:      req.UserName,
		MonthlyBudget: req.MonthlyBudget,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		// The unique index catches registrations racing past the lookup above.
		if errors.Is(err, storage.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		h.serverError(w, r, "Error registering user", err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.serverError(w, r, "Error registering user", err, zap.String("user_id", user.ID))
		return
	}

	h.log.Info("user registered", zap.String("user_id", user.ID))
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login exchanges valid credentials for a token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.serverError(w, r, "Error logging in", err)
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.serverError(w, r, "Error logging in", err, zap.String("user_id", user.ID))
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Profile returns the caller's own user record.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(r.Context(), userID)
	if err != nil {
		h.notFoundOrServerError(w, r, "User not found", "Server error", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the display name and monthly budget of the caller.
// The path id must be the caller's own id.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if r.PathValue("id") != userID {
		writeError(w, http.StatusForbidden, "You can only update your own profile")
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.store.UpdateUserProfile(r.Context(), userID, models.ProfileUpdate{
		UserName:      req.UserName,
		MonthlyBudget: req.MonthlyBudget,
	})
	if err != nil {
		h.notFoundOrServerError(w, r, "User not found", "Server error", err, zap.String("user_id", userID))
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Message: "Profile updated", User: user})
}
