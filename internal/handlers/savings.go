package handlers

import (
	"errors"
	"net/http"
	"strings"

	"expense-manager/internal/models"

	"go.uber.org/zap"
)

const savingsNotFound = "Savings goal not found or unauthorized"

// savingsRequest carries savings fields; nil fields are left as they are on
// update and are required on create where noted.
type savingsRequest struct {
	Category      *string  `json:"category"`
	Name          *string  `json:"name"`
	TargetAmount  *float64 `json:"targetAmount"`
	CurrentAmount *float64 `json:"currentAmount"`
	StartDate     *string  `json:"startDate"`
	EndDate       *string  `json:"endDate"`
}

func (req *savingsRequest) missingRequired() bool {
	return req.Category == nil || strings.TrimSpace(*req.Category) == "" ||
		req.Name == nil || strings.TrimSpace(*req.Name) == "" ||
		req.TargetAmount == nil || req.StartDate == nil || req.EndDate == nil
}

// apply copies the provided fields onto s.
func (req *savingsRequest) apply(s *models.Savings) error {
	if req.Category != nil {
		s.Category = strings.TrimSpace(*req.Category)
	}
	if req.Name != nil {
		s.Name = strings.TrimSpace(*req.Name)
	}
	if req.TargetAmount != nil {
		s.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		s.CurrentAmount = *req.CurrentAmount
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			return errors.New("invalid startDate")
		}
		s.StartDate = start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return errors.New("invalid endDate")
		}
		s.EndDate = end
	}
	if s.Category == "" {
		return errors.New("category must not be blank")
	}
	if s.Name == "" {
		return errors.New("name must not be blank")
	}
	if s.EndDate.Before(s.StartDate) {
		return errors.New("endDate must not be before startDate")
	}
	return nil
}

// ListSavings returns every savings goal owned by the caller.
func (h *Handlers) ListSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	savings, err := h.store.ListSavings(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, "Error fetching savings", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, savings)
}

// GetSavings returns a single savings goal owned by the caller.
func (h *Handlers) GetSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	savings, err := h.store.GetSavings(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.notFoundOrServerError(w, r, savingsNotFound, "Error fetching savings", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, savings)
}

// CreateSavings stores a new savings goal owned by the caller.
func (h *Handlers) CreateSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req savingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.missingRequired() {
		writeError(w, http.StatusBadRequest, "category, name, targetAmount, startDate and endDate are required")
		return
	}

	savings := &models.Savings{UserID: userID}
	if err := req.apply(savings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateSavings(r.Context(), savings); err != nil {
		h.serverError(w, r, "Error creating savings", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusCreated, savings)
}

// UpdateSavings applies a partial update to a savings goal owned by the caller.
func (h *Handlers) UpdateSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req savingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	savings, err := h.store.GetSavings(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.notFoundOrServerError(w, r, savingsNotFound, "Error updating savings", err, zap.String("user_id", userID))
		return
	}
	if err := req.apply(savings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateSavings(r.Context(), savings); err != nil {
		h.notFoundOrServerError(w, r, savingsNotFound, "Error updating savings", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, savings)
}

// DeleteSavings removes a savings goal owned by the caller.
func (h *Handlers) DeleteSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteSavings(r.Context(), r.PathValue("id"), userID); err != nil {
		h.notFoundOrServerError(w, r, savingsNotFound, "Error deleting savings", err, zap.String("user_id", userID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
