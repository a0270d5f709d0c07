package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"expense-manager/internal/models"

	"go.uber.org/zap"
)

const expenseNotFound = "Expense not found or unauthorized"

// expenseRequest is the client-editable part of an expense. Any owner
// field in the body is ignored.
type expenseRequest struct {
	Title    string   `json:"title"`
	Amount   *float64 `json:"amount"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
}

type expenseResponse struct {
	Message string          `json:"message"`
	Expense *models.Expense `json:"expense"`
}

func (req *expenseRequest) validate() (time.Time, error) {
	if strings.TrimSpace(req.Title) == "" {
		return time.Time{}, errors.New("title is required")
	}
	if req.Amount == nil {
		return time.Time{}, errors.New("amount is required")
	}
	if req.Date == "" {
		return time.Time{}, nil
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return time.Time{}, errors.New("invalid date")
	}
	return date, nil
}

// ListExpenses returns every expense owned by the caller.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	expenses, err := h.store.ListExpenses(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, "Error fetching expenses", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// GetExpense returns a single expense owned by the caller.
func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	expense, err := h.store.GetExpense(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.notFoundOrServerError(w, r, expenseNotFound, "Error fetching expense", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// CreateExpense stores a new expense owned by the caller.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense := &models.Expense{
		Title:    strings.TrimSpace(req.Title),
		Amount:   *req.Amount,
		Category: req.Category,
		Date:     date,
		UserID:   userID,
	}
	if err := h.store.CreateExpense(r.Context(), expense); err != nil {
		h.serverError(w, r, "Error creating expense", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// UpdateExpense replaces the fields of an expense owned by the caller.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := h.store.GetExpense(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.notFoundOrServerError(w, r, expenseNotFound, "Server error while updating expense", err, zap.String("user_id", userID))
		return
	}

	expense.Title = strings.TrimSpace(req.Title)
	expense.Amount = *req.Amount
	expense.Category = req.Category
	if !date.IsZero() {
		expense.Date = date
	}

	if err := h.store.UpdateExpense(r.Context(), expense); err != nil {
		h.notFoundOrServerError(w, r, expenseNotFound, "Server error while updating expense", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse{Message: "Expense updated successfully", Expense: expense})
}

// DeleteExpense removes an expense owned by the caller.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteExpense(r.Context(), r.PathValue("id"), userID); err != nil {
		h.notFoundOrServerError(w, r, expenseNotFound, "Server error while deleting expense", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Expense deleted successfully"})
}
