// Package handlers implements the HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marcosogg/budgetflow/internal/category"
	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/middleware"
	"github.com/marcosogg/budgetflow/internal/reconcile"
	"github.com/marcosogg/budgetflow/internal/revolut"
)

// Store is the persistence surface the handlers need, for dependency
// injection in tests.
type Store interface {
	UpsertBudget(ctx context.Context, b *domain.Budget) error
	GetBudget(ctx context.Context, userID string, month time.Month, year int) (*domain.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
	ListTransactions(ctx context.Context, userID string, month time.Month, year int) ([]domain.Transaction, error)
	CreateReminder(ctx context.Context, r *domain.BillReminder) error
	ListReminders(ctx context.Context, userID string) ([]domain.BillReminder, error)
	DeleteReminder(ctx context.Context, userID, id string) error
}

// Approver drives the approval lifecycle.
type Approver interface {
	Approve(ctx context.Context, userID string, month time.Month, year int, txns []domain.Transaction) (*domain.MonthlyApproval, error)
	Undo(ctx context.Context, userID string, month time.Month, year int) (int64, error)
}

// APIHandler handles API requests.
type APIHandler struct {
	store    Store
	approver Approver
	parser   *revolut.Parser
	table    *category.Table
	log      *logrus.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(store Store, approver Approver, parser *revolut.Parser, table *category.Table, log *logrus.Logger) *APIHandler {
	return &APIHandler{store: store, approver: approver, parser: parser, table: table, log: log}
}

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Budgets handles GET and PUT /api/budgets.
func (h *APIHandler) Budgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getBudgets(w, r)
	case http.MethodPut:
		h.putBudget(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *APIHandler) getBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Without a period the endpoint lists every budget.
	if r.URL.Query().Get("month") == "" && r.URL.Query().Get("year") == "" {
		budgets, err := h.store.ListBudgets(r.Context(), userID)
		if err != nil {
			h.serverError(w, userID, "failed to list budgets", err)
			return
		}
		writeJSON(w, http.StatusOK, budgets)
		return
	}

	month, year, err := periodFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	budget, err := h.store.GetBudget(r.Context(), userID, month, year)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, userID, "failed to load budget", err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (h *APIHandler) putBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var budget domain.Budget
	if err := json.NewDecoder(r.Body).Decode(&budget); err != nil {
		http.Error(w, "Invalid budget payload", http.StatusBadRequest)
		return
	}
	if err := domain.ValidatePeriod(budget.Month, budget.Year); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	budget.UserID = userID
	if budget.ID == "" {
		budget.ID = uuid.NewString()
	}

	if err := h.store.UpsertBudget(r.Context(), &budget); err != nil {
		h.serverError(w, userID, "failed to save budget", err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

// Transactions handles GET /api/transactions.
func (h *APIHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	month, year, err := periodFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txns, err := h.store.ListTransactions(r.Context(), userID, month, year)
	if err != nil {
		h.serverError(w, userID, "failed to list transactions", err)
		return
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

// Import handles POST /api/import: a multipart CSV upload parsed into an
// import preview. Nothing is persisted; approval is a separate call.
func (h *APIHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	month, year, err := periodFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.parser.Parse(r.Context(), file, revolut.ParseOptions{
		Filename: header.Filename,
		UserID:   userID,
		Month:    month,
		Year:     year,
	})
	if err != nil {
		h.serverError(w, userID, "import failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// approvalRequest is the POST /api/approvals payload.
type approvalRequest struct {
	Month        int                  `json:"month"`
	Year         int                  `json:"year"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Approvals handles POST (approve) and DELETE (undo) on /api/approvals.
func (h *APIHandler) Approvals(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req approvalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid approval payload", http.StatusBadRequest)
			return
		}
		approval, err := h.approver.Approve(r.Context(), userID, time.Month(req.Month), req.Year, req.Transactions)
		if errors.Is(err, domain.ErrApprovalExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, approval)

	case http.MethodDelete:
		month, year, err := periodFromQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		deleted, err := h.approver.Undo(r.Context(), userID, month, year)
		switch {
		case errors.Is(err, domain.ErrApprovalNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case errors.Is(err, domain.ErrUndoWindowClosed):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			h.serverError(w, userID, "undo failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Reminders handles GET, POST and DELETE on /api/reminders.
func (h *APIHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		reminders, err := h.store.ListReminders(r.Context(), userID)
		if err != nil {
			h.serverError(w, userID, "failed to list reminders", err)
			return
		}
		if reminders == nil {
			reminders = []domain.BillReminder{}
		}
		writeJSON(w, http.StatusOK, reminders)

	case http.MethodPost:
		var reminder domain.BillReminder
		if err := json.NewDecoder(r.Body).Decode(&reminder); err != nil {
			http.Error(w, "Invalid reminder payload", http.StatusBadRequest)
			return
		}
		reminder.UserID = userID
		if reminder.ID == "" {
			reminder.ID = uuid.NewString()
		}
		if err := reminder.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.store.CreateReminder(r.Context(), &reminder); err != nil {
			h.serverError(w, userID, "failed to create reminder", err)
			return
		}
		writeJSON(w, http.StatusCreated, reminder)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Missing reminder id", http.StatusBadRequest)
			return
		}
		err := h.store.DeleteReminder(r.Context(), userID, id)
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			h.serverError(w, userID, "failed to delete reminder", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Reconcile handles POST /api/reconcile: recompute a month's spent totals
// from its stored transactions and save the result.
func (h *APIHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	month, year, err := periodFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	budget, err := h.store.GetBudget(r.Context(), userID, month, year)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, userID, "failed to load budget", err)
		return
	}

	txns, err := h.store.ListTransactions(r.Context(), userID, month, year)
	if err != nil {
		h.serverError(w, userID, "failed to list transactions", err)
		return
	}

	updated, err := reconcile.Reconcile(budget, txns, h.table)
	if err != nil {
		h.serverError(w, userID, "reconciliation failed", err)
		return
	}
	if err := h.store.UpsertBudget(r.Context(), updated); err != nil {
		h.serverError(w, userID, "failed to save budget", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *APIHandler) serverError(w http.ResponseWriter, userID, msg string, err error) {
	h.log.WithError(err).WithField("user", userID).Error(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func periodFromQuery(r *http.Request) (time.Month, int, error) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return 0, 0, fmt.Errorf("month query parameter must be an integer")
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, fmt.Errorf("year query parameter must be an integer")
	}
	if err := domain.ValidatePeriod(time.Month(month), year); err != nil {
		return 0, 0, err
	}
	return time.Month(month), year, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
