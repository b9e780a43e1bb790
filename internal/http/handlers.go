package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Rajdeepm07/expensechart/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddExpense(w, r)
	case http.MethodDelete:
		s.handleRemoveExpense(w, r)
	case http.MethodGet:
		s.handleGetExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		AmountCents int64  `json:"amount_cents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caller := core.OwnerID(r.Header.Get(OwnerHeader))
	id, err := s.ledger.AddExpense(r.Context(), caller, req.Title, req.AmountCents)
	if err != nil {
		writeLedgerError(w, r, err, "add expense")
		return
	}

	slog.InfoContext(r.Context(), "Expense created",
		"id", id,
		"title", req.Title,
		"amount_cents", req.AmountCents)

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}

	caller := core.OwnerID(r.Header.Get(OwnerHeader))
	if err := s.ledger.RemoveExpense(r.Context(), caller, id); err != nil {
		writeLedgerError(w, r, err, "remove expense")
		return
	}

	slog.InfoContext(r.Context(), "Expense removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}

	exp, err := s.ledger.Expense(r.Context(), id)
	if err != nil {
		writeLedgerError(w, r, err, "get expense")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		AmountCents int64  `json:"amount_cents"`
		CreatedAt   int64  `json:"created_at"`
	}{
		ID:          exp.ID,
		Title:       exp.Title,
		AmountCents: exp.Amount.Cents,
		CreatedAt:   exp.CreatedAt,
	})
}

func (s *Server) handleExpenseIDs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ids := s.ledger.ExpenseIDs(r.Context())
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"ids": ids})
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	total := s.ledger.Total(r.Context())
	writeJSON(w, http.StatusOK, map[string]int64{"total_cents": total})
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		NewOwner string `json:"new_owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caller := core.OwnerID(r.Header.Get(OwnerHeader))
	if err := s.ledger.TransferOwnership(r.Context(), caller, core.OwnerID(req.NewOwner)); err != nil {
		writeLedgerError(w, r, err, "transfer ownership")
		return
	}

	slog.InfoContext(r.Context(), "Ledger ownership transferred")
	w.WriteHeader(http.StatusNoContent)
}

func expenseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing id parameter")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id parameter")
		return 0, false
	}
	return id, true
}

func writeLedgerError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidOwner), errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Ledger operation failed",
			"operation", op,
			"error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
