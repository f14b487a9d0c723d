package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"ledgerd/internal/core"
	"ledgerd/internal/service"
	"ledgerd/internal/storage"
)

// createRequest is the wire shape of add-income/add-expense bodies. Amount
// is decoded loosely so a non-numeric value maps to the invalid-amount
// error instead of a bare decode failure.
type createRequest struct {
	Title       string `json:"title"`
	Amount      any    `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (s *Server) handleCreate(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		fields, err := req.toFields()
		if err != nil {
			writeValidationError(w, err)
			return
		}

		created, err := s.transactions.Create(r.Context(), identity, kind, fields)
		if err != nil {
			if isValidationError(err) {
				writeValidationError(w, err)
				return
			}
			slog.ErrorContext(r.Context(), "Create failed", "error", err, "kind", kind)
			writeMessage(w, http.StatusInternalServerError, "Server Error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":     titleKind(kind) + " Added",
			"transaction": created,
		})
	}
}

func (s *Server) handleList(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		txs, err := s.transactions.List(r.Context(), identity, kind)
		if err != nil {
			slog.ErrorContext(r.Context(), "List failed", "error", err, "kind", kind)
			writeMessage(w, http.StatusInternalServerError, "Server Error")
			return
		}
		if txs == nil {
			txs = []core.Transaction{}
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func (s *Server) handleDelete(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		id := r.PathValue("id")
		if err := s.transactions.Delete(r.Context(), identity, kind, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeMessage(w, http.StatusNotFound, titleKind(kind)+" not found or unauthorized")
				return
			}
			slog.ErrorContext(r.Context(), "Delete failed", "error", err, "kind", kind, "id", id)
			writeMessage(w, http.StatusInternalServerError, "Server Error")
			return
		}
		writeMessage(w, http.StatusOK, titleKind(kind)+" Deleted")
	}
}

func (r createRequest) toFields() (service.Fields, error) {
	fields := service.Fields{
		Title:       strings.TrimSpace(r.Title),
		Category:    strings.TrimSpace(r.Category),
		Description: strings.TrimSpace(r.Description),
	}

	if r.Amount != nil {
		cents, err := core.ParseAmountValue(r.Amount)
		if err != nil {
			return service.Fields{}, err
		}
		fields.Amount = core.Money{Cents: cents}
	}

	if strings.TrimSpace(r.Date) != "" {
		date, err := core.ParseDate(r.Date)
		if err != nil {
			return service.Fields{}, err
		}
		fields.Date = date
	}
	return fields, nil
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrMissingField) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate)
}

func writeValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		writeMessage(w, http.StatusBadRequest, "Amount must be a positive number!")
	case errors.Is(err, core.ErrInvalidDate):
		writeMessage(w, http.StatusBadRequest, "Date must be a valid calendar date!")
	default:
		writeMessage(w, http.StatusBadRequest, "All fields are required!")
	}
}

func titleKind(kind core.Kind) string {
	if kind == core.KindIncome {
		return "Income"
	}
	return "Expense"
}
