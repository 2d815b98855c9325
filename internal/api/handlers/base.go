package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/billsync/reconcile-backend/internal/api/dto"
	"github.com/billsync/reconcile-backend/internal/application/reconcile"
	"github.com/billsync/reconcile-backend/internal/domain/matching"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

// userIDHeader carries the acting user's identifier. Authentication itself
// happens upstream; this layer only scopes queries.
const userIDHeader = "X-User-ID"

// Base provides shared functionality for all handlers.
type Base struct {
	repo storage.Repository
}

// NewBase creates a new base handler with the given repository.
func NewBase(repo storage.Repository) *Base {
	return &Base{repo: repo}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// UserID extracts the acting user from the request header, empty when
// missing.
func UserID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}

// WriteDomainError maps the reconciliation error kinds onto HTTP statuses.
func (b *Base) WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrBillNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("bill payment"))
	case errors.Is(err, storage.ErrPendingCycleNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("pending billing cycle"))
	case errors.Is(err, storage.ErrCycleAlreadyLinked):
		b.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
	case errors.Is(err, storage.ErrBillAlreadyExpanded):
		b.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
	case errors.Is(err, storage.ErrBillNotExpanded):
		b.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
	case errors.Is(err, reconcile.ErrAmountMismatch):
		b.WriteError(w, http.StatusUnprocessableEntity, dto.AmountMismatchError(err.Error()))
	case errors.Is(err, matching.ErrInvalidCycleKey):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}
