package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billsync/reconcile-backend/internal/api/dto"
	"github.com/billsync/reconcile-backend/internal/application/reconcile"
	"github.com/billsync/reconcile-backend/internal/domain/matching"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

// TransactionsHandler handles transaction creation and import.
type TransactionsHandler struct {
	*Base
	service *reconcile.Service
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.Repository, service *reconcile.Service) *TransactionsHandler {
	return &TransactionsHandler{
		Base:    NewBase(repo),
		service: service,
	}
}

// Create handles POST /api/transactions - persists a bank-side transaction.
// When the transaction is classified as a bill payment, the creation hook
// attempts an immediate reconciliation against pending cycles.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("user ID header is required"))
		return
	}

	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.Description == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("description is required"))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("amount must be a decimal"))
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("date must be YYYY-MM-DD"))
		return
	}

	isBillPayment := reconcile.LooksLikeBillPayment(req.Description)
	if req.BillPayment != nil {
		isBillPayment = *req.BillPayment
	}

	bill := &storage.BillPayment{
		ID:          uuid.New(),
		UserID:      userID,
		Description: req.Description,
		Amount:      amount,
		Date:        date,
	}
	if err := h.repo.InsertBillPayment(r.Context(), bill); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.CreateTransactionResponse{
		ID:          bill.ID.String(),
		BillPayment: isBillPayment,
	}

	if isBillPayment {
		hook, err := h.service.OnBillPaymentCreated(r.Context(), userID, bill)
		if err != nil {
			h.WriteDomainError(w, err)
			return
		}
		response.AutoLink = &dto.AutoLinkResponse{
			Triggered:          hook.Triggered,
			LinkedCycle:        hook.LinkedCycle,
			Confidence:         string(hook.Confidence),
			TransactionsLinked: hook.TransactionsLinked,
		}
	}

	h.WriteJSON(w, http.StatusCreated, response)
}

// Import handles POST /api/card-transactions/import - persists a batch of
// already-parsed credit-card statement lines. The billing cycle is derived
// from each line's date unless the line names one explicitly.
func (h *TransactionsHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("user ID header is required"))
		return
	}

	var req dto.ImportCardTransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if len(req.Transactions) == 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("transactions must not be empty"))
		return
	}

	cycles := make(map[string]struct{})
	imported := 0
	for _, line := range req.Transactions {
		amount, err := decimal.NewFromString(line.Amount)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("amount must be a decimal"))
			return
		}
		date, err := time.Parse(dateLayout, line.Date)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("date must be YYYY-MM-DD"))
			return
		}

		cycle := line.Cycle
		if cycle == "" {
			cycle = matching.CycleKeyFor(date)
		} else if _, err := matching.ParseCycleKey(cycle); err != nil {
			h.WriteDomainError(w, err)
			return
		}

		tx := &storage.CardTransaction{
			ID:           uuid.New(),
			UserID:       userID,
			Title:        line.Title,
			Amount:       amount,
			Date:         date,
			BillingCycle: cycle,
		}
		if line.InstallmentNum != nil {
			tx.InstallmentNum = sql.NullInt64{Int64: *line.InstallmentNum, Valid: true}
		}
		if line.InstallmentTotal != nil {
			tx.InstallmentTotal = sql.NullInt64{Int64: *line.InstallmentTotal, Valid: true}
		}

		if err := h.repo.InsertCardTransaction(r.Context(), tx); err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
		imported++
		cycles[cycle] = struct{}{}
	}

	cycleKeys := make([]string, 0, len(cycles))
	for cycle := range cycles {
		cycleKeys = append(cycleKeys, cycle)
	}
	sort.Strings(cycleKeys)

	h.WriteJSON(w, http.StatusCreated, dto.ImportCardTransactionsResponse{
		Imported: imported,
		Cycles:   cycleKeys,
	})
}
