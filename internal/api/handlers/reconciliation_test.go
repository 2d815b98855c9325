package handlers_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billsync/reconcile-backend/internal/api/dto"
	"github.com/billsync/reconcile-backend/internal/api/handlers"
	"github.com/billsync/reconcile-backend/internal/application/reconcile"
	"github.com/billsync/reconcile-backend/internal/domain/matching"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

const testUser = "user-1"

func newService(repo storage.Repository) *reconcile.Service {
	return reconcile.NewService(repo, matching.DefaultConfig(), slog.New(slog.DiscardHandler))
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedTransaction(repo *storage.MockRepository, cycle, amount, date string) {
	tx := &storage.CardTransaction{
		ID:           uuid.New(),
		UserID:       testUser,
		Title:        "MERCADO LIVRE",
		Amount:       decimal.RequireFromString(amount),
		Date:         day(date),
		BillingCycle: cycle,
	}
	if err := repo.InsertCardTransaction(context.Background(), tx); err != nil {
		panic(err)
	}
}

func seedBill(repo *storage.MockRepository, amount, date string) *storage.BillPayment {
	bill := &storage.BillPayment{
		ID:          uuid.New(),
		UserID:      testUser,
		Description: "PAGAMENTO DE FATURA",
		Amount:      decimal.RequireFromString(amount),
		Date:        day(date),
	}
	if err := repo.InsertBillPayment(context.Background(), bill); err != nil {
		panic(err)
	}
	return bill
}

func userRequest(method, target, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("X-User-ID", testUser)
	return req
}

func TestReconciliationHandler_Overview(t *testing.T) {
	t.Run("requires user header", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		req := httptest.NewRequest(http.MethodGet, "/api/reconciliation", nil)
		rec := httptest.NewRecorder()

		handler.Overview(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns pending cycles with candidates", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "600.00", "2024-11-03")
		seedTransaction(repo, "2024-11", "400.00", "2024-11-21")
		bill := seedBill(repo, "1000.00", "2024-12-05")

		rec := httptest.NewRecorder()
		handler.Overview(rec, userRequest(http.MethodGet, "/api/reconciliation", ""))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response dto.PendingReconciliationsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		require.Len(t, response.PendingCycles, 1)
		cycle := response.PendingCycles[0]
		assert.Equal(t, "2024-11", cycle.Cycle)
		assert.Equal(t, 2, cycle.TransactionCount)
		assert.Equal(t, "1000.00", cycle.Total)
		require.Len(t, cycle.Candidates, 1)
		assert.Equal(t, bill.ID.String(), cycle.Candidates[0].BillID)
		assert.Equal(t, "high", cycle.Candidates[0].Confidence)

		assert.Equal(t, 1, response.Summary.PendingCycles)
		assert.Equal(t, 0, response.Summary.LinkedCycles)
	})
}

func TestReconciliationHandler_Reconcile(t *testing.T) {
	t.Run("auto-links a single high confidence candidate", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")
		bill := seedBill(repo, "1000.00", "2024-12-05")

		rec := httptest.NewRecorder()
		handler.Reconcile(rec, userRequest(http.MethodPost, "/api/reconciliation/reconcile", ""))

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.AutoLinked, 1)
		assert.Equal(t, "2024-11", response.AutoLinked[0].Cycle)
		assert.Equal(t, bill.ID.String(), response.AutoLinked[0].BillID)
		assert.Equal(t, "high", response.AutoLinked[0].Confidence)
		assert.Equal(t, 1, response.AutoLinked[0].TransactionsLinked)
	})

	t.Run("surfaces candidates when ambiguous", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")
		seedBill(repo, "1000.00", "2024-12-05")
		seedBill(repo, "1005.00", "2024-12-06")

		rec := httptest.NewRecorder()
		handler.Reconcile(rec, userRequest(http.MethodPost, "/api/reconciliation/reconcile", ""))

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Empty(t, response.AutoLinked)
		require.Len(t, response.RequiresSelection, 1)
		assert.Len(t, response.RequiresSelection[0].Candidates, 2)
	})

	t.Run("rejects a malformed cycle key", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		rec := httptest.NewRecorder()
		handler.Reconcile(rec, userRequest(http.MethodPost, "/api/reconciliation/reconcile", `{"cycle":"2024-13"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeValidation, apiErr.Code)
	})

	t.Run("unknown cycle is not found", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		rec := httptest.NewRecorder()
		handler.Reconcile(rec, userRequest(http.MethodPost, "/api/reconciliation/reconcile", `{"cycle":"2024-11"}`))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReconciliationHandler_Link(t *testing.T) {
	t.Run("links within tolerance", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")
		bill := seedBill(repo, "1010.00", "2024-12-05")

		body := `{"cycle":"2024-11","bill_id":"` + bill.ID.String() + `"}`
		rec := httptest.NewRecorder()
		handler.Link(rec, userRequest(http.MethodPost, "/api/reconciliation/links", body))

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.LinkResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.TransactionsLinked)
		assert.Equal(t, "-10.00", response.AmountDifference)
		assert.False(t, response.HasMismatch)
	})

	t.Run("rejects a mismatch without force", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")
		bill := seedBill(repo, "1500.00", "2024-12-05")

		body := `{"cycle":"2024-11","bill_id":"` + bill.ID.String() + `"}`
		rec := httptest.NewRecorder()
		handler.Link(rec, userRequest(http.MethodPost, "/api/reconciliation/links", body))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeAmountMismatch, apiErr.Code)

		// Forced link goes through and reports the mismatch.
		forced := `{"cycle":"2024-11","bill_id":"` + bill.ID.String() + `","force":true}`
		rec = httptest.NewRecorder()
		handler.Link(rec, userRequest(http.MethodPost, "/api/reconciliation/links", forced))

		assert.Equal(t, http.StatusOK, rec.Code)
		var response dto.LinkResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.HasMismatch)
	})

	t.Run("conflicts when the bill is already linked", func(t *testing.T) {
		repo := storage.NewMockRepository()
		service := newService(repo)
		handler := handlers.NewReconciliationHandler(repo, service)

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")
		seedTransaction(repo, "2024-12", "1000.00", "2024-12-03")
		bill := seedBill(repo, "1000.00", "2024-12-05")

		_, err := service.ManualLink(context.Background(), testUser, "2024-11", bill.ID, false)
		require.NoError(t, err)

		body := `{"cycle":"2024-12","bill_id":"` + bill.ID.String() + `"}`
		rec := httptest.NewRecorder()
		handler.Link(rec, userRequest(http.MethodPost, "/api/reconciliation/links", body))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown bill is not found", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")

		body := `{"cycle":"2024-11","bill_id":"` + uuid.NewString() + `"}`
		rec := httptest.NewRecorder()
		handler.Link(rec, userRequest(http.MethodPost, "/api/reconciliation/links", body))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects a malformed bill id", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		rec := httptest.NewRecorder()
		handler.Link(rec, userRequest(http.MethodPost, "/api/reconciliation/links", `{"cycle":"2024-11","bill_id":"nope"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReconciliationHandler_Unlink(t *testing.T) {
	router := func(handler *handlers.ReconciliationHandler) chi.Router {
		r := chi.NewRouter()
		r.Delete("/api/reconciliation/links/{billID}", handler.Unlink)
		return r
	}

	t.Run("restores the bill", func(t *testing.T) {
		repo := storage.NewMockRepository()
		service := newService(repo)
		handler := handlers.NewReconciliationHandler(repo, service)

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")
		bill := seedBill(repo, "1000.00", "2024-12-05")
		_, err := service.ManualLink(context.Background(), testUser, "2024-11", bill.ID, false)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router(handler).ServeHTTP(rec, userRequest(http.MethodDelete, "/api/reconciliation/links/"+bill.ID.String(), ""))

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.UnlinkResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "1000.00", response.RestoredAmount)
		assert.Equal(t, 1, response.AffectedTransactions)
	})

	t.Run("conflicts when the bill is not linked", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newService(repo))

		bill := seedBill(repo, "1000.00", "2024-12-05")

		rec := httptest.NewRecorder()
		router(handler).ServeHTTP(rec, userRequest(http.MethodDelete, "/api/reconciliation/links/"+bill.ID.String(), ""))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
