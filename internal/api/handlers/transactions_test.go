package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billsync/reconcile-backend/internal/api/dto"
	"github.com/billsync/reconcile-backend/internal/api/handlers"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

func TestTransactionsHandler_Create(t *testing.T) {
	t.Run("bill-like description triggers the hook", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")

		body := `{"description":"PAGAMENTO DE FATURA","amount":"1000.00","date":"2024-12-05"}`
		rec := httptest.NewRecorder()
		handler.Create(rec, userRequest(http.MethodPost, "/api/transactions", body))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.CreateTransactionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.BillPayment)
		require.NotNil(t, response.AutoLink)
		assert.True(t, response.AutoLink.Triggered)
		assert.Equal(t, "2024-11", response.AutoLink.LinkedCycle)
		assert.Equal(t, "high", response.AutoLink.Confidence)
		assert.Equal(t, 1, response.AutoLink.TransactionsLinked)
	})

	t.Run("ordinary description skips the hook", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")

		body := `{"description":"SUPERMERCADO","amount":"1000.00","date":"2024-12-05"}`
		rec := httptest.NewRecorder()
		handler.Create(rec, userRequest(http.MethodPost, "/api/transactions", body))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.CreateTransactionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.False(t, response.BillPayment)
		assert.Nil(t, response.AutoLink)
	})

	t.Run("explicit flag overrides the heuristic", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-03")

		body := `{"description":"TED RECEBIDA","amount":"1000.00","date":"2024-12-05","bill_payment":true}`
		rec := httptest.NewRecorder()
		handler.Create(rec, userRequest(http.MethodPost, "/api/transactions", body))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.CreateTransactionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.BillPayment)
		require.NotNil(t, response.AutoLink)
		assert.True(t, response.AutoLink.Triggered)
	})

	t.Run("ambiguous cycles leave the bill untouched", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		seedTransaction(repo, "2024-11", "1000.00", "2024-11-25")
		seedTransaction(repo, "2024-12", "1005.00", "2024-12-02")

		body := `{"description":"BILL PAYMENT","amount":"1000.00","date":"2024-12-05"}`
		rec := httptest.NewRecorder()
		handler.Create(rec, userRequest(http.MethodPost, "/api/transactions", body))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.CreateTransactionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.NotNil(t, response.AutoLink)
		assert.False(t, response.AutoLink.Triggered)
	})

	t.Run("validates the request", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		cases := []struct {
			name string
			body string
		}{
			{"missing description", `{"amount":"10.00","date":"2024-12-05"}`},
			{"bad amount", `{"description":"x","amount":"ten","date":"2024-12-05"}`},
			{"bad date", `{"description":"x","amount":"10.00","date":"05/12/2024"}`},
			{"bad json", `{`},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec := httptest.NewRecorder()
				handler.Create(rec, userRequest(http.MethodPost, "/api/transactions", tc.body))
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})
}

func TestTransactionsHandler_Import(t *testing.T) {
	t.Run("imports lines and derives cycles", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		body := `{"transactions":[
			{"title":"MERCADO LIVRE","amount":"600.00","date":"2024-11-03"},
			{"title":"POSTO SHELL","amount":"400.00","date":"2024-11-21"},
			{"title":"LOJAS AMERICANAS 02/10","amount":"49.90","date":"2024-12-02","installment_num":2,"installment_total":10}
		]}`
		rec := httptest.NewRecorder()
		handler.Import(rec, userRequest(http.MethodPost, "/api/card-transactions/import", body))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.ImportCardTransactionsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 3, response.Imported)
		assert.Equal(t, []string{"2024-11", "2024-12"}, response.Cycles)

		require.Len(t, repo.Transactions(), 3)
		assert.True(t, repo.Transactions()[2].InstallmentNum.Valid)
		assert.Equal(t, int64(2), repo.Transactions()[2].InstallmentNum.Int64)
	})

	t.Run("honors an explicit cycle", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		// A purchase at the end of the month can belong to the next
		// statement.
		body := `{"transactions":[{"title":"UBER","amount":"25.00","date":"2024-11-29","cycle":"2024-12"}]}`
		rec := httptest.NewRecorder()
		handler.Import(rec, userRequest(http.MethodPost, "/api/card-transactions/import", body))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.ImportCardTransactionsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, []string{"2024-12"}, response.Cycles)
	})

	t.Run("rejects a malformed cycle", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		body := `{"transactions":[{"title":"UBER","amount":"25.00","date":"2024-11-29","cycle":"dec-24"}]}`
		rec := httptest.NewRecorder()
		handler.Import(rec, userRequest(http.MethodPost, "/api/card-transactions/import", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, newService(repo))

		rec := httptest.NewRecorder()
		handler.Import(rec, userRequest(http.MethodPost, "/api/card-transactions/import", `{"transactions":[]}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
