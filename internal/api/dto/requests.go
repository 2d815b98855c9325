package dto

// CardTransactionRequest is one credit-card statement line in an import.
// Amount is a decimal string; Date is YYYY-MM-DD. The billing cycle is
// derived from the date when Cycle is empty.
type CardTransactionRequest struct {
	Title            string `json:"title"`
	Amount           string `json:"amount"`
	Date             string `json:"date"`
	Cycle            string `json:"cycle,omitempty"`
	InstallmentNum   *int64 `json:"installment_num,omitempty"`
	InstallmentTotal *int64 `json:"installment_total,omitempty"`
}

// ImportCardTransactionsRequest is the body of POST /api/card-transactions/import.
type ImportCardTransactionsRequest struct {
	Transactions []CardTransactionRequest `json:"transactions"`
}

// CreateTransactionRequest is the body of POST /api/transactions: a
// bank-side transaction. BillPayment forces the bill-payment classification;
// when unset the description heuristic decides.
type CreateTransactionRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	BillPayment *bool  `json:"bill_payment,omitempty"`
}

// ReconcileRequest is the body of POST /api/reconciliation/reconcile.
// An empty cycle reconciles every pending cycle.
type ReconcileRequest struct {
	Cycle string `json:"cycle,omitempty"`
}

// LinkRequest is the body of POST /api/reconciliation/links.
type LinkRequest struct {
	Cycle  string `json:"cycle"`
	BillID string `json:"bill_id"`
	Force  bool   `json:"force,omitempty"`
}
