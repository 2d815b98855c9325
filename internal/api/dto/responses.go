package dto

import "time"

// All monetary fields are decimal strings; dates are YYYY-MM-DD and
// timestamps RFC3339.

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// CandidateResponse is one scored bill payment candidate.
type CandidateResponse struct {
	BillID            string `json:"bill_id"`
	Date              string `json:"date"`
	Description       string `json:"description"`
	Amount            string `json:"amount"`
	Difference        string `json:"difference"`
	DifferencePercent string `json:"difference_percent"`
	Confidence        string `json:"confidence"`
}

// PendingCycleResponse is one billing cycle awaiting reconciliation.
type PendingCycleResponse struct {
	Cycle            string              `json:"cycle"`
	TransactionCount int                 `json:"transaction_count"`
	Total            string              `json:"total"`
	OldestDate       string              `json:"oldest_date"`
	NewestDate       string              `json:"newest_date"`
	Candidates       []CandidateResponse `json:"candidates"`
}

// LinkedCycleResponse is one already-linked billing cycle.
type LinkedCycleResponse struct {
	Cycle            string `json:"cycle"`
	BillID           string `json:"bill_id"`
	TransactionCount int    `json:"transaction_count"`
	Total            string `json:"total"`
	LinkedAt         string `json:"linked_at"`
}

// ReconciliationSummaryResponse holds the overview headline numbers.
type ReconciliationSummaryResponse struct {
	PendingCycles int    `json:"pending_cycles"`
	LinkedCycles  int    `json:"linked_cycles"`
	PendingTotal  string `json:"pending_total"`
}

// PendingReconciliationsResponse is the GET /api/reconciliation payload.
type PendingReconciliationsResponse struct {
	PendingCycles []PendingCycleResponse        `json:"pending_cycles"`
	LinkedCycles  []LinkedCycleResponse         `json:"linked_cycles"`
	Summary       ReconciliationSummaryResponse `json:"summary"`
}

// CycleDecisionResponse is the outcome of evaluating one cycle.
type CycleDecisionResponse struct {
	Cycle              string              `json:"cycle"`
	Outcome            string              `json:"outcome"`
	BillID             string              `json:"bill_id,omitempty"`
	Confidence         string              `json:"confidence,omitempty"`
	Difference         string              `json:"difference,omitempty"`
	TransactionsLinked int                 `json:"transactions_linked,omitempty"`
	Candidates         []CandidateResponse `json:"candidates,omitempty"`
}

// ReconcileResponse is the POST /api/reconciliation/reconcile payload.
type ReconcileResponse struct {
	AutoLinked        []CycleDecisionResponse `json:"auto_linked"`
	RequiresSelection []CycleDecisionResponse `json:"requires_selection"`
	NoMatch           []CycleDecisionResponse `json:"no_match"`
}

// LinkResponse reports a manual link.
type LinkResponse struct {
	TransactionsLinked int    `json:"transactions_linked"`
	AmountDifference   string `json:"amount_difference"`
	HasMismatch        bool   `json:"has_mismatch"`
}

// UnlinkResponse reports an unlink.
type UnlinkResponse struct {
	RestoredAmount       string `json:"restored_amount"`
	AffectedTransactions int    `json:"affected_transactions"`
}

// AutoLinkResponse reports what the bill-creation hook did.
type AutoLinkResponse struct {
	Triggered          bool   `json:"triggered"`
	LinkedCycle        string `json:"linked_cycle,omitempty"`
	Confidence         string `json:"confidence,omitempty"`
	TransactionsLinked int    `json:"transactions_linked,omitempty"`
}

// CreateTransactionResponse is the POST /api/transactions payload.
type CreateTransactionResponse struct {
	ID          string            `json:"id"`
	BillPayment bool              `json:"bill_payment"`
	AutoLink    *AutoLinkResponse `json:"auto_link,omitempty"`
}

// ImportCardTransactionsResponse is the import payload.
type ImportCardTransactionsResponse struct {
	Imported int      `json:"imported"`
	Cycles   []string `json:"cycles"`
}
