// Package reconcile drives the credit-card bill reconciliation flow: it
// aggregates pending billing cycles, scores candidate bill payments and
// either links automatically, surfaces choices to a human, or leaves the
// cycle pending. All mutation goes through the storage layer's atomic link
// primitives.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billsync/reconcile-backend/internal/domain/matching"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

// Service orchestrates reconciliation for one storage backend and one
// matching policy.
type Service struct {
	repo   storage.Repository
	cfg    matching.Config
	logger *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates a reconciliation service.
func NewService(repo storage.Repository, cfg matching.Config, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// GetPendingReconciliations returns the read-only overview: every pending
// cycle with its scored candidates, every linked cycle, and summary totals.
func (s *Service) GetPendingReconciliations(ctx context.Context, userID string) (*PendingReconciliations, error) {
	pending, err := s.repo.ListPendingCycles(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &PendingReconciliations{
		PendingCycles: make([]PendingCycle, 0, len(pending)),
		Summary:       Summary{PendingTotal: decimal.Zero},
	}
	for _, cycle := range pending {
		candidates, err := s.candidateMatches(ctx, userID, cycle.Cycle, cycle.Total)
		if err != nil {
			return nil, err
		}
		out.PendingCycles = append(out.PendingCycles, PendingCycle{
			CycleSummary: cycle,
			Candidates:   candidates,
		})
		out.Summary.PendingTotal = out.Summary.PendingTotal.Add(cycle.Total)
	}

	linked, err := s.repo.ListLinkedCycles(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.LinkedCycles = linked
	out.Summary.PendingCycles = len(out.PendingCycles)
	out.Summary.LinkedCycles = len(linked)
	return out, nil
}

// Reconcile evaluates one billing cycle, or every pending cycle when
// cycleKey is empty. Cycles already linked never show up in the pending
// list, so re-running reconciliation is idempotent.
func (s *Service) Reconcile(ctx context.Context, userID, cycleKey string) (*Result, error) {
	var cycles []storage.CycleSummary

	if cycleKey != "" {
		if _, err := matching.ParseCycleKey(cycleKey); err != nil {
			return nil, err
		}
		summary, err := s.repo.GetPendingCycle(ctx, userID, cycleKey)
		if err != nil {
			return nil, err
		}
		if summary == nil {
			return nil, storage.ErrPendingCycleNotFound
		}
		cycles = []storage.CycleSummary{*summary}
	} else {
		all, err := s.repo.ListPendingCycles(ctx, userID)
		if err != nil {
			return nil, err
		}
		cycles = all
	}

	result := &Result{}
	for _, cycle := range cycles {
		decision, err := s.evaluate(ctx, userID, cycle)
		if err != nil {
			return nil, err
		}
		switch decision.Outcome {
		case OutcomeAutoLinked:
			result.AutoLinked = append(result.AutoLinked, decision)
		case OutcomeRequiresSelection:
			result.RequiresSelection = append(result.RequiresSelection, decision)
		default:
			result.NoMatch = append(result.NoMatch, decision)
		}
	}
	return result, nil
}

// evaluate runs the per-cycle decision: zero candidates leaves the cycle
// pending, a single auto-linkable candidate links immediately, anything
// else requires a human choice.
func (s *Service) evaluate(ctx context.Context, userID string, cycle storage.CycleSummary) (CycleDecision, error) {
	candidates, err := s.candidateMatches(ctx, userID, cycle.Cycle, cycle.Total)
	if err != nil {
		return CycleDecision{}, err
	}

	if len(candidates) == 0 {
		return CycleDecision{Cycle: cycle.Cycle, Outcome: OutcomeNoMatch}, nil
	}

	if len(candidates) == 1 && candidates[0].Confidence.AutoLinkable() {
		match := candidates[0]
		linked, err := s.repo.LinkCycle(ctx, userID, cycle.Cycle, match.BillID, s.now())
		if err != nil {
			return CycleDecision{}, err
		}
		s.logger.Info("auto-linked billing cycle",
			"user_id", userID,
			"cycle", cycle.Cycle,
			"bill_id", match.BillID,
			"confidence", match.Confidence,
			"difference", match.Difference,
			"transactions", linked)
		return CycleDecision{
			Cycle:              cycle.Cycle,
			Outcome:            OutcomeAutoLinked,
			BillID:             match.BillID,
			Confidence:         match.Confidence,
			Difference:         match.Difference,
			TransactionsLinked: linked,
		}, nil
	}

	return CycleDecision{
		Cycle:      cycle.Cycle,
		Outcome:    OutcomeRequiresSelection,
		Candidates: candidates,
	}, nil
}

// candidateMatches finds and scores the bills eligible for a cycle. Bills
// outside the overall tolerance are dropped here and never surfaced.
func (s *Service) candidateMatches(ctx context.Context, userID, cycleKey string, cycleTotal decimal.Decimal) ([]matching.PotentialMatch, error) {
	from, to, err := matching.Window(cycleKey, s.cfg)
	if err != nil {
		return nil, err
	}

	bills, err := s.repo.ListCandidateBills(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	matches := make([]matching.PotentialMatch, 0, len(bills))
	for _, bill := range bills {
		match, ok := matching.Evaluate(cycleTotal, bill.ID, bill.Date, bill.Description, bill.Amount, s.cfg)
		if !ok {
			continue
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// ManualLink performs a user-chosen link. When the amount difference
// exceeds the overall tolerance the link is rejected unless force is set;
// a forced link reports HasMismatch so the caller can flag it.
func (s *Service) ManualLink(ctx context.Context, userID, cycleKey string, billID uuid.UUID, force bool) (*ManualLinkResult, error) {
	if _, err := matching.ParseCycleKey(cycleKey); err != nil {
		return nil, err
	}

	summary, err := s.repo.GetPendingCycle(ctx, userID, cycleKey)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, storage.ErrPendingCycleNotFound
	}

	bill, err := s.repo.GetBillPayment(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, storage.ErrBillNotFound
	}
	if bill.Expanded() {
		return nil, storage.ErrBillAlreadyExpanded
	}

	difference := summary.Total.Sub(bill.Amount)
	mismatch := !s.cfg.WithinTolerance(summary.Total, bill.Amount)
	if mismatch && !force {
		return nil, ErrAmountMismatch
	}

	linked, err := s.repo.LinkCycle(ctx, userID, cycleKey, billID, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("manually linked billing cycle",
		"user_id", userID,
		"cycle", cycleKey,
		"bill_id", billID,
		"forced", force,
		"mismatch", mismatch,
		"transactions", linked)

	return &ManualLinkResult{
		TransactionsLinked: linked,
		AmountDifference:   difference,
		HasMismatch:        mismatch,
	}, nil
}

// Unlink reverses a link: transactions are disassociated, never deleted,
// and the bill's amount is restored exactly.
func (s *Service) Unlink(ctx context.Context, userID string, billID uuid.UUID) (*UnlinkResult, error) {
	outcome, err := s.repo.UnlinkBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("unlinked bill payment",
		"user_id", userID,
		"bill_id", billID,
		"restored_amount", outcome.RestoredAmount,
		"transactions", outcome.AffectedTransactions)

	return &UnlinkResult{
		RestoredAmount:       outcome.RestoredAmount,
		AffectedTransactions: outcome.AffectedTransactions,
	}, nil
}

// OnBillPaymentCreated is the creation hook: given a freshly persisted bill
// payment it searches the pending cycles whose date window covers the
// bill's date and whose total is auto-linkably close to the bill's amount.
// Exactly one qualifying cycle links immediately; zero or several leave
// everything untouched.
func (s *Service) OnBillPaymentCreated(ctx context.Context, userID string, bill *storage.BillPayment) (*AutoLinkResult, error) {
	pending, err := s.repo.ListPendingCycles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var qualifying []storage.CycleSummary
	for _, cycle := range pending {
		inWindow, err := matching.WindowContains(cycle.Cycle, bill.Date, s.cfg)
		if err != nil {
			return nil, err
		}
		if !inWindow {
			continue
		}
		if matching.Classify(cycle.Total, bill.Amount, s.cfg).AutoLinkable() {
			qualifying = append(qualifying, cycle)
		}
	}

	if len(qualifying) != 1 {
		s.logger.Debug("bill creation hook did not auto-link",
			"user_id", userID,
			"bill_id", bill.ID,
			"qualifying_cycles", len(qualifying))
		return &AutoLinkResult{Triggered: false}, nil
	}

	cycle := qualifying[0]
	confidence := matching.Classify(cycle.Total, bill.Amount, s.cfg)
	linked, err := s.repo.LinkCycle(ctx, userID, cycle.Cycle, bill.ID, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("auto-linked on bill creation",
		"user_id", userID,
		"cycle", cycle.Cycle,
		"bill_id", bill.ID,
		"confidence", confidence,
		"transactions", linked)

	return &AutoLinkResult{
		Triggered:          true,
		LinkedCycle:        cycle.Cycle,
		Confidence:         confidence,
		TransactionsLinked: linked,
	}, nil
}
