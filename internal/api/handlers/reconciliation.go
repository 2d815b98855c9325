package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/billsync/reconcile-backend/internal/api/dto"
	"github.com/billsync/reconcile-backend/internal/application/reconcile"
	"github.com/billsync/reconcile-backend/internal/domain/matching"
	"github.com/billsync/reconcile-backend/internal/infrastructure/storage"
)

const dateLayout = "2006-01-02"

// ReconciliationHandler handles the reconciliation HTTP endpoints.
type ReconciliationHandler struct {
	*Base
	service *reconcile.Service
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(repo storage.Repository, service *reconcile.Service) *ReconciliationHandler {
	return &ReconciliationHandler{
		Base:    NewBase(repo),
		service: service,
	}
}

// Overview handles GET /api/reconciliation - pending cycles with scored
// candidates, linked cycles and summary totals.
func (h *ReconciliationHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("user ID header is required"))
		return
	}

	overview, err := h.service.GetPendingReconciliations(r.Context(), userID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	response := dto.PendingReconciliationsResponse{
		PendingCycles: make([]dto.PendingCycleResponse, 0, len(overview.PendingCycles)),
		LinkedCycles:  make([]dto.LinkedCycleResponse, 0, len(overview.LinkedCycles)),
		Summary: dto.ReconciliationSummaryResponse{
			PendingCycles: overview.Summary.PendingCycles,
			LinkedCycles:  overview.Summary.LinkedCycles,
			PendingTotal:  overview.Summary.PendingTotal.String(),
		},
	}
	for _, cycle := range overview.PendingCycles {
		response.PendingCycles = append(response.PendingCycles, dto.PendingCycleResponse{
			Cycle:            cycle.Cycle,
			TransactionCount: cycle.TransactionCount,
			Total:            cycle.Total.String(),
			OldestDate:       cycle.OldestDate.Format(dateLayout),
			NewestDate:       cycle.NewestDate.Format(dateLayout),
			Candidates:       toCandidateResponses(cycle.Candidates),
		})
	}
	for _, cycle := range overview.LinkedCycles {
		response.LinkedCycles = append(response.LinkedCycles, dto.LinkedCycleResponse{
			Cycle:            cycle.Cycle,
			BillID:           cycle.BillID.String(),
			TransactionCount: cycle.TransactionCount,
			Total:            cycle.Total.String(),
			LinkedAt:         cycle.LinkedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Reconcile handles POST /api/reconciliation/reconcile - runs the decision
// process for one cycle or all pending ones. The body is optional.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("user ID header is required"))
		return
	}

	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	result, err := h.service.Reconcile(r.Context(), userID, req.Cycle)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	response := dto.ReconcileResponse{
		AutoLinked:        toDecisionResponses(result.AutoLinked),
		RequiresSelection: toDecisionResponses(result.RequiresSelection),
		NoMatch:           toDecisionResponses(result.NoMatch),
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// Link handles POST /api/reconciliation/links - a user-chosen link.
func (h *ReconciliationHandler) Link(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("user ID header is required"))
		return
	}

	var req dto.LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	billID, err := uuid.Parse(req.BillID)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("bill_id must be a UUID"))
		return
	}

	result, err := h.service.ManualLink(r.Context(), userID, req.Cycle, billID, req.Force)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.LinkResponse{
		TransactionsLinked: result.TransactionsLinked,
		AmountDifference:   result.AmountDifference.String(),
		HasMismatch:        result.HasMismatch,
	})
}

// Unlink handles DELETE /api/reconciliation/links/{billID} - reverses a
// link, restoring the bill's amount.
func (h *ReconciliationHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("user ID header is required"))
		return
	}

	billID, err := uuid.Parse(chi.URLParam(r, "billID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("bill ID must be a UUID"))
		return
	}

	result, err := h.service.Unlink(r.Context(), userID, billID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.UnlinkResponse{
		RestoredAmount:       result.RestoredAmount.String(),
		AffectedTransactions: result.AffectedTransactions,
	})
}

func toCandidateResponses(matches []matching.PotentialMatch) []dto.CandidateResponse {
	out := make([]dto.CandidateResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, dto.CandidateResponse{
			BillID:            m.BillID.String(),
			Date:              m.Date.Format(dateLayout),
			Description:       m.Description,
			Amount:            m.Amount.String(),
			Difference:        m.Difference.String(),
			DifferencePercent: m.DifferencePercent.StringFixed(2),
			Confidence:        string(m.Confidence),
		})
	}
	return out
}

func toDecisionResponses(decisions []reconcile.CycleDecision) []dto.CycleDecisionResponse {
	out := make([]dto.CycleDecisionResponse, 0, len(decisions))
	for _, d := range decisions {
		resp := dto.CycleDecisionResponse{
			Cycle:              d.Cycle,
			Outcome:            string(d.Outcome),
			TransactionsLinked: d.TransactionsLinked,
			Candidates:         toCandidateResponses(d.Candidates),
		}
		if d.Outcome == reconcile.OutcomeAutoLinked {
			resp.BillID = d.BillID.String()
			resp.Confidence = string(d.Confidence)
			resp.Difference = d.Difference.String()
		}
		if len(resp.Candidates) == 0 {
			resp.Candidates = nil
		}
		out = append(out, resp)
	}
	return out
}
