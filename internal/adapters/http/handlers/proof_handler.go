package handlers

import (
	"errors"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/core/domain"
	"aidledger/internal/core/services"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ProofHandler handles proof-of-aid and verification endpoints
type ProofHandler struct {
	proofService *services.ProofService
}

// NewProofHandler creates a new proof handler
func NewProofHandler(proofService *services.ProofService) *ProofHandler {
	return &ProofHandler{proofService: proofService}
}

// SubmitProofRequest represents proof submission request body.
// Media refs are opaque content identifiers; no media bytes are stored here.
type SubmitProofRequest struct {
	TransactionID uint     `json:"transaction_id"`
	MediaRefs     []string `json:"media_refs"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
}

// SubmitVerificationRequest represents a verifier decision request body
type SubmitVerificationRequest struct {
	Decision   string `json:"decision"`
	Confidence int    `json:"confidence"`
}

// Submit attaches proof of aid to a completed redemption
// @Summary Submit proof of aid
// @Description Attach evidence to a completed redemption transaction. One proof per transaction.
// @Tags Proofs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitProofRequest true "Proof data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /proofs [post]
func (h *ProofHandler) Submit(c *fiber.Ctx) error {
	var req SubmitProofRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.TransactionID == 0 {
		return response.BadRequest(c, "Transaction ID is required")
	}

	input := &services.SubmitProofInput{
		TransactionID: req.TransactionID,
		MediaRefs:     req.MediaRefs,
		Description:   req.Description,
		Location:      req.Location,
	}

	proof, err := h.proofService.SubmitProof(c.Context(), input, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, domain.ErrTransactionNotEligible):
			return response.Conflict(c, "Transaction is not eligible for proof submission")
		case errors.Is(err, domain.ErrProofAlreadySubmitted):
			return response.Conflict(c, "Proof already submitted for this transaction")
		default:
			return response.InternalServerError(c, "Failed to submit proof")
		}
	}

	return response.Created(c, "Proof submitted successfully", fiber.Map{
		"proof": proof.ToResponse(),
	})
}

// Verify records a verifier role's decision on a proof
// @Summary Submit verification decision
// @Description Record an APPROVE or REJECT decision. Both oracle and government approval verifies the proof.
// @Tags Proofs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Proof ID"
// @Param body body SubmitVerificationRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /proofs/{id}/verify [post]
func (h *ProofHandler) Verify(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid proof ID")
	}

	var req SubmitVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.SubmitVerificationInput{
		ProofID:    id,
		Decision:   req.Decision,
		Confidence: req.Confidence,
	}

	record, err := h.proofService.SubmitVerification(c.Context(), input, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProofNotFound):
			return response.NotFound(c, "Proof not found")
		case errors.Is(err, domain.ErrInvalidVerifierRole):
			return response.Forbidden(c, "Role may not submit verifications")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Decision must be APPROVE or REJECT")
		case errors.Is(err, domain.ErrInvalidConfidence):
			return response.BadRequest(c, "Confidence must be between 0 and 100")
		case errors.Is(err, domain.ErrProofAlreadyResolved):
			return response.Conflict(c, "Proof is already verified")
		case errors.Is(err, domain.ErrZoneBudgetExceeded):
			return response.Conflict(c, "Verification would exceed the zone budget allocation")
		case errors.Is(err, domain.ErrStaleAggregate):
			return response.Conflict(c, "Zone was modified concurrently, please retry")
		default:
			return response.InternalServerError(c, "Failed to submit verification")
		}
	}

	return response.Success(c, "Verification recorded successfully", fiber.Map{
		"verification": record,
	})
}

// Get returns a proof with its verification records
// @Summary Get proof by ID
// @Tags Proofs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Proof ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /proofs/{id} [get]
func (h *ProofHandler) Get(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid proof ID")
	}

	proof, err := h.proofService.GetByID(c.Context(), id)
	if err != nil {
		return response.NotFound(c, "Proof not found")
	}

	records, err := h.proofService.ListVerifications(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to load verifications")
	}

	return response.Success(c, "Proof retrieved successfully", fiber.Map{
		"proof":         proof.ToResponse(),
		"verifications": records,
	})
}

// ListStale returns SUBMITTED proofs that have exceeded the review SLA.
// Stale proofs are escalated for human review, never auto-rejected.
// @Summary List stale proofs
// @Tags Proofs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /proofs/stale [get]
func (h *ProofHandler) ListStale(c *fiber.Ctx) error {
	proofs, err := h.proofService.ListStale(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list stale proofs")
	}

	items := make([]*models.ProofResponse, 0, len(proofs))
	for _, p := range proofs {
		items = append(items, p.ToResponse())
	}

	return response.Success(c, "Stale proofs retrieved successfully", fiber.Map{
		"proofs": items,
	})
}
