package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/core/domain"
	"aidledger/internal/pkg/keylock"
)

// ProofService drives proof-of-aid submissions through the verification quorum.
// A proof reaches VERIFIED only with an approve from both oracle and government
// and no outstanding reject; only then does the transaction amount count
// against the zone's used budget.
type ProofService struct {
	proofRepo        repositories.ProofRepository
	verificationRepo repositories.VerificationRepository
	redemptionRepo   repositories.RedemptionRepository
	voucherRepo      repositories.VoucherRepository
	zoneRepo         repositories.ZoneRepository
	zoneLocks        *keylock.KeyLock
	proofLocks       *keylock.KeyLock
	auditor          *Auditor
	staleAfter       time.Duration

	now func() time.Time
}

// NewProofService creates a new proof service
func NewProofService(
	proofRepo repositories.ProofRepository,
	verificationRepo repositories.VerificationRepository,
	redemptionRepo repositories.RedemptionRepository,
	voucherRepo repositories.VoucherRepository,
	zoneRepo repositories.ZoneRepository,
	zoneLocks *keylock.KeyLock,
	proofLocks *keylock.KeyLock,
	auditor *Auditor,
	staleAfter time.Duration,
) *ProofService {
	return &ProofService{
		proofRepo:        proofRepo,
		verificationRepo: verificationRepo,
		redemptionRepo:   redemptionRepo,
		voucherRepo:      voucherRepo,
		zoneRepo:         zoneRepo,
		zoneLocks:        zoneLocks,
		proofLocks:       proofLocks,
		auditor:          auditor,
		staleAfter:       staleAfter,
		now:              time.Now,
	}
}

// SubmitProofInput represents submit proof input
type SubmitProofInput struct {
	TransactionID uint     `json:"transaction_id" validate:"required"`
	MediaRefs     []string `json:"media_refs,omitempty"`
	Description   string   `json:"description,omitempty"`
	Location      string   `json:"location,omitempty"`
}

// SubmitProof attaches evidence to a completed redemption. Exactly one proof
// per transaction.
func (s *ProofService) SubmitProof(ctx context.Context, input *SubmitProofInput, actor Actor) (*models.ProofOfAid, error) {
	tx, err := s.redemptionRepo.GetByID(ctx, input.TransactionID)
	if err != nil {
		return nil, domain.ErrTransactionNotFound
	}
	if tx.Status != domain.RedemptionStatusCompleted {
		return nil, domain.ErrTransactionNotEligible
	}

	existing, err := s.proofRepo.GetByTransactionID(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrProofAlreadySubmitted
	}

	proof := &models.ProofOfAid{
		TransactionID: tx.ID,
		Description:   input.Description,
		Location:      input.Location,
		Status:        domain.ProofStatusSubmitted,
		SubmittedAt:   s.now(),
	}
	proof.SetMedia(input.MediaRefs)

	if err := s.proofRepo.Create(ctx, proof); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditProofSubmit, "proof", proof.ID, nil,
		fmt.Sprintf("transaction %d", tx.ID), actor)

	return proof, nil
}

// SubmitVerificationInput represents submit verification input
type SubmitVerificationInput struct {
	ProofID    uint   `json:"proof_id" validate:"required"`
	Decision   string `json:"decision" validate:"required"`
	Confidence int    `json:"confidence"`
}

// SubmitVerification records one verifier role's decision and re-evaluates the
// quorum. Resubmitting replaces the caller role's own prior record, never the
// other role's. Evaluation is a pure function of the stored records, so arrival
// order does not matter.
func (s *ProofService) SubmitVerification(ctx context.Context, input *SubmitVerificationInput, actor Actor) (*models.VerificationRecord, error) {
	if actor.Role != domain.RoleOracle && actor.Role != domain.RoleGovernment {
		return nil, domain.ErrInvalidVerifierRole
	}
	if input.Decision != domain.DecisionApprove && input.Decision != domain.DecisionReject {
		return nil, domain.ErrInvalidInput
	}
	if input.Confidence < 0 || input.Confidence > 100 {
		return nil, domain.ErrInvalidConfidence
	}

	// Record upsert and quorum evaluation are serialized per proof so two
	// verifiers racing the final approve cannot both run the VERIFIED
	// transition and credit the zone budget twice.
	key := proofLockKey(input.ProofID)
	s.proofLocks.Lock(key)
	defer s.proofLocks.Unlock(key)

	proof, err := s.proofRepo.GetByID(ctx, input.ProofID)
	if err != nil {
		return nil, domain.ErrProofNotFound
	}
	// VERIFIED is final: the amount already counted against the zone budget.
	// A REJECTED proof stays open to a fresh approve from the rejecting role.
	if proof.Status == domain.ProofStatusVerified {
		return nil, domain.ErrProofAlreadyResolved
	}

	record := &models.VerificationRecord{
		ProofID:      proof.ID,
		VerifierRole: string(actor.Role),
		VerifierID:   actor.UserID,
		Decision:     input.Decision,
		Confidence:   input.Confidence,
	}
	if err := s.verificationRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	if err := s.evaluateQuorum(ctx, proof, actor); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditVerification, "proof", proof.ID, nil,
		fmt.Sprintf("%s %s confidence %d", actor.Role, input.Decision, input.Confidence), actor)

	return record, nil
}

// evaluateQuorum recomputes the proof status from the full record set and
// applies the transition, crediting the zone budget on VERIFIED.
func (s *ProofService) evaluateQuorum(ctx context.Context, proof *models.ProofOfAid, actor Actor) error {
	records, err := s.verificationRepo.ListByProof(ctx, proof.ID)
	if err != nil {
		return err
	}

	next := quorumStatus(records)
	if next == proof.Status {
		return nil
	}

	if next == domain.ProofStatusVerified {
		return s.finalizeVerified(ctx, proof, actor)
	}

	prev := proof.Status
	proof.Status = next
	if next == domain.ProofStatusRejected {
		now := s.now()
		proof.ResolvedAt = &now
	} else {
		// A withdrawn reject reopens the proof
		proof.ResolvedAt = nil
	}
	if err := s.proofRepo.Update(ctx, proof); err != nil {
		proof.Status = prev
		return err
	}
	return nil
}

// quorumStatus derives the proof status from the verification records:
// any reject wins, both-role approval verifies, anything else stays submitted.
func quorumStatus(records []*models.VerificationRecord) string {
	var oracleApproved, governmentApproved bool
	for _, r := range records {
		if r.Decision == domain.DecisionReject {
			return domain.ProofStatusRejected
		}
		switch r.VerifierRole {
		case string(domain.RoleOracle):
			oracleApproved = true
		case string(domain.RoleGovernment):
			governmentApproved = true
		}
	}
	if oracleApproved && governmentApproved {
		return domain.ProofStatusVerified
	}
	return domain.ProofStatusSubmitted
}

// finalizeVerified flips the proof to VERIFIED and counts the transaction
// amount against the zone budget, under the zone lock. The ceiling check keeps
// budgetUsed at or below budgetAllocated at every commit boundary.
func (s *ProofService) finalizeVerified(ctx context.Context, proof *models.ProofOfAid, actor Actor) error {
	tx, err := s.redemptionRepo.GetByID(ctx, proof.TransactionID)
	if err != nil {
		return domain.ErrTransactionNotFound
	}
	voucher, err := s.voucherRepo.GetByID(ctx, tx.VoucherID)
	if err != nil {
		return domain.ErrVoucherNotFound
	}

	key := zoneLockKey(voucher.ZoneID)
	s.zoneLocks.Lock(key)
	defer s.zoneLocks.Unlock(key)

	zone, err := s.zoneRepo.GetByID(ctx, voucher.ZoneID)
	if err != nil {
		return domain.ErrZoneNotFound
	}
	if zone.BudgetUsed+tx.Amount > zone.BudgetAllocated {
		// Left SUBMITTED for human escalation; the stale scanner will surface it
		return domain.ErrZoneBudgetExceeded
	}

	zone.BudgetUsed += tx.Amount
	if err := s.zoneRepo.Update(ctx, zone); err != nil {
		return err
	}

	now := s.now()
	proof.Status = domain.ProofStatusVerified
	proof.ResolvedAt = &now
	if err := s.proofRepo.Update(ctx, proof); err != nil {
		// Undo the budget credit so zone state matches the persisted proof
		zone.BudgetUsed -= tx.Amount
		if undoErr := s.zoneRepo.Update(ctx, zone); undoErr != nil {
			log.Printf("⚠️ Zone %d budget credit not rolled back after failed proof update, reconcile manually: %v", zone.ID, undoErr)
		}
		return err
	}
	return nil
}

func proofLockKey(proofID uint) string {
	return fmt.Sprintf("proof:%d", proofID)
}

// GetByID gets a proof by ID
func (s *ProofService) GetByID(ctx context.Context, id uint) (*models.ProofOfAid, error) {
	proof, err := s.proofRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrProofNotFound
	}
	return proof, nil
}

// ListVerifications lists all verification records on a proof
func (s *ProofService) ListVerifications(ctx context.Context, proofID uint) ([]*models.VerificationRecord, error) {
	return s.verificationRepo.ListByProof(ctx, proofID)
}

// ListStale lists proofs still SUBMITTED past the configured SLA. Stale proofs
// are reported, never auto-rejected.
func (s *ProofService) ListStale(ctx context.Context) ([]*models.ProofOfAid, error) {
	cutoff := s.now().Add(-s.staleAfter)
	return s.proofRepo.ListStale(ctx, cutoff)
}
