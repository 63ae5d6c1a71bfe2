package services

import (
	"context"
	"log"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/core/domain"
)

// Actor identifies the authenticated caller of a mutating operation.
// Role is the claim every operation is authorized against; IP is kept for the trail.
type Actor struct {
	UserID uint
	Role   domain.Role
	IP     string
}

// Auditor appends audit trail entries. Writes are best-effort: a failed audit
// insert is logged but never fails the business operation it describes.
type Auditor struct {
	auditRepo repositories.AuditLogRepository
}

// NewAuditor creates a new auditor
func NewAuditor(auditRepo repositories.AuditLogRepository) *Auditor {
	return &Auditor{auditRepo: auditRepo}
}

// Record appends one audit entry
func (a *Auditor) Record(ctx context.Context, action, entityType string, entityID uint, amount *int64, description string, actor Actor) {
	if a == nil || a.auditRepo == nil {
		return
	}

	entry := &models.AuditLog{
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Amount:      amount,
		Description: description,
		PerformedBy: actor.UserID,
		ActorRole:   string(actor.Role),
		IPAddress:   actor.IP,
	}

	if err := a.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("⚠️ Audit write failed [%s %s/%d]: %v", action, entityType, entityID, err)
	}
}
