package services

import (
	"context"
	"strings"
	"time"

	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/core/domain"
)

// ZoneService handles disaster zone registry logic
type ZoneService struct {
	zoneRepo repositories.ZoneRepository
	auditor  *Auditor
}

// NewZoneService creates a new zone service
func NewZoneService(zoneRepo repositories.ZoneRepository, auditor *Auditor) *ZoneService {
	return &ZoneService{
		zoneRepo: zoneRepo,
		auditor:  auditor,
	}
}

// CreateZoneInput represents create zone input
type CreateZoneInput struct {
	Name            string  `json:"name" validate:"required"`
	CenterLat       float64 `json:"center_lat"`
	CenterLng       float64 `json:"center_lng"`
	RadiusKm        float64 `json:"radius_km" validate:"required,gt=0"`
	BudgetAllocated int64   `json:"budget_allocated" validate:"required,gt=0"`
	Severity        string  `json:"severity" validate:"required"`
}

// Create registers a new disaster zone, immediately active for donations
func (s *ZoneService) Create(ctx context.Context, input *CreateZoneInput, actor Actor) (*models.DisasterZone, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.ErrInvalidZoneParameters
	}
	if input.BudgetAllocated <= 0 {
		return nil, domain.ErrInvalidZoneParameters
	}
	boundary := domain.GeoBoundary{
		CenterLat: input.CenterLat,
		CenterLng: input.CenterLng,
		RadiusKm:  input.RadiusKm,
	}
	if !boundary.Valid() {
		return nil, domain.ErrInvalidZoneParameters
	}
	if !domain.IsValidSeverity(input.Severity) {
		return nil, domain.ErrInvalidZoneParameters
	}

	zone := &models.DisasterZone{
		Name:            strings.TrimSpace(input.Name),
		CenterLat:       input.CenterLat,
		CenterLng:       input.CenterLng,
		RadiusKm:        input.RadiusKm,
		Severity:        input.Severity,
		Status:          domain.ZoneStatusActive,
		BudgetAllocated: input.BudgetAllocated,
	}

	if err := s.zoneRepo.Create(ctx, zone); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditZoneCreate, "zone", zone.ID, &zone.BudgetAllocated, zone.Name, actor)

	return zone, nil
}

// Resolve marks a zone resolved. Historical ledger data is never deleted.
func (s *ZoneService) Resolve(ctx context.Context, zoneID uint, actor Actor) (*models.DisasterZone, error) {
	zone, err := s.zoneRepo.GetByID(ctx, zoneID)
	if err != nil {
		return nil, domain.ErrZoneNotFound
	}

	if zone.Status == domain.ZoneStatusResolved {
		return nil, domain.ErrZoneAlreadyResolved
	}

	now := time.Now()
	zone.Status = domain.ZoneStatusResolved
	zone.ResolvedAt = &now

	if err := s.zoneRepo.Update(ctx, zone); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, models.AuditZoneResolve, "zone", zone.ID, nil, zone.Name, actor)

	return zone, nil
}

// GetByID gets a zone by ID
func (s *ZoneService) GetByID(ctx context.Context, zoneID uint) (*models.DisasterZone, error) {
	zone, err := s.zoneRepo.GetByID(ctx, zoneID)
	if err != nil {
		return nil, domain.ErrZoneNotFound
	}
	return zone, nil
}

// List lists zones, optionally filtered by status
func (s *ZoneService) List(ctx context.Context, status string, offset, limit int) ([]*models.DisasterZone, int64, error) {
	return s.zoneRepo.List(ctx, status, offset, limit)
}
