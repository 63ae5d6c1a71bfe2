package services

import (
	"context"
	"errors"
	"testing"

	"aidledger/internal/core/domain"
)

func TestCreateZone(t *testing.T) {
	env := newTestEnv()

	zone := env.mustCreateZone(t, 800000)

	if zone.ID == 0 {
		t.Fatal("expected zone ID to be assigned")
	}
	if zone.Status != domain.ZoneStatusActive {
		t.Fatalf("expected status ACTIVE, got %s", zone.Status)
	}
	if zone.AvailableBalance() != 0 {
		t.Fatalf("new zone should have zero available balance, got %d", zone.AvailableBalance())
	}
}

func TestCreateZoneRejectsInvalidParameters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	valid := CreateZoneInput{
		Name:            "Quake Zone East",
		CenterLat:       7.01,
		CenterLng:       125.1,
		RadiusKm:        10,
		BudgetAllocated: 100000,
		Severity:        domain.SeverityCritical,
	}

	cases := []struct {
		name   string
		mutate func(in *CreateZoneInput)
	}{
		{"empty name", func(in *CreateZoneInput) { in.Name = "  " }},
		{"zero budget", func(in *CreateZoneInput) { in.BudgetAllocated = 0 }},
		{"negative budget", func(in *CreateZoneInput) { in.BudgetAllocated = -5 }},
		{"latitude out of range", func(in *CreateZoneInput) { in.CenterLat = 91 }},
		{"longitude out of range", func(in *CreateZoneInput) { in.CenterLng = -181 }},
		{"zero radius", func(in *CreateZoneInput) { in.RadiusKm = 0 }},
		{"unknown severity", func(in *CreateZoneInput) { in.Severity = "APOCALYPTIC" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			if _, err := env.zoneService.Create(ctx, &in, govActor); !errors.Is(err, domain.ErrInvalidZoneParameters) {
				t.Fatalf("expected ErrInvalidZoneParameters, got %v", err)
			}
		})
	}
}

func TestResolveZone(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	zone := env.mustCreateZone(t, 100000)

	resolved, err := env.zoneService.Resolve(ctx, zone.ID, govActor)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.ZoneStatusResolved {
		t.Fatalf("expected status RESOLVED, got %s", resolved.Status)
	}
	if resolved.ResolvedAt == nil {
		t.Fatal("expected ResolvedAt to be set")
	}

	if _, err := env.zoneService.Resolve(ctx, zone.ID, govActor); !errors.Is(err, domain.ErrZoneAlreadyResolved) {
		t.Fatalf("expected ErrZoneAlreadyResolved, got %v", err)
	}
}

func TestResolveZoneNotFound(t *testing.T) {
	env := newTestEnv()

	if _, err := env.zoneService.Resolve(context.Background(), 42, govActor); !errors.Is(err, domain.ErrZoneNotFound) {
		t.Fatalf("expected ErrZoneNotFound, got %v", err)
	}
}

func TestListZonesByStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := env.mustCreateZone(t, 100000)
	env.mustCreateZone(t, 200000)
	if _, err := env.zoneService.Resolve(ctx, a.ID, govActor); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	active, total, err := env.zoneService.List(ctx, domain.ZoneStatusActive, 0, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(active) != 1 {
		t.Fatalf("expected 1 active zone, got %d", total)
	}
	if active[0].Status != domain.ZoneStatusActive {
		t.Fatalf("unexpected status %s", active[0].Status)
	}
}
