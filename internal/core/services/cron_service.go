package services

import (
	"context"
	"log"
	"time"

	"aidledger/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CronService runs the stale-proof SLA scanner on a schedule. Proofs stuck in
// SUBMITTED past the SLA are surfaced for human escalation and flagged so each
// one is reported once. Nothing is ever auto-rejected.
type CronService struct {
	proofRepo  repositories.ProofRepository
	staleAfter time.Duration
	schedule   string
	cron       *cron.Cron
}

// NewCronService creates a new cron service
func NewCronService(proofRepo repositories.ProofRepository, staleAfter time.Duration, schedule string) *CronService {
	return &CronService{
		proofRepo:  proofRepo,
		staleAfter: staleAfter,
		schedule:   schedule,
		cron:       cron.New(),
	}
}

// Start schedules the scanner and launches the cron runner
func (s *CronService) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.ScanStaleProofs); err != nil {
		log.Printf("❌ Failed to schedule stale proof scan: %v", err)
		return
	}
	s.cron.Start()
	log.Printf("🚀 CronService started [stale proof scan: %s, SLA: %s]", s.schedule, s.staleAfter)
}

// Stop stops the cron runner, waiting for a running scan to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 CronService stopped")
}

// ScanStaleProofs reports proofs past the verification SLA
func (s *CronService) ScanStaleProofs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.staleAfter)
	proofs, err := s.proofRepo.ListStale(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Stale proof scan failed: %v", err)
		return
	}

	var newIDs []uint
	for _, p := range proofs {
		if !p.StaleReported {
			newIDs = append(newIDs, p.ID)
		}
	}
	if len(newIDs) == 0 {
		return
	}

	log.Printf("⚠️ %d proof(s) past verification SLA, pending escalation: %v", len(newIDs), newIDs)
	if err := s.proofRepo.MarkStaleReported(ctx, newIDs); err != nil {
		log.Printf("❌ Failed to flag stale proofs: %v", err)
	}
}
