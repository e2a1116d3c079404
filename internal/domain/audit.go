package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord logs one program invocation. Records are never updated.
type AuditRecord struct {
	ID        int64         `json:"id"`
	RunID     uuid.UUID     `json:"run_id"`
	Address   string        `json:"address"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Duration  time.Duration `json:"duration"`
}

// NewAuditRecord computes the duration as end - start.
func NewAuditRecord(runID uuid.UUID, address string, start, end time.Time) AuditRecord {
	return AuditRecord{
		RunID:     runID,
		Address:   address,
		StartedAt: start,
		EndedAt:   end,
		Duration:  end.Sub(start),
	}
}
