package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/assetscan/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository wires an AuditRepository backed by pgxpool.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO audit_records (run_id, pc_ip_address, start_time, end_time, duration_seconds)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.RunID,
		record.Address,
		record.StartedAt,
		record.EndedAt,
		record.Duration.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, run_id, pc_ip_address, start_time, end_time, duration_seconds
		 FROM audit_records
		 ORDER BY id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		var (
			record  domain.AuditRecord
			seconds float64
		)
		if scanErr := rows.Scan(&record.ID, &record.RunID, &record.Address, &record.StartedAt, &record.EndedAt, &seconds); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", scanErr)
		}
		record.Duration = secondsToDuration(seconds)
		records = append(records, record)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", rowsErr)
	}
	return records, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
