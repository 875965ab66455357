package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgDispatchRepository struct {
	db     DB
	logger *slog.Logger
	now    func() time.Time
}

func NewPgDispatchRepository(db DB, logger *slog.Logger) *PgDispatchRepository {
	return &PgDispatchRepository{
		db:     db,
		logger: logger.With("component", "dispatch_repository_pg"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

const dispatchColumns = `id, order_id, provider, tracking_id, status, success, message, raw_response, created_at, updated_at`

func scanDispatchRecord(row pgx.Row) (*domain.DispatchRecord, error) {
	var rec domain.DispatchRecord
	var provider string
	var raw []byte
	err := row.Scan(
		&rec.ID,
		&rec.OrderID,
		&provider,
		&rec.TrackingID,
		&rec.Status,
		&rec.Success,
		&rec.Message,
		&raw,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Provider = domain.ProviderName(provider)
	if len(raw) > 0 {
		rec.RawResponse = json.RawMessage(raw)
	}
	return &rec, nil
}

// rawParam keeps empty responses as SQL NULL rather than invalid jsonb.
func rawParam(raw json.RawMessage) any {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return []byte(raw)
}

func (r *PgDispatchRepository) Create(ctx context.Context, rec *domain.DispatchRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := r.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `INSERT INTO dispatch_records (` + dispatchColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.OrderID, rec.Provider.String(), rec.TrackingID, rec.Status, rec.Success,
		rec.Message, rawParam(rec.RawResponse), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting dispatch record", "order_id", rec.OrderID, "provider", rec.Provider, "error", err)
		return fmt.Errorf("inserting dispatch record: %w", err)
	}
	return nil
}

func (r *PgDispatchRepository) GetByTracking(ctx context.Context, provider domain.ProviderName, trackingID string) (*domain.DispatchRecord, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatch_records WHERE provider = $1 AND tracking_id = $2`
	rec, err := scanDispatchRecord(r.db.QueryRow(ctx, query, provider.String(), trackingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("getting dispatch record %s/%s: %w", provider, trackingID, err)
	}
	return rec, nil
}

func (r *PgDispatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, raw json.RawMessage) error {
	query := `UPDATE dispatch_records
	          SET status = $2, raw_response = COALESCE($3, raw_response), updated_at = $4, last_polled_at = $4
	          WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, status, rawParam(raw), r.now())
	if err != nil {
		return fmt.Errorf("updating dispatch record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *PgDispatchRepository) MarkPolled(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE dispatch_records SET last_polled_at = $2 WHERE id = $1`, id, r.now())
	if err != nil {
		return fmt.Errorf("marking dispatch record %s polled: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *PgDispatchRepository) ListActive(ctx context.Context, terminal []string, limit int) ([]*domain.DispatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + dispatchColumns + ` FROM dispatch_records
	          WHERE success = TRUE AND tracking_id IS NOT NULL AND NOT (LOWER(status) = ANY($1))
	          ORDER BY last_polled_at ASC NULLS FIRST, created_at ASC LIMIT $2`
	rows, err := r.db.Query(ctx, query, terminal, limit)
	if err != nil {
		return nil, fmt.Errorf("listing active dispatch records: %w", err)
	}
	defer rows.Close()

	var records []*domain.DispatchRecord
	for rows.Next() {
		rec, err := scanDispatchRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dispatch record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dispatch records: %w", err)
	}
	return records, nil
}
