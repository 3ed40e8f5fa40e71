package planner

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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

var _ Repository = (*PostgresPlannerRepository)(nil)

// Repository stores finished itineraries. The whole document is persisted as
// one JSONB value; day-keyed hotel maps are serialized with string keys, which
// encoding/json guarantees for integer-keyed Go maps, so the stored form is
// canonical and round-trips losslessly.
type Repository interface {
	SaveItinerary(ctx context.Context, doc *types.ItineraryDocument) error
	GetItinerary(ctx context.Context, id uuid.UUID) (*types.ItineraryDocument, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]types.ItineraryDocument, error)
	Delete(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
}

// DB is the slice of pgxpool.Pool the repository needs. Satisfied by both the
// real pool and pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresPlannerRepository struct {
	logger *slog.Logger
	pgpool DB
}

func NewPostgresPlannerRepository(pool DB, logger *slog.Logger) *PostgresPlannerRepository {
	return &PostgresPlannerRepository{
		logger: logger,
		pgpool: pool,
	}
}

func observeQuery(ctx context.Context, query string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("query", query))
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (r *PostgresPlannerRepository) SaveItinerary(ctx context.Context, doc *types.ItineraryDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal itinerary document: %w", err)
	}

	query := `
        INSERT INTO itineraries (
            id, user_id, origin_city, destination_city, document, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)
    `
	start := time.Now()
	_, err = r.pgpool.Exec(ctx, query,
		doc.ID, doc.UserID, doc.OriginCity, doc.DestinationCity, payload, doc.CreatedAt,
	)
	observeQuery(ctx, "insert_itinerary", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert itinerary: %w", err)
	}
	return nil
}

func (r *PostgresPlannerRepository) GetItinerary(ctx context.Context, id uuid.UUID) (*types.ItineraryDocument, error) {
	query := `SELECT document FROM itineraries WHERE id = $1`

	var payload []byte
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, query, id).Scan(&payload)
	observeQuery(ctx, "get_itinerary", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: itinerary %s", types.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch itinerary: %w", err)
	}

	var doc types.ItineraryDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode itinerary document: %w", err)
	}
	return &doc, nil
}

func (r *PostgresPlannerRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]types.ItineraryDocument, error) {
	query := `SELECT document FROM itineraries WHERE user_id = $1 ORDER BY created_at DESC`

	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, userID)
	observeQuery(ctx, "list_itineraries", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	var docs []types.ItineraryDocument
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan itinerary row: %w", err)
		}
		var doc types.ItineraryDocument
		if err := json.Unmarshal(payload, &doc); err != nil {
			r.logger.WarnContext(ctx, "Skipping undecodable itinerary document", slog.Any("error", err))
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating itinerary rows: %w", err)
	}
	return docs, nil
}

// Delete removes an itinerary. When userID is set the row must belong to that
// user; anonymous deletion only touches anonymous itineraries.
func (r *PostgresPlannerRepository) Delete(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	query := `DELETE FROM itineraries WHERE id = $1 AND user_id IS NOT DISTINCT FROM $2`

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, query, id, userID)
	observeQuery(ctx, "delete_itinerary", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: itinerary %s", types.ErrNotFound, id)
	}
	return nil
}
