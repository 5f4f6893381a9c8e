package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/streak-oracle/internal/database"
	"github.com/yourusername/streak-oracle/internal/models"
)

const selectPredictionColumns = `
	SELECT id, source, target_index, predicted, probability_a, confidence, actual, created_at
	FROM prediction_records`

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Create inserts a new prediction record
func (r *PostgresPredictionRepository) Create(ctx context.Context, record *models.PredictionRecord) error {
	query := `
		INSERT INTO prediction_records (id, source, target_index, predicted, probability_a, confidence, actual, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.Source, record.Index, string(record.Predicted),
		record.ProbabilityA, record.Confidence, labelArg(record.Actual), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction record: %w", err)
	}
	return nil
}

// GetByID retrieves a prediction record by ID
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRecord, error) {
	record, err := scanRecord(r.db.GetPool().QueryRow(ctx, selectPredictionColumns+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction record: %w", err)
	}
	return record, nil
}

// GetRecent retrieves the newest records of a source, newest first
func (r *PostgresPredictionRepository) GetRecent(ctx context.Context, source string, limit int) ([]*models.PredictionRecord, error) {
	query := selectPredictionColumns + `
		WHERE source = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction records: %w", err)
	}
	defer rows.Close()

	var records []*models.PredictionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction records: %w", err)
	}
	return records, nil
}

// UpdatePrediction overwrites the forecast of a record that is still open
func (r *PostgresPredictionRepository) UpdatePrediction(ctx context.Context, id uuid.UUID, predicted models.Label, probabilityA, confidence float64) error {
	tag, err := r.db.GetPool().Exec(ctx, `
		UPDATE prediction_records
		SET predicted = $2, probability_a = $3, confidence = $4
		WHERE id = $1 AND actual IS NULL
	`, id, string(predicted), probabilityA, confidence)
	if err != nil {
		return fmt.Errorf("failed to update prediction record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateActual stores the realized label of a record
func (r *PostgresPredictionRepository) UpdateActual(ctx context.Context, id uuid.UUID, actual models.Label) error {
	tag, err := r.db.GetPool().Exec(ctx,
		`UPDATE prediction_records SET actual = $2 WHERE id = $1`, id, string(actual))
	if err != nil {
		return fmt.Errorf("failed to update prediction record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetAccuracy counts settled records and hits for a source
func (r *PostgresPredictionRepository) GetAccuracy(ctx context.Context, source string) (hits, settled int, err error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE actual = predicted), COUNT(*)
		FROM prediction_records
		WHERE source = $1 AND actual IS NOT NULL
	`
	if err := r.db.GetPool().QueryRow(ctx, query, source).Scan(&hits, &settled); err != nil {
		return 0, 0, fmt.Errorf("failed to compute accuracy: %w", err)
	}
	return hits, settled, nil
}

func scanRecord(row pgx.Row) (*models.PredictionRecord, error) {
	var (
		record    models.PredictionRecord
		predicted string
		actual    *string
	)
	err := row.Scan(
		&record.ID, &record.Source, &record.Index, &predicted,
		&record.ProbabilityA, &record.Confidence, &actual, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Predicted = models.Label(predicted)
	if actual != nil {
		l := models.Label(*actual)
		record.Actual = &l
	}
	return &record, nil
}

func labelArg(l *models.Label) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}
