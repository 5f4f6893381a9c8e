package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/streak-oracle/internal/models"
)

// PredictionRepository defines the interface for prediction ledger access
type PredictionRepository interface {
	Create(ctx context.Context, record *models.PredictionRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRecord, error)
	GetRecent(ctx context.Context, source string, limit int) ([]*models.PredictionRecord, error)
	UpdatePrediction(ctx context.Context, id uuid.UUID, predicted models.Label, probabilityA, confidence float64) error
	UpdateActual(ctx context.Context, id uuid.UUID, actual models.Label) error
	GetAccuracy(ctx context.Context, source string) (hits, settled int, err error)
}
