package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionRecord is one issued forecast, kept so the realized outcome can be attached later
type PredictionRecord struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Source       string    `db:"source" json:"source" validate:"required"`
	Index        int64     `db:"target_index" json:"index"`
	Predicted    Label     `db:"predicted" json:"predicted" validate:"required,oneof=A B"`
	ProbabilityA float64   `db:"probability_a" json:"probability_a" validate:"gte=0,lte=1"`
	Confidence   float64   `db:"confidence" json:"confidence" validate:"gte=0,lte=100"`
	Actual       *Label    `db:"actual" json:"actual"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewPredictionRecord builds an open record for the event that follows lastIndex
func NewPredictionRecord(source string, lastIndex int64, predicted Label, probabilityA, confidence float64) *PredictionRecord {
	return &PredictionRecord{
		ID:           uuid.New(),
		Source:       source,
		Index:        lastIndex + 1,
		Predicted:    predicted,
		ProbabilityA: probabilityA,
		Confidence:   confidence,
		CreatedAt:    time.Now().UTC(),
	}
}

// Settled reports whether the realized label has been recorded
func (p *PredictionRecord) Settled() bool {
	return p.Actual != nil
}

// Hit reports whether a settled prediction was correct
func (p *PredictionRecord) Hit() bool {
	return p.Actual != nil && *p.Actual == p.Predicted
}
