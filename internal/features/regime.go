package features

import "github.com/yourusername/streak-oracle/internal/models"

// Regime thresholds. The classification looks at the last RegimeWindow events only.
const (
	RegimeWindow         = 20
	RegimeMinEvents      = 10
	alternatingRateFloor = 0.8
	streakyRateCeiling   = 0.35
	streakyMaxRun        = 6
	choppyRateFloor      = 0.55
)

// DetectRegime classifies recent behaviour. It is used for diagnostics, never for scoring.
func DetectRegime(h []models.Event) models.Regime {
	window := Tail(h, RegimeWindow)
	if len(window) < RegimeMinEvents {
		return models.RegimeUnknown
	}
	rate := AlternationRate(window, len(window))
	runs := Runs(window)
	switch {
	case rate >= alternatingRateFloor:
		return models.RegimeAlternating
	case rate <= streakyRateCeiling || runs.Max >= streakyMaxRun:
		return models.RegimeStreaky
	case rate >= choppyRateFloor:
		return models.RegimeChoppy
	default:
		return models.RegimeMixed
	}
}
