package backtest

// Recommendation values
const (
	RecommendationInsufficient = "insufficient_trials"
	RecommendationStrong       = "strong_edge"
	RecommendationMarginal     = "marginal_edge"
	RecommendationNone         = "no_edge"
)

const (
	minTrialsForRecommendation = 30
	strongEdge                 = 0.05
)

// Summary compares a run with naive baselines.
type Summary struct {
	PersistenceAccuracy float64 `json:"persistence_accuracy"`
	MajorityAccuracy    float64 `json:"majority_accuracy"`
	Edge                float64 `json:"edge"`
	Recommendation      string  `json:"recommendation"`
}

// Summarize derives baselines from the run. persistenceHits counts trials where the newest
// label repeated; the majority baseline always predicts the label that was more frequent in
// hindsight.
func Summarize(res Result, persistenceHits int) Summary {
	if res.Trials == 0 || res.Accuracy == nil {
		return Summary{Recommendation: RecommendationInsufficient}
	}
	n := float64(res.Trials)
	majority := max(res.Metrics.ActualA, res.Trials-res.Metrics.ActualA)
	s := Summary{
		PersistenceAccuracy: float64(persistenceHits) / n,
		MajorityAccuracy:    float64(majority) / n,
	}
	s.Edge = *res.Accuracy - max(s.PersistenceAccuracy, s.MajorityAccuracy)
	s.Recommendation = GenerateRecommendation(res.Trials, s.Edge)
	return s
}

// GenerateRecommendation grades an edge over the best baseline.
func GenerateRecommendation(trials int, edge float64) string {
	switch {
	case trials < minTrialsForRecommendation:
		return RecommendationInsufficient
	case edge >= strongEdge:
		return RecommendationStrong
	case edge > 0:
		return RecommendationMarginal
	default:
		return RecommendationNone
	}
}
