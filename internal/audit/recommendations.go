package audit

import (
	"fmt"

	"gl-bank-reconciler/internal/matcher"
)

// buildRecommendations derives reviewer guidance from the finished report.
// Each rule fires independently; when none fire the run needs no follow-up.
func buildRecommendations(report *Report) []string {
	var recommendations []string

	if count := report.StrategyPerformance[matcher.StrategyExactAmount]; count > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Exact amount matching resolved %d transactions; keep it as the primary strategy", count))
	}

	if analysis, ok := report.StrategyAnalysis[matcher.StrategyDescriptionSimilarity]; !ok || analysis.Count == 0 {
		recommendations = append(recommendations,
			"Description similarity found no matches; consider lowering the similarity threshold or reviewing description quality")
	}

	if gl := report.UnmatchedGLAnalysis; gl != nil && gl.LargeAmountCount > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("%d unmatched GL transactions exceed $1,000; investigate these manually before closing the period", gl.LargeAmountCount))
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations,
			"No follow-up required; reconciliation completed cleanly")
	}

	return recommendations
}
