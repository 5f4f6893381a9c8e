package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GenerateConsoleReport formats a result for terminal output
func GenerateConsoleReport(res Result) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Trials: %d\n", res.Trials))
	if res.Accuracy != nil {
		builder.WriteString(fmt.Sprintf("Accuracy: %.2f%%\n", *res.Accuracy*100))
	} else {
		builder.WriteString("Accuracy: n/a\n")
	}
	builder.WriteString(fmt.Sprintf("Brier Score: %.4f\n", res.Metrics.BrierScore))
	builder.WriteString(fmt.Sprintf("Log Loss: %.4f\n", res.Metrics.LogLoss))
	builder.WriteString(fmt.Sprintf("Longest Correct Streak: %d\n", res.Metrics.LongestCorrect))
	builder.WriteString(fmt.Sprintf("Longest Incorrect Streak: %d\n", res.Metrics.LongestIncorrect))
	builder.WriteString(fmt.Sprintf("Persistence Baseline: %.2f%%\n", res.Summary.PersistenceAccuracy*100))
	builder.WriteString(fmt.Sprintf("Majority Baseline: %.2f%%\n", res.Summary.MajorityAccuracy*100))
	builder.WriteString(fmt.Sprintf("Recommendation: %s\n", res.Summary.Recommendation))

	if len(res.ExpertAccuracy) > 0 {
		builder.WriteString("\nExpert Accuracy\n")
		names := make([]string, 0, len(res.ExpertAccuracy))
		for name := range res.ExpertAccuracy {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			builder.WriteString(fmt.Sprintf("  %-16s %.2f%%\n", name, res.ExpertAccuracy[name]*100))
		}
	}
	return builder.String()
}

// GenerateCSVExport writes the per-trial running accuracy for spreadsheets
func GenerateCSVExport(res Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(res.Curve.ToCSV()), 0o644)
}

// GenerateJSONReport writes the full result as indented JSON
func GenerateJSONReport(res Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}
