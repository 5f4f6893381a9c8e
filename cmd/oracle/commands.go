package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/streak-oracle/internal/backtest"
	"github.com/yourusername/streak-oracle/internal/expert"
)

var (
	window   int
	csvPath  string
	jsonPath string
	asJSON   bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast the next event of a source",
	RunE: func(cmd *cobra.Command, args []string) error {
		sequences, err := newSequenceService()
		if err != nil {
			return err
		}
		predictor, err := newPredictionService()
		if err != nil {
			return err
		}
		name, events, err := loadEvents(cmd.Context(), sequences)
		if err != nil {
			return err
		}

		f, err := predictor.Predict(cmd.Context(), name, events)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(f)
		}

		fmt.Printf("Source:      %s (%d events)\n", f.Source, f.Diagnostics.Events)
		fmt.Printf("Next index:  %d\n", f.NextIndex)
		fmt.Printf("Label:       %s\n", f.Label)
		fmt.Printf("P(A):        %.4f\n", f.ProbabilityA)
		fmt.Printf("Confidence:  %.1f%% (risk %s)\n", f.Confidence, f.Diagnostics.Risk)
		fmt.Printf("Regime:      %s\n", f.Regime)
		if f.Accuracy != nil {
			fmt.Printf("Backtest:    %.2f%% over %d trials\n", *f.Accuracy*100, f.Trials)
		}
		fmt.Printf("Weights:     %s\n", f.Diagnostics.WeightSource)
		if f.Diagnostics.InsufficientData {
			fmt.Println("Note:        history is short, frequency fallback used")
		}
		return nil
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Walk-forward backtest of the tuned blend",
	RunE: func(cmd *cobra.Command, args []string) error {
		sequences, err := newSequenceService()
		if err != nil {
			return err
		}
		predictor, err := newPredictionService()
		if err != nil {
			return err
		}
		name, events, err := loadEvents(cmd.Context(), sequences)
		if err != nil {
			return err
		}

		res, err := predictor.Backtest(cmd.Context(), name, events, window)
		if err != nil {
			return err
		}
		if csvPath != "" {
			if err := backtest.GenerateCSVExport(res, csvPath); err != nil {
				return fmt.Errorf("failed to write CSV export: %w", err)
			}
		}
		if jsonPath != "" {
			if err := backtest.GenerateJSONReport(res, jsonPath); err != nil {
				return fmt.Errorf("failed to write JSON report: %w", err)
			}
		}
		if asJSON {
			return printJSON(res)
		}
		fmt.Print(backtest.GenerateConsoleReport(res))
		return nil
	},
}

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Run the weight grid search and print the winning blend",
	RunE: func(cmd *cobra.Command, args []string) error {
		sequences, err := newSequenceService()
		if err != nil {
			return err
		}
		predictor, err := newPredictionService()
		if err != nil {
			return err
		}
		name, events, err := loadEvents(cmd.Context(), sequences)
		if err != nil {
			return err
		}

		report, err := predictor.Tune(cmd.Context(), name, events)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(report)
		}

		if report.Defaulted {
			fmt.Printf("%d events is too short to tune, default weights kept\n", len(events))
		} else {
			fmt.Printf("Candidates: %d, trials: %d, score: %.4f\n", report.Candidates, report.Trials, report.Score)
		}
		for id := expert.ID(0); int(id) < expert.Count; id++ {
			fmt.Printf("  %-16s %.3f\n", id.Name(), report.Weights.Get(id))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{predictCmd, backtestCmd, tuneCmd} {
		c.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	}
	backtestCmd.Flags().IntVarP(&window, "window", "w", 0, "Number of newest events to backtest (default: configured report window)")
	backtestCmd.Flags().StringVar(&csvPath, "csv", "", "Write the running accuracy curve to this CSV file")
	backtestCmd.Flags().StringVar(&jsonPath, "report", "", "Write the full result to this JSON file")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
