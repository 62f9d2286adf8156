package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chartscan/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved scan results",
		Long:  "History lists previously saved scan results and aggregate pattern statistics.",
	}

	cmd.AddCommand(newHistoryListCmd(app))
	cmd.AddCommand(newHistoryStatsCmd(app))
	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	var (
		symbol      string
		patternType string
		status      string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved scan results",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				err := fmt.Errorf("store unavailable")
				output.Error("%v", err)
				return err
			}

			records, err := app.Store.GetScans(cmd.Context(), store.ScanFilter{
				Symbol:      strings.ToUpper(symbol),
				PatternType: patternType,
				Status:      status,
				Limit:       limit,
			})
			if err != nil {
				output.Error("Failed to query scans: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}

			if len(records) == 0 {
				output.Println("No saved scan results.")
				return nil
			}

			table := NewTable(output, "SCANNED", "SYMBOL", "TF", "TYPE", "STATUS", "CONF", "OUTCOME")
			for _, r := range records {
				outcome := r.Outcome
				if outcome == "" {
					outcome = "-"
				}
				table.AddRow(
					FormatDateTime(r.ScanTime),
					r.Symbol,
					r.Timeframe,
					r.PatternType,
					output.StatusTag(r.Status),
					FormatConfidence(r.Confidence),
					outcome,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&patternType, "type", "", "filter by pattern type")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")

	return cmd
}

func newHistoryStatsCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate saved outcomes per pattern type",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				err := fmt.Errorf("store unavailable")
				output.Error("%v", err)
				return err
			}

			var dr store.DateRange
			if days > 0 {
				dr.Start = time.Now().AddDate(0, 0, -days)
			}

			stats, err := app.Store.GetPatternStats(cmd.Context(), dr)
			if err != nil {
				output.Error("Failed to query stats: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(stats)
			}

			if len(stats) == 0 {
				output.Println("No saved scan results.")
				return nil
			}

			table := NewTable(output, "TYPE", "TOTAL", "COMPLETED", "TARGET", "FAILED", "AVG CONF")
			for _, s := range stats {
				table.AddRow(
					s.PatternType,
					fmt.Sprintf("%d", s.Total),
					fmt.Sprintf("%d", s.Completed),
					fmt.Sprintf("%d", s.TargetReached),
					fmt.Sprintf("%d", s.Failed),
					FormatConfidence(s.AvgConfidence),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "only scans from the last N days")

	return cmd
}
