package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chartscan/internal/analysis/patterns"
	"chartscan/internal/logging"
	"chartscan/internal/models"
	"chartscan/internal/store"
)

func newScanCmd(app *App) *cobra.Command {
	var (
		timeframe      string
		typeList       []string
		fromStr        string
		toStr          string
		swingDepth     int
		tolerance      float64
		minBars        int
		strictPivots   bool
		noForming      bool
		includeInvalid bool
		minCompletion  float64
		currentOnly    bool
		relevanceDays  int
		save           bool
	)

	cmd := &cobra.Command{
		Use:   "scan SYMBOL",
		Short: "Scan a symbol's candles for chart patterns",
		Long: `Scan loads candles for a symbol and detects chart patterns.

Examples:
  chartscan scan RELIANCE
  chartscan scan RELIANCE --timeframe 1hour --types double_top,falling_wedge
  chartscan scan INFY --current --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			output := NewOutput(cmd)
			logger := logging.WithSymbol(app.Logger, symbol)

			tf := models.Timeframe(timeframe)
			if timeframe == "" {
				tf = models.Timeframe(app.Config.Scan.Timeframe)
			}

			from, to, err := parseRange(fromStr, toStr)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			candles, err := app.Feed.Candles(cmd.Context(), symbol, tf, from, to)
			if err != nil {
				output.Error("Failed to load candles: %v", err)
				return err
			}

			opts := buildOptions(app, tf, typeList, cmd)
			if swingDepth > 0 {
				opts.SwingDepth = &swingDepth
			}
			if cmd.Flags().Changed("tolerance") {
				opts.TolerancePct = &tolerance
			}
			if minBars > 0 {
				opts.MinBarsBetweenSwings = &minBars
			}
			if cmd.Flags().Changed("strict-pivots") {
				opts.StrictPivots = &strictPivots
			}
			if noForming {
				opts.IncludeForming = false
			}
			if includeInvalid {
				opts.IncludeInvalid = true
			}
			if cmd.Flags().Changed("min-completion") {
				opts.MinCompletion = minCompletion
			}
			opts.RequireCurrentInPattern = currentOnly
			if relevanceDays > 0 {
				opts.CurrentRelevanceDays = relevanceDays
			}

			started := time.Now()
			engine := patterns.NewEngine(logger)
			result := engine.Scan(candles, opts)
			logging.LogScan(logger, symbol, string(tf), len(candles), patternCount(result), time.Since(started))

			if !result.OK {
				if output.IsJSON() {
					output.JSON(result)
				} else {
					output.Error("Scan failed (%s): %s", result.Failure.Type, result.Failure.Message)
				}
				return fmt.Errorf("%s", result.Failure.Message)
			}

			if save && app.Store != nil && result.Data != nil {
				if err := persistScan(cmd, app, symbol, tf, result.Data.Patterns, candles); err != nil {
					output.Warning("Failed to save scan results: %v", err)
				}
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			renderScan(output, symbol, tf, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "candle timeframe (1min..1month)")
	cmd.Flags().StringSliceVar(&typeList, "types", nil, "pattern types to detect (default all)")
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&swingDepth, "swing-depth", 0, "override swing detection depth")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "override price equality tolerance")
	cmd.Flags().IntVar(&minBars, "min-bars", 0, "override minimum bars between swings")
	cmd.Flags().BoolVar(&strictPivots, "strict-pivots", true, "require strict local extrema")
	cmd.Flags().BoolVar(&noForming, "no-forming", false, "exclude patterns still forming")
	cmd.Flags().BoolVar(&includeInvalid, "invalid", false, "include patterns that never broke out")
	cmd.Flags().Float64Var(&minCompletion, "min-completion", 0, "minimum completion for forming patterns")
	cmd.Flags().BoolVar(&currentOnly, "current", false, "only patterns near the most recent candle")
	cmd.Flags().IntVar(&relevanceDays, "relevance-days", 0, "recency window in days for --current")
	cmd.Flags().BoolVar(&save, "save", false, "persist detected patterns to the scan history")

	return cmd
}

func buildOptions(app *App, tf models.Timeframe, typeList []string, cmd *cobra.Command) patterns.Options {
	opts := patterns.DefaultOptions(tf)
	opts.IncludeInvalid = app.Config.Scan.IncludeInvalid
	opts.IncludeForming = app.Config.Scan.IncludeForming
	if app.Config.Scan.MinCompletion > 0 {
		opts.MinCompletion = app.Config.Scan.MinCompletion
	}
	opts.CurrentRelevanceDays = app.Config.Scan.CurrentRelevanceDays

	if len(typeList) == 0 {
		typeList = app.Config.Scan.Types
	}
	for _, label := range typeList {
		opts.Types = append(opts.Types, patterns.Type(strings.TrimSpace(label)))
	}
	return opts
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from date: %v", err)
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to date: %v", err)
		}
	}
	return from, to, nil
}

func patternCount(result patterns.Result) int {
	if result.Data == nil {
		return 0
	}
	return len(result.Data.Patterns)
}

func persistScan(cmd *cobra.Command, app *App, symbol string, tf models.Timeframe, pats []patterns.Pattern, candles []models.Candle) error {
	records := make([]store.ScanRecord, 0, len(pats))
	now := time.Now()
	for _, p := range pats {
		rec := store.ScanRecord{
			Symbol:      symbol,
			Timeframe:   string(tf),
			ScanTime:    now,
			PatternType: string(p.Type),
			Status:      string(p.Status),
			Confidence:  p.Confidence,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
		}
		if p.Breakout != nil {
			rec.BreakoutAt = p.Breakout.Time
		}
		if p.Aftermath != nil {
			rec.Outcome = string(p.Aftermath.Outcome)
		}
		records = append(records, rec)
	}
	return app.Store.SaveScan(cmd.Context(), records)
}

func renderScan(output *Output, symbol string, tf models.Timeframe, result patterns.Result) {
	data := result.Data

	output.Bold("%s (%s)", symbol, tf)
	output.Dim("%s", result.Summary)
	output.Println()

	for _, w := range data.Warnings {
		output.Warning("⚠ %s", w)
	}

	if len(data.Patterns) == 0 {
		output.Println("No patterns detected.")
		return
	}

	table := NewTable(output, "TYPE", "STATUS", "CONFIDENCE", "RANGE", "DIRECTION", "BREAKOUT", "OUTCOME")
	for _, p := range data.Patterns {
		rangeStr := fmt.Sprintf("%s → %s", FormatDate(p.StartTime), FormatDate(p.EndTime))

		breakoutStr := "-"
		if p.Breakout != nil {
			breakoutStr = FormatDate(p.Breakout.Time)
		}

		outcomeStr := "-"
		if p.Aftermath != nil {
			outcomeStr = string(p.Aftermath.Outcome)
		}
		if p.CompletionPct > 0 {
			outcomeStr = FormatCompletion(p.CompletionPct)
		}

		table.AddRow(
			string(p.Type),
			output.StatusTag(string(p.Status)),
			FormatConfidence(p.Confidence),
			rangeStr,
			output.DirectionTag(string(p.Direction)),
			breakoutStr,
			outcomeStr,
		)
	}
	table.Render()

	output.Println()
	stats := data.Statistics
	output.Dim("swings: %d  candidates: %d  duration: %.1fms",
		stats.SwingsDetected, stats.Candidates, stats.DurationMs)
}
