package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chartscan/internal/analysis/patterns"
	"chartscan/internal/logging"
	"chartscan/internal/models"
)

// backtestSummary aggregates outcomes per pattern type over one run.
type backtestSummary struct {
	Type          patterns.Type `json:"type"`
	Total         int           `json:"total"`
	TargetReached int           `json:"target_reached"`
	Partial       int           `json:"partial_success"`
	Failed        int           `json:"failed"`
	Unresolved    int           `json:"unresolved"`
	NoBreakout    int           `json:"no_breakout"`
	AvgConfidence float64       `json:"avg_confidence"`
	AvgMovePct    float64       `json:"avg_move_pct"`
}

func newBacktestCmd(app *App) *cobra.Command {
	var (
		timeframe string
		typeList  []string
		fromStr   string
		toStr     string
	)

	cmd := &cobra.Command{
		Use:   "backtest SYMBOL",
		Short: "Evaluate how detected patterns played out historically",
		Long: `Backtest scans a symbol's full history, including patterns that
never broke out, and reports per-type outcome statistics: how often the
measured-move target was reached, partial successes and failures.

Examples:
  chartscan backtest RELIANCE
  chartscan backtest INFY --timeframe 1week --types head_and_shoulders`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			output := NewOutput(cmd)
			logger := logging.WithOperation(logging.WithSymbol(app.Logger, symbol), "backtest")

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

			opts := patterns.DefaultOptions(tf)
			opts.IncludeForming = false
			opts.IncludeInvalid = true
			for _, label := range typeList {
				opts.Types = append(opts.Types, patterns.Type(strings.TrimSpace(label)))
			}

			engine := patterns.NewEngine(logger)
			result := engine.Scan(candles, opts)
			if !result.OK {
				output.Error("Backtest failed (%s): %s", result.Failure.Type, result.Failure.Message)
				return fmt.Errorf("%s", result.Failure.Message)
			}

			summaries := summarize(result.Data.Patterns)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":    symbol,
					"timeframe": string(tf),
					"candles":   len(candles),
					"patterns":  len(result.Data.Patterns),
					"summary":   summaries,
				})
			}
			renderBacktest(output, symbol, tf, len(candles), summaries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "candle timeframe (1min..1month)")
	cmd.Flags().StringSliceVar(&typeList, "types", nil, "pattern types to evaluate (default all)")
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD)")

	return cmd
}

func summarize(pats []patterns.Pattern) []backtestSummary {
	byType := make(map[patterns.Type]*backtestSummary)
	order := []patterns.Type{}

	for _, p := range pats {
		s, ok := byType[p.Type]
		if !ok {
			s = &backtestSummary{Type: p.Type}
			byType[p.Type] = s
			order = append(order, p.Type)
		}
		s.Total++
		s.AvgConfidence += p.Confidence

		if p.Aftermath == nil {
			continue
		}
		switch p.Aftermath.Outcome {
		case patterns.OutcomeTargetReached:
			s.TargetReached++
		case patterns.OutcomePartialSuccess:
			s.Partial++
		case patterns.OutcomeFailure:
			s.Failed++
		case patterns.OutcomeUnresolved:
			s.Unresolved++
		case patterns.OutcomeNoBreakout:
			s.NoBreakout++
		}
		s.AvgMovePct += p.Aftermath.PriceMove
	}

	out := make([]backtestSummary, 0, len(order))
	for _, t := range order {
		s := byType[t]
		if s.Total > 0 {
			s.AvgConfidence /= float64(s.Total)
			s.AvgMovePct /= float64(s.Total)
		}
		out = append(out, *s)
	}
	return out
}

func renderBacktest(output *Output, symbol string, tf models.Timeframe, candles int, summaries []backtestSummary) {
	output.Bold("Backtest: %s (%s)", symbol, tf)
	output.Dim("%d candles examined", candles)
	output.Println()

	if len(summaries) == 0 {
		output.Println("No patterns found in the selected history.")
		return
	}

	table := NewTable(output, "TYPE", "TOTAL", "TARGET", "PARTIAL", "FAILED", "UNRESOLVED", "NO BREAKOUT", "AVG CONF", "AVG MOVE")
	for _, s := range summaries {
		table.AddRow(
			string(s.Type),
			fmt.Sprintf("%d", s.Total),
			fmt.Sprintf("%d", s.TargetReached),
			fmt.Sprintf("%d", s.Partial),
			fmt.Sprintf("%d", s.Failed),
			fmt.Sprintf("%d", s.Unresolved),
			fmt.Sprintf("%d", s.NoBreakout),
			FormatConfidence(s.AvgConfidence),
			FormatPercent(s.AvgMovePct),
		)
	}
	table.Render()
}
