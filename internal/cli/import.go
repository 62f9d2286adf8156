package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chartscan/internal/feed"
	"chartscan/internal/models"
)

func newImportCmd(app *App) *cobra.Command {
	var (
		timeframe string
		exchange  string
	)

	cmd := &cobra.Command{
		Use:   "import SYMBOL FILE",
		Short: "Import candles from a CSV file into the local store",
		Long: `Import reads a candle CSV (timestamp,open,high,low,close,volume
columns) and stores it for later scans.

Examples:
  chartscan import RELIANCE ./reliance_daily.csv
  chartscan import INFY ./infy.csv --timeframe 1hour`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			path := args[1]
			output := NewOutput(cmd)

			if app.Store == nil {
				err := fmt.Errorf("store unavailable, cannot import")
				output.Error("%v", err)
				return err
			}

			tf := models.Timeframe(timeframe)
			if !tf.Valid() {
				err := fmt.Errorf("invalid timeframe %q", timeframe)
				output.Error("%v", err)
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				output.Error("Failed to open %s: %v", path, err)
				return err
			}
			defer f.Close()

			candles, err := feed.ReadCandles(f, time.Time{}, time.Time{})
			if err != nil {
				output.Error("Failed to parse %s: %v", path, err)
				return err
			}
			if len(candles) == 0 {
				err := fmt.Errorf("no candles found in %s", path)
				output.Error("%v", err)
				return err
			}

			warnings := feed.Validate(candles)
			for _, w := range warnings {
				output.Warning("⚠ %s", w)
			}

			if err := app.Store.SaveCandles(cmd.Context(), symbol, string(tf), candles); err != nil {
				output.Error("Failed to store candles: %v", err)
				return err
			}
			if err := app.Store.AddSymbol(cmd.Context(), symbol, exchange); err != nil {
				output.Warning("Failed to register symbol: %v", err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":    symbol,
					"timeframe": string(tf),
					"imported":  len(candles),
					"warnings":  warnings,
				})
			}
			output.Success("✓ Imported %d candles for %s (%s)", len(candles), symbol, tf)
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "1day", "candle timeframe (1min..1month)")
	cmd.Flags().StringVar(&exchange, "exchange", "NSE", "exchange label stored with the symbol")

	return cmd
}
