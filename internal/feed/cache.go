package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chartscan/internal/models"
	"chartscan/internal/store"
)

// CachedProvider serves candles from the store when fresh enough, falling
// back to the underlying provider and writing through on a miss.
type CachedProvider struct {
	source Provider
	store  store.DataStore
	maxAge time.Duration
	log    zerolog.Logger
}

func NewCachedProvider(source Provider, st store.DataStore, maxAge time.Duration, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{source: source, store: st, maxAge: maxAge, log: log}
}

func (p *CachedProvider) Candles(ctx context.Context, symbol string, timeframe models.Timeframe, from, to time.Time) ([]models.Candle, error) {
	fresh, err := p.store.GetCandlesFreshness(ctx, symbol, string(timeframe))
	if err == nil && !fresh.IsZero() && time.Since(fresh) <= p.maxAge {
		cached, err := p.store.GetCandles(ctx, symbol, string(timeframe), from, to)
		if err == nil && len(cached) > 0 {
			p.log.Debug().Str("symbol", symbol).Int("candles", len(cached)).Msg("candle cache hit")
			return cached, nil
		}
	}

	candles, err := p.source.Candles(ctx, symbol, timeframe, from, to)
	if err != nil {
		return nil, err
	}

	if err := p.store.SaveCandles(ctx, symbol, string(timeframe), candles); err != nil {
		// Cache write failure is not fatal for a scan.
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to cache candles")
	}
	return candles, nil
}
