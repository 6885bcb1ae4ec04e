package venue

import (
	"context"
	"fmt"
	"log/slog"

	"crypto-trading-desk/internal/domain"
)

// minViableRows is the shortest series a source may return before the
// fetcher moves on to the next one.
const minViableRows = 10

// CandleSource is one upstream capable of serving OHLCV series.
type CandleSource interface {
	Name() string
	Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
}

// FallbackFetcher tries sources in fixed priority order and returns the
// first sufficiently long series.
type FallbackFetcher struct {
	sources []CandleSource
	logger  *slog.Logger
}

func NewFallbackFetcher(logger *slog.Logger, sources ...CandleSource) *FallbackFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackFetcher{sources: sources, logger: logger}
}

func (f *FallbackFetcher) Sources() []string {
	out := make([]string, 0, len(f.sources))
	for _, s := range f.sources {
		out = append(out, s.Name())
	}
	return out
}

func (f *FallbackFetcher) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	for _, src := range f.sources {
		candles, err := src.Candles(ctx, symbol, interval, limit)
		if err != nil {
			f.logger.Warn("candle source failed, trying next",
				"source", src.Name(), "symbol", symbol, "interval", interval, "error", err)
			continue
		}
		if len(candles) <= minViableRows {
			f.logger.Warn("candle source returned too few rows, trying next",
				"source", src.Name(), "symbol", symbol, "rows", len(candles))
			continue
		}
		return candles, nil
	}
	return nil, &domain.DataUnavailableError{
		Symbol:  symbol,
		Message: fmt.Sprintf("no source produced more than %d %s candles", minViableRows, interval),
	}
}
