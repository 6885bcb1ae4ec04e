package venue

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"crypto-trading-desk/internal/domain"
)

// Desk routes requests to the venue clients: candles run through the
// fallback chain, venue-restricted metrics go to the venue that serves
// them.
type Desk struct {
	binance *Binance
	bybit   *Bybit
	okx     *OKX
	gecko   *CoinGecko
	alt     *AlternativeMe
	fetcher *FallbackFetcher
}

func NewDesk(tracer trace.Tracer, logger *slog.Logger) *Desk {
	b := NewBinance()
	by := NewBybit()
	cg := NewCoinGecko(tracer)
	return &Desk{
		binance: b,
		bybit:   by,
		okx:     NewOKX(),
		gecko:   cg,
		alt:     NewAlternativeMe(),
		fetcher: NewFallbackFetcher(logger, b, by, cg.OHLCSource(), cg.ChartSource()),
	}
}

func (d *Desk) Sources() []string { return d.fetcher.Sources() }

func (d *Desk) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	return d.fetcher.Candles(ctx, symbol, interval, limit)
}

func (d *Desk) OrderBook(ctx context.Context, exchange, symbol string, depth int) (*domain.OrderBook, error) {
	switch exchange {
	case "binance":
		return d.binance.OrderBook(ctx, symbol, depth)
	case "bybit":
		return d.bybit.OrderBook(ctx, symbol, depth)
	default:
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "order books are served from binance and bybit only"}
	}
}

func (d *Desk) Trades(ctx context.Context, exchange, symbol string, limit int) ([]domain.Trade, error) {
	if exchange != "binance" {
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "recent trades are served from binance only"}
	}
	return d.binance.Trades(ctx, symbol, limit)
}

// Price prefers the binance ticker and falls back to the last close from
// the candle chain.
func (d *Desk) Price(ctx context.Context, symbol string) (float64, error) {
	if t, err := d.binance.Ticker(ctx, symbol); err == nil && t.Last > 0 {
		return t.Last, nil
	}
	candles, err := d.fetcher.Candles(ctx, symbol, "1h", 24)
	if err != nil {
		return 0, err
	}
	return candles[len(candles)-1].Close, nil
}

// GlobalStats, CoinDetails, and FearGreed are aggregator reads; no venue
// routing applies.
func (d *Desk) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	return d.gecko.GlobalStats(ctx)
}

func (d *Desk) CoinDetails(ctx context.Context, coinID string) (*domain.CoinDetails, error) {
	return d.gecko.CoinDetails(ctx, coinID)
}

func (d *Desk) FearGreed(ctx context.Context, limit int) ([]domain.FearGreedPoint, error) {
	return d.alt.FearGreed(ctx, limit)
}

func (d *Desk) FundingRate(ctx context.Context, exchange, symbol string) (*domain.FundingRate, error) {
	switch exchange {
	case "binance":
		return d.binance.FundingRate(ctx, symbol)
	case "bybit":
		return d.bybit.FundingRate(ctx, symbol)
	case "okx":
		return d.okx.FundingRate(ctx, symbol)
	default:
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "funding rates are served from binance, bybit, and okx"}
	}
}

// FundingRates gathers rates from every requested venue, skipping venues
// that fail. Cross-venue comparisons tolerate partial results.
func (d *Desk) FundingRates(ctx context.Context, symbol string, exchanges []string) map[string]*domain.FundingRate {
	out := make(map[string]*domain.FundingRate, len(exchanges))
	for _, ex := range exchanges {
		fr, err := d.FundingRate(ctx, ex, symbol)
		if err != nil {
			continue
		}
		out[ex] = fr
	}
	return out
}

func (d *Desk) FundingHistory(ctx context.Context, symbol string, limit int) ([]float64, error) {
	return d.binance.FundingHistory(ctx, symbol, limit)
}

func (d *Desk) OpenInterest(ctx context.Context, exchange, symbol string) (*domain.OpenInterest, error) {
	if exchange != "binance" {
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "open interest is served from binance only"}
	}
	return d.binance.OpenInterest(ctx, symbol)
}

func (d *Desk) LongShortRatio(ctx context.Context, exchange, symbol string) (*domain.LongShortRatio, error) {
	if exchange != "binance" {
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "long/short ratios are served from binance only"}
	}
	return d.binance.LongShortRatio(ctx, symbol)
}

func (d *Desk) TakerRatio(ctx context.Context, exchange, symbol string) (*domain.TakerRatio, error) {
	if exchange != "binance" {
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "taker flow is served from binance only"}
	}
	return d.binance.TakerRatio(ctx, symbol)
}
