package mcp

import (
	"context"

	"crypto-trading-desk/internal/domain"
)

// MarketData exposes spot-market and aggregator reads: the candle
// fallback chain, venue-routed books, tapes, and prices, plus the
// aggregator-wide metadata feeds.
type MarketData interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
	OrderBook(ctx context.Context, exchange, symbol string, depth int) (*domain.OrderBook, error)
	Trades(ctx context.Context, exchange, symbol string, limit int) ([]domain.Trade, error)
	Price(ctx context.Context, symbol string) (float64, error)
	GlobalStats(ctx context.Context) (*domain.GlobalStats, error)
	CoinDetails(ctx context.Context, coinID string) (*domain.CoinDetails, error)
	FearGreed(ctx context.Context, limit int) ([]domain.FearGreedPoint, error)
	Sources() []string
}

// DerivativesData exposes perpetual-futures reads.
type DerivativesData interface {
	FundingRate(ctx context.Context, exchange, symbol string) (*domain.FundingRate, error)
	FundingRates(ctx context.Context, symbol string, exchanges []string) map[string]*domain.FundingRate
	FundingHistory(ctx context.Context, symbol string, limit int) ([]float64, error)
	OpenInterest(ctx context.Context, exchange, symbol string) (*domain.OpenInterest, error)
	LongShortRatio(ctx context.Context, exchange, symbol string) (*domain.LongShortRatio, error)
	TakerRatio(ctx context.Context, exchange, symbol string) (*domain.TakerRatio, error)
}
