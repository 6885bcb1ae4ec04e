package mcp

import (
	"context"
	"math"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"crypto-trading-desk/internal/domain"
	"crypto-trading-desk/internal/validate"
)

const (
	defaultFearGreedLimit = 30
	maxFearGreedLimit     = 90
)

type globalStatsInput struct{}

type fearGreedInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of daily readings, default 30, max 90"`
}

type coinDetailsInput struct {
	CoinID string `json:"coin_id" jsonschema:"aggregator coin id (e.g. bitcoin, ethereum)"`
}

type globalStatsOutput struct {
	toolResult
	*domain.GlobalStats
	OthersDominancePct float64 `json:"others_dominance_pct,omitempty"`
}

type fearGreedOutput struct {
	toolResult
	Value          int                     `json:"value,omitempty"`
	Classification string                  `json:"classification,omitempty"`
	Average7d      float64                 `json:"average_7d,omitempty"`
	Readings       []domain.FearGreedPoint `json:"readings,omitempty"`
}

type coinDetailsOutput struct {
	toolResult
	*domain.CoinDetails
}

// Aggregator metadata tools: market-wide snapshots served from the
// aggregator and the sentiment index, with no venue routing involved.
func registerMarketTools(server *mcp.Server, market MarketData) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_global_market_stats",
		Description: "Total crypto market cap, 24h volume, and BTC/ETH dominance",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ globalStatsInput) (*mcp.CallToolResult, globalStatsOutput, error) {
		stats, err := market.GlobalStats(ctx)
		if err != nil {
			return nil, globalStatsOutput{toolResult: failResult(err)}, nil
		}
		others := 100 - stats.BTCDominancePct - stats.ETHDominancePct
		return nil, globalStatsOutput{
			toolResult:         okResult(),
			GlobalStats:        stats,
			OthersDominancePct: math.Round(others*100) / 100,
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_fear_greed_index",
		Description: "Current fear-and-greed sentiment reading with a 7-day average",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fearGreedInput) (*mcp.CallToolResult, fearGreedOutput, error) {
		points, err := market.FearGreed(ctx, clampLimit(in.Limit, defaultFearGreedLimit, maxFearGreedLimit))
		if err != nil {
			return nil, fearGreedOutput{toolResult: failResult(err)}, nil
		}
		window := points
		if len(window) > 7 {
			window = window[:7]
		}
		var sum float64
		for _, p := range window {
			sum += float64(p.Value)
		}
		avg := math.Round(sum/float64(len(window))*10) / 10
		return nil, fearGreedOutput{
			toolResult:     okResult(),
			Value:          points[0].Value,
			Classification: points[0].Classification,
			Average7d:      avg,
			Readings:       window,
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_coin_details",
		Description: "Aggregator metadata card for one coin: price, cap, volume, and rank",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in coinDetailsInput) (*mcp.CallToolResult, coinDetailsOutput, error) {
		coinID, err := validate.CoinID(in.CoinID)
		if err != nil {
			return nil, coinDetailsOutput{toolResult: failResult(err)}, nil
		}
		details, err := market.CoinDetails(ctx, coinID)
		if err != nil {
			return nil, coinDetailsOutput{toolResult: failResult(err)}, nil
		}
		return nil, coinDetailsOutput{toolResult: okResult(), CoinDetails: details}, nil
	})
}
