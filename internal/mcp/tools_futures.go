package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"crypto-trading-desk/internal/domain"
	"crypto-trading-desk/internal/futures"
	"crypto-trading-desk/internal/validate"
)

// defaultMinSpreadPct flags a funding arbitrage when the annualized
// cross-venue spread clears this bar.
const defaultMinSpreadPct = 10.0

func registerFuturesTools(server *mcp.Server, deriv DerivativesData, market MarketData, th futures.Thresholds) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_funding_rate",
		Description: "Current perpetual funding rate with annualized rate and market bias",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fundingInput) (*mcp.CallToolResult, fundingOutput, error) {
		symbol, exchange, fr, err := fetchFunding(ctx, deriv, in)
		if err != nil {
			return nil, fundingOutput{toolResult: failResult(err)}, nil
		}
		return nil, fundingOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, FundingResult: futures.Funding(fr, th)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_funding_history",
		Description: "Recent funding settlements with mean rate and first-half/second-half trend",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fundingHistoryInput) (*mcp.CallToolResult, fundingHistoryOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, fundingHistoryOutput{toolResult: failResult(err)}, nil
		}
		rates, err := deriv.FundingHistory(ctx, symbol, clampLimit(in.Limit, defaultFundingHistory, maxFundingHistory))
		if err != nil {
			return nil, fundingHistoryOutput{toolResult: failResult(err)}, nil
		}
		res, err := futures.FundingHistory(rates)
		if err != nil {
			return nil, fundingHistoryOutput{toolResult: failResult(err)}, nil
		}
		return nil, fundingHistoryOutput{toolResult: okResult(), Symbol: symbol, FundingHistoryResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_open_interest",
		Description: "Open interest in USD and base-asset terms with participation commentary",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fundingInput) (*mcp.CallToolResult, openInterestOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, openInterestOutput{toolResult: failResult(err)}, nil
		}
		exchange, err := normalizeFuturesVenue(in.Exchange)
		if err != nil {
			return nil, openInterestOutput{toolResult: failResult(err)}, nil
		}
		oi, err := deriv.OpenInterest(ctx, exchange, symbol)
		if err != nil {
			return nil, openInterestOutput{toolResult: failResult(err)}, nil
		}
		price := oi.ValueUSD
		if oi.Contracts > 0 {
			price = oi.ValueUSD / oi.Contracts
		}
		res, err := futures.OpenInterest(oi, price, th)
		if err != nil {
			return nil, openInterestOutput{toolResult: failResult(err)}, nil
		}
		return nil, openInterestOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, OpenInterestResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_long_short_ratio",
		Description: "Top-trader and global long/short account ratios with smart-money divergence",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fundingInput) (*mcp.CallToolResult, longShortOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, longShortOutput{toolResult: failResult(err)}, nil
		}
		exchange, err := normalizeFuturesVenue(in.Exchange)
		if err != nil {
			return nil, longShortOutput{toolResult: failResult(err)}, nil
		}
		ratio, err := deriv.LongShortRatio(ctx, exchange, symbol)
		if err != nil {
			return nil, longShortOutput{toolResult: failResult(err)}, nil
		}
		return nil, longShortOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, LongShortResult: futures.LongShort(ratio, th)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_taker_ratio",
		Description: "Aggressive taker buy/sell volume ratio with pressure classification",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fundingInput) (*mcp.CallToolResult, takerOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, takerOutput{toolResult: failResult(err)}, nil
		}
		exchange, err := normalizeFuturesVenue(in.Exchange)
		if err != nil {
			return nil, takerOutput{toolResult: failResult(err)}, nil
		}
		tr, err := deriv.TakerRatio(ctx, exchange, symbol)
		if err != nil {
			return nil, takerOutput{toolResult: failResult(err)}, nil
		}
		return nil, takerOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, TakerFlowResult: futures.TakerFlow(tr, th)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_liquidation_levels",
		Description: "Estimated liquidation prices across the 5x-100x leverage ladder",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolInput) (*mcp.CallToolResult, liquidationOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, liquidationOutput{toolResult: failResult(err)}, nil
		}
		price, err := market.Price(ctx, symbol)
		if err != nil {
			return nil, liquidationOutput{toolResult: failResult(err)}, nil
		}
		res, err := futures.LiquidationLevels(price, th)
		if err != nil {
			return nil, liquidationOutput{toolResult: failResult(err)}, nil
		}
		return nil, liquidationOutput{toolResult: okResult(), Symbol: symbol, LiquidationResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_perpetual_stats",
		Description: "Consolidated derivatives sentiment from funding, OI, positioning, taker flow, and liquidations",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolInput) (*mcp.CallToolResult, perpStatsOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, perpStatsOutput{toolResult: failResult(err)}, nil
		}

		// Sub-metrics are best effort; whatever fails is omitted and the
		// consolidated score works with the rest.
		var fundingRes *futures.FundingResult
		var price float64
		if fr, err := deriv.FundingRate(ctx, "binance", symbol); err == nil {
			fundingRes = futures.Funding(fr, th)
			price = fr.MarkPrice
		}
		if price <= 0 {
			price, _ = market.Price(ctx, symbol)
		}

		var oiRes *futures.OpenInterestResult
		if oi, err := deriv.OpenInterest(ctx, "binance", symbol); err == nil && price > 0 {
			oiRes, _ = futures.OpenInterest(oi, price, th)
		}

		var lsRes *futures.LongShortResult
		if ratio, err := deriv.LongShortRatio(ctx, "binance", symbol); err == nil {
			lsRes = futures.LongShort(ratio, th)
		}

		var takerRes *futures.TakerFlowResult
		if tr, err := deriv.TakerRatio(ctx, "binance", symbol); err == nil {
			takerRes = futures.TakerFlow(tr, th)
		}

		var liqRes *futures.LiquidationResult
		if price > 0 {
			liqRes, _ = futures.LiquidationLevels(price, th)
		}

		if fundingRes == nil && oiRes == nil && lsRes == nil && takerRes == nil && liqRes == nil {
			err := &domain.DataUnavailableError{Symbol: symbol, Message: "no derivatives data available from any sub-metric"}
			return nil, perpStatsOutput{toolResult: failResult(err)}, nil
		}

		stats := futures.Consolidate(fundingRes, oiRes, lsRes, takerRes, liqRes, th)
		return nil, perpStatsOutput{toolResult: okResult(), Symbol: symbol, PerpetualStats: stats}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_funding_rates",
		Description: "Ranks funding rates across venues and flags cross-venue arbitrage",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in compareFundingInput) (*mcp.CallToolResult, compareFundingOutput, error) {
		symbol, rates, err := gatherVenueRates(ctx, deriv, in.Symbol, in.Exchanges)
		if err != nil {
			return nil, compareFundingOutput{toolResult: failResult(err)}, nil
		}
		res, err := futures.CompareFunding(rates, defaultMinSpreadPct)
		if err != nil {
			return nil, compareFundingOutput{toolResult: failResult(err)}, nil
		}
		return nil, compareFundingOutput{toolResult: okResult(), Symbol: symbol, FundingComparison: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_funding_trend",
		Description: "Recent versus older funding mean with trend and volatility classification",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fundingHistoryInput) (*mcp.CallToolResult, fundingTrendOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, fundingTrendOutput{toolResult: failResult(err)}, nil
		}
		rates, err := deriv.FundingHistory(ctx, symbol, clampLimit(in.Limit, defaultFundingHistory, maxFundingHistory))
		if err != nil {
			return nil, fundingTrendOutput{toolResult: failResult(err)}, nil
		}
		res, err := futures.FundingTrend(rates)
		if err != nil {
			return nil, fundingTrendOutput{toolResult: failResult(err)}, nil
		}
		return nil, fundingTrendOutput{toolResult: okResult(), Symbol: symbol, FundingTrendResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_funding_arbitrage",
		Description: "Cross-venue funding arbitrage scan with a caller-supplied minimum spread",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in arbitrageInput) (*mcp.CallToolResult, compareFundingOutput, error) {
		symbol, rates, err := gatherVenueRates(ctx, deriv, in.Symbol, nil)
		if err != nil {
			return nil, compareFundingOutput{toolResult: failResult(err)}, nil
		}
		minSpread := in.MinSpreadPct
		if minSpread <= 0 {
			minSpread = defaultMinSpreadPct
		}
		res, err := futures.CompareFunding(rates, minSpread)
		if err != nil {
			return nil, compareFundingOutput{toolResult: failResult(err)}, nil
		}
		return nil, compareFundingOutput{toolResult: okResult(), Symbol: symbol, FundingComparison: res}, nil
	})
}

func fetchFunding(ctx context.Context, deriv DerivativesData, in fundingInput) (string, string, *domain.FundingRate, error) {
	symbol, err := validate.Symbol(in.Symbol)
	if err != nil {
		return "", "", nil, err
	}
	exchange, err := normalizeFuturesVenue(in.Exchange)
	if err != nil {
		return "", "", nil, err
	}
	fr, err := deriv.FundingRate(ctx, exchange, symbol)
	if err != nil {
		return "", "", nil, err
	}
	return symbol, exchange, fr, nil
}

// gatherVenueRates validates the venue list, defaults it to every futures
// venue, and collects whatever rates are available.
func gatherVenueRates(ctx context.Context, deriv DerivativesData, rawSymbol string, exchanges []string) (string, map[string]float64, error) {
	symbol, err := validate.Symbol(rawSymbol)
	if err != nil {
		return "", nil, err
	}
	if len(exchanges) == 0 {
		exchanges = domain.FuturesVenues
	} else {
		normalized := make([]string, 0, len(exchanges))
		for _, raw := range exchanges {
			ex, err := validate.Exchange(raw, domain.FuturesVenues)
			if err != nil {
				return "", nil, err
			}
			normalized = append(normalized, ex)
		}
		exchanges = normalized
	}

	rates := make(map[string]float64)
	for venue, fr := range deriv.FundingRates(ctx, symbol, exchanges) {
		rates[venue] = fr.Rate
	}
	return symbol, rates, nil
}
