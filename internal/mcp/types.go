package mcp

import (
	"errors"

	"crypto-trading-desk/internal/domain"
	"crypto-trading-desk/internal/futures"
	"crypto-trading-desk/internal/micro"
	"crypto-trading-desk/internal/ta"
	"crypto-trading-desk/internal/validate"
)

const (
	defaultTimeframe = "1h"

	defaultCandleLimit = 100
	maxCandleLimit     = domain.MaxSeriesLength

	defaultBookDepth = 50
	maxBookDepth     = 200

	defaultTradeLimit = 200
	maxTradeLimit     = 1000

	defaultFundingHistory = 30
	maxFundingHistory     = 100

	defaultOrderSizeUSD = 10000
)

// bookVenues lists the venues that serve order books and trade tapes.
var bookVenues = []string{"binance", "bybit"}

// toolResult is the envelope every tool payload carries. Failures are
// reported here rather than as protocol errors so callers can pattern
// match on success.
type toolResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

func okResult() toolResult { return toolResult{Success: true} }

// failResult maps the domain error taxonomy onto the error_type field.
// Anything unrecognized is reported as internal.
func failResult(err error) toolResult {
	kind := domain.ErrKindInternal

	var validationErr *domain.ValidationError
	var venueErr *domain.UnsupportedVenueError
	var dataErr *domain.DataUnavailableError
	var upstreamErr *domain.UpstreamError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &venueErr):
		kind = domain.ErrKindValidation
	case errors.As(err, &dataErr):
		kind = domain.ErrKindDataUnavailable
	case errors.As(err, &upstreamErr):
		kind = domain.ErrKindUpstream
	}

	return toolResult{Success: false, Error: err.Error(), ErrorType: kind}
}

// --- shared inputs ---

type seriesInput struct {
	Symbol    string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Timeframe string `json:"timeframe,omitempty" jsonschema:"candle timeframe (1m-1M), default 1h"`
	Periods   int    `json:"periods,omitempty" jsonschema:"number of candles to analyze, max 500"`
}

type movingAveragesInput struct {
	seriesInput
	MAPeriods []int `json:"ma_periods,omitempty" jsonschema:"moving-average lengths, default [20,50,200]"`
}

type fibonacciInput struct {
	seriesInput
	Trend string `json:"trend,omitempty" jsonschema:"retracement direction: up or down, default derived from the window"`
}

type correlationInput struct {
	Symbols   []string `json:"symbols" jsonschema:"asset symbols to correlate, at least 2"`
	Timeframe string   `json:"timeframe,omitempty" jsonschema:"candle timeframe, default 1h"`
	Periods   int      `json:"periods,omitempty" jsonschema:"number of candles per symbol, max 500"`
}

type backtestInput struct {
	Symbol   string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Strategy string `json:"strategy" jsonschema:"strategy: rsi_oversold, macd_crossover, ma_crossover"`
	Period   string `json:"period,omitempty" jsonschema:"lookback: 1m, 3m, 6m, 1y; default 3m"`
}

type bookInput struct {
	Symbol   string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Exchange string `json:"exchange,omitempty" jsonschema:"venue: binance or bybit, default binance"`
	Depth    int    `json:"depth,omitempty" jsonschema:"order book levels per side, max 200"`
}

type orderSizeInput struct {
	Symbol   string  `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Exchange string  `json:"exchange,omitempty" jsonschema:"venue: binance or bybit, default binance"`
	SizeUSD  float64 `json:"order_size_usd,omitempty" jsonschema:"hypothetical order notional in USD, default 10000"`
}

type tradesInput struct {
	Symbol   string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Exchange string `json:"exchange,omitempty" jsonschema:"venue, default binance"`
	Limit    int    `json:"limit,omitempty" jsonschema:"number of recent trades, max 1000"`
}

type fundingInput struct {
	Symbol   string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Exchange string `json:"exchange,omitempty" jsonschema:"venue: binance, bybit, or okx; default binance"`
}

type fundingHistoryInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"number of funding settlements, max 100"`
}

type symbolInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
}

type compareFundingInput struct {
	Symbol    string   `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Exchanges []string `json:"exchanges,omitempty" jsonschema:"venues to compare, default binance/bybit/okx"`
}

type arbitrageInput struct {
	Symbol       string  `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	MinSpreadPct float64 `json:"min_spread_pct,omitempty" jsonschema:"annualized spread required to flag an opportunity, default 10"`
}

// --- normalizers ---

func clampLimit(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

func normalizeSeries(in seriesInput) (symbol, timeframe string, limit int, err error) {
	symbol, err = validate.Symbol(in.Symbol)
	if err != nil {
		return "", "", 0, err
	}
	timeframe = in.Timeframe
	if timeframe == "" {
		timeframe = defaultTimeframe
	}
	timeframe, err = validate.Timeframe(timeframe)
	if err != nil {
		return "", "", 0, err
	}
	return symbol, timeframe, clampLimit(in.Periods, defaultCandleLimit, maxCandleLimit), nil
}

func normalizeBookVenue(exchange string) (string, error) {
	if exchange == "" {
		return "binance", nil
	}
	return validate.Exchange(exchange, bookVenues)
}

func normalizeFuturesVenue(exchange string) (string, error) {
	if exchange == "" {
		return "binance", nil
	}
	return validate.Exchange(exchange, domain.FuturesVenues)
}

// backtestDays maps the lookback enum onto daily-candle counts.
var backtestDays = map[string]int{"1m": 30, "3m": 90, "6m": 180, "1y": 365}

func normalizeBacktestPeriod(period string) (int, error) {
	if period == "" {
		period = "3m"
	}
	days, ok := backtestDays[period]
	if !ok {
		return 0, &domain.ValidationError{Field: "period", Message: "must be one of 1m, 3m, 6m, 1y"}
	}
	return days, nil
}

// --- outputs ---
//
// Each output embeds the envelope plus the calculator result; the result
// pointer stays nil on failure so only the envelope is serialized.

type rsiOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.RSIResult
}

type macdOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.MACDResult
}

type bollingerOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.BollingerResult
}

type movingAveragesOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.MovingAveragesResult
}

type supportResistanceOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.SupportResistanceResult
}

type fibonacciOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.FibonacciResult
}

type chartPatternsOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.ChartPatternsResult
}

type momentumOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.MomentumBundle
}

type obvOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.OBVResult
}

type mfiOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.MFIResult
}

type vwapOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.VWAPResult
}

type volumeProfileOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.VolumeProfileResult
}

type adxOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.ADXResult
}

type ichimokuOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.IchimokuResult
}

type williamsROutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.WilliamsRResult
}

type pivotPointsOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.PivotPointsResult
}

type divergenceOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.DivergenceResult
}

type volatilityOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.VolatilityResult
}

type trendReversalOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.TrendReversalResult
}

type correlationOutput struct {
	toolResult
	Timeframe string `json:"timeframe,omitempty"`
	*ta.CorrelationResult
}

type tradingSignalsOutput struct {
	toolResult
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	*ta.TradingSignalsResult
}

type backtestOutput struct {
	toolResult
	Symbol string `json:"symbol,omitempty"`
	Period string `json:"period,omitempty"`
	*ta.BacktestResult
}

type depthOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*micro.DepthResult
}

type imbalanceOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*micro.ImbalanceResult
}

type spreadOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*micro.SpreadResult
}

type spoofingOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*micro.SpoofingResult
}

type impactOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*micro.ImpactResult
}

type orderFlowOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*micro.OrderFlowResult
}

type fundingOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*futures.FundingResult
}

type fundingHistoryOutput struct {
	toolResult
	Symbol string `json:"symbol,omitempty"`
	*futures.FundingHistoryResult
}

type openInterestOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*futures.OpenInterestResult
}

type longShortOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*futures.LongShortResult
}

type takerOutput struct {
	toolResult
	Symbol   string `json:"symbol,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	*futures.TakerFlowResult
}

type liquidationOutput struct {
	toolResult
	Symbol string `json:"symbol,omitempty"`
	*futures.LiquidationResult
}

type perpStatsOutput struct {
	toolResult
	Symbol string `json:"symbol,omitempty"`
	*futures.PerpetualStats
}

type compareFundingOutput struct {
	toolResult
	Symbol string `json:"symbol,omitempty"`
	*futures.FundingComparison
}

type fundingTrendOutput struct {
	toolResult
	Symbol string `json:"symbol,omitempty"`
	*futures.FundingTrendResult
}
