package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"crypto-trading-desk/internal/domain"
	"crypto-trading-desk/internal/ta"
	"crypto-trading-desk/internal/validate"
)

// fetchSeries validates the shared series input and pulls candles through
// the fallback chain.
func fetchSeries(ctx context.Context, market MarketData, in seriesInput) ([]domain.Candle, string, string, error) {
	symbol, timeframe, limit, err := normalizeSeries(in)
	if err != nil {
		return nil, "", "", err
	}
	candles, err := market.Candles(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, "", "", err
	}
	return candles, symbol, timeframe, nil
}

func registerAnalysisTools(server *mcp.Server, market MarketData, th ta.Thresholds) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_rsi",
		Description: "Relative Strength Index with overbought/oversold classification and short-term trend",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, rsiOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, rsiOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.RSI(candles, 14, th)
		if err != nil {
			return nil, rsiOutput{toolResult: failResult(err)}, nil
		}
		return nil, rsiOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, RSIResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_macd",
		Description: "MACD line, signal line, histogram, and fresh crossover detection",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, macdOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, macdOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.MACD(candles, 12, 26, 9, th)
		if err != nil {
			return nil, macdOutput{toolResult: failResult(err)}, nil
		}
		return nil, macdOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, MACDResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_bollinger_bands",
		Description: "Bollinger bands with position-in-band, band width, and squeeze detection",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, bollingerOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, bollingerOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.Bollinger(candles, 20, 2, th)
		if err != nil {
			return nil, bollingerOutput{toolResult: failResult(err)}, nil
		}
		return nil, bollingerOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, BollingerResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_moving_averages",
		Description: "SMA and EMA per period with slope, crossover state, and overall trend vote",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in movingAveragesInput) (*mcp.CallToolResult, movingAveragesOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in.seriesInput)
		if err != nil {
			return nil, movingAveragesOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.MovingAverages(candles, in.MAPeriods, th)
		if err != nil {
			return nil, movingAveragesOutput{toolResult: failResult(err)}, nil
		}
		return nil, movingAveragesOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, MovingAveragesResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_support_resistance",
		Description: "Clustered support and resistance levels from local price pivots",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, supportResistanceOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, supportResistanceOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.SupportResistance(candles, th)
		if err != nil {
			return nil, supportResistanceOutput{toolResult: failResult(err)}, nil
		}
		return nil, supportResistanceOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, SupportResistanceResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_fibonacci_levels",
		Description: "Fibonacci retracement levels over the window high/low for both trend directions",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in fibonacciInput) (*mcp.CallToolResult, fibonacciOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in.seriesInput)
		if err != nil {
			return nil, fibonacciOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.Fibonacci(candles, in.Trend, th)
		if err != nil {
			return nil, fibonacciOutput{toolResult: failResult(err)}, nil
		}
		return nil, fibonacciOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, FibonacciResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_chart_patterns",
		Description: "Double tops/bottoms, head-and-shoulders, and descending triangles from price pivots",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, chartPatternsOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, chartPatternsOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.ChartPatterns(candles, th)
		if err != nil {
			return nil, chartPatternsOutput{toolResult: failResult(err)}, nil
		}
		return nil, chartPatternsOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, ChartPatternsResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_momentum_indicators",
		Description: "Stochastic, Williams %R, ROC, and CCI bundled with an overall momentum vote",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, momentumOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, momentumOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.Momentum(candles, th)
		if err != nil {
			return nil, momentumOutput{toolResult: failResult(err)}, nil
		}
		return nil, momentumOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, MomentumBundle: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_obv",
		Description: "On-balance volume with regression slopes and price/OBV divergence",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, obvOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, obvOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.OBV(candles, th)
		if err != nil {
			return nil, obvOutput{toolResult: failResult(err)}, nil
		}
		return nil, obvOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, OBVResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_mfi",
		Description: "Money Flow Index from typical-price money flow with 80/20 classification",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, mfiOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, mfiOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.MFI(candles, 14, th)
		if err != nil {
			return nil, mfiOutput{toolResult: failResult(err)}, nil
		}
		return nil, mfiOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, MFIResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_vwap",
		Description: "Volume-weighted average price with volume-weighted sigma bands",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, vwapOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, vwapOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.VWAP(candles, th)
		if err != nil {
			return nil, vwapOutput{toolResult: failResult(err)}, nil
		}
		return nil, vwapOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, VWAPResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_volume_profile",
		Description: "Price-binned volume distribution, point of control, high-volume zones, and VPT",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, volumeProfileOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, volumeProfileOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.VolumeProfile(candles, th)
		if err != nil {
			return nil, volumeProfileOutput{toolResult: failResult(err)}, nil
		}
		return nil, volumeProfileOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, VolumeProfileResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_adx",
		Description: "Average Directional Index with trend-strength bands and DI direction",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, adxOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, adxOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.ADX(candles, 14, th)
		if err != nil {
			return nil, adxOutput{toolResult: failResult(err)}, nil
		}
		return nil, adxOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, ADXResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ichimoku",
		Description: "Ichimoku cloud components with price position and TK cross signals",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, ichimokuOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, ichimokuOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.Ichimoku(candles, th)
		if err != nil {
			return nil, ichimokuOutput{toolResult: failResult(err)}, nil
		}
		return nil, ichimokuOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, IchimokuResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_williams_r",
		Description: "Williams %R with -20/-80 thresholds and momentum read",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, williamsROutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, williamsROutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.WilliamsR(candles, 14, th)
		if err != nil {
			return nil, williamsROutput{toolResult: failResult(err)}, nil
		}
		return nil, williamsROutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, WilliamsRResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_pivot_points",
		Description: "Classic floor-trader pivots from the previous completed bar",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, pivotPointsOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, pivotPointsOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.PivotPoints(candles, th)
		if err != nil {
			return nil, pivotPointsOutput{toolResult: failResult(err)}, nil
		}
		return nil, pivotPointsOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, PivotPointsResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_divergences",
		Description: "Price extremes vs RSI at the same bars over the last 50 candles",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, divergenceOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, divergenceOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.Divergences(candles, th)
		if err != nil {
			return nil, divergenceOutput{toolResult: failResult(err)}, nil
		}
		return nil, divergenceOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, DivergenceResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_volatility",
		Description: "Annualized return volatility, ATR, percentile rank, and breakout detection",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, volatilityOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, volatilityOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.Volatility(candles, th)
		if err != nil {
			return nil, volatilityOutput{toolResult: failResult(err)}, nil
		}
		return nil, volatilityOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, VolatilityResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trend_reversals",
		Description: "Additive reversal confidence from divergence, volume, candle shape, and level tests",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, trendReversalOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, trendReversalOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.TrendReversal(candles, th)
		if err != nil {
			return nil, trendReversalOutput{toolResult: failResult(err)}, nil
		}
		return nil, trendReversalOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, TrendReversalResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_correlation_matrix",
		Description: "Pairwise Pearson correlation of percent returns across symbols",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in correlationInput) (*mcp.CallToolResult, correlationOutput, error) {
		if len(in.Symbols) < 2 {
			err := &domain.ValidationError{Field: "symbols", Message: "at least 2 symbols are required"}
			return nil, correlationOutput{toolResult: failResult(err)}, nil
		}
		timeframe := in.Timeframe
		if timeframe == "" {
			timeframe = defaultTimeframe
		}
		timeframe, err := validate.Timeframe(timeframe)
		if err != nil {
			return nil, correlationOutput{toolResult: failResult(err)}, nil
		}
		limit := clampLimit(in.Periods, defaultCandleLimit, maxCandleLimit)

		symbols := make([]string, 0, len(in.Symbols))
		series := make(map[string][]domain.Candle, len(in.Symbols))
		for _, raw := range in.Symbols {
			symbol, err := validate.Symbol(raw)
			if err != nil {
				return nil, correlationOutput{toolResult: failResult(err)}, nil
			}
			candles, err := market.Candles(ctx, symbol, timeframe, limit)
			if err != nil {
				return nil, correlationOutput{toolResult: failResult(err)}, nil
			}
			symbols = append(symbols, symbol)
			series[symbol] = candles
		}

		res, err := ta.Correlation(symbols, series)
		if err != nil {
			return nil, correlationOutput{toolResult: failResult(err)}, nil
		}
		return nil, correlationOutput{toolResult: okResult(), Timeframe: timeframe, CorrelationResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trading_signals",
		Description: "Scored RSI/MACD/MA consensus with entry, stop-loss, and take-profit levels",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in seriesInput) (*mcp.CallToolResult, tradingSignalsOutput, error) {
		candles, symbol, timeframe, err := fetchSeries(ctx, market, in)
		if err != nil {
			return nil, tradingSignalsOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.TradingSignals(candles, th)
		if err != nil {
			return nil, tradingSignalsOutput{toolResult: failResult(err)}, nil
		}
		return nil, tradingSignalsOutput{toolResult: okResult(), Symbol: symbol, Timeframe: timeframe, TradingSignalsResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_backtest",
		Description: "Long-only backtest of a named strategy over daily candles with buy-and-hold baseline",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in backtestInput) (*mcp.CallToolResult, backtestOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, backtestOutput{toolResult: failResult(err)}, nil
		}
		days, err := normalizeBacktestPeriod(in.Period)
		if err != nil {
			return nil, backtestOutput{toolResult: failResult(err)}, nil
		}
		candles, err := market.Candles(ctx, symbol, "1d", days)
		if err != nil {
			return nil, backtestOutput{toolResult: failResult(err)}, nil
		}
		res, err := ta.Backtest(candles, in.Strategy, th)
		if err != nil {
			return nil, backtestOutput{toolResult: failResult(err)}, nil
		}
		period := in.Period
		if period == "" {
			period = "3m"
		}
		return nil, backtestOutput{toolResult: okResult(), Symbol: symbol, Period: period, BacktestResult: res}, nil
	})
}
