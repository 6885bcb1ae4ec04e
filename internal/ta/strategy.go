package ta

import (
	"fmt"
	"math"

	"crypto-trading-desk/internal/domain"
)

type SignalComponent struct {
	Indicator string  `json:"indicator"`
	Strength  float64 `json:"strength"`
	Detail    string  `json:"detail"`
}

type TradingSignalsResult struct {
	Overall        string            `json:"overall_signal"`
	Score          float64           `json:"score"`
	Components     []SignalComponent `json:"components"`
	StopLoss       float64           `json:"suggested_stop_loss"`
	TakeProfit     float64           `json:"suggested_take_profit"`
	PositionPct    float64           `json:"suggested_position_pct"`
	CurrentPrice   float64           `json:"current_price"`
	Interpretation string            `json:"interpretation"`
}

// TradingSignals sums signed strengths from RSI, MACD, and moving-average
// sub-signals into one BUY/SELL/HOLD decision.
func TradingSignals(candles []domain.Candle, th Thresholds) (*TradingSignalsResult, error) {
	if len(candles) < 51 {
		return nil, errShortSeries("trading signals", 51, len(candles))
	}
	values := closes(candles)
	price := lastClose(candles)

	var components []SignalComponent
	var score float64
	add := func(indicator string, strength float64, detail string) {
		components = append(components, SignalComponent{Indicator: indicator, Strength: strength, Detail: detail})
		score += strength
	}

	rsi, err := RSI(candles, 14, th)
	if err == nil {
		switch {
		case rsi.Value < th.RSI.Oversold:
			add("rsi", 3, fmt.Sprintf("RSI %.2f deeply oversold", rsi.Value))
		case rsi.Value > th.RSI.Overbought:
			add("rsi", -3, fmt.Sprintf("RSI %.2f deeply overbought", rsi.Value))
		case rsi.Value < 40:
			add("rsi", 1, fmt.Sprintf("RSI %.2f leaning oversold", rsi.Value))
		case rsi.Value > 60:
			add("rsi", -1, fmt.Sprintf("RSI %.2f leaning overbought", rsi.Value))
		}
	}

	macd, err := MACD(candles, 12, 26, 9, th)
	if err == nil {
		switch macd.Crossover {
		case "BULLISH_CROSSOVER":
			add("macd", 3, "fresh bullish crossover")
		case "BEARISH_CROSSOVER":
			add("macd", -3, "fresh bearish crossover")
		}
		if macd.Histogram > 0 {
			add("macd_position", 1, "MACD above signal line")
		} else if macd.Histogram < 0 {
			add("macd_position", -1, "MACD below signal line")
		}
	}

	ma20 := sma(values, 20)
	ma50 := sma(values, 50)
	switch {
	case price > ma20 && ma20 > ma50:
		add("moving_averages", 2, "price > MA20 > MA50 alignment")
	case price < ma20 && ma20 < ma50:
		add("moving_averages", -2, "price < MA20 < MA50 alignment")
	case price > ma20:
		add("moving_averages", 1, "price above MA20")
	default:
		add("moving_averages", -1, "price below MA20")
	}

	overall := "HOLD"
	switch {
	case score >= th.Signals.StrongBuy:
		overall = "STRONG_BUY"
	case score >= th.Signals.Buy:
		overall = "BUY"
	case score <= th.Signals.StrongSell:
		overall = "STRONG_SELL"
	case score <= th.Signals.Sell:
		overall = "SELL"
	}

	stopLoss := price * (1 - th.Signals.StopLossPct/100)
	takeProfit := price * (1 + th.Signals.TakeProfitPct/100)
	if score < 0 {
		stopLoss = price * (1 + th.Signals.StopLossPct/100)
		takeProfit = price * (1 - th.Signals.TakeProfitPct/100)
	}

	return &TradingSignalsResult{
		Overall:        overall,
		Score:          score,
		Components:     components,
		StopLoss:       round(stopLoss, 6),
		TakeProfit:     round(takeProfit, 6),
		PositionPct:    th.Signals.PositionPct,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("Combined score %+.0f: %s", score, overall),
	}, nil
}

type BacktestTrade struct {
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	ReturnPct  float64 `json:"return_pct"`
}

type BacktestResult struct {
	Strategy       string          `json:"strategy"`
	TotalReturnPct float64         `json:"total_return_pct"`
	BuyHoldPct     float64         `json:"buy_hold_return_pct"`
	NumTrades      int             `json:"num_trades"`
	WinRatePct     float64         `json:"win_rate_pct"`
	AvgWinPct      float64         `json:"avg_win_pct"`
	AvgLossPct     float64         `json:"avg_loss_pct"`
	MaxDrawdownPct float64         `json:"max_drawdown_pct"`
	LastTrades     []BacktestTrade `json:"last_trades"`
	Interpretation string          `json:"interpretation"`
}

// Backtest replays one rule set bar-by-bar with a single long-only
// position, entering and exiting on closes.
func Backtest(candles []domain.Candle, strategy string, th Thresholds) (*BacktestResult, error) {
	const startBar = 50
	if len(candles) < startBar+10 {
		return nil, errShortSeries("backtest", startBar+10, len(candles))
	}
	values := closes(candles)

	var buySignal, sellSignal func(i int) bool
	switch strategy {
	case "rsi_oversold":
		rsi := rsiSeries(values, 14)
		buySignal = func(i int) bool { return !math.IsNaN(rsi[i]) && rsi[i] < th.RSI.Oversold }
		sellSignal = func(i int) bool { return !math.IsNaN(rsi[i]) && rsi[i] > th.RSI.Overbought }
	case "macd_crossover":
		macdLine, signalLine := macdSeries(values, 12, 26, 9)
		hist := make([]float64, len(values))
		for i := range values {
			hist[i] = macdLine[i] - signalLine[i]
		}
		buySignal = func(i int) bool { return i > 0 && hist[i-1] <= 0 && hist[i] > 0 }
		sellSignal = func(i int) bool { return i > 0 && hist[i-1] >= 0 && hist[i] < 0 }
	case "ma_crossover":
		fast := smaSeries(values, 20)
		slow := smaSeries(values, 50)
		cross := func(i int, up bool) bool {
			if i == 0 || math.IsNaN(fast[i-1]) || math.IsNaN(slow[i-1]) {
				return false
			}
			if up {
				return fast[i-1] <= slow[i-1] && fast[i] > slow[i]
			}
			return fast[i-1] >= slow[i-1] && fast[i] < slow[i]
		}
		buySignal = func(i int) bool { return cross(i, true) }
		sellSignal = func(i int) bool { return cross(i, false) }
	default:
		return nil, &domain.ValidationError{
			Field:   "strategy",
			Message: fmt.Sprintf("unknown strategy %q, expected rsi_oversold, macd_crossover, or ma_crossover", strategy),
		}
	}

	const startingCash = 10000.0
	cash := startingCash
	var units float64
	var entryPrice float64
	var trades []BacktestTrade
	equity := make([]float64, 0, len(values)-startBar)

	for i := startBar; i < len(values); i++ {
		price := values[i]
		if units == 0 && buySignal(i) {
			units = cash / price
			entryPrice = price
			cash = 0
		} else if units > 0 && sellSignal(i) {
			cash = units * price
			trades = append(trades, BacktestTrade{
				EntryPrice: round(entryPrice, 6),
				ExitPrice:  round(price, 6),
				ReturnPct:  round((price-entryPrice)/entryPrice*100, 2),
			})
			units = 0
		}
		equity = append(equity, cash+units*price)
	}
	// Liquidate an open position at the final close.
	if units > 0 {
		finalPrice := values[len(values)-1]
		cash = units * finalPrice
		trades = append(trades, BacktestTrade{
			EntryPrice: round(entryPrice, 6),
			ExitPrice:  round(finalPrice, 6),
			ReturnPct:  round((finalPrice-entryPrice)/entryPrice*100, 2),
		})
	}

	totalReturn := (cash - startingCash) / startingCash * 100
	buyHold := (values[len(values)-1] - values[startBar-1]) / values[startBar-1] * 100

	var wins, losses int
	var winSum, lossSum float64
	for _, t := range trades {
		if t.ReturnPct > 0 {
			wins++
			winSum += t.ReturnPct
		} else {
			losses++
			lossSum += t.ReturnPct
		}
	}
	winRate := 0.0
	if len(trades) > 0 {
		winRate = float64(wins) / float64(len(trades)) * 100
	}
	avgWin := 0.0
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	avgLoss := 0.0
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}

	var maxDD, peak float64
	for _, e := range equity {
		peak = math.Max(peak, e)
		if peak > 0 {
			dd := (peak - e) / peak * 100
			maxDD = math.Max(maxDD, dd)
		}
	}

	sample := trades
	if len(sample) > 5 {
		sample = sample[len(sample)-5:]
	}

	return &BacktestResult{
		Strategy:       strategy,
		TotalReturnPct: round(totalReturn, 2),
		BuyHoldPct:     round(buyHold, 2),
		NumTrades:      len(trades),
		WinRatePct:     round(winRate, 2),
		AvgWinPct:      round(avgWin, 2),
		AvgLossPct:     round(avgLoss, 2),
		MaxDrawdownPct: round(maxDD, 2),
		LastTrades:     sample,
		Interpretation: fmt.Sprintf("%s returned %.2f%% over %d trades vs %.2f%% buy-and-hold", strategy, totalReturn, len(trades), buyHold),
	}, nil
}
