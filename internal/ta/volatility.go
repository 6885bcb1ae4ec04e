package ta

import (
	"fmt"
	"math"
	"sort"

	"crypto-trading-desk/internal/domain"
)

type BollingerResult struct {
	Upper          float64 `json:"upper_band"`
	Middle         float64 `json:"middle_band"`
	Lower          float64 `json:"lower_band"`
	Position       float64 `json:"position_in_band"`
	WidthPct       float64 `json:"band_width_pct"`
	Squeeze        bool    `json:"squeeze"`
	Signal         string  `json:"signal"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// Bollinger places bands k standard deviations around the period SMA and
// reports the price position inside the band as a percentage.
func Bollinger(candles []domain.Candle, period int, k float64, th Thresholds) (*BollingerResult, error) {
	if len(candles) < period {
		return nil, errShortSeries("Bollinger Bands", period, len(candles))
	}
	values := closes(candles)
	window := values[len(values)-period:]
	middle, std := meanStd(window)
	upper := middle + k*std
	lower := middle - k*std

	price := lastClose(candles)
	position := 50.0
	if upper != lower {
		position = (price - lower) / (upper - lower) * 100
	}
	widthPct := 0.0
	if middle != 0 {
		widthPct = (upper - lower) / middle * 100
	}

	signal := "NEUTRAL"
	switch {
	case price >= upper:
		signal = "OVERBOUGHT"
	case price <= lower:
		signal = "OVERSOLD"
	}

	squeeze := widthPct < th.Bollinger.SqueezeWidthPct

	return &BollingerResult{
		Upper:          round(upper, 6),
		Middle:         round(middle, 6),
		Lower:          round(lower, 6),
		Position:       round(position, 2),
		WidthPct:       round(widthPct, 2),
		Squeeze:        squeeze,
		Signal:         signal,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("Price at %.2f%% of the band (width %.2f%%), %s", position, widthPct, signal),
	}, nil
}

type VolatilityResult struct {
	AnnualizedPct  float64 `json:"annualized_volatility_pct"`
	ATR            float64 `json:"atr"`
	ATRPct         float64 `json:"atr_pct"`
	Percentile     float64 `json:"volatility_percentile"`
	Class          string  `json:"volatility_class"`
	Breakout       bool    `json:"volatility_breakout"`
	Risk           string  `json:"risk_level"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// Volatility annualizes the standard deviation of daily returns and ranks
// the current rolling volatility against its own history.
func Volatility(candles []domain.Candle, th Thresholds) (*VolatilityResult, error) {
	const atrPeriod = 14
	const rollWindow = 30
	if len(candles) < rollWindow+2 {
		return nil, errShortSeries("volatility", rollWindow+2, len(candles))
	}

	returns := pctReturns(closes(candles))
	_, std := meanStd(returns)
	annualized := std * math.Sqrt(365) * 100

	atr := atrValue(candles, atrPeriod)
	price := lastClose(candles)
	atrPct := 0.0
	if price != 0 {
		atrPct = atr / price * 100
	}

	// Rank current rolling-window volatility among all rolling windows.
	var rolling []float64
	for i := rollWindow; i <= len(returns); i++ {
		_, s := meanStd(returns[i-rollWindow : i])
		rolling = append(rolling, s)
	}
	current := rolling[len(rolling)-1]
	sorted := make([]float64, len(rolling))
	copy(sorted, rolling)
	sort.Float64s(sorted)
	rank := sort.SearchFloat64s(sorted, current)
	percentile := float64(rank) / float64(len(sorted)) * 100

	class := "VERY_LOW"
	switch {
	case annualized > th.Volatility.Extreme:
		class = "EXTREME"
	case annualized > th.Volatility.High:
		class = "HIGH"
	case annualized > th.Volatility.Moderate:
		class = "MODERATE"
	case annualized > th.Volatility.Low:
		class = "LOW"
	}

	breakout := false
	if len(returns) > 0 {
		m, s := meanStd(returns)
		last := returns[len(returns)-1]
		breakout = s > 0 && math.Abs(last-m) > 2*s
	}

	risk := "LOW"
	switch {
	case percentile > 80:
		risk = "HIGH"
	case percentile > 50:
		risk = "MODERATE"
	case percentile > 25:
		risk = "LOW"
	default:
		risk = "VERY_LOW"
	}

	return &VolatilityResult{
		AnnualizedPct:  round(annualized, 2),
		ATR:            round(atr, 6),
		ATRPct:         round(atrPct, 2),
		Percentile:     round(percentile, 1),
		Class:          class,
		Breakout:       breakout,
		Risk:           risk,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("%s volatility (%.2f%% annualized, %.0fth percentile), risk %s", class, annualized, percentile, risk),
	}, nil
}

func atrValue(candles []domain.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}
	var sum float64
	start := len(candles) - period
	for i := start; i < len(candles); i++ {
		c := candles[i]
		prev := candles[i-1]
		tr := math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prev.Close), math.Abs(c.Low-prev.Close)))
		sum += tr
	}
	return sum / float64(period)
}
