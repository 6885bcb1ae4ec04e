// Package ta implements stateless technical-analysis calculators over OHLCV
// series. Every function takes an oldest-first candle slice plus parameters
// and returns the latest value with a threshold-based classification.
package ta

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"crypto-trading-desk/internal/domain"
)

func closes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

func highs(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].High
	}
	return out
}

func lows(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Low
	}
	return out
}

func volumes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Volume
	}
	return out
}

func typicalPrices(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = (candles[i].High + candles[i].Low + candles[i].Close) / 3
	}
	return out
}

func errShortSeries(what string, need, have int) error {
	return &domain.DataUnavailableError{
		Message: fmt.Sprintf("%s requires at least %d candles, got %d", what, need, have),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (m, std float64) {
	m = mean(values)
	if len(values) < 2 {
		return m, 0
	}
	for _, v := range values {
		d := v - m
		std += d * d
	}
	return m, math.Sqrt(std / float64(len(values)))
}

func sma(values []float64, period int) float64 {
	if len(values) < period || period <= 0 {
		return math.NaN()
	}
	return mean(values[len(values)-period:])
}

func smaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func emaSeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// slope fits an ordinary least squares line over values indexed 0..n-1 and
// returns the fitted per-bar slope.
func slope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)
	if math.IsNaN(beta) {
		return 0
	}
	return beta
}

func pctReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (values[i]-values[i-1])/values[i-1])
	}
	return out
}

func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func lastClose(candles []domain.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	return candles[len(candles)-1].Close
}
