package ta

import (
	"math"
	"time"

	"crypto-trading-desk/internal/domain"
)

// barsFromCloses builds hourly candles around the given closes with a half
// point of range on each side and constant volume.
func barsFromCloses(values ...float64) []domain.Candle {
	out := make([]domain.Candle, len(values))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		open := v
		if i > 0 {
			open = values[i-1]
		}
		out[i] = domain.Candle{
			Symbol:   "BTC",
			Interval: "1h",
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     math.Max(open, v) + 0.5,
			Low:      math.Min(open, v) - 0.5,
			Close:    v,
			Volume:   1000,
		}
	}
	return out
}

func trendBars(n int, start, step float64) []domain.Candle {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return barsFromCloses(values...)
}

func waveBars(n int) []domain.Candle {
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + 10*math.Sin(float64(i)*0.3)
	}
	return barsFromCloses(values...)
}

// flatBars have identical open, high, low, and close so every range-based
// calculator sees a zero span.
func flatBars(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = domain.Candle{
			Symbol:   "BTC",
			Interval: "1h",
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     100,
			High:     100,
			Low:      100,
			Close:    100,
			Volume:   1000,
		}
	}
	return out
}
