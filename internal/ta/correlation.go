package ta

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"crypto-trading-desk/internal/domain"
)

type PairCorrelation struct {
	A           string  `json:"symbol_a"`
	B           string  `json:"symbol_b"`
	Correlation float64 `json:"correlation"`
	Strength    string  `json:"strength"`
}

type CorrelationResult struct {
	Symbols        []string                      `json:"symbols"`
	Matrix         map[string]map[string]float64 `json:"matrix"`
	Pairs          []PairCorrelation             `json:"pairs"`
	AverageR       float64                       `json:"average_correlation"`
	Cohesion       string                        `json:"market_cohesion"`
	Interpretation string                        `json:"interpretation"`
}

// Correlation computes pairwise Pearson correlation of percent returns,
// aligning every series to the shortest common length.
func Correlation(symbols []string, series map[string][]domain.Candle) (*CorrelationResult, error) {
	if len(symbols) < 2 {
		return nil, &domain.ValidationError{Field: "symbols", Message: "need at least 2 symbols"}
	}

	minLen := len(series[symbols[0]])
	for _, sym := range symbols {
		if len(series[sym]) < minLen {
			minLen = len(series[sym])
		}
	}
	if minLen < 10 {
		return nil, &domain.DataUnavailableError{Message: fmt.Sprintf("need at least 10 aligned candles, got %d", minLen)}
	}

	returns := make(map[string][]float64, len(symbols))
	for _, sym := range symbols {
		candles := series[sym]
		aligned := candles[len(candles)-minLen:]
		returns[sym] = pctReturns(closes(aligned))
	}

	matrix := make(map[string]map[string]float64, len(symbols))
	var pairs []PairCorrelation
	var rSum float64
	var rCount int
	for i, a := range symbols {
		matrix[a] = make(map[string]float64, len(symbols))
		for j, b := range symbols {
			if a == b {
				matrix[a][b] = 1
				continue
			}
			r := stat.Correlation(returns[a], returns[b], nil)
			if math.IsNaN(r) {
				r = 0
			}
			matrix[a][b] = round(r, 4)
			if j > i {
				pairs = append(pairs, PairCorrelation{
					A:           a,
					B:           b,
					Correlation: round(r, 4),
					Strength:    correlationStrength(r),
				})
				rSum += r
				rCount++
			}
		}
	}

	avg := 0.0
	if rCount > 0 {
		avg = rSum / float64(rCount)
	}
	cohesion := "DIVERSE"
	switch {
	case avg > 0.7:
		cohesion = "HIGHLY_CORRELATED"
	case avg > 0.5:
		cohesion = "MODERATELY_CORRELATED"
	case avg > 0.3:
		cohesion = "MIXED"
	}

	return &CorrelationResult{
		Symbols:        symbols,
		Matrix:         matrix,
		Pairs:          pairs,
		AverageR:       round(avg, 4),
		Cohesion:       cohesion,
		Interpretation: fmt.Sprintf("average pairwise correlation %.2f across %d pairs: %s", avg, rCount, cohesion),
	}, nil
}

func correlationStrength(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.8:
		return "VERY_STRONG"
	case abs >= 0.6:
		return "STRONG"
	case abs >= 0.4:
		return "MODERATE"
	case abs >= 0.2:
		return "WEAK"
	}
	return "NEGLIGIBLE"
}
