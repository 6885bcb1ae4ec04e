package ta

import (
	"fmt"
	"math"
	"sort"

	"crypto-trading-desk/internal/domain"
)

type Pattern struct {
	Name        string  `json:"pattern"`
	Bias        string  `json:"bias"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

type ChartPatternsResult struct {
	Patterns       []Pattern `json:"patterns"`
	Support        float64   `json:"support"`
	Resistance     float64   `json:"resistance"`
	PricePosition  float64   `json:"price_position_pct"`
	CurrentPrice   float64   `json:"current_price"`
	Interpretation string    `json:"interpretation"`
}

// ChartPatterns scans swing peaks and troughs for a handful of classical
// formations. The confidence numbers are heuristic scores, not
// probabilities.
func ChartPatterns(candles []domain.Candle, _ Thresholds) (*ChartPatternsResult, error) {
	const window = 5
	if len(candles) < 30 {
		return nil, errShortSeries("chart patterns", 30, len(candles))
	}
	values := closes(candles)

	var peaks, troughs []int
	for i := window; i < len(values)-window; i++ {
		isPeak, isTrough := true, true
		for j := i - window; j <= i+window; j++ {
			if values[j] > values[i] {
				isPeak = false
			}
			if values[j] < values[i] {
				isTrough = false
			}
		}
		if isPeak {
			peaks = append(peaks, i)
		}
		if isTrough {
			troughs = append(troughs, i)
		}
	}

	var patterns []Pattern
	if p, ok := doubleExtreme(values, peaks, true); ok {
		patterns = append(patterns, p)
	}
	if p, ok := doubleExtreme(values, troughs, false); ok {
		patterns = append(patterns, p)
	}
	if p, ok := headAndShoulders(values, peaks); ok {
		patterns = append(patterns, p)
	}
	if p, ok := descendingTriangle(values, peaks, troughs); ok {
		patterns = append(patterns, p)
	}

	// Near-term range from the last 20 bars.
	tail := candles[len(candles)-20:]
	hh, ll := windowHighLow(tail)
	price := lastClose(candles)
	position := 50.0
	if hh != ll {
		position = (price - ll) / (hh - ll) * 100
	}

	interp := "no classical pattern detected"
	if len(patterns) > 0 {
		interp = fmt.Sprintf("%d pattern(s) detected, strongest: %s", len(patterns), patterns[0].Name)
	}

	return &ChartPatternsResult{
		Patterns:       patterns,
		Support:        round(ll, 6),
		Resistance:     round(hh, 6),
		PricePosition:  round(position, 2),
		CurrentPrice:   price,
		Interpretation: interp,
	}, nil
}

// doubleExtreme looks for two swing extremes within 3% of each other.
func doubleExtreme(values []float64, idx []int, top bool) (Pattern, bool) {
	if len(idx) < 2 {
		return Pattern{}, false
	}
	a := values[idx[len(idx)-2]]
	b := values[idx[len(idx)-1]]
	if a == 0 || math.Abs(a-b)/a > 0.03 {
		return Pattern{}, false
	}
	if top {
		return Pattern{
			Name:        "DOUBLE_TOP",
			Bias:        "BEARISH",
			Confidence:  60,
			Description: fmt.Sprintf("two peaks near %.6g within 3%%", (a+b)/2),
		}, true
	}
	return Pattern{
		Name:        "DOUBLE_BOTTOM",
		Bias:        "BULLISH",
		Confidence:  60,
		Description: fmt.Sprintf("two troughs near %.6g within 3%%", (a+b)/2),
	}, true
}

func headAndShoulders(values []float64, peaks []int) (Pattern, bool) {
	if len(peaks) < 3 {
		return Pattern{}, false
	}
	l := values[peaks[len(peaks)-3]]
	h := values[peaks[len(peaks)-2]]
	r := values[peaks[len(peaks)-1]]
	if h <= l || h <= r || l == 0 {
		return Pattern{}, false
	}
	if math.Abs(l-r)/l > 0.03 {
		return Pattern{}, false
	}
	return Pattern{
		Name:        "HEAD_AND_SHOULDERS",
		Bias:        "BEARISH",
		Confidence:  55,
		Description: fmt.Sprintf("head at %.6g above shoulders near %.6g", h, (l+r)/2),
	}, true
}

func descendingTriangle(values []float64, peaks, troughs []int) (Pattern, bool) {
	if len(peaks) < 2 || len(troughs) < 2 {
		return Pattern{}, false
	}
	p1 := values[peaks[len(peaks)-2]]
	p2 := values[peaks[len(peaks)-1]]
	t1 := values[troughs[len(troughs)-2]]
	t2 := values[troughs[len(troughs)-1]]
	if t1 == 0 || p2 >= p1 {
		return Pattern{}, false
	}
	if math.Abs(t1-t2)/t1 > 0.02 {
		return Pattern{}, false
	}
	return Pattern{
		Name:        "DESCENDING_TRIANGLE",
		Bias:        "BEARISH",
		Confidence:  50,
		Description: fmt.Sprintf("lower highs into flat support near %.6g", (t1+t2)/2),
	}, true
}

type DivergenceResult struct {
	Divergence     string  `json:"divergence"`
	PriceTrend     string  `json:"price_trend"`
	RSITrend       string  `json:"rsi_trend"`
	RSI            float64 `json:"rsi"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// Divergences compares the three most extreme swing highs and lows in the
// last 50 bars against RSI readings at the same bars.
func Divergences(candles []domain.Candle, th Thresholds) (*DivergenceResult, error) {
	const lookback = 50
	const rsiPeriod = 14
	if len(candles) < lookback {
		return nil, errShortSeries("divergence detection", lookback, len(candles))
	}
	tail := candles[len(candles)-lookback:]
	values := closes(tail)
	rsi := rsiSeries(closes(candles), rsiPeriod)
	rsiTail := rsi[len(rsi)-lookback:]

	highIdx := extremeIndices(values, 3, true)
	lowIdx := extremeIndices(values, 3, false)

	divergence := "NO_DIVERGENCE"
	priceTrend, rsiTrend := "FLAT", "FLAT"
	if len(highIdx) >= 2 {
		first, last := highIdx[0], highIdx[len(highIdx)-1]
		if values[last] > values[first] {
			priceTrend = "HIGHER_HIGHS"
			if !math.IsNaN(rsiTail[last]) && !math.IsNaN(rsiTail[first]) && rsiTail[last] < rsiTail[first] {
				rsiTrend = "LOWER_HIGHS"
				divergence = "BEARISH_DIVERGENCE"
			}
		}
	}
	if divergence == "NO_DIVERGENCE" && len(lowIdx) >= 2 {
		first, last := lowIdx[0], lowIdx[len(lowIdx)-1]
		if values[last] < values[first] {
			priceTrend = "LOWER_LOWS"
			if !math.IsNaN(rsiTail[last]) && !math.IsNaN(rsiTail[first]) && rsiTail[last] > rsiTail[first] {
				rsiTrend = "HIGHER_LOWS"
				divergence = "BULLISH_DIVERGENCE"
			}
		}
	}

	currRSI := rsi[len(rsi)-1]
	return &DivergenceResult{
		Divergence:     divergence,
		PriceTrend:     priceTrend,
		RSITrend:       rsiTrend,
		RSI:            round(currRSI, 2),
		CurrentPrice:   lastClose(candles),
		Interpretation: fmt.Sprintf("price %s vs RSI %s: %s", priceTrend, rsiTrend, divergence),
	}, nil
}

// extremeIndices returns the positions of the n largest (or smallest)
// values, in chronological order.
func extremeIndices(values []float64, n int, largest bool) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		if largest {
			return values[idx[i]] > values[idx[j]]
		}
		return values[idx[i]] < values[idx[j]]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	sort.Ints(idx)
	return idx
}

type ReversalSignal struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Detail string  `json:"detail"`
}

type TrendReversalResult struct {
	Confidence     float64          `json:"confidence"`
	Probability    string           `json:"probability"`
	Direction      string           `json:"direction"`
	Signals        []ReversalSignal `json:"signals"`
	CurrentPrice   float64          `json:"current_price"`
	Interpretation string           `json:"interpretation"`
}

// TrendReversal scores confirming reversal cues additively. The point
// values are heuristics; more confirming signals always raise the bucket.
func TrendReversal(candles []domain.Candle, th Thresholds) (*TrendReversalResult, error) {
	if len(candles) < 52 {
		return nil, errShortSeries("trend reversal", 52, len(candles))
	}
	values := closes(candles)
	price := lastClose(candles)

	var signals []ReversalSignal
	var bullish, bearish int
	add := func(name string, points float64, detail string, dir int) {
		signals = append(signals, ReversalSignal{Name: name, Points: points, Detail: detail})
		if dir > 0 {
			bullish++
		} else if dir < 0 {
			bearish++
		}
	}

	div, err := Divergences(candles, th)
	if err == nil {
		if div.Divergence == "BEARISH_DIVERGENCE" && div.RSI > th.RSI.Overbought {
			add("rsi_divergence", 25, "bearish divergence with overbought RSI", -1)
		} else if div.Divergence == "BULLISH_DIVERGENCE" && div.RSI < th.RSI.Oversold {
			add("rsi_divergence", 25, "bullish divergence with oversold RSI", 1)
		}
	}

	vols := volumes(candles)
	avgVol := mean(vols[len(vols)-21 : len(vols)-1])
	if avgVol > 0 && vols[len(vols)-1] > th.Volume.SpikeRatio*avgVol {
		dir := 1
		if values[len(values)-1] < values[len(values)-2] {
			dir = -1
		}
		add("volume_spike", 15, fmt.Sprintf("volume %.1fx its 20-bar average", vols[len(vols)-1]/avgVol), dir)
	}

	hh, ll := windowHighLow(candles[len(candles)-20:])
	if hh > 0 && math.Abs(price-hh)/hh < 0.02 {
		add("resistance_test", 10, "price testing the 20-bar high", -1)
	} else if ll > 0 && math.Abs(price-ll)/ll < 0.02 {
		add("support_test", 10, "price testing the 20-bar low", 1)
	}

	ma20 := sma(values, 20)
	ma50 := sma(values, 50)
	if ma50 != 0 && math.Abs(ma20-ma50)/ma50 < 0.02 {
		add("ma_convergence", 10, "20 and 50 bar averages converging within 2%", 0)
	}

	last := candles[len(candles)-1]
	body := math.Abs(last.Close - last.Open)
	barRange := last.High - last.Low
	if last.Close != 0 && body/last.Close < 0.005 {
		add("doji", 5, "indecision candle with negligible body", 0)
	}
	if barRange > 0 && body/barRange < 0.3 {
		lowerWick := math.Min(last.Open, last.Close) - last.Low
		upperWick := last.High - math.Max(last.Open, last.Close)
		if lowerWick > 2*body {
			add("hammer", 15, "long lower wick rejection", 1)
		} else if upperWick > 2*body {
			add("shooting_star", 15, "long upper wick rejection", -1)
		}
	}

	var confidence float64
	for _, s := range signals {
		confidence += s.Points
	}

	probability := "MINIMAL"
	switch {
	case confidence >= th.Reversal.High:
		probability = "HIGH"
	case confidence >= th.Reversal.Medium:
		probability = "MEDIUM"
	case confidence >= th.Reversal.Low:
		probability = "LOW"
	}

	direction := "UNCLEAR"
	if bullish > bearish {
		direction = "BULLISH_REVERSAL"
	} else if bearish > bullish {
		direction = "BEARISH_REVERSAL"
	}

	return &TrendReversalResult{
		Confidence:     confidence,
		Probability:    probability,
		Direction:      direction,
		Signals:        signals,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("%d confirming signal(s), %s probability of %s", len(signals), probability, direction),
	}, nil
}
