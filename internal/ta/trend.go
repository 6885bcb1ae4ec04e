package ta

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"crypto-trading-desk/internal/domain"
)

type MovingAverage struct {
	Period    int     `json:"period"`
	SMA       float64 `json:"sma"`
	EMA       float64 `json:"ema"`
	Slope     string  `json:"slope"`
	PriceDiff float64 `json:"price_vs_sma_pct"`
}

type MovingAveragesResult struct {
	Averages       []MovingAverage `json:"averages"`
	GoldenCross    bool            `json:"golden_cross"`
	DeathCross     bool            `json:"death_cross"`
	OverallTrend   string          `json:"overall_trend"`
	CurrentPrice   float64         `json:"current_price"`
	Interpretation string          `json:"interpretation"`
}

// MovingAverages evaluates SMA and EMA for each requested period that the
// series can cover, then votes an overall trend from price position.
func MovingAverages(candles []domain.Candle, periods []int, _ Thresholds) (*MovingAveragesResult, error) {
	if len(periods) == 0 {
		periods = []int{20, 50, 200}
	}
	values := closes(candles)
	price := lastClose(candles)

	var avgs []MovingAverage
	var above int
	for _, p := range periods {
		if len(values) < p+1 {
			continue
		}
		smaNow := sma(values, p)
		smaPrev := sma(values[:len(values)-1], p)
		ema := emaSeries(values, p)[len(values)-1]

		slopeLabel := "FLAT"
		if smaNow-smaPrev > 0.001*smaNow {
			slopeLabel = "RISING"
		} else if smaPrev-smaNow > 0.001*smaNow {
			slopeLabel = "FALLING"
		}

		var diff float64
		if smaNow != 0 {
			diff = (price - smaNow) / smaNow * 100
		}
		if price > smaNow {
			above++
		}
		avgs = append(avgs, MovingAverage{
			Period:    p,
			SMA:       round(smaNow, 6),
			EMA:       round(ema, 6),
			Slope:     slopeLabel,
			PriceDiff: round(diff, 2),
		})
	}
	if len(avgs) == 0 {
		return nil, errShortSeries("moving averages", periods[0]+1, len(candles))
	}

	golden, death := crossState(values)

	trend := "NEUTRAL"
	switch {
	case above == len(avgs):
		trend = "STRONG_BULLISH"
	case above*2 > len(avgs):
		trend = "BULLISH"
	case above == 0:
		trend = "STRONG_BEARISH"
	case above*2 < len(avgs):
		trend = "BEARISH"
	}

	return &MovingAveragesResult{
		Averages:       avgs,
		GoldenCross:    golden,
		DeathCross:     death,
		OverallTrend:   trend,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("Price above %d of %d moving averages: %s", above, len(avgs), trend),
	}, nil
}

// crossState reports a 50/200 SMA cross between the last two bars.
func crossState(values []float64) (golden, death bool) {
	if len(values) < 201 {
		return false, false
	}
	fastNow := sma(values, 50)
	slowNow := sma(values, 200)
	fastPrev := sma(values[:len(values)-1], 50)
	slowPrev := sma(values[:len(values)-1], 200)
	golden = fastPrev <= slowPrev && fastNow > slowNow
	death = fastPrev >= slowPrev && fastNow < slowNow
	return golden, death
}

type ADXResult struct {
	ADX            float64 `json:"adx"`
	PlusDI         float64 `json:"plus_di"`
	MinusDI        float64 `json:"minus_di"`
	Strength       string  `json:"trend_strength"`
	Direction      string  `json:"trend_direction"`
	Interpretation string  `json:"interpretation"`
}

// ADX smooths true range and directional movement with rolling sums, then
// averages DX over the period.
func ADX(candles []domain.Candle, period int, th Thresholds) (*ADXResult, error) {
	need := 2*period + 1
	if len(candles) < need {
		return nil, errShortSeries("ADX", need, len(candles))
	}

	n := len(candles)
	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		c := candles[i]
		prev := candles[i-1]
		tr[i] = math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prev.Close), math.Abs(c.Low-prev.Close)))
		upMove := c.High - prev.High
		downMove := prev.Low - c.Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	dx := make([]float64, 0, n)
	var plusDI, minusDI float64
	for i := period; i < n; i++ {
		var trSum, plusSum, minusSum float64
		for j := i - period + 1; j <= i; j++ {
			trSum += tr[j]
			plusSum += plusDM[j]
			minusSum += minusDM[j]
		}
		if trSum == 0 {
			dx = append(dx, 0)
			continue
		}
		plusDI = 100 * plusSum / trSum
		minusDI = 100 * minusSum / trSum
		if plusDI+minusDI == 0 {
			dx = append(dx, 0)
			continue
		}
		dx = append(dx, 100*math.Abs(plusDI-minusDI)/(plusDI+minusDI))
	}
	if len(dx) < period {
		return nil, errShortSeries("ADX", need, len(candles))
	}
	adx := mean(dx[len(dx)-period:])

	strength := "NO_TREND"
	switch {
	case adx > th.ADX.VeryStrong:
		strength = "VERY_STRONG"
	case adx > th.ADX.Strong:
		strength = "STRONG"
	case adx > th.ADX.Weak:
		strength = "WEAK"
	}
	direction := "BEARISH"
	if plusDI > minusDI {
		direction = "BULLISH"
	}

	return &ADXResult{
		ADX:            round(adx, 2),
		PlusDI:         round(plusDI, 2),
		MinusDI:        round(minusDI, 2),
		Strength:       strength,
		Direction:      direction,
		Interpretation: fmt.Sprintf("ADX at %.2f indicates a %s %s trend", adx, strength, direction),
	}, nil
}

type IchimokuResult struct {
	Tenkan         float64 `json:"tenkan_sen"`
	Kijun          float64 `json:"kijun_sen"`
	SenkouA        float64 `json:"senkou_span_a"`
	SenkouB        float64 `json:"senkou_span_b"`
	Chikou         float64 `json:"chikou_span"`
	CloudColor     string  `json:"cloud_color"`
	PriceVsCloud   string  `json:"price_vs_cloud"`
	TKCross        string  `json:"tk_cross"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// Ichimoku computes the 9/26/52 system. The spans applying to the current
// bar are the ones projected 26 bars ago.
func Ichimoku(candles []domain.Candle, _ Thresholds) (*IchimokuResult, error) {
	const (
		tenkanPeriod = 9
		kijunPeriod  = 26
		senkouPeriod = 52
		shift        = 26
	)
	need := senkouPeriod + shift
	if len(candles) < need {
		return nil, errShortSeries("Ichimoku", need, len(candles))
	}

	midpoint := func(window []domain.Candle) float64 {
		hh, ll := windowHighLow(window)
		return (hh + ll) / 2
	}
	n := len(candles)
	tenkan := midpoint(candles[n-tenkanPeriod:])
	kijun := midpoint(candles[n-kijunPeriod:])

	// Spans over the current bar were computed from data ending `shift`
	// bars back.
	past := candles[:n-shift]
	senkouA := (midpoint(past[len(past)-tenkanPeriod:]) + midpoint(past[len(past)-kijunPeriod:])) / 2
	senkouB := midpoint(past[len(past)-senkouPeriod:])
	chikou := candles[n-1-shift].Close

	price := lastClose(candles)
	cloudColor := "RED"
	if senkouA > senkouB {
		cloudColor = "GREEN"
	}
	cloudTop := math.Max(senkouA, senkouB)
	cloudBottom := math.Min(senkouA, senkouB)
	priceVsCloud := "IN_CLOUD"
	if price > cloudTop {
		priceVsCloud = "ABOVE_CLOUD"
	} else if price < cloudBottom {
		priceVsCloud = "BELOW_CLOUD"
	}
	tkCross := "BEARISH"
	if tenkan > kijun {
		tkCross = "BULLISH"
	}

	return &IchimokuResult{
		Tenkan:         round(tenkan, 6),
		Kijun:          round(kijun, 6),
		SenkouA:        round(senkouA, 6),
		SenkouB:        round(senkouB, 6),
		Chikou:         round(chikou, 6),
		CloudColor:     cloudColor,
		PriceVsCloud:   priceVsCloud,
		TKCross:        tkCross,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("Price is %s a %s cloud with a %s TK cross", priceVsCloud, cloudColor, tkCross),
	}, nil
}

type PivotPointsResult struct {
	Pivot          float64 `json:"pivot"`
	R1             float64 `json:"r1"`
	R2             float64 `json:"r2"`
	R3             float64 `json:"r3"`
	S1             float64 `json:"s1"`
	S2             float64 `json:"s2"`
	S3             float64 `json:"s3"`
	NearestLevel   string  `json:"nearest_level"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// PivotPoints derives classic floor-trader pivots from the previous
// completed bar.
func PivotPoints(candles []domain.Candle, _ Thresholds) (*PivotPointsResult, error) {
	if len(candles) < 2 {
		return nil, errShortSeries("pivot points", 2, len(candles))
	}
	prev := candles[len(candles)-2]
	h, l, c := prev.High, prev.Low, prev.Close

	p := (h + l + c) / 3
	r1 := 2*p - l
	r2 := p + (h - l)
	r3 := h + 2*(p-l)
	s1 := 2*p - h
	s2 := p - (h - l)
	s3 := l - 2*(h-p)

	price := lastClose(candles)
	levels := map[string]float64{
		"pivot": p, "r1": r1, "r2": r2, "r3": r3, "s1": s1, "s2": s2, "s3": s3,
	}
	nearest := "pivot"
	best := math.Inf(1)
	for name, level := range levels {
		if d := math.Abs(price - level); d < best {
			best = d
			nearest = name
		}
	}

	return &PivotPointsResult{
		Pivot:          round(p, 6),
		R1:             round(r1, 6),
		R2:             round(r2, 6),
		R3:             round(r3, 6),
		S1:             round(s1, 6),
		S2:             round(s2, 6),
		S3:             round(s3, 6),
		NearestLevel:   nearest,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("Price %.6g is closest to %s", price, nearest),
	}, nil
}

type PriceLevel struct {
	Price   float64 `json:"price"`
	Touches int     `json:"touches"`
}

type SupportResistanceResult struct {
	Supports       []PriceLevel `json:"supports"`
	Resistances    []PriceLevel `json:"resistances"`
	CurrentPrice   float64      `json:"current_price"`
	Interpretation string       `json:"interpretation"`
}

// SupportResistance clusters swing pivots within a 2% tolerance and keeps
// levels touched at least twice.
func SupportResistance(candles []domain.Candle, _ Thresholds) (*SupportResistanceResult, error) {
	const window = 5
	if len(candles) < 2*window+1 {
		return nil, errShortSeries("support/resistance", 2*window+1, len(candles))
	}

	var pivotHighs, pivotLows []float64
	for i := window; i < len(candles)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if candles[j].High > candles[i].High {
				isHigh = false
			}
			if candles[j].Low < candles[i].Low {
				isLow = false
			}
		}
		if isHigh {
			pivotHighs = append(pivotHighs, candles[i].High)
		}
		if isLow {
			pivotLows = append(pivotLows, candles[i].Low)
		}
	}

	price := lastClose(candles)
	resistances := clusterLevels(pivotHighs, 0.02)
	supports := clusterLevels(pivotLows, 0.02)

	var above, below []PriceLevel
	for _, lv := range resistances {
		if lv.Price >= price {
			above = append(above, lv)
		}
	}
	for _, lv := range supports {
		if lv.Price <= price {
			below = append(below, lv)
		}
	}
	sort.Slice(above, func(i, j int) bool { return above[i].Price < above[j].Price })
	sort.Slice(below, func(i, j int) bool { return below[i].Price > below[j].Price })
	if len(above) > 5 {
		above = above[:5]
	}
	if len(below) > 5 {
		below = below[:5]
	}

	return &SupportResistanceResult{
		Supports:       below,
		Resistances:    above,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("%d support and %d resistance levels near %.6g", len(below), len(above), price),
	}, nil
}

func clusterLevels(prices []float64, tolerance float64) []PriceLevel {
	sort.Float64s(prices)
	var out []PriceLevel
	for i := 0; i < len(prices); {
		anchor := prices[i]
		sum, count := 0.0, 0
		for i < len(prices) && prices[i] <= anchor*(1+tolerance) {
			sum += prices[i]
			count++
			i++
		}
		if count >= 2 {
			out = append(out, PriceLevel{Price: round(sum/float64(count), 6), Touches: count})
		}
	}
	return out
}

type FibonacciResult struct {
	Trend          string             `json:"trend"`
	High           float64            `json:"swing_high"`
	Low            float64            `json:"swing_low"`
	Levels         map[string]float64 `json:"levels"`
	NearestLevel   string             `json:"nearest_level"`
	CurrentPrice   float64            `json:"current_price"`
	Interpretation string             `json:"interpretation"`
}

var fibRatios = []struct {
	name  string
	ratio float64
}{
	{"0.0", 0}, {"23.6", 0.236}, {"38.2", 0.382}, {"50.0", 0.5},
	{"61.8", 0.618}, {"78.6", 0.786}, {"100.0", 1},
}

// Fibonacci projects retracement levels over the window's swing range,
// anchored by the direction of the move. An empty trend derives the
// direction from the window's first and last close; "up" or "down"
// forces the anchoring.
func Fibonacci(candles []domain.Candle, trend string, _ Thresholds) (*FibonacciResult, error) {
	if len(candles) < 2 {
		return nil, errShortSeries("fibonacci", 2, len(candles))
	}
	hh, ll := windowHighLow(candles)
	span := hh - ll
	if span == 0 {
		return nil, &domain.DataUnavailableError{Message: "flat price range, no retracement levels"}
	}

	switch strings.ToLower(trend) {
	case "up":
		trend = "UP"
	case "down":
		trend = "DOWN"
	case "":
		trend = "DOWN"
		if candles[len(candles)-1].Close > candles[0].Close {
			trend = "UP"
		}
	default:
		return nil, &domain.ValidationError{Field: "trend", Message: "must be up or down"}
	}

	levels := make(map[string]float64, len(fibRatios))
	for _, fr := range fibRatios {
		if trend == "UP" {
			levels[fr.name] = round(hh-span*fr.ratio, 6)
		} else {
			levels[fr.name] = round(ll+span*fr.ratio, 6)
		}
	}

	price := lastClose(candles)
	nearest := "0.0"
	best := math.Inf(1)
	for name, level := range levels {
		if d := math.Abs(price - level); d < best {
			best = d
			nearest = name
		}
	}

	return &FibonacciResult{
		Trend:          trend,
		High:           round(hh, 6),
		Low:            round(ll, 6),
		Levels:         levels,
		NearestLevel:   nearest,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("%s trend, price nearest the %s%% retracement", trend, nearest),
	}, nil
}
