package ta

import (
	"fmt"
	"math"
	"sort"

	"crypto-trading-desk/internal/domain"
)

type OBVResult struct {
	OBV            float64 `json:"obv"`
	OBVTrend       string  `json:"obv_trend"`
	PriceTrend     string  `json:"price_trend"`
	Divergence     string  `json:"divergence"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// OBV accumulates signed volume and compares the regression slope of the
// last 20 OBV values against the matching price slope.
func OBV(candles []domain.Candle, _ Thresholds) (*OBVResult, error) {
	const trendWindow = 20
	if len(candles) < trendWindow+1 {
		return nil, errShortSeries("OBV", trendWindow+1, len(candles))
	}

	obv := obvSeries(candles)
	values := closes(candles)

	obvSlope := slope(obv[len(obv)-trendWindow:])
	priceSlope := slope(values[len(values)-trendWindow:])

	trendLabel := func(s float64) string {
		if s > 0 {
			return "RISING"
		}
		if s < 0 {
			return "FALLING"
		}
		return "FLAT"
	}

	divergence := "NO_DIVERGENCE"
	if priceSlope > 0 && obvSlope < 0 {
		divergence = "BEARISH_DIVERGENCE"
	} else if priceSlope < 0 && obvSlope > 0 {
		divergence = "BULLISH_DIVERGENCE"
	}

	return &OBVResult{
		OBV:            round(obv[len(obv)-1], 2),
		OBVTrend:       trendLabel(obvSlope),
		PriceTrend:     trendLabel(priceSlope),
		Divergence:     divergence,
		CurrentPrice:   lastClose(candles),
		Interpretation: fmt.Sprintf("OBV is %s while price is %s: %s", trendLabel(obvSlope), trendLabel(priceSlope), divergence),
	}, nil
}

func obvSeries(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			out[i] = out[i-1] + candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			out[i] = out[i-1] - candles[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

type MFIResult struct {
	Value          float64 `json:"mfi"`
	Signal         string  `json:"signal"`
	Period         int     `json:"period"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// MFI is a volume-weighted RSI over typical-price money flow. A window with
// zero negative flow pins the index to 100.
func MFI(candles []domain.Candle, period int, th Thresholds) (*MFIResult, error) {
	if len(candles) < period+1 {
		return nil, errShortSeries("MFI", period+1, len(candles))
	}
	tps := typicalPrices(candles)

	var posSum, negSum float64
	for i := len(candles) - period; i < len(candles); i++ {
		flow := tps[i] * candles[i].Volume
		if tps[i] > tps[i-1] {
			posSum += flow
		} else if tps[i] < tps[i-1] {
			negSum += flow
		}
	}

	var mfi float64
	if negSum == 0 {
		mfi = 100
	} else {
		mfi = 100 - 100/(1+posSum/negSum)
	}

	signal := "NEUTRAL"
	switch {
	case mfi > th.MFI.Overbought:
		signal = "OVERBOUGHT"
	case mfi < th.MFI.Oversold:
		signal = "OVERSOLD"
	}

	return &MFIResult{
		Value:          round(mfi, 2),
		Signal:         signal,
		Period:         period,
		CurrentPrice:   lastClose(candles),
		Interpretation: fmt.Sprintf("MFI at %.2f is %s", mfi, signal),
	}, nil
}

type VWAPResult struct {
	VWAP           float64 `json:"vwap"`
	UpperBand1     float64 `json:"upper_band_1"`
	LowerBand1     float64 `json:"lower_band_1"`
	UpperBand2     float64 `json:"upper_band_2"`
	LowerBand2     float64 `json:"lower_band_2"`
	Signal         string  `json:"signal"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// VWAP is the volume-weighted average of typical price with bands at one
// and two volume-weighted standard deviations.
func VWAP(candles []domain.Candle, _ Thresholds) (*VWAPResult, error) {
	if len(candles) < 2 {
		return nil, errShortSeries("VWAP", 2, len(candles))
	}
	tps := typicalPrices(candles)

	var pvSum, volSum float64
	for i, c := range candles {
		pvSum += tps[i] * c.Volume
		volSum += c.Volume
	}
	if volSum == 0 {
		return nil, &domain.DataUnavailableError{Message: "total volume is zero, VWAP undefined"}
	}
	vwap := pvSum / volSum

	var variance float64
	for i, c := range candles {
		d := tps[i] - vwap
		variance += c.Volume * d * d
	}
	sigma := math.Sqrt(variance / volSum)

	price := lastClose(candles)
	signal := "BELOW_VWAP"
	switch {
	case price > vwap+2*sigma:
		signal = "OVERBOUGHT"
	case price < vwap-2*sigma:
		signal = "OVERSOLD"
	case price > vwap:
		signal = "ABOVE_VWAP"
	}

	return &VWAPResult{
		VWAP:           round(vwap, 6),
		UpperBand1:     round(vwap+sigma, 6),
		LowerBand1:     round(vwap-sigma, 6),
		UpperBand2:     round(vwap+2*sigma, 6),
		LowerBand2:     round(vwap-2*sigma, 6),
		Signal:         signal,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("Price %.6g vs VWAP %.6g: %s", price, vwap, signal),
	}, nil
}

type VolumeBin struct {
	PriceLow  float64 `json:"price_low"`
	PriceHigh float64 `json:"price_high"`
	Volume    float64 `json:"volume"`
	Percent   float64 `json:"percent_of_total"`
}

type VolumeProfileResult struct {
	Bins            []VolumeBin `json:"bins"`
	PointOfControl  float64     `json:"point_of_control"`
	HighVolumeZones []VolumeBin `json:"high_volume_zones"`
	VPT             float64     `json:"vpt"`
	Divergence      string      `json:"divergence"`
	CurrentPrice    float64     `json:"current_price"`
	Interpretation  string      `json:"interpretation"`
}

// VolumeProfile buckets traded volume into equal-width price bins and marks
// the top quintile as high-volume zones.
func VolumeProfile(candles []domain.Candle, _ Thresholds) (*VolumeProfileResult, error) {
	if len(candles) < 10 {
		return nil, errShortSeries("volume profile", 10, len(candles))
	}
	values := closes(candles)

	minPrice, maxPrice := values[0], values[0]
	var totalVol float64
	for i, v := range values {
		minPrice = math.Min(minPrice, v)
		maxPrice = math.Max(maxPrice, v)
		totalVol += candles[i].Volume
	}
	if totalVol == 0 {
		return nil, &domain.DataUnavailableError{Message: "total volume is zero, profile undefined"}
	}
	numBins := len(candles) / 2
	if numBins > 20 {
		numBins = 20
	}
	if maxPrice == minPrice {
		numBins = 1
	}
	width := (maxPrice - minPrice) / float64(numBins)

	bins := make([]VolumeBin, numBins)
	for i := range bins {
		bins[i].PriceLow = round(minPrice+float64(i)*width, 6)
		bins[i].PriceHigh = round(minPrice+float64(i+1)*width, 6)
	}
	for i, v := range values {
		idx := 0
		if width > 0 {
			idx = int((v - minPrice) / width)
			if idx >= numBins {
				idx = numBins - 1
			}
		}
		bins[idx].Volume += candles[i].Volume
	}
	for i := range bins {
		bins[i].Percent = round(bins[i].Volume/totalVol*100, 2)
		bins[i].Volume = round(bins[i].Volume, 2)
	}

	// Point of control and top-quintile zones by volume.
	sorted := make([]VolumeBin, len(bins))
	copy(sorted, bins)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Volume > sorted[j].Volume })
	poc := (sorted[0].PriceLow + sorted[0].PriceHigh) / 2
	zoneCount := (len(sorted) + 4) / 5
	zones := sorted[:zoneCount]

	// Volume-price trend running sum.
	var vpt float64
	for i := 1; i < len(candles); i++ {
		if values[i-1] != 0 {
			vpt += candles[i].Volume * (values[i] - values[i-1]) / values[i-1]
		}
	}

	divergence := divergenceOverWindow(candles, 5)

	return &VolumeProfileResult{
		Bins:            bins,
		PointOfControl:  round(poc, 6),
		HighVolumeZones: zones,
		VPT:             round(vpt, 2),
		Divergence:      divergence,
		CurrentPrice:    lastClose(candles),
		Interpretation:  fmt.Sprintf("Point of control at %.6g across %d bins, divergence: %s", poc, numBins, divergence),
	}, nil
}

// divergenceOverWindow compares recent price change against the change in
// average volume between the last window and the one before it.
func divergenceOverWindow(candles []domain.Candle, window int) string {
	if len(candles) < 2*window {
		return "NONE"
	}
	values := closes(candles)
	n := len(candles)

	base := values[n-1-window]
	if base == 0 {
		return "NONE"
	}
	priceChange := (values[n-1] - base) / base * 100

	recentVol := mean(volumes(candles[n-window:]))
	olderVol := mean(volumes(candles[n-2*window : n-window]))
	if olderVol == 0 {
		return "NONE"
	}
	volChange := (recentVol - olderVol) / olderVol * 100

	switch {
	case priceChange > 2 && volChange < -10:
		return "BEARISH_DIVERGENCE"
	case priceChange < -2 && volChange > 10:
		return "BULLISH_DIVERGENCE"
	}
	return "NONE"
}
