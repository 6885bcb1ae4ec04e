package ta

import (
	"fmt"
	"math"

	"crypto-trading-desk/internal/domain"
)

type RSIResult struct {
	Value          float64 `json:"rsi"`
	Signal         string  `json:"signal"`
	Trend          string  `json:"trend"`
	Period         int     `json:"period"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// RSI computes the relative strength index from rolling-mean gains and
// losses over the last period bars.
func RSI(candles []domain.Candle, period int, th Thresholds) (*RSIResult, error) {
	if len(candles) < period+1 {
		return nil, errShortSeries("RSI", period+1, len(candles))
	}
	series := rsiSeries(closes(candles), period)
	curr := series[len(series)-1]

	signal := "BEARISH"
	switch {
	case curr > th.RSI.Overbought:
		signal = "OVERBOUGHT"
	case curr < th.RSI.Oversold:
		signal = "OVERSOLD"
	case curr > th.RSI.Bullish:
		signal = "BULLISH"
	}

	trend := "FLAT"
	if len(series) >= 3 && !math.IsNaN(series[len(series)-3]) {
		back := series[len(series)-3]
		if curr > back {
			trend = "RISING"
		} else if curr < back {
			trend = "FALLING"
		}
	}

	return &RSIResult{
		Value:          round(curr, 2),
		Signal:         signal,
		Trend:          trend,
		Period:         period,
		CurrentPrice:   lastClose(candles),
		Interpretation: fmt.Sprintf("RSI at %.2f is %s with %s momentum", curr, signal, trend),
	}, nil
}

// rsiSeries uses simple rolling averages of gains and losses, with the
// zero-loss window pinned to 100.
func rsiSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) < period+1 {
		return out
	}
	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}
	var gainSum, lossSum float64
	for i := 1; i < len(values); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i >= period {
			if lossSum == 0 {
				out[i] = 100
				continue
			}
			rs := gainSum / lossSum
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

type MACDResult struct {
	MACD           float64 `json:"macd"`
	Signal         float64 `json:"signal"`
	Histogram      float64 `json:"histogram"`
	Crossover      string  `json:"crossover"`
	Trend          string  `json:"trend"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

// MACD computes the fast/slow EMA spread, its signal line, and detects a
// histogram sign flip between the last two bars.
func MACD(candles []domain.Candle, fast, slow, signalPeriod int, _ Thresholds) (*MACDResult, error) {
	need := slow + signalPeriod
	if len(candles) < need {
		return nil, errShortSeries("MACD", need, len(candles))
	}
	values := closes(candles)
	macdLine, signalLine := macdSeries(values, fast, slow, signalPeriod)

	n := len(values)
	currHist := macdLine[n-1] - signalLine[n-1]
	prevHist := macdLine[n-2] - signalLine[n-2]

	crossover := "NONE"
	if prevHist <= 0 && currHist > 0 {
		crossover = "BULLISH_CROSSOVER"
	} else if prevHist >= 0 && currHist < 0 {
		crossover = "BEARISH_CROSSOVER"
	}

	trend := "BEARISH"
	if currHist > 0 {
		trend = "BULLISH"
	}

	return &MACDResult{
		MACD:           round(macdLine[n-1], 6),
		Signal:         round(signalLine[n-1], 6),
		Histogram:      round(currHist, 6),
		Crossover:      crossover,
		Trend:          trend,
		CurrentPrice:   lastClose(candles),
		Interpretation: fmt.Sprintf("MACD is %s, crossover: %s", trend, crossover),
	}, nil
}

func macdSeries(values []float64, fast, slow, signal int) (macdLine, signalLine []float64) {
	fastEMA := emaSeries(values, fast)
	slowEMA := emaSeries(values, slow)
	macdLine = make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = emaSeries(macdLine, signal)
	return macdLine, signalLine
}

type StochasticResult struct {
	K              float64 `json:"k"`
	D              float64 `json:"d"`
	Signal         string  `json:"signal"`
	Interpretation string  `json:"interpretation"`
}

// Stochastic computes %K over the lookback window and %D as its smoothed
// moving average.
func Stochastic(candles []domain.Candle, period, smoothing int, th Thresholds) (*StochasticResult, error) {
	if len(candles) < period+smoothing {
		return nil, errShortSeries("stochastic", period+smoothing, len(candles))
	}
	kSeries := stochasticK(candles, period)
	var valid []float64
	for _, v := range kSeries {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	k := valid[len(valid)-1]
	d := sma(valid, smoothing)

	signal := "NEUTRAL"
	switch {
	case k > th.Stochastic.Overbought:
		signal = "OVERBOUGHT"
	case k < th.Stochastic.Oversold:
		signal = "OVERSOLD"
	}

	return &StochasticResult{
		K:              round(k, 2),
		D:              round(d, 2),
		Signal:         signal,
		Interpretation: fmt.Sprintf("Stochastic %%K at %.2f is %s", k, signal),
	}, nil
}

func stochasticK(candles []domain.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := period - 1; i < len(candles); i++ {
		hh, ll := windowHighLow(candles[i-period+1 : i+1])
		if hh == ll {
			out[i] = 50
			continue
		}
		out[i] = 100 * (candles[i].Close - ll) / (hh - ll)
	}
	return out
}

func windowHighLow(window []domain.Candle) (hh, ll float64) {
	hh = math.Inf(-1)
	ll = math.Inf(1)
	for _, c := range window {
		hh = math.Max(hh, c.High)
		ll = math.Min(ll, c.Low)
	}
	return hh, ll
}

type WilliamsRResult struct {
	Value          float64 `json:"williams_r"`
	Signal         string  `json:"signal"`
	Momentum       string  `json:"momentum"`
	Period         int     `json:"period"`
	CurrentPrice   float64 `json:"current_price"`
	Interpretation string  `json:"interpretation"`
}

func WilliamsR(candles []domain.Candle, period int, th Thresholds) (*WilliamsRResult, error) {
	if len(candles) < period {
		return nil, errShortSeries("Williams %R", period, len(candles))
	}
	hh, ll := windowHighLow(candles[len(candles)-period:])
	price := lastClose(candles)

	var wr float64
	if hh == ll {
		wr = -50
	} else {
		wr = -100 * (hh - price) / (hh - ll)
	}

	signal := "NEUTRAL"
	switch {
	case wr > th.WilliamsR.Overbought:
		signal = "OVERBOUGHT"
	case wr < th.WilliamsR.Oversold:
		signal = "OVERSOLD"
	}
	momentum := "BEARISH"
	if wr > -50 {
		momentum = "BULLISH"
	}

	return &WilliamsRResult{
		Value:          round(wr, 2),
		Signal:         signal,
		Momentum:       momentum,
		Period:         period,
		CurrentPrice:   price,
		Interpretation: fmt.Sprintf("Williams %%R at %.2f is %s with %s momentum", wr, signal, momentum),
	}, nil
}

type CCIResult struct {
	Value          float64 `json:"cci"`
	Signal         string  `json:"signal"`
	Interpretation string  `json:"interpretation"`
}

// CCI measures the typical-price deviation from its moving average, scaled
// by 0.015 times the mean absolute deviation.
func CCI(candles []domain.Candle, period int, th Thresholds) (*CCIResult, error) {
	if len(candles) < period {
		return nil, errShortSeries("CCI", period, len(candles))
	}
	tps := typicalPrices(candles)
	window := tps[len(tps)-period:]
	m := mean(window)
	var dev float64
	for _, v := range window {
		dev += math.Abs(v - m)
	}
	dev /= float64(period)

	var cci float64
	if dev != 0 {
		cci = (window[len(window)-1] - m) / (0.015 * dev)
	}

	signal := "NEUTRAL"
	switch {
	case cci > th.CCI.Overbought:
		signal = "OVERBOUGHT"
	case cci < th.CCI.Oversold:
		signal = "OVERSOLD"
	case cci > 0:
		signal = "BULLISH"
	case cci < 0:
		signal = "BEARISH"
	}

	return &CCIResult{
		Value:          round(cci, 2),
		Signal:         signal,
		Interpretation: fmt.Sprintf("CCI at %.2f is %s", cci, signal),
	}, nil
}

type ROCResult struct {
	Value          float64 `json:"roc"`
	Signal         string  `json:"signal"`
	Interpretation string  `json:"interpretation"`
}

func ROC(candles []domain.Candle, period int, _ Thresholds) (*ROCResult, error) {
	if len(candles) < period+1 {
		return nil, errShortSeries("ROC", period+1, len(candles))
	}
	values := closes(candles)
	base := values[len(values)-1-period]
	if base == 0 {
		return nil, &domain.DataUnavailableError{Message: "ROC base price is zero"}
	}
	roc := (values[len(values)-1] - base) / base * 100

	signal := "NEUTRAL"
	switch {
	case roc > 5:
		signal = "STRONG_BULLISH"
	case roc > 0:
		signal = "BULLISH"
	case roc < -5:
		signal = "STRONG_BEARISH"
	case roc < 0:
		signal = "BEARISH"
	}

	return &ROCResult{
		Value:          round(roc, 2),
		Signal:         signal,
		Interpretation: fmt.Sprintf("Price changed %.2f%% over %d bars, %s", roc, period, signal),
	}, nil
}

type MomentumBundle struct {
	Stochastic     *StochasticResult `json:"stochastic"`
	WilliamsR      *WilliamsRResult  `json:"williams_r"`
	ROC            *ROCResult        `json:"roc"`
	CCI            *CCIResult        `json:"cci"`
	Overall        string            `json:"overall_momentum"`
	CurrentPrice   float64           `json:"current_price"`
	Interpretation string            `json:"interpretation"`
}

// Momentum evaluates the four oscillators together and votes an overall
// stance. An oversold reading counts toward the bullish side since it
// anticipates a reversal.
func Momentum(candles []domain.Candle, th Thresholds) (*MomentumBundle, error) {
	stoch, err := Stochastic(candles, 14, 3, th)
	if err != nil {
		return nil, err
	}
	wr, err := WilliamsR(candles, 14, th)
	if err != nil {
		return nil, err
	}
	roc, err := ROC(candles, 12, th)
	if err != nil {
		return nil, err
	}
	cci, err := CCI(candles, 20, th)
	if err != nil {
		return nil, err
	}

	var bullish, bearish int
	vote := func(signal string) {
		switch signal {
		case "OVERSOLD", "BULLISH", "STRONG_BULLISH":
			bullish++
		case "OVERBOUGHT", "BEARISH", "STRONG_BEARISH":
			bearish++
		}
	}
	vote(stoch.Signal)
	vote(wr.Signal)
	vote(roc.Signal)
	vote(cci.Signal)

	overall := "NEUTRAL"
	if bullish > bearish {
		overall = "BULLISH"
	} else if bearish > bullish {
		overall = "BEARISH"
	}

	return &MomentumBundle{
		Stochastic:     stoch,
		WilliamsR:      wr,
		ROC:            roc,
		CCI:            cci,
		Overall:        overall,
		CurrentPrice:   lastClose(candles),
		Interpretation: fmt.Sprintf("Momentum oscillators vote %d bullish vs %d bearish: %s", bullish, bearish, overall),
	}, nil
}
