package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crypto-trading-desk/internal/domain"
)

const okxBaseURL = "https://www.okx.com"

// OKX serves perpetual-swap funding data from the public v5 API.
type OKX struct {
	http    *http.Client
	baseURL string
}

func NewOKX() *OKX {
	return &OKX{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: okxBaseURL,
	}
}

func (o *OKX) Name() string { return "okx" }

func (o *OKX) instrument(symbol string) string { return symbol + "-USDT-SWAP" }

func (o *OKX) FundingRate(ctx context.Context, symbol string) (*domain.FundingRate, error) {
	url := fmt.Sprintf("%s/api/v5/public/funding-rate?instId=%s", o.baseURL, o.instrument(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "okx", Op: "funding-rate", Err: err}
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "okx", Op: "funding-rate", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{Venue: "okx", Op: "funding-rate", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var payload struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			FundingRate     string `json:"fundingRate"`
			NextFundingTime string `json:"nextFundingTime"`
			FundingTime     string `json:"fundingTime"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.UpstreamError{Venue: "okx", Op: "funding-rate", Err: err}
	}
	if payload.Code != "0" || len(payload.Data) == 0 {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Message: "no okx funding rate returned"}
	}

	d := payload.Data[0]
	return &domain.FundingRate{
		Exchange:        "okx",
		Symbol:          symbol,
		Rate:            parseFloat(d.FundingRate),
		NextFundingTime: time.UnixMilli(int64(parseFloat(d.NextFundingTime))).UTC(),
		Time:            time.Now().UTC(),
	}, nil
}
