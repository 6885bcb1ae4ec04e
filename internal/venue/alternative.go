package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"crypto-trading-desk/internal/domain"
)

const alternativeMeBaseURL = "https://api.alternative.me"

// AlternativeMe serves the fear-and-greed market sentiment index.
type AlternativeMe struct {
	http    *http.Client
	baseURL string
}

func NewAlternativeMe() *AlternativeMe {
	return &AlternativeMe{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: alternativeMeBaseURL,
	}
}

// FearGreed returns up to limit daily readings, newest first as the
// index publishes them. Values arrive as strings and parse into ints;
// malformed rows are dropped.
func (a *AlternativeMe) FearGreed(ctx context.Context, limit int) ([]domain.FearGreedPoint, error) {
	if limit <= 0 {
		limit = 30
	}
	url := fmt.Sprintf("%s/fng/?limit=%d", a.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "alternative.me", Op: "fng", Err: err}
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "alternative.me", Op: "fng", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{Venue: "alternative.me", Op: "fng", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.UpstreamError{Venue: "alternative.me", Op: "fng", Err: err}
	}

	out := make([]domain.FearGreedPoint, 0, len(payload.Data))
	for _, row := range payload.Data {
		value, err := strconv.Atoi(row.Value)
		if err != nil {
			continue
		}
		ts, _ := strconv.ParseInt(row.Timestamp, 10, 64)
		out = append(out, domain.FearGreedPoint{
			Value:          value,
			Classification: row.Classification,
			Time:           time.Unix(ts, 0).UTC(),
		})
	}
	if len(out) == 0 {
		return nil, &domain.DataUnavailableError{Message: "no fear/greed readings returned"}
	}
	return out, nil
}
