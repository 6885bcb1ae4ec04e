package venue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"crypto-trading-desk/internal/domain"
)

func newTestAlternativeMe(handler http.HandlerFunc) (*AlternativeMe, *httptest.Server) {
	srv := httptest.NewServer(handler)
	a := NewAlternativeMe()
	a.baseURL = srv.URL
	return a, srv
}

func TestFearGreedParse(t *testing.T) {
	var gotQuery string
	a, srv := newTestAlternativeMe(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"data":[
			{"value":"39","value_classification":"Fear","timestamp":"1719705600"},
			{"value":"45","value_classification":"Neutral","timestamp":"1719619200"}
		]}`)
	})
	defer srv.Close()

	points, err := a.FearGreed(context.Background(), 2)
	if err != nil {
		t.Fatalf("FearGreed failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(points))
	}
	if points[0].Value != 39 || points[0].Classification != "Fear" {
		t.Errorf("newest reading misparsed: %+v", points[0])
	}
	if !points[0].Time.After(points[1].Time) {
		t.Error("readings should stay newest first")
	}
	if gotQuery != "limit=2" {
		t.Errorf("query: got %s", gotQuery)
	}
}

func TestFearGreedEmptyData(t *testing.T) {
	a, srv := newTestAlternativeMe(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})
	defer srv.Close()

	_, err := a.FearGreed(context.Background(), 10)
	var unavailable *domain.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
}

func TestFearGreedUpstreamStatus(t *testing.T) {
	a, srv := newTestAlternativeMe(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer srv.Close()

	_, err := a.FearGreed(context.Background(), 10)
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}
