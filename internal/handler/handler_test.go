package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace/noop"

	"crypto-trading-desk/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	h := New(noop.NewTracerProvider().Tracer("test"), "crypto-trading-desk", "1.0.0", 41,
		[]string{"stdio"}, []string{"binance", "bybit", "coingecko-ohlc", "coingecko-chart"})
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func TestHealth(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Status string `json:"status"`
		Server string `json:"server"`
		Tools  int    `json:"tools"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Status != "ok" || body.Server != "crypto-trading-desk" || body.Tools != 41 {
		t.Fatalf("unexpected health payload: %+v", body)
	}
}

func TestGetVenues(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/venues", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Spot          []string `json:"spot"`
		Futures       []string `json:"futures"`
		CandleSources []string `json:"candle_sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Spot) != len(domain.SpotVenues) {
		t.Fatalf("expected %d spot venues, got %d", len(domain.SpotVenues), len(body.Spot))
	}
	if len(body.Futures) != len(domain.FuturesVenues) {
		t.Fatalf("expected %d futures venues, got %d", len(domain.FuturesVenues), len(body.Futures))
	}
	if len(body.CandleSources) == 0 {
		t.Fatal("expected candle sources")
	}
}

func TestGetStatus(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Server     string   `json:"server"`
		Version    string   `json:"version"`
		Transports []string `json:"transports"`
		Uptime     int64    `json:"uptime_seconds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Version != "1.0.0" || len(body.Transports) != 1 || body.Uptime < 0 {
		t.Fatalf("unexpected status payload: %+v", body)
	}
}
