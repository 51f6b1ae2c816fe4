package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/JustRahman/cross-chain-bridghe/internal/bridge"
	"github.com/JustRahman/cross-chain-bridghe/internal/bridge/bridgetest"
	"github.com/JustRahman/cross-chain-bridghe/internal/config"
	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

func testConfig() config.Config {
	return config.Config{
		Port:                    "0",
		RequestTimeout:          5 * time.Second,
		AdapterTimeout:          time.Second,
		CacheBackend:            config.CacheBackendMemory,
		CacheTTL:                30 * time.Second,
		CacheCapacity:           100,
		ScoreSchedule:           "@hourly",
		ScoreWindow:             168 * time.Hour,
		IntermediateChains:      []string{"arbitrum"},
		EnableCircuitBreaker:    true,
		CircuitFailureThreshold: 3,
		CircuitResetDelay:       time.Minute,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()

	healthy := model.BridgeHealth{IsHealthy: true, IsActive: true}
	adapters := []bridge.Adapter{
		&bridgetest.Adapter{AdapterName: "across", Quote: bridgetest.Fixed(bridgetest.NewQuote("across", 5, 120)), Health: healthy},
		&bridgetest.Adapter{AdapterName: "hop", Quote: bridgetest.Fixed(bridgetest.NewQuote("hop", 10, 600)), Health: healthy},
		&bridgetest.Adapter{
			AdapterName: "wormhole",
			Quote:       bridgetest.Fixed(bridgetest.NewQuote("wormhole", 1, 60)),
			Supports:    func(src, dst string) bool { return src == "solana" || dst == "solana" },
		},
	}

	reg := prometheus.NewRegistry()
	deps, err := assemble(context.Background(), cfg, adapters, reg)
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	srv := httptest.NewServer(NewServer(cfg, deps, reg).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

const routeBody = `{"source_chain":"ethereum","destination_chain":"arbitrum","source_token":"0xa0b8","destination_token":"0xaf88","amount":"1000000"}`

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, body := do(t, http.MethodGet, srv.URL+"/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", gjson.GetBytes(body, "status").String())
	assert.Equal(t, int64(3), gjson.GetBytes(body, "bridges").Int())
}

func TestHandleRoutes_RankedBestFirst(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, body := do(t, http.MethodPost, srv.URL+"/v1/routes", routeBody)
	require.Equal(t, http.StatusOK, status, string(body))

	assert.Equal(t, int64(2), gjson.GetBytes(body, "count").Int())
	assert.Equal(t, "across", gjson.GetBytes(body, "routes.0.quote.protocol").String())
	assert.Equal(t, "hop", gjson.GetBytes(body, "routes.1.quote.protocol").String())
	assert.Greater(t, gjson.GetBytes(body, "routes.0.scores.total").Float(), gjson.GetBytes(body, "routes.1.scores.total").Float())
}

func TestHandleRoutes_CustomPreferences(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body := `{"source_chain":"ethereum","destination_chain":"arbitrum","source_token":"0xa0b8","amount":"1000000","preferences":{"cost_weight":0,"speed_weight":1}}`
	status, raw := do(t, http.MethodPost, srv.URL+"/v1/routes", body)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "across", gjson.GetBytes(raw, "routes.0.quote.protocol").String())
	assert.InDelta(t, 80, gjson.GetBytes(raw, "routes.0.scores.total").Float(), 0.001)
}

func TestHandleRoutes_BadRequests(t *testing.T) {
	srv := newTestServer(t, testConfig())

	cases := map[string]string{
		"empty body":       ``,
		"malformed":        `{"source_chain":`,
		"unknown field":    `{"source_chain":"ethereum","bogus":1}`,
		"missing chain":    `{"source_chain":"ethereum","source_token":"0xa0b8","amount":"1"}`,
		"fractional":       `{"source_chain":"ethereum","destination_chain":"arbitrum","source_token":"0xa0b8","amount":"1.5"}`,
		"zero amount":      `{"source_chain":"ethereum","destination_chain":"arbitrum","source_token":"0xa0b8","amount":"0"}`,
		"bad address":      `{"source_chain":"ethereum","destination_chain":"arbitrum","source_token":"0xa0b8","amount":"1","user_address":"nope"}`,
		"negative weights": `{"source_chain":"ethereum","destination_chain":"arbitrum","source_token":"0xa0b8","amount":"1","preferences":{"cost_weight":-1}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, raw := do(t, http.MethodPost, srv.URL+"/v1/routes", body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "error", gjson.GetBytes(raw, "status").String())
		})
	}
}

func TestHandleRoutes_NoRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body := `{"source_chain":"ethereum","destination_chain":"ethereum","source_token":"0xa0b8","amount":"1000000"}`
	status, _ := do(t, http.MethodPost, srv.URL+"/v1/routes", body)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandleBestRoute(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body := `{"source_chain":"ethereum","destination_chain":"arbitrum","token":"0xa0b8","amount":"1000000","include_multi_hop":false}`
	status, raw := do(t, http.MethodPost, srv.URL+"/v1/routes/best", body)
	require.Equal(t, http.StatusOK, status, string(raw))

	assert.Equal(t, "direct", gjson.GetBytes(raw, "best.route_type").String())
	assert.Equal(t, "across", gjson.GetBytes(raw, "best.quote.protocol").String())
	assert.False(t, gjson.GetBytes(raw, "multi_hop_checked").Bool())
}

func TestHandleBestRoute_Validation(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, _ := do(t, http.MethodPost, srv.URL+"/v1/routes/best", `{"source_chain":"ethereum","destination_chain":"arbitrum","token":"0xa0b8","amount":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodPost, srv.URL+"/v1/routes/best", `{"source_chain":"ethereum","destination_chain":"arbitrum","token":"0xa0b8","amount":"1","max_hops":-1}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleBridgeHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, raw := do(t, http.MethodGet, srv.URL+"/v1/bridges/health", "")
	require.Equal(t, http.StatusOK, status)

	bridges := gjson.GetBytes(raw, "bridges.#.bridge_name").Array()
	require.Len(t, bridges, 3)
	assert.Equal(t, "across", bridges[0].String())
	assert.Equal(t, int64(2), gjson.GetBytes(raw, "healthy").Int())
}

func TestRecordTransactionAndScore(t *testing.T) {
	srv := newTestServer(t, testConfig())

	tx := `{"bridge_name":"Across","source_chain":"ethereum","destination_chain":"arbitrum","status":"completed","actual_cost_usd":"2.5","actual_time_minutes":3}`
	status, raw := do(t, http.MethodPost, srv.URL+"/v1/transactions", tx)
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = do(t, http.MethodGet, srv.URL+"/v1/bridges/across/reliability", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "across", gjson.GetBytes(raw, "bridge_name").String())
	assert.Equal(t, int64(1), gjson.GetBytes(raw, "metrics.total_transactions").Int())
	assert.InDelta(t, 100, gjson.GetBytes(raw, "components.success_rate.score").Float(), 0.001)
}

func TestHandleReliability_MixedCaseName(t *testing.T) {
	srv := newTestServer(t, testConfig())

	tx := `{"bridge_name":"across","source_chain":"ethereum","destination_chain":"arbitrum","status":"completed","actual_time_minutes":3}`
	status, raw := do(t, http.MethodPost, srv.URL+"/v1/transactions", tx)
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = do(t, http.MethodGet, srv.URL+"/v1/bridges/Across/reliability", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.False(t, gjson.GetBytes(raw, "no_data").Bool())
	assert.Equal(t, "across", gjson.GetBytes(raw, "bridge_name").String())
	assert.Equal(t, int64(1), gjson.GetBytes(raw, "metrics.total_transactions").Int())
}

func TestRecordTransaction_Invalid(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, _ := do(t, http.MethodPost, srv.URL+"/v1/transactions", `{"status":"completed"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleReliability_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, _ := do(t, http.MethodGet, srv.URL+"/v1/bridges/unknown/reliability", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, http.MethodGet, srv.URL+"/v1/bridges/hop/reliability?window=soon", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := do(t, http.MethodGet, srv.URL+"/v1/bridges/hop/reliability?window=24h", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, gjson.GetBytes(raw, "no_data").Bool())
}

func TestHandleReliabilityBoard(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, raw := do(t, http.MethodGet, srv.URL+"/v1/bridges/reliability", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, gjson.GetBytes(raw, "scores").IsArray())
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RequestRateLimit = 0.001
	cfg.RequestRateBurst = 1
	srv := newTestServer(t, cfg)

	status, _ := do(t, http.MethodGet, srv.URL+"/v1/bridges/reliability", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, http.MethodGet, srv.URL+"/v1/bridges/reliability", "")
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, status, "health is not rate limited")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, _ := do(t, http.MethodPost, srv.URL+"/v1/routes", routeBody)
	require.Equal(t, http.StatusOK, status)

	status, raw := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.Contains(raw, []byte(`bridge_http_requests_total{route="/v1/routes",status="200"} 1`)))
	assert.True(t, bytes.Contains(raw, []byte(`bridge_adapter_calls_total`)))
}
