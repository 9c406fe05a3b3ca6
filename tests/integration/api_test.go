package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	httpHandler "points-ledger/internal/adapter/http/handler"
	"points-ledger/internal/adapter/storage/memory"
	redisStorage "points-ledger/internal/adapter/storage/redis"
	"points-ledger/internal/core/ports"
	"points-ledger/internal/service"
	"points-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack on the in-memory store,
// optionally backed by miniredis for the balances cache and rate
// limiting. This exercises the real HTTP layer, middleware, handlers,
// and service end-to-end.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
}

func newTestApp(t *testing.T, withRedis bool) *testApp {
	t.Helper()

	store := memory.NewStore()
	log := logger.New("error", false)

	var (
		cache          ports.BalanceCache
		rateLimitStore *redisStorage.RateLimitStore
		mr             *miniredis.Miniredis
	)
	if withRedis {
		var err error
		mr, err = miniredis.Run()
		require.NoError(t, err)
		rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		cache = redisStorage.NewBalanceCache(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
	}

	ledgerSvc := service.NewLedgerService(store, cache, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		RateLimitStore: rateLimitStore,
		Logger:         log,
	})

	return &testApp{
		server: httptest.NewServer(router),
		redis:  mr,
	}
}

func (a *testApp) close() {
	a.server.Close()
	if a.redis != nil {
		a.redis.Close()
	}
}

func (a *testApp) post(t *testing.T, path string, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(a.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (a *testApp) addPoints(t *testing.T, payer string, points int64, timestamp string) {
	t.Helper()
	resp, _ := a.post(t, "/api/v1/points/add",
		fmt.Sprintf(`{"payer":%q,"points":%d,"timestamp":%q}`, payer, points, timestamp))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (a *testApp) balances(t *testing.T) map[string]int64 {
	t.Helper()
	resp, body := a.get(t, "/api/v1/points/balances")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "balances payload: %v", body)
	out := make(map[string]int64, len(data))
	for payer, v := range data {
		out[payer] = int64(v.(float64))
	}
	return out
}

func TestIntegration_AddSpendBalances(t *testing.T) {
	app := newTestApp(t, false)
	defer app.close()

	// The canonical multi-payer exercise
	app.addPoints(t, "DANNON", 300, "2020-10-31T10:00:00Z")
	app.addPoints(t, "UNILEVER", 200, "2020-10-31T11:00:00Z")
	app.addPoints(t, "MILLER COORS", 10000, "2020-11-01T14:00:00Z")
	app.addPoints(t, "DANNON", 1000, "2020-11-02T14:00:00Z")

	// A spend consumes DANNON's first 200 oldest-first
	resp, body := app.post(t, "/api/v1/points/spend", `{"points":200}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "DANNON", first["payer"])
	assert.Equal(t, float64(-200), first["points"])

	resp, body = app.post(t, "/api/v1/points/spend", `{"points":5000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	spent := make(map[string]int64)
	for _, raw := range body["data"].([]any) {
		item := raw.(map[string]any)
		spent[item["payer"].(string)] = int64(item["points"].(float64))
	}
	assert.Equal(t, map[string]int64{
		"DANNON":       -100,
		"UNILEVER":     -200,
		"MILLER COORS": -4700,
	}, spent)

	assert.Equal(t, map[string]int64{
		"DANNON":       1000,
		"UNILEVER":     0,
		"MILLER COORS": 5300,
	}, app.balances(t))
}

func TestIntegration_AddValidation(t *testing.T) {
	app := newTestApp(t, false)
	defer app.close()

	cases := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"missing payer", `{"points":100,"timestamp":"2020-10-31T10:00:00Z"}`, 400, "LED_001"},
		{"points as string", `{"payer":"DANNON","points":"100","timestamp":"2020-10-31T10:00:00Z"}`, 400, "LED_002"},
		{"fractional points", `{"payer":"DANNON","points":100.5,"timestamp":"2020-10-31T10:00:00Z"}`, 400, "LED_002"},
		{"bad timestamp", `{"payer":"DANNON","points":100,"timestamp":"Oct 31 2020"}`, 400, "LED_003"},
		{"future timestamp", `{"payer":"DANNON","points":100,"timestamp":"2099-01-01T00:00:00Z"}`, 400, "LED_004"},
		{"negative points", `{"payer":"DANNON","points":-100,"timestamp":"2020-10-31T10:00:00Z"}`, 400, "LED_007"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := app.post(t, "/api/v1/points/add", tc.body)
			assert.Equal(t, tc.wantCode, resp.StatusCode)
			assert.Equal(t, tc.wantErr, body["error_code"])
		})
	}

	// Nothing was recorded
	assert.Empty(t, app.balances(t))
}

func TestIntegration_SpendRejections(t *testing.T) {
	app := newTestApp(t, false)
	defer app.close()

	app.addPoints(t, "DANNON", 100, "2020-10-31T10:00:00Z")

	resp, body := app.post(t, "/api/v1/points/spend", `{"points":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "LED_008", body["error_code"])

	resp, body = app.post(t, "/api/v1/points/spend", `{"points":500}`)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "LED_009", body["error_code"])

	// Rejected spends leave the ledger untouched
	assert.Equal(t, map[string]int64{"DANNON": 100}, app.balances(t))
}

func TestIntegration_BalancesWithRedisCache(t *testing.T) {
	app := newTestApp(t, true)
	defer app.close()

	app.addPoints(t, "DANNON", 300, "2020-10-31T10:00:00Z")

	// First read computes and populates the cache, second read hits it.
	assert.Equal(t, map[string]int64{"DANNON": 300}, app.balances(t))
	assert.Equal(t, map[string]int64{"DANNON": 300}, app.balances(t))

	// A write invalidates, so the next read reflects the new state.
	app.addPoints(t, "DANNON", 200, "2020-11-01T10:00:00Z")
	assert.Equal(t, map[string]int64{"DANNON": 500}, app.balances(t))

	// Spends invalidate too.
	resp, _ := app.post(t, "/api/v1/points/spend", `{"points":400}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int64{"DANNON": 100}, app.balances(t))
}

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t, false)
	defer app.close()

	resp, body := app.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
