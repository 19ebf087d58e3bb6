package web_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylenest/club/internal/bot"
	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/db"
	"github.com/stylenest/club/internal/ledger"
	"github.com/stylenest/club/internal/payments"
	"github.com/stylenest/club/internal/subscription"
	"github.com/stylenest/club/internal/web"
)

type nullMessenger struct{}

func (nullMessenger) SendMessage(context.Context, int64, string, any) error { return nil }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := ledger.NewStore(gdb)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		WayForPay: config.WayForPayConfig{MerchantSecret: "gateway-secret", Currency: "UAH"},
	}

	lifecycle := subscription.NewManager(log, store, nil, 0)
	proc := payments.NewProcessor(log, store, lifecycle, nullMessenger{}, cfg)
	disp := bot.NewDispatcher(log, store, nil, bot.NewClient("test-token"), cfg)

	srv := httptest.NewServer(web.Router(log, proc, disp, "hook-secret"))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// The gateway retries any non-accept answer forever, so even garbage gets
// HTTP 200 {"status":"accept"}.
func TestGatewayCallback_AlwaysAccepts(t *testing.T) {
	srv := newServer(t)
	for _, path := range []string{"/wfp/callback", "/wfp/callback/"} {
		resp := post(t, srv.URL+path, "definitely not json")
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path %s", path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "accept", body["status"])
		assert.Equal(t, "", body["orderReference"])
	}
}

func TestGatewayCallback_EchoesOrderReference(t *testing.T) {
	srv := newServer(t)
	// Parseable but unsigned: not applied, still accepted and echoed.
	resp := post(t, srv.URL+"/wfp/callback", `{"orderReference":"tg42_1_1m","transactionStatus":"Approved"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "accept", body["status"])
	assert.Equal(t, "tg42_1_1m", body["orderReference"])
}

func TestTelegramWebhook_SecretMismatch(t *testing.T) {
	srv := newServer(t)
	resp := post(t, srv.URL+"/tg/webhook/wrong-secret", `{}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTelegramWebhook_BadBody(t *testing.T) {
	srv := newServer(t)
	resp := post(t, srv.URL+"/tg/webhook/hook-secret", "{")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTelegramWebhook_EmptyUpdate(t *testing.T) {
	srv := newServer(t)
	resp := post(t, srv.URL+"/tg/webhook/hook-secret", `{"update_id":1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
