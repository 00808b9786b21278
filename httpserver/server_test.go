package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/wingedcap-client/api"
	"github.com/ruteri/wingedcap-client/cryptoutils"
	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub []interfaces.ServerWithMeta) (*httptest.Server, *Handler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	serverKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)

	handler := NewHandler(NewKeyStore(clock.NewMock()), serverKey, hub, logger)
	srv, err := New(&api.HTTPServerConfig{Log: logger}, handler)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.HTTPHandler())
	t.Cleanup(ts.Close)
	return ts, handler
}

func postSealed(t *testing.T, ts *httptest.Server, h *Handler, endpoint string, in, out any) int {
	t.Helper()
	replyKey, err := cryptoutils.GenerateKey()
	require.NoError(t, err)

	env, err := api.SealRequest(h.serverKey.PublicKey(), replyKey.PublicKey(), in)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+endpoint, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode
	}

	var respEnv api.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&respEnv))
	require.NoError(t, api.OpenResponse(replyKey, &respEnv, out))
	return resp.StatusCode
}

func TestSealedEndpoints(t *testing.T) {
	ts, h := newTestServer(t, nil)

	var created api.CreateKeyOutput
	require.Equal(t, http.StatusOK, postSealed(t, ts, h, api.CreateKeyEndpoint, api.CreateKeyInput{Timelock: 60}, &created))
	require.NotEmpty(t, created.ID)

	var bound api.BindKeyOutput
	require.Equal(t, http.StatusOK, postSealed(t, ts, h, api.BindKeyEndpoint, api.BindKeyInput{ID: created.ID, Key: "share"}, &bound))

	var pinged api.PingKeyOutput
	require.Equal(t, http.StatusOK, postSealed(t, ts, h, api.PingKeyEndpoint, api.PingKeyInput{ID: created.ID}, &pinged))
	assert.Equal(t, interfaces.Locked, pinged.State)

	var got api.GetKeyOutput
	require.Equal(t, http.StatusOK, postSealed(t, ts, h, api.GetKeyEndpoint, api.GetKeyInput{ID: created.ID}, &got))
	assert.Equal(t, interfaces.Locked, got.State)
	assert.Empty(t, got.Key)

	status := postSealed(t, ts, h, api.PingKeyEndpoint, api.PingKeyInput{ID: "missing"}, &pinged)
	assert.Equal(t, http.StatusNotFound, status)

	status = postSealed(t, ts, h, api.CreateKeyEndpoint, api.CreateKeyInput{Timelock: 0}, &created)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRejectsUnsealedRequest(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+api.PingKeyEndpoint, "application/json", bytes.NewReader([]byte(`{"id":"x"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.NotEmpty(t, errResp.Error)
}

func TestGetServerRoundRobin(t *testing.T) {
	hub := []interfaces.ServerWithMeta{
		{Host: "a.example", PK: "aa"},
		{Host: "b.example", PK: "bb", Meta: &interfaces.ServerMeta{Provider: "p"}},
	}
	ts, h := newTestServer(t, hub)

	var hosts []string
	for i := 0; i < 3; i++ {
		var out interfaces.ServerWithMeta
		require.Equal(t, http.StatusOK, postSealed(t, ts, h, api.GetServerEndpoint, api.GetServerInput{}, &out))
		hosts = append(hosts, out.Host)
	}
	assert.Equal(t, []string{"a.example", "b.example", "a.example"}, hosts)
}

func TestGetServerEmptyHub(t *testing.T) {
	ts, h := newTestServer(t, nil)
	var out interfaces.ServerWithMeta
	assert.Equal(t, http.StatusServiceUnavailable, postSealed(t, ts, h, api.GetServerEndpoint, api.GetServerInput{}, &out))
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	get := func(path string) (int, string) {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, _ := get("/livez")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get("/readyz")
	assert.Equal(t, http.StatusOK, code)

	_, body := get("/drain")
	assert.Contains(t, body, "draining")
	code, _ = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	_, body = get("/drain")
	assert.Contains(t, body, "already draining")

	_, body = get("/undrain")
	assert.Contains(t, body, `"ready"`)
	code, _ = get("/readyz")
	assert.Equal(t, http.StatusOK, code)
}
