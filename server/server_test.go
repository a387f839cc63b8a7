package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tzmeta/am"
	"github.com/teranos/tzmeta/micheline"
	"github.com/teranos/tzmeta/offchain"
)

const kt1 = "KT1QDFEu8JijYbsJqzoXq7mKvfaQQamHD1kX"

const fa2 = `{
  "name": "Test FA2",
  "interfaces": ["TZIP-012", "TZIP-016"],
  "views": [
    {"name": "all_tokens", "implementations": [{"michelsonStorageView": {
      "returnType": {"prim": "list", "args": [{"prim": "nat"}]}, "code": []}}]},
    {"name": "total_supply", "implementations": [{"michelsonStorageView": {
      "parameter": {"prim": "nat"}, "returnType": {"prim": "nat"}, "code": []}}]},
    {"name": "is_operator", "implementations": [{"michelsonStorageView": {
      "parameter": {"prim": "pair", "args": [{"prim": "address"}, {"prim": "pair", "args": [{"prim": "address"}, {"prim": "nat"}]}]},
      "returnType": {"prim": "bool"}, "code": []}}]},
    {"name": "token_metadata", "implementations": [{"michelsonStorageView": {
      "parameter": {"prim": "nat"},
      "returnType": {"prim": "pair", "args": [{"prim": "nat"}, {"prim": "map", "args": [{"prim": "string"}, {"prim": "bytes"}]}]},
      "code": []}}]}
  ]
}`

// fakeInvoker answers every view with a fixed value, optionally waiting on gate
type fakeInvoker struct {
	mu    sync.Mutex
	calls []string
	gate  chan struct{}
}

func (f *fakeInvoker) CallView(ctx context.Context, req offchain.Request) (offchain.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.ViewName)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return offchain.Outcome{}, &offchain.InvocationError{Message: ctx.Err().Error()}
		}
	}
	switch req.ViewName {
	case "all_tokens":
		return offchain.Outcome{Result: micheline.Seq(micheline.Int(0))}, nil
	case "token_metadata":
		return offchain.Outcome{Result: micheline.Prim("Pair", micheline.Int(0),
			micheline.Seq(micheline.Prim("Elt", micheline.String("symbol"), micheline.Bytes([]byte("TST")))))}, nil
	default:
		return offchain.Outcome{Result: micheline.Int(1000)}, nil
	}
}

func newTestServer(t *testing.T, inv *fakeInvoker) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &am.Config{Server: am.ServerConfig{AllowedOrigins: []string{"http://localhost"}}}
	srv := New(inv, cfg)
	go srv.Run()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, ts
}

func post(t *testing.T, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	case nil:
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func getJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := post(t, ts.URL+"/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestClassifyEndpoint(t *testing.T) {
	srv, ts := newTestServer(t, &fakeInvoker{})

	resp, body := post(t, ts.URL+"/api/classify", fa2)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "token-standard", body["kind"])
	assert.Equal(t, true, body["globally_valid"])

	// Same bytes again come from the cache
	post(t, ts.URL+"/api/classify", fa2)
	assert.Equal(t, 1, srv.cache.len())
}

func TestClassifyEndpointReportsDecodeError(t *testing.T) {
	_, ts := newTestServer(t, &fakeInvoker{})

	resp, body := post(t, ts.URL+"/api/classify", `{"views": [{"name": 3}]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decodeErr, ok := body["decode_error"].(map[string]interface{})
	require.True(t, ok, "body: %v", body)
	assert.Equal(t, "views[0].name", decodeErr["path"])
}

func TestViewCallThroughSession(t *testing.T) {
	inv := &fakeInvoker{}
	_, ts := newTestServer(t, inv)
	id := createSession(t, ts)

	resp, body := post(t, ts.URL+"/api/sessions/"+id+"/views", map[string]interface{}{
		"metadata":  json.RawMessage(fa2),
		"contract":  kt1,
		"view":      "total_supply",
		"parameter": json.RawMessage(`{"int": "0"}`),
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, "body: %v", body)
	assert.Equal(t, "view-call", body["slot"])
	assert.Equal(t, float64(1), body["generation"])

	var job map[string]interface{}
	require.Eventually(t, func() bool {
		_, job = getJSON(t, ts.URL+"/api/sessions/"+id+"/slots/view-call")
		return job["state"] == "done"
	}, 2*time.Second, 10*time.Millisecond)

	result := job["result"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"int": "1000"}, result["result"])
}

func TestTokenEnumerationThroughSession(t *testing.T) {
	_, ts := newTestServer(t, &fakeInvoker{})
	id := createSession(t, ts)

	resp, _ := post(t, ts.URL+"/api/sessions/"+id+"/tokens", map[string]interface{}{
		"metadata": json.RawMessage(fa2),
		"contract": kt1,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job map[string]interface{}
	require.Eventually(t, func() bool {
		_, job = getJSON(t, ts.URL+"/api/sessions/"+id+"/slots/token-enumeration")
		return job["state"] == "done"
	}, 2*time.Second, 10*time.Millisecond)

	records := job["result"].([]interface{})
	require.Len(t, records, 1)
	rec := records[0].(map[string]interface{})
	assert.Equal(t, "0", rec["token_id"])
	assert.Equal(t, "TST", rec["metadata"].(map[string]interface{})["symbol"])
}

func TestSessionErrors(t *testing.T) {
	_, ts := newTestServer(t, &fakeInvoker{})
	id := createSession(t, ts)

	tests := []struct {
		name   string
		url    string
		body   interface{}
		status int
	}{
		{"unknown session", "/api/sessions/nope/views", map[string]interface{}{"metadata": json.RawMessage(fa2), "contract": kt1, "view": "total_supply"}, http.StatusNotFound},
		{"bad contract", "/api/sessions/" + id + "/views", map[string]interface{}{"metadata": json.RawMessage(fa2), "contract": "tz1abc", "view": "total_supply"}, http.StatusBadRequest},
		{"missing metadata", "/api/sessions/" + id + "/views", map[string]interface{}{"contract": kt1, "view": "total_supply"}, http.StatusBadRequest},
		{"unknown view", "/api/sessions/" + id + "/views", map[string]interface{}{"metadata": json.RawMessage(fa2), "contract": kt1, "view": "nope"}, http.StatusNotFound},
		{"bad parameter", "/api/sessions/" + id + "/views", map[string]interface{}{"metadata": json.RawMessage(fa2), "contract": kt1, "view": "total_supply", "parameter": json.RawMessage(`{"foo": 1}`)}, http.StatusBadRequest},
		{"tokens on base metadata", "/api/sessions/" + id + "/tokens", map[string]interface{}{"metadata": json.RawMessage(`{"name": "x"}`), "contract": kt1}, http.StatusBadRequest},
		{"not json", "/api/sessions/" + id + "/tokens", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, ts.URL+tt.url, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, "body: %v", body)
			assert.NotEmpty(t, body["error"])
		})
	}

	status, _ := getJSON(t, ts.URL+"/api/sessions/"+id+"/slots/other")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteSession(t *testing.T) {
	srv, ts := newTestServer(t, &fakeInvoker{})
	id := createSession(t, ts)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = srv.Session(id)
	assert.Error(t, err)
}

func readJobUpdate(t *testing.T, conn *websocket.Conn) JobUpdateMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg JobUpdateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketStreamsJobUpdates(t *testing.T) {
	inv := &fakeInvoker{gate: make(chan struct{})}
	_, ts := newTestServer(t, inv)
	id := createSession(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Current state of both slots arrives first
	initial := map[string]bool{}
	for i := 0; i < 2; i++ {
		msg := readJobUpdate(t, conn)
		assert.Equal(t, "job_update", msg.Type)
		initial[msg.Slot] = true
		assert.Equal(t, "idle", msg.Job.(map[string]interface{})["state"])
	}
	assert.Equal(t, map[string]bool{"view-call": true, "token-enumeration": true}, initial)

	resp, _ := post(t, ts.URL+"/api/sessions/"+id+"/views", map[string]interface{}{
		"metadata": json.RawMessage(fa2),
		"contract": kt1,
		"view":     "total_supply",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	close(inv.gate)

	var states []string
	for {
		msg := readJobUpdate(t, conn)
		require.Equal(t, "view-call", msg.Slot)
		state := msg.Job.(map[string]interface{})["state"].(string)
		states = append(states, state)
		if state == "done" {
			break
		}
	}
	assert.Equal(t, []string{"in_progress", "in_progress", "done"}, states, "start, log line, result")
}

func TestWebSocketUnknownSession(t *testing.T) {
	_, ts := newTestServer(t, &fakeInvoker{})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=missing"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	srv := New(&fakeInvoker{}, &am.Config{Server: am.ServerConfig{AllowedOrigins: []string{"http://localhost"}}})
	defer srv.cancel()

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, srv.checkOrigin(r), tt.origin)
	}

	srv.ApplyConfig(&am.Config{Server: am.ServerConfig{AllowedOrigins: []string{"https://evil.example"}}})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://evil.example")
	assert.True(t, srv.checkOrigin(r), "reloaded origins apply immediately")
}

func TestSetInvokerAffectsNewCalls(t *testing.T) {
	first := &fakeInvoker{}
	srv, ts := newTestServer(t, first)
	id := createSession(t, ts)

	second := &fakeInvoker{}
	srv.SetInvoker(second)

	resp, _ := post(t, ts.URL+"/api/sessions/"+id+"/views", map[string]interface{}{
		"metadata": json.RawMessage(fa2), "contract": kt1, "view": "all_tokens",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool {
		_, job := getJSON(t, ts.URL+"/api/sessions/"+id+"/slots/view-call")
		return job["state"] == "done"
	}, 2*time.Second, 10*time.Millisecond)

	first.mu.Lock()
	defer first.mu.Unlock()
	assert.Empty(t, first.calls)
	second.mu.Lock()
	defer second.mu.Unlock()
	assert.Equal(t, []string{"all_tokens"}, second.calls)
}
