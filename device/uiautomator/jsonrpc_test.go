package uiautomator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *rpcClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return &rpcClient{hostPort: port}
}

func TestCallDecodesResult(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req jsonRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "click", req.Method)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jsonRPCResponse{Version: "2.0", Result: json.RawMessage(`true`)})
	})

	var out bool
	require.NoError(t, c.call(context.Background(), "click", &out))
	assert.True(t, out)
}

func TestCallPropagatesRPCError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jsonRPCResponse{Version: "2.0", Error: &jsonRPCError{Message: "boom"}})
	})

	err := c.call(context.Background(), "click", nil)
	assert.ErrorContains(t, err, "boom")
}

func TestCallErrorsOnNonOKStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.call(context.Background(), "click", nil)
	assert.Error(t, err)
}

func TestCallWithNilOutDiscardsResult(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jsonRPCResponse{Version: "2.0", Result: json.RawMessage(`{"some":"thing"}`)})
	})
	assert.NoError(t, c.call(context.Background(), "ignored", nil))
}
