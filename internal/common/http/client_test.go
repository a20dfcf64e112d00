package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	resp, err := NewClient(time.Second).PostJSON(context.Background(), server.URL, map[string]string{"id": "app-1"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"received":true}`, resp.Body)
	assert.Equal(t, "app-1", got["id"])
}

func TestPostJSON_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := NewClientWith(server.Client()).PostJSON(context.Background(), server.URL, struct{}{})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPostJSON_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(time.Second).PostJSON(context.Background(), url, struct{}{})
	assert.Error(t, err)
}

func TestPostJSON_UnmarshalablePayload(t *testing.T) {
	_, err := NewClient(time.Second).PostJSON(context.Background(), "http://127.0.0.1:0", make(chan int))
	assert.Error(t, err)
}
