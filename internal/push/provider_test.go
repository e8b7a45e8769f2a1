package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Push(t *testing.T) {
	var got pushRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "secret")
	err := p.Push(context.Background(), "tok-1", "Order confirmed", "Your order EL-X is placed.",
		map[string]string{"order_id": "o1"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "tok-1", got.To)
	assert.Equal(t, "Order confirmed", got.Title)
	assert.Equal(t, "o1", got.Data["order_id"])
}

func TestProvider_PushWithoutAPIKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "")
	require.NoError(t, p.Push(context.Background(), "tok-1", "t", "b", nil))
	assert.Empty(t, auth)
}

func TestProvider_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "")
	err := p.Push(context.Background(), "tok-1", "t", "b", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
