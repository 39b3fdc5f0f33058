package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/replenishment/pkg/breaker"
)

func TestService_Send(t *testing.T) {
	var got sendEmailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewService(Config{APIKey: "key", FromAddress: "orders@example.com", Endpoint: srv.URL})
	err := svc.Send(context.Background(), "sales@mill.example", "Order", "<p>hi</p>", "Central Kitchen")

	require.NoError(t, err)
	assert.Equal(t, "Bearer key", auth)
	assert.Equal(t, "Central Kitchen <orders@example.com>", got.From)
	assert.Equal(t, []string{"sales@mill.example"}, got.To)
	assert.Equal(t, "Order", got.Subject)
}

func TestService_SendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	svc := NewService(Config{APIKey: "key", FromAddress: "orders@example.com", Endpoint: srv.URL})
	err := svc.Send(context.Background(), "sales@mill.example", "Order", "", "")

	assert.ErrorContains(t, err, "422")
}

func TestService_NotConfigured(t *testing.T) {
	svc := NewService(Config{})
	assert.ErrorIs(t, svc.Send(context.Background(), "a@b.c", "s", "b", ""), ErrNotConfigured)
}

func TestGuardedGateway_OpensOnRepeatedFailure(t *testing.T) {
	g := NewGuardedGateway(NewService(Config{}), breaker.New("email", 1, time.Minute))

	assert.ErrorIs(t, g.Send(context.Background(), "a@b.c", "s", "b", ""), ErrNotConfigured)
	assert.ErrorIs(t, g.Send(context.Background(), "a@b.c", "s", "b", ""), breaker.ErrOpen)
}
