package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/payport/pkg/config"
)

func TestClient_CallSendsSignedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/transaction/details", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "UTF-8", r.Header.Get("Charset"))
		require.Equal(t, base64.StdEncoding.EncodeToString([]byte(testAccessKey)), r.Header.Get(HeaderAccessKey))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req ActionRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "14769800001234567", req.Transaction.TID)

		_, _ = w.Write([]byte(`{"result":{"status":"SUCCESS"},"transaction":{"tid":14769800001234567,"status":"CONFIRMED"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL + "/v2", AccessKey: testAccessKey}, nil)
	resp, err := Do(context.Background(), c, EndpointTransactionDetails, &ActionRequest{
		Transaction: &TransactionRef{TID: "14769800001234567"},
	})
	require.NoError(t, err)
	require.Equal(t, ID("14769800001234567"), resp.Transaction.TID)
	require.Equal(t, TransactionStatusConfirmed, resp.Transaction.Status)
}

func TestClient_NonSuccessWithoutBodyIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL, AccessKey: testAccessKey}, nil)
	_, err := c.Call(context.Background(), EndpointPayment, map[string]any{})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTransport))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, http.StatusBadGateway, te.StatusCode)
	require.Equal(t, EndpointPayment, te.Endpoint)
}

func TestClient_NonSuccessWithBodyIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"result":{"status":"FAILURE","status_code":106,"status_text":"invalid tariff"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL, AccessKey: testAccessKey}, nil)
	resp, err := Do(context.Background(), c, EndpointPayment, map[string]any{})
	require.NoError(t, err)
	require.False(t, resp.Succeeded())
	require.Equal(t, "invalid tariff", resp.Result.StatusText)
}

func TestClient_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL, AccessKey: testAccessKey, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Call(context.Background(), EndpointPayment, map[string]any{})
	require.True(t, errors.Is(err, ErrTransport))
}

func TestDo_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: srv.URL, AccessKey: testAccessKey}, nil)
	_, err := Do(context.Background(), c, EndpointPayment, map[string]any{})
	require.True(t, errors.Is(err, ErrMalformedResponse))
}
