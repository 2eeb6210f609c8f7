package chapa_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"roamstay/config"
	"roamstay/infras/chapa"
	"roamstay/infras/otel/mocks"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) chapa.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.External.Chapa.SecretKey = "test-secret"
	cfg.External.Chapa.BaseURL = server.URL
	cfg.External.Chapa.TimeoutSeconds = 5

	return chapa.New(cfg, mocks.NewOtel())
}

func TestChapaClient_Initialize(t *testing.T) {
	t.Run("successful initialization", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer test-secret", r.Header.Get("Authorization"))

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "100.5", body["amount"])
			assert.Equal(t, "ETB", body["currency"])
			assert.Equal(t, "RST-abc-1", body["tx_ref"])

			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":  "success",
				"message": "Hosted Link",
				"data": map[string]any{
					"checkout_url": "https://checkout.chapa.co/pay/abc",
				},
			})
		})

		res, err := client.Initialize(context.Background(), chapa.InitializeRequest{
			Amount:   100.5,
			Currency: "ETB",
			Email:    "guest@example.com",
			TxRef:    "RST-abc-1",
		})

		assert.NoError(t, err)
		assert.Equal(t, "https://checkout.chapa.co/pay/abc", res.CheckoutURL)
	})

	t.Run("declined initialization", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":  "failed",
				"message": "Invalid currency",
			})
		})

		_, err := client.Initialize(context.Background(), chapa.InitializeRequest{TxRef: "RST-abc-2"})

		assert.ErrorIs(t, err, chapa.ErrGatewayDeclined)
		assert.Contains(t, err.Error(), "Invalid currency")
	})

	t.Run("server error maps to unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Initialize(context.Background(), chapa.InitializeRequest{TxRef: "RST-abc-3"})

		assert.ErrorIs(t, err, chapa.ErrGatewayUnavailable)
	})

	t.Run("missing checkout url maps to unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data":   map[string]any{},
			})
		})

		_, err := client.Initialize(context.Background(), chapa.InitializeRequest{TxRef: "RST-abc-4"})

		assert.ErrorIs(t, err, chapa.ErrGatewayUnavailable)
	})
}

func TestChapaClient_Verify(t *testing.T) {
	t.Run("successful verification", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/transaction/verify/RST-abc-1", r.URL.Path)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data": map[string]any{
					"status":     "success",
					"reference":  "txn-998",
					"tx_ref":     "RST-abc-1",
					"method":     "telebirr",
					"amount":     100.5,
					"currency":   "ETB",
					"updated_at": "2026-08-25T10:30:00Z",
				},
			})
		})

		res, err := client.Verify(context.Background(), "RST-abc-1")

		assert.NoError(t, err)
		assert.Equal(t, "success", res.Status)
		assert.Equal(t, "txn-998", res.TransactionID)
		assert.Equal(t, "telebirr", res.Method)
		assert.Equal(t, 100.5, res.Amount)
		assert.NotNil(t, res.PaidAt)
	})

	t.Run("type field backs up missing method", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data": map[string]any{
					"status": "success",
					"type":   "mpesa",
				},
			})
		})

		res, err := client.Verify(context.Background(), "RST-abc-1")

		assert.NoError(t, err)
		assert.Equal(t, "mpesa", res.Method)
	})

	t.Run("unknown transaction is declined", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":  "failed",
				"message": "Transaction not found",
			})
		})

		_, err := client.Verify(context.Background(), "RST-missing")

		assert.ErrorIs(t, err, chapa.ErrGatewayDeclined)
	})

	t.Run("malformed body maps to unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>gateway timeout</html>"))
		})

		_, err := client.Verify(context.Background(), "RST-abc-1")

		assert.ErrorIs(t, err, chapa.ErrGatewayUnavailable)
	})
}
