package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
	httptransport "github.com/technirvor/logistics_services/internal/dispatch_service/transport/http"
)

const testSecret = "test-jwt-secret"

type MockDispatchService struct {
	mock.Mock
}

func (m *MockDispatchService) SendOrderToProvider(ctx context.Context, order domain.Order, providerName domain.ProviderName) domain.DispatchResult {
	return m.Called(ctx, order, providerName).Get(0).(domain.DispatchResult)
}

func (m *MockDispatchService) GetOrderStatus(ctx context.Context, trackingID string, providerName domain.ProviderName) domain.StatusResult {
	return m.Called(ctx, trackingID, providerName).Get(0).(domain.StatusResult)
}

func (m *MockDispatchService) CancelOrder(ctx context.Context, trackingID string, providerName domain.ProviderName) domain.CancelResult {
	return m.Called(ctx, trackingID, providerName).Get(0).(domain.CancelResult)
}

func (m *MockDispatchService) ConfiguredProviders() []domain.ProviderName {
	return m.Called().Get(0).([]domain.ProviderName)
}

func newTestServer(t *testing.T, svc *MockDispatchService) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := httptransport.NewDispatchHandler(svc, logger, nil)
	auth := httptransport.AuthConfig{
		JWTSecret:    testSecret,
		APIKeyHashes: []string{httptransport.HashAPIKey("storefront-key")},
	}
	server := httptest.NewServer(httptransport.NewRouter(handler, auth, logger))
	t.Cleanup(server.Close)
	return server
}

func signedToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "storefront",
		"exp": exp.Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func doRequest(t *testing.T, method, url, auth string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func validOrder() domain.Order {
	return domain.Order{
		ID:         "abc123",
		TotalPrice: decimal.NewFromInt(1500),
		ShippingAddress: domain.ShippingAddress{
			FullName: "Karim",
			Phone:    "01700000000",
			Address:  "House 5, Road 2",
			City:     "Dhaka",
			District: "Dhanmondi",
		},
		OrderItems: []domain.OrderItem{{Name: "USB Cable", Quantity: 2}},
	}
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	server := newTestServer(t, new(MockDispatchService))
	resp := doRequest(t, http.MethodGet, server.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	svc := new(MockDispatchService)
	svc.On("ConfiguredProviders").Return([]domain.ProviderName{domain.ProviderSteadfast})
	server := newTestServer(t, svc)
	url := server.URL + "/v1/providers"

	tests := []struct {
		name string
		auth string
		want int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Bearer", http.StatusUnauthorized},
		{"unsupported scheme", "Basic dXNlcjpwdw==", http.StatusUnauthorized},
		{"valid jwt", "Bearer " + signedToken(t, testSecret, time.Now().Add(time.Hour)), http.StatusOK},
		{"expired jwt", "Bearer " + signedToken(t, testSecret, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signedToken(t, "other", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"valid api key", "ApiKey storefront-key", http.StatusOK},
		{"unknown api key", "ApiKey nope", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, url, tc.auth, nil)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestListProviders(t *testing.T) {
	svc := new(MockDispatchService)
	svc.On("ConfiguredProviders").Return([]domain.ProviderName{domain.ProviderPathao, domain.ProviderRedx})
	server := newTestServer(t, svc)

	resp := doRequest(t, http.MethodGet, server.URL+"/v1/providers", "ApiKey storefront-key", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body httptransport.ProvidersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []domain.ProviderName{domain.ProviderPathao, domain.ProviderRedx}, body.Providers)
}

func TestCreateDispatch(t *testing.T) {
	svc := new(MockDispatchService)
	server := newTestServer(t, svc)
	url := server.URL + "/v1/dispatches"
	auth := "ApiKey storefront-key"

	t.Run("Success", func(t *testing.T) {
		svc.On("SendOrderToProvider", mock.Anything, mock.MatchedBy(func(o domain.Order) bool { return o.ID == "abc123" }), domain.ProviderSteadfast).
			Return(domain.DispatchResult{Success: true, TrackingID: "15BAEB8A", Provider: domain.ProviderSteadfast, Message: "ok"}).Once()

		resp := doRequest(t, http.MethodPost, url, auth, httptransport.CreateDispatchRequest{Provider: "Steadfast", Order: validOrder()})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var result domain.DispatchResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "15BAEB8A", result.TrackingID)
	})

	t.Run("CourierFailure", func(t *testing.T) {
		svc.On("SendOrderToProvider", mock.Anything, mock.Anything, domain.ProviderPathao).
			Return(domain.DispatchResult{Provider: domain.ProviderPathao, Message: "Pathao service is not configured"}).Once()

		resp := doRequest(t, http.MethodPost, url, auth, httptransport.CreateDispatchRequest{Provider: "pathao", Order: validOrder()})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var result domain.DispatchResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.False(t, result.Success)
		assert.Equal(t, "Pathao service is not configured", result.Message)
	})

	t.Run("BadJSON", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, url, auth, "{not json")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("MissingProvider", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, url, auth, httptransport.CreateDispatchRequest{Order: validOrder()})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, url, auth, httptransport.CreateDispatchRequest{Provider: "dhl", Order: validOrder()})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("InvalidOrder", func(t *testing.T) {
		o := validOrder()
		o.ShippingAddress.Phone = ""
		resp := doRequest(t, http.MethodPost, url, auth, httptransport.CreateDispatchRequest{Provider: "redx", Order: o})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body httptransport.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "invalid order: missing recipient phone", body.Error)
	})

	svc.AssertExpectations(t)
}

func TestStatusAndCancel(t *testing.T) {
	svc := new(MockDispatchService)
	server := newTestServer(t, svc)
	auth := "ApiKey storefront-key"

	svc.On("GetOrderStatus", mock.Anything, "DL121224VS8TTJ", domain.ProviderPathao).
		Return(domain.StatusResult{Success: true, TrackingID: "DL121224VS8TTJ", Status: "Delivered", Provider: domain.ProviderPathao}).Once()
	svc.On("CancelOrder", mock.Anything, "15BAEB8A", domain.ProviderSteadfast).
		Return(domain.CancelResult{TrackingID: "15BAEB8A", Provider: domain.ProviderSteadfast, Message: "Order already delivered"}).Once()

	resp := doRequest(t, http.MethodGet, server.URL+"/v1/dispatches/pathao/DL121224VS8TTJ/status", auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status domain.StatusResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "Delivered", status.Status)

	resp = doRequest(t, http.MethodPost, server.URL+"/v1/dispatches/steadfast/15BAEB8A/cancel", auth, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var cancel domain.CancelResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cancel))
	assert.Equal(t, "Order already delivered", cancel.Message)

	resp = doRequest(t, http.MethodGet, server.URL+"/v1/dispatches/fedex/X/status", auth, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	svc.AssertExpectations(t)
}

func TestHashAPIKey(t *testing.T) {
	h := httptransport.HashAPIKey("storefront-key")
	assert.Len(t, h, 44)
	assert.Equal(t, h, httptransport.HashAPIKey("storefront-key"))
	assert.NotEqual(t, h, httptransport.HashAPIKey("storefront-key2"))
}
