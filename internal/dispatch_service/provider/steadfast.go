package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

const DefaultSteadfastBaseURL = "https://portal.packzy.com/api/v1"

type SteadfastConfig struct {
	BaseURL   string
	APIKey    string
	SecretKey string
}

func (c SteadfastConfig) Complete() bool {
	return c.APIKey != "" && c.SecretKey != ""
}

type steadfastConsignment struct {
	ConsignmentID int64  `json:"consignment_id"`
	Invoice       string `json:"invoice"`
	TrackingCode  string `json:"tracking_code"`
	Status        string `json:"status"`
}

type steadfastCreateResponse struct {
	Status      int                  `json:"status"`
	Message     string               `json:"message"`
	Consignment steadfastConsignment `json:"consignment"`
}

type steadfastStatusResponse struct {
	Status         int    `json:"status"`
	Message        string `json:"message"`
	DeliveryStatus string `json:"delivery_status"`
}

type steadfastCancelRequest struct {
	TrackingCode string `json:"tracking_code"`
}

type steadfastCancelResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// SteadfastAdapter authenticates every call with static Api-Key/Secret-Key headers.
type SteadfastAdapter struct {
	cfg    SteadfastConfig
	api    *apiClient
	logger *slog.Logger
}

func NewSteadfastAdapter(cfg SteadfastConfig, httpClient *http.Client, logger *slog.Logger) (*SteadfastAdapter, error) {
	if !cfg.Complete() {
		return nil, fmt.Errorf("steadfast: %w", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSteadfastBaseURL
	}
	logger = logger.With("provider", domain.ProviderSteadfast.String())
	return &SteadfastAdapter{
		cfg:    cfg,
		api:    newAPIClient(domain.ProviderSteadfast, cfg.BaseURL, httpClient, logger),
		logger: logger,
	}, nil
}

func (s *SteadfastAdapter) Name() domain.ProviderName { return domain.ProviderSteadfast }

func (s *SteadfastAdapter) headers() http.Header {
	h := make(http.Header)
	h.Set("Api-Key", s.cfg.APIKey)
	h.Set("Secret-Key", s.cfg.SecretKey)
	return h
}

func (s *SteadfastAdapter) CreateOrder(ctx context.Context, order domain.Order) (*OrderResponse, error) {
	req := BuildSteadfastOrderRequest(order)
	s.logger.InfoContext(ctx, "Creating Steadfast order", "order_id", order.ID, "invoice", req.Invoice)

	var resp steadfastCreateResponse
	raw, err := s.api.do(ctx, "create_order", http.MethodPost, "/create_order", s.headers(), req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, s.api.declaredFailure(resp.Status, resp.Message, raw)
	}
	if resp.Consignment.TrackingCode == "" {
		return nil, s.api.declaredFailure(resp.Status, "Steadfast response did not include a tracking_code", raw)
	}
	return &OrderResponse{
		TrackingID: resp.Consignment.TrackingCode,
		Status:     resp.Consignment.Status,
		Message:    resp.Message,
		Raw:        raw,
	}, nil
}

func (s *SteadfastAdapter) GetOrderStatus(ctx context.Context, trackingCode string) (*StatusResponse, error) {
	var resp steadfastStatusResponse
	raw, err := s.api.do(ctx, "order_status", http.MethodGet, "/status_by_trackingcode/"+url.PathEscape(trackingCode), s.headers(), nil, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, s.api.declaredFailure(resp.Status, resp.Message, raw)
	}
	return &StatusResponse{TrackingID: trackingCode, Status: resp.DeliveryStatus, Raw: raw}, nil
}

func (s *SteadfastAdapter) CancelOrder(ctx context.Context, trackingCode string) (*CancelResponse, error) {
	var resp steadfastCancelResponse
	raw, err := s.api.do(ctx, "cancel_order", http.MethodPost, "/cancel_order", s.headers(), steadfastCancelRequest{TrackingCode: trackingCode}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, s.api.declaredFailure(resp.Status, resp.Message, raw)
	}
	return &CancelResponse{TrackingID: trackingCode, Message: resp.Message, Raw: raw}, nil
}
