package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
	"github.com/technirvor/logistics_services/internal/dispatch_service/geo"
)

const DefaultRedxBaseURL = "https://openapi.redx.com.bd/v1.0.0-beta"

type RedxConfig struct {
	BaseURL string
	APIKey  string
}

func (c RedxConfig) Complete() bool { return c.APIKey != "" }

type redxCreateResponse struct {
	Success    *bool  `json:"success,omitempty"`
	Message    string `json:"message"`
	TrackingID string `json:"tracking_id"`
}

type redxParcelInfo struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
	Parcel  struct {
		TrackingID string `json:"tracking_id"`
		Status     string `json:"status"`
	} `json:"parcel"`
}

type redxUpdateRequest struct {
	EntityType    string            `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	UpdateDetails redxUpdateDetails `json:"update_details"`
}

type redxUpdateDetails struct {
	PropertyName string `json:"property_name"`
	NewValue     string `json:"new_value"`
}

type redxUpdateResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
}

type redxArea struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RedxAdapter authenticates with a static bearer API key.
type RedxAdapter struct {
	cfg    RedxConfig
	api    *apiClient
	areas  geo.Resolver
	logger *slog.Logger
}

func NewRedxAdapter(cfg RedxConfig, areas geo.Resolver, httpClient *http.Client, logger *slog.Logger) (*RedxAdapter, error) {
	if !cfg.Complete() {
		return nil, fmt.Errorf("redx: %w", ErrMissingCredentials)
	}
	if areas == nil {
		return nil, fmt.Errorf("redx: area resolver is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRedxBaseURL
	}
	logger = logger.With("provider", domain.ProviderRedx.String())
	return &RedxAdapter{
		cfg:    cfg,
		api:    newAPIClient(domain.ProviderRedx, cfg.BaseURL, httpClient, logger),
		areas:  areas,
		logger: logger,
	}, nil
}

func (r *RedxAdapter) Name() domain.ProviderName { return domain.ProviderRedx }

func (r *RedxAdapter) headers() http.Header {
	return bearer(r.cfg.APIKey)
}

func (r *RedxAdapter) CreateOrder(ctx context.Context, order domain.Order) (*OrderResponse, error) {
	// ShippingAddress.AreaID is in Pathao's numbering; Redx areas always come from its own table.
	areaID, err := r.areas.Resolve(ctx, order.ShippingAddress.City)
	if err != nil {
		return nil, fmt.Errorf("resolving Redx area %q: %w", order.ShippingAddress.City, err)
	}

	req := BuildRedxParcelRequest(order, areaID)
	r.logger.InfoContext(ctx, "Creating Redx parcel", "order_id", order.ID, "area_id", areaID)

	var resp redxCreateResponse
	raw, err := r.api.do(ctx, "create_order", http.MethodPost, "/parcel", r.headers(), req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, r.api.declaredFailure(http.StatusOK, resp.Message, raw)
	}
	if resp.TrackingID == "" {
		return nil, r.api.declaredFailure(http.StatusOK, "Redx response did not include a tracking_id", raw)
	}
	return &OrderResponse{TrackingID: resp.TrackingID, Message: resp.Message, Raw: raw}, nil
}

func (r *RedxAdapter) GetOrderStatus(ctx context.Context, trackingID string) (*StatusResponse, error) {
	var resp redxParcelInfo
	raw, err := r.api.do(ctx, "order_status", http.MethodGet, "/parcel/info/"+url.PathEscape(trackingID), r.headers(), nil, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, r.api.declaredFailure(http.StatusOK, resp.Message, raw)
	}
	return &StatusResponse{TrackingID: trackingID, Status: resp.Parcel.Status, Raw: raw}, nil
}

func (r *RedxAdapter) CancelOrder(ctx context.Context, trackingID string) (*CancelResponse, error) {
	req := redxUpdateRequest{
		EntityType: "parcel-tracking-id",
		EntityID:   trackingID,
		UpdateDetails: redxUpdateDetails{
			PropertyName: "status",
			NewValue:     "cancelled",
		},
	}
	var resp redxUpdateResponse
	raw, err := r.api.do(ctx, "cancel_order", http.MethodPatch, "/parcels", r.headers(), req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, r.api.declaredFailure(http.StatusOK, resp.Message, raw)
	}
	return &CancelResponse{TrackingID: trackingID, Message: resp.Message, Raw: raw}, nil
}

// FetchAreas loads Redx's delivery area list. It backs geo.LiveResolver.
func (r *RedxAdapter) FetchAreas(ctx context.Context) (geo.Table, error) {
	var resp struct {
		Areas []redxArea `json:"areas"`
	}
	if _, err := r.api.do(ctx, "area_list", http.MethodGet, "/areas", r.headers(), nil, &resp); err != nil {
		return nil, err
	}
	entries := make(map[string]int, len(resp.Areas))
	for _, a := range resp.Areas {
		entries[a.Name] = a.ID
	}
	return geo.NewTable(entries), nil
}
