package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
	"github.com/technirvor/logistics_services/internal/dispatch_service/geo"
)

const (
	DefaultPathaoBaseURL = "https://courier-api.pathao.com/api/v1"
	DefaultPathaoStoreID = 1

	// tokenExpirySkew re-authenticates slightly before the server-side expiry.
	tokenExpirySkew = 60 * time.Second
)

type PathaoConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	StoreID      int
}

// Complete reports whether the full credential set is present.
func (c PathaoConfig) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.Username != "" && c.Password != ""
}

type pathaoTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	GrantType    string `json:"grant_type"`
}

type pathaoTokenResponse struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// pathaoEnvelope is the outer shape of every Pathao merchant API response.
type pathaoEnvelope struct {
	Type    string          `json:"type"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e pathaoEnvelope) failed() bool {
	return e.Type == "error" || (e.Code != 0 && (e.Code < 200 || e.Code >= 300))
}

type pathaoOrderData struct {
	ConsignmentID   string `json:"consignment_id"`
	MerchantOrderID string `json:"merchant_order_id"`
	OrderStatus     string `json:"order_status"`
}

type pathaoOrderInfo struct {
	ConsignmentID   string `json:"consignment_id"`
	MerchantOrderID string `json:"merchant_order_id"`
	OrderStatus     string `json:"order_status"`
	OrderStatusSlug string `json:"order_status_slug"`
}

// PathaoToken is the cached bearer token.
type PathaoToken struct {
	Value      string
	ObtainedAt time.Time
	ExpiresAt  time.Time // zero when the grant did not state a lifetime
}

// tokenCell guards the adapter's single cached token.
type tokenCell struct {
	mu    sync.Mutex
	token *PathaoToken
	now   func() time.Time
}

func (c *tokenCell) get() (PathaoToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return PathaoToken{}, false
	}
	if !c.token.ExpiresAt.IsZero() && !c.now().Before(c.token.ExpiresAt.Add(-tokenExpirySkew)) {
		return PathaoToken{}, false
	}
	return *c.token, true
}

func (c *tokenCell) set(t PathaoToken) {
	c.mu.Lock()
	c.token = &t
	c.mu.Unlock()
}

// invalidate drops the cached token if it is still the one that was rejected.
func (c *tokenCell) invalidate(rejected string) {
	c.mu.Lock()
	if c.token != nil && c.token.Value == rejected {
		c.token = nil
	}
	c.mu.Unlock()
}

// PathaoAdapter talks to the Pathao merchant API using a password-grant token.
type PathaoAdapter struct {
	cfg    PathaoConfig
	api    *apiClient
	cities geo.Resolver
	zones  geo.ZoneResolver
	token  tokenCell
	auth   singleflight.Group
	logger *slog.Logger
}

func NewPathaoAdapter(cfg PathaoConfig, cities geo.Resolver, zones geo.ZoneResolver, httpClient *http.Client, logger *slog.Logger) (*PathaoAdapter, error) {
	if !cfg.Complete() {
		return nil, fmt.Errorf("pathao: %w", ErrMissingCredentials)
	}
	if cities == nil || zones == nil {
		return nil, fmt.Errorf("pathao: city and zone resolvers are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultPathaoBaseURL
	}
	if cfg.StoreID == 0 {
		cfg.StoreID = DefaultPathaoStoreID
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("pathao: invalid base url: %w", err)
	}
	logger = logger.With("provider", domain.ProviderPathao.String())
	return &PathaoAdapter{
		cfg:    cfg,
		api:    newAPIClient(domain.ProviderPathao, cfg.BaseURL, httpClient, logger),
		cities: cities,
		zones:  zones,
		token:  tokenCell{now: time.Now},
		logger: logger,
	}, nil
}

func (p *PathaoAdapter) Name() domain.ProviderName { return domain.ProviderPathao }

// CachedToken exposes the current token, if any.
func (p *PathaoAdapter) CachedToken() (PathaoToken, bool) { return p.token.get() }

func (p *PathaoAdapter) accessToken(ctx context.Context) (string, error) {
	if t, ok := p.token.get(); ok {
		return t.Value, nil
	}
	v, err, _ := p.auth.Do("token", func() (interface{}, error) {
		if t, ok := p.token.get(); ok {
			return t.Value, nil
		}
		return p.authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *PathaoAdapter) authenticate(ctx context.Context) (string, error) {
	req := pathaoTokenRequest{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Username:     p.cfg.Username,
		Password:     p.cfg.Password,
		GrantType:    "password",
	}
	var resp pathaoTokenResponse
	if _, err := p.api.do(ctx, "issue_token", http.MethodPost, "/issue-token", nil, req, &resp); err != nil {
		pathaoTokenFetches.WithLabelValues("error").Inc()
		p.logger.ErrorContext(ctx, "Pathao token exchange failed", "error", err)
		return "", &AuthError{Provider: domain.ProviderPathao, Err: err}
	}
	if resp.AccessToken == "" {
		pathaoTokenFetches.WithLabelValues("error").Inc()
		return "", &AuthError{Provider: domain.ProviderPathao, Err: fmt.Errorf("token response had no access_token")}
	}

	now := p.token.now()
	t := PathaoToken{Value: resp.AccessToken, ObtainedAt: now}
	if resp.ExpiresIn > 0 {
		t.ExpiresAt = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	p.token.set(t)
	pathaoTokenFetches.WithLabelValues("ok").Inc()
	p.logger.InfoContext(ctx, "Obtained Pathao access token", "expires_in", resp.ExpiresIn)
	return t.Value, nil
}

// authorized runs an authenticated call, re-authenticating once on 401.
func (p *PathaoAdapter) authorized(ctx context.Context, op, method, path string, in, out any) (json.RawMessage, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := p.api.do(ctx, op, method, path, bearer(token), in, out)
	if !isUnauthorized(err) {
		return raw, err
	}

	p.logger.WarnContext(ctx, "Pathao rejected cached token, re-authenticating", "op", op)
	p.token.invalidate(token)
	if token, err = p.accessToken(ctx); err != nil {
		return nil, err
	}
	return p.api.do(ctx, op, method, path, bearer(token), in, out)
}

func bearer(token string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	return h
}

func (p *PathaoAdapter) CreateOrder(ctx context.Context, order domain.Order) (*OrderResponse, error) {
	addr := order.ShippingAddress
	cityID, err := p.cities.Resolve(ctx, addr.City)
	if err != nil {
		return nil, fmt.Errorf("resolving Pathao city %q: %w", addr.City, err)
	}
	zoneName := addr.District
	if strings.TrimSpace(zoneName) == "" {
		zoneName = addr.City
	}
	zoneID, err := p.zones.ResolveZone(ctx, cityID, zoneName)
	if err != nil {
		return nil, fmt.Errorf("resolving Pathao zone %q: %w", zoneName, err)
	}

	req := BuildPathaoOrderRequest(order, p.cfg.StoreID, cityID, zoneID)
	p.logger.InfoContext(ctx, "Creating Pathao order", "order_id", order.ID, "city_id", cityID, "zone_id", zoneID)

	var env pathaoEnvelope
	raw, err := p.authorized(ctx, "create_order", http.MethodPost, "/aladdin/api/v1/orders", req, &env)
	if err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, p.api.declaredFailure(env.Code, env.Message, raw)
	}
	var data pathaoOrderData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.ConsignmentID == "" {
		return nil, p.api.declaredFailure(env.Code, "Pathao response did not include a consignment_id", raw)
	}
	return &OrderResponse{
		TrackingID: data.ConsignmentID,
		Status:     data.OrderStatus,
		Message:    env.Message,
		Raw:        raw,
	}, nil
}

func (p *PathaoAdapter) GetOrderStatus(ctx context.Context, consignmentID string) (*StatusResponse, error) {
	path := "/aladdin/api/v1/orders/" + url.PathEscape(consignmentID) + "/info"
	var env pathaoEnvelope
	raw, err := p.authorized(ctx, "order_status", http.MethodGet, path, nil, &env)
	if err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, p.api.declaredFailure(env.Code, env.Message, raw)
	}
	var info pathaoOrderInfo
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &info); err != nil {
			return nil, fmt.Errorf("failed to decode Pathao order info: %w", err)
		}
	}
	status := info.OrderStatus
	if status == "" {
		status = info.OrderStatusSlug
	}
	return &StatusResponse{TrackingID: consignmentID, Status: status, Raw: raw}, nil
}

func (p *PathaoAdapter) CancelOrder(ctx context.Context, consignmentID string) (*CancelResponse, error) {
	path := "/aladdin/api/v1/orders/" + url.PathEscape(consignmentID) + "/cancel"
	var env pathaoEnvelope
	raw, err := p.authorized(ctx, "cancel_order", http.MethodPost, path, struct{}{}, &env)
	if err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, p.api.declaredFailure(env.Code, env.Message, raw)
	}
	return &CancelResponse{TrackingID: consignmentID, Message: env.Message, Raw: raw}, nil
}

type pathaoCity struct {
	CityID   int    `json:"city_id"`
	CityName string `json:"city_name"`
}

type pathaoZone struct {
	ZoneID   int    `json:"zone_id"`
	ZoneName string `json:"zone_name"`
}

// FetchCities loads Pathao's city list for Bangladesh. It backs geo.LiveResolver.
func (p *PathaoAdapter) FetchCities(ctx context.Context) (geo.Table, error) {
	var env pathaoEnvelope
	raw, err := p.authorized(ctx, "city_list", http.MethodGet, "/aladdin/api/v1/countries/1/city-list", nil, &env)
	if err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, p.api.declaredFailure(env.Code, env.Message, raw)
	}
	var list struct {
		Data []pathaoCity `json:"data"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode Pathao city list: %w", err)
	}
	entries := make(map[string]int, len(list.Data))
	for _, c := range list.Data {
		entries[c.CityName] = c.CityID
	}
	return geo.NewTable(entries), nil
}

// FetchZones loads the zones of one Pathao city. It backs geo.LiveZoneResolver.
func (p *PathaoAdapter) FetchZones(ctx context.Context, cityID int) (geo.Table, error) {
	path := "/aladdin/api/v1/cities/" + strconv.Itoa(cityID) + "/zone-list"
	var env pathaoEnvelope
	raw, err := p.authorized(ctx, "zone_list", http.MethodGet, path, nil, &env)
	if err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, p.api.declaredFailure(env.Code, env.Message, raw)
	}
	var list struct {
		Data []pathaoZone `json:"data"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode Pathao zone list: %w", err)
	}
	entries := make(map[string]int, len(list.Data))
	for _, z := range list.Data {
		entries[z.ZoneName] = z.ZoneID
	}
	return geo.NewTable(entries), nil
}
