package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

// DispatchService is implemented by app.Manager.
type DispatchService interface {
	SendOrderToProvider(ctx context.Context, order domain.Order, providerName domain.ProviderName) domain.DispatchResult
	GetOrderStatus(ctx context.Context, trackingID string, providerName domain.ProviderName) domain.StatusResult
	CancelOrder(ctx context.Context, trackingID string, providerName domain.ProviderName) domain.CancelResult
	ConfiguredProviders() []domain.ProviderName
}

type DispatchHandler struct {
	service  DispatchService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewDispatchHandler(service DispatchService, logger *slog.Logger, validate *validator.Validate) *DispatchHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &DispatchHandler{
		service:  service,
		logger:   logger.With("component", "dispatch_handler"),
		validate: validate,
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// resultStatus maps a result's success flag onto the response code. Courier
// rejections are reported as 422 with the result body intact.
func resultStatus(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

func (h *DispatchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/providers", h.ListProviders)
	r.Post("/dispatches", h.CreateDispatch)
	r.Get("/dispatches/{provider}/{trackingID}/status", h.GetStatus)
	r.Post("/dispatches/{provider}/{trackingID}/cancel", h.CancelDispatch)
}

func (h *DispatchHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, ProvidersResponse{Providers: h.service.ConfiguredProviders()})
}

func (h *DispatchHandler) CreateDispatch(w http.ResponseWriter, r *http.Request) {
	var req CreateDispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid dispatch request body", "error", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	name, err := domain.ParseProviderName(req.Provider)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Order.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.service.SendOrderToProvider(r.Context(), req.Order, name)
	respondWithJSON(w, resultStatus(result.Success), result)
}

func (h *DispatchHandler) pathParams(w http.ResponseWriter, r *http.Request) (domain.ProviderName, string, bool) {
	name, err := domain.ParseProviderName(chi.URLParam(r, "provider"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	trackingID := chi.URLParam(r, "trackingID")
	if trackingID == "" {
		respondWithError(w, http.StatusBadRequest, "tracking id is required")
		return "", "", false
	}
	return name, trackingID, true
}

func (h *DispatchHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	name, trackingID, ok := h.pathParams(w, r)
	if !ok {
		return
	}
	result := h.service.GetOrderStatus(r.Context(), trackingID, name)
	respondWithJSON(w, resultStatus(result.Success), result)
}

func (h *DispatchHandler) CancelDispatch(w http.ResponseWriter, r *http.Request) {
	name, trackingID, ok := h.pathParams(w, r)
	if !ok {
		return
	}
	result := h.service.CancelOrder(r.Context(), trackingID, name)
	respondWithJSON(w, resultStatus(result.Success), result)
}
