package http

import "github.com/technirvor/logistics_services/internal/dispatch_service/domain"

// CreateDispatchRequest is the body of POST /v1/dispatches.
type CreateDispatchRequest struct {
	Provider string       `json:"provider" validate:"required"`
	Order    domain.Order `json:"order"`
}

type ProvidersResponse struct {
	Providers []domain.ProviderName `json:"providers"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
