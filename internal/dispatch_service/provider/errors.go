package provider

import (
	"errors"
	"fmt"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

var (
	ErrAuthentication     = errors.New("authentication failed")
	ErrMissingCredentials = errors.New("missing credentials")
)

// APIError is returned for non-2xx responses and for 2xx responses whose
// body reports failure.
type APIError struct {
	Provider   domain.ProviderName
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string { return e.Message }

// AuthError wraps a failed token exchange.
type AuthError struct {
	Provider domain.ProviderName
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("Failed to authenticate with %s API", e.Provider.DisplayName())
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == ErrAuthentication }
