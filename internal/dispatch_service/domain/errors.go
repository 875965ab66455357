package domain

import "errors"

var (
	ErrProviderNotConfigured = errors.New("service is not configured")
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrInvalidOrder          = errors.New("invalid order")
	ErrRecordNotFound        = errors.New("dispatch record not found")
)
