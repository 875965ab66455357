package domain

import (
	"fmt"
	"strings"
)

// ProviderName identifies a courier. The set is closed.
type ProviderName string

const (
	ProviderPathao    ProviderName = "pathao"
	ProviderSteadfast ProviderName = "steadfast"
	ProviderRedx      ProviderName = "redx"
)

// AllProviders lists every supported courier in a stable order.
var AllProviders = []ProviderName{ProviderPathao, ProviderSteadfast, ProviderRedx}

// ParseProviderName accepts any casing and surrounding whitespace.
func ParseProviderName(s string) (ProviderName, error) {
	name := ProviderName(strings.ToLower(strings.TrimSpace(s)))
	switch name {
	case ProviderPathao, ProviderSteadfast, ProviderRedx:
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

func (p ProviderName) String() string { return string(p) }

// DisplayName is the brand spelling used in user-facing messages.
func (p ProviderName) DisplayName() string {
	switch p {
	case ProviderPathao:
		return "Pathao"
	case ProviderSteadfast:
		return "Steadfast"
	case ProviderRedx:
		return "Redx"
	}
	return string(p)
}
