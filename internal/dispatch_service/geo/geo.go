// Package geo maps free-text Bangladeshi place names to courier location ids.
//
// Couriers identify cities, zones and delivery areas by numeric ids. The
// static tables shipped with the service cover the common cases; LiveResolver
// pulls the authoritative lists from the courier and caches them.
package geo

import (
	"context"
	"errors"
	"strings"
)

var ErrLocationNotFound = errors.New("location not found")

// Resolver maps a place name to a courier location id.
type Resolver interface {
	Resolve(ctx context.Context, name string) (int, error)
}

// ZoneResolver maps a place name inside a city to a zone id.
type ZoneResolver interface {
	ResolveZone(ctx context.Context, cityID int, name string) (int, error)
}

// Table is a normalized name -> id lookup.
type Table map[string]int

// NewTable normalizes the keys of entries.
func NewTable(entries map[string]int) Table {
	t := make(Table, len(entries))
	for name, id := range entries {
		t[Normalize(name)] = id
	}
	return t
}

func (t Table) Lookup(name string) (int, bool) {
	id, ok := t[Normalize(name)]
	return id, ok
}

// Normalize lowercases and collapses whitespace so "  Cox's  Bazar" matches "cox's bazar".
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
