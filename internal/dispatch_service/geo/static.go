package geo

import (
	"context"
	"fmt"
)

// StaticResolver looks names up in a fixed table. A positive fallback is
// returned for unknown names; otherwise ErrLocationNotFound.
type StaticResolver struct {
	table    Table
	fallback int
}

func NewStaticResolver(table Table, fallback int) *StaticResolver {
	return &StaticResolver{table: table, fallback: fallback}
}

func (r *StaticResolver) Resolve(_ context.Context, name string) (int, error) {
	if id, ok := r.table.Lookup(name); ok {
		return id, nil
	}
	if r.fallback > 0 {
		return r.fallback, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
}

// StaticZoneResolver holds one zone table per city id.
type StaticZoneResolver struct {
	cities map[int]ZoneTable
}

type ZoneTable struct {
	Zones    Table
	Fallback int
}

func NewStaticZoneResolver(cities map[int]ZoneTable) *StaticZoneResolver {
	return &StaticZoneResolver{cities: cities}
}

func (r *StaticZoneResolver) ResolveZone(_ context.Context, cityID int, name string) (int, error) {
	zt, ok := r.cities[cityID]
	if !ok {
		return 0, fmt.Errorf("%w: no zones for city %d", ErrLocationNotFound, cityID)
	}
	if id, ok := zt.Zones.Lookup(name); ok {
		return id, nil
	}
	if zt.Fallback > 0 {
		return zt.Fallback, nil
	}
	return 0, fmt.Errorf("%w: zone %q in city %d", ErrLocationNotFound, name, cityID)
}
