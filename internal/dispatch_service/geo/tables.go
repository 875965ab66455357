package geo

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// Tables is the on-disk shape of the static location tables.
type Tables struct {
	Pathao struct {
		CityFallback int            `yaml:"city_fallback"`
		Cities       map[string]int `yaml:"cities"`
		Zones        map[int]struct {
			Fallback int            `yaml:"fallback"`
			Zones    map[string]int `yaml:"zones"`
		} `yaml:"zones"`
	} `yaml:"pathao"`
	Redx struct {
		AreaFallback int            `yaml:"area_fallback"`
		Areas        map[string]int `yaml:"areas"`
	} `yaml:"redx"`
}

// DefaultTables returns the tables embedded in the binary.
func DefaultTables() (*Tables, error) {
	return parseTables(defaultTablesYAML)
}

// LoadTables reads tables from path, or the embedded defaults when path is empty.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geo tables %s: %w", path, err)
	}
	return parseTables(data)
}

func parseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing geo tables: %w", err)
	}
	return &t, nil
}

func (t *Tables) PathaoCities() *StaticResolver {
	return NewStaticResolver(NewTable(t.Pathao.Cities), t.Pathao.CityFallback)
}

func (t *Tables) PathaoZones() *StaticZoneResolver {
	cities := make(map[int]ZoneTable, len(t.Pathao.Zones))
	for cityID, z := range t.Pathao.Zones {
		cities[cityID] = ZoneTable{Zones: NewTable(z.Zones), Fallback: z.Fallback}
	}
	return NewStaticZoneResolver(cities)
}

func (t *Tables) RedxAreas() *StaticResolver {
	return NewStaticResolver(NewTable(t.Redx.Areas), t.Redx.AreaFallback)
}
