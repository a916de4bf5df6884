// Package fixtures holds the read-only display-metadata tables (fuel
// technologies, unit definitions) consumed by series labeling. The registry
// is injected wherever it is needed so tests can substitute their own
// fixtures without touching global state.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FuelTech is one fuel technology's display metadata.
type FuelTech struct {
	Code      string `yaml:"code"`
	Label     string `yaml:"label"`
	Renewable bool   `yaml:"renewable"`
}

// Unit defines how a measured quantity is labeled and rounded.
type Unit struct {
	Name    string `yaml:"name"`     // e.g. "power", "energy", "temperature_mean"
	Display string `yaml:"unit"`     // e.g. "MW", "MWh", "degC"
	Alias   string `yaml:"alias"`    // short id component; optional
	RoundTo int32  `yaml:"round_to"` // decimal places
}

// Registry is the immutable fixture set. Build it once at startup.
type Registry struct {
	fuelTechs map[string]FuelTech
	units     map[string]Unit
}

// NewRegistry builds a registry from explicit tables.
func NewRegistry(fuelTechs []FuelTech, units []Unit) (*Registry, error) {
	r := &Registry{
		fuelTechs: make(map[string]FuelTech, len(fuelTechs)),
		units:     make(map[string]Unit, len(units)),
	}
	for _, ft := range fuelTechs {
		code := strings.ToLower(strings.TrimSpace(ft.Code))
		if code == "" {
			return nil, fmt.Errorf("fuel tech with empty code")
		}
		if _, dup := r.fuelTechs[code]; dup {
			return nil, fmt.Errorf("duplicate fuel tech %q", code)
		}
		ft.Code = code
		r.fuelTechs[code] = ft
	}
	for _, u := range units {
		name := strings.ToLower(strings.TrimSpace(u.Name))
		if name == "" {
			return nil, fmt.Errorf("unit with empty name")
		}
		if _, dup := r.units[name]; dup {
			return nil, fmt.Errorf("duplicate unit %q", name)
		}
		u.Name = name
		r.units[name] = u
	}
	return r, nil
}

// Default returns the built-in fixture set. LoadDir augments or replaces
// entries from YAML files when a fixtures directory is configured.
func Default() *Registry {
	r, err := NewRegistry(defaultFuelTechs, defaultUnits)
	if err != nil {
		// The built-in tables are compiled in; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}

// fixtureFile is the on-disk YAML shape. Either list may be empty.
type fixtureFile struct {
	FuelTechs []FuelTech `yaml:"fuel_techs"`
	Units     []Unit     `yaml:"units"`
}

// LoadDir reads *.yaml files from dir and merges their entries over the
// defaults. A missing directory is valid — defaults apply unchanged.
func LoadDir(dir string) (*Registry, error) {
	r := Default()

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fixtures dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixtures path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading fixture file %s: %w", path, err)
		}
		var f fixtureFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing fixture file %s: %w", path, err)
		}
		for _, ft := range f.FuelTechs {
			if ft.Code == "" {
				return nil, fmt.Errorf("fixture file %s: fuel tech with empty code", path)
			}
			ft.Code = strings.ToLower(ft.Code)
			r.fuelTechs[ft.Code] = ft
		}
		for _, u := range f.Units {
			if u.Name == "" {
				return nil, fmt.Errorf("fixture file %s: unit with empty name", path)
			}
			u.Name = strings.ToLower(u.Name)
			r.units[u.Name] = u
		}
	}

	return r, nil
}

// FuelTech looks up a fuel technology by code (case-insensitive).
func (r *Registry) FuelTech(code string) (FuelTech, bool) {
	ft, ok := r.fuelTechs[strings.ToLower(strings.TrimSpace(code))]
	return ft, ok
}

// Unit looks up a unit definition by name (case-insensitive).
func (r *Registry) Unit(name string) (Unit, bool) {
	u, ok := r.units[strings.ToLower(strings.TrimSpace(name))]
	return u, ok
}

var defaultFuelTechs = []FuelTech{
	{Code: "coal_black", Label: "Coal (Black)"},
	{Code: "coal_brown", Label: "Coal (Brown)"},
	{Code: "gas_ccgt", Label: "Gas (CCGT)"},
	{Code: "gas_ocgt", Label: "Gas (OCGT)"},
	{Code: "gas_steam", Label: "Gas (Steam)"},
	{Code: "distillate", Label: "Distillate"},
	{Code: "hydro", Label: "Hydro", Renewable: true},
	{Code: "pumps", Label: "Pumps"},
	{Code: "wind", Label: "Wind", Renewable: true},
	{Code: "solar_utility", Label: "Solar (Utility)", Renewable: true},
	{Code: "solar_rooftop", Label: "Solar (Rooftop)", Renewable: true},
	{Code: "battery_charging", Label: "Battery (Charging)"},
	{Code: "battery_discharging", Label: "Battery (Discharging)", Renewable: true},
	{Code: "bioenergy_biomass", Label: "Bioenergy (Biomass)", Renewable: true},
	{Code: "imports", Label: "Imports"},
	{Code: "exports", Label: "Exports"},
}

var defaultUnits = []Unit{
	{Name: "power", Display: "MW", RoundTo: 2},
	{Name: "energy", Display: "MWh", RoundTo: 2},
	{Name: "energy_giga", Display: "GWh", Alias: "energy", RoundTo: 2},
	{Name: "market_value", Display: "AUD", RoundTo: 2},
	{Name: "price", Display: "AUD/MWh", RoundTo: 2},
	{Name: "demand", Display: "MW", RoundTo: 2},
	{Name: "emissions", Display: "tCO2e", RoundTo: 4},
	{Name: "temperature", Display: "degC", RoundTo: 2},
	{Name: "temperature_mean", Display: "degC", Alias: "temperature", RoundTo: 2},
}
