package network

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrUnknown is returned when a network code is not in the registry.
var ErrUnknown = errors.New("unknown network")

// Network is the immutable descriptor of a market/grid operator context.
// Loaded once from configuration; read-only afterwards.
type Network struct {
	Code            string `koanf:"code"`
	Country         string `koanf:"country"`
	Timezone        string `koanf:"timezone"`       // IANA name, e.g. "Australia/Sydney"
	OffsetMinutes   int    `koanf:"offset_minutes"` // fixed UTC offset used for presentation
	IntervalMinutes int    `koanf:"interval_minutes"`

	locOnce   sync.Once
	loc       *time.Location
	fixedOnce sync.Once
	fixed     *time.Location
}

// Location returns the network's IANA timezone. Falls back to the fixed
// offset if the zone database does not know the name.
func (n *Network) Location() *time.Location {
	n.locOnce.Do(func() {
		loc, err := time.LoadLocation(n.Timezone)
		if err != nil {
			loc = n.fixedZone()
		}
		n.loc = loc
	})
	return n.loc
}

// FixedOffset returns the constant-offset location used to present the
// network's local time without daylight-saving shifts.
func (n *Network) FixedOffset() *time.Location {
	return n.fixedZone()
}

func (n *Network) fixedZone() *time.Location {
	// Resolve paths hit this from concurrent request handlers, so the
	// lazy build needs the same once-guard as Location.
	n.fixedOnce.Do(func() {
		sign := "+"
		mins := n.OffsetMinutes
		if mins < 0 {
			sign = "-"
			mins = -mins
		}
		name := fmt.Sprintf("%s%02d:%02d", sign, mins/60, mins%60)
		n.fixed = time.FixedZone(name, n.OffsetMinutes*60)
	})
	return n.fixed
}

// Localize re-expresses t in the network's fixed offset without changing the
// instant.
func (n *Network) Localize(t time.Time) time.Time {
	return t.In(n.FixedOffset())
}

// NativeStep returns the network's sampling interval as a duration.
func (n *Network) NativeStep() time.Duration {
	return time.Duration(n.IntervalMinutes) * time.Minute
}

// NativeStepLabel returns the sampling interval as a human token ("5m").
func (n *Network) NativeStepLabel() string {
	return fmt.Sprintf("%dm", n.IntervalMinutes)
}

// Registry holds the configured network set keyed by upper-cased code.
type Registry struct {
	networks map[string]*Network
}

// NewRegistry builds a registry from descriptors. Duplicate codes are an
// error since reference data is authored by hand.
func NewRegistry(networks []*Network) (*Registry, error) {
	r := &Registry{networks: make(map[string]*Network, len(networks))}
	for _, n := range networks {
		code := strings.ToUpper(strings.TrimSpace(n.Code))
		if code == "" {
			return nil, fmt.Errorf("network with empty code")
		}
		if _, exists := r.networks[code]; exists {
			return nil, fmt.Errorf("duplicate network code %q", code)
		}
		if n.IntervalMinutes <= 0 {
			return nil, fmt.Errorf("network %q: interval_minutes must be > 0", code)
		}
		n.Code = code
		r.networks[code] = n
	}
	return r, nil
}

// Get returns the network for a code (case-insensitive), or an error when the
// code is unknown.
func (r *Registry) Get(code string) (*Network, error) {
	n, ok := r.networks[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, code)
	}
	return n, nil
}

// Codes returns all registered network codes.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.networks))
	for code := range r.networks {
		codes = append(codes, code)
	}
	return codes
}
