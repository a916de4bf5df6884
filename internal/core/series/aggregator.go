package series

import (
	"sort"
	"strings"
	"time"

	"github.com/opennem/opennem-sub002/internal/core/network"
	"github.com/opennem/opennem-sub002/internal/core/window"
)

// UnitDescriptor carries the display metadata for the quantity being
// aggregated. Injected from fixtures, never a process-wide table.
type UnitDescriptor struct {
	Type  string // e.g. "power", "energy", "temperature_mean"
	Unit  string // e.g. "MW", "MWh"
	Alias string // short name used by the fallback id rule; optional
	Round int32  // decimal places; negative disables rounding
}

// GroupMeta is a group code's display metadata, resolved from the fixture
// tables by the caller.
type GroupMeta struct {
	Label     string
	Renewable bool
}

// BuildOptions control labeling and localization of a built set.
type BuildOptions struct {
	Network *network.Network
	Region  string
	Code    string

	// GroupField names the grouping dimension when it is not fuel tech
	// (e.g. "flow_direction"). Ignored when FuelTechGrouped is set.
	GroupField       string
	FuelTechGrouped  bool
	IncludeGroupCode bool

	// GroupMeta looks up display metadata for a group code. Consulted
	// only in fuel-tech mode; unknown codes stay unlabeled.
	GroupMeta func(code string) (GroupMeta, bool)

	// ExplicitID bypasses id construction entirely.
	ExplicitID string

	// Localize re-expresses history boundaries in the network's fixed
	// offset.
	Localize bool

	// CastNulls overrides the trailing-null-to-zero default. When nil,
	// trailing nulls are cast unless the unit type is a temperature.
	CastNulls *bool

	// SetType overrides the set's type label; defaults to the unit type.
	SetType string

	// Version is the caller-supplied build identifier.
	Version string

	// Now is the injected clock for CreatedAt; zero means time.Now.
	Now time.Time
}

// BuildSet converts raw observation rows into one labeled series per distinct
// group. Returns nil when no group produced usable data — the caller decides
// whether that means "not found" or "no data yet".
func BuildSet(win window.Window, unit UnitDescriptor, rows []Observation, opts BuildOptions) *Set {
	if len(rows) == 0 {
		return nil
	}

	// Distinct groups in first-seen order; per-group last-write-wins
	// observation map keyed by instant.
	var groups []string
	byGroup := make(map[string]map[int64]Observation)
	for _, row := range rows {
		m, ok := byGroup[row.Group]
		if !ok {
			m = make(map[int64]Observation)
			byGroup[row.Group] = m
			groups = append(groups, row.Group)
		}
		m[row.Timestamp.UnixNano()] = row
	}

	castNulls := !strings.HasPrefix(unit.Type, "temperature")
	if opts.CastNulls != nil {
		castNulls = *opts.CastNulls
	}

	var out []Series
	for _, group := range groups {
		s, ok := buildSeries(win, unit, group, byGroup[group], castNulls, opts)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	set := &Set{
		Type:    setType(unit, opts),
		Data:    out,
		Version: opts.Version,
		Region:  opts.Region,
	}
	if opts.Network != nil {
		set.Network = opts.Network.Code
		set.CreatedAt = now.In(opts.Network.Location())
	} else {
		set.CreatedAt = now
	}

	switch {
	case opts.Code != "":
		set.Code = opts.Code
	case opts.Network != nil:
		set.Code = opts.Network.Code
	default:
		set.Code = opts.Region
	}

	return set
}

// buildSeries assembles one group's gap-filled history. Returns ok=false when
// the group carries no non-null value at all.
func buildSeries(win window.Window, unit UnitDescriptor, group string, obs map[int64]Observation, castNulls bool, opts BuildOptions) (Series, bool) {
	usable := false
	keys := make([]int64, 0, len(obs))
	for k, o := range obs {
		keys = append(keys, k)
		if o.Value.Valid {
			usable = true
		}
	}
	if !usable {
		return Series{}, false
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	start := obs[keys[0]].Timestamp
	last := obs[keys[len(keys)-1]].Timestamp

	// One bucket per step between start and last inclusive; missing
	// buckets become explicit nulls.
	var values []Value
	for t := start; !t.After(last); t = win.Step.Next(t) {
		if o, ok := obs[t.UnixNano()]; ok {
			values = append(values, o.Value.Round(unit.Round))
		} else {
			values = append(values, Null)
		}
	}

	if castNulls {
		values = CastTrailingNulls(values)
	}

	if opts.Localize && opts.Network != nil {
		start = start.In(opts.Network.Location()).In(opts.Network.FixedOffset())
		last = last.In(opts.Network.Location()).In(opts.Network.FixedOffset())
	}

	s := Series{
		ID:    seriesID(unit, group, opts),
		Type:  unit.Type,
		Units: unit.Unit,
		History: History{
			Start:    start,
			Last:     last,
			Interval: win.Step.Label,
			Data:     values,
		},
	}
	if opts.FuelTechGrouped {
		s.FuelTech = group
		if opts.GroupMeta != nil {
			if meta, ok := opts.GroupMeta(group); ok {
				s.Label = meta.Label
				s.Renewable = meta.Renewable
			}
		}
	}
	if opts.Region != "" {
		s.Region = strings.ToLower(opts.Region)
	}
	return s, true
}

// CastTrailingNulls replaces nulls with zero scanning backward from the end,
// stopping at the first non-null value. Everything before that point,
// interior nulls included, is untouched.
func CastTrailingNulls(values []Value) []Value {
	out := make([]Value, len(values))
	copy(out, values)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Valid {
			break
		}
		out[i] = Zero()
	}
	return out
}

// seriesID builds the dot-joined lowercase slug identifying a series. The
// precedence between labeling modes is an ordered list of components with
// missing ones dropped, never ad hoc concatenation.
func seriesID(unit UnitDescriptor, group string, opts BuildOptions) string {
	if opts.ExplicitID != "" {
		return opts.ExplicitID
	}

	netCode := ""
	if opts.Network != nil {
		netCode = opts.Network.Code
	}

	switch {
	case opts.FuelTechGrouped:
		return joinComponents(netCode, opts.Region, "fuel_tech", group, unit.Type)
	case opts.GroupField != "":
		groupPart := ""
		if opts.IncludeGroupCode {
			groupPart = group
		}
		return joinComponents(netCode, opts.Region, unit.Type, groupPart)
	default:
		unitPart := unit.Alias
		if unitPart == "" {
			unitPart = unit.Unit
		}
		return joinComponents(netCode, opts.Region, group, unitPart)
	}
}

// joinComponents lower-cases and dot-joins the non-empty parts, leaving no
// empty segments.
func joinComponents(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		kept = append(kept, strings.ToLower(p))
	}
	return strings.Join(kept, ".")
}

func setType(unit UnitDescriptor, opts BuildOptions) string {
	if opts.SetType != "" {
		return opts.SetType
	}
	return unit.Type
}
