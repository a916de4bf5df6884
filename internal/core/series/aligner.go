package series

import (
	"log/slog"
	"strings"
)

// AlignFamily pads sibling series so every member whose id ends in suffix
// shares one canonical start and bucket count. The canonical member is the
// one already spanning [min start, max last]; when no member spans the full
// window the pass degrades to a no-op rather than guessing a length, since
// an unpadded export is preferable to a failed one.
func AlignFamily(set *Set, suffix string) *Set {
	if set == nil {
		return nil
	}

	var members []int
	for i, s := range set.Data {
		if strings.HasSuffix(s.ID, suffix) {
			members = append(members, i)
		}
	}
	if len(members) == 0 {
		return set
	}

	minStart := set.Data[members[0]].History.Start
	maxLast := set.Data[members[0]].History.Last
	for _, i := range members[1:] {
		h := set.Data[i].History
		if h.Start.Before(minStart) {
			minStart = h.Start
		}
		if h.Last.After(maxLast) {
			maxLast = h.Last
		}
	}

	canonicalLen := -1
	for _, i := range members {
		h := set.Data[i].History
		if h.Start.Equal(minStart) && h.Last.Equal(maxLast) {
			canonicalLen = len(h.Data)
			break
		}
	}
	if canonicalLen < 0 {
		slog.Warn("[Aligner] No canonical member spans the family window, returning set unpadded",
			"suffix", suffix,
			"members", len(members))
		return set
	}

	for _, i := range members {
		h := set.Data[i].History
		if h.Start.Equal(minStart) {
			continue
		}

		pad := canonicalLen - len(h.Data)
		data := make([]Value, 0, canonicalLen)
		switch {
		case pad > 0:
			data = append(data, make([]Value, pad)...)
			data = append(data, h.Data...)
		case pad < 0:
			// A series starting before the canonical window. Tolerated
			// but unusual; loud on purpose.
			slog.Warn("[Aligner] Truncating series head to canonical window",
				"series_id", set.Data[i].ID,
				"dropped", -pad)
			data = append(data, h.Data[-pad:]...)
		default:
			data = append(data, h.Data...)
		}

		set.Data[i].History = History{
			Start:    minStart,
			Last:     h.Last,
			Interval: h.Interval,
			Data:     data,
		}
	}

	return set
}
