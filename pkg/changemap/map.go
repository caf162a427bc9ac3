// Package changemap projects the diff engine's internal structures into
// the nested wire format a browser client applies against a previously
// received full render. Dynamic slots use integer keys; the reserved keys
// "static", "dynamics" and "components" carry the corresponding meta
// fields. Keys whose values are empty on an incremental render are
// omitted entirely, except a comprehension's "dynamics", which is always
// present (possibly as an empty list).
package changemap

import "strconv"

// Map is one change-map node: either a template-instance diff (Slots,
// optionally Static) or a comprehension diff (Static, Rows). Components
// is only ever populated on the root Map returned by a top-level render
// call, whether that render is full or incremental.
type Map struct {
	// Slots holds dynamic-slot values for a template-instance node. A
	// value is a string (leaf), an int (component cid reference), or a
	// *Map (nested template/comprehension change map).
	Slots map[int]any

	// Static is the template's static scaffold, present only when the
	// client did not already know it (full render) — or, for a
	// comprehension, the inner static scaffold under the same condition.
	Static []string

	// IsComprehension marks this Map as a comprehension diff: Rows is
	// used instead of Slots, and Rows is always emitted (possibly empty)
	// even when Static is elided.
	IsComprehension bool
	Rows            [][]any

	// Components holds full component change maps keyed by cid. Only
	// meaningful on the root Map of a render call.
	Components map[int]*Map
}

// NewTemplate builds a template-instance change map.
func NewTemplate() *Map {
	return &Map{Slots: make(map[int]any)}
}

// NewComprehension builds a comprehension change map.
func NewComprehension() *Map {
	return &Map{IsComprehension: true, Rows: [][]any{}}
}

// Set stores a dynamic-slot value (string, int cid, or *Map).
func (m *Map) Set(slot int, value any) {
	if m.Slots == nil {
		m.Slots = make(map[int]any)
	}
	m.Slots[slot] = value
}

// SetComponent records a full component change map under the root-level
// components key.
func (m *Map) SetComponent(cid int, cm *Map) {
	if m.Components == nil {
		m.Components = make(map[int]*Map)
	}
	m.Components[cid] = cm
}

// IsEmpty reports whether this change map carries nothing at all — no
// slots, no statics, no rows, no component renders.
func (m *Map) IsEmpty() bool {
	if m == nil {
		return true
	}
	if m.IsComprehension {
		return len(m.Static) == 0 && len(m.Rows) == 0 && len(m.Components) == 0
	}
	return len(m.Slots) == 0 && len(m.Static) == 0 && len(m.Components) == 0
}

// ComponentPlaceholder reports whether this map is exactly the "component
// did not re-render" signal: a single key 0 holding an integer cid and
// nothing else.
func (m *Map) ComponentPlaceholder() (cid int, ok bool) {
	if m == nil || m.IsComprehension || len(m.Slots) != 1 || len(m.Static) != 0 || len(m.Components) != 0 {
		return 0, false
	}
	v, has := m.Slots[0]
	if !has {
		return 0, false
	}
	cid, ok = v.(int)
	return cid, ok
}

// Wire converts the Map into a plain nested structure (map[string]any,
// []any, string, int) suitable for any general-purpose encoder — JSON,
// msgpack, or otherwise. Integer slot keys become their decimal string
// form, matching the wire format's string-or-reserved-symbol key space.
func (m *Map) Wire() map[string]any {
	if m == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(m.Slots)+3)

	if m.IsComprehension {
		if len(m.Static) > 0 {
			out["static"] = m.Static
		}
		out["dynamics"] = wireRows(m.Rows)
		return out
	}

	for slot, v := range m.Slots {
		out[strconv.Itoa(slot)] = wireValue(v)
	}
	if len(m.Static) > 0 {
		out["static"] = m.Static
	}
	if len(m.Components) > 0 {
		comps := make(map[string]any, len(m.Components))
		for cid, cm := range m.Components {
			comps[strconv.Itoa(cid)] = cm.Wire()
		}
		out["components"] = comps
	}
	return out
}

func wireRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		wrow := make([]any, len(row))
		for j, v := range row {
			wrow[j] = wireValue(v)
		}
		out[i] = wrow
	}
	return out
}

func wireValue(v any) any {
	if cm, ok := v.(*Map); ok {
		return cm.Wire()
	}
	return v
}
