package changemap

import (
	"encoding/json"
	"testing"
)

func TestTemplateWireOmitsStaticOnIncrementalRender(t *testing.T) {
	m := NewTemplate()
	m.Set(0, "5")

	wire := m.Wire()
	if _, has := wire["static"]; has {
		t.Fatalf("expected no static key on an incremental render")
	}
	if wire["0"] != "5" {
		t.Fatalf("expected slot 0 to carry %q, got %v", "5", wire["0"])
	}
}

func TestTemplateWireIncludesStaticOnFullRender(t *testing.T) {
	m := NewTemplate()
	m.Static = []string{"<p>", "</p>"}
	m.Set(0, "hello")

	wire := m.Wire()
	statics, ok := wire["static"].([]string)
	if !ok || len(statics) != 2 {
		t.Fatalf("expected static scaffold present on full render, got %v", wire["static"])
	}
}

func TestNestedTemplateWiresRecursively(t *testing.T) {
	inner := NewTemplate()
	inner.Set(0, "nested")

	outer := NewTemplate()
	outer.Set(0, inner)

	wire := outer.Wire()
	innerWire, ok := wire["0"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map to wire as map[string]any, got %T", wire["0"])
	}
	if innerWire["0"] != "nested" {
		t.Fatalf("expected nested slot 0 to carry %q, got %v", "nested", innerWire["0"])
	}
}

func TestComprehensionWireAlwaysEmitsDynamics(t *testing.T) {
	c := NewComprehension()
	wire := c.Wire()
	rows, ok := wire["dynamics"].([][]any)
	if !ok || len(rows) != 0 {
		t.Fatalf("expected empty dynamics slice, got %v", wire["dynamics"])
	}
	if _, has := wire["static"]; has {
		t.Fatalf("expected no static key when comprehension has none set")
	}
}

func TestComprehensionWireWithRowsAndStatic(t *testing.T) {
	c := NewComprehension()
	c.Static = []string{"<li>", "</li>"}
	c.Rows = [][]any{{"a"}, {"b"}}

	wire := c.Wire()
	statics, ok := wire["static"].([]string)
	if !ok || len(statics) != 2 {
		t.Fatalf("expected static scaffold present, got %v", wire["static"])
	}
	rows, ok := wire["dynamics"].([][]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("expected two rows, got %v", wire["dynamics"])
	}
}

func TestComponentPlaceholderDetection(t *testing.T) {
	m := NewTemplate()
	m.Set(0, 7)

	cid, ok := m.ComponentPlaceholder()
	if !ok || cid != 7 {
		t.Fatalf("expected component placeholder cid 7, got %d ok=%v", cid, ok)
	}

	m.Set(1, "extra")
	if _, ok := m.ComponentPlaceholder(); ok {
		t.Fatalf("expected no placeholder once a second slot is present")
	}
}

func TestSetComponentAndWireUnderComponentsKey(t *testing.T) {
	root := NewTemplate()
	root.Set(0, 3)

	comp := NewTemplate()
	comp.Static = []string{"<span>", "</span>"}
	comp.Set(0, "count: 1")
	root.SetComponent(3, comp)

	wire := root.Wire()
	comps, ok := wire["components"].(map[string]any)
	if !ok {
		t.Fatalf("expected components key to be a map[string]any, got %T", wire["components"])
	}
	compWire, ok := comps["3"].(map[string]any)
	if !ok {
		t.Fatalf("expected component 3's map, got %v", comps["3"])
	}
	if compWire["0"] != "count: 1" {
		t.Fatalf("expected component slot 0 to carry %q, got %v", "count: 1", compWire["0"])
	}
}

func TestIsEmpty(t *testing.T) {
	var nilMap *Map
	if !nilMap.IsEmpty() {
		t.Fatalf("nil map must report empty")
	}

	m := NewTemplate()
	if !m.IsEmpty() {
		t.Fatalf("fresh template map must report empty")
	}
	m.Set(0, "x")
	if m.IsEmpty() {
		t.Fatalf("template map with a slot must not report empty")
	}

	c := NewComprehension()
	if !c.IsEmpty() {
		t.Fatalf("fresh comprehension map must report empty")
	}
	c.Rows = [][]any{{"a"}}
	if c.IsEmpty() {
		t.Fatalf("comprehension map with rows must not report empty")
	}
}

func TestEncodeProducesValidJSON(t *testing.T) {
	m := NewTemplate()
	m.Static = []string{"<b>", "</b>"}
	m.Set(0, "x")

	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Encode produced invalid JSON: %v", err)
	}
	if decoded["0"] != "x" {
		t.Fatalf("expected decoded slot 0 to be %q, got %v", "x", decoded["0"])
	}
}

func TestEncodeMsgpackRoundTrips(t *testing.T) {
	m := NewTemplate()
	m.Set(0, "y")

	data, err := EncodeMsgpack(m)
	if err != nil {
		t.Fatalf("EncodeMsgpack returned error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty msgpack payload")
	}
}
