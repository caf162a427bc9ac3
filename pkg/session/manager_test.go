package session

import (
	"context"
	"testing"

	"github.com/pulsewire/pulseview/pkg/registry"
	"github.com/pulsewire/pulseview/pkg/render"
)

func basicTemplate(time, subtitle string) render.Node {
	return render.FromTemplate(&render.Template{
		Static:      []string{"<div>\n  <h2>It's ", "</h2>\n  ", "\n</div>\n"},
		Dynamic:     []render.Node{render.Leaf(time), render.Leaf(subtitle)},
		Fingerprint: 42,
	})
}

func TestManagerRenderFirstAndSecond(t *testing.T) {
	m := New(nil, Config{})

	cm1, err := m.Render(context.Background(), "conn-1", basicTemplate("10:30", "Sunny"))
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	if len(cm1.Static) == 0 {
		t.Fatal("expected full static on first render")
	}

	cm2, err := m.Render(context.Background(), "conn-1", basicTemplate("10:31", "Cloudy"))
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if len(cm2.Static) != 0 {
		t.Fatal("expected no static once the fingerprint matched")
	}
	if cm2.Slots[0] != "10:31" || cm2.Slots[1] != "Cloudy" {
		t.Fatalf("unexpected slots: %+v", cm2.Slots)
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := New(nil, Config{})

	if _, err := m.Render(context.Background(), "a", basicTemplate("1", "x")); err != nil {
		t.Fatalf("render a: %v", err)
	}
	cmB, err := m.Render(context.Background(), "b", basicTemplate("1", "x"))
	if err != nil {
		t.Fatalf("render b: %v", err)
	}
	if len(cmB.Static) == 0 {
		t.Fatal("session b should not see session a's fingerprint knowledge")
	}
}

func TestManagerCloseResetsKnowledge(t *testing.T) {
	m := New(nil, Config{})

	if _, err := m.Render(context.Background(), "conn", basicTemplate("1", "x")); err != nil {
		t.Fatalf("first render: %v", err)
	}
	m.Close("conn")

	cm, err := m.Render(context.Background(), "conn", basicTemplate("1", "x"))
	if err != nil {
		t.Fatalf("render after close: %v", err)
	}
	if len(cm.Static) == 0 {
		t.Fatal("expected a full render again after closing the session")
	}
}

func TestManagerHistoryTracksRenders(t *testing.T) {
	m := New(nil, Config{HistorySize: 4})

	for i := 0; i < 3; i++ {
		if _, err := m.Render(context.Background(), "conn", basicTemplate("1", "x")); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}

	hist, err := m.History("conn")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(hist))
	}
}

func TestManagerRenderUnknownComponentFails(t *testing.T) {
	m := New(map[string]registry.Factory{}, Config{})

	root := render.FromTemplate(&render.Template{
		Static:      []string{"", ""},
		Dynamic:     []render.Node{render.FromComponent(&render.ComponentRef{ID: "x", Module: "missing"})},
		Fingerprint: 1,
	})

	if _, err := m.Render(context.Background(), "conn", root); err == nil {
		t.Fatal("expected an error for an unregistered component module")
	}

	if _, err := m.History("conn"); err != nil {
		t.Fatalf("history should still exist after a failed render: %v", err)
	}
}

func TestManagerPing(t *testing.T) {
	m := New(nil, Config{})
	if err := m.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == b {
		t.Fatal("expected distinct session ids")
	}
}
