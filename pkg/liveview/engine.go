// Package liveview implements the diff engine: it walks a rendered tree
// against a session's fingerprint tree to produce the minimal change map,
// delegating stateful-component handling to a registry.Registry.
package liveview

import (
	"context"
	"fmt"

	"github.com/pulsewire/pulseview/pkg/changemap"
	"github.com/pulsewire/pulseview/pkg/fingerprint"
	"github.com/pulsewire/pulseview/pkg/registry"
	"github.com/pulsewire/pulseview/pkg/render"
)

// Engine is the stateless diff algorithm bound to one component registry.
// A Registry is itself session-scoped, so in practice one Engine value is
// paired with one session for its lifetime, but the Engine carries no
// state of its own between calls.
type Engine struct {
	registry *registry.Registry
	cfg      Config
}

// New builds an engine bound to reg, the session's component registry.
func New(reg *registry.Registry, cfg Config) *Engine {
	return &Engine{registry: reg, cfg: cfg}
}

// renderCtx threads the state shared across one top-level Render call
// that cannot be derived locally at each recursion step: the root-level
// components map (spec: "at the top-level change map only", however
// deeply the component reference is nested) visited in document order.
type renderCtx struct {
	ctx        context.Context
	components map[int]*changemap.Map
	order      []int
	ordered    map[int]bool
}

// Render performs one render call: `(session, rendered_root) →
// (session', change_map)`. It is pure with respect to session — on
// error, session is returned unchanged and change_map is nil; no partial
// state is ever committed.
func (e *Engine) Render(ctx context.Context, session *Session, root render.Node) (*Session, *changemap.Map, error) {
	if session == nil {
		session = NewSession()
	}

	rc := &renderCtx{ctx: ctx, components: make(map[int]*changemap.Map), ordered: make(map[int]bool)}

	value, newFP, err := e.diffNode(rc, root, session.Fingerprints)
	if err != nil {
		return session, nil, err
	}

	cm, ok := value.(*changemap.Map)
	if !ok {
		return session, nil, fmt.Errorf("%w: got %T", ErrUnsupportedRootKind, value)
	}

	for _, cid := range rc.order {
		if rendered, ok := rc.components[cid]; ok {
			cm.SetComponent(cid, rendered)
		}
	}

	e.registry.GC()

	return &Session{Fingerprints: newFP}, cm, nil
}

// diffNode dispatches on the rendered node's kind and returns the wire
// value to place at the enclosing slot (nil for KindAbsent, meaning
// "emit nothing"), plus the fingerprint-tree child to store at that slot
// (nil when the kind records none: leaf and component slots).
func (e *Engine) diffNode(rc *renderCtx, node render.Node, prior *fingerprint.Tree) (any, *fingerprint.Tree, error) {
	switch node.Kind() {
	case render.KindAbsent:
		return nil, nil, nil
	case render.KindLeaf:
		return node.Leaf(), nil, nil
	case render.KindTemplate:
		return e.diffTemplate(rc, node.Template(), prior)
	case render.KindComprehension:
		return e.diffComprehension(rc, node.Comprehension(), prior)
	case render.KindComponent:
		return e.diffComponent(rc, node.Component())
	default:
		return nil, nil, fmt.Errorf("%w: unknown node kind %v", ErrUnsupportedRootKind, node.Kind())
	}
}

func (e *Engine) diffTemplate(rc *renderCtx, tpl *render.Template, prior *fingerprint.Tree) (*changemap.Map, *fingerprint.Tree, error) {
	if err := tpl.Validate(); err != nil {
		return nil, nil, err
	}

	match := prior.Matches(tpl.Fingerprint)

	out := changemap.NewTemplate()
	newFP := fingerprint.New(tpl.Fingerprint)
	if !match {
		out.Static = tpl.Static
	}

	for i, child := range tpl.Dynamic {
		var priorChild *fingerprint.Tree
		if match {
			priorChild = prior.Child(i)
		}

		val, fpChild, err := e.diffNode(rc, child, priorChild)
		if err != nil {
			return nil, nil, err
		}
		if child.Kind() == render.KindAbsent {
			continue
		}
		out.Set(i, val)
		if fpChild != nil {
			newFP = newFP.WithChild(i, fpChild)
		}
	}

	return out, newFP, nil
}

func (e *Engine) diffComprehension(rc *renderCtx, compr *render.Comprehension, prior *fingerprint.Tree) (*changemap.Map, *fingerprint.Tree, error) {
	if err := compr.Validate(); err != nil {
		return nil, nil, err
	}

	out := changemap.NewComprehension()
	if !prior.IsComprehensionSentinel() {
		out.Static = compr.Static
	}

	rows := make([][]any, len(compr.Dynamics))
	for ri, row := range compr.Dynamics {
		wireRow := make([]any, len(row))
		for ci, node := range row {
			// Every row is diffed from scratch: comprehensions have no
			// per-row fingerprint memory (spec §4.1, §9 open question).
			val, _, err := e.diffNode(rc, node, nil)
			if err != nil {
				return nil, nil, err
			}
			if val == nil {
				val = ""
			}
			wireRow[ci] = val
		}
		rows[ri] = wireRow
	}
	out.Rows = rows

	return out, fingerprint.Sentinel, nil
}

func (e *Engine) diffComponent(rc *renderCtx, ref *render.ComponentRef) (any, *fingerprint.Tree, error) {
	cid, dirty, err := e.registry.Track(rc.ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	if !rc.ordered[cid] {
		rc.ordered[cid] = true
		rc.order = append(rc.order, cid)
	}
	if !dirty {
		// Leave this cid absent from the components map entirely — "clean
		// update emits nothing" (spec §8 property 6).
		return cid, nil, nil
	}

	node, err := e.registry.Render(rc.ctx, cid)
	if err != nil {
		return nil, nil, err
	}

	priorFP, err := e.registry.PriorFingerprint(cid)
	if err != nil {
		return nil, nil, err
	}

	value, newFP, err := e.diffNode(rc, node, priorFP)
	if err != nil {
		return nil, nil, err
	}

	cm, ok := value.(*changemap.Map)
	if !ok {
		return nil, nil, fmt.Errorf("%w: component rendered a %T, not a template or comprehension", ErrUnsupportedRootKind, value)
	}

	if err := e.registry.SetFingerprint(cid, newFP); err != nil {
		return nil, nil, err
	}

	rc.components[cid] = cm

	return cid, nil, nil
}
