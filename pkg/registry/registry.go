// Package registry implements the component registry — the "CID engine"
// that maps client-stable component identities to internal numeric ids
// and drives their mount/update/render lifecycle with memoized rendering.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/pulsewire/pulseview/pkg/fingerprint"
	"github.com/pulsewire/pulseview/pkg/render"
)

// Errors returned by Registry operations.
var (
	// ErrUnknownComponent is returned when a reference names a module tag
	// with no registered Factory.
	ErrUnknownComponent = errors.New("unknown component module")

	// ErrComponentCallback wraps any failure — panic, error return, or
	// timeout — from a component's Mount, Update or Render callback.
	ErrComponentCallback = errors.New("component callback failed")

	// ErrUnknownCID is returned when a caller asks the registry about a
	// cid it never allocated. This is always a programmer error: the
	// registry never silently creates an entry.
	ErrUnknownCID = errors.New("unknown component id")
)

// entry is the registry's per-cid state.
type entry struct {
	module      string
	externID    string
	component   Component
	socket      *Socket
	assigns     map[string]any
	dirty       bool
	visited     bool
	fingerprint *fingerprint.Tree
}

// Registry is the session-scoped CID engine. It is not safe for
// concurrent use by multiple renders of the same session — per the
// concurrency model, one session's render is atomic and renders for
// different sessions never share a Registry.
type Registry struct {
	factories map[string]Factory
	cfg       Config

	entries     map[int]*entry
	externToCID map[string]int
	nextCID     int
}

// New builds an empty registry. factories maps a component's module tag
// to the Factory that constructs it; it is fixed for the registry's
// lifetime.
func New(factories map[string]Factory, cfg Config) *Registry {
	return &Registry{
		factories:   factories,
		cfg:         cfg,
		entries:     make(map[int]*entry),
		externToCID: make(map[string]int),
	}
}

// Track implements the registry's `track` operation (spec §4.4): given a
// component reference, it allocates, updates or replaces the matching
// entry and returns its cid plus whether this render must re-render it.
//
// A failed Mount or Update callback leaves the registry exactly as it
// found it: cid allocation, entry insertion and the externID→cid mapping
// for a new component are only committed once both callbacks succeed, and
// an existing entry's module/component/fingerprint are only overwritten
// once its replacement has mounted and updated cleanly. A retry after a
// failure therefore always finds the component still absent (or still on
// its prior module) and mounts it again, rather than skipping straight to
// an update against a half-initialized entry.
func (r *Registry) Track(ctx context.Context, ref *render.ComponentRef) (cid int, dirty bool, err error) {
	factory, ok := r.factories[ref.Module]
	if !ok {
		return 0, false, fmt.Errorf("%w: %s", ErrUnknownComponent, ref.Module)
	}

	existingCID, exists := r.externToCID[ref.ID]
	if !exists {
		comp := factory()
		sock := NewSocket(ref.ID)

		if err := safeCall(ctx, r.cfg.MountTimeout, "mount", func() error {
			return comp.Mount(ctx, sock)
		}); err != nil {
			return 0, false, err
		}
		if err := safeCall(ctx, r.cfg.UpdateTimeout, "update", func() error {
			return comp.Update(ctx, ref.Assigns, sock)
		}); err != nil {
			return 0, false, err
		}

		cid = r.nextCID
		r.nextCID++
		r.entries[cid] = &entry{
			module:    ref.Module,
			externID:  ref.ID,
			component: comp,
			socket:    sock,
			assigns:   cloneAssigns(ref.Assigns),
			dirty:     true,
			visited:   true,
		}
		r.externToCID[ref.ID] = cid
		return cid, true, nil
	}

	cid = existingCID
	e := r.entries[cid]

	if e.module != ref.Module {
		// Replace: reuse the cid, discard memoization, mount again. The
		// live entry is only overwritten after the new component mounts
		// and updates cleanly, so a failure leaves the prior component
		// in place under the same cid.
		comp := factory()

		if err := safeCall(ctx, r.cfg.MountTimeout, "mount", func() error {
			return comp.Mount(ctx, e.socket)
		}); err != nil {
			return 0, false, err
		}
		if err := safeCall(ctx, r.cfg.UpdateTimeout, "update", func() error {
			return comp.Update(ctx, ref.Assigns, e.socket)
		}); err != nil {
			return 0, false, err
		}

		e.component = comp
		e.module = ref.Module
		e.fingerprint = nil
		e.assigns = cloneAssigns(ref.Assigns)
		e.dirty = true
		e.visited = true
		return cid, true, nil
	}

	// Same module: update only, dirty iff assigns actually changed.
	changed := !assignsEqual(e.assigns, ref.Assigns)
	if err := safeCall(ctx, r.cfg.UpdateTimeout, "update", func() error {
		return e.component.Update(ctx, ref.Assigns, e.socket)
	}); err != nil {
		return 0, false, err
	}
	e.assigns = cloneAssigns(ref.Assigns)
	e.dirty = changed
	e.visited = true
	return cid, changed, nil
}

// Lookup returns the component instance and socket for a cid, for the
// caller (the diff engine) to invoke Render on when dirty.
func (r *Registry) Lookup(cid int) (Component, *Socket, bool) {
	e, ok := r.entries[cid]
	if !ok {
		return nil, nil, false
	}
	return e.component, e.socket, true
}

// Render invokes the component's Render callback under the same panic
// and timeout protection as Mount/Update.
func (r *Registry) Render(ctx context.Context, cid int) (render.Node, error) {
	e, ok := r.entries[cid]
	if !ok {
		return render.Absent, fmt.Errorf("%w: %d", ErrUnknownCID, cid)
	}

	var out render.Node
	err := safeCall(ctx, r.cfg.RenderTimeout, "render", func() error {
		node, err := e.component.Render(ctx, e.socket)
		if err != nil {
			return err
		}
		out = node
		return nil
	})
	return out, err
}

// PriorFingerprint returns the fingerprint tree memoized from this cid's
// last render, or nil if it has never rendered.
func (r *Registry) PriorFingerprint(cid int) (*fingerprint.Tree, error) {
	e, ok := r.entries[cid]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCID, cid)
	}
	return e.fingerprint, nil
}

// SetFingerprint replaces a cid's memoized fingerprint tree after a
// successful render_component.
func (r *Registry) SetFingerprint(cid int, tree *fingerprint.Tree) error {
	e, ok := r.entries[cid]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCID, cid)
	}
	e.fingerprint = tree
	return nil
}

// GC removes every entry whose cid was not visited during the completed
// render. next_cid is never decremented — freed ids are not recycled.
func (r *Registry) GC() {
	for cid, e := range r.entries {
		if e.visited {
			e.visited = false
			continue
		}
		delete(r.entries, cid)
		delete(r.externToCID, e.externID)
	}
}

// ExternID returns the client-stable id a cid was tracked under, for
// encoder and debugging use.
func (r *Registry) ExternID(cid int) (string, bool) {
	e, ok := r.entries[cid]
	if !ok {
		return "", false
	}
	return e.externID, true
}

func cloneAssigns(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
