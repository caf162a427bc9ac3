package registry

import (
	"context"

	"github.com/pulsewire/pulseview/pkg/render"
)

// Socket is the component-local state handed to every lifecycle callback.
// It is created once on first reference and persists across renders for
// as long as the component's extern id keeps appearing.
type Socket struct {
	// ExternID is the client-stable identity the caller referenced this
	// component by.
	ExternID string

	assigns *Assigns
}

// NewSocket builds an empty socket for a freshly tracked component.
func NewSocket(externID string) *Socket {
	return &Socket{ExternID: externID, assigns: NewAssigns()}
}

// Assigns returns the socket's assigns store.
func (s *Socket) Assigns() *Assigns { return s.assigns }

// Component is a stateful, reusable rendered fragment. Implementations
// are registered with a Registry under a module tag and instantiated once
// per extern id.
//
// Mount initializes component-local state on a fresh socket. Update
// merges the caller-supplied assigns into the socket; it is invoked on
// every reference regardless of whether those assigns changed. Render
// produces this render's rendered tree and is only invoked when the
// registry has determined the component is dirty.
type Component interface {
	Mount(ctx context.Context, socket *Socket) error
	Update(ctx context.Context, assigns map[string]any, socket *Socket) error
	Render(ctx context.Context, socket *Socket) (render.Node, error)
}

// Factory constructs a fresh Component instance for a module tag. A
// Registry holds one Factory per tag and calls it once per distinct
// extern id (or again on replace, when the tag at an extern id changes).
type Factory func() Component

// BaseComponent is an embeddable no-op Component. Components that have
// no mount-time setup can embed it and implement only Render.
type BaseComponent struct{}

// Mount is a no-op; embedders override it when they need setup.
func (BaseComponent) Mount(ctx context.Context, socket *Socket) error { return nil }

// Update merges assigns into the socket unconditionally. Embedders with
// custom merge behavior (derived fields, validation) override it.
func (BaseComponent) Update(ctx context.Context, assigns map[string]any, socket *Socket) error {
	socket.Assigns().Merge(assigns)
	return nil
}
