package liveview

import "github.com/pulsewire/pulseview/pkg/fingerprint"

// Session carries the render-to-render state owned by one client
// session: the fingerprint tree shadowing what the client already knows.
// Session state is treated as immutable from the engine's perspective —
// Render consumes one Session value and returns a new one; it never
// mutates the Session handed to it.
type Session struct {
	Fingerprints *fingerprint.Tree
}

// NewSession returns a fresh session with no prior client knowledge —
// the next render against it will be a full render.
func NewSession() *Session {
	return &Session{}
}
