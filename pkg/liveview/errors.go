package liveview

import "errors"

// ErrUnsupportedRootKind is returned when a render is handed a root node
// that is not a template instance or comprehension — the two kinds that
// can anchor a change map.
var ErrUnsupportedRootKind = errors.New("root rendered node must be a template or comprehension")
