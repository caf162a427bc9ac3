// Package fingerprint implements the server-side shadow tree that records
// which static scaffolding a client already holds. It has no public
// contract beyond what pkg/liveview needs: lookup a child at a slot index,
// build a fresh subtree from a rendered walk, and compare by fingerprint
// value only — statics are never compared directly.
package fingerprint

import "hash/fnv"

// Sentinel is the marker fingerprint-tree children hold when a slot last
// held a comprehension. Comprehensions have no per-row identity, so there
// is nothing further to descend into.
var Sentinel = &Tree{comprehension: true}

// Tree is a server-retained shadow of one template instance: its root
// fingerprint plus, for each dynamic slot that held a nested template,
// comprehension, the corresponding child. Slots that held a leaf string,
// a component reference, or nothing have no entry.
type Tree struct {
	RootFP   uint64
	Children map[int]*Tree

	comprehension bool
}

// IsComprehensionSentinel reports whether this node is the marker meaning
// "this slot held a comprehension on the previous render".
func (t *Tree) IsComprehensionSentinel() bool {
	return t != nil && t.comprehension
}

// New builds an empty tree with the given root fingerprint.
func New(rootFP uint64) *Tree {
	return &Tree{RootFP: rootFP, Children: make(map[int]*Tree)}
}

// Child returns the fingerprint subtree at a dynamic slot index, or nil if
// the client has no prior knowledge of that slot (spec: "absent value" at
// a slot means no prior knowledge).
func (t *Tree) Child(slot int) *Tree {
	if t == nil || t.Children == nil {
		return nil
	}
	return t.Children[slot]
}

// WithChild returns a copy of t with child set at slot, preserving
// structural sharing of every other child (session state is treated as
// immutable from the engine's perspective; each render consumes a prior
// tree and produces a new one).
func (t *Tree) WithChild(slot int, child *Tree) *Tree {
	next := &Tree{RootFP: t.rootFPOrZero(), Children: make(map[int]*Tree, len(t.childrenOrNil())+1)}
	for k, v := range t.childrenOrNil() {
		next.Children[k] = v
	}
	if child == nil {
		delete(next.Children, slot)
	} else {
		next.Children[slot] = child
	}
	return next
}

func (t *Tree) rootFPOrZero() uint64 {
	if t == nil {
		return 0
	}
	return t.RootFP
}

func (t *Tree) childrenOrNil() map[int]*Tree {
	if t == nil {
		return nil
	}
	return t.Children
}

// Matches reports whether a rendered template's fingerprint matches this
// tree's root fingerprint. An absent tree (nil) never matches — "absent"
// is treated the same as a mismatch so the client gets a full render.
func (t *Tree) Matches(fp uint64) bool {
	return t != nil && !t.comprehension && t.RootFP == fp
}

// ComputeStaticFingerprint derives a deterministic id for a template's
// static scaffold. Per the design notes, a hash of the static sequence
// suffices: collisions are vanishingly unlikely and two instances of the
// same compiled template always hash identically. Callers needing
// airtight safety should instead assign a process-local monotonic id per
// compiled template and ignore this helper.
func ComputeStaticFingerprint(statics []string) uint64 {
	h := fnv.New64a()
	for _, s := range statics {
		h.Write([]byte(s))
		h.Write([]byte{0}) // separator so ["ab",""] != ["a","b"]
	}
	return h.Sum64()
}
