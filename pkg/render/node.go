// Package render defines the passive data model handed to the diff engine:
// a finite tree of template instances, comprehensions, component references
// and leaf strings. Nothing in this package renders HTML or walks a tree —
// it only describes the shape that a template-compilation layer produces
// and that pkg/liveview consumes.
package render

import (
	"errors"
	"fmt"
)

// Node is a single position in a rendered tree. Exactly one of the typed
// accessors is meaningful for a given Node; Kind discriminates which.
type Node struct {
	kind Kind

	template *Template
	compr    *Comprehension
	comp     *ComponentRef
	leaf     string
	absent   bool
}

// Kind tags which variant a Node holds.
type Kind int

const (
	// KindAbsent marks a dynamic slot that rendered to nothing.
	KindAbsent Kind = iota
	// KindLeaf marks a plain string value.
	KindLeaf
	// KindTemplate marks a nested template instance.
	KindTemplate
	// KindComprehension marks a repeated-row fragment.
	KindComprehension
	// KindComponent marks a reference to a stateful component.
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindLeaf:
		return "leaf"
	case KindTemplate:
		return "template"
	case KindComprehension:
		return "comprehension"
	case KindComponent:
		return "component"
	default:
		return "unknown"
	}
}

// Kind returns the discriminant for this node.
func (n Node) Kind() Kind { return n.kind }

// Leaf returns the string value. Only meaningful when Kind() == KindLeaf.
func (n Node) Leaf() string { return n.leaf }

// Template returns the nested template instance. Only meaningful when
// Kind() == KindTemplate.
func (n Node) Template() *Template { return n.template }

// Comprehension returns the repeated fragment. Only meaningful when
// Kind() == KindComprehension.
func (n Node) Comprehension() *Comprehension { return n.compr }

// Component returns the component reference. Only meaningful when
// Kind() == KindComponent.
func (n Node) Component() *ComponentRef { return n.comp }

// Absent is the slot value meaning "rendered as empty, nothing to diff".
var Absent = Node{kind: KindAbsent, absent: true}

// Leaf builds a leaf string node.
func Leaf(s string) Node {
	return Node{kind: KindLeaf, leaf: s}
}

// FromTemplate wraps a template instance as a Node.
func FromTemplate(t *Template) Node {
	return Node{kind: KindTemplate, template: t}
}

// FromComprehension wraps a comprehension as a Node.
func FromComprehension(c *Comprehension) Node {
	return Node{kind: KindComprehension, compr: c}
}

// FromComponent wraps a component reference as a Node.
func FromComponent(c *ComponentRef) Node {
	return Node{kind: KindComponent, comp: c}
}

// Template is a template instance: an ordered static scaffold of length
// N+1 interleaved with N dynamic slots, plus a fingerprint identifying the
// static structure. Two instances of the same compiled template share a
// Fingerprint; a structural edit to the template changes it.
type Template struct {
	Static      []string
	Dynamic     []Node
	Fingerprint uint64
}

// Validate enforces that len(Static) == len(Dynamic)+1.
func (t *Template) Validate() error {
	if len(t.Static) != len(t.Dynamic)+1 {
		return fmt.Errorf("%w: template fingerprint %d has %d statics and %d dynamics",
			ErrStructural, t.Fingerprint, len(t.Static), len(t.Dynamic))
	}
	return nil
}

// Comprehension is a repeated template fragment: an inner static scaffold
// shared by every row, with no per-row fingerprint or stable row identity.
type Comprehension struct {
	Static  []string
	Dynamics [][]Node
}

// Validate enforces invariant 2: every row's length equals len(Static)-1.
func (c *Comprehension) Validate() error {
	want := len(c.Static) - 1
	for i, row := range c.Dynamics {
		if len(row) != want {
			return fmt.Errorf("%w: comprehension row %d has %d values, want %d",
				ErrStructural, i, len(row), want)
		}
	}
	return nil
}

// ComponentRef is a reference to a stateful component: a client-stable
// external id, the inputs handed to it, and a tag identifying which
// component implementation renders it.
type ComponentRef struct {
	ID      string
	Assigns map[string]any
	Module  string
}

// ErrStructural is returned by Validate when a rendered node violates the
// static/dynamic length invariants.
var ErrStructural = errors.New("structural violation")
