// Package node holds the decoded document tree.
//
// Nodes live in an arena owned by a Tree and are addressed by ID. A Node
// value is a small handle (tree pointer plus ID) and is cheap to copy.
// Parent links are stored as IDs, so the tree never contains reference
// cycles and ownership stays with the Tree.
package node

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/alnah/go-qrda2qpp/internal/template"
)

// ErrTreeFull is returned when the arena cannot address another node.
var ErrTreeFull = errors.New("node tree is full")

// ID addresses a node inside its Tree.
type ID int32

// NoParent marks a root node.
const NoParent ID = -1

type attr struct {
	key   string
	value string
}

type entry struct {
	kind     template.Kind
	attrs    []attr
	children []ID
	parent   ID
}

// Tree is an arena of nodes. A Tree may hold several roots.
// It is not safe for concurrent mutation.
type Tree struct {
	entries []entry
	roots   []ID
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

func (t *Tree) add(kind template.Kind, parent ID) (ID, error) {
	id, err := safecast.Conv[int32](len(t.entries))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTreeFull, err)
	}
	t.entries = append(t.entries, entry{kind: kind, parent: parent})
	return ID(id), nil
}

// NewRoot adds a parentless node.
func (t *Tree) NewRoot(kind template.Kind) (Node, error) {
	id, err := t.add(kind, NoParent)
	if err != nil {
		return Node{}, err
	}
	t.roots = append(t.roots, id)
	return Node{t: t, id: id}, nil
}

// Roots returns the root nodes in insertion order.
func (t *Tree) Roots() []Node {
	out := make([]Node, len(t.roots))
	for i, id := range t.roots {
		out[i] = Node{t: t, id: id}
	}
	return out
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Get returns the node for id. The second result is false when id is out
// of range.
func (t *Tree) Get(id ID) (Node, bool) {
	if id < 0 || int(id) >= len(t.entries) {
		return Node{}, false
	}
	return Node{t: t, id: id}, true
}

// Walk visits every node depth-first in document order, roots first.
// Returning false from fn prunes that node's subtree.
func (t *Tree) Walk(fn func(Node) bool) {
	for _, r := range t.roots {
		t.walk(r, fn)
	}
}

func (t *Tree) walk(id ID, fn func(Node) bool) {
	if !fn(Node{t: t, id: id}) {
		return
	}
	for _, c := range t.entries[id].children {
		t.walk(c, fn)
	}
}

// FindAll returns every node of the given kind in document order.
func (t *Tree) FindAll(kind template.Kind) []Node {
	var out []Node
	t.Walk(func(n Node) bool {
		if n.Kind() == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Node is a handle to one entry of a Tree. The zero Node is invalid.
type Node struct {
	t  *Tree
	id ID
}

// IsZero reports whether n does not refer to a node.
func (n Node) IsZero() bool {
	return n.t == nil
}

// ID returns the arena index of n.
func (n Node) ID() ID {
	return n.id
}

// Tree returns the tree that owns n.
func (n Node) Tree() *Tree {
	return n.t
}

func (n Node) e() *entry {
	return &n.t.entries[n.id]
}

// Kind returns the template kind of n.
func (n Node) Kind() template.Kind {
	return n.e().kind
}

// SetKind retags n. Decoding uses it to replace a failed node with a
// default node.
func (n Node) SetKind(kind template.Kind) {
	n.e().kind = kind
}

// Value returns the attribute value for key, or "" when unset.
func (n Node) Value(key string) string {
	v, _ := n.Lookup(key)
	return v
}

// Lookup returns the attribute value for key and whether it is set.
func (n Node) Lookup(key string) (string, bool) {
	for _, a := range n.e().attrs {
		if a.key == key {
			return a.value, true
		}
	}
	return "", false
}

// Put sets an attribute. An existing key keeps its position and gets the
// new value.
func (n Node) Put(key, value string) {
	e := n.e()
	for i := range e.attrs {
		if e.attrs[i].key == key {
			e.attrs[i].value = value
			return
		}
	}
	e.attrs = append(e.attrs, attr{key: key, value: value})
}

// Keys returns attribute keys in insertion order.
func (n Node) Keys() []string {
	attrs := n.e().attrs
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.key
	}
	return out
}

// AddChild appends a new child of the given kind and returns it.
func (n Node) AddChild(kind template.Kind) (Node, error) {
	id, err := n.t.add(kind, n.id)
	if err != nil {
		return Node{}, err
	}
	// add may have grown the arena, so re-read the entry.
	e := n.e()
	e.children = append(e.children, id)
	return Node{t: n.t, id: id}, nil
}

// Parent returns the parent of n. The second result is false for roots.
func (n Node) Parent() (Node, bool) {
	p := n.e().parent
	if p == NoParent {
		return Node{}, false
	}
	return Node{t: n.t, id: p}, true
}

// ChildCount returns the number of direct children.
func (n Node) ChildCount() int {
	return len(n.e().children)
}

// Children returns the direct children in document order.
func (n Node) Children() []Node {
	ids := n.e().children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{t: n.t, id: id}
	}
	return out
}

// ChildrenOf returns the direct children whose kind is one of kinds.
func (n Node) ChildrenOf(kinds ...template.Kind) []Node {
	var out []Node
	for _, id := range n.e().children {
		c := Node{t: n.t, id: id}
		if slices.Contains(kinds, c.Kind()) {
			out = append(out, c)
		}
	}
	return out
}

// FindChild returns the first direct child matching pred.
func (n Node) FindChild(pred func(Node) bool) (Node, bool) {
	for _, id := range n.e().children {
		c := Node{t: n.t, id: id}
		if pred(c) {
			return c, true
		}
	}
	return Node{}, false
}

// Descendants returns every node below n of the given kind, depth-first.
func (n Node) Descendants(kind template.Kind) []Node {
	var out []Node
	for _, id := range n.e().children {
		n.t.walk(id, func(d Node) bool {
			if d.Kind() == kind {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// Path renders the location of n from its root, for example
// "/clinicalDocument/measureSection[0]/measureReferenceResults[1]".
// Indexes count siblings of the same kind. Roots carry an index only when
// the tree has more than one root of that kind.
func (n Node) Path() string {
	var segs []string
	cur := n
	for {
		p, ok := cur.Parent()
		if !ok {
			segs = append(segs, cur.rootSegment())
			break
		}
		segs = append(segs, cur.Kind().String()+"["+strconv.Itoa(p.indexOf(cur))+"]")
		cur = p
	}
	var b strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(segs[i])
	}
	return b.String()
}

func (n Node) rootSegment() string {
	idx, same := 0, 0
	for _, r := range n.t.roots {
		if n.t.entries[r].kind != n.Kind() {
			continue
		}
		if r == n.id {
			idx = same
		}
		same++
	}
	if same <= 1 {
		return n.Kind().String()
	}
	return n.Kind().String() + "[" + strconv.Itoa(idx) + "]"
}

func (n Node) indexOf(child Node) int {
	idx := 0
	for _, id := range n.e().children {
		if id == child.id {
			return idx
		}
		if n.t.entries[id].kind == child.Kind() {
			idx++
		}
	}
	return -1
}

// String renders a compact description for logs and test failures.
func (n Node) String() string {
	if n.IsZero() {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(n.Kind().String())
	b.WriteByte('{')
	for i, k := range n.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.Quote(n.Value(k)))
	}
	b.WriteByte('}')
	return b.String()
}
