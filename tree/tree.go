// Package tree implements the attributed element tree that backs the
// topology model. Elements form a parent/child hierarchy; each element has a
// kind, an optional name that is unique among same-kind siblings, optional
// scalar character data, and an optional reference to another element.
// The model maintains a reverse-reference index so that "who points at this
// element" is answerable without a full-tree scan.
package tree

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
)

var (
	ErrDuplicateName   = errors.New("tree: named sibling already exists")
	ErrNotAChild       = errors.New("tree: element is not a child of this parent")
	ErrDetachedElement = errors.New("tree: element has been removed from the model")
)

// Kind identifies the schema role of an element.
type Kind string

// Model is the root of an element tree. All exported element operations are
// safe for concurrent use; composite topology operations built on top of the
// tree must serialize themselves if they need cross-call atomicity.
type Model struct {
	mu        sync.RWMutex
	root      *Element
	referrers map[*Element]map[*Element]struct{}
}

// Element is a single node of the tree. Elements are created through their
// parent and remain valid until an ancestor is removed, after which every
// operation on them fails or yields zero values.
type Element struct {
	model    *Model
	parent   *Element
	kind     Kind
	name     string
	value    string
	hasValue bool
	ref      *Element
	children []*Element
	detached bool
}

// NewModel creates an empty model with a nameless root element.
func NewModel(rootKind Kind) *Model {
	m := &Model{referrers: make(map[*Element]map[*Element]struct{})}
	m.root = &Element{model: m, kind: rootKind}
	return m
}

// Root returns the root element of the model.
func (m *Model) Root() *Element {
	return m.root
}

func (e *Element) Kind() Kind { return e.kind }

// Name returns the element's name, or "" for unnamed elements.
func (e *Element) Name() string {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	return e.name
}

// Parent returns the parent element, or nil for the root and for removed
// elements.
func (e *Element) Parent() *Element {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached {
		return nil
	}
	return e.parent
}

// Model returns the model this element belongs to.
func (e *Element) Model() *Model { return e.model }

// Alive reports whether the element is still attached to the model.
func (e *Element) Alive() bool {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	return !e.detached
}

// CreateChild appends a new unnamed child of the given kind.
func (e *Element) CreateChild(kind Kind) (*Element, error) {
	e.model.mu.Lock()
	defer e.model.mu.Unlock()
	if e.detached {
		return nil, ErrDetachedElement
	}
	child := &Element{model: e.model, parent: e, kind: kind}
	e.children = append(e.children, child)
	return child, nil
}

// CreateNamedChild appends a new named child. The name must be unique among
// the parent's children of the same kind.
func (e *Element) CreateNamedChild(kind Kind, name string) (*Element, error) {
	e.model.mu.Lock()
	defer e.model.mu.Unlock()
	if e.detached {
		return nil, ErrDetachedElement
	}
	for _, c := range e.children {
		if c.kind == kind && c.name == name {
			return nil, fmt.Errorf("%w: %s %q", ErrDuplicateName, kind, name)
		}
	}
	child := &Element{model: e.model, parent: e, kind: kind, name: name}
	e.children = append(e.children, child)
	return child, nil
}

// GetChild returns the first child of the given kind, or nil.
func (e *Element) GetChild(kind Kind) *Element {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	return e.childOfKind(kind)
}

func (e *Element) childOfKind(kind Kind) *Element {
	if e.detached {
		return nil
	}
	for _, c := range e.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// GetNamedChild returns the child with the given kind and name, or nil.
func (e *Element) GetNamedChild(kind Kind, name string) *Element {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached {
		return nil
	}
	for _, c := range e.children {
		if c.kind == kind && c.name == name {
			return c
		}
	}
	return nil
}

// GetOrCreateChild returns the first child of the given kind, creating an
// unnamed one if none exists.
func (e *Element) GetOrCreateChild(kind Kind) (*Element, error) {
	e.model.mu.Lock()
	defer e.model.mu.Unlock()
	if e.detached {
		return nil, ErrDetachedElement
	}
	if c := e.childOfKind(kind); c != nil {
		return c, nil
	}
	child := &Element{model: e.model, parent: e, kind: kind}
	e.children = append(e.children, child)
	return child, nil
}

// Children returns a snapshot of the element's children in creation order.
func (e *Element) Children() []*Element {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached {
		return nil
	}
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// ChildrenOfKind returns a snapshot of the children of the given kind.
func (e *Element) ChildrenOfKind(kind Kind) []*Element {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached {
		return nil
	}
	var out []*Element
	for _, c := range e.children {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// RemoveChild detaches the child and its whole subtree from the model.
// All references held by or pointing into the removed subtree are dropped
// from the reverse index; elements outside the subtree that referenced into
// it become dangling and resolve to nil afterwards.
func (e *Element) RemoveChild(child *Element) error {
	e.model.mu.Lock()
	defer e.model.mu.Unlock()
	if e.detached {
		return ErrDetachedElement
	}
	idx := -1
	for i, c := range e.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotAChild
	}
	e.children = append(e.children[:idx], e.children[idx+1:]...)
	child.detachSubtree()
	return nil
}

func (e *Element) detachSubtree() {
	e.detached = true
	e.parent = nil
	if e.ref != nil {
		e.model.dropReferrer(e.ref, e)
		e.ref = nil
	}
	// Referrers outside the subtree keep their ref pointer but the target
	// is detached; Reference() hides it.
	delete(e.model.referrers, e)
	for _, c := range e.children {
		c.detachSubtree()
	}
}

// SetValue stores scalar character data on the element.
func (e *Element) SetValue(v string) error {
	e.model.mu.Lock()
	defer e.model.mu.Unlock()
	if e.detached {
		return ErrDetachedElement
	}
	e.value = v
	e.hasValue = true
	return nil
}

// Value returns the element's character data and whether any was set.
func (e *Element) Value() (string, bool) {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached {
		return "", false
	}
	return e.value, e.hasValue
}

// SetInt stores an integer as character data.
func (e *Element) SetInt(v int64) error { return e.SetValue(strconv.FormatInt(v, 10)) }

// Int parses the character data as an integer.
func (e *Element) Int() (int64, bool) {
	s, ok := e.Value()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SetUint stores an unsigned integer as character data.
func (e *Element) SetUint(v uint64) error { return e.SetValue(strconv.FormatUint(v, 10)) }

// Uint parses the character data as an unsigned integer.
func (e *Element) Uint() (uint64, bool) {
	s, ok := e.Value()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SetBool stores a boolean as character data.
func (e *Element) SetBool(v bool) error { return e.SetValue(strconv.FormatBool(v)) }

// Bool parses the character data as a boolean.
func (e *Element) Bool() (bool, bool) {
	s, ok := e.Value()
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return v, true
}

// SetFloat stores a float as character data.
func (e *Element) SetFloat(v float64) error {
	return e.SetValue(strconv.FormatFloat(v, 'g', -1, 64))
}

// Float parses the character data as a float.
func (e *Element) Float() (float64, bool) {
	s, ok := e.Value()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SetReference points this element at the target and updates the reverse
// index. A previous reference is replaced.
func (e *Element) SetReference(target *Element) error {
	e.model.mu.Lock()
	defer e.model.mu.Unlock()
	if e.detached {
		return ErrDetachedElement
	}
	if target.detached {
		return fmt.Errorf("reference target: %w", ErrDetachedElement)
	}
	if e.ref != nil {
		e.model.dropReferrer(e.ref, e)
	}
	e.ref = target
	refs := e.model.referrers[target]
	if refs == nil {
		refs = make(map[*Element]struct{})
		e.model.referrers[target] = refs
	}
	refs[e] = struct{}{}
	return nil
}

// Reference resolves the element's reference. A reference to a removed
// element is dangling and resolves to nil.
func (e *Element) Reference() *Element {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached || e.ref == nil || e.ref.detached {
		return nil
	}
	return e.ref
}

// Referrers returns every live element whose reference points at e.
func (e *Element) Referrers() []*Element {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached {
		return nil
	}
	var out []*Element
	for r := range e.model.referrers[e] {
		if !r.detached {
			out = append(out, r)
		}
	}
	return out
}

// NamedParent walks toward the root and returns the first named ancestor,
// or nil if there is none.
func (e *Element) NamedParent() *Element {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached {
		return nil
	}
	for p := e.parent; p != nil; p = p.parent {
		if p.name != "" {
			return p
		}
	}
	return nil
}

// Path returns a slash-separated path of the element's named ancestors plus
// the element itself, for diagnostics.
func (e *Element) Path() string {
	e.model.mu.RLock()
	defer e.model.mu.RUnlock()
	if e.detached {
		return "<detached>"
	}
	var segs []string
	for p := e; p != nil; p = p.parent {
		if p.name != "" {
			segs = append(segs, p.name)
		} else if p == e {
			segs = append(segs, string(p.kind))
		}
	}
	out := ""
	for i := len(segs) - 1; i >= 0; i-- {
		out += "/" + segs[i]
	}
	return out
}

func (m *Model) dropReferrer(target, referrer *Element) {
	if refs := m.referrers[target]; refs != nil {
		delete(refs, referrer)
		if len(refs) == 0 {
			delete(m.referrers, target)
		}
	}
}
