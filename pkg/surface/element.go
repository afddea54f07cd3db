package surface

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/viewport"
)

type attr struct {
	name  string
	value string
}

// Element is a node of the canvas element tree.
type Element struct {
	tag       string
	id        string
	attrs     []attr
	styles    []attr
	text      string
	transform *viewport.Transform
	path      *Path
	datum     any

	parent    *Element
	children  []*Element
	canvas    *Canvas
	listeners map[EventType][]listener
}

// Tag returns the element name ("g", "circle", "path", "text", ...).
func (e *Element) Tag() string { return e.tag }

// ID returns the element identifier, or "".
func (e *Element) ID() string { return e.id }

// Parent returns the parent element, or nil for the root and detached
// elements.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the child elements in paint order. The slice must not be
// modified.
func (e *Element) Children() []*Element { return e.children }

// Canvas returns the canvas the element was created on.
func (e *Element) Canvas() *Canvas { return e.canvas }

// Append creates a child element as the last (topmost) child.
func (e *Element) Append(tag string) *Element {
	child := &Element{tag: tag, parent: e, canvas: e.canvas}
	e.children = append(e.children, child)
	e.touch()
	return child
}

// SetID assigns a canvas-unique identifier. Assigning the element's current
// id again is a no-op.
func (e *Element) SetID(id string) error {
	if err := errors.ValidateElementID(id); err != nil {
		return err
	}
	if e.id == id {
		return nil
	}
	if other, ok := e.canvas.ids[id]; ok && other != e {
		return errors.New(errors.ErrCodeDuplicateID, "element id %q is already in use", id)
	}
	if e.id != "" {
		delete(e.canvas.ids, e.id)
	}
	e.id = id
	if e.Attached() {
		e.canvas.ids[id] = e
	}
	e.touch()
	return nil
}

// Attr sets an attribute. Values are formatted with formatValue. The names
// "id" and "transform" are ignored; use SetID and SetTransform.
func (e *Element) Attr(name string, value any) *Element {
	if name == "id" || name == "transform" {
		return e
	}
	e.attrs = setAttr(e.attrs, name, formatValue(value))
	e.touch()
	return e
}

// Get returns an attribute value.
func (e *Element) Get(name string) (string, bool) {
	return getAttr(e.attrs, name)
}

// Float returns an attribute parsed as a number. Missing or malformed
// attributes yield (0, false).
func (e *Element) Float(name string) (float64, bool) {
	v, ok := e.Get(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Style sets an inline style property.
func (e *Element) Style(name, value string) *Element {
	e.styles = setAttr(e.styles, name, value)
	e.touch()
	return e
}

// GetStyle returns an inline style property.
func (e *Element) GetStyle(name string) (string, bool) {
	return getAttr(e.styles, name)
}

// Lookup returns a presentation property: the inline style if set,
// otherwise the attribute.
func (e *Element) Lookup(name string) (string, bool) {
	if v, ok := e.GetStyle(name); ok {
		return v, true
	}
	return e.Get(name)
}

// Inherited returns a presentation property from e or its nearest ancestor
// that sets it.
func (e *Element) Inherited(name string) (string, bool) {
	for el := e; el != nil; el = el.parent {
		if v, ok := el.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// SetText replaces the text content. Newlines separate lines.
func (e *Element) SetText(s string) *Element {
	e.text = s
	e.touch()
	return e
}

// Text returns the text content.
func (e *Element) Text() string { return e.text }

// SetTransform sets the element transform.
func (e *Element) SetTransform(t viewport.Transform) *Element {
	e.transform = &t
	e.touch()
	return e
}

// Transform returns the element transform and whether one is set.
func (e *Element) Transform() (viewport.Transform, bool) {
	if e.transform == nil {
		return viewport.Identity, false
	}
	return *e.transform, true
}

// SetPath sets the geometry of a path element.
func (e *Element) SetPath(p Path) *Element {
	e.path = &p
	e.touch()
	return e
}

// Path returns the path geometry and whether one is set.
func (e *Element) Path() (Path, bool) {
	if e.path == nil {
		return Path{}, false
	}
	return *e.path, true
}

// SetDatum binds an arbitrary value to the element.
func (e *Element) SetDatum(v any) *Element {
	e.datum = v
	return e
}

// Datum returns the bound value.
func (e *Element) Datum() any { return e.datum }

// Index returns the position among the parent's children, or -1.
func (e *Element) Index() int {
	if e.parent == nil {
		return -1
	}
	return slices.Index(e.parent.children, e)
}

// Raise moves the element to the end of its parent's children, painting it
// above its siblings.
func (e *Element) Raise() *Element {
	i := e.Index()
	if i < 0 || i == len(e.parent.children)-1 {
		return e
	}
	sib := e.parent.children
	copy(sib[i:], sib[i+1:])
	sib[len(sib)-1] = e
	e.touch()
	return e
}

// Lower moves the element to the start of its parent's children.
func (e *Element) Lower() *Element {
	i := e.Index()
	if i <= 0 {
		return e
	}
	sib := e.parent.children
	copy(sib[1:i+1], sib[:i])
	sib[0] = e
	e.touch()
	return e
}

// Remove detaches the element and its subtree. Identifiers in the subtree
// are released and listeners dropped.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	i := e.Index()
	p := e.parent
	p.children = slices.Delete(p.children, i, i+1)
	e.parent = nil
	e.Walk(func(el *Element) bool {
		if el.id != "" && e.canvas.ids[el.id] == el {
			delete(e.canvas.ids, el.id)
		}
		el.listeners = nil
		return true
	})
	p.touch()
}

// Attached reports whether the element is reachable from its canvas root.
func (e *Element) Attached() bool {
	el := e
	for el.parent != nil {
		el = el.parent
	}
	return e.canvas != nil && el == e.canvas.root
}

// Walk calls fn for e and its descendants in paint order. Returning false
// skips the element's children.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(fn)
	}
}

// Select returns the descendants of e (including e) with the given tag.
func (e *Element) Select(tag string) []*Element {
	var out []*Element
	e.Walk(func(el *Element) bool {
		if el.tag == tag {
			out = append(out, el)
		}
		return true
	})
	return out
}

func (e *Element) touch() {
	if e.canvas != nil {
		e.canvas.version++
	}
}

func setAttr(list []attr, name, value string) []attr {
	for i := range list {
		if list[i].name == name {
			list[i].value = value
			return list
		}
	}
	return append(list, attr{name: name, value: value})
}

func getAttr(list []attr, name string) (string, bool) {
	for _, a := range list {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
