package youtrack

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// The decoders below are small state machines driven by XML start, text and
// end events. A shape is an immutable description of how a document maps to
// entities; every decode builds fresh state from it, so nothing leaks from
// one document to the next.

type shapeKind int

const (
	singleShape shapeKind = iota // the document describes one entity
	listShape                    // each item element describes one entity
	nestedShape                  // one entity that owns a list of child entities
)

// frame is an open element.
type frame struct {
	name  string
	attrs []xml.Attr
}

func (f frame) attr(name string) (string, bool) {
	for _, a := range f.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// handler receives the events of one document. stack always ends with the
// element being opened or closed.
type handler interface {
	start(stack []frame)
	chars(b []byte)
	end(stack []frame)
}

// field binds the text of an element, or one of its attributes, to a setter.
type field[T any] struct {
	elem   string
	attr   string           // capture this attribute instead of the text
	parent string           // elem only counts inside an open parent element
	match  func(frame) bool // checked against parent, or elem when parent is empty
	set    func(*T, string)
}

func (f *field[T]) applies(stack []frame) bool {
	if f.parent == "" {
		return f.match == nil || f.match(stack[len(stack)-1])
	}
	for i := len(stack) - 2; i >= 0; i-- {
		if stack[i].name == f.parent {
			return f.match == nil || f.match(stack[i])
		}
	}
	return false
}

func named(name string) func(frame) bool {
	return func(f frame) bool {
		v, ok := f.attr("name")
		return ok && v == name
	}
}

// childList attaches entities decoded from nested item elements to a parent.
type childList[T any] interface {
	bind(parent *T) handler
}

type shape[T any] struct {
	kind     shapeKind
	items    []string // item element names, list kind only
	fields   []field[T]
	children childList[T] // nested kind only
}

func (s *shape[T]) isItem(name string) bool {
	for _, item := range s.items {
		if item == name {
			return true
		}
	}
	return false
}

// run is the per-document state shared by all shape kinds.
type run[T any] struct {
	shape     *shape[T]
	current   *T // entity receiving captured values
	itemDepth int
	onItem    func(T)
	nested    handler

	active *field[T] // capture marker
	depth  int
	buf    strings.Builder
}

func (r *run[T]) start(stack []frame) {
	top := stack[len(stack)-1]
	if r.shape.kind == listShape && r.current == nil && r.shape.isItem(top.name) {
		r.current = new(T)
		r.itemDepth = len(stack)
	}
	if r.current != nil {
		for i := range r.shape.fields {
			f := &r.shape.fields[i]
			if f.elem != top.name || !f.applies(stack) {
				continue
			}
			if f.attr != "" {
				if v, ok := top.attr(f.attr); ok {
					f.set(r.current, v)
				}
				continue
			}
			r.active = f
			r.depth = len(stack)
			r.buf.Reset()
		}
	}
	if r.nested != nil {
		r.nested.start(stack)
	}
}

func (r *run[T]) chars(b []byte) {
	if r.active != nil {
		r.buf.Write(b)
	}
	if r.nested != nil {
		r.nested.chars(b)
	}
}

func (r *run[T]) end(stack []frame) {
	if r.active != nil && len(stack) == r.depth {
		r.active.set(r.current, strings.TrimSpace(r.buf.String()))
		r.active = nil
	}
	if r.nested != nil {
		r.nested.end(stack)
	}
	if r.shape.kind == listShape && r.current != nil && len(stack) == r.itemDepth {
		r.onItem(*r.current)
		r.current = nil
	}
}

// children is the nested list of a nestedShape.
type children[T, C any] struct {
	shape  *shape[C]
	attach func(*T, C)
}

func (c children[T, C]) bind(parent *T) handler {
	return &run[C]{
		shape:  c.shape,
		onItem: func(v C) { c.attach(parent, v) },
	}
}

// decodeOne fills v from a single or nested shaped document.
func decodeOne[T any](r io.Reader, s *shape[T], v *T) error {
	h := &run[T]{shape: s, current: v}
	if s.kind == nestedShape && s.children != nil {
		h.nested = s.children.bind(v)
	}
	return decode(r, h)
}

// decodeList collects every item of a list shaped document in document order.
// The result is never nil.
func decodeList[T any](r io.Reader, s *shape[T]) ([]T, error) {
	items := []T{}
	h := &run[T]{
		shape:  s,
		onItem: func(v T) { items = append(items, v) },
	}
	if err := decode(r, h); err != nil {
		return []T{}, err
	}
	return items, nil
}

func decode(r io.Reader, h handler) error {
	d := xml.NewDecoder(r)
	d.CharsetReader = charsetReader
	var stack []frame
	seenRoot := false
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			if !seenRoot {
				return io.ErrUnexpectedEOF
			}
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			seenRoot = true
			stack = append(stack, frame{name: t.Name.Local, attrs: t.Attr})
			h.start(stack)
		case xml.CharData:
			h.chars(t)
		case xml.EndElement:
			h.end(stack)
			stack = stack[:len(stack)-1]
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "latin1", "l1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}
