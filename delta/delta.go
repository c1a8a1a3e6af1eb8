// Package delta implements the flat-text edit description exchanged with the
// editing surface: an ordered list of retain, insert and delete spans.
//
// Lengths are counted in runes. Text past the last span is implicitly retained.
package delta

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/burntcarrot/segpad/attr"
)

var ErrIncompatibleLengths = errors.New("delta does not fit the text")

// Kind identifies the type of a span.
type Kind string

const (
	KindRetain Kind = "retain"
	KindInsert Kind = "insert"
	KindDelete Kind = "delete"
)

// Op is a single span of a Delta.
type Op struct {
	Kind Kind `json:"kind"`

	// Count is the span length for retain and delete spans.
	Count int `json:"count,omitempty"`

	// Text is the inserted content for insert spans.
	Text string `json:"text,omitempty"`

	// Attrs carries formatting for inserts, or a formatting patch for retains.
	Attrs attr.Attributes `json:"attributes,omitempty"`
}

// Len returns the number of runes the span covers.
func (op Op) Len() int {
	if op.Kind == KindInsert {
		return utf8.RuneCountInString(op.Text)
	}
	return op.Count
}

// Delta is an ordered sequence of spans. The builder methods merge adjacent
// spans of the same kind and keep inserts ahead of deletes at the same point.
type Delta struct {
	Ops []Op `json:"ops"`
}

// New returns an empty delta.
func New() *Delta {
	return &Delta{}
}

// Retain advances over n runes, optionally patching their formatting.
func (d *Delta) Retain(n int, attrs attr.Attributes) *Delta {
	if n <= 0 {
		return d
	}
	return d.push(Op{Kind: KindRetain, Count: n, Attrs: attrs.Clone()})
}

// Insert adds text with the given formatting.
func (d *Delta) Insert(text string, attrs attr.Attributes) *Delta {
	if text == "" {
		return d
	}
	return d.push(Op{Kind: KindInsert, Text: text, Attrs: attrs.Clone()})
}

// Delete removes n runes.
func (d *Delta) Delete(n int) *Delta {
	if n <= 0 {
		return d
	}
	return d.push(Op{Kind: KindDelete, Count: n})
}

func (d *Delta) push(op Op) *Delta {
	n := len(d.Ops)
	if n == 0 {
		d.Ops = append(d.Ops, op)
		return d
	}

	last := &d.Ops[n-1]
	if last.Kind == KindDelete && op.Kind == KindDelete {
		last.Count += op.Count
		return d
	}

	// An insert directly after a delete goes before it; both orders produce
	// the same text and this one is canonical.
	if last.Kind == KindDelete && op.Kind == KindInsert {
		if n >= 2 && d.Ops[n-2].Kind == KindInsert && attr.Equal(d.Ops[n-2].Attrs, op.Attrs) {
			d.Ops[n-2].Text += op.Text
			return d
		}
		d.Ops = append(d.Ops, Op{})
		copy(d.Ops[n:], d.Ops[n-1:])
		d.Ops[n-1] = op
		return d
	}

	if last.Kind == op.Kind && attr.Equal(last.Attrs, op.Attrs) {
		switch op.Kind {
		case KindInsert:
			last.Text += op.Text
			return d
		case KindRetain:
			last.Count += op.Count
			return d
		}
	}

	d.Ops = append(d.Ops, op)
	return d
}

// Chop drops a trailing plain retain, which has no effect.
func (d *Delta) Chop() *Delta {
	n := len(d.Ops)
	if n > 0 && d.Ops[n-1].Kind == KindRetain && len(d.Ops[n-1].Attrs) == 0 {
		d.Ops = d.Ops[:n-1]
	}
	return d
}

// IsNoop reports whether applying d changes nothing.
func (d *Delta) IsNoop() bool {
	for _, op := range d.Ops {
		if op.Kind != KindRetain || len(op.Attrs) > 0 {
			return false
		}
	}
	return true
}

// BaseLen returns the minimum length of a text d can be applied to.
func (d *Delta) BaseLen() int {
	n := 0
	for _, op := range d.Ops {
		if op.Kind != KindInsert {
			n += op.Count
		}
	}
	return n
}

// TargetLen returns how long the covered part of the text is after d applies.
func (d *Delta) TargetLen() int {
	n := 0
	for _, op := range d.Ops {
		if op.Kind != KindDelete {
			n += op.Len()
		}
	}
	return n
}

// Apply applies d to s, ignoring formatting.
func (d *Delta) Apply(s string) (string, error) {
	runes := []rune(s)
	if d.BaseLen() > len(runes) {
		return "", fmt.Errorf("delta spans %d runes, text has %d: %w", d.BaseLen(), len(runes), ErrIncompatibleLengths)
	}

	var sb strings.Builder
	cursor := 0
	for _, op := range d.Ops {
		switch op.Kind {
		case KindRetain:
			sb.WriteString(string(runes[cursor : cursor+op.Count]))
			cursor += op.Count
		case KindInsert:
			sb.WriteString(op.Text)
		case KindDelete:
			cursor += op.Count
		default:
			return "", fmt.Errorf("unknown span kind %q", op.Kind)
		}
	}
	sb.WriteString(string(runes[cursor:]))
	return sb.String(), nil
}

// Compose returns a delta equivalent to applying d and then other.
func (d *Delta) Compose(other *Delta) *Delta {
	a, b := newIterator(d.Ops), newIterator(other.Ops)
	out := New()

	for a.hasNext() || b.hasNext() {
		if b.peekKind() == KindInsert {
			out.push(b.next(math.MaxInt))
			continue
		}
		if a.peekKind() == KindDelete {
			out.push(a.next(math.MaxInt))
			continue
		}

		length := min(a.peekLen(), b.peekLen())
		aOp, bOp := a.next(length), b.next(length)

		switch bOp.Kind {
		case KindRetain:
			if aOp.Kind == KindRetain {
				out.Retain(length, attr.Compose(aOp.Attrs, bOp.Attrs, true))
			} else {
				out.Insert(aOp.Text, attr.Compose(aOp.Attrs, bOp.Attrs, false))
			}
		case KindDelete:
			// A deleted insert cancels out.
			if aOp.Kind == KindRetain {
				out.Delete(length)
			}
		}
	}
	return out.Chop()
}

// iterator walks spans, handing out pieces of at most a requested length.
// Past the end it yields unbounded retains.
type iterator struct {
	ops    []Op
	index  int
	offset int
}

func newIterator(ops []Op) *iterator {
	return &iterator{ops: ops}
}

func (it *iterator) hasNext() bool {
	return it.index < len(it.ops)
}

func (it *iterator) peekKind() Kind {
	if !it.hasNext() {
		return KindRetain
	}
	return it.ops[it.index].Kind
}

func (it *iterator) peekLen() int {
	if !it.hasNext() {
		return math.MaxInt
	}
	return it.ops[it.index].Len() - it.offset
}

func (it *iterator) next(n int) Op {
	if !it.hasNext() {
		return Op{Kind: KindRetain, Count: n}
	}

	op := it.ops[it.index]
	remaining := op.Len() - it.offset
	if n >= remaining {
		n = remaining
		it.index++
		start := it.offset
		it.offset = 0
		return slice(op, start, n)
	}

	start := it.offset
	it.offset += n
	return slice(op, start, n)
}

// slice returns n runes of op starting at rune index start.
func slice(op Op, start, n int) Op {
	if op.Kind != KindInsert {
		return Op{Kind: op.Kind, Count: n, Attrs: op.Attrs}
	}
	if start == 0 && n == op.Len() {
		return op
	}
	runes := []rune(op.Text)
	return Op{Kind: KindInsert, Text: string(runes[start : start+n]), Attrs: op.Attrs}
}
