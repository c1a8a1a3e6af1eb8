// Package editor implements the terminal editing surface. Local keystrokes
// produce deltas for the session; remote deltas are applied to the text.
package editor

import (
	"fmt"
	"time"

	"github.com/burntcarrot/segpad/delta"
	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
)

type Editor struct {
	Text      []rune
	Cursor    int
	Width     int
	Height    int
	ShowMsg   bool
	StatusMsg string
}

func NewEditor() *Editor {
	return &Editor{}
}

func (e *Editor) GetText() []rune {
	return e.Text
}

func (e *Editor) SetText(text string) {
	e.Text = []rune(text)
	if e.Cursor > len(e.Text) {
		e.Cursor = len(e.Text)
	}
}

func (e *Editor) SetX(x int) {
	e.Cursor = x
}

func (e *Editor) SetSize(w, h int) {
	e.Width = w
	e.Height = h
}

// Insert inserts r at the cursor and returns the matching delta.
func (e *Editor) Insert(r rune) *delta.Delta {
	d := delta.New().Retain(e.Cursor, nil).Insert(string(r), nil)

	e.Text = append(e.Text, 0)
	copy(e.Text[e.Cursor+1:], e.Text[e.Cursor:])
	e.Text[e.Cursor] = r
	e.Cursor++

	return d
}

// Backspace deletes the rune before the cursor. It returns nil at the start of the text.
func (e *Editor) Backspace() *delta.Delta {
	if e.Cursor == 0 {
		return nil
	}
	e.Cursor--
	return e.removeAtCursor()
}

// DeleteForward deletes the rune under the cursor. It returns nil at the end of the text.
func (e *Editor) DeleteForward() *delta.Delta {
	if e.Cursor >= len(e.Text) {
		return nil
	}
	return e.removeAtCursor()
}

func (e *Editor) removeAtCursor() *delta.Delta {
	d := delta.New().Retain(e.Cursor, nil).Delete(1)
	e.Text = append(e.Text[:e.Cursor], e.Text[e.Cursor+1:]...)
	return d
}

// ApplyDelta applies a remote change. The cursor keeps its place relative
// to the surrounding text.
func (e *Editor) ApplyDelta(d *delta.Delta) error {
	if d.BaseLen() > len(e.Text) {
		return fmt.Errorf("delta spans %d runes, editor holds %d: %w", d.BaseLen(), len(e.Text), delta.ErrIncompatibleLengths)
	}

	out := make([]rune, 0, len(e.Text)+d.TargetLen()-d.BaseLen())
	cursor := e.Cursor
	pos := 0
	for _, op := range d.Ops {
		switch op.Kind {
		case delta.KindRetain:
			out = append(out, e.Text[pos:pos+op.Count]...)
			pos += op.Count
		case delta.KindInsert:
			inserted := []rune(op.Text)
			if pos < e.Cursor {
				cursor += len(inserted)
			}
			out = append(out, inserted...)
		case delta.KindDelete:
			if pos < e.Cursor {
				cursor -= min(op.Count, e.Cursor-pos)
			}
			pos += op.Count
		}
	}
	out = append(out, e.Text[pos:]...)

	e.Text = out
	e.Cursor = cursor
	return nil
}

// Draw updates the UI by setting cells with the editor's content.
func (e *Editor) Draw() {
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	cx, cy := e.calcCursorXY(e.Cursor)
	termbox.SetCursor(cx-1, cy-1)

	x, y := 0, 0
	for _, r := range e.Text {
		if r == '\n' {
			x = 0
			y++
			continue
		}
		if x < e.Width && y < e.Height-1 {
			termbox.SetCell(x, y, r, termbox.ColorDefault, termbox.ColorDefault)
		}
		x += runewidth.RuneWidth(r)
	}

	if e.ShowMsg {
		e.SetStatusBar()
	} else {
		e.showPositions()
	}

	termbox.Flush()
}

func (e *Editor) SetStatusBar() {
	e.ShowMsg = true

	for i, r := range []rune(e.StatusMsg) {
		termbox.SetCell(i, e.Height-1, r, termbox.ColorDefault, termbox.ColorDefault)
	}

	_ = time.AfterFunc(5*time.Second, func() {
		e.ShowMsg = false
	})
}

// showPositions shows the cursor position in the status line.
func (e *Editor) showPositions() {
	x, y := e.calcCursorXY(e.Cursor)
	str := fmt.Sprintf("x=%d, y=%d, cursor=%d, len(text)=%d", x, y, e.Cursor, len(e.Text))

	for i, r := range []rune(str) {
		termbox.SetCell(i, e.Height-1, r, termbox.ColorDefault, termbox.ColorDefault)
	}
}

// MoveCursor moves the cursor x runes horizontally, or one line up or down.
func (e *Editor) MoveCursor(x, y int) {
	newCursor := e.Cursor + x
	switch {
	case y > 0:
		newCursor = e.cursorDown()
	case y < 0:
		newCursor = e.cursorUp()
	}

	if newCursor > len(e.Text) {
		newCursor = len(e.Text)
	}
	if newCursor < 0 {
		newCursor = 0
	}
	e.Cursor = newCursor
}

// lineStart returns the index of the first rune of the line containing pos.
func (e *Editor) lineStart(pos int) int {
	for pos > 0 && e.Text[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the index of the newline ending the line containing pos,
// or len(Text) on the last line.
func (e *Editor) lineEnd(pos int) int {
	for pos < len(e.Text) && e.Text[pos] != '\n' {
		pos++
	}
	return pos
}

// cursorUp keeps the column on the previous line, clamped to its length.
func (e *Editor) cursorUp() int {
	start := e.lineStart(e.Cursor)
	if start == 0 {
		return 0
	}
	column := e.Cursor - start
	prevStart := e.lineStart(start - 1)
	return min(prevStart+column, start-1)
}

// cursorDown keeps the column on the next line, clamped to its length.
func (e *Editor) cursorDown() int {
	end := e.lineEnd(e.Cursor)
	if end == len(e.Text) {
		return len(e.Text)
	}
	column := e.Cursor - e.lineStart(e.Cursor)
	nextStart := end + 1
	return min(nextStart+column, e.lineEnd(nextStart))
}

// calcCursorXY returns the 1-based screen column and row of index.
func (e *Editor) calcCursorXY(index int) (int, int) {
	x, y := 1, 1
	if index < 0 {
		return x, y
	}
	if index > len(e.Text) {
		index = len(e.Text)
	}

	for _, r := range e.Text[:index] {
		if r == '\n' {
			x = 1
			y++
			continue
		}
		x += runewidth.RuneWidth(r)
	}
	return x, y
}
