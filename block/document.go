package block

import (
	"fmt"
	"strings"
)

// Document is an ordered sequence of blocks. Block positions are the current
// slice indices and shift whenever a block is inserted or removed before them.
//
// Cumulative offsets are cached and rebuilt lazily after structural
// mutations, so a batch of mutations pays for a single recomputation.
type Document struct {
	blocks []Block

	// offsets[i] is the flat offset at which block i starts;
	// offsets[len(blocks)] is the total text length.
	offsets []int
	stale   bool
}

// NewDocument returns a document holding copies of blocks, in order.
func NewDocument(blocks ...Block) *Document {
	d := &Document{blocks: make([]Block, 0, len(blocks)), stale: true}
	for _, b := range blocks {
		d.blocks = append(d.blocks, b.Clone())
	}
	return d
}

// reindex rebuilds the cumulative offset cache if a mutation invalidated it.
func (d *Document) reindex() {
	if !d.stale && len(d.offsets) == len(d.blocks)+1 {
		return
	}

	if cap(d.offsets) < len(d.blocks)+1 {
		d.offsets = make([]int, len(d.blocks)+1)
	}
	d.offsets = d.offsets[:len(d.blocks)+1]

	total := 0
	for i, b := range d.blocks {
		d.offsets[i] = total
		total += b.length
	}
	d.offsets[len(d.blocks)] = total
	d.stale = false
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	return len(d.blocks)
}

// TextLen returns the length of the flat text, in runes.
func (d *Document) TextLen() int {
	d.reindex()
	return d.offsets[len(d.blocks)]
}

// Text returns the concatenation of all block texts.
func (d *Document) Text() string {
	var sb strings.Builder
	for _, b := range d.blocks {
		sb.WriteString(b.text)
	}
	return sb.String()
}

// Blocks returns copies of all blocks, in order.
func (d *Document) Blocks() []Block {
	out := make([]Block, len(d.blocks))
	for i, b := range d.blocks {
		out[i] = b.Clone()
	}
	return out
}

// BlockAt returns a copy of the block at position.
func (d *Document) BlockAt(position int) (Block, bool) {
	if position < 0 || position >= len(d.blocks) {
		return Block{}, false
	}
	return d.blocks[position].Clone(), true
}

// BlockOffset returns the summed length of all blocks before position.
// position may equal Len(), in which case the total length is returned.
func (d *Document) BlockOffset(position int) (int, error) {
	if position < 0 || position > len(d.blocks) {
		return 0, fmt.Errorf("block offset of position %d in %d blocks: %w", position, len(d.blocks), ErrOutOfRange)
	}
	d.reindex()
	return d.offsets[position], nil
}

// Locate maps a flat offset to the block containing it and the rune index
// inside that block.
//
// At a boundary between two blocks the later block wins, so an offset that
// starts a block always maps to that block at index 0. The end of the
// document maps to the end of the last block. An empty document maps every
// valid offset (only 0) to position 0, which does not exist yet.
func (d *Document) Locate(offset int) (position, inBlock int, err error) {
	d.reindex()
	total := d.offsets[len(d.blocks)]
	if offset < 0 || offset > total {
		return 0, 0, fmt.Errorf("offset %d in text of length %d: %w", offset, total, ErrOutOfRange)
	}
	if len(d.blocks) == 0 {
		return 0, 0, nil
	}
	if offset == total {
		last := len(d.blocks) - 1
		return last, d.blocks[last].length, nil
	}

	// Smallest i whose block ends strictly after offset.
	lo, hi := 0, len(d.blocks)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if d.offsets[mid+1] > offset {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, offset - d.offsets[lo], nil
}

// OffsetToBlockPosition returns the position of the block containing offset.
func (d *Document) OffsetToBlockPosition(offset int) (int, error) {
	position, _, err := d.Locate(offset)
	return position, err
}

// InsertAt inserts a copy of b so that it ends up at position.
func (d *Document) InsertAt(position int, b Block) error {
	if position < 0 || position > len(d.blocks) {
		return fmt.Errorf("insert at position %d in %d blocks: %w", position, len(d.blocks), ErrOutOfRange)
	}
	d.blocks = append(d.blocks, Block{})
	copy(d.blocks[position+1:], d.blocks[position:])
	d.blocks[position] = b.Clone()
	d.stale = true
	return nil
}

// DeleteAt removes the block at position.
func (d *Document) DeleteAt(position int) error {
	if position < 0 || position >= len(d.blocks) {
		return fmt.Errorf("delete at position %d in %d blocks: %w", position, len(d.blocks), ErrOutOfRange)
	}
	copy(d.blocks[position:], d.blocks[position+1:])
	d.blocks[len(d.blocks)-1] = Block{}
	d.blocks = d.blocks[:len(d.blocks)-1]
	d.stale = true
	return nil
}

// ReplaceAt swaps the block at position for a copy of b.
func (d *Document) ReplaceAt(position int, b Block) error {
	if position < 0 || position >= len(d.blocks) {
		return fmt.Errorf("replace at position %d in %d blocks: %w", position, len(d.blocks), ErrOutOfRange)
	}
	d.blocks[position] = b.Clone()
	d.stale = true
	return nil
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() *Document {
	return NewDocument(d.blocks...)
}

// Swap exchanges the contents of d and other. It is used to commit a working
// copy once an edit has been fully translated.
func (d *Document) Swap(other *Document) {
	d.blocks, other.blocks = other.blocks, d.blocks
	d.offsets, other.offsets = other.offsets, d.offsets
	d.stale, other.stale = true, true
}
