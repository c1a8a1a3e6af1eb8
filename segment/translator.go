package segment

import (
	"fmt"

	"github.com/burntcarrot/segpad/attr"
	"github.com/burntcarrot/segpad/block"
	"github.com/burntcarrot/segpad/commons"
	"github.com/burntcarrot/segpad/delta"
	"github.com/sirupsen/logrus"
)

// Translator converts local flat-text edits into block operations.
type Translator struct {
	maxBlockSize int
	logger       logrus.FieldLogger
}

// NewTranslator returns a Translator that keeps blocks at or below maxBlockSize runes.
func NewTranslator(maxBlockSize int, logger logrus.FieldLogger) (*Translator, error) {
	if maxBlockSize <= 0 {
		return nil, fmt.Errorf("max block size %d: %w", maxBlockSize, block.ErrInvalidCapacity)
	}
	return &Translator{maxBlockSize: maxBlockSize, logger: orDiscard(logger)}, nil
}

// MaxBlockSize returns the splitting threshold.
func (t *Translator) MaxBlockSize() int {
	return t.maxBlockSize
}

// Result is the outcome of translating one edit.
type Result struct {
	// Operations must be delivered to the transport in this order.
	Operations []commons.Operation

	// Warnings lists non-fatal diagnostics, such as clamped deletes.
	Warnings []error
}

// Translate applies edit to doc and returns the block operations that
// reproduce it on a replica holding the same pre-edit state.
//
// The edit is translated against a working copy that is committed only on
// success, so an error leaves doc untouched.
func (t *Translator) Translate(doc *block.Document, edit *delta.Delta) (Result, error) {
	tr := &translation{doc: doc.Clone(), max: t.maxBlockSize, logger: t.logger}

	offset := 0
	for _, span := range edit.Ops {
		switch span.Kind {
		case delta.KindRetain:
			if len(span.Attrs) > 0 {
				if err := tr.format(offset, span.Count, span.Attrs); err != nil {
					return Result{}, err
				}
			}
			offset += span.Count

		case delta.KindInsert:
			if err := tr.insert(offset, span.Text, span.Attrs); err != nil {
				return Result{}, err
			}
			offset += span.Len()

		case delta.KindDelete:
			if err := tr.delete(offset, span.Count); err != nil {
				return Result{}, err
			}

		default:
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownSpan, span.Kind)
		}
	}

	doc.Swap(tr.doc)
	return Result{Operations: tr.ops, Warnings: tr.warnings}, nil
}

// translation holds the working state of a single Translate call.
type translation struct {
	doc      *block.Document
	max      int
	ops      []commons.Operation
	warnings []error
	logger   logrus.FieldLogger
}

func (tr *translation) warn(err error, fields logrus.Fields) {
	tr.logger.WithFields(fields).Warn(err)
	tr.warnings = append(tr.warnings, err)
}

func (tr *translation) appendBlock(position int, b block.Block) error {
	if err := tr.doc.InsertAt(position, b); err != nil {
		return err
	}
	tr.ops = append(tr.ops, commons.Append(position, b))
	return nil
}

func (tr *translation) replaceBlock(position int, b block.Block) error {
	if err := tr.doc.ReplaceAt(position, b); err != nil {
		return err
	}
	tr.ops = append(tr.ops, commons.Replace(position, b))
	return nil
}

func (tr *translation) deleteBlock(position int) error {
	if err := tr.doc.DeleteAt(position); err != nil {
		return err
	}
	tr.ops = append(tr.ops, commons.Delete(position))
	return nil
}

// store writes b at position, splitting it into capacity-bounded chunks.
// The first chunk is an append when the block was freshly created.
func (tr *translation) store(position int, b block.Block, created bool) error {
	chunks, err := b.Chunk(tr.max)
	if err != nil {
		return err
	}

	if created {
		if err := tr.doc.ReplaceAt(position, chunks[0]); err != nil {
			return err
		}
		tr.ops = append(tr.ops, commons.Append(position, chunks[0]))
	} else if err := tr.replaceBlock(position, chunks[0]); err != nil {
		return err
	}

	for i, chunk := range chunks[1:] {
		if err := tr.appendBlock(position+1+i, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (tr *translation) insert(offset int, text string, attrs attr.Attributes) error {
	if text == "" {
		return nil
	}

	position, inBlock, err := tr.doc.Locate(offset)
	if err != nil {
		return fmt.Errorf("insert at offset %d: %w", offset, err)
	}

	created := false
	if position == tr.doc.Len() {
		if err := tr.doc.InsertAt(position, block.New("", attrs)); err != nil {
			return err
		}
		created = true
	}

	host, _ := tr.doc.BlockAt(position)
	if !created && !attr.Equal(host.Attributes(), attrs) {
		return tr.insertIsolated(position, inBlock, host, text, attrs)
	}

	if err := host.Splice(inBlock, 0, text); err != nil {
		return err
	}
	return tr.store(position, host, created)
}

// insertIsolated places text whose formatting differs from its host block
// into blocks of its own, cutting the host at the insertion point.
func (tr *translation) insertIsolated(position, inBlock int, host block.Block, text string, attrs attr.Attributes) error {
	at := position
	switch {
	case inBlock == 0:
	case inBlock >= host.Len():
		at = position + 1
	default:
		head, tail, err := host.Cut(inBlock)
		if err != nil {
			return err
		}
		if err := tr.replaceBlock(position, head); err != nil {
			return err
		}
		if err := tr.appendBlock(position+1, tail); err != nil {
			return err
		}
		at = position + 1
	}

	chunks, err := block.New(text, attrs).Chunk(tr.max)
	if err != nil {
		return err
	}
	for i, chunk := range chunks {
		if err := tr.appendBlock(at+i, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (tr *translation) delete(offset, count int) error {
	if count <= 0 {
		return nil
	}

	position, inBlock, err := tr.doc.Locate(offset)
	if err != nil {
		tr.warn(fmt.Errorf("%w: offset %d past end", ErrDeleteClamped, offset), logrus.Fields{"offset": offset, "count": count})
		return nil
	}

	remaining := count
	for remaining > 0 {
		current, ok := tr.doc.BlockAt(position)
		if !ok {
			tr.warn(fmt.Errorf("%w: %d of %d runes not found", ErrDeleteClamped, remaining, count), logrus.Fields{"offset": offset, "count": count})
			return nil
		}

		if inBlock >= current.Len() {
			position++
			inBlock = 0
			continue
		}

		// Whole block.
		if inBlock == 0 && remaining >= current.Len() {
			if err := tr.deleteBlock(position); err != nil {
				return err
			}
			remaining -= current.Len()
			continue
		}

		// Contained in this block.
		if inBlock+remaining <= current.Len() {
			if err := current.Splice(inBlock, remaining, ""); err != nil {
				return err
			}
			return tr.replaceBlock(position, current)
		}

		// Tail of this block, then continue in the next one.
		removed := current.Len() - inBlock
		if err := current.Splice(inBlock, removed, ""); err != nil {
			return err
		}
		if err := tr.replaceBlock(position, current); err != nil {
			return err
		}
		remaining -= removed
		position++
		inBlock = 0
	}
	return nil
}

// format patches the attributes of [offset, offset+count), cutting blocks so
// that the range starts and ends on block boundaries.
func (tr *translation) format(offset, count int, attrs attr.Attributes) error {
	total := tr.doc.TextLen()
	if offset >= total {
		tr.warn(fmt.Errorf("%w: offset %d past end", ErrFormatClamped, offset), logrus.Fields{"offset": offset, "count": count})
		return nil
	}
	if offset+count > total {
		tr.warn(fmt.Errorf("%w: %d runes past end", ErrFormatClamped, offset+count-total), logrus.Fields{"offset": offset, "count": count})
		count = total - offset
	}

	start, err := tr.cutAt(offset)
	if err != nil {
		return err
	}
	end, err := tr.cutAt(offset + count)
	if err != nil {
		return err
	}

	for position := start; position < end; position++ {
		b, _ := tr.doc.BlockAt(position)
		if b.SetAttributes(attrs) {
			if err := tr.replaceBlock(position, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// cutAt makes offset a block boundary and returns the position of the block
// starting there, or Len() at the end of the document.
func (tr *translation) cutAt(offset int) (int, error) {
	if offset >= tr.doc.TextLen() {
		return tr.doc.Len(), nil
	}

	position, inBlock, err := tr.doc.Locate(offset)
	if err != nil {
		return 0, err
	}
	if inBlock == 0 {
		return position, nil
	}

	b, _ := tr.doc.BlockAt(position)
	head, tail, err := b.Cut(inBlock)
	if err != nil {
		return 0, err
	}
	if err := tr.replaceBlock(position, head); err != nil {
		return 0, err
	}
	if err := tr.appendBlock(position+1, tail); err != nil {
		return 0, err
	}
	return position + 1, nil
}
