package segment

import (
	"fmt"

	"github.com/burntcarrot/segpad/block"
	"github.com/burntcarrot/segpad/commons"
	"github.com/burntcarrot/segpad/delta"
	"github.com/sirupsen/logrus"
)

// Applier applies remote operation batches to a document and describes the
// resulting change as a flat-text delta for the editing surface.
type Applier struct {
	logger logrus.FieldLogger
}

// NewApplier returns an Applier. A nil logger discards diagnostics.
func NewApplier(logger logrus.FieldLogger) *Applier {
	return &Applier{logger: orDiscard(logger)}
}

// Apply applies ops to doc strictly in order. Each position is read against
// the document as left by the previous operation of the batch.
//
// A malformed operation (unknown kind, missing block, position out of range)
// is skipped and reported as a warning wrapping ErrMalformedOperation; the
// remaining operations still apply. The returned delta is the composition of
// the per-operation deltas in batch order.
func (a *Applier) Apply(doc *block.Document, ops []commons.Operation) (*delta.Delta, []error) {
	result := delta.New()
	var warnings []error

	for i, op := range ops {
		step, err := a.applyOne(doc, op)
		if err != nil {
			err = fmt.Errorf("%w: item %d (%s): %v", ErrMalformedOperation, i, op, err)
			a.logger.WithFields(logrus.Fields{"item": i, "kind": op.Kind, "position": op.Position}).Warn(err)
			warnings = append(warnings, err)
			continue
		}
		result = result.Compose(step)
	}
	return result, warnings
}

func (a *Applier) applyOne(doc *block.Document, op commons.Operation) (*delta.Delta, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	offset, err := doc.BlockOffset(op.Position)
	if err != nil {
		return nil, err
	}

	step := delta.New().Retain(offset, nil)
	switch op.Kind {
	case commons.OperationAppend:
		if err := doc.InsertAt(op.Position, *op.Block); err != nil {
			return nil, err
		}
		step.Insert(op.Block.Text(), op.Block.Attributes())

	case commons.OperationReplace:
		old, ok := doc.BlockAt(op.Position)
		if !ok {
			return nil, fmt.Errorf("replace at position %d: %w", op.Position, block.ErrOutOfRange)
		}
		if err := doc.ReplaceAt(op.Position, *op.Block); err != nil {
			return nil, err
		}
		step.Insert(op.Block.Text(), op.Block.Attributes()).Delete(old.Len())

	case commons.OperationDelete:
		old, ok := doc.BlockAt(op.Position)
		if !ok {
			return nil, fmt.Errorf("delete at position %d: %w", op.Position, block.ErrOutOfRange)
		}
		if err := doc.DeleteAt(op.Position); err != nil {
			return nil, err
		}
		step.Delete(old.Len())
	}
	return step, nil
}
