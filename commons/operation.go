package commons

import (
	"errors"
	"fmt"

	"github.com/burntcarrot/segpad/block"
)

var ErrInvalidOperation = errors.New("invalid operation")

// OperationKind represents the kind of block mutation.
type OperationKind string

const (
	// OperationAppend inserts a new block at the position.
	OperationAppend OperationKind = "append"

	// OperationReplace overwrites the block at the position.
	OperationReplace OperationKind = "replace"

	// OperationDelete removes the block at the position.
	OperationDelete OperationKind = "delete"
)

// Operation represents a single block mutation sent over the wire.
//
// Position is the block index in the document state immediately before the
// operation applies. It is not a stable identifier: a batch of operations
// must be applied in the order it was generated.
type Operation struct {
	// Kind represents the operation type, for example, append, delete.
	Kind OperationKind `json:"kind"`

	// Position represents the block index at which the operation applies.
	Position int `json:"position"`

	// Block is the full block content for append and replace operations.
	Block *block.Block `json:"block,omitempty"`
}

// Append returns an append operation carrying a copy of b.
func Append(position int, b block.Block) Operation {
	c := b.Clone()
	return Operation{Kind: OperationAppend, Position: position, Block: &c}
}

// Replace returns a replace operation carrying a copy of b.
func Replace(position int, b block.Block) Operation {
	c := b.Clone()
	return Operation{Kind: OperationReplace, Position: position, Block: &c}
}

// Delete returns a delete operation.
func Delete(position int) Operation {
	return Operation{Kind: OperationDelete, Position: position}
}

// Validate checks the operation's shape. It does not check the position
// against any document.
func (op Operation) Validate() error {
	if op.Position < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidOperation, op.Position)
	}

	switch op.Kind {
	case OperationAppend, OperationReplace:
		if op.Block == nil {
			return fmt.Errorf("%w: %s at %d without block", ErrInvalidOperation, op.Kind, op.Position)
		}
	case OperationDelete:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	}
	return nil
}

// String formats the operation for logs.
func (op Operation) String() string {
	if op.Block == nil {
		return fmt.Sprintf("%s@%d", op.Kind, op.Position)
	}
	return fmt.Sprintf("%s@%d(%d)", op.Kind, op.Position, op.Block.Len())
}
