// Package segment translates between the flat-text edits of the editing
// surface and the block operations exchanged with the OT transport.
//
// The Translator turns a local delta into block operations and applies them
// to the document. The Applier does the reverse for remote batches. Both
// keep the concatenation of block texts equal to the flat text.
package segment

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

var (
	// ErrDeleteClamped reports a delete that ran past the end of the document.
	// It is a warning: the available text was deleted and processing went on.
	ErrDeleteClamped = errors.New("delete clamped to document length")

	// ErrFormatClamped reports a formatting retain that ran past the end of the document.
	ErrFormatClamped = errors.New("format clamped to document length")

	// ErrMalformedOperation reports a remote operation that was skipped.
	ErrMalformedOperation = errors.New("malformed remote operation")

	ErrUnknownSpan = errors.New("unknown span kind")
)

func orDiscard(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger != nil {
		return logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
