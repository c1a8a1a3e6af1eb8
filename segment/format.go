package segment

import (
	"github.com/burntcarrot/segpad/block"
	"github.com/burntcarrot/segpad/delta"
)

// Formatted describes doc as a delta of inserts, one per run of adjacent
// blocks sharing the same attributes.
func Formatted(doc *block.Document) *delta.Delta {
	d := delta.New()
	for _, b := range doc.Blocks() {
		d.Insert(b.Text(), b.Attributes())
	}
	return d
}
