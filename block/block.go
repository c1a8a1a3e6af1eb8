// Package block implements the segmented storage of a document: a Document
// is an ordered sequence of bounded Blocks whose texts concatenate to the
// flat document text.
package block

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/burntcarrot/segpad/attr"
)

var (
	ErrOutOfRange      = errors.New("position out of range")
	ErrLengthMismatch  = errors.New("block length does not match its data")
	ErrInvalidCapacity = errors.New("block capacity must be positive")
)

// Block is a span of text plus optional formatting metadata.
// Lengths are counted in runes.
type Block struct {
	text   string
	length int
	attrs  attr.Attributes
}

// New returns a block holding text with a copy of attrs.
func New(text string, attrs attr.Attributes) Block {
	return Block{text: text, length: utf8.RuneCountInString(text), attrs: attrs.Clone()}
}

// Text returns the block content.
func (b Block) Text() string {
	return b.text
}

// Len returns the cached rune count of the block content.
func (b Block) Len() int {
	return b.length
}

// SetText replaces the content and recomputes the length.
func (b *Block) SetText(s string) {
	b.text = s
	b.length = utf8.RuneCountInString(s)
}

// Attributes returns a copy of the block's attributes.
func (b Block) Attributes() attr.Attributes {
	return b.attrs.Clone()
}

// SetAttributes merges patch into the block's attributes and reports whether
// anything changed. A nil value in patch removes the key.
func (b *Block) SetAttributes(patch attr.Attributes) bool {
	next := b.attrs.Patch(patch)
	if attr.Equal(next, b.attrs) {
		return false
	}
	b.attrs = next
	return true
}

// Clone returns an independent block with the same text and attributes.
func (b Block) Clone() Block {
	return Block{text: b.text, length: b.length, attrs: b.attrs.Clone()}
}

// Splice removes n runes at rune index at and inserts s in their place.
func (b *Block) Splice(at, n int, s string) error {
	if at < 0 || n < 0 || at+n > b.length {
		return fmt.Errorf("splice [%d, %d) of block with length %d: %w", at, at+n, b.length, ErrOutOfRange)
	}
	runes := []rune(b.text)
	b.SetText(string(runes[:at]) + s + string(runes[at+n:]))
	return nil
}

// Cut splits the block at rune index at, returning the head and tail halves.
// Both halves carry a copy of the attributes.
func (b Block) Cut(at int) (Block, Block, error) {
	if at < 0 || at > b.length {
		return Block{}, Block{}, fmt.Errorf("cut at %d of block with length %d: %w", at, b.length, ErrOutOfRange)
	}
	runes := []rune(b.text)
	return New(string(runes[:at]), b.attrs), New(string(runes[at:]), b.attrs), nil
}

// Chunk partitions the block into contiguous blocks of at most size runes.
// Every chunk but the last holds exactly size runes. An empty block yields a
// single empty chunk.
func (b Block) Chunk(size int) ([]Block, error) {
	if size <= 0 {
		return nil, ErrInvalidCapacity
	}
	if b.length <= size {
		return []Block{b.Clone()}, nil
	}

	runes := []rune(b.text)
	chunks := make([]Block, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, New(string(runes[start:end]), b.attrs))
	}
	return chunks, nil
}

// wireBlock is the serialized form of a Block.
type wireBlock struct {
	Length     int             `json:"length"`
	Data       string          `json:"data"`
	Attributes attr.Attributes `json:"attributes,omitempty"`
}

// MarshalJSON encodes the block as {length, data, attributes}.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBlock{Length: b.length, Data: b.text, Attributes: b.attrs})
}

// UnmarshalJSON decodes a block and checks that the length field matches the data.
func (b *Block) UnmarshalJSON(data []byte) error {
	var w wireBlock
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	decoded := New(w.Data, w.Attributes)
	if decoded.length != w.Length {
		return fmt.Errorf("length field %d, data has %d: %w", w.Length, decoded.length, ErrLengthMismatch)
	}

	*b = decoded
	return nil
}
