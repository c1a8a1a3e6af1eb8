// Package tree converts a Document to and from the persisted tree: a root
// node holding a header section and a "document" container whose children
// are the blocks, in order.
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/burntcarrot/segpad/attr"
	"github.com/burntcarrot/segpad/block"
)

const (
	RootName     = "root"
	HeaderName   = "header"
	DocumentName = "document"
	BlockName    = "block"

	FieldLength     = "length"
	FieldData       = "data"
	FieldAttributes = "attributes"
)

var (
	ErrNoDocument    = errors.New("tree has no document node")
	ErrMalformedNode = errors.New("malformed block node")
)

// Node is a generic tree node.
type Node struct {
	Name     string            `json:"name"`
	Fields   map[string]string `json:"fields,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// Child returns the first direct child called name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// NewHeader returns an empty header node.
func NewHeader() *Node {
	return &Node{Name: HeaderName}
}

// FromDocument builds a root node holding header and one block node per block.
// A nil header is replaced by an empty one.
func FromDocument(doc *block.Document, header *Node) (*Node, error) {
	if header == nil {
		header = NewHeader()
	}

	container := &Node{Name: DocumentName}
	for _, b := range doc.Blocks() {
		n, err := blockNode(b)
		if err != nil {
			return nil, err
		}
		container.Children = append(container.Children, n)
	}

	return &Node{Name: RootName, Children: []*Node{header, container}}, nil
}

func blockNode(b block.Block) (*Node, error) {
	n := &Node{
		Name: BlockName,
		Fields: map[string]string{
			FieldLength: strconv.Itoa(b.Len()),
			FieldData:   b.Text(),
		},
	}

	if attrs := b.Attributes(); len(attrs) > 0 {
		data, err := json.Marshal(attrs)
		if err != nil {
			return nil, fmt.Errorf("encode attributes: %w", err)
		}
		n.Fields[FieldAttributes] = string(data)
	}
	return n, nil
}

// ToDocument reads the blocks of root's document container. It returns the
// document and the header node (nil if absent).
func ToDocument(root *Node) (*block.Document, *Node, error) {
	container := root.Child(DocumentName)
	if container == nil {
		return nil, nil, ErrNoDocument
	}

	blocks := make([]block.Block, 0, len(container.Children))
	for i, n := range container.Children {
		b, err := nodeBlock(n)
		if err != nil {
			return nil, nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}

	return block.NewDocument(blocks...), root.Child(HeaderName), nil
}

func nodeBlock(n *Node) (block.Block, error) {
	if n.Name != BlockName {
		return block.Block{}, fmt.Errorf("%w: unexpected node %q", ErrMalformedNode, n.Name)
	}

	data, ok := n.Fields[FieldData]
	if !ok {
		return block.Block{}, fmt.Errorf("%w: missing %s", ErrMalformedNode, FieldData)
	}
	length, err := strconv.Atoi(n.Fields[FieldLength])
	if err != nil {
		return block.Block{}, fmt.Errorf("%w: %s: %v", ErrMalformedNode, FieldLength, err)
	}

	var attrs attr.Attributes
	if raw, ok := n.Fields[FieldAttributes]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
			return block.Block{}, fmt.Errorf("%w: %s: %v", ErrMalformedNode, FieldAttributes, err)
		}
	}

	b := block.New(data, attrs)
	if b.Len() != length {
		return block.Block{}, fmt.Errorf("length field %d, data has %d: %w", length, b.Len(), block.ErrLengthMismatch)
	}
	return b, nil
}
