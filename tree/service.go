package tree

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/burntcarrot/segpad/block"
)

// Codec turns a tree into bytes and back.
type Codec interface {
	Marshal(root *Node) ([]byte, error)
	Unmarshal(data []byte) (*Node, error)
}

// JSONCodec stores trees as JSON.
type JSONCodec struct {
	// Indent pretty-prints the output, for files meant to be read by people.
	Indent bool
}

func (c JSONCodec) Marshal(root *Node) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(root, "", "  ")
	}
	return json.Marshal(root)
}

func (JSONCodec) Unmarshal(data []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// Sealer swaps block nodes for opaque placeholders and back, for example to
// encrypt block subtrees. The engine never looks inside a placeholder.
type Sealer interface {
	Seal(n *Node) (*Node, error)
	Open(n *Node) (*Node, error)
}

// NopSealer leaves nodes unchanged.
type NopSealer struct{}

func (NopSealer) Seal(n *Node) (*Node, error) { return n, nil }
func (NopSealer) Open(n *Node) (*Node, error) { return n, nil }

// Service is the stateless serialization service handed to the
// synchronization layer.
type Service struct {
	codec  Codec
	sealer Sealer
}

// NewService returns a Service. Nil arguments fall back to JSONCodec and NopSealer.
func NewService(codec Codec, sealer Sealer) *Service {
	if codec == nil {
		codec = JSONCodec{}
	}
	if sealer == nil {
		sealer = NopSealer{}
	}
	return &Service{codec: codec, sealer: sealer}
}

// Encode serializes doc together with header.
func (s *Service) Encode(doc *block.Document, header *Node) ([]byte, error) {
	root, err := FromDocument(doc, header)
	if err != nil {
		return nil, err
	}

	container := root.Child(DocumentName)
	for i, n := range container.Children {
		sealed, err := s.sealer.Seal(n)
		if err != nil {
			return nil, fmt.Errorf("seal block %d: %w", i, err)
		}
		container.Children[i] = sealed
	}

	return s.codec.Marshal(root)
}

// Decode parses data into a document and its header.
func (s *Service) Decode(data []byte) (*block.Document, *Node, error) {
	root, err := s.codec.Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode tree: %w", err)
	}

	container := root.Child(DocumentName)
	if container == nil {
		return nil, nil, ErrNoDocument
	}
	for i, n := range container.Children {
		opened, err := s.sealer.Open(n)
		if err != nil {
			return nil, nil, fmt.Errorf("open block %d: %w", i, err)
		}
		container.Children[i] = opened
	}

	return ToDocument(root)
}

// Save writes doc and header to path.
func (s *Service) Save(path string, doc *block.Document, header *Node) error {
	data, err := s.Encode(doc, header)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Load reads a document and its header from path.
func (s *Service) Load(path string) (*block.Document, *Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return s.Decode(data)
}
