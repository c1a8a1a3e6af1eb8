package tree

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/burntcarrot/segpad/attr"
	"github.com/burntcarrot/segpad/block"
	"github.com/google/go-cmp/cmp"
)

type snapshot struct {
	Text  string
	Attrs attr.Attributes
}

func snapshots(doc *block.Document) []snapshot {
	var out []snapshot
	for _, b := range doc.Blocks() {
		out = append(out, snapshot{Text: b.Text(), Attrs: b.Attributes()})
	}
	return out
}

func sampleDocument() *block.Document {
	return block.NewDocument(
		block.New("héllo ", nil),
		block.New("world", attr.Attributes{"bold": true}),
	)
}

func TestRoundTrip(t *testing.T) {
	doc := sampleDocument()
	header := &Node{Name: HeaderName, Fields: map[string]string{"title": "notes"}}

	root, err := FromDocument(doc, header)
	if err != nil {
		t.Fatal(err)
	}

	got, gotHeader, err := ToDocument(root)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(snapshots(got), snapshots(doc)) {
		t.Errorf("blocks diff: %v\n", cmp.Diff(snapshots(got), snapshots(doc)))
	}
	if !cmp.Equal(gotHeader, header) {
		t.Errorf("header diff: %v\n", cmp.Diff(gotHeader, header))
	}

	first := root.Child(DocumentName).Children[0]
	if first.Fields[FieldLength] != "6" {
		t.Errorf("length field counts runes, got %q", first.Fields[FieldLength])
	}
}

func TestToDocumentErrors(t *testing.T) {
	tests := []struct {
		description string
		root        *Node
		expected    error
	}{
		{
			description: "no document container",
			root:        &Node{Name: RootName, Children: []*Node{NewHeader()}},
			expected:    ErrNoDocument,
		},
		{
			description: "length mismatch",
			root: &Node{Name: RootName, Children: []*Node{{Name: DocumentName, Children: []*Node{
				{Name: BlockName, Fields: map[string]string{FieldLength: "2", FieldData: "abc"}},
			}}}},
			expected: block.ErrLengthMismatch,
		},
		{
			description: "unexpected child",
			root: &Node{Name: RootName, Children: []*Node{{Name: DocumentName, Children: []*Node{
				{Name: "paragraph"},
			}}}},
			expected: ErrMalformedNode,
		},
		{
			description: "bad attributes",
			root: &Node{Name: RootName, Children: []*Node{{Name: DocumentName, Children: []*Node{
				{Name: BlockName, Fields: map[string]string{FieldLength: "1", FieldData: "a", FieldAttributes: "{"}},
			}}}},
			expected: ErrMalformedNode,
		},
	}

	for _, tc := range tests {
		if _, _, err := ToDocument(tc.root); !errors.Is(err, tc.expected) {
			t.Errorf("%s: expected %v, got %v", tc.description, tc.expected, err)
		}
	}
}

// renameSealer hides block nodes behind a different node name.
type renameSealer struct {
	sealed int
}

func (s *renameSealer) Seal(n *Node) (*Node, error) {
	s.sealed++
	return &Node{Name: "sealed", Fields: n.Fields}, nil
}

func (s *renameSealer) Open(n *Node) (*Node, error) {
	if n.Name != "sealed" {
		return nil, errors.New("not sealed")
	}
	return &Node{Name: BlockName, Fields: n.Fields}, nil
}

func TestServiceUsesSealer(t *testing.T) {
	sealer := &renameSealer{}
	svc := NewService(JSONCodec{}, sealer)

	data, err := svc.Encode(sampleDocument(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if sealer.sealed != 2 {
		t.Errorf("expected 2 sealed blocks, got %d", sealer.sealed)
	}

	doc, _, err := svc.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "héllo world" {
		t.Errorf("got %q", doc.Text())
	}

	// Without the sealer the placeholders are not blocks.
	if _, _, err := NewService(nil, nil).Decode(data); !errors.Is(err, ErrMalformedNode) {
		t.Errorf("expected ErrMalformedNode, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	svc := NewService(JSONCodec{Indent: true}, nil)
	path := filepath.Join(t.TempDir(), "doc.json")

	if err := svc.Save(path, sampleDocument(), nil); err != nil {
		t.Fatal(err)
	}
	doc, header, err := svc.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(snapshots(doc), snapshots(sampleDocument())) {
		t.Errorf("blocks diff: %v\n", cmp.Diff(snapshots(doc), snapshots(sampleDocument())))
	}
	if header == nil || header.Name != HeaderName {
		t.Errorf("header not restored: %+v", header)
	}
}
