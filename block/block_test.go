package block

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/burntcarrot/segpad/attr"
	"github.com/google/go-cmp/cmp"
)

// blockTexts returns the text of each block, for compact assertions.
func blockTexts(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Text()
	}
	return out
}

func TestSetText(t *testing.T) {
	var b Block
	b.SetText("héllo")

	if b.Len() != 5 {
		t.Errorf("got length %d, expected 5", b.Len())
	}
	if b.Text() != "héllo" {
		t.Errorf("got text %q", b.Text())
	}
}

func TestSetAttributes(t *testing.T) {
	b := New("x", attr.Attributes{"bold": true})

	if !b.SetAttributes(attr.Attributes{"bold": nil, "italic": true}) {
		t.Error("expected a change to be reported")
	}
	if b.SetAttributes(attr.Attributes{"italic": true}) {
		t.Error("re-applying the same patch should report no change")
	}

	want := attr.Attributes{"italic": true}
	if !cmp.Equal(b.Attributes(), want) {
		t.Errorf("got != want, diff: %v\n", cmp.Diff(b.Attributes(), want))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := New("abc", attr.Attributes{"bold": true})
	c := b.Clone()

	c.SetText("xyz")
	c.SetAttributes(attr.Attributes{"bold": nil})

	if b.Text() != "abc" || b.Len() != 3 {
		t.Errorf("original text changed: %q", b.Text())
	}
	if !cmp.Equal(b.Attributes(), attr.Attributes{"bold": true}) {
		t.Errorf("original attributes changed: %v", b.Attributes())
	}
}

func TestSplice(t *testing.T) {
	tests := []struct {
		description string
		text        string
		at, n       int
		insert      string
		expected    string
	}{
		{description: "insert at start", text: "bc", at: 0, n: 0, insert: "a", expected: "abc"},
		{description: "insert at end", text: "ab", at: 2, n: 0, insert: "c", expected: "abc"},
		{description: "delete middle", text: "This", at: 2, n: 1, insert: "", expected: "Ths"},
		{description: "replace with multibyte", text: "abc", at: 1, n: 1, insert: "ü", expected: "aüc"},
	}

	for _, tc := range tests {
		b := New(tc.text, nil)
		if err := b.Splice(tc.at, tc.n, tc.insert); err != nil {
			t.Fatalf("%s: %v", tc.description, err)
		}
		if b.Text() != tc.expected {
			t.Errorf("%s: got %q, expected %q", tc.description, b.Text(), tc.expected)
		}
	}

	b := New("ab", nil)
	if err := b.Splice(1, 5, ""); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		text     string
		size     int
		expected []string
	}{
		{text: "", size: 4, expected: []string{""}},
		{text: "abcd", size: 4, expected: []string{"abcd"}},
		{text: "abcdef", size: 4, expected: []string{"abcd", "ef"}},
		{text: "abcdefgh", size: 4, expected: []string{"abcd", "efgh"}},
		{text: "äöüß", size: 3, expected: []string{"äöü", "ß"}},
	}

	for _, tc := range tests {
		chunks, err := New(tc.text, attr.Attributes{"b": 1}).Chunk(tc.size)
		if err != nil {
			t.Fatal(err)
		}
		if got := blockTexts(chunks); !cmp.Equal(got, tc.expected) {
			t.Errorf("chunk %q by %d, diff: %v\n", tc.text, tc.size, cmp.Diff(got, tc.expected))
		}
		for _, c := range chunks {
			if !cmp.Equal(c.Attributes(), attr.Attributes{"b": 1}) {
				t.Errorf("chunk lost attributes: %v", c.Attributes())
			}
		}
	}

	if _, err := New("a", nil).Chunk(0); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestCut(t *testing.T) {
	head, tail, err := New("hello", nil).Cut(2)
	if err != nil {
		t.Fatal(err)
	}
	if head.Text() != "he" || tail.Text() != "llo" {
		t.Errorf("got %q / %q", head.Text(), tail.Text())
	}
}

func TestJSON(t *testing.T) {
	b := New("héllo", attr.Attributes{"bold": true})

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"length":5,"data":"héllo","attributes":{"bold":true}}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var decoded Block
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Text() != b.Text() || decoded.Len() != b.Len() {
		t.Errorf("decoded %q (%d)", decoded.Text(), decoded.Len())
	}

	err = json.Unmarshal([]byte(`{"length":2,"data":"abc"}`), &decoded)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}
