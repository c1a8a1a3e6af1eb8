package commons

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/burntcarrot/segpad/block"
	"github.com/google/go-cmp/cmp"
)

func TestValidate(t *testing.T) {
	b := block.New("abc", nil)

	tests := []struct {
		description string
		op          Operation
		valid       bool
	}{
		{description: "append", op: Append(0, b), valid: true},
		{description: "replace", op: Replace(3, b), valid: true},
		{description: "delete", op: Delete(1), valid: true},
		{description: "append without block", op: Operation{Kind: OperationAppend}, valid: false},
		{description: "unknown kind", op: Operation{Kind: "move", Position: 1}, valid: false},
		{description: "negative position", op: Delete(-1), valid: false},
	}

	for _, tc := range tests {
		err := tc.op.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tc.description, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("%s: expected ErrInvalidOperation, got %v", tc.description, err)
		}
	}
}

func TestOperationCopiesBlock(t *testing.T) {
	b := block.New("abc", nil)
	op := Append(0, b)
	b.SetText("xyz")

	if op.Block.Text() != "abc" {
		t.Errorf("operation aliases the block: %q", op.Block.Text())
	}
}

func TestMessageJSON(t *testing.T) {
	msg := Message{
		Type:       OpBatchMessage,
		Seq:        7,
		Operations: []Operation{Replace(1, block.New("hi", nil)), Delete(2)},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	got := make([]string, len(decoded.Operations))
	for i, op := range decoded.Operations {
		got[i] = op.String()
	}
	want := []string{"replace@1(2)", "delete@2"}
	if !cmp.Equal(got, want) {
		t.Errorf("got != want, diff: %v\n", cmp.Diff(got, want))
	}
	if decoded.Seq != 7 || decoded.Type != OpBatchMessage {
		t.Errorf("header not preserved: %+v", decoded)
	}
}
