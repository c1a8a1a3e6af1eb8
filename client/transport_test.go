package main

import (
	"testing"

	"github.com/burntcarrot/segpad/block"
	"github.com/burntcarrot/segpad/commons"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type recordingConn struct {
	messages []commons.Message
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.messages = append(c.messages, *(v.(*commons.Message)))
	return nil
}

func TestTransport(t *testing.T) {
	conn := &recordingConn{}
	transport := newTransport(conn)

	id := uuid.New()
	transport.SetID(id)

	ops := []commons.Operation{commons.Append(0, block.New("a", nil))}
	if err := transport.Submit(ops); err != nil {
		t.Fatal(err)
	}
	if err := transport.RequestDocument(); err != nil {
		t.Fatal(err)
	}

	if len(conn.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conn.messages))
	}

	types := []commons.MessageType{conn.messages[0].Type, conn.messages[1].Type}
	want := []commons.MessageType{commons.OpBatchMessage, commons.DocReqMessage}
	if !cmp.Equal(types, want) {
		t.Errorf("types diff: %v\n", cmp.Diff(types, want))
	}
	for _, msg := range conn.messages {
		if msg.ID != id {
			t.Errorf("message not stamped with client ID: %v", msg.ID)
		}
	}
	if got := conn.messages[0].Operations[0].String(); got != "append@0(1)" {
		t.Errorf("got operation %s", got)
	}
}
