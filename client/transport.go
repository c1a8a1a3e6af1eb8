package main

import (
	"sync"

	"github.com/burntcarrot/segpad/commons"
	"github.com/google/uuid"
)

type ConnReader interface {
	ReadJSON(v interface{}) error
}

type ConnWriter interface {
	WriteJSON(v interface{}) error
}

// wsTransport sends operation batches and document requests to the server.
type wsTransport struct {
	mu   sync.Mutex
	conn ConnWriter
	id   uuid.UUID
}

func newTransport(conn ConnWriter) *wsTransport {
	return &wsTransport{conn: conn}
}

// SetID records the client ID handed out by the server.
func (t *wsTransport) SetID(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.id = id
}

func (t *wsTransport) Submit(ops []commons.Operation) error {
	return t.send(commons.Message{Type: commons.OpBatchMessage, Operations: ops})
}

func (t *wsTransport) RequestDocument() error {
	return t.send(commons.Message{Type: commons.DocReqMessage})
}

// Join announces the user to the session.
func (t *wsTransport) Join(username string) error {
	return t.send(commons.Message{Type: commons.JoinMessage, Username: username})
}

// send stamps msg with the client ID; gorilla connections allow only one concurrent writer.
func (t *wsTransport) send(msg commons.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg.ID = t.id
	return t.conn.WriteJSON(&msg)
}
