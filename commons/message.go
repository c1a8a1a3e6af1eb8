package commons

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Message represents the message sent over the wire.
type Message struct {
	Username string `json:"username,omitempty"`

	// Text represents the body of the message. This is currently used for joining messages, the client ID, and the list of active users.
	Text string `json:"text,omitempty"`

	// Type represents the message type.
	Type MessageType `json:"type"`

	// ID represents the UUID of the client the message originates from, or is addressed to.
	ID uuid.UUID `json:"ID"`

	// Seq is the global sequence number the server assigned to an operation batch.
	Seq uint64 `json:"seq,omitempty"`

	// Operations is the ordered batch produced by a single edit.
	Operations []Operation `json:"operations,omitempty"`

	// Document is the serialized persisted tree. It is only sent for full loads, due to its size.
	Document json.RawMessage `json:"document,omitempty"`
}

// MessageType represents the type of the message.
type MessageType string

// segpad supports 6 message types:
// - opBatch (for operation batches)
// - docSync (for full document loads)
// - docReq (for requesting a full document)
// - clientID (for handing a client its ID)
// - join (for joining messages)
// - users (for the list of active users)

const (
	OpBatchMessage  MessageType = "opBatch"
	DocSyncMessage  MessageType = "docSync"
	DocReqMessage   MessageType = "docReq"
	ClientIDMessage MessageType = "clientID"
	JoinMessage     MessageType = "join"
	UsersMessage    MessageType = "users"
)
