package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/burntcarrot/segpad/block"
	"github.com/burntcarrot/segpad/commons"
	"github.com/burntcarrot/segpad/segment"
	"github.com/burntcarrot/segpad/tree"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

// peer is the write side of a client connection.
type peer interface {
	WriteJSON(v interface{}) error
}

type client struct {
	id       uuid.UUID
	username string
}

// envelope is an incoming message together with the connection it came from.
type envelope struct {
	from peer
	msg  commons.Message
}

// hub orders operation batches, keeps the canonical document and relays
// accepted batches to every other client. All state is owned by the run
// goroutine.
type hub struct {
	clients map[peer]*client

	doc    *block.Document
	header *tree.Node
	seq    uint64

	applier *segment.Applier
	trees   *tree.Service
	file    string

	messages   chan envelope
	register   chan peer
	unregister chan peer
}

func newHub(doc *block.Document, header *tree.Node, trees *tree.Service, file string) *hub {
	return &hub{
		clients:    make(map[peer]*client),
		doc:        doc,
		header:     header,
		applier:    segment.NewApplier(nil),
		trees:      trees,
		file:       file,
		messages:   make(chan envelope),
		register:   make(chan peer),
		unregister: make(chan peer),
	}
}

// run handles registrations and messages one at a time.
func (h *hub) run() {
	for {
		select {
		case p := <-h.register:
			h.handleRegister(p)
		case p := <-h.unregister:
			h.handleUnregister(p)
		case env := <-h.messages:
			h.handleMessage(env.from, env.msg)
		}
	}
}

// handleRegister hands the new client its ID and the current document.
func (h *hub) handleRegister(p peer) {
	c := &client{id: uuid.New()}
	h.clients[p] = c

	h.send(p, commons.Message{Type: commons.ClientIDMessage, Text: c.id.String(), ID: c.id})
	h.sendDocument(p)
}

func (h *hub) handleUnregister(p peer) {
	c, ok := h.clients[p]
	if !ok {
		return
	}
	delete(h.clients, p)

	logf(color.YellowString, "%s (%v) left", c.username, c.id)
	h.broadcastUsers()
}

func (h *hub) handleMessage(from peer, msg commons.Message) {
	c, ok := h.clients[from]
	if !ok {
		return
	}
	msg.ID = c.id

	switch msg.Type {
	case commons.JoinMessage:
		c.username = msg.Username
		logf(color.GreenString, "%s has joined", c.username)
		h.broadcast(from, msg)
		h.broadcastUsers()

	case commons.OpBatchMessage:
		h.handleBatch(from, c, msg)

	case commons.DocReqMessage:
		logf(color.CyanString, "%s requested the document", c.username)
		h.sendDocument(from)
	}
}

// handleBatch applies a batch to a copy of the canonical document. A batch
// that does not apply cleanly was built on a stale document: it is dropped
// and its sender is resynchronized.
func (h *hub) handleBatch(from peer, c *client, msg commons.Message) {
	work := h.doc.Clone()
	_, warnings := h.applier.Apply(work, msg.Operations)
	if len(warnings) > 0 {
		logf(color.RedString, "rejected batch from %s: %v", c.username, warnings[0])
		h.sendDocument(from)
		return
	}

	h.doc.Swap(work)
	h.seq++
	msg.Seq = h.seq
	logf(color.GreenString, "#%d %s: %d operations, %d blocks", h.seq, c.username, len(msg.Operations), h.doc.Len())

	h.broadcast(from, msg)
	h.persist()
}

func (h *hub) persist() {
	if h.file == "" {
		return
	}
	if err := h.trees.Save(h.file, h.doc, h.header); err != nil {
		logf(color.RedString, "failed to save %s: %v", h.file, err)
	}
}

func (h *hub) sendDocument(p peer) {
	c, ok := h.clients[p]
	if !ok {
		return
	}

	data, err := h.trees.Encode(h.doc, h.header)
	if err != nil {
		logf(color.RedString, "failed to encode document: %v", err)
		return
	}
	h.send(p, commons.Message{Type: commons.DocSyncMessage, Document: data, Seq: h.seq, ID: c.id})
}

// broadcastUsers sends the sorted list of usernames to every client.
func (h *hub) broadcastUsers() {
	names := make([]string, 0, len(h.clients))
	for _, c := range h.clients {
		if c.username != "" {
			names = append(names, c.username)
		}
	}
	sort.Strings(names)
	h.broadcast(nil, commons.Message{Type: commons.UsersMessage, Text: strings.Join(names, ",")})
}

// broadcast sends msg to every client except origin.
func (h *hub) broadcast(origin peer, msg commons.Message) {
	for p := range h.clients {
		if p != origin {
			h.send(p, msg)
		}
	}
}

func (h *hub) send(p peer, msg commons.Message) {
	if err := p.WriteJSON(&msg); err != nil {
		logf(color.RedString, "error sending message to client: %v", err)
		delete(h.clients, p)
	}
}

// logf prints a timestamped, coloured line to stdout.
func logf(paint func(format string, a ...interface{}) string, format string, a ...interface{}) {
	t := time.Now().Format(time.ANSIC)
	fmt.Fprintln(color.Output, t+" >> "+paint(format, a...))
}
