package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/burntcarrot/segpad/commons"
	"github.com/burntcarrot/segpad/delta"
	"github.com/burntcarrot/segpad/segment"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nsf/termbox-go"
)

// handleTermboxEvent handles key input by editing the local text and passing the change to the session.
func handleTermboxEvent(ev termbox.Event) error {
	if ev.Type == termbox.EventResize {
		e.SetSize(ev.Width, ev.Height)
	}

	if ev.Type == termbox.EventKey {
		switch ev.Key {

		// The default keys for exiting a session are Esc and Ctrl+C.
		case termbox.KeyEsc, termbox.KeyCtrlC:
			// Return an error with the prefix "segpad", so that it gets treated as an exit "event".
			return errors.New("segpad: exiting")

		// The default key for saving the document is Ctrl+S.
		case termbox.KeyCtrlS:
			if fileName == "" {
				fileName = "segpad-content.json"
			}

			if err := sess.Save(fileName); err != nil {
				e.StatusMsg = "Failed to save to " + fileName
				logger.Errorf("failed to save to %s: %v", fileName, err)
				e.SetStatusBar()
				return nil
			}

			e.StatusMsg = "Saved document to " + fileName
			e.SetStatusBar()

		case termbox.KeyArrowLeft, termbox.KeyCtrlB:
			e.MoveCursor(-1, 0)

		case termbox.KeyArrowRight, termbox.KeyCtrlF:
			e.MoveCursor(1, 0)

		case termbox.KeyArrowUp, termbox.KeyCtrlP:
			e.MoveCursor(0, -1)

		case termbox.KeyArrowDown, termbox.KeyCtrlN:
			e.MoveCursor(0, 1)

		case termbox.KeyHome:
			e.SetX(0)

		case termbox.KeyEnd:
			e.SetX(len(e.Text))

		case termbox.KeyBackspace, termbox.KeyBackspace2:
			performOperation(e.Backspace())

		case termbox.KeyDelete:
			performOperation(e.DeleteForward())

		// The Tab key inserts 4 spaces to simulate a "tab".
		case termbox.KeyTab:
			for i := 0; i < 4; i++ {
				performOperation(e.Insert(' '))
			}

		case termbox.KeyEnter:
			performOperation(e.Insert('\n'))

		case termbox.KeySpace:
			performOperation(e.Insert(' '))

		// Every other key is eligible to be a candidate for insertion.
		default:
			if ev.Ch != 0 {
				performOperation(e.Insert(ev.Ch))
			}
		}
	}

	e.Draw()
	return nil
}

// performOperation hands a local edit to the session, which updates the
// block document and submits the resulting operations.
func performOperation(d *delta.Delta) {
	if d == nil {
		return
	}

	if err := sess.LocalChange(d); err != nil {
		logger.Errorf("local edit rejected: %v", err)
		e.StatusMsg = "edit rejected, restoring document"
		e.SetStatusBar()
		e.SetText(sess.Text())
	}

	printDoc(sess)
}

// getTermboxChan returns a channel of termbox Events repeatedly waiting on user input.
func getTermboxChan() chan termbox.Event {
	termboxChan := make(chan termbox.Event)

	go func() {
		for {
			termboxChan <- termbox.PollEvent()
		}
	}()

	return termboxChan
}

// handleMsg passes a server message to the session.
func handleMsg(msg commons.Message) {
	switch msg.Type {
	case commons.DocSyncMessage:
		logger.Infof("DOCSYNC RECEIVED, %d bytes", len(msg.Document))

		if err := sess.Load(msg.Document); err != nil {
			logger.Errorf("failed to load document: %v", err)
			e.StatusMsg = "Failed to load document"
			e.SetStatusBar()
			break
		}
		importFile()

	case commons.OpBatchMessage:
		logger.Infof("REMOTE BATCH #%d from %v: %v", msg.Seq, msg.ID, msg.Operations)

		if err := sess.RemoteBatch(msg.Operations); err != nil {
			logger.Errorf("failed to apply remote batch: %v", err)
		}

	case commons.ClientIDMessage:
		id, err := uuid.Parse(msg.Text)
		if err != nil {
			logger.Errorf("failed to set client ID, err: %v", err)
			break
		}
		transport.SetID(id)
		logger.Infof("CLIENT ID %v", id)

	case commons.JoinMessage:
		e.StatusMsg = fmt.Sprintf("%s has joined the session!", msg.Username)
		e.SetStatusBar()

	case commons.UsersMessage:
		e.StatusMsg = "Users: " + strings.ReplaceAll(msg.Text, ",", ", ")
		e.SetStatusBar()
	}

	printDoc(sess)
	e.Draw()
}

// importFile offers the content of the -file document to an empty session,
// once. It is sent as an ordinary local edit.
func importFile() {
	if imported || fileName == "" {
		return
	}
	imported = true

	doc, _, err := trees.Load(fileName)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Errorf("failed to load %s: %v", fileName, err)
			e.StatusMsg = "Failed to load " + fileName
			e.SetStatusBar()
		}
		return
	}
	if sess.Text() != "" {
		e.StatusMsg = "Session already has content, not loading " + fileName
		e.SetStatusBar()
		return
	}

	if err := sess.LocalChange(segment.Formatted(doc)); err != nil {
		logger.Errorf("failed to import %s: %v", fileName, err)
		return
	}
	e.SetText(sess.Text())
	e.StatusMsg = "Loaded " + fileName
	e.SetStatusBar()
}

// getMsgChan returns a message channel that repeatedly reads from a websocket connection.
// The channel is closed when the connection goes away.
func getMsgChan(conn ConnReader) chan commons.Message {
	messageChan := make(chan commons.Message)
	go func() {
		defer close(messageChan)
		for {
			var msg commons.Message

			err := conn.ReadJSON(&msg)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("websocket error: %v", err)
				}
				return
			}

			logger.Infof("message received: %s", msg.Type)
			messageChan <- msg
		}
	}()
	return messageChan
}
