package main

import (
	"github.com/gorilla/websocket"
	"github.com/nsf/termbox-go"
)

// UI initializes the terminal and runs the main loop.
func UI(conn *websocket.Conn) error {
	err := termbox.Init()
	if err != nil {
		return err
	}
	defer termbox.Close()

	e.SetSize(termbox.Size())
	e.Draw()

	return mainLoop(conn)
}

// mainLoop is the main update loop for the UI. Key events and server
// messages are handled one at a time on this goroutine.
func mainLoop(conn *websocket.Conn) error {
	termboxChan := getTermboxChan()
	msgChan := getMsgChan(conn)

	for {
		select {
		case termboxEvent := <-termboxChan:
			err := handleTermboxEvent(termboxEvent)
			if err != nil {
				return err
			}
		case msg, ok := <-msgChan:
			if !ok {
				e.StatusMsg = "lost connection!"
				e.SetStatusBar()
				msgChan = nil
				continue
			}
			handleMsg(msg)
		}
	}
}
