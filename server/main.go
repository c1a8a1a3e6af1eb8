package main

import (
	"errors"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/burntcarrot/segpad/block"
	"github.com/burntcarrot/segpad/tree"
	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

// Upgrader instance to upgrade all HTTP connections to a WebSocket.
var upgrader = websocket.Upgrader{}

func main() {
	addr := flag.String("addr", ":8080", "Server's network address")
	file := flag.String("file", "", "File the document is loaded from and persisted to")
	flag.Parse()

	trees := tree.NewService(tree.JSONCodec{Indent: true}, nil)

	doc, header, err := loadDocument(trees, *file)
	if err != nil {
		log.Fatalf("Error loading %s, exiting: %v", *file, err)
	}

	h := newHub(doc, header, trees, *file)
	go h.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handleConn(h, w, r)
	})

	color.Green("Starting server on %s (%d blocks)", *addr, doc.Len())
	err = http.ListenAndServe(*addr, mux)
	if err != nil {
		log.Fatal("Error starting server, exiting.", err)
	}
}

// loadDocument reads the persisted document, or starts an empty one.
func loadDocument(trees *tree.Service, file string) (*block.Document, *tree.Node, error) {
	if file == "" {
		return block.NewDocument(), tree.NewHeader(), nil
	}

	doc, header, err := trees.Load(file)
	if errors.Is(err, os.ErrNotExist) {
		return block.NewDocument(), tree.NewHeader(), nil
	}
	return doc, header, err
}

// handleConn registers the connection with the hub and feeds it the messages read from it.
func handleConn(h *hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection to websocket: %v", err)
		return
	}
	defer conn.Close()

	h.register <- conn

	for {
		var env envelope
		if err := conn.ReadJSON(&env.msg); err != nil {
			h.unregister <- conn
			return
		}
		env.from = conn
		h.messages <- env
	}
}
