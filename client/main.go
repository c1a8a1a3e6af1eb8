package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/burntcarrot/segpad/client/editor"
	"github.com/burntcarrot/segpad/session"
	"github.com/burntcarrot/segpad/tree"
	"github.com/burntcarrot/segpad/tui"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	// e is the editing surface.
	e *editor.Editor

	// sess owns the block document and keeps it in sync with the server.
	sess *session.Session

	transport *wsTransport

	// trees reads and writes persisted documents.
	trees = tree.NewService(tree.JSONCodec{Indent: true}, nil)

	logger = logrus.New()

	flags Flags

	// fileName is where Ctrl+S saves the document, and what is imported on start.
	fileName string

	// imported is set once the -file content has been offered to the session.
	imported bool
)

func main() {
	flags = parseFlags()
	fileName = flags.File

	name, err := readName(flags)
	if err != nil {
		color.Red("Login error, exiting: %s", err)
		os.Exit(0)
	}

	conn, _, err := createConn(flags)
	if err != nil {
		color.Red("Connection error, exiting: %s", err)
		os.Exit(0)
	}
	defer conn.Close()

	logFile, debugLogFile, err := setupLogger(logger)
	if err != nil {
		fmt.Printf("Failed to setup logger, exiting: %s\n", err)
		return
	}
	defer closeLogFiles(logFile, debugLogFile)

	e = editor.NewEditor()
	transport = newTransport(conn)

	sess, err = session.New(session.Config{MaxBlockSize: flags.BlockSize}, trees, e, transport, logger)
	if err != nil {
		color.Red("Invalid configuration, exiting: %s", err)
		return
	}

	if err := transport.Join(name); err != nil {
		color.Red("Failed to join session, exiting: %s", err)
		return
	}

	err = UI(conn)
	if err != nil {
		// If error has the prefix "segpad", then it was triggered by an exit key.
		if strings.HasPrefix(err.Error(), "segpad") {
			fmt.Println("exiting session.")
			return
		}

		fmt.Printf("TUI error, exiting: %s\n", err)
		return
	}
}

// readName asks for the user's name, through the login prompt if -login is set.
func readName(flags Flags) (string, error) {
	if flags.Login {
		return tui.Login()
	}

	fmt.Printf("%s", color.YellowString("Enter your name: "))
	s := bufio.NewScanner(os.Stdin)
	s.Scan()
	return s.Text(), s.Err()
}
