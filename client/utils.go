package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/burntcarrot/segpad/session"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// Flags represents the command-line flags that are passed to segpad's client.
type Flags struct {
	Server    string
	Secure    bool
	Login     bool
	File      string
	Debug     bool
	BlockSize int
}

// parseFlags parses command-line flags.
func parseFlags() Flags {
	serverAddr := flag.String("server", "localhost:8080", "The network address of the server")
	useSecureConn := flag.Bool("secure", false, "Enable a secure WebSocket connection (wss://)")
	enableDebug := flag.Bool("debug", false, "Enable debugging mode to show more verbose logs")
	enableLogin := flag.Bool("login", false, "Enable the login prompt for the server")
	file := flag.String("file", "", "The file to load the segpad content from, and save it to")
	blockSize := flag.Int("block-size", session.DefaultMaxBlockSize, "The maximum number of characters stored in a block")

	flag.Parse()

	return Flags{
		Server:    *serverAddr,
		Secure:    *useSecureConn,
		Debug:     *enableDebug,
		Login:     *enableLogin,
		File:      *file,
		BlockSize: *blockSize,
	}
}

// createConn creates a WebSocket connection.
func createConn(flags Flags) (*websocket.Conn, *http.Response, error) {
	var u url.URL
	if flags.Secure {
		u = url.URL{Scheme: "wss", Host: flags.Server, Path: "/"}
	} else {
		u = url.URL{Scheme: "ws", Host: flags.Server, Path: "/"}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Minute,
	}

	return dialer.Dial(u.String(), nil)
}

// ensureDirExists ensures that a directory exists, and if it isn't present, it tries to create a new one.
func ensureDirExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	}

	if err := os.Mkdir(path, 0700); err != nil {
		return false, err
	}
	return true, nil
}

// setupLogger initializes the client's logger (logrus).
// Warnings and errors go to segpad.log, everything else to segpad-debug.log.
func setupLogger(logger *logrus.Logger) (*os.File, *os.File, error) {
	logPath := "segpad.log"
	debugLogPath := "segpad-debug.log"

	homeDirExists := true
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDirExists = false
	}

	segpadDir := filepath.Join(homeDir, ".segpad")

	dirExists, err := ensureDirExists(segpadDir)
	if err != nil {
		return nil, nil, err
	}

	if dirExists && homeDirExists {
		logPath = filepath.Join(segpadDir, "segpad.log")
		debugLogPath = filepath.Join(segpadDir, "segpad-debug.log")
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		fmt.Printf("Logger error, exiting: %s", err)
		return nil, nil, err
	}

	debugLogFile, err := os.OpenFile(debugLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		fmt.Printf("Logger error, exiting: %s", err)
		return nil, nil, err
	}

	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(&writer.Hook{
		Writer: logFile,
		LogLevels: []logrus.Level{
			logrus.WarnLevel,
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer: debugLogFile,
		LogLevels: []logrus.Level{
			logrus.TraceLevel,
			logrus.DebugLevel,
			logrus.InfoLevel,
		},
	})

	return logFile, debugLogFile, nil
}

// closeLogFiles closes the log files created by the client.
// closeLogFiles is meant to be used for defer calls.
func closeLogFiles(logFile, debugLogFile *os.File) {
	if err := logFile.Close(); err != nil {
		fmt.Printf("Failed to close log file: %s", err)
		return
	}

	if err := debugLogFile.Close(); err != nil {
		fmt.Printf("Failed to close debug log file: %s", err)
		return
	}
}

// printDoc "prints" the block layout of the document to the logs.
// It only logs when the -debug flag is set.
func printDoc(sess *session.Session) {
	if !flags.Debug {
		return
	}

	logger.Infof("---DOCUMENT STATE---")
	offset := 0
	for i, b := range sess.Blocks() {
		logger.Infof("position: %v  offset: %v  length: %v  attributes: %v  data: %q", i, offset, b.Len(), b.Attributes(), b.Text())
		offset += b.Len()
	}
}
