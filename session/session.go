// Package session owns a document and keeps it synchronized with the editing
// surface and the OT transport.
//
// Every entry point runs to completion under a single lock, so the document
// is never observed half-mutated and outgoing batches reach the transport in
// the order they were generated. Surface and Transport implementations must
// not call back into the Session synchronously.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/burntcarrot/segpad/block"
	"github.com/burntcarrot/segpad/commons"
	"github.com/burntcarrot/segpad/delta"
	"github.com/burntcarrot/segpad/segment"
	"github.com/burntcarrot/segpad/tree"
	"github.com/sirupsen/logrus"
)

var ErrNotLoaded = errors.New("document not loaded")

// Surface is the editing surface. It receives the flat-text form of remote changes.
type Surface interface {
	ApplyDelta(d *delta.Delta) error
}

// Transport is the outbound side of the OT transport.
type Transport interface {
	// Submit sends the operations produced by one local edit.
	Submit(ops []commons.Operation) error

	// RequestDocument asks for a fresh full document load.
	RequestDocument() error
}

// Session is the synchronization façade around a block document.
type Session struct {
	mu sync.Mutex

	doc    *block.Document
	header *tree.Node
	loaded bool

	// diverged is set when a remote batch could not be applied completely;
	// it is cleared by the next full load.
	diverged bool

	translator *segment.Translator
	applier    *segment.Applier
	trees      *tree.Service

	surface   Surface
	transport Transport
	logger    logrus.FieldLogger
}

// New returns a Session with an empty, not yet loaded document.
func New(cfg Config, trees *tree.Service, surface Surface, transport Transport, logger logrus.FieldLogger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if trees == nil {
		trees = tree.NewService(nil, nil)
	}

	translator, err := segment.NewTranslator(cfg.MaxBlockSize, logger)
	if err != nil {
		return nil, err
	}

	return &Session{
		doc:        block.NewDocument(),
		translator: translator,
		applier:    segment.NewApplier(logger),
		trees:      trees,
		surface:    surface,
		transport:  transport,
		logger:     logger,
	}, nil
}

// Load replaces the document with the serialized tree in data and pushes the
// new content to the surface. It is called once for the initial load and
// again whenever a resync was requested.
func (s *Session) Load(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, header, err := s.trees.Decode(data)
	if err != nil {
		s.logger.Errorf("failed to load document: %v", err)
		return fmt.Errorf("load document: %w", err)
	}

	replace := segment.Formatted(doc).Delete(s.doc.TextLen())

	s.doc = doc
	s.header = header
	s.loaded = true
	s.diverged = false
	s.logger.WithFields(logrus.Fields{"blocks": doc.Len(), "length": doc.TextLen()}).Info("DOCUMENT LOADED")

	return s.emit(replace)
}

// LocalChange translates an edit made on the surface, applies it to the
// document and submits the resulting operations.
func (s *Session) LocalChange(edit *delta.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}

	res, err := s.translator.Translate(s.doc, edit)
	if err != nil {
		s.logger.Errorf("rejected local edit: %v", err)
		return fmt.Errorf("local change: %w", err)
	}
	for _, w := range res.Warnings {
		s.logger.Warnf("local edit: %v", w)
	}

	if len(res.Operations) == 0 {
		return nil
	}
	s.logger.Infof("LOCAL EDIT: %d operations, %d blocks", len(res.Operations), s.doc.Len())

	if s.transport == nil {
		return nil
	}
	if err := s.transport.Submit(res.Operations); err != nil {
		return fmt.Errorf("submit operations: %w", err)
	}
	return nil
}

// RemoteBatch applies a batch of remote operations and forwards the
// resulting flat-text change to the surface.
//
// Malformed items are skipped and the rest of the batch still applies. The
// document is then marked diverged and a full document is requested from
// the transport.
func (s *Session) RemoteBatch(ops []commons.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.logger.Warnf("dropping remote batch of %d operations before load", len(ops))
		return ErrNotLoaded
	}

	d, warnings := s.applier.Apply(s.doc, ops)
	s.logger.Infof("REMOTE BATCH: %d operations, %d skipped", len(ops), len(warnings))

	var resyncErr error
	if len(warnings) > 0 && !s.diverged {
		s.diverged = true
		if s.transport != nil {
			if err := s.transport.RequestDocument(); err != nil {
				resyncErr = fmt.Errorf("request document: %w", err)
			}
		}
	}

	if err := s.emit(d); err != nil {
		return err
	}
	return resyncErr
}

func (s *Session) emit(d *delta.Delta) error {
	if s.surface == nil || d.IsNoop() {
		return nil
	}
	if err := s.surface.ApplyDelta(d); err != nil {
		s.logger.Errorf("surface rejected delta: %v", err)
		return fmt.Errorf("apply to surface: %w", err)
	}
	return nil
}

// Text returns the flat document text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Text()
}

// TextWithFormatting returns the document as a delta of formatted inserts.
func (s *Session) TextWithFormatting() *delta.Delta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return segment.Formatted(s.doc)
}

// Blocks returns copies of the document's blocks.
func (s *Session) Blocks() []block.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Blocks()
}

// Loaded reports whether a document has been loaded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Diverged reports whether a resync is pending.
func (s *Session) Diverged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diverged
}

// Snapshot serializes the document and its header.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trees.Encode(s.doc, s.header)
}

// Save writes the document to path.
func (s *Session) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trees.Save(path, s.doc, s.header)
}
