package session

import (
	"errors"
	"io"
	"testing"

	"github.com/burntcarrot/segpad/attr"
	"github.com/burntcarrot/segpad/block"
	"github.com/burntcarrot/segpad/commons"
	"github.com/burntcarrot/segpad/delta"
	"github.com/burntcarrot/segpad/segment"
	"github.com/burntcarrot/segpad/tree"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

// textSurface mirrors the editor text by applying every delta it receives.
type textSurface struct {
	text   string
	deltas int
}

func (s *textSurface) ApplyDelta(d *delta.Delta) error {
	text, err := d.Apply(s.text)
	if err != nil {
		return err
	}
	s.text = text
	s.deltas++
	return nil
}

// recordingTransport keeps submitted batches.
type recordingTransport struct {
	batches  [][]commons.Operation
	requests int
}

func (t *recordingTransport) Submit(ops []commons.Operation) error {
	t.batches = append(t.batches, ops)
	return nil
}

func (t *recordingTransport) RequestDocument() error {
	t.requests++
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func encode(t *testing.T, doc *block.Document) []byte {
	t.Helper()
	data, err := tree.NewService(nil, nil).Encode(doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newSession(t *testing.T, max int) (*Session, *textSurface, *recordingTransport) {
	t.Helper()
	surface, transport := &textSurface{}, &recordingTransport{}
	s, err := New(Config{MaxBlockSize: max}, nil, surface, transport, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Load(encode(t, block.NewDocument())); err != nil {
		t.Fatal(err)
	}
	return s, surface, transport
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{}, nil, nil, nil, quietLogger()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestNotLoaded(t *testing.T) {
	s, err := New(DefaultConfig(), nil, nil, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.LocalChange(delta.New().Insert("a", nil)); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("local change: expected ErrNotLoaded, got %v", err)
	}
	if err := s.RemoteBatch([]commons.Operation{commons.Delete(0)}); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("remote batch: expected ErrNotLoaded, got %v", err)
	}
}

func TestLoadPushesContentToSurface(t *testing.T) {
	s, surface, _ := newSession(t, 4)

	doc := block.NewDocument(block.New("abc", nil), block.New("de", attr.Attributes{"bold": true}))
	if err := s.Load(encode(t, doc)); err != nil {
		t.Fatal(err)
	}
	if surface.text != "abcde" || s.Text() != "abcde" {
		t.Errorf("surface %q, session %q", surface.text, s.Text())
	}

	want := []delta.Op{
		{Kind: delta.KindInsert, Text: "abc"},
		{Kind: delta.KindInsert, Text: "de", Attrs: attr.Attributes{"bold": true}},
	}
	if got := s.TextWithFormatting().Ops; !cmp.Equal(got, want) {
		t.Errorf("formatting diff: %v\n", cmp.Diff(got, want))
	}

	// A second load replaces the surface text entirely.
	if err := s.Load(encode(t, block.NewDocument(block.New("xyz", nil)))); err != nil {
		t.Fatal(err)
	}
	if surface.text != "xyz" {
		t.Errorf("surface after reload: %q", surface.text)
	}
}

func TestLocalChangesReachReplica(t *testing.T) {
	local, _, transport := newSession(t, 3)
	remote, remoteSurface, _ := newSession(t, 3)

	edits := []*delta.Delta{
		delta.New().Insert("This is a test", nil),
		delta.New().Retain(2, nil).Delete(1),
		delta.New().Retain(4, nil).Retain(3, attr.Attributes{"italic": true}),
		delta.New().Retain(12, nil).Insert("!", nil),
	}
	for _, edit := range edits {
		if err := local.LocalChange(edit); err != nil {
			t.Fatal(err)
		}
	}

	if local.Text() != "Ths is a tes!t" {
		t.Errorf("local text %q", local.Text())
	}

	for _, batch := range transport.batches {
		if err := remote.RemoteBatch(batch); err != nil {
			t.Fatal(err)
		}
	}

	if remote.Text() != local.Text() || remoteSurface.text != local.Text() {
		t.Errorf("remote %q, remote surface %q, local %q", remote.Text(), remoteSurface.text, local.Text())
	}
	if !cmp.Equal(remote.TextWithFormatting(), local.TextWithFormatting()) {
		t.Errorf("formatting diff: %v\n", cmp.Diff(remote.TextWithFormatting(), local.TextWithFormatting()))
	}
}

func TestLocalChangeOutOfRange(t *testing.T) {
	s, _, transport := newSession(t, 4)

	err := s.LocalChange(delta.New().Retain(5, nil).Insert("x", nil))
	if !errors.Is(err, block.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if len(transport.batches) != 0 {
		t.Errorf("transport received %d batches", len(transport.batches))
	}
}

func TestMalformedBatchRequestsResync(t *testing.T) {
	s, surface, transport := newSession(t, 4)
	if err := s.LocalChange(delta.New().Insert("abcdefgh", nil)); err != nil {
		t.Fatal(err)
	}
	surface.text = s.Text()

	err := s.RemoteBatch([]commons.Operation{commons.Delete(9), commons.Delete(0)})
	if err != nil {
		t.Fatal(err)
	}

	if s.Text() != "efgh" || surface.text != "efgh" {
		t.Errorf("session %q, surface %q", s.Text(), surface.text)
	}
	if !s.Diverged() || transport.requests != 1 {
		t.Errorf("diverged=%v requests=%d", s.Diverged(), transport.requests)
	}

	// Further malformed batches do not ask again while a resync is pending.
	_ = s.RemoteBatch([]commons.Operation{commons.Delete(9)})
	if transport.requests != 1 {
		t.Errorf("requests=%d", transport.requests)
	}

	if err := s.Load(encode(t, segmentedDocument("efgh"))); err != nil {
		t.Fatal(err)
	}
	if s.Diverged() {
		t.Error("load should clear the divergence")
	}
}

func segmentedDocument(text string) *block.Document {
	doc := block.NewDocument()
	tr, _ := segment.NewTranslator(DefaultMaxBlockSize, nil)
	_, _ = tr.Translate(doc, delta.New().Insert(text, nil))
	return doc
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, _, _ := newSession(t, 2)
	if err := s.LocalChange(delta.New().Insert("hello", attr.Attributes{"bold": true})); err != nil {
		t.Fatal(err)
	}

	data, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	other, _, _ := newSession(t, 2)
	if err := other.Load(data); err != nil {
		t.Fatal(err)
	}
	if len(other.Blocks()) != 3 || other.Text() != "hello" {
		t.Errorf("got %d blocks, text %q", len(other.Blocks()), other.Text())
	}
}
