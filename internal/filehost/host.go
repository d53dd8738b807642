// Package filehost treats files on disk as editor buffers.
package filehost

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/livecoder/internal/textsync"
	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

// Listener receives buffer events. core.Controller satisfies it.
type Listener interface {
	DocumentChanged(uri schema.DocumentURI)
	DocumentSaved(uri schema.DocumentURI)
	ActiveEditorChanged(uri schema.DocumentURI)
}

type document struct {
	path    string
	text    string
	version int
}

// Host is a core.Host backed by the file system. The focused file plays the
// role of the active editor.
type Host struct {
	logger pslog.Logger

	mu     sync.Mutex
	docs   map[schema.DocumentURI]*document
	active schema.DocumentURI
	cursor schema.EditorPosition
}

// New returns an empty host. A nil logger uses the default pslog logger.
func New(logger pslog.Logger) *Host {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Host{logger: logger, docs: make(map[schema.DocumentURI]*document)}
}

// URI returns the file URI for path.
func URI(path string) (schema.DocumentURI, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return schema.DocumentURI(u.String()), nil
}

// PathOf returns the file system path of a file URI.
func PathOf(uri schema.DocumentURI) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// Open starts tracking path and returns its snapshot.
func (h *Host) Open(path string) (schema.Document, error) {
	uri, err := URI(path)
	if err != nil {
		return schema.Document{}, err
	}
	abs, err := PathOf(uri)
	if err != nil {
		return schema.Document{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return schema.Document{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[uri]
	if !ok {
		doc = &document{path: abs}
		h.docs[uri] = doc
	}
	doc.text = string(data)
	doc.version++
	return h.snapshot(uri, doc), nil
}

// Focus makes uri the active editor with the cursor at the start.
func (h *Host) Focus(uri schema.DocumentURI) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.docs[uri]; !ok {
		return fmt.Errorf("%s: %w", uri, schema.ErrDocumentNotFound)
	}
	h.active = uri
	h.cursor = schema.EditorPosition{}
	return nil
}

// URIFor resolves path to the uri of a tracked document.
func (h *Host) URIFor(path string) (schema.DocumentURI, error) {
	uri, err := URI(path)
	if err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.docs[uri]; !ok {
		return "", fmt.Errorf("%s: %w", path, schema.ErrDocumentNotFound)
	}
	return uri, nil
}

// Cursor returns the last revealed cursor.
func (h *Host) Cursor() schema.EditorPosition {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

func (h *Host) snapshot(uri schema.DocumentURI, doc *document) schema.Document {
	return schema.Document{
		URI:        uri,
		LanguageID: languageID(doc.path),
		Text:       doc.text,
		Version:    doc.version,
	}
}

func languageID(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".str", ".std":
		return "strudel"
	case ".hydra":
		return "hydra"
	case ".js", ".mjs":
		return "javascript"
	default:
		return "plaintext"
	}
}

func (h *Host) Document(uri schema.DocumentURI) (schema.Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[uri]
	if !ok {
		return schema.Document{}, fmt.Errorf("%s: %w", uri, schema.ErrDocumentNotFound)
	}
	return h.snapshot(uri, doc), nil
}

func (h *Host) ActiveEditor() (schema.EditorState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[h.active]
	if !ok {
		return schema.EditorState{}, false
	}
	return schema.EditorState{Document: h.snapshot(h.active, doc), Cursor: h.cursor}, true
}

// ApplyEdit rewrites the file with rng replaced by text.
func (h *Host) ApplyEdit(_ context.Context, uri schema.DocumentURI, rng schema.EditorRange, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[uri]
	if !ok {
		return fmt.Errorf("%s: %w", uri, schema.ErrDocumentNotFound)
	}
	start := textsync.OffsetAt(doc.text, rng.Start)
	end := textsync.OffsetAt(doc.text, rng.End)
	if end < start {
		return errors.New("edit range ends before it starts")
	}
	next := doc.text[:start] + text + doc.text[end:]
	if err := writeFile(doc.path, next); err != nil {
		return err
	}
	doc.text = next
	doc.version++
	h.logger.Debug("filehost applied edit", "path", doc.path, "from", start, "to", end, "inserted", len(text))
	return nil
}

func (h *Host) RevealCursor(_ context.Context, uri schema.DocumentURI, pos schema.EditorPosition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if uri != h.active {
		return nil
	}
	h.cursor = pos
	h.logger.Debug("filehost cursor", "line", pos.Line+1, "character", pos.Character)
	return nil
}

// writeFile replaces path atomically, keeping its permissions.
func writeFile(path, text string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(name, mode); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
