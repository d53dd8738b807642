package filehost

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"pkt.systems/livecoder/schema"
)

// Watch reports on-disk changes of tracked files to l until ctx ends. Every
// external write counts as an edit followed by a save. Parent directories are
// watched so editors that replace files by rename are seen.
func (h *Host) Watch(ctx context.Context, l Listener) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	h.mu.Lock()
	dirs := make(map[string]struct{})
	for _, doc := range h.docs {
		dirs[filepath.Dir(doc.path)] = struct{}{}
	}
	active := h.active
	h.mu.Unlock()
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	if active != "" {
		l.ActiveEditorChanged(active)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if uri, changed := h.reload(event.Name); changed {
				l.DocumentChanged(uri)
				l.DocumentSaved(uri)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Warn("filehost watch error", "err", err)
		}
	}
}

// reload re-reads path if tracked and reports whether its text changed.
func (h *Host) reload(path string) (schema.DocumentURI, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for uri, doc := range h.docs {
		if doc.path != filepath.Clean(path) {
			continue
		}
		data, err := os.ReadFile(doc.path)
		if err != nil {
			// Mid-rename; the next event carries the file.
			return "", false
		}
		if string(data) == doc.text {
			return "", false
		}
		doc.text = string(data)
		doc.version++
		h.logger.Debug("filehost reloaded", "path", doc.path, "version", doc.version)
		return uri, true
	}
	return "", false
}
