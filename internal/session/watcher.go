package session

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the session when the local storage file is written by
// another process (for example the MCP server logging out) and reports
// whether the current user changed.
type Watcher struct {
	watcher  *fsnotify.Watcher
	session  *Session
	dbPath   string
	onChange func(authenticated bool)
}

// Watch starts watching the directory holding dbPath.
func Watch(s *Session, dbPath string, onChange func(authenticated bool)) (*Watcher, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory (fsnotify watches dirs for file events)
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	w := &Watcher{watcher: watcher, session: s, dbPath: absPath, onChange: onChange}
	go w.watchLoop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// SQLite in WAL mode writes to the -wal sidecar first.
			absPath, _ := filepath.Abs(event.Name)
			if !strings.HasPrefix(absPath, w.dbPath) {
				continue
			}
			changed, err := w.session.Reload()
			if err != nil {
				log.Printf("[session] watcher reload: %v", err)
				continue
			}
			if changed && w.onChange != nil {
				w.onChange(w.session.IsAuthenticated())
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[session] watcher error: %v", err)
		}
	}
}
