// Package watcher re-analyzes a document file whenever it, or the lexicon
// file it is checked against, changes on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bastiangx/wordcheck/internal/logger"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Event says which watched file changed.
type Event int

const (
	DocumentChanged Event = iota
	LexiconChanged
)

func (e Event) String() string {
	if e == LexiconChanged {
		return "lexicon"
	}
	return "document"
}

// Watcher monitors a document and an optional lexicon file and sends one
// notification per burst of writes.
type Watcher struct {
	fsWatcher      *fsnotify.Watcher
	docPath        string
	lexPath        string
	debounce       time.Duration
	largeDebounce  time.Duration
	largeThreshold int
	docChars       atomic.Int64
	onChange       chan Event
	done           chan struct{}
	log            *log.Logger
}

// Config holds watcher configuration options.
type Config struct {
	DocumentPath string
	// LexiconPath is optional.
	LexiconPath string
	Debounce    time.Duration
	// LargeDebounce applies once the document is over LargeThreshold chars.
	LargeDebounce  time.Duration
	LargeThreshold int
}

// DefaultConfig returns the watcher defaults for a document.
func DefaultConfig(docPath string) Config {
	return Config{
		DocumentPath:   docPath,
		Debounce:       100 * time.Millisecond,
		LargeDebounce:  200 * time.Millisecond,
		LargeThreshold: 10000,
	}
}

// New creates a new document watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fsWatcher:      fsw,
		docPath:        absPath(cfg.DocumentPath),
		debounce:       cfg.Debounce,
		largeDebounce:  max(cfg.LargeDebounce, cfg.Debounce),
		largeThreshold: cfg.LargeThreshold,
		onChange:       make(chan Event, 2),
		done:           make(chan struct{}),
		log:            logger.New("watcher"),
	}
	if cfg.LexiconPath != "" {
		w.lexPath = absPath(cfg.LexiconPath)
	}
	return w, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// SetDocumentSize records the current document length in characters, which
// picks the debounce delay for the next burst.
func (w *Watcher) SetDocumentSize(chars int) {
	w.docChars.Store(int64(chars))
}

// Delay is the debounce currently in effect.
func (w *Watcher) Delay() time.Duration {
	if w.largeThreshold > 0 && w.docChars.Load() > int64(w.largeThreshold) {
		return w.largeDebounce
	}
	return w.debounce
}

// Start begins watching the directories of the watched files.
// Returns a channel that receives an Event when a file changes.
func (w *Watcher) Start() (<-chan Event, error) {
	dirs := []string{filepath.Dir(w.docPath)}
	if w.lexPath != "" && filepath.Dir(w.lexPath) != dirs[0] {
		dirs = append(dirs, filepath.Dir(w.lexPath))
	}
	for _, dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}
	w.log.Debug("Watching", "document", w.docPath, "lexicon", w.lexPath)

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer  *time.Timer
		docDue bool
		lexDue bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			kind, relevant := w.classify(event)
			if !relevant {
				continue
			}
			if kind == LexiconChanged {
				lexDue = true
			} else {
				docDue = true
			}

			if timer == nil {
				timer = time.NewTimer(w.Delay())
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.Delay())
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if lexDue {
				w.notify(LexiconChanged)
				lexDue = false
			}
			if docDue {
				w.notify(DocumentChanged)
				docDue = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("Watch error", "err", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// notify blocks until the consumer takes e or the watcher stops.
func (w *Watcher) notify(e Event) {
	select {
	case w.onChange <- e:
	case <-w.done:
	}
}

// classify checks if the event should trigger a re-analysis. Editors that
// save through a rename show up as a Create of the target.
func (w *Watcher) classify(event fsnotify.Event) (Event, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return 0, false
	}
	name := absPath(event.Name)
	switch {
	case name == w.docPath:
		return DocumentChanged, true
	case w.lexPath != "" && (name == w.lexPath || name == w.lexPath+"-wal"):
		return LexiconChanged, true
	}
	return 0, false
}
