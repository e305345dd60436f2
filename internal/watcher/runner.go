package watcher

import (
	"context"
	"slices"
	"unicode/utf8"

	"github.com/bastiangx/wordcheck/internal/logger"
	"github.com/bastiangx/wordcheck/internal/utils"
	"github.com/bastiangx/wordcheck/pkg/checker"
	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/charmbracelet/log"
)

// Result is the outcome of one analysis of the watched document. Ranges holds
// only the tags whose ranges changed.
type Result struct {
	Trigger Event
	Unknown int
	Ranges  map[checker.Tag][]checker.Range
	Ops     []checker.Op
	Sidebar []checker.SidebarItem
	Err     error
}

// ReloadFunc refreshes the lexicon after its file changed.
type ReloadFunc func(ctx context.Context) error

// Runner funnels watcher notifications into a single analysis goroutine.
type Runner struct {
	watcher *Watcher
	engine  *checker.Engine
	host    *fileHost
	reload  ReloadFunc
	log     *log.Logger
}

// NewRunner creates a runner for w. The runner owns w: Run starts and stops
// it. reload may be nil.
func NewRunner(w *Watcher, lex lexicon.Lexicon, reload ReloadFunc, opts ...checker.Option) *Runner {
	host := newFileHost(w.docPath)
	return &Runner{
		watcher: w,
		engine:  checker.New(lex, host, opts...),
		host:    host,
		reload:  reload,
		log:     logger.New("watcher"),
	}
}

// Engine returns the engine behind the runner.
func (r *Runner) Engine() *checker.Engine {
	return r.engine
}

// Run analyzes the document once, then again after every change, until ctx is
// done. report is called from Run's goroutine.
func (r *Runner) Run(ctx context.Context, report func(Result)) error {
	events, err := r.watcher.Start()
	if err != nil {
		return err
	}
	defer func() {
		if err := r.watcher.Stop(); err != nil {
			r.log.Warn("Stopping watcher", "err", err)
		}
	}()

	report(r.analyze(DocumentChanged))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev == LexiconChanged && r.reload != nil {
				if err := r.reload(ctx); err != nil {
					r.log.Warn("Reloading lexicon failed", "err", err)
					report(Result{Trigger: ev, Err: err})
					continue
				}
				r.log.Debug("Lexicon reloaded")
			}
			report(r.analyze(ev))
		}
	}
}

func (r *Runner) analyze(trigger Event) Result {
	if err := r.host.load(); err != nil {
		return Result{Trigger: trigger, Err: err}
	}
	r.watcher.SetDocumentSize(utf8.RuneCountInString(r.host.text))
	n, err := r.engine.Analyze()
	ranges, ops := r.host.drain()
	if err != nil {
		r.log.Warn("Analysis failed", "err", err)
	}
	return Result{
		Trigger: trigger,
		Unknown: n,
		Ranges:  ranges,
		Ops:     ops,
		Sidebar: slices.Clone(r.host.sidebar),
		Err:     err,
	}
}

// fileHost serves the document from disk and keeps its own sidebar by
// applying the engine's ops.
type fileHost struct {
	path    string
	text    string
	ranges  map[checker.Tag][]checker.Range
	ops     []checker.Op
	sidebar []checker.SidebarItem
}

func newFileHost(path string) *fileHost {
	return &fileHost{path: path, ranges: make(map[checker.Tag][]checker.Range)}
}

// load reads the document. A missing file reads as empty.
func (h *fileHost) load() error {
	text, err := utils.ReadText(h.path)
	if err != nil {
		return err
	}
	h.text = text
	return nil
}

func (h *fileHost) CurrentText() string {
	return h.text
}

func (h *fileHost) ApplyRanges(tag checker.Tag, ranges []checker.Range) {
	h.ranges[tag] = ranges
}

func (h *fileHost) ApplySidebarOps(ops []checker.Op) {
	h.sidebar = checker.ApplyOps(h.sidebar, ops)
	h.ops = append(h.ops, ops...)
}

func (h *fileHost) SidebarView() []checker.SidebarItem {
	return h.sidebar
}

func (h *fileHost) drain() (map[checker.Tag][]checker.Range, []checker.Op) {
	ranges, ops := h.ranges, h.ops
	h.ranges = make(map[checker.Tag][]checker.Range)
	h.ops = nil
	return ranges, ops
}
