// Package cli is an interactive terminal host for the checker, useful for
// trying lexicons and debugging incremental passes.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/wordcheck/internal/logger"
	"github.com/bastiangx/wordcheck/pkg/checker"
	"github.com/bastiangx/wordcheck/pkg/config"
	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/charmbracelet/log"
)

const helpText = `Each line you type is appended to the document and checked.
Commands:
  :show             print the highlighted document and the side list
  :undo             drop the last line
  :clear            empty the document
  :reset            forget all results and rescan
  :strict on|off    switch case sensitive matching
  :suggest <word>   list known words close to <word>
  :explain <text>   explain the words and phrases of <text>
  :stats            pass counters
  :help             this text`

// InputHandler reads lines from the user and keeps them as a document. It is
// the DocumentHost of its own engine.
type InputHandler struct {
	engine       *checker.Engine
	lex          lexicon.Lexicon
	suggest      lexicon.Suggester
	explain      lexicon.Explainer
	render       *Renderer
	in           io.Reader
	out          io.Writer
	log          *log.Logger
	lines        []string
	ranges       map[checker.Tag][]checker.Range
	sidebar      []checker.SidebarItem
	suggestLimit int
	requestCount int
	quiet        bool
}

// NewInputHandler creates a handler reading commands from in and writing
// reports to out.
func NewInputHandler(lex lexicon.Lexicon, cfg *config.Config, in io.Reader, out io.Writer) *InputHandler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	h := &InputHandler{
		lex:          lex,
		render:       NewRenderer(out, cfg.CLI.Color, cfg.CLI.ShowReasons),
		in:           in,
		out:          out,
		log:          logger.Default("cli"),
		ranges:       make(map[checker.Tag][]checker.Range),
		suggestLimit: cfg.Lexicon.SuggestLimit,
	}
	if sg, ok := lex.(lexicon.Suggester); ok {
		h.suggest = sg
	}
	if ex, ok := lex.(lexicon.Explainer); ok {
		h.explain = ex
	}
	h.engine = checker.New(lex, h,
		checker.WithSmallDocThreshold(cfg.Checker.SmallDocThreshold),
		checker.WithResync(cfg.Checker.ResyncIncremental),
	)
	return h
}

// SetSuggester overrides where :suggest looks.
func (h *InputHandler) SetSuggester(sg lexicon.Suggester) {
	h.suggest = sg
}

func (h *InputHandler) CurrentText() string {
	return strings.Join(h.lines, "\n")
}

func (h *InputHandler) ApplyRanges(tag checker.Tag, ranges []checker.Range) {
	h.ranges[tag] = ranges
}

func (h *InputHandler) ApplySidebarOps(ops []checker.Op) {
	h.sidebar = checker.ApplyOps(h.sidebar, ops)
	h.log.Debugf("Applied %d sidebar ops", len(ops))
	if !h.quiet {
		fmt.Fprintln(h.out, h.render.Ops(ops))
	}
}

func (h *InputHandler) SidebarView() []checker.SidebarItem {
	return h.sidebar
}

// Start begins the interface loop. It returns nil when the input ends.
func (h *InputHandler) Start() error {
	log.Print("WordCheck CLI")
	log.Print("type a line and press Enter to check it, :help for commands (Ctrl+C to exit):")

	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == ":quit" || line == ":q" {
			return nil
		}
		h.handleInput(line)
	}
}

// handleInput runs a command or appends line to the document and checks it.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	if !strings.HasPrefix(cmd, ":") {
		h.lines = append(h.lines, line)
		h.analyze()
		return
	}
	arg = strings.TrimSpace(arg)

	switch cmd {
	case ":show":
		h.show()
	case ":undo":
		if len(h.lines) == 0 {
			h.log.Warn("Nothing to undo")
			return
		}
		h.lines = h.lines[:len(h.lines)-1]
		h.analyze()
	case ":clear":
		h.lines = nil
		h.analyze()
	case ":reset":
		h.engine.Reset()
		h.analyze()
	case ":strict":
		h.setStrict(arg)
	case ":suggest":
		h.handleSuggest(arg)
	case ":explain":
		h.handleExplain(arg)
	case ":stats":
		st := h.engine.Stats()
		fmt.Fprintf(h.out, "full=%d incremental=%d fallback=%d noop=%d cleared=%d requests=%d\n",
			st.Full, st.Incremental, st.Fallback, st.NoOp, st.Cleared, h.requestCount)
	case ":help":
		fmt.Fprintln(h.out, helpText)
	default:
		h.log.Warnf("Unknown command: %s (try :help)", cmd)
	}
}

func (h *InputHandler) analyze() {
	start := time.Now()
	before := h.engine.Stats()
	unknown, err := h.engine.Analyze()
	if err != nil {
		h.log.Errorf("Analysis failed: %v", err)
		return
	}
	after := h.engine.Stats()
	h.log.Debugf("Took [ %v ] for %d lines", time.Since(start), len(h.lines))
	fmt.Fprintln(h.out, h.render.Summary(unknown, len(h.sidebar), decisionOf(before, after)))
}

func decisionOf(before, after checker.Stats) string {
	if after.Cleared > before.Cleared {
		return "cleared"
	}
	return after.Last.String()
}

func (h *InputHandler) show() {
	fmt.Fprintln(h.out, h.render.Highlight(h.CurrentText(), h.ranges[checker.Unknown], h.ranges[checker.LowStat]))
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, h.render.Sidebar(h.sidebar))
}

func (h *InputHandler) setStrict(arg string) {
	var strict bool
	switch arg {
	case "on", "true":
		strict = true
	case "off", "false":
	default:
		h.log.Errorf("Usage: :strict on|off")
		return
	}
	switcher, ok := h.lex.(lexicon.CaseSwitcher)
	if !ok {
		h.log.Errorf("This lexicon cannot switch case mode")
		return
	}
	mode := lexicon.ModeFromStrict(strict)
	switcher.SetCaseMode(mode)
	if sg, ok := h.suggest.(lexicon.CaseSwitcher); ok && any(h.suggest) != any(h.lex) {
		sg.SetCaseMode(mode)
	}
	fmt.Fprintf(h.out, "case mode: %s\n", mode)
	h.analyze()
}

func (h *InputHandler) handleSuggest(word string) {
	if h.suggest == nil {
		h.log.Errorf("Suggestions are not available for this lexicon")
		return
	}
	if word == "" {
		h.log.Errorf("Usage: :suggest <word>")
		return
	}
	found := h.suggest.Suggest(word, h.suggestLimit)
	if len(found) == 0 {
		h.log.Warnf("No suggestions found for '%s'", word)
		return
	}
	for i, s := range found {
		fmt.Fprintf(h.out, "%2d. %-24s (distance %d, count %d)\n", i+1, s.Word, s.Distance, s.Count)
	}
}

func (h *InputHandler) handleExplain(text string) {
	if h.explain == nil {
		h.log.Errorf("Explanations are not available for this lexicon")
		return
	}
	if text == "" {
		h.log.Errorf("Usage: :explain <text>")
		return
	}
	found, err := lexicon.ExplainText(h.explain, h.suggest, text)
	if err != nil {
		h.log.Errorf("Explain failed: %v", err)
		return
	}
	fmt.Fprintln(h.out, h.render.Explanations(found))
}

// Check analyzes text once and writes the highlighted document and the side
// list to out. It returns the number of unknown occurrences.
func Check(lex lexicon.Lexicon, cfg *config.Config, text string, out io.Writer) (int, error) {
	h := NewInputHandler(lex, cfg, strings.NewReader(""), out)
	h.quiet = true
	h.lines = strings.Split(text, "\n")
	before := h.engine.Stats()
	unknown, err := h.engine.Analyze()
	if err != nil {
		return 0, err
	}
	h.show()
	fmt.Fprintln(out, h.render.Summary(unknown, len(h.sidebar), decisionOf(before, h.engine.Stats())))
	return unknown, nil
}
