package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/wordcheck/internal/logger"
	"github.com/bastiangx/wordcheck/internal/utils"
	"github.com/bastiangx/wordcheck/pkg/checker"
	"github.com/bastiangx/wordcheck/pkg/config"
	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// maxSuggestKey bounds the word accepted by the suggest action.
const maxSuggestKey = 60

// Server handles the IPC for one document session
type Server struct {
	engine   *checker.Engine
	session  *session
	lex      lexicon.Lexicon
	suggest  lexicon.Suggester
	explain  lexicon.Explainer
	config   *config.Config
	decoder  *msgpack.Decoder
	writer   *bufio.Writer
	encoder  *msgpack.Encoder
	log      *log.Logger
	requests int
}

// Option configures a Server.
type Option func(*Server)

// WithIO replaces stdin and stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(s *Server) {
		s.decoder = msgpack.NewDecoder(bufio.NewReader(r))
		s.writer = bufio.NewWriter(w)
	}
}

// WithSuggester sets where suggestions come from. By default the lexicon is
// used if it can suggest.
func WithSuggester(sg lexicon.Suggester) Option {
	return func(s *Server) { s.suggest = sg }
}

// WithExplainer sets where explanations come from. By default the lexicon is
// used if it stores them.
func WithExplainer(ex lexicon.Explainer) Option {
	return func(s *Server) { s.explain = ex }
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(lex lexicon.Lexicon, cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		session: newSession(),
		lex:     lex,
		config:  cfg,
		log:     logger.New("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.decoder == nil {
		WithIO(os.Stdin, os.Stdout)(s)
	}
	s.encoder = msgpack.NewEncoder(s.writer)
	if s.suggest == nil {
		if sg, ok := lex.(lexicon.Suggester); ok {
			s.suggest = sg
		}
	}
	if s.explain == nil {
		if ex, ok := lex.(lexicon.Explainer); ok {
			s.explain = ex
		}
	}
	s.engine = checker.New(lex, s.session,
		checker.WithSmallDocThreshold(cfg.Checker.SmallDocThreshold),
		checker.WithResync(cfg.Checker.ResyncIncremental),
		checker.WithLogger(logger.New("checker")),
	)
	return s
}

// Start serves requests until the input stream ends.
func (s *Server) Start() error {
	s.log.Debug("Starting server")
	s.sendResponse(StatusResponse{Status: "ready", Mode: s.lex.CaseMode().String()})

	for {
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("Input closed, stopping server", "requests", s.requests)
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return fmt.Errorf("reading request: %w", err)
		}
		s.requests++

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.log.Errorf("Unmarshaling request: %v", err)
			s.sendError("", "Invalid msgpack request", 400)
			continue
		}
		s.handleRequest(req)
	}
}

func (s *Server) handleRequest(req Request) {
	switch req.Action {
	case "analyze":
		s.handleAnalyze(req)
	case "reset":
		s.engine.Reset()
		s.session.drain()
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	case "set_case":
		s.handleSetCase(req)
	case "suggest":
		s.handleSuggest(req)
	case "explain":
		s.handleExplain(req)
	case "info":
		s.handleInfo(req)
	case "stats":
		st := s.engine.Stats()
		s.sendResponse(StatsResponse{
			ID:          req.ID,
			Full:        st.Full,
			Incremental: st.Incremental,
			Fallback:    st.Fallback,
			NoOp:        st.NoOp,
			Cleared:     st.Cleared,
			Requests:    s.requests,
		})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown action: %q", req.Action), 400)
	}
}

func (s *Server) handleAnalyze(req Request) {
	if req.Text != nil {
		if len(*req.Text) > s.config.Server.MaxTextSize {
			s.sendError(req.ID, fmt.Sprintf("Text exceeds maximum size of %d bytes", s.config.Server.MaxTextSize), 400)
			return
		}
		s.session.text = *req.Text
		s.log.Debug("Analyze", "id", req.ID, "text", utils.Excerpt(*req.Text, 40))
	}

	start := time.Now()
	before := s.engine.Stats()
	count, err := s.engine.Analyze()
	elapsed := time.Since(start)
	ranges, ops := s.session.drain()
	if err != nil {
		code := 500
		if errors.Is(err, checker.ErrLexiconUnavailable) {
			code = 503
		}
		s.log.Warn("Analysis failed", "id", req.ID, "err", err)
		s.sendError(req.ID, err.Error(), code)
		return
	}

	after := s.engine.Stats()
	decision := after.Last.String()
	if after.Cleared > before.Cleared {
		decision = "cleared"
	}
	s.sendResponse(AnalyzeResponse{
		ID:           req.ID,
		UnknownCount: count,
		Ranges:       ranges,
		Ops:          ops,
		Decision:     decision,
		TimeTaken:    elapsed.Microseconds(),
	})
}

func (s *Server) handleSetCase(req Request) {
	if req.Strict == nil {
		s.sendError(req.ID, "Missing 'strict' parameter", 400)
		return
	}
	mode := lexicon.ModeFromStrict(*req.Strict)
	switcher, ok := s.lex.(lexicon.CaseSwitcher)
	if !ok {
		s.sendError(req.ID, "Lexicon cannot switch case mode", 400)
		return
	}
	switcher.SetCaseMode(mode)
	if sg, ok := s.suggest.(lexicon.CaseSwitcher); ok && any(s.suggest) != any(s.lex) {
		sg.SetCaseMode(mode)
	}
	if err := s.config.Update("", req.Strict, nil, nil); err != nil {
		s.log.Warnf("Updating config: %v", err)
	}
	s.log.Debug("Case mode switched", "mode", mode)
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Mode: mode.String()})
}

func (s *Server) handleSuggest(req Request) {
	if s.suggest == nil {
		s.sendError(req.ID, "Suggestions are not available for this lexicon", 400)
		return
	}
	if req.Key == "" {
		s.sendError(req.ID, "Missing 'key' parameter", 400)
		return
	}
	if len(req.Key) > maxSuggestKey {
		s.sendError(req.ID, fmt.Sprintf("Key exceeds maximum length of %d bytes", maxSuggestKey), 400)
		return
	}
	limit := req.Limit
	if limit < 1 {
		limit = s.config.Lexicon.SuggestLimit
	}

	start := time.Now()
	found := s.suggest.Suggest(req.Key, limit)
	elapsed := time.Since(start)

	out := make([]WireSuggestion, 0, len(found))
	for _, sg := range found {
		out = append(out, WireSuggestion{Word: sg.Word, Count: sg.Count, Distance: sg.Distance})
	}
	s.sendResponse(SuggestResponse{
		ID:          req.ID,
		Suggestions: out,
		Count:       len(out),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleExplain(req Request) {
	if s.explain == nil {
		s.sendError(req.ID, "Explanations are not available for this lexicon", 400)
		return
	}
	if req.Text == nil || *req.Text == "" {
		s.sendError(req.ID, "Missing 'text' parameter", 400)
		return
	}
	if len(*req.Text) > s.config.Server.MaxTextSize {
		s.sendError(req.ID, fmt.Sprintf("Text exceeds maximum size of %d bytes", s.config.Server.MaxTextSize), 400)
		return
	}

	start := time.Now()
	found, err := lexicon.ExplainText(s.explain, s.suggest, *req.Text)
	elapsed := time.Since(start)
	if err != nil {
		code := 500
		if errors.Is(err, lexicon.ErrUnavailable) {
			code = 503
		}
		s.log.Warn("Explain failed", "id", req.ID, "err", err)
		s.sendError(req.ID, err.Error(), code)
		return
	}

	out := make([]WireExplanation, 0, len(found))
	for _, e := range found {
		out = append(out, WireExplanation{
			Text:               e.Text,
			Explanation:        e.Explanation,
			Found:              e.Found,
			Similar:            e.Similar,
			SimilarExplanation: e.SimilarExplanation,
		})
	}
	s.sendResponse(ExplainResponse{
		ID:           req.ID,
		Explanations: out,
		Count:        len(out),
		TimeTaken:    elapsed.Microseconds(),
	})
}

func (s *Server) handleInfo(req Request) {
	resp := InfoResponse{
		ID:      req.ID,
		Mode:    s.lex.CaseMode().String(),
		Entries: len(s.engine.Snapshot()),
		Chars:   len([]rune(s.session.text)),
	}
	if st, ok := s.lex.(interface{ Stats() map[string]int }); ok {
		resp.Lexicon = st.Stats()
	}
	s.sendResponse(resp)
}

// sendResponse encodes one msgpack response and flushes it.
func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		s.log.Errorf("Marshaling response: %v", err)
		s.sendError("", "Internal server error", 500)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	resp := ErrorResponse{ID: id, Error: message, Code: code}
	if err := s.encoder.Encode(resp); err != nil {
		s.log.Errorf("Marshaling error response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.log.Errorf("Writing error response: %v", err)
	}
}
