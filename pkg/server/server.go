package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/wordspell/internal/logger"
	"github.com/bastiangx/wordspell/pkg/config"
	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/bastiangx/wordspell/pkg/speller"
	"github.com/bastiangx/wordspell/pkg/tokenizer"
	"github.com/bastiangx/wordspell/pkg/userdict"
	"github.com/tidwall/gjson"
	"github.com/vmihailenco/msgpack/v5"
)

var log = logger.New("server")

// Server handles the IPC for spell checking.
type Server struct {
	speller *speller.Speller
	tok     *tokenizer.Tokenizer
	dict    userdict.Store
	config  *config.Config
	cache   *resultCache

	reader  *bufio.Reader
	writer  io.Writer
	msgpack bool
	enc     *msgpack.Encoder
}

// NewServer creates a server on stdin/stdout. dict may be nil, which
// disables learn and forget.
func NewServer(sp *speller.Speller, dict userdict.Store, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		speller: sp,
		tok:     tokenizer.New(),
		dict:    dict,
		config:  cfg,
		cache:   newResultCache(cfg.Server.CacheSize),
		reader:  bufio.NewReader(os.Stdin),
		writer:  os.Stdout,
	}
}

// SetIO replaces stdin/stdout.
func (s *Server) SetIO(r io.Reader, w io.Writer) {
	s.reader = bufio.NewReader(r)
	s.writer = w
	s.enc = nil
}

// UseMsgpack switches both directions to msgpack.
func (s *Server) UseMsgpack(on bool) { s.msgpack = on }

// Start serves requests until the input ends.
func (s *Server) Start() error {
	log.Debugf("Starting server (msgpack=%v)", s.msgpack)
	s.sendResponse(StatusResponse{Status: "ready"})

	if s.msgpack {
		return s.serveMsgpack()
	}
	return s.serveJSON()
}

func (s *Server) serveJSON() error {
	for {
		line, err := s.reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			s.handleLine(line)
		}
		if err != nil {
			if err == io.EOF {
				log.Debug("Client disconnected (EOF)")
				return nil
			}
			log.Errorf("Reading from stdin: %v", err)
			return err
		}
	}
}

func (s *Server) serveMsgpack() error {
	dec := msgpack.NewDecoder(s.reader)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("Client disconnected (EOF)")
				return nil
			}
			log.Errorf("Decoding msgpack request: %v", err)
			s.sendError("", "Invalid msgpack request", 400)
			return err
		}
		s.handleRequest(req)
	}
}

// handleLine decodes one JSON request.
func (s *Server) handleLine(line string) {
	if !gjson.Valid(line) {
		s.sendError(gjson.Get(line, "id").String(), "Invalid JSON request", 400)
		log.Debugf("Invalid JSON request: %q", line)
		return
	}
	s.handleRequest(parseJSONRequest(line))
}

func parseJSONRequest(line string) Request {
	fields := gjson.GetMany(line, "id", "command", "word", "before", "after", "limit")
	req := Request{
		ID:      fields[0].String(),
		Command: fields[1].String(),
		Limit:   int(fields[5].Int()),
	}
	optional := func(r gjson.Result) *string {
		if !r.Exists() || r.Type == gjson.Null {
			return nil
		}
		v := r.String()
		return &v
	}
	req.Word = optional(fields[2])
	req.Before = optional(fields[3])
	req.After = optional(fields[4])
	return req
}

// handleRequest routes by command.
func (s *Server) handleRequest(req Request) {
	switch req.Command {
	case "check":
		s.handleCheck(req)
	case "suggest":
		s.handleSuggest(req)
	case "segment":
		s.handleSegment(req)
	case "learn", "forget":
		s.handleUserDict(req)
	case "health":
		s.handleHealth(req)
	case "":
		s.sendError(req.ID, "Missing 'command' parameter", 400)
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown command: %s", req.Command), 400)
	}
}

func (s *Server) handleHealth(req Request) {
	if s.speller.Closed() {
		s.sendError(req.ID, "engine closed", 503)
		return
	}
	meta := s.speller.Archive().Metadata()
	size, hits := s.cache.stats()
	s.sendResponse(StatusResponse{
		ID:        req.ID,
		Status:    "ok",
		Lexicon:   s.speller.Archive().Path(),
		Locale:    meta.Locale,
		Cached:    size,
		CacheHits: hits,
	})
}

func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	if s.config.Server.TimeoutMs <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), time.Duration(s.config.Server.TimeoutMs)*time.Millisecond)
}

// learned reports whether the user dictionary holds word. Lookup failures
// are logged and count as absent.
func (s *Server) learned(ctx context.Context, word string) bool {
	if s.dict == nil {
		return false
	}
	ok, err := s.dict.Contains(ctx, word)
	if err != nil {
		log.Warnf("User dictionary lookup failed: %v", err)
		return false
	}
	return ok
}

func (s *Server) handleCheck(req Request) {
	if req.Word == nil {
		s.sendError(req.ID, "Missing 'word' parameter", 400)
		return
	}
	ctx, cancel := s.requestContext()
	defer cancel()

	start := time.Now()
	ok, err := s.speller.IsCorrect(*req.Word)
	if err != nil {
		s.sendFailure(req.ID, err)
		return
	}
	if !ok {
		ok = s.learned(ctx, *req.Word)
	}
	s.sendResponse(CheckResponse{
		ID:        req.ID,
		Word:      *req.Word,
		Correct:   ok,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleSuggest(req Request) {
	if req.Word == nil {
		s.sendError(req.ID, "Missing 'word' parameter", 400)
		return
	}
	word := *req.Word

	var wc *tokenizer.WordContext
	if req.Before != nil || req.After != nil {
		seg := s.tok.Segment(deref(req.Before), deref(req.After))
		wc = &seg
	}

	limit := req.Limit
	if limit < 1 || limit > s.config.Server.MaxLimit {
		limit = s.config.Server.MaxLimit
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	start := time.Now()
	found, err := s.suggest(ctx, word, wc)
	if err != nil {
		s.sendFailure(req.ID, err)
		return
	}

	if s.learned(ctx, word) && (len(found) == 0 || found[0].Value != word) {
		merged := []speller.Suggestion{{Value: word}}
		for _, sg := range found {
			if sg.Value != word {
				merged = append(merged, sg)
			}
		}
		found = merged
	}
	if len(found) > limit {
		found = found[:limit]
	}

	out := make([]Suggestion, len(found))
	for i, sg := range found {
		out[i] = Suggestion{
			Word:      sg.Value,
			Weight:    sg.Weight,
			Completed: sg.Completed.String(),
			Rank:      i + 1,
		}
	}
	s.sendResponse(SuggestResponse{
		ID:          req.ID,
		Word:        word,
		Suggestions: out,
		Count:       len(out),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

// suggest runs the speller through the result cache. Results cut short by
// the request deadline are not cached.
func (s *Server) suggest(ctx context.Context, word string, wc *tokenizer.WordContext) ([]speller.Suggestion, error) {
	if s.speller.Closed() {
		return nil, fmt.Errorf("speller: %w", errs.ErrEngineClosed)
	}
	key := cacheKey(word, wc != nil && !wc.Current.IsEmpty())
	if found, ok := s.cache.get(key); ok {
		return found, nil
	}

	list, err := s.speller.Suggest(ctx, word, wc)
	if err != nil {
		return nil, err
	}
	defer list.Close()
	found, err := list.All()
	if err != nil {
		return nil, err
	}
	if ctx.Err() == nil {
		s.cache.put(key, found)
	}
	return found, nil
}

func (s *Server) handleSegment(req Request) {
	if req.Before == nil && req.After == nil {
		s.sendError(req.ID, "Missing 'before' or 'after' parameter", 400)
		return
	}
	wc := s.tok.Segment(deref(req.Before), deref(req.After))
	s.sendResponse(SegmentResponse{
		ID:           req.ID,
		Current:      wc.Current.String(),
		Offset:       wc.Current.Offset(),
		FirstBefore:  wc.FirstBefore.String(),
		SecondBefore: wc.SecondBefore.String(),
		FirstAfter:   wc.FirstAfter.String(),
		SecondAfter:  wc.SecondAfter.String(),
	})
}

func (s *Server) handleUserDict(req Request) {
	if s.dict == nil {
		s.sendError(req.ID, "User dictionary disabled", 503)
		return
	}
	if req.Word == nil {
		s.sendError(req.ID, "Missing 'word' parameter", 400)
		return
	}
	ctx, cancel := s.requestContext()
	defer cancel()

	var err error
	if req.Command == "learn" {
		err = s.dict.Add(ctx, *req.Word)
	} else {
		err = s.dict.Remove(ctx, *req.Word)
	}
	if err != nil {
		s.sendFailure(req.ID, err)
		return
	}
	log.Debugf("User dictionary %s %q", req.Command, *req.Word)
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
}

// sendResponse writes one response in the active encoding.
func (s *Server) sendResponse(response any) {
	if s.msgpack {
		if s.enc == nil {
			s.enc = msgpack.NewEncoder(s.writer)
		}
		if err := s.enc.Encode(response); err != nil {
			log.Errorf("Encoding response: %v", err)
		}
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Errorf("Marshaling response: %v", err)
		s.sendError("", "Internal server error", 500)
		return
	}
	fmt.Fprintln(s.writer, string(data))
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}

// sendFailure maps an engine error to a status code.
func (s *Server) sendFailure(id string, err error) {
	code := 500
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		code = 400
	case errors.Is(err, errs.ErrEngineClosed),
		errors.Is(err, errs.ErrEngineUnavailable),
		errors.Is(err, errs.ErrResourceExhausted):
		code = 503
	}
	if code == 500 {
		log.Errorf("Request %s failed: %v", id, err)
	}
	s.sendError(id, err.Error(), code)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
