package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/coffersTech/nanosearch/internal/engine"
	"github.com/coffersTech/nanosearch/internal/log"
	"github.com/coffersTech/nanosearch/internal/pkg/fieldparser"
	"github.com/coffersTech/nanosearch/internal/pkg/nanoql"
)

// CompileResult is the outcome of compiling one expression.
type CompileResult struct {
	Query string           `json:"q"`
	AST   *nanoql.NodeView `json:"ast,omitempty"`
	RPN   []string         `json:"rpn,omitempty"`
	Expr  string           `json:"expr,omitempty"` // fully parenthesized form
	Tree  string           `json:"tree,omitempty"`
	Error *ErrResponse     `json:"error,omitempty"`
}

// readBody reads a size-limited request body, decoding zstd if the client
// sent it compressed.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	if r.Method != http.MethodPost {
		return nil, http.StatusMethodNotAllowed, errors.New("Method not allowed")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.HTTP.MaxBodyBytes))
	defer r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, errors.Errorf("body exceeds %d bytes", s.cfg.HTTP.MaxBodyBytes)
		}
		return nil, http.StatusBadRequest, errors.Wrap(err, "read body")
	}

	if r.Header.Get("Content-Encoding") == "zstd" {
		body, err = s.decoder.DecodeAll(body, nil)
		if err != nil {
			return nil, http.StatusBadRequest, errors.Wrap(err, "decode zstd body")
		}
	}
	return body, http.StatusOK, nil
}

// parseBody reads and parses a JSON request body. ok is false when a
// response has already been written.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request, fn func(*fastjson.Value)) bool {
	body, code, err := s.readBody(w, r)
	if err != nil {
		writeJSON(r.Context(), w, code, ErrResponse{Error: err.Error()})
		return false
	}

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		badRequest(r.Context(), w, "Invalid JSON: "+err.Error())
		return false
	}
	fn(v)
	return true
}

func (s *Server) compileOne(r *http.Request, expr string) CompileResult {
	res := CompileResult{Query: expr}

	q, err := s.queryEngine.Compile(r.Context(), expr)
	if err != nil {
		_, body := errorResponse(err)
		res.Error = &body
		return res
	}

	rpn, err := nanoql.ToRPN(expr)
	if err == nil {
		res.RPN = make([]string, len(rpn))
		for i, tok := range rpn {
			res.RPN[i] = tok.Lexeme
		}
	}

	root := q.Root()
	res.AST = nanoql.View(root)
	res.Expr = nanoql.String(root)
	res.Tree = nanoql.Sprint(root)
	return res
}

// handleCompile compiles {"q": "..."} and returns its tree.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var expr string
	if !s.parseBody(w, r, func(v *fastjson.Value) {
		expr = string(v.GetStringBytes("q"))
	}) {
		return
	}

	res := s.compileOne(r, expr)
	if res.Error != nil {
		writeJSON(r.Context(), w, http.StatusBadRequest, res)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, res)
}

// handleCompileBatch compiles {"queries": [...]} on the worker pool.
// Results keep the request order; a failed query does not fail the batch.
func (s *Server) handleCompileBatch(w http.ResponseWriter, r *http.Request) {
	var queries []string
	if !s.parseBody(w, r, func(v *fastjson.Value) {
		for _, q := range v.GetArray("queries") {
			queries = append(queries, string(q.GetStringBytes()))
		}
	}) {
		return
	}

	results := make([]CompileResult, len(queries))
	var wg sync.WaitGroup
	for idx, expr := range queries {
		idx, expr := idx, expr
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[idx] = s.compileOne(r, expr)
		})
		if err != nil {
			wg.Done()
			results[idx] = CompileResult{Query: expr, Error: &ErrResponse{Error: err.Error()}}
		}
	}
	wg.Wait()

	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"results": results})
}

// handleField decomposes {"clause": "..."}.
func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	var clause string
	if !s.parseBody(w, r, func(v *fastjson.Value) {
		clause = string(v.GetStringBytes("clause"))
	}) {
		return
	}

	res, err := fieldparser.Parse(clause)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"field":         res.Field,
		"value":         res.Value,
		"quote":         res.Quote.String(),
		"is_range":      res.IsRange,
		"start":         res.Start,
		"end":           res.End,
		"field_dot":     res.FieldWithSeparator(),
		"double_quoted": res.DoubleQuoted(),
		"single_quoted": res.SingleQuoted(),
	})
}

// handleIngest stores one JSON document or an array of them.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var docs []engine.Document
	if !s.parseBody(w, r, func(v *fastjson.Value) {
		// Handle batch (Array) or single (Object)
		if v.Type() == fastjson.TypeArray {
			arr, _ := v.Array()
			for _, val := range arr {
				docs = append(docs, s.documentFrom(r, val))
			}
		} else {
			docs = append(docs, s.documentFrom(r, v))
		}
	}) {
		return
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, s.queryEngine.Ingest(r.Context(), doc))
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"count": len(ids), "ids": ids})
}

func (s *Server) documentFrom(r *http.Request, val *fastjson.Value) engine.Document {
	doc := engine.Document{
		ID:        string(val.GetStringBytes("id")),
		Timestamp: val.GetInt64("timestamp"),
		Level:     string(val.GetStringBytes("level")),
		Service:   string(val.GetStringBytes("service")),
		Host:      string(val.GetStringBytes("host")),
		Message:   string(val.GetStringBytes("message")),
	}
	if doc.Message == "" {
		doc.Message = string(val.GetStringBytes("msg"))
	}
	if doc.Host == "" {
		// Fallback: Use IP from connection (strip port)
		doc.Host = r.RemoteAddr
		if idx := strings.LastIndex(doc.Host, ":"); idx != -1 {
			doc.Host = doc.Host[:idx]
		}
	}

	if obj := val.GetObject("attributes"); obj != nil {
		doc.Attributes = make(map[string]string, obj.Len())
		obj.Visit(func(k []byte, v *fastjson.Value) {
			if v.Type() == fastjson.TypeString {
				doc.Attributes[string(k)] = string(v.GetStringBytes())
			} else {
				doc.Attributes[string(k)] = v.String()
			}
		})
	}
	return doc
}

func queryInt64(r *http.Request, names ...string) (int64, bool) {
	for _, name := range names {
		if s := r.URL.Query().Get(name); s != "" {
			if val, err := strconv.ParseInt(s, 10, 64); err == nil {
				return val, true
			}
		}
	}
	return 0, false
}

// handleQuery processes GET /api/search requests.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := engine.SearchRequest{Query: r.URL.Query().Get("q")}
	// Support both min_ts/max_ts and start/end aliases
	req.MinTime, _ = queryInt64(r, "min_ts", "start")
	req.MaxTime, _ = queryInt64(r, "max_ts", "end")
	if limit, ok := queryInt64(r, "limit"); ok && limit > 0 {
		req.Limit = int(limit)
	}

	res, err := s.queryEngine.Search(r.Context(), req)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, res)
}

// handleHistogram takes start/end in milliseconds and interval in seconds.
func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Defaults: last hour, one-minute buckets
	req := engine.HistogramRequest{
		Query:    r.URL.Query().Get("q"),
		End:      time.Now().UnixNano(),
		Interval: time.Minute.Nanoseconds(),
	}
	req.Start = req.End - time.Hour.Nanoseconds()

	if val, ok := queryInt64(r, "start"); ok {
		req.Start = val * int64(time.Millisecond)
	}
	if val, ok := queryInt64(r, "end"); ok {
		req.End = val * int64(time.Millisecond)
	}
	if val, ok := queryInt64(r, "interval"); ok {
		req.Interval = val * int64(time.Second)
	}
	if req.Interval <= 0 || req.End < req.Start {
		badRequest(r.Context(), w, "invalid histogram window")
		return
	}

	points, err := s.queryEngine.ComputeHistogram(r.Context(), req)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, points)
}

// handleContext returns documents around ts that match q.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ts, ok := queryInt64(r, "ts")
	if !ok {
		badRequest(r.Context(), w, "ts is required")
		return
	}
	limit, _ := queryInt64(r, "limit")

	res, err := s.queryEngine.GetContext(r.Context(), ts, r.URL.Query().Get("q"), int(limit))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, res)
}

// handleStats returns engine statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log.Debugf(r.Context(), "stats requested")
	writeJSON(r.Context(), w, http.StatusOK, s.queryEngine.GetStats())
}
