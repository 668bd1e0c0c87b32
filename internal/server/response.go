package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/coffersTech/nanosearch/internal/engine"
	"github.com/coffersTech/nanosearch/internal/log"
	"github.com/coffersTech/nanosearch/internal/pkg/fieldparser"
	"github.com/coffersTech/nanosearch/internal/pkg/nanoql"
)

// ErrResponse is the body of every failed request.
type ErrResponse struct {
	Error  string `json:"error"`
	Lexeme string `json:"lexeme,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf(ctx, "JSON encode error: %v", err)
	}
}

// errorResponse maps an error to a status code and body. Problems with the
// query text are the client's fault; anything else is ours.
func errorResponse(err error) (int, ErrResponse) {
	var (
		syntaxErr  *nanoql.SyntaxError
		lexicalErr *nanoql.LexicalError
		fieldErr   *fieldparser.Error
	)
	switch {
	case errors.As(err, &syntaxErr):
		return http.StatusBadRequest, ErrResponse{Error: syntaxErr.Msg, Lexeme: syntaxErr.Lexeme}
	case errors.As(err, &lexicalErr):
		return http.StatusBadRequest, ErrResponse{Error: lexicalErr.Msg, Line: lexicalErr.Line, Column: lexicalErr.Column}
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, ErrResponse{Error: fieldErr.Msg}
	case errors.Is(err, engine.ErrQueryTooLong):
		return http.StatusBadRequest, ErrResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, ErrResponse{Error: err.Error()}
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code, body := errorResponse(err)
	if code >= http.StatusInternalServerError {
		log.Errorf(ctx, "request failed: %+v", err)
	}
	writeJSON(ctx, w, code, body)
}

func badRequest(ctx context.Context, w http.ResponseWriter, msg string) {
	writeJSON(ctx, w, http.StatusBadRequest, ErrResponse{Error: msg})
}
