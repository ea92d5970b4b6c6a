package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/utafrali/reelreviews/internal/resolver"
	apperrors "github.com/utafrali/reelreviews/pkg/errors"
	"github.com/utafrali/reelreviews/pkg/httputil"
	"github.com/utafrali/reelreviews/pkg/logger"
)

// Operation names accepted on the query endpoint.
const (
	OpCreateUser              = "createUser"
	OpLogin                   = "login"
	OpGetCurrentUser          = "getCurrentUser"
	OpCreateMovieReview       = "createMovieReview"
	OpDeleteMovieReview       = "deleteMovieReview"
	OpGetAllMovieReviews      = "getAllMovieReviews"
	OpGetMovieReviewByMovieID = "getMovieReviewByMovieId"
	OpGetGraphqlPopularMovies = "getGraphqlPopularMovies"
)

// QueryRequest is the JSON body of POST /query.
type QueryRequest struct {
	Operation string          `json:"operation"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

type operation func(ctx context.Context, vars json.RawMessage) (any, error)

// QueryHandler dispatches named operations to the resolver.
type QueryHandler struct {
	ops    map[string]operation
	logger *slog.Logger
}

// NewQueryHandler registers every operation the resolver exposes.
func NewQueryHandler(res *resolver.Resolver, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		ops: map[string]operation{
			OpCreateUser:              withArgs(res.Register),
			OpLogin:                   withArgs(res.Login),
			OpGetCurrentUser:          withoutArgs(res.CurrentUser),
			OpCreateMovieReview:       withArgs(res.CreateReview),
			OpDeleteMovieReview:       withArgs(res.DeleteReview),
			OpGetAllMovieReviews:      withoutArgs(res.MyReviews),
			OpGetMovieReviewByMovieID: withArgs(res.ReviewsForMovie),
			OpGetGraphqlPopularMovies: withArgs(res.PopularMovies),
		},
		logger: logger,
	}
}

// Operations lists the registered operation names in sorted order.
func (h *QueryHandler) Operations() []string {
	names := make([]string, 0, len(h.ops))
	for name := range h.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Query handles POST /query. A successful result is returned under its
// operation name: {"data":{"<operation>": ...}}.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	op, ok := h.ops[req.Operation]
	if !ok {
		httputil.WriteError(w, r, apperrors.InvalidInput("unknown operation: "+req.Operation), h.logger)
		return
	}

	result, err := op(r.Context(), req.Variables)
	if err != nil {
		logger.FromContextOr(r.Context(), h.logger).DebugContext(r.Context(), "operation failed",
			slog.String("operation", req.Operation),
			slog.String("error", err.Error()),
		)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]any{req.Operation: result})
}

func withArgs[A, R any](fn func(context.Context, A) (R, error)) operation {
	return func(ctx context.Context, vars json.RawMessage) (any, error) {
		var args A
		if err := decodeVariables(vars, &args); err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}

func withoutArgs[R any](fn func(context.Context) (R, error)) operation {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return fn(ctx)
	}
}

// decodeVariables strictly decodes vars into dst. Missing or null variables
// decode as the zero value.
func decodeVariables(vars json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(vars)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid variables: " + err.Error())
	}
	return nil
}
