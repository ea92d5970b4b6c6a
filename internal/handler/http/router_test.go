package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/reelreviews/internal/auth"
	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/event"
	"github.com/utafrali/reelreviews/internal/repository/memory"
	"github.com/utafrali/reelreviews/internal/resolver"
	"github.com/utafrali/reelreviews/internal/service"
	apperrors "github.com/utafrali/reelreviews/pkg/errors"
	"github.com/utafrali/reelreviews/pkg/health"
	"github.com/utafrali/reelreviews/pkg/logger"
	"github.com/utafrali/reelreviews/pkg/middleware"
)

// ============================================================================
// Test fixture
// ============================================================================

type stubCatalog struct {
	err error
}

func (s *stubCatalog) ListPopular(_ context.Context, page int) (*domain.MoviePage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.MoviePage{
		Page:         page,
		Results:      []domain.Movie{{ID: 550, Title: "Fight Club"}},
		TotalPages:   10,
		TotalResults: 200,
	}, nil
}

func newTestRouter(t *testing.T, catalog resolver.Catalog) http.Handler {
	t.Helper()
	log := logger.Discard()
	accounts := memory.NewAccountRepository()
	reviews := memory.NewReviewRepository()
	events := event.NewProducer(nil, log)
	jwt := auth.NewJWTManager("router-test-secret-0123456789abcdef", time.Hour, "reelreviews")

	res := resolver.New(
		service.NewAccountService(accounts, events, bcrypt.MinCost, log),
		service.NewReviewService(reviews, accounts, events, log),
		catalog,
		jwt,
	)

	reg := prometheus.NewRegistry()
	return NewRouter(RouterConfig{
		Resolver: res,
		Verifier: jwt,
		Health:   health.NewHandler(),
		Metrics:  middleware.NewHTTPMetrics(reg, ServiceName),
		Gatherer: reg,
		CORS:     middleware.DefaultCORSConfig(),
		Logger:   log,
	})
}

type envelope struct {
	Data  map[string]json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func query(t *testing.T, h http.Handler, token, op string, vars any) (int, envelope) {
	t.Helper()
	body := map[string]any{"operation": op}
	if vars != nil {
		body["variables"] = vars
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return post(t, h, token, raw)
}

func post(t *testing.T, h http.Handler, token string, raw []byte) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr.Code, env
}

func decodeData[T any](t *testing.T, env envelope, op string) T {
	t.Helper()
	raw, ok := env.Data[op]
	require.True(t, ok, "missing data for %s", op)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type authData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type reviewData struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	MovieID string `json:"movieId"`
	Rating  int    `json:"rating"`
	User    *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

// ============================================================================
// End-to-end
// ============================================================================

func TestQuery_AdaEndToEnd(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	status, env := query(t, h, "", OpCreateUser, map[string]any{"name": "Ada", "email": "ada@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, status)
	ada := decodeData[authData](t, env, OpCreateUser)
	require.NotEmpty(t, ada.ID)

	status, env = query(t, h, "", OpLogin, map[string]any{"email": "ada@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, status)
	token := decodeData[authData](t, env, OpLogin).Token
	require.NotEmpty(t, token)

	status, env = query(t, h, token, OpCreateMovieReview, map[string]any{"userId": ada.ID, "movieId": "42", "rating": 4})
	require.Equal(t, http.StatusOK, status)
	created := decodeData[reviewData](t, env, OpCreateMovieReview)
	assert.Equal(t, "42", created.MovieID)

	status, env = query(t, h, token, OpGetAllMovieReviews, nil)
	require.Equal(t, http.StatusOK, status)
	mine := decodeData[[]reviewData](t, env, OpGetAllMovieReviews)
	require.Len(t, mine, 1)
	assert.Equal(t, "42", mine[0].MovieID)
	assert.Equal(t, 4, mine[0].Rating)
	require.NotNil(t, mine[0].User)
	assert.Equal(t, "Ada", mine[0].User.Name)

	status, env = query(t, h, token, OpDeleteMovieReview, map[string]any{"reviewId": mine[0].ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Review deleted successfully", decodeData[resolver.DeleteResult](t, env, OpDeleteMovieReview).Message)

	status, env = query(t, h, token, OpGetAllMovieReviews, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeData[[]reviewData](t, env, OpGetAllMovieReviews))
}

// ============================================================================
// Dispatch and error mapping
// ============================================================================

func TestQuery_UnknownOperation(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	status, env := query(t, h, "", "dropTables", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
}

func TestQuery_MalformedVariables(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	status, env := post(t, h, "", []byte(`{"operation":"login","variables":{"email":42}}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)

	status, env = post(t, h, "", []byte(`{"operation":"login","variables":{"mail":"a@b.c"}}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)

	status, env = post(t, h, "", []byte(`{"operation":`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
}

func TestQuery_ValidationError(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	status, env := query(t, h, "", OpCreateUser, map[string]any{"name": "Ada", "email": "nope", "password": "pw123"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "email")
}

func TestQuery_MissingField(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	status, env := query(t, h, "", OpCreateUser, map[string]any{"email": "ada@x.com", "password": "pw123"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "MISSING_FIELD", env.Error.Code)
}

func TestQuery_DuplicateAccount(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})
	vars := map[string]any{"name": "Ada", "email": "ada@x.com", "password": "pw123"}

	status, _ := query(t, h, "", OpCreateUser, vars)
	require.Equal(t, http.StatusOK, status)

	status, env := query(t, h, "", OpCreateUser, vars)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_ACCOUNT", env.Error.Code)
}

func TestQuery_AuthenticatedOperationsRejectAnonymous(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	for _, op := range []string{OpGetCurrentUser, OpGetAllMovieReviews} {
		status, env := query(t, h, "", op, nil)
		assert.Equal(t, http.StatusUnauthorized, status, op)
		assert.Equal(t, "UNAUTHENTICATED", env.Error.Code, op)
	}
}

func TestQuery_InvalidTokenDegradesToAnonymous(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	status, env := query(t, h, "not-a-jwt", OpGetMovieReviewByMovieID, map[string]any{"movieId": "42"})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeData[[]reviewData](t, env, OpGetMovieReviewByMovieID))

	status, env = query(t, h, "not-a-jwt", OpGetCurrentUser, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestQuery_CurrentUser(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	_, env := query(t, h, "", OpCreateUser, map[string]any{"name": "Ada", "email": "ada@x.com", "password": "pw123"})
	ada := decodeData[authData](t, env, OpCreateUser)

	status, env := query(t, h, ada.Token, OpGetCurrentUser, nil)
	require.Equal(t, http.StatusOK, status)
	me := decodeData[authData](t, env, OpGetCurrentUser)
	assert.Equal(t, ada.ID, me.ID)
	assert.Equal(t, "ada@x.com", me.Email)
	assert.NotEmpty(t, me.Token)
}

func TestQuery_PopularMovies(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	status, env := query(t, h, "", OpGetGraphqlPopularMovies, map[string]any{"pageNumber": 2})
	require.Equal(t, http.StatusOK, status)
	page := decodeData[domain.MoviePage](t, env, OpGetGraphqlPopularMovies)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Fight Club", page.Results[0].Title)
}

func TestQuery_PopularMoviesUpstreamFailure(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{err: apperrors.UpstreamUnavailable("tmdb", nil)})

	status, env := query(t, h, "", OpGetGraphqlPopularMovies, nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", env.Error.Code)
}

func TestQuery_RejectsNonJSONContentType(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`operation=login`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

// ============================================================================
// Ambient endpoints
// ============================================================================

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	// Drive one request through the metrics middleware first.
	query(t, h, "", OpGetGraphqlPopularMovies, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newTestRouter(t, &stubCatalog{})

	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestQueryHandler_Operations(t *testing.T) {
	h := NewQueryHandler(nil, logger.Discard())
	assert.Equal(t, []string{
		OpCreateMovieReview,
		OpCreateUser,
		OpDeleteMovieReview,
		OpGetAllMovieReviews,
		OpGetCurrentUser,
		OpGetGraphqlPopularMovies,
		OpGetMovieReviewByMovieID,
		OpLogin,
	}, h.Operations())
}
