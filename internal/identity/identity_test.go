package identity

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reelreviews/pkg/logger"
)

type stubVerifier struct {
	identities map[string]Identity
	calls      int
}

func (v *stubVerifier) Verify(token string) (Identity, error) {
	v.calls++
	if id, ok := v.identities[token]; ok {
		return id, nil
	}
	return Identity{}, errors.New("invalid credential: signature is invalid")
}

var ada = Identity{AccountID: "a-1", Name: "Ada", Email: "ada@x.com"}

func serve(t *testing.T, v Verifier, header string, log *bytes.Buffer) (Identity, string) {
	t.Helper()
	var (
		got    Identity
		userID string
	)
	base := logger.Discard()
	if log != nil {
		base = logger.NewWithWriter("test", "debug", log)
	}
	h := Resolve(v, base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		userID = logger.UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/query", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, userID
}

func TestResolve_NoHeaderIsAnonymous(t *testing.T) {
	v := &stubVerifier{}
	got, _ := serve(t, v, "", nil)

	assert.False(t, got.Authenticated())
	assert.Zero(t, v.calls, "verifier must not run without a credential")
}

func TestResolve_BearerToken(t *testing.T) {
	v := &stubVerifier{identities: map[string]Identity{"good": ada}}
	got, userID := serve(t, v, "Bearer good", nil)

	assert.Equal(t, ada, got)
	assert.Equal(t, "a-1", userID)
	assert.Equal(t, 1, v.calls)
}

func TestResolve_SchemeIsCaseInsensitive(t *testing.T) {
	v := &stubVerifier{identities: map[string]Identity{"good": ada}}
	got, _ := serve(t, v, "bearer good", nil)
	assert.Equal(t, ada, got)
}

func TestResolve_BareToken(t *testing.T) {
	v := &stubVerifier{identities: map[string]Identity{"good": ada}}
	got, _ := serve(t, v, "good", nil)
	assert.Equal(t, ada, got)
}

func TestResolve_InvalidTokenDegradesToAnonymous(t *testing.T) {
	var buf bytes.Buffer
	v := &stubVerifier{}
	got, userID := serve(t, v, "Bearer forged", &buf)

	assert.False(t, got.Authenticated())
	assert.Empty(t, userID)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "credential rejected")
}

func TestFromContext_DefaultsToAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Identity{}, FromContext(req.Context()))
	assert.Equal(t, ada, FromContext(NewContext(req.Context(), ada)))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"   ", ""},
		{"Bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"abc", "abc"},
		{"Basic dXNlcjpwdw==", ""},
		{"Bearer ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BearerToken(tt.header), "header %q", tt.header)
	}
}

func TestIdentity_Authenticated(t *testing.T) {
	require.False(t, Identity{}.Authenticated())
	require.True(t, ada.Authenticated())
}
