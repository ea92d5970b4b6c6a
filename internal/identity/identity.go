// Package identity resolves the caller of a request from its bearer
// credential.
package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/reelreviews/pkg/logger"
)

// Identity is the resolved caller of one request. The zero value is anonymous.
type Identity struct {
	AccountID string
	Name      string
	Email     string
}

// Authenticated reports whether the identity carries an account.
func (i Identity) Authenticated() bool {
	return i.AccountID != ""
}

// Verifier turns a credential into an identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or an anonymous one.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// Resolve returns middleware that attaches an Identity to every request.
// A missing or unverifiable credential yields an anonymous identity; it is
// never an error response. Operations that need an account reject anonymous
// callers themselves.
func Resolve(verifier Verifier, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var id Identity

			if token := BearerToken(r.Header.Get("Authorization")); token != "" {
				verified, err := verifier.Verify(token)
				if err != nil {
					logger.FromContextOr(ctx, fallback).WarnContext(ctx, "credential rejected, continuing as anonymous",
						slog.String("error", err.Error()),
					)
				} else {
					id = verified
					ctx = logger.WithUserID(ctx, id.AccountID)
					ctx = logger.NewContext(ctx, logger.FromContextOr(ctx, fallback).With(slog.String("user_id", id.AccountID)))
				}
			}

			next.ServeHTTP(w, r.WithContext(NewContext(ctx, id)))
		})
	}
}

// BearerToken extracts the credential from an Authorization header value.
// "Bearer <token>" (any case) and a bare "<token>" are both accepted.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, "Bearer") {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return header
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
