package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/reelreviews/internal/identity"
)

// ErrInvalidCredential is wrapped by every Verify failure.
var ErrInvalidCredential = errors.New("invalid credential")

// Claims is the payload of an issued credential.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 credentials.
type JWTManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTManager creates a JWT manager with the given secret, validity window
// and issuer.
func NewJWTManager(secret string, expiry time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue signs a credential asserting id.
func (m *JWTManager) Issue(id identity.Identity) (string, error) {
	if !id.Authenticated() {
		return "", errors.New("issue credential: identity has no account id")
	}

	now := m.now().UTC()
	claims := &Claims{
		UserID: id.AccountID,
		Name:   id.Name,
		Email:  id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a credential. Bad signatures, unexpected
// methods, malformed payloads and expired tokens all return an error wrapping
// ErrInvalidCredential.
func (m *JWTManager) Verify(tokenString string) (identity.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return identity.Identity{}, fmt.Errorf("%w: malformed claims", ErrInvalidCredential)
	}

	return identity.Identity{
		AccountID: claims.UserID,
		Name:      claims.Name,
		Email:     claims.Email,
	}, nil
}
