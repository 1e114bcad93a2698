// Package auth verifies the HS256 access tokens issued by the hosted auth
// provider. The token subject is the bookmark owner id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCookie is the cookie the hosted provider stores the access token in.
const DefaultCookie = "sb-access-token"

var ErrUnauthorized = errors.New("unauthorized")

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated owner id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID returns the owner id stored by the auth middleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

type Options struct {
	Secret   string
	Issuer   string // checked when set
	Audience string // checked when set
	Cookie   string // default DefaultCookie
	Leeway   time.Duration
}

// Verifier validates access tokens taken from a request.
type Verifier struct {
	secret []byte
	cookie string
	parser *jwt.Parser
}

func NewVerifier(opts Options) (*Verifier, error) {
	if opts.Secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if opts.Cookie == "" {
		opts.Cookie = DefaultCookie
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(opts.Leeway),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	return &Verifier{
		secret: []byte(opts.Secret),
		cookie: opts.Cookie,
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

// Verify parses token and returns its subject.
func (v *Verifier) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

// Authenticate reads the bearer token, or the provider cookie when there is
// no Authorization header, and returns the owner id.
func (v *Verifier) Authenticate(r *http.Request) (string, error) {
	token := bearer(r.Header.Get("Authorization"))
	if token == "" {
		if c, err := r.Cookie(v.cookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return "", ErrUnauthorized
	}
	return v.Verify(token)
}

func bearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Signer issues tokens the Verifier accepts. Used by `smartmark token` for
// local development and by tests.
type Signer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewSigner(opts Options) *Signer {
	return &Signer{
		secret:   []byte(opts.Secret),
		issuer:   opts.Issuer,
		audience: opts.Audience,
		now:      time.Now,
	}
}

// Sign returns a token for subject valid for ttl.
func (s *Signer) Sign(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
