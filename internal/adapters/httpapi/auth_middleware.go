package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/auth/jwtverifier"
)

var (
	// ErrNoCredentials means the request carried no credentials at all.
	ErrNoCredentials  = errors.New("no credentials")
	errBadCredentials = errors.New("invalid credentials")
)

// Authenticator establishes the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (Principal, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (jwtverifier.Claims, error)
}

type bearerAuthenticator struct{ v TokenVerifier }

// NewJWTAuthenticator accepts Authorization: Bearer <JWT>.
func NewJWTAuthenticator(v TokenVerifier) Authenticator { return bearerAuthenticator{v: v} }

func (a bearerAuthenticator) Authenticate(r *http.Request) (Principal, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return Principal{}, ErrNoCredentials
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return Principal{}, errors.New("malformed Authorization header")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if raw == "" {
		return Principal{}, errors.New("missing bearer token")
	}
	c, err := a.v.Verify(r.Context(), raw)
	if err != nil {
		return Principal{}, errBadCredentials
	}
	return Principal{Subject: c.Subject, Email: c.Email, Name: c.Name, Picture: c.Picture}, nil
}

type devAuthenticator struct{ defaultSubject string }

// NewDevAuthenticator trusts X-Debug-Subject, falling back to defaultSubject.
// Optional X-Debug-Email and X-Debug-Name headers fill the profile.
//
// Local development only. Do NOT use this in production deployments.
func NewDevAuthenticator(defaultSubject string) Authenticator {
	return devAuthenticator{defaultSubject: strings.TrimSpace(defaultSubject)}
}

func (a devAuthenticator) Authenticate(r *http.Request) (Principal, error) {
	sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
	if sub == "" {
		sub = a.defaultSubject
	}
	if sub == "" {
		return Principal{}, ErrNoCredentials
	}
	return Principal{
		Subject: domain.SubjectID(sub),
		Email:   strings.TrimSpace(r.Header.Get("X-Debug-Email")),
		Name:    strings.TrimSpace(r.Header.Get("X-Debug-Name")),
	}, nil
}

// RequireAuth rejects requests without valid credentials.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, ErrNoCredentials) {
					msg = "missing credentials"
				} else if !errors.Is(err, errBadCredentials) {
					msg = err.Error()
				}
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", msg, nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth lets anonymous requests through but still rejects bad credentials.
func OptionalAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r)
			switch {
			case errors.Is(err, ErrNoCredentials):
				next.ServeHTTP(w, r)
			case err != nil:
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
			default:
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
			}
		})
	}
}
