package httpapi

import (
	"net/http"
	"testing"
	"time"

	memclock "github.com/tourvisto/travel-planner-api/internal/adapters/memory/clock"
	"github.com/tourvisto/travel-planner-api/internal/platform/auth/jwkset"
	"github.com/tourvisto/travel-planner-api/internal/platform/auth/jwtverifier"
	"github.com/tourvisto/travel-planner-api/internal/platform/config"
)

func newJWTTestAPI(t *testing.T) (*testAPI, func(tok jwkset.Token) string) {
	t.Helper()

	srv, setKeys := jwkset.NewRotatingServer()
	t.Cleanup(srv.Close)
	kp, err := jwkset.GenerateKeypair("kid-1")
	if err != nil {
		t.Fatalf("GenerateKeypair() err=%v", err)
	}
	setKeys(kp)

	cfg := config.JWTConfig{
		Issuer:              "test-iss",
		Audience:            "test-aud",
		JWKSURL:             srv.URL,
		JWKSRefreshInterval: 10 * time.Minute,
		HTTPTimeout:         2 * time.Second,
	}
	v := jwtverifier.New(cfg, jwtverifier.WithClock(memclock.NewManualClock(testNow)))

	mint := func(tok jwkset.Token) string {
		t.Helper()
		if tok.Issuer == "" {
			tok.Issuer = cfg.Issuer
		}
		if tok.Audience == nil {
			tok.Audience = cfg.Audience
		}
		if tok.IssuedAt.IsZero() {
			tok.IssuedAt = testNow
		}
		if tok.ExpiresIn == 0 {
			tok.ExpiresIn = 5 * time.Minute
		}
		s, err := jwkset.Sign(kp, tok)
		if err != nil {
			t.Fatalf("Sign() err=%v", err)
		}
		return "Bearer " + s
	}
	return newTestAPIWithAuth(t, NewJWTAuthenticator(v)), mint
}

func TestAuth_MissingHeader_401WithRequestID(t *testing.T) {
	t.Parallel()

	api, _ := newJWTTestAPI(t)
	rec := api.do(t, http.MethodGet, "/users/me", "", nil)
	requireErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")

	er := decode[ErrorResponse](t, rec)
	if rid, err := er.Error.RequestID.Get(); err != nil || rid == "" {
		t.Fatalf("expected requestId, got %q err=%v", rid, err)
	}
}

func TestAuth_MalformedHeader_401(t *testing.T) {
	t.Parallel()

	api, _ := newJWTTestAPI(t)
	requireErrorCode(t, api.do(t, http.MethodGet, "/users/me", "", nil, withHeader("Authorization", "Basic abc")),
		http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAuth_ExpiredOrWrongAudience_401(t *testing.T) {
	t.Parallel()

	api, mint := newJWTTestAPI(t)
	expired := mint(jwkset.Token{Subject: "sub-1", IssuedAt: testNow.Add(-time.Hour)})
	requireErrorCode(t, api.do(t, http.MethodGet, "/users/me", "", nil, withHeader("Authorization", expired)),
		http.StatusUnauthorized, "UNAUTHORIZED")

	wrongAud := mint(jwkset.Token{Subject: "sub-1", Audience: "someone-else"})
	requireErrorCode(t, api.do(t, http.MethodGet, "/users/me", "", nil, withHeader("Authorization", wrongAud)),
		http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAuth_ValidToken_ProvisionsFromClaims(t *testing.T) {
	t.Parallel()

	api, mint := newJWTTestAPI(t)
	authz := mint(jwkset.Token{
		Subject: "sub-1",
		Email:   "grace@example.com",
		Name:    "Grace Hopper",
		Picture: "https://img.example/grace.png",
	})

	rec := api.do(t, http.MethodPost, "/users/me", "", nil, withHeader("Authorization", authz))
	requireStatus(t, rec, http.StatusCreated)
	u := decode[UserResponse](t, rec).User
	if u.Name != "Grace Hopper" || u.Email != "grace@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
	if pic, err := u.AvatarURL.Get(); err != nil || pic != "https://img.example/grace.png" {
		t.Fatalf("avatarUrl=%q err=%v", pic, err)
	}

	requireStatus(t, api.do(t, http.MethodGet, "/users/me", "", nil, withHeader("Authorization", authz)), http.StatusOK)
}

func TestOptionalAuth_AnonymousPassesBadTokenRejected(t *testing.T) {
	t.Parallel()

	api, _ := newJWTTestAPI(t)
	requireStatus(t, api.do(t, http.MethodGet, "/trips", "", nil), http.StatusOK)
	requireErrorCode(t, api.do(t, http.MethodGet, "/trips", "", nil, withHeader("Authorization", "Bearer not-a-jwt")),
		http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestDevAuth_DefaultSubject(t *testing.T) {
	t.Parallel()

	api := newTestAPIWithAuth(t, NewDevAuthenticator("dev-user"))
	requireErrorCode(t, api.do(t, http.MethodGet, "/users/me", "", nil), http.StatusNotFound, "USER_NOT_PROVISIONED")
	api.provision(t, "dev-user", "Dev")
	requireStatus(t, api.do(t, http.MethodGet, "/users/me", "", nil), http.StatusOK)
}
