package jwtverifier_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	memclock "github.com/tourvisto/travel-planner-api/internal/adapters/memory/clock"
	"github.com/tourvisto/travel-planner-api/internal/platform/auth/jwkset"
	"github.com/tourvisto/travel-planner-api/internal/platform/auth/jwtverifier"
	"github.com/tourvisto/travel-planner-api/internal/platform/config"
)

type fixture struct {
	cfg     config.JWTConfig
	clk     *memclock.ManualClock
	setKeys func(keys ...jwkset.Keypair)
	kp      jwkset.Keypair
	v       *jwtverifier.Verifier
}

func newFixture(t *testing.T, refresh time.Duration) *fixture {
	t.Helper()
	srv, setKeys := jwkset.NewRotatingServer()
	t.Cleanup(srv.Close)

	kp, err := jwkset.GenerateKeypair("kid-1")
	if err != nil {
		t.Fatalf("GenerateKeypair err=%v", err)
	}
	setKeys(kp)

	clk := memclock.NewManualClock(time.Unix(1700000000, 0).UTC())
	cfg := config.JWTConfig{
		Issuer:              "test-iss",
		Audience:            "tourvisto",
		JWKSURL:             srv.URL,
		JWKSRefreshInterval: refresh,
		HTTPTimeout:         2 * time.Second,
	}
	return &fixture{
		cfg:     cfg,
		clk:     clk,
		setKeys: setKeys,
		kp:      kp,
		v:       jwtverifier.New(cfg, jwtverifier.WithClock(clk)),
	}
}

func (f *fixture) token(t *testing.T, kp jwkset.Keypair, mod func(*jwkset.Token)) string {
	t.Helper()
	tok := jwkset.Token{
		Issuer:    f.cfg.Issuer,
		Audience:  f.cfg.Audience,
		Subject:   "sub-123",
		IssuedAt:  f.clk.Now(),
		ExpiresIn: 5 * time.Minute,
	}
	if mod != nil {
		mod(&tok)
	}
	s, err := jwkset.Sign(kp, tok)
	if err != nil {
		t.Fatalf("Sign err=%v", err)
	}
	return s
}

func TestVerifier_Verify_ValidTokenCarriesProfile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10*time.Minute)
	tok := f.token(t, f.kp, func(tk *jwkset.Token) {
		tk.Email = "ana@example.com"
		tk.Name = "Ana"
		tk.Audience = []string{"other", "tourvisto"}
	})

	c, err := f.v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify err=%v", err)
	}
	if c.Subject != "sub-123" || c.Email != "ana@example.com" || c.Name != "Ana" {
		t.Fatalf("claims=%+v", c)
	}
	if !c.ExpiresAt.Equal(f.clk.Now().Add(5 * time.Minute)) {
		t.Fatalf("ExpiresAt=%v", c.ExpiresAt)
	}
}

func TestVerifier_Verify_RejectsBadClaims(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10*time.Minute)
	future := 2 * time.Minute
	cases := map[string]func(*jwkset.Token){
		"expired":      func(tk *jwkset.Token) { tk.ExpiresIn = -time.Minute },
		"wrong issuer": func(tk *jwkset.Token) { tk.Issuer = "wrong-iss" },
		"wrong aud":    func(tk *jwkset.Token) { tk.Audience = "wrong-aud" },
		"no subject":   func(tk *jwkset.Token) { tk.Subject = "" },
		"not yet":      func(tk *jwkset.Token) { tk.NotBefore = &future },
	}
	for name, mod := range cases {
		if _, err := f.v.Verify(context.Background(), f.token(t, f.kp, mod)); !errors.Is(err, jwtverifier.ErrUnauthorized) {
			t.Fatalf("%s: err=%v, want ErrUnauthorized", name, err)
		}
	}
	if _, err := f.v.Verify(context.Background(), "a.b"); !errors.Is(err, jwtverifier.ErrUnauthorized) {
		t.Fatalf("malformed: err=%v", err)
	}
}

func TestVerifier_Verify_BadSignature(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10*time.Minute)
	impostor, err := jwkset.GenerateKeypair("kid-1")
	if err != nil {
		t.Fatalf("GenerateKeypair err=%v", err)
	}
	if _, err := f.v.Verify(context.Background(), f.token(t, impostor, nil)); err == nil {
		t.Fatalf("Verify accepted a token signed by an unknown key")
	}
}

func TestVerifier_Verify_KeyRotation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Second)
	old := f.token(t, f.kp, nil)
	if _, err := f.v.Verify(context.Background(), old); err != nil {
		t.Fatalf("Verify(old) err=%v", err)
	}

	k2, err := jwkset.GenerateKeypair("kid-2")
	if err != nil {
		t.Fatalf("GenerateKeypair err=%v", err)
	}
	f.setKeys(k2)
	f.clk.Advance(2 * time.Second)

	if _, err := f.v.Verify(context.Background(), old); err == nil {
		t.Fatalf("rotated-out kid still accepted")
	}
	c, err := f.v.Verify(context.Background(), f.token(t, k2, func(tk *jwkset.Token) { tk.Subject = "sub-456" }))
	if err != nil || c.Subject != "sub-456" {
		t.Fatalf("Verify(new) claims=%+v err=%v", c, err)
	}
}

func TestVerifier_ConcurrentFirstUseFetchesOnce(t *testing.T) {
	t.Parallel()

	kp, err := jwkset.GenerateKeypair("kid-1")
	if err != nil {
		t.Fatalf("GenerateKeypair err=%v", err)
	}
	doc, err := jwkset.Marshal(kp)
	if err != nil {
		t.Fatalf("Marshal err=%v", err)
	}
	var fetches atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		<-release
		_, _ = w.Write(doc)
	}))
	defer srv.Close()

	clk := memclock.NewManualClock(time.Unix(1700000000, 0).UTC())
	cfg := config.JWTConfig{Issuer: "iss", Audience: "aud", JWKSURL: srv.URL, HTTPTimeout: 2 * time.Second}
	v := jwtverifier.New(cfg, jwtverifier.WithClock(clk))
	tok, err := jwkset.Sign(kp, jwkset.Token{Issuer: "iss", Audience: "aud", Subject: "s", IssuedAt: clk.Now(), ExpiresIn: time.Minute})
	if err != nil {
		t.Fatalf("Sign err=%v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Verify(context.Background(), tok)
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Verify err=%v", err)
		}
	}
	if n := fetches.Load(); n != 1 {
		t.Fatalf("jwks fetched %d times, want 1", n)
	}
}
