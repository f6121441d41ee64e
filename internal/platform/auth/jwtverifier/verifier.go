// Package jwtverifier verifies RS256 bearer tokens against a JWKS endpoint.
package jwtverifier

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/auth/jwkset"
	"github.com/tourvisto/travel-planner-api/internal/platform/clock"
	"github.com/tourvisto/travel-planner-api/internal/platform/config"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
)

var ErrUnauthorized = errors.New("unauthorized")

// Claims is the verified identity carried by a token. Profile fields are
// empty when the issuer does not provide them.
type Claims struct {
	Subject   domain.SubjectID
	Email     string
	Name      string
	Picture   string
	ExpiresAt time.Time
}

type Verifier struct {
	cfg    config.JWTConfig
	client *http.Client
	clock  clockport.Clock
	log    *zap.SugaredLogger

	refreshes singleflight.Group

	mu          sync.RWMutex
	keysByKID   map[string]*rsa.PublicKey
	lastRefresh time.Time
}

type Option func(*Verifier)

func WithHTTPClient(c *http.Client) Option { return func(v *Verifier) { v.client = c } }

func WithClock(c clockport.Clock) Option { return func(v *Verifier) { v.clock = c } }

func WithLogger(l *zap.SugaredLogger) Option { return func(v *Verifier) { v.log = l } }

func New(cfg config.JWTConfig, opts ...Option) *Verifier {
	v := &Verifier{cfg: cfg, keysByKID: map[string]*rsa.PublicKey{}}
	for _, o := range opts {
		o(v)
	}
	if v.client == nil {
		v.client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if v.clock == nil {
		v.clock = clock.NewSystemClock()
	}
	v.log = logging.OrNop(v.log)
	return v
}

type header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

type rawClaims struct {
	Iss     string          `json:"iss"`
	Sub     string          `json:"sub"`
	Aud     json.RawMessage `json:"aud"`
	Exp     *int64          `json:"exp"`
	Nbf     *int64          `json:"nbf"`
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	Picture string          `json:"picture"`
}

// Verify checks the RS256 signature against the JWKS keys, then iss, aud, exp
// and nbf. Every failure is reported as ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (Claims, error) {
	h, c, signingInput, sig, err := parse(token)
	if err != nil || h.Alg != "RS256" || h.Kid == "" {
		return Claims{}, ErrUnauthorized
	}
	if err := v.maybeRefresh(ctx, h.Kid); err != nil {
		v.log.Warnw("jwks refresh failed", "kid", h.Kid, "error", err)
		return Claims{}, ErrUnauthorized
	}

	pub := v.key(h.Kid)
	if pub == nil {
		return Claims{}, ErrUnauthorized
	}
	sum := sha256.Sum256([]byte(signingInput))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, sum[:], sig); err != nil {
		return Claims{}, ErrUnauthorized
	}
	if err := v.validate(c); err != nil {
		v.log.Debugw("token rejected", "reason", err.Error())
		return Claims{}, ErrUnauthorized
	}
	return Claims{
		Subject:   domain.SubjectID(c.Sub),
		Email:     c.Email,
		Name:      c.Name,
		Picture:   c.Picture,
		ExpiresAt: time.Unix(*c.Exp, 0).UTC(),
	}, nil
}

func (v *Verifier) validate(c rawClaims) error {
	now := v.clock.Now()
	skew := v.cfg.ClockSkew

	switch {
	case c.Sub == "":
		return errors.New("missing sub")
	case c.Iss != v.cfg.Issuer:
		return errors.New("iss mismatch")
	case !audMatches(c.Aud, v.cfg.Audience):
		return errors.New("aud mismatch")
	case c.Exp == nil:
		return errors.New("missing exp")
	case now.After(time.Unix(*c.Exp, 0).Add(skew)):
		return errors.New("token expired")
	case c.Nbf != nil && now.Before(time.Unix(*c.Nbf, 0).Add(-skew)):
		return errors.New("token not yet valid")
	}
	return nil
}

func (v *Verifier) key(kid string) *rsa.PublicKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keysByKID[kid]
}

// maybeRefresh reloads the key set when the refresh interval elapsed, or when
// kid is unknown and the minimum refresh interval allows it. Concurrent
// callers share one fetch.
func (v *Verifier) maybeRefresh(ctx context.Context, kid string) error {
	now := v.clock.Now()

	v.mu.RLock()
	last := v.lastRefresh
	unknown := v.keysByKID[kid] == nil
	v.mu.RUnlock()

	due := !last.IsZero() && v.cfg.JWKSRefreshInterval > 0 && now.Sub(last) >= v.cfg.JWKSRefreshInterval
	allowed := last.IsZero() || v.cfg.JWKSMinRefreshInterval <= 0 || now.Sub(last) >= v.cfg.JWKSMinRefreshInterval
	if !due && !(unknown && allowed) {
		return nil
	}

	ch := v.refreshes.DoChan("jwks", func() (any, error) {
		return nil, v.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("jwks fetch failed: status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	keys, err := jwkset.Parse(body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.keysByKID = keys
	v.lastRefresh = v.clock.Now()
	v.mu.Unlock()
	v.log.Debugw("jwks refreshed", "keys", len(keys))
	return nil
}

func parse(token string) (header, rawClaims, string, []byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return header{}, rawClaims{}, "", nil, errors.New("bad jwt parts")
	}
	var (
		h header
		c rawClaims
	)
	if err := decodeSegment(parts[0], &h); err != nil {
		return header{}, rawClaims{}, "", nil, err
	}
	if err := decodeSegment(parts[1], &c); err != nil {
		return header{}, rawClaims{}, "", nil, err
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return header{}, rawClaims{}, "", nil, err
	}
	return h, c, parts[0] + "." + parts[1], sig, nil
}

func decodeSegment(seg string, into any) error {
	b, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, into)
}

// audMatches accepts aud as a string or an array of strings.
func audMatches(raw json.RawMessage, expected string) bool {
	if len(raw) == 0 {
		return false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == expected
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		for _, a := range arr {
			if a == expected {
				return true
			}
		}
	}
	return false
}
