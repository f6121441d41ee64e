// Command devjwt is a local-only RS256 token issuer with a JWKS endpoint, for
// running the API against real JWT verification without an identity provider.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/tourvisto/travel-planner-api/internal/platform/auth/jwkset"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
)

func main() {
	_ = godotenv.Load()

	log, err := logging.New(logging.Config{Format: getenv("LOG_FORMAT", "console"), Level: getenv("LOG_LEVEL", "info")})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "5556")
	issuer := getenv("ISSUER", "http://devjwt:5556")
	audience := getenv("AUDIENCE", "tourvisto")
	kid := getenv("KID", "dev-kid-1")
	ttl := getenvDuration("TTL", 30*time.Minute)

	kp, err := jwkset.GenerateKeypair(kid)
	if err != nil {
		log.Fatalw("generate key", "error", err)
	}
	doc, err := jwkset.Marshal(kp)
	if err != nil {
		log.Fatalw("marshal jwks", "error", err)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	})

	// GET /token?sub=dev|alice&email=alice@example.com&name=Alice
	r.Get("/token", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sub := strings.TrimSpace(q.Get("sub"))
		if sub == "" {
			http.Error(w, "missing sub", http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		skew := -5 * time.Second
		token, err := jwkset.Sign(kp, jwkset.Token{
			Issuer:    issuer,
			Audience:  audience,
			Subject:   sub,
			Email:     strings.TrimSpace(q.Get("email")),
			Name:      strings.TrimSpace(q.Get("name")),
			Picture:   strings.TrimSpace(q.Get("picture")),
			IssuedAt:  now,
			ExpiresIn: ttl,
			NotBefore: &skew,
		})
		if err != nil {
			log.Errorw("mint token", "sub", sub, "error", err)
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": token,
			"sub":   sub,
			"iss":   issuer,
			"aud":   audience,
			"exp":   now.Add(ttl).Unix(),
		})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Infow("devjwt listening", "addr", srv.Addr, "iss", issuer, "aud", audience, "kid", kid, "ttl", ttl)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalw("devjwt stopped", "error", err)
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
