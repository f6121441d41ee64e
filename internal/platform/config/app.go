package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StoragePostgres StorageBackend = "postgres"
)

type AuthMode string

const (
	AuthJWT AuthMode = "jwt"
	// AuthDev trusts the X-Debug-Subject header. Never enable in production.
	AuthDev AuthMode = "dev"
)

const (
	DefaultSavedTripsCollection = "saved_trips"
	DefaultReviewsCollection    = "trip_reviews"
)

// AppConfig is the service configuration read from the environment.
type AppConfig struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	AuthMode        AuthMode
	AdminSubjects   []string

	LogFormat string
	LogLevel  string

	Storage     StorageBackend
	DatabaseURL string

	// Collection names; empty disables the feature.
	SavedTripsCollection string
	ReviewsCollection    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TripCacheTTL  time.Duration

	GeminiAPIKey      string
	GeminiModel       string
	UnsplashAccessKey string
	StripeSecretKey   string
	StripeSuccessURL  string

	// SavedViewTTL is how long an untouched saved-trips view stays mounted.
	SavedViewTTL      time.Duration
	EvictionSchedule  string
	IdempotencyTTL    time.Duration
	IdempotencyPrune  string
	FetchConcurrency  int
	CarouselCardWidth float64
}

// LoadAppConfigFromEnv reads AppConfig. Unset variables take defaults;
// malformed values are errors.
func LoadAppConfigFromEnv() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:             envOr("HTTP_ADDR", ":8080"),
		AuthMode:             AuthMode(strings.ToLower(envOr("AUTH_MODE", string(AuthJWT)))),
		AdminSubjects:        splitList(os.Getenv("ADMIN_SUBJECTS")),
		LogFormat:            envOr("LOG_FORMAT", "json"),
		LogLevel:             envOr("LOG_LEVEL", "info"),
		Storage:              StorageBackend(strings.ToLower(envOr("STORAGE_BACKEND", string(StorageMemory)))),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SavedTripsCollection: collection("SAVED_TRIPS_COLLECTION", DefaultSavedTripsCollection),
		ReviewsCollection:    collection("REVIEWS_COLLECTION", DefaultReviewsCollection),
		RedisAddr:            strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		GeminiAPIKey:         strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:          strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		UnsplashAccessKey:    strings.TrimSpace(os.Getenv("UNSPLASH_ACCESS_KEY")),
		StripeSecretKey:      strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		StripeSuccessURL:     strings.TrimSpace(os.Getenv("STRIPE_SUCCESS_URL")),
		EvictionSchedule:     envOr("SAVED_VIEW_EVICTION_SCHEDULE", "@every 5m"),
		IdempotencyPrune:     envOr("IDEMPOTENCY_PRUNE_SCHEDULE", "@hourly"),
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return AppConfig{}, err
	}
	if cfg.TripCacheTTL, err = durationEnv("TRIP_CACHE_TTL", 24*time.Hour); err != nil {
		return AppConfig{}, err
	}
	if cfg.SavedViewTTL, err = durationEnv("SAVED_VIEW_TTL", 30*time.Minute); err != nil {
		return AppConfig{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return AppConfig{}, err
	}
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return AppConfig{}, err
	}
	if cfg.FetchConcurrency, err = intEnv("SAVED_FETCH_CONCURRENCY", 8); err != nil {
		return AppConfig{}, err
	}
	if v := strings.TrimSpace(os.Getenv("CAROUSEL_CARD_WIDTH")); v != "" {
		w, perr := strconv.ParseFloat(v, 64)
		if perr != nil || w < 0 {
			return AppConfig{}, fmt.Errorf("CAROUSEL_CARD_WIDTH must be a non-negative number: %q", v)
		}
		cfg.CarouselCardWidth = w
	} else {
		cfg.CarouselCardWidth = 300
	}

	return cfg, cfg.validate()
}

func (c AppConfig) validate() error {
	switch c.AuthMode {
	case AuthJWT, AuthDev:
	default:
		return fmt.Errorf("AUTH_MODE must be jwt or dev, got %q", c.AuthMode)
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", c.Storage)
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"SAVED_VIEW_EVICTION_SCHEDULE": c.EvictionSchedule,
		"IDEMPOTENCY_PRUNE_SCHEDULE":   c.IdempotencyPrune,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: invalid cron spec %q: %w", name, spec, err)
		}
	}
	if c.SavedViewTTL <= 0 {
		return fmt.Errorf("SAVED_VIEW_TTL must be positive")
	}
	return nil
}

// collection returns the env value, the default when unset, and "" when the
// variable is set to "-" to disable the feature.
func collection(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	if v = strings.TrimSpace(v); v == "-" {
		return ""
	}
	return v
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30s): %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
