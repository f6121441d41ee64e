package config

import (
	"strings"
	"testing"
	"time"
)

// Tests here use t.Setenv and therefore cannot run in parallel.

func TestLoadAppConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"STORAGE_BACKEND", "AUTH_MODE", "SAVED_TRIPS_COLLECTION", "REVIEWS_COLLECTION", "ADMIN_SUBJECTS", "SAVED_VIEW_TTL", "REDIS_DB", "CAROUSEL_CARD_WIDTH"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadAppConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadAppConfigFromEnv err=%v", err)
	}
	if cfg.Storage != StorageMemory || cfg.AuthMode != AuthJWT {
		t.Fatalf("storage=%q auth=%q", cfg.Storage, cfg.AuthMode)
	}
	if cfg.SavedTripsCollection != DefaultSavedTripsCollection || cfg.ReviewsCollection != DefaultReviewsCollection {
		t.Fatalf("collections=%q/%q", cfg.SavedTripsCollection, cfg.ReviewsCollection)
	}
	if cfg.SavedViewTTL != 30*time.Minute || cfg.CarouselCardWidth != 300 || len(cfg.AdminSubjects) != 0 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadAppConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("ADMIN_SUBJECTS", " a , ,b ")
	t.Setenv("SAVED_TRIPS_COLLECTION", "-")
	t.Setenv("REVIEWS_COLLECTION", "reviews_v2")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SAVED_VIEW_TTL", "90s")
	t.Setenv("SAVED_VIEW_EVICTION_SCHEDULE", "*/2 * * * *")

	cfg, err := LoadAppConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadAppConfigFromEnv err=%v", err)
	}
	if cfg.Storage != StoragePostgres || cfg.AuthMode != AuthDev || cfg.RedisDB != 3 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if strings.Join(cfg.AdminSubjects, "|") != "a|b" {
		t.Fatalf("AdminSubjects=%v", cfg.AdminSubjects)
	}
	if cfg.SavedTripsCollection != "" || cfg.ReviewsCollection != "reviews_v2" {
		t.Fatalf("collections=%q/%q", cfg.SavedTripsCollection, cfg.ReviewsCollection)
	}
	if cfg.SavedViewTTL != 90*time.Second || cfg.EvictionSchedule != "*/2 * * * *" {
		t.Fatalf("ttl=%v schedule=%q", cfg.SavedViewTTL, cfg.EvictionSchedule)
	}
}

func TestLoadAppConfigFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"STORAGE_BACKEND": "postgres", "DATABASE_URL": ""},
		"unknown backend":      {"STORAGE_BACKEND": "mongo"},
		"bad auth mode":        {"AUTH_MODE": "none"},
		"bad duration":         {"SAVED_VIEW_TTL": "soon"},
		"bad cron":             {"SAVED_VIEW_EVICTION_SCHEDULE": "every now and then"},
		"bad redis db":         {"REDIS_DB": "x"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"STORAGE_BACKEND", "DATABASE_URL", "AUTH_MODE", "SAVED_VIEW_TTL", "SAVED_VIEW_EVICTION_SCHEDULE", "REDIS_DB"} {
				t.Setenv(k, "")
			}
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadAppConfigFromEnv(); err == nil {
				t.Fatalf("LoadAppConfigFromEnv err=nil")
			}
		})
	}
}
