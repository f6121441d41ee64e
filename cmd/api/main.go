package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	geminiitinerary "github.com/tourvisto/travel-planner-api/internal/adapters/gemini/itinerary"
	"github.com/tourvisto/travel-planner-api/internal/adapters/httpapi"
	memidempotency "github.com/tourvisto/travel-planner-api/internal/adapters/memory/idempotency"
	memreviewrepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/reviewrepo"
	memsavedrepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/savedrepo"
	memtripcache "github.com/tourvisto/travel-planner-api/internal/adapters/memory/tripcache"
	memtriprepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/userrepo"
	postgres "github.com/tourvisto/travel-planner-api/internal/adapters/postgres"
	pgidempotency "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/idempotency"
	pgreviewrepo "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/reviewrepo"
	pgsavedrepo "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/savedrepo"
	pgtriprepo "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/triprepo"
	pguserrepo "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/userrepo"
	redisadapter "github.com/tourvisto/travel-planner-api/internal/adapters/redis"
	redistripcache "github.com/tourvisto/travel-planner-api/internal/adapters/redis/tripcache"
	stripebilling "github.com/tourvisto/travel-planner-api/internal/adapters/stripe/billing"
	unsplashphotos "github.com/tourvisto/travel-planner-api/internal/adapters/unsplash/photos"
	"github.com/tourvisto/travel-planner-api/internal/app/dashboard"
	"github.com/tourvisto/travel-planner-api/internal/app/reviews"
	"github.com/tourvisto/travel-planner-api/internal/app/saved"
	"github.com/tourvisto/travel-planner-api/internal/app/savedsync"
	"github.com/tourvisto/travel-planner-api/internal/app/trips"
	"github.com/tourvisto/travel-planner-api/internal/app/users"
	"github.com/tourvisto/travel-planner-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/tourvisto/travel-planner-api/internal/platform/clock"
	"github.com/tourvisto/travel-planner-api/internal/platform/config"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	"github.com/tourvisto/travel-planner-api/internal/platform/scheduler"
	idempotencyport "github.com/tourvisto/travel-planner-api/internal/ports/out/idempotency"
	reviewrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
	savedrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/savedrepo"
	tripcacheport "github.com/tourvisto/travel-planner-api/internal/ports/out/tripcache"
	triprepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
	userrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/userrepo"
)

func main() {
	// A missing .env is fine; the environment is authoritative.
	_ = godotenv.Load()

	cfg, err := config.LoadAppConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}
	log, err := logging.New(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Errorw("api exited", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
}

type stores struct {
	users   userrepoport.Repository
	trips   triprepoport.Repository
	saved   savedrepoport.Repository
	reviews reviewrepoport.Repository
	idem    idempotencyport.Store
}

func run(ctx context.Context, cfg config.AppConfig, log *zap.SugaredLogger) error {
	clk := platformclock.NewSystemClock()

	// Production requires JWT_* env vars and bearer auth. AUTH_MODE=dev trusts
	// X-Debug-Subject for local development.
	var (
		auth       httpapi.Authenticator
		authIssuer string
	)
	switch cfg.AuthMode {
	case config.AuthDev:
		log.Warnw("dev auth mode enabled; X-Debug-Subject is trusted")
		auth = httpapi.NewDevAuthenticator(os.Getenv("DEV_SUBJECT"))
		authIssuer = "dev"
	default:
		jwtCfg, err := config.LoadJWTConfigFromEnv()
		if err != nil {
			return fmt.Errorf("invalid auth config: %w", err)
		}
		auth = httpapi.NewJWTAuthenticator(jwtverifier.New(jwtCfg, jwtverifier.WithLogger(log)))
		authIssuer = jwtCfg.Issuer
	}

	var st stores
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.DefaultPoolOptions())
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool, postgres.Tables{SavedTrips: cfg.SavedTripsCollection, Reviews: cfg.ReviewsCollection}); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		st = stores{
			users:   pguserrepo.NewRepo(pool),
			trips:   pgtriprepo.NewRepo(pool),
			saved:   pgsavedrepo.NewRepo(pool, cfg.SavedTripsCollection),
			reviews: pgreviewrepo.NewRepo(pool, cfg.ReviewsCollection),
			idem:    pgidempotency.NewStore(pool, authIssuer),
		}
	default:
		st = stores{
			users:   memuserrepo.NewRepo(),
			trips:   memtriprepo.NewRepo(),
			saved:   memsavedrepo.NewRepo(),
			reviews: memreviewrepo.NewRepo(),
			idem:    memidempotency.NewStoreWithTTL(cfg.IdempotencyTTL, nil),
		}
	}
	log.Infow("storage ready", "backend", cfg.Storage)

	tripOpts := []trips.Option{trips.WithLogger(log)}

	var cache tripcacheport.Cache = memtripcache.NewCache()
	if cfg.RedisAddr != "" {
		client, err := redisadapter.NewClient(ctx, redisadapter.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		cache = redistripcache.NewCache(client, cfg.TripCacheTTL)
		log.Infow("trip cache backed by redis", "addr", cfg.RedisAddr, "ttl", cfg.TripCacheTTL)
	}
	tripOpts = append(tripOpts, trips.WithCache(cache))

	if cfg.GeminiAPIKey != "" {
		gen, err := geminiitinerary.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		defer func() { _ = gen.Close() }()
		tripOpts = append(tripOpts, trips.WithGenerator(gen))
	} else {
		log.Warnw("GEMINI_API_KEY not set; trip generation disabled")
	}
	if cfg.UnsplashAccessKey != "" {
		tripOpts = append(tripOpts, trips.WithPhotoSearcher(unsplashphotos.NewSearcher(cfg.UnsplashAccessKey)))
	}
	if cfg.StripeSecretKey != "" {
		var bopts []stripebilling.Option
		if cfg.StripeSuccessURL != "" {
			bopts = append(bopts, stripebilling.WithSuccessURL(cfg.StripeSuccessURL))
		}
		prov, err := stripebilling.NewProvisioner(cfg.StripeSecretKey, bopts...)
		if err != nil {
			return err
		}
		tripOpts = append(tripOpts, trips.WithBilling(prov))
	}

	usersSvc := users.NewService(st.users, st.trips, clk, users.WithAdminSubjects(cfg.AdminSubjects), users.WithLogger(log))
	tripsSvc := trips.NewService(st.trips, clk, tripOpts...)
	savedSvc := saved.NewService(st.saved, cfg.SavedTripsCollection, clk, saved.WithLogger(log))
	reviewsSvc := reviews.NewService(st.reviews, cfg.ReviewsCollection, clk, reviews.WithLogger(log))
	dashSvc := dashboard.NewService(st.users, st.trips, clk, dashboard.WithLogger(log))

	resolver := httpapi.NewIdentityResolver(usersSvc)
	viewLog := log.Named("savedsync")
	views := savedsync.NewRegistry(func() *savedsync.Controller {
		return savedsync.NewController(resolver, savedSvc, tripsSvc,
			savedsync.WithFetchConcurrency(cfg.FetchConcurrency),
			savedsync.WithCardWidth(cfg.CarouselCardWidth),
			savedsync.WithLogger(viewLog),
		)
	}, clk, viewLog)

	sched := scheduler.New(clk, log.Named("scheduler"))
	if _, err := sched.EvictIdleViews(cfg.EvictionSchedule, views, cfg.SavedViewTTL); err != nil {
		return fmt.Errorf("schedule view eviction: %w", err)
	}
	if p, ok := st.idem.(idempotencyport.Pruner); ok {
		if _, err := sched.PruneIdempotency(cfg.IdempotencyPrune, p, cfg.IdempotencyTTL); err != nil {
			return fmt.Errorf("schedule idempotency prune: %w", err)
		}
	}
	sched.Start()

	api := httpapi.NewServer(httpapi.Services{
		Users:     usersSvc,
		Trips:     tripsSvc,
		Saved:     savedSvc,
		Reviews:   reviewsSvc,
		Dashboard: dashSvc,
		Views:     views,
		Idem:      st.idem,
	}, clk, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(api, httpapi.RouterOptions{Auth: auth, Log: log.Named("http")}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("api listening", "addr", cfg.HTTPAddr, "auth_mode", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	sched.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
