package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/tourvisto/travel-planner-api/internal/adapters/httpapi"
	memclock "github.com/tourvisto/travel-planner-api/internal/adapters/memory/clock"
	memidempotency "github.com/tourvisto/travel-planner-api/internal/adapters/memory/idempotency"
	memreviewrepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/reviewrepo"
	memsavedrepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/savedrepo"
	memtriprepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/userrepo"
	pgidempotency "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/idempotency"
	pgreviewrepo "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/reviewrepo"
	pgsavedrepo "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/savedrepo"
	postgres_testutil "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/testutil"
	pgtriprepo "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/triprepo"
	pguserrepo "github.com/tourvisto/travel-planner-api/internal/adapters/postgres/userrepo"
	"github.com/tourvisto/travel-planner-api/internal/app/dashboard"
	"github.com/tourvisto/travel-planner-api/internal/app/reviews"
	"github.com/tourvisto/travel-planner-api/internal/app/saved"
	"github.com/tourvisto/travel-planner-api/internal/app/savedsync"
	"github.com/tourvisto/travel-planner-api/internal/app/trips"
	"github.com/tourvisto/travel-planner-api/internal/app/users"
	"github.com/tourvisto/travel-planner-api/internal/platform/config"
	idempotencyport "github.com/tourvisto/travel-planner-api/internal/ports/out/idempotency"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/itinerary"
	reviewrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
	savedrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/savedrepo"
	triprepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
	userrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/userrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

// stubGenerator answers every request with a fixed itinerary for the country.
type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, req itinerary.Request) (string, error) {
	b, err := json.Marshal(map[string]any{
		"name":        req.Country + " Highlights",
		"country":     req.Country,
		"duration":    req.NumberOfDays,
		"travelStyle": req.TravelStyle,
		"interests":   req.Interests,
		"itinerary":   []any{},
	})
	return string(b), err
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	const issuer = "itest-issuer"
	clk := memclock.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t).Sugar()

	var (
		userRepo   userrepoport.Repository
		tripRepo   triprepoport.Repository
		savedRepo  savedrepoport.Repository
		reviewRepo reviewrepoport.Repository
		idemStore  idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		userRepo = pguserrepo.NewRepo(pool)
		tripRepo = pgtriprepo.NewRepo(pool)
		savedRepo = pgsavedrepo.NewRepo(pool, config.DefaultSavedTripsCollection)
		reviewRepo = pgreviewrepo.NewRepo(pool, config.DefaultReviewsCollection)
		idemStore = pgidempotency.NewStore(pool, issuer)
	case backendMemory:
		userRepo = memuserrepo.NewRepo()
		tripRepo = memtriprepo.NewRepo()
		savedRepo = memsavedrepo.NewRepo()
		reviewRepo = memreviewrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	usersSvc := users.NewService(userRepo, tripRepo, clk, users.WithLogger(log))
	tripsSvc := trips.NewService(tripRepo, clk, trips.WithGenerator(stubGenerator{}), trips.WithLogger(log))
	savedSvc := saved.NewService(savedRepo, config.DefaultSavedTripsCollection, clk, saved.WithLogger(log))
	resolver := httpapi.NewIdentityResolver(usersSvc)
	views := savedsync.NewRegistry(func() *savedsync.Controller {
		return savedsync.NewController(resolver, savedSvc, tripsSvc, savedsync.WithLogger(log))
	}, clk, log)

	api := httpapi.NewServer(httpapi.Services{
		Users:     usersSvc,
		Trips:     tripsSvc,
		Saved:     savedSvc,
		Reviews:   reviews.NewService(reviewRepo, config.DefaultReviewsCollection, clk, reviews.WithLogger(log)),
		Dashboard: dashboard.NewService(userRepo, tripRepo, clk),
		Views:     views,
		Idem:      idemStore,
	}, clk, log)

	// The dev authenticator keeps integration tests local and deterministic. An
	// empty default subject forces requests to send X-Debug-Subject.
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{Auth: httpapi.NewDevAuthenticator(""), Log: log})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

// uniqueSubject keeps runs against a shared database independent.
func uniqueSubject(name string) string {
	return "itest|" + name + "|" + uuid.NewString()
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	if got.Error.RequestID == "" {
		t.Fatalf("expected requestId in error body=%s", string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
