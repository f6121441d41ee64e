package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	idempotencyport "github.com/tourvisto/travel-planner-api/internal/ports/out/idempotency"
	reviewrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
	savedrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/savedrepo"
	tripcacheport "github.com/tourvisto/travel-planner-api/internal/ports/out/tripcache"
	triprepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
	userrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type TripRepoFactory func(t *testing.T) (triprepoport.Repository, CleanupFunc)
type SavedRepoFactory func(t *testing.T) (savedrepoport.Repository, CleanupFunc)
type ReviewRepoFactory func(t *testing.T) (reviewrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)
type TripCacheFactory func(t *testing.T) (tripcacheport.Cache, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Subject:  domain.SubjectID("sub-1"),
		Method:   "POST",
		Route:    "/trips",
		BodyHash: "",
	}
	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	other := fp
	other.BodyHash = "different"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("expected miss for different body hash, got ok=%v err=%v", ok, err)
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	aID := domain.UserID(uuid.NewString())
	sub := domain.SubjectID("sub-" + uuid.NewString())
	if err := repo.Create(ctx, domain.User{
		ID:        aID,
		Subject:   sub,
		Name:      "Alice Johnson",
		Email:     "alice-" + string(aID) + "@example.com",
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if _, err := repo.GetByID(ctx, aID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got, err := repo.GetBySubject(ctx, sub)
	if err != nil {
		t.Fatalf("GetBySubject: %v", err)
	}
	if got.ID != aID || got.Role != domain.RoleUser {
		t.Fatalf("unexpected user: %#v", got)
	}

	// Subject uniqueness.
	if err := repo.Create(ctx, domain.User{
		ID:        domain.UserID(uuid.NewString()),
		Subject:   sub,
		Name:      "Alice 2",
		Email:     "alice2-" + string(aID) + "@example.com",
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}); !errors.Is(err, userrepoport.ErrSubjectAlreadyBound) {
		t.Fatalf("expected subject uniqueness error, got %v", err)
	}

	// Update round trip.
	avatar := "https://img.example/alice.png"
	got.Name = "Alice J."
	got.AvatarURL = &avatar
	got.Role = domain.RoleAdmin
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Name != "Alice J." || got.AvatarURL == nil || *got.AvatarURL != avatar || got.Role != domain.RoleAdmin {
		t.Fatalf("unexpected updated user: %#v", got)
	}

	// Latest signup first.
	bID := domain.UserID(uuid.NewString())
	if err := repo.Create(ctx, domain.User{
		ID:        bID,
		Subject:   domain.SubjectID("sub-" + uuid.NewString()),
		Name:      "bob",
		Email:     "bob-" + string(bID) + "@example.com",
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC().Add(time.Hour),
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	us, total, err := repo.List(ctx, 1, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total < 2 || len(us) != 1 || us[0].ID != bID {
		t.Fatalf("unexpected list: total=%d users=%#v", total, us)
	}

	if _, err := repo.GetByID(ctx, domain.UserID(uuid.NewString())); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}
}

func RunTripRepo(t *testing.T, newRepo TripRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	creator := domain.UserID(uuid.NewString())
	base := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	ids := make([]domain.TripID, 3)
	for i := range ids {
		ids[i] = domain.TripID(uuid.NewString())
		if err := repo.Create(ctx, triprepoport.Trip{
			ID:        ids[i],
			UserID:    creator,
			Detail:    `{"name":"Trip","country":"Peru"}`,
			ImageURLs: []string{"https://img.example/1.jpg"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Create trip %d: %v", i, err)
		}
	}
	if err := repo.Create(ctx, triprepoport.Trip{ID: ids[0], UserID: creator, CreatedAt: base}); !errors.Is(err, triprepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, ids[1])
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != ids[1] || got.UserID != creator || len(got.ImageURLs) != 1 || got.PaymentLink != nil {
		t.Fatalf("unexpected trip: %#v", got)
	}

	// The three newest trips in the store are ours, newest first.
	page, total, err := repo.List(ctx, 3, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total < 3 || len(page) != 3 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(page))
	}
	if page[0].ID != ids[2] || page[1].ID != ids[1] || page[2].ID != ids[0] {
		t.Fatalf("order=%v, want newest first", []domain.TripID{page[0].ID, page[1].ID, page[2].ID})
	}

	if err := repo.SetPaymentLink(ctx, ids[0], "https://pay.example/x"); err != nil {
		t.Fatalf("SetPaymentLink: %v", err)
	}
	got, err = repo.GetByID(ctx, ids[0])
	if err != nil || got.PaymentLink == nil || *got.PaymentLink != "https://pay.example/x" {
		t.Fatalf("payment link not persisted: %#v err=%v", got, err)
	}

	counts, err := repo.CountByUser(ctx, []domain.UserID{creator})
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if counts[creator] != 3 {
		t.Fatalf("CountByUser=%d, want 3", counts[creator])
	}

	if err := repo.Delete(ctx, ids[0]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, ids[0]); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, ids[0]); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("Delete missing err=%v, want ErrNotFound", err)
	}
}

func RunSavedRepo(t *testing.T, newRepo SavedRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	user := domain.UserID(uuid.NewString())
	now := time.Unix(3000, 0).UTC()
	links := make([]domain.SavedLink, 3)
	for i := range links {
		links[i] = domain.SavedLink{
			ID:          domain.SavedLinkID(uuid.NewString()),
			UserID:      user,
			TripID:      domain.TripID(uuid.NewString()),
			Permissions: domain.OwnerOnlyGrants(user),
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, links[i]); err != nil {
			t.Fatalf("Create link %d: %v", i, err)
		}
	}

	got, err := repo.GetByID(ctx, links[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID != user || got.TripID != links[0].TripID {
		t.Fatalf("unexpected link: %#v", got)
	}
	if !domain.Allows(got.Permissions, domain.ActionDelete, user) {
		t.Fatalf("owner delete grant not persisted: %#v", got.Permissions)
	}
	if domain.Allows(got.Permissions, domain.ActionRead, domain.UserID(uuid.NewString())) {
		t.Fatalf("stranger must not be granted read")
	}

	page, total, err := repo.ListByUser(ctx, user, 2, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(page))
	}
	if page[0].ID != links[0].ID || page[1].ID != links[1].ID {
		t.Fatalf("unexpected order: %#v", page)
	}

	// A non-positive limit returns everything from offset on.
	all, total, err := repo.ListByUser(ctx, user, 0, 1)
	if err != nil {
		t.Fatalf("ListByUser(limit=0): %v", err)
	}
	if total != 3 || len(all) != 2 || all[0].ID != links[1].ID {
		t.Fatalf("unexpected unbounded page: total=%d %#v", total, all)
	}

	found, err := repo.FindByUserAndTrip(ctx, user, links[2].TripID)
	if err != nil {
		t.Fatalf("FindByUserAndTrip: %v", err)
	}
	if found.ID != links[2].ID {
		t.Fatalf("FindByUserAndTrip.ID=%q, want %q", found.ID, links[2].ID)
	}
	if _, err := repo.FindByUserAndTrip(ctx, user, domain.TripID(uuid.NewString())); !errors.Is(err, savedrepoport.ErrNotFound) {
		t.Fatalf("FindByUserAndTrip(missing) err=%v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, links[1].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, links[1].ID); !errors.Is(err, savedrepoport.ErrNotFound) {
		t.Fatalf("Delete(again) err=%v, want ErrNotFound", err)
	}
	_, total, err = repo.ListByUser(ctx, user, 500, 0)
	if err != nil || total != 2 {
		t.Fatalf("ListByUser after delete total=%d err=%v", total, err)
	}
}

func RunReviewRepo(t *testing.T, newRepo ReviewRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	trip := domain.TripID(uuid.NewString())
	author := domain.UserID(uuid.NewString())
	rating := 4
	older := domain.Review{
		ID:          domain.ReviewID(uuid.NewString()),
		TripID:      trip,
		UserID:      author,
		UserName:    "Alice",
		Text:        "Lovely",
		Rating:      &rating,
		Permissions: domain.PublicReadOwnerWriteGrants(author),
		CreatedAt:   time.Unix(4000, 0).UTC(),
	}
	newer := domain.Review{
		ID:          domain.ReviewID(uuid.NewString()),
		TripID:      trip,
		UserID:      author,
		UserName:    "Alice",
		Text:        "Still lovely",
		Permissions: domain.PublicReadOwnerWriteGrants(author),
		CreatedAt:   time.Unix(5000, 0).UTC(),
	}
	for _, rv := range []domain.Review{older, newer} {
		if err := repo.Create(ctx, rv); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := repo.ListByTrip(ctx, trip)
	if err != nil {
		t.Fatalf("ListByTrip: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("unexpected list order: %#v", list)
	}
	if list[1].Rating == nil || *list[1].Rating != 4 || list[0].Rating != nil {
		t.Fatalf("ratings not preserved: %#v", list)
	}

	if err := repo.Delete(ctx, older.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, older.ID); !errors.Is(err, reviewrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
}

func RunTripCache(t *testing.T, newCache TripCacheFactory) {
	t.Helper()
	ctx := context.Background()

	cache, cleanup := newCache(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	id := domain.TripID(uuid.NewString())
	if _, ok, err := cache.Get(ctx, id); err != nil || ok {
		t.Fatalf("Get(empty) ok=%v err=%v", ok, err)
	}

	trip := domain.Trip{
		ID: id,
		TripDetail: domain.TripDetail{
			Name:      "Cached",
			Country:   "Chile",
			Duration:  4,
			Interests: domain.StringList{"hiking"},
		},
		ImageURLs: []string{"https://img.example/c.jpg"},
		CreatedAt: time.Unix(6000, 0).UTC(),
	}
	if err := cache.Set(ctx, trip); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := cache.Get(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if got.Name != "Cached" || got.Duration != 4 || len(got.Interests) != 1 || !got.CreatedAt.Equal(trip.CreatedAt) {
		t.Fatalf("unexpected cached trip: %#v", got)
	}

	if err := cache.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, err := cache.Get(ctx, id); err != nil || ok {
		t.Fatalf("Get after invalidate ok=%v err=%v", ok, err)
	}
}
