package triprepo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
)

func TestRepo_List_NewestFirstWithTotal(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	for i := 1; i <= 20; i++ {
		_ = r.Create(context.Background(), triprepo.Trip{
			ID:        domain.TripID(fmt.Sprintf("t%02d", i)),
			Detail:    `{"name":"trip"}`,
			CreatedAt: time.Unix(int64(i*10), 0).UTC(),
		})
	}

	got, total, err := r.List(context.Background(), 8, 0)
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if total != 20 {
		t.Fatalf("total=%d, want 20", total)
	}
	if len(got) != 8 {
		t.Fatalf("len=%d, want 8", len(got))
	}
	if got[0].ID != "t20" || got[7].ID != "t13" {
		t.Fatalf("order=[%s..%s], want [t20..t13]", got[0].ID, got[7].ID)
	}

	last, _, err := r.List(context.Background(), 8, 16)
	if err != nil {
		t.Fatalf("List(offset=16) err=%v", err)
	}
	if len(last) != 4 || last[3].ID != "t01" {
		t.Fatalf("last page=%v", last)
	}

	none, total, err := r.List(context.Background(), 8, 40)
	if err != nil || len(none) != 0 || total != 20 {
		t.Fatalf("List(offset=40) len=%d total=%d err=%v", len(none), total, err)
	}
}

func TestRepo_SetPaymentLinkAndDelete(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	if err := r.SetPaymentLink(context.Background(), "missing", "https://pay"); err != triprepo.ErrNotFound {
		t.Fatalf("SetPaymentLink(missing) err=%v, want %v", err, triprepo.ErrNotFound)
	}
	_ = r.Create(context.Background(), triprepo.Trip{ID: "t1", UserID: "u1", CreatedAt: time.Unix(1, 0).UTC()})
	if err := r.SetPaymentLink(context.Background(), "t1", "https://pay/t1"); err != nil {
		t.Fatalf("SetPaymentLink() err=%v", err)
	}
	got, err := r.GetByID(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetByID() err=%v", err)
	}
	if got.PaymentLink == nil || *got.PaymentLink != "https://pay/t1" {
		t.Fatalf("PaymentLink=%v", got.PaymentLink)
	}

	counts, err := r.CountByUser(context.Background(), []domain.UserID{"u1", "u2"})
	if err != nil {
		t.Fatalf("CountByUser() err=%v", err)
	}
	if counts["u1"] != 1 || counts["u2"] != 0 {
		t.Fatalf("counts=%v", counts)
	}

	if err := r.Delete(context.Background(), "t1"); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}
	if _, err := r.GetByID(context.Background(), "t1"); err != triprepo.ErrNotFound {
		t.Fatalf("GetByID(after delete) err=%v, want %v", err, triprepo.ErrNotFound)
	}
	if err := r.Delete(context.Background(), "t1"); err != triprepo.ErrNotFound {
		t.Fatalf("Delete(again) err=%v, want %v", err, triprepo.ErrNotFound)
	}
}
