package triprepo

import (
	"testing"

	"github.com/tourvisto/travel-planner-api/internal/adapters/contracttest"
	triprepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
)

func TestContract_TripRepo(t *testing.T) {
	contracttest.RunTripRepo(t, func(t *testing.T) (triprepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
