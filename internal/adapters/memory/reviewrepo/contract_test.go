package reviewrepo

import (
	"testing"

	"github.com/tourvisto/travel-planner-api/internal/adapters/contracttest"
	reviewrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
)

func TestContract_ReviewRepo(t *testing.T) {
	contracttest.RunReviewRepo(t, func(t *testing.T) (reviewrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
