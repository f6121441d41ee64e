package reviewrepo

import (
	"testing"

	"github.com/tourvisto/travel-planner-api/internal/adapters/contracttest"
	"github.com/tourvisto/travel-planner-api/internal/adapters/postgres/testutil"
	reviewrepoport "github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
)

func TestContract_PostgresReviewRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunReviewRepo(t, func(t *testing.T) (reviewrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool, ""), nil
	})
}
