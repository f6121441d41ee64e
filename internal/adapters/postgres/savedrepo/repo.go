package savedrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tourvisto/travel-planner-api/internal/adapters/postgres"
	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/savedrepo"
)

// Repo is a Postgres implementation of savedrepo.Repository backed by a
// configurable table. The table carries a UNIQUE (user_id, trip_id) constraint.
type Repo struct {
	pool  *pgxpool.Pool
	table string
}

// NewRepo binds the repo to table; an empty name selects the default collection.
func NewRepo(pool *pgxpool.Pool, table string) *Repo {
	if table == "" {
		table = postgres.DefaultSavedTripsTable
	}
	return &Repo{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

func (r *Repo) Create(ctx context.Context, l domain.SavedLink) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(l.ID))
	if err != nil {
		return fmt.Errorf("invalid saved link id: %w", err)
	}
	userUUID, err := uuid.Parse(string(l.UserID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	tripUUID, err := uuid.Parse(string(l.TripID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	perms, err := json.Marshal(grantsOrEmpty(l.Permissions))
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO `+r.table+` (id, user_id, trip_id, permissions, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, userUUID, tripUUID, perms, l.CreatedAt.UTC())
	if err != nil {
		// Both a reused id and a duplicate (user, trip) pair surface as conflicts.
		if postgres.IsUniqueViolation(err, "") {
			return savedrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.SavedLinkID) (domain.SavedLink, error) {
	if r.pool == nil {
		return domain.SavedLink{}, postgres.ErrNilPool
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.SavedLink{}, savedrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, trip_id, permissions, created_at
		FROM `+r.table+`
		WHERE id = $1
	`, uid)
	return scanLink(row)
}

func (r *Repo) Delete(ctx context.Context, id domain.SavedLinkID) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return savedrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return savedrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID domain.UserID, limit, offset int) ([]domain.SavedLink, int, error) {
	if r.pool == nil {
		return nil, 0, postgres.ErrNilPool
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return []domain.SavedLink{}, 0, nil
	}
	if offset < 0 {
		offset = 0
	}
	// LIMIT NULL means no limit.
	var pageLimit any
	if limit > 0 {
		pageLimit = limit
	} else {
		limit = 0
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM `+r.table+` WHERE user_id = $1`, userUUID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, trip_id, permissions, created_at
		FROM `+r.table+`
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, userUUID, pageLimit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.SavedLink, 0, limit)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) FindByUserAndTrip(ctx context.Context, userID domain.UserID, tripID domain.TripID) (domain.SavedLink, error) {
	if r.pool == nil {
		return domain.SavedLink{}, postgres.ErrNilPool
	}
	userUUID, err := uuid.Parse(string(userID))
	if err != nil {
		return domain.SavedLink{}, savedrepo.ErrNotFound
	}
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return domain.SavedLink{}, savedrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, trip_id, permissions, created_at
		FROM `+r.table+`
		WHERE user_id = $1 AND trip_id = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, userUUID, tripUUID)
	return scanLink(row)
}

func grantsOrEmpty(g []domain.Grant) []domain.Grant {
	if g == nil {
		return []domain.Grant{}
	}
	return g
}

func scanLink(row interface {
	Scan(dest ...any) error
}) (domain.SavedLink, error) {
	var (
		id, userID, tripID uuid.UUID
		perms              []byte
		createdAt          time.Time
	)
	if err := row.Scan(&id, &userID, &tripID, &perms, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SavedLink{}, savedrepo.ErrNotFound
		}
		return domain.SavedLink{}, err
	}
	var grants []domain.Grant
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &grants); err != nil {
			return domain.SavedLink{}, fmt.Errorf("decode permissions: %w", err)
		}
	}
	return domain.SavedLink{
		ID:          domain.SavedLinkID(id.String()),
		UserID:      domain.UserID(userID.String()),
		TripID:      domain.TripID(tripID.String()),
		Permissions: grants,
		CreatedAt:   createdAt.UTC(),
	}, nil
}
