package reviewrepo

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
	"github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
)

// Repo is a Postgres implementation of reviewrepo.Repository.
type Repo struct {
	pool  *pgxpool.Pool
	table string
}

func NewRepo(pool *pgxpool.Pool, table string) *Repo {
	if table == "" {
		table = postgres.DefaultReviewsTable
	}
	return &Repo{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

func (r *Repo) Create(ctx context.Context, rv domain.Review) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(rv.ID))
	if err != nil {
		return fmt.Errorf("invalid review id: %w", err)
	}
	tripUUID, err := uuid.Parse(string(rv.TripID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	userUUID, err := uuid.Parse(string(rv.UserID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	grants := rv.Permissions
	if grants == nil {
		grants = []domain.Grant{}
	}
	perms, err := json.Marshal(grants)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO `+r.table+` (
			id,
			trip_id,
			user_id,
			user_name,
			user_avatar,
			body,
			rating,
			permissions,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id,
		tripUUID,
		userUUID,
		rv.UserName,
		rv.UserAvatar,
		rv.Text,
		rv.Rating,
		perms,
		rv.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.ReviewID) (domain.Review, error) {
	if r.pool == nil {
		return domain.Review{}, postgres.ErrNilPool
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Review{}, reviewrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, trip_id, user_id, user_name, user_avatar, body, rating, permissions, created_at
		FROM `+r.table+`
		WHERE id = $1
	`, uid)
	return scanReview(row)
}

func (r *Repo) Delete(ctx context.Context, id domain.ReviewID) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return reviewrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return reviewrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) ListByTrip(ctx context.Context, tripID domain.TripID) ([]domain.Review, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return []domain.Review{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, trip_id, user_id, user_name, user_avatar, body, rating, permissions, created_at
		FROM `+r.table+`
		WHERE trip_id = $1
		ORDER BY created_at DESC, id ASC
	`, tripUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func scanReview(row interface {
	Scan(dest ...any) error
}) (domain.Review, error) {
	var (
		id, tripID, userID uuid.UUID
		rv                 domain.Review
		perms              []byte
		createdAt          time.Time
	)
	if err := row.Scan(&id, &tripID, &userID, &rv.UserName, &rv.UserAvatar, &rv.Text, &rv.Rating, &perms, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, reviewrepo.ErrNotFound
		}
		return domain.Review{}, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &rv.Permissions); err != nil {
			return domain.Review{}, fmt.Errorf("decode permissions: %w", err)
		}
	}
	rv.ID = domain.ReviewID(id.String())
	rv.TripID = domain.TripID(tripID.String())
	rv.UserID = domain.UserID(userID.String())
	rv.CreatedAt = createdAt.UTC()
	return rv, nil
}
