package triprepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tourvisto/travel-planner-api/internal/adapters/postgres"
	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
)

// Repo is a Postgres implementation of triprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, t triprepo.Trip) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	tripUUID, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	userUUID, err := uuid.Parse(string(t.UserID))
	if err != nil {
		return fmt.Errorf("invalid creator user id: %w", err)
	}
	images := t.ImageURLs
	if images == nil {
		images = []string{}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO trips (
			id,
			user_id,
			detail,
			image_urls,
			payment_link,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		tripUUID,
		userUUID,
		t.Detail,
		images,
		t.PaymentLink,
		t.CreatedAt.UTC(),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "trips_pkey") {
			return triprepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	if r.pool == nil {
		return triprepo.Trip{}, postgres.ErrNilPool
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, detail, image_urls, payment_link, created_at
		FROM trips
		WHERE id = $1
	`, tripUUID)
	return scanTrip(row)
}

func (r *Repo) List(ctx context.Context, limit, offset int) ([]triprepo.Trip, int, error) {
	if r.pool == nil {
		return nil, 0, postgres.ErrNilPool
	}
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM trips`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, detail, image_urls, payment_link, created_at
		FROM trips
		ORDER BY created_at DESC, id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]triprepo.Trip, 0, limit)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) SetPaymentLink(ctx context.Context, id domain.TripID, url string) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `UPDATE trips SET payment_link = $2 WHERE id = $1`, tripUUID, url)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return triprepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.TripID) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripUUID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return triprepo.ErrNotFound
	}
	return nil
}

func (r *Repo) CountByUser(ctx context.Context, ids []domain.UserID) (map[domain.UserID]int, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	out := make(map[domain.UserID]int, len(ids))
	uids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		out[id] = 0
		if u, err := uuid.Parse(string(id)); err == nil {
			uids = append(uids, u)
		}
	}
	if len(uids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT user_id, count(*)
		FROM trips
		WHERE user_id = ANY($1)
		GROUP BY user_id
	`, uids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			userID uuid.UUID
			n      int
		)
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		out[domain.UserID(userID.String())] = n
	}
	return out, rows.Err()
}

func scanTrip(row interface {
	Scan(dest ...any) error
}) (triprepo.Trip, error) {
	var (
		id          uuid.UUID
		userID      uuid.UUID
		t           triprepo.Trip
		paymentLink *string
	)
	if err := row.Scan(&id, &userID, &t.Detail, &t.ImageURLs, &paymentLink, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return triprepo.Trip{}, triprepo.ErrNotFound
		}
		return triprepo.Trip{}, err
	}
	t.ID = domain.TripID(id.String())
	t.UserID = domain.UserID(userID.String())
	t.PaymentLink = paymentLink
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}
