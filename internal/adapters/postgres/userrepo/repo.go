package userrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tourvisto/travel-planner-api/internal/adapters/postgres"
	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const userColumns = `
	u.id,
	u.subject,
	u.name,
	u.email,
	u.avatar_url,
	u.role,
	u.created_at,
	u.updated_at
`

func (r *Repo) Create(ctx context.Context, u domain.User) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (
			id,
			subject,
			name,
			email,
			avatar_url,
			role,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id,
		string(u.Subject),
		u.Name,
		u.Email,
		u.AvatarURL,
		roleForDB(u.Role),
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "users_subject_unique":
				return userrepo.ErrSubjectAlreadyBound
			case "users_pkey":
				return userrepo.ErrAlreadyExists
			}
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, u domain.User) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		existing, err := getUserByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing.Subject != u.Subject {
			return userrepo.ErrSubjectAlreadyBound
		}

		ct, err := tx.Exec(ctx, `
			UPDATE users
			SET name = $2,
			    email = $3,
			    avatar_url = $4,
			    role = $5,
			    updated_at = $6
			WHERE id = $1
		`,
			id,
			u.Name,
			u.Email,
			u.AvatarURL,
			roleForDB(u.Role),
			u.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return userrepo.ErrNotFound
		}
		return nil
	})
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, postgres.ErrNilPool
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.User{}, userrepo.ErrNotFound
	}
	return getUserByID(ctx, r.pool, uid)
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, postgres.ErrNilPool
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.subject = $1`, string(subject))
	return scanUser(row)
}

func (r *Repo) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
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
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		ORDER BY u.created_at DESC, u.id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// --- helpers ---

func roleForDB(r domain.Role) string {
	if r == "" {
		return string(domain.RoleUser)
	}
	return string(r)
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (domain.User, error) {
	var (
		id        uuid.UUID
		sub       string
		name      string
		email     string
		avatarURL *string
		role      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &sub, &name, &email, &avatarURL, &role, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, userrepo.ErrNotFound
		}
		return domain.User{}, err
	}
	return domain.User{
		ID:        domain.UserID(id.String()),
		Subject:   domain.SubjectID(sub),
		Name:      name,
		Email:     email,
		AvatarURL: avatarURL,
		Role:      domain.Role(role),
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

func getUserByID(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id uuid.UUID) (domain.User, error) {
	row := q.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
	return scanUser(row)
}
