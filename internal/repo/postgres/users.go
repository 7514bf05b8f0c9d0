package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/observability"
	"github.com/geocoder89/ciaan/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

// Create relies on users_email_uniq; a violation is the only duplicate signal.
func (r *UsersRepo) Create(ctx context.Context, p user.CreateParams) (user.User, error) {
	p = p.Normalized()
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Bio:          p.Bio,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, bio, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Bio, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if isConstraintViolation(err, uniqueViolation, usersEmailConstraint) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	// malformed ids cannot exist; skip the round trip and the 22P02 error
	if !utils.IsUUID(id) {
		return user.User{}, user.ErrNotFound
	}

	var u user.User

	err := r.observe("users.find_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, email, bio, created_at, updated_at
			FROM users
			WHERE id = $1`,
			id,
		).Scan(&u.ID, &u.Name, &u.Email, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// FindByEmail is the only read that returns the password hash.
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.find_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, email, password_hash, bio, created_at, updated_at
			FROM users
			WHERE email = $1`,
			user.NormalizeEmail(email),
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Search(ctx context.Context, query string, limit int) ([]user.User, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []user.User{}, nil
	}

	pattern := "%" + escapeLike(q) + "%"
	var out []user.User

	err := r.observe("users.search", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, email, bio, created_at, updated_at
			FROM users
			WHERE name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\'
			ORDER BY name ASC, id ASC
			LIMIT $2`,
			pattern, limit,
		)
		if err != nil {
			return err
		}

		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.User, error) {
			var u user.User
			err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
			return u, err
		})
		return err
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
