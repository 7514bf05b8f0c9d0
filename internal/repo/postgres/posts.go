package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/observability"
	"github.com/geocoder89/ciaan/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, prom: prom}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

const postColumns = `p.id, p.content, p.created_at, p.updated_at, u.id, u.name, u.email`

// Create inserts and joins the author in one statement.
func (r *PostsRepo) Create(ctx context.Context, p post.CreateParams) (post.Post, error) {
	if !utils.IsUUID(p.AuthorID) {
		return post.Post{}, user.ErrNotFound
	}

	now := time.Now().UTC()
	var out post.Post

	err := r.observe("posts.create", func() error {
		return scanPost(r.pool.QueryRow(ctx, `
		WITH p AS (
			INSERT INTO posts (id, content, author_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$4)
			RETURNING id, content, author_id, created_at, updated_at
		)
		SELECT `+postColumns+`
		FROM p
		JOIN users u ON u.id = p.author_id`,
			uuid.NewString(), p.Content, p.AuthorID, now,
		), &out)
	})

	if err != nil {
		if isForeignKeyViolation(err) || errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, user.ErrNotFound
		}
		return post.Post{}, err
	}
	return out, nil
}

func (r *PostsRepo) FindAll(ctx context.Context, limit int) ([]post.Post, error) {
	var out []post.Post

	err := r.observe("posts.find_all", func() error {
		rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC, p.seq DESC
		LIMIT $1`, limit)
		if err != nil {
			return err
		}

		out, err = collectPosts(rows)
		return err
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostsRepo) FindByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	if !utils.IsUUID(authorID) {
		return []post.Post{}, nil
	}

	var out []post.Post

	err := r.observe("posts.find_by_author", func() error {
		rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC, p.seq DESC`, authorID)
		if err != nil {
			return err
		}

		out, err = collectPosts(rows)
		return err
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanPost(row pgx.Row, p *post.Post) error {
	return row.Scan(
		&p.ID,
		&p.Content,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Author.ID,
		&p.Author.Name,
		&p.Author.Email,
	)
}

func collectPosts(rows pgx.Rows) ([]post.Post, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (post.Post, error) {
		var p post.Post
		err := scanPost(row, &p)
		return p, err
	})
}
