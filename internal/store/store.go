package store

import (
	"context"
	"fmt"

	"github.com/geocoder89/ciaan/internal/config"
	"github.com/geocoder89/ciaan/internal/db"
	"github.com/geocoder89/ciaan/internal/domain/job"
	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/observability"
	"github.com/geocoder89/ciaan/internal/repo/memory"
	"github.com/geocoder89/ciaan/internal/repo/mongodb"
	"github.com/geocoder89/ciaan/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore interface {
	Create(ctx context.Context, p user.CreateParams) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Search(ctx context.Context, query string, limit int) ([]user.User, error)
}

type PostStore interface {
	Create(ctx context.Context, p post.CreateParams) (post.Post, error)
	FindAll(ctx context.Context, limit int) ([]post.Post, error)
	FindByAuthor(ctx context.Context, authorID string) ([]post.Post, error)
}

type JobStore interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// Store is the single process-wide data handle. Jobs and Pool are nil unless the driver is postgres.
type Store struct {
	Driver string
	Users  UserStore
	Posts  PostStore
	Jobs   JobStore
	Pool   *pgxpool.Pool

	ping  func(ctx context.Context) error
	close func(ctx context.Context)
}

func Open(ctx context.Context, cfg config.Config, prom *observability.Prom) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if cfg.DBMigrate {
			if err := db.Migrate(cfg.DBURL); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}

		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}

		return &Store{
			Driver: cfg.StoreDriver,
			Users:  postgres.NewUsersRepo(pool, prom),
			Posts:  postgres.NewPostsRepo(pool, prom),
			Jobs:   postgres.NewJobsRepo(pool, prom),
			Pool:   pool,
			ping:   pool.Ping,
			close:  func(context.Context) { pool.Close() },
		}, nil

	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}

		return &Store{
			Driver: cfg.StoreDriver,
			Users:  mongodb.NewUsersRepo(client, prom),
			Posts:  mongodb.NewPostsRepo(client, prom),
			ping:   client.Ping,
			close:  func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil

	case config.DriverMemory:
		return NewMemory(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewMemory builds a process-local store; data is lost on exit.
func NewMemory() *Store {
	users := memory.NewUsersRepo()

	return &Store{
		Driver: config.DriverMemory,
		Users:  users,
		Posts:  memory.NewPostsRepo(users),
		ping:   users.Ping,
		close:  func(context.Context) {},
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) {
	s.close(ctx)
}
