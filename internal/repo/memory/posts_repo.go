package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/google/uuid"
)

type storedPost struct {
	seq      uint64
	id       string
	content  string
	authorID string
	created  time.Time
	updated  time.Time
}

// PostsRepo resolves authors through the users repo, the in-memory analogue of a join.
type PostsRepo struct {
	mu    sync.RWMutex
	seq   uint64
	items []storedPost
	users *UsersRepo
	now   func() time.Time
}

func NewPostsRepo(users *UsersRepo) *PostsRepo {
	return &PostsRepo{
		users: users,
		now:   time.Now,
	}
}

func (r *PostsRepo) Create(ctx context.Context, p post.CreateParams) (post.Post, error) {
	if err := ctx.Err(); err != nil {
		return post.Post{}, err
	}

	author, err := r.users.FindByID(ctx, p.AuthorID)
	if err != nil {
		return post.Post{}, err
	}

	now := r.now().UTC()

	r.mu.Lock()
	r.seq++
	sp := storedPost{
		seq:      r.seq,
		id:       uuid.NewString(),
		content:  p.Content,
		authorID: p.AuthorID,
		created:  now,
		updated:  now,
	}
	r.items = append(r.items, sp)
	r.mu.Unlock()

	return toPost(sp, author.Author()), nil
}

func (r *PostsRepo) FindAll(ctx context.Context, limit int) ([]post.Post, error) {
	return r.find(ctx, func(storedPost) bool { return true }, limit)
}

func (r *PostsRepo) FindByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return r.find(ctx, func(sp storedPost) bool { return sp.authorID == authorID }, 0)
}

func (r *PostsRepo) find(ctx context.Context, match func(storedPost) bool, limit int) ([]post.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := make([]storedPost, 0, len(r.items))
	for _, sp := range r.items {
		if match(sp) {
			matched = append(matched, sp)
		}
	}
	r.mu.RUnlock()

	// newest first, insertion order breaks ties
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].created.Equal(matched[j].created) {
			return matched[i].created.After(matched[j].created)
		}
		return matched[i].seq > matched[j].seq
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]post.Post, 0, len(matched))
	for _, sp := range matched {
		var author user.Author
		if u, err := r.users.FindByID(ctx, sp.authorID); err == nil {
			author = u.Author()
		} else {
			author = user.Author{ID: sp.authorID}
		}
		out = append(out, toPost(sp, author))
	}
	return out, nil
}

func toPost(sp storedPost, author user.Author) post.Post {
	return post.Post{
		ID:        sp.id,
		Content:   sp.content,
		Author:    author,
		CreatedAt: sp.created,
		UpdatedAt: sp.updated,
	}
}
