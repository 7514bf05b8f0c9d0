package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/ciaan/internal/cache"
	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/http/handlers"
	"github.com/geocoder89/ciaan/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type fakePostsStore struct {
	createFn  func(ctx context.Context, p post.CreateParams) (post.Post, error)
	findAllFn func(ctx context.Context, limit int) ([]post.Post, error)
}

func (f *fakePostsStore) Create(ctx context.Context, p post.CreateParams) (post.Post, error) {
	return f.createFn(ctx, p)
}

func (f *fakePostsStore) FindAll(ctx context.Context, limit int) ([]post.Post, error) {
	return f.findAllFn(ctx, limit)
}

type fakeUserFinder struct {
	findByIDFn func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserFinder) FindByID(ctx context.Context, id string) (user.User, error) {
	return f.findByIDFn(ctx, id)
}

func newPostsRouter(h *handlers.PostsHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/posts", h.List)
	r.POST("/posts", func(ctx *gin.Context) {
		ctx.Set(middlewares.CtxUserID, "u1")
		ctx.Next()
	}, h.Create)
	return r
}

func feedLen(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()

	var resp struct {
		Posts []post.Post `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal feed: %v body=%s", err, w.Body.String())
	}
	return len(resp.Posts)
}

func TestPostsList_ServesCacheUntilCreate(t *testing.T) {
	var reads atomic.Int32
	stored := []post.Post{}

	store := &fakePostsStore{
		findAllFn: func(ctx context.Context, limit int) ([]post.Post, error) {
			reads.Add(1)
			return stored, nil
		},
		createFn: func(ctx context.Context, p post.CreateParams) (post.Post, error) {
			created := post.Post{ID: "p1", Content: p.Content, Author: user.Author{ID: p.AuthorID}}
			stored = []post.Post{created}
			return created, nil
		},
	}
	users := &fakeUserFinder{findByIDFn: func(ctx context.Context, id string) (user.User, error) {
		return user.User{ID: id}, nil
	}}
	r := newPostsRouter(handlers.NewPostsHandler(store, users, cache.NewMemory(time.Minute), nil))

	_ = doGet(r, "/posts")
	_ = doGet(r, "/posts")
	if got := reads.Load(); got != 1 {
		t.Fatalf("expected second read to be cached, store reads=%d", got)
	}

	if w := postJSON(r, "/posts", `{"content":"hello"}`); w.Code != http.StatusOK {
		t.Fatalf("create: got %d body=%s", w.Code, w.Body.String())
	}

	w := doGet(r, "/posts")
	if got := reads.Load(); got != 2 {
		t.Fatalf("expected create to invalidate the feed, store reads=%d", got)
	}
	if n := feedLen(t, w); n != 1 {
		t.Fatalf("expected 1 post after create, got %d", n)
	}
}

// A feed read that started before a create must not repopulate the cache after it.
func TestPostsList_ReadRacingCreateDoesNotCacheStaleFeed(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var calls int
	stored := []post.Post{}

	store := &fakePostsStore{
		findAllFn: func(ctx context.Context, limit int) ([]post.Post, error) {
			mu.Lock()
			calls++
			n := calls
			snapshot := stored
			mu.Unlock()

			if n == 1 {
				close(entered)
				<-release
			}
			return snapshot, nil
		},
		createFn: func(ctx context.Context, p post.CreateParams) (post.Post, error) {
			created := post.Post{ID: "p1", Content: p.Content, Author: user.Author{ID: p.AuthorID}}
			mu.Lock()
			stored = []post.Post{created}
			mu.Unlock()
			return created, nil
		},
	}
	users := &fakeUserFinder{findByIDFn: func(ctx context.Context, id string) (user.User, error) {
		return user.User{ID: id}, nil
	}}
	r := newPostsRouter(handlers.NewPostsHandler(store, users, cache.NewMemory(time.Minute), nil))

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- doGet(r, "/posts") }()

	<-entered
	if w := postJSON(r, "/posts", `{"content":"hello"}`); w.Code != http.StatusOK {
		t.Fatalf("create: got %d body=%s", w.Code, w.Body.String())
	}
	close(release)

	if n := feedLen(t, <-done); n != 0 {
		t.Fatalf("racing read should see the pre-create feed, got %d posts", n)
	}

	if n := feedLen(t, doGet(r, "/posts")); n != 1 {
		t.Fatalf("stale feed served from cache after create: got %d posts", n)
	}
}

func doGet(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}
