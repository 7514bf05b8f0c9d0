package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/geocoder89/ciaan/internal/cache"
	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/http/middlewares"
	"github.com/geocoder89/ciaan/internal/observability"
	"github.com/geocoder89/ciaan/internal/utils"
	"github.com/gin-gonic/gin"
)

type PostsStore interface {
	Create(ctx context.Context, p post.CreateParams) (post.Post, error)
	FindAll(ctx context.Context, limit int) ([]post.Post, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

type PostsHandler struct {
	posts PostsStore
	users UserFinder
	cache cache.Cache
	prom  *observability.Prom

	// feedGen is read before the store and bumped after every insert.
	feedGen atomic.Uint64
}

// NewPostsHandler accepts a nil cache, in which case every feed read hits the store.
func NewPostsHandler(posts PostsStore, users UserFinder, feedCache cache.Cache, prom *observability.Prom) *PostsHandler {
	return &PostsHandler{posts: posts, users: users, cache: feedCache, prom: prom}
}

// GET /api/posts
func (h *PostsHandler) List(ctx *gin.Context) {
	key := utils.BuildFeedCacheKey(h.feedGen.Load(), post.FeedLimit)
	reqCtx := ctx.Request.Context()

	if h.cache != nil {
		b, hit, err := h.cache.Get(reqCtx, key)
		if err != nil {
			slog.Default().WarnContext(reqCtx, "feed cache get", "key", key, "err", err)
		}
		h.prom.ObserveCache(utils.FeedCacheFamily, hit)

		if hit {
			RespondRawJSONWithETag(ctx, http.StatusOK, b)
			return
		}
	}

	cctx, cancel := context.WithTimeout(reqCtx, 3*time.Second)
	defer cancel()

	posts, err := h.posts.FindAll(cctx, post.FeedLimit)
	if err != nil {
		RespondInternal(ctx, "Failed to fetch posts", err)
		return
	}

	body, err := json.Marshal(gin.H{"posts": posts})
	if err != nil {
		RespondInternal(ctx, "Failed to fetch posts", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(reqCtx, key, body); err != nil {
			slog.Default().WarnContext(reqCtx, "feed cache set", "key", key, "err", err)
		}
	}

	RespondRawJSONWithETag(ctx, http.StatusOK, body)
}

// POST /api/posts
func (h *PostsHandler) Create(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.users.FindByID(cctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Failed to create post", err)
		return
	}

	var req post.CreatePostRequest
	if !BindJSON(ctx, &req) {
		return
	}

	content, err := post.NormalizeContent(req.Content)
	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_request", contentErrorMessage(err), nil)
		return
	}

	created, err := h.posts.Create(cctx, post.CreateParams{Content: content, AuthorID: userID})
	if err != nil {
		// the account can vanish between the lookup and the insert
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Failed to create post", err)
		return
	}

	prev := h.feedGen.Add(1) - 1
	if h.cache != nil {
		if err := h.cache.Delete(ctx.Request.Context(), utils.BuildFeedCacheKey(prev, post.FeedLimit)); err != nil {
			slog.Default().WarnContext(cctx, "feed cache invalidate", "err", err)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Post created successfully",
		"post":    created,
	})
}

func contentErrorMessage(err error) string {
	switch {
	case errors.Is(err, post.ErrEmptyContent):
		return "Post content is required"
	case errors.Is(err, post.ErrContentTooLong):
		return "Post cannot be more than 1000 characters"
	default:
		return "Invalid post content"
	}
}
