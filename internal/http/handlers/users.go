package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (user.User, error)
	Search(ctx context.Context, query string, limit int) ([]user.User, error)
}

type AuthorPosts interface {
	FindByAuthor(ctx context.Context, authorID string) ([]post.Post, error)
}

type UsersHandler struct {
	users UserDirectory
	posts AuthorPosts
}

func NewUsersHandler(users UserDirectory, posts AuthorPosts) *UsersHandler {
	return &UsersHandler{users: users, posts: posts}
}

// GET /api/users/:id
func (h *UsersHandler) Profile(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.FindByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Failed to fetch user profile", err)
		return
	}

	posts, err := h.posts.FindByAuthor(cctx, u.ID)
	if err != nil {
		RespondInternal(ctx, "Failed to fetch user profile", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":  u,
		"posts": posts,
	})
}

// GET /api/search/users?q=&limit=
func (h *UsersHandler) Search(ctx *gin.Context) {
	limit := user.DefaultSearchLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondBadRequest(ctx, "limit must be a positive integer", gin.H{"limit": raw})
			return
		}
		limit = min(n, user.MaxSearchLimit)
	}

	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		ctx.JSON(http.StatusOK, gin.H{"users": []user.User{}})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.Search(cctx, q, limit)
	if err != nil {
		RespondInternal(ctx, "Failed to search users", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"users": users})
}
