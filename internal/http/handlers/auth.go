package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/ciaan/internal/auth"
	"github.com/geocoder89/ciaan/internal/domain/job"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/http/middlewares"
	"github.com/geocoder89/ciaan/internal/jobs"
	"github.com/gin-gonic/gin"
)

type UserAccounts interface {
	Create(ctx context.Context, p user.CreateParams) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type AuthHandler struct {
	users        UserAccounts
	hasher       PasswordHasher
	tokens       TokenIssuer
	jobs         JobEnqueuer
	secureCookie bool

	// dummyHash is verified against when the email is unknown so both failure paths cost one bcrypt compare.
	dummyHash string
}

// NewAuthHandler accepts a nil jobs enqueuer; registration then skips the welcome notification.
func NewAuthHandler(users UserAccounts, hasher PasswordHasher, tokens TokenIssuer, enqueuer JobEnqueuer, secureCookie bool) *AuthHandler {
	dummy, _ := hasher.Hash("not-a-real-password")

	return &AuthHandler{
		users:        users,
		hasher:       hasher,
		tokens:       tokens,
		jobs:         enqueuer,
		secureCookie: secureCookie,
		dummyHash:    dummy,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		RespondInternal(ctx, "Something went wrong during registration", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.users.Create(cctx, user.CreateParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Bio:          req.Bio,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondError(ctx, http.StatusBadRequest, "email_taken", "User already exists with this email", nil)
			return
		}
		RespondInternal(ctx, "Something went wrong during registration", err)
		return
	}

	if !h.startSession(ctx, created.ID) {
		return
	}

	h.enqueueWelcome(cctx, created)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
		"user":    created,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.FindByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, "Something went wrong during login", err)
			return
		}
		h.hasher.Verify(h.dummyHash, req.Password)
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	if !h.hasher.Verify(found.PasswordHash, req.Password) {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	if !h.startSession(ctx, found.ID) {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    found,
	})
}

// POST /api/auth/logout only clears the cookie; an issued token stays valid until it expires.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.setSessionCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GET /api/auth/me
func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.FindByID(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Failed to fetch user", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) startSession(ctx *gin.Context, userID string) bool {
	token, _, err := h.tokens.Issue(userID)
	if err != nil {
		RespondInternal(ctx, "Could not create session", err)
		return false
	}

	h.setSessionCookie(ctx, token, int(auth.SessionTTL.Seconds()))
	return true
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, value string, maxAge int) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		middlewares.CookieName,
		value,
		maxAge,
		"/",
		"",
		h.secureCookie,
		true, // HttpOnly.
	)
}

// enqueueWelcome is best effort: the account exists whether or not the job is queued.
func (h *AuthHandler) enqueueWelcome(ctx context.Context, u user.User) {
	if h.jobs == nil {
		return
	}

	req, err := jobs.NewWelcomeJob(jobs.WelcomeNotificationPayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	})
	if err == nil {
		_, err = h.jobs.Create(ctx, req)
	}

	if err != nil && !errors.Is(err, job.ErrDuplicateJob) {
		slog.Default().WarnContext(ctx, "enqueue welcome notification", "user_id", u.ID, "err", err)
	}
}
