package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/ciaan/internal/auth"
	"github.com/geocoder89/ciaan/internal/cache"
	"github.com/geocoder89/ciaan/internal/config"
	apphttp "github.com/geocoder89/ciaan/internal/http"
	"github.com/geocoder89/ciaan/internal/security"
	"github.com/geocoder89/ciaan/internal/store"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-that-is-long-enough"

func testConfig() config.Config {
	return config.Config{
		Env:          "test",
		StoreDriver:  config.DriverMemory,
		JWTSecret:    testSecret,
		BcryptCost:   bcrypt.MinCost,
		MaxBodyBytes: 1 << 20,
		FeedCacheTTL: time.Minute,
	}
}

func newTestRouter(t *testing.T, s *store.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return apphttp.NewRouter(logger, apphttp.Deps{
		Config:    cfg,
		Store:     s,
		Tokens:    auth.NewManager(cfg.JWTSecret),
		Hasher:    security.NewPasswordHasher(cfg.BcryptCost),
		FeedCache: cache.NewMemory(cfg.FeedCacheTTL),
	})
}

type requestOpt func(r *http.Request)

func withCookie(c *http.Cookie) requestOpt {
	return func(r *http.Request) { r.AddCookie(c) }
}

func withHeader(k, v string) requestOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func do(t *testing.T, h http.Handler, method, path, body string, opts ...requestOpt) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v body=%s", err, w.Body.String())
	}
	return out
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatalf("no token cookie in response, headers=%v", w.Header())
	return nil
}

func register(t *testing.T, h http.Handler, name, email string) (*http.Cookie, string) {
	t.Helper()

	w := do(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"`+name+`","email":"`+email+`","password":"secret1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: got %d body=%s", email, w.Code, w.Body.String())
	}

	resp := decode[struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}](t, w)

	return sessionCookie(t, w), resp.User.ID
}
