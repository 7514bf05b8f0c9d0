package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/ciaan/internal/config"
	"github.com/geocoder89/ciaan/internal/notifications"
	"github.com/geocoder89/ciaan/internal/queue/worker"
	"github.com/geocoder89/ciaan/internal/repo/postgres"
	"github.com/geocoder89/ciaan/internal/store"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifications.WelcomeInput
}

func (n *recordingNotifier) SendWelcome(ctx context.Context, input notifications.WelcomeInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, input)
	return nil
}

func (n *recordingNotifier) Calls() []notifications.WelcomeInput {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifications.WelcomeInput(nil), n.calls...)
}

func openPostgresStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	cfg := testConfig()
	cfg.StoreDriver = config.DriverPostgres
	cfg.DBURL = dsn
	cfg.DBMigrate = true

	s, err := store.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })

	if _, err := s.Pool.Exec(context.Background(), `TRUNCATE jobs, posts, users CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestPipeline_Register_EnqueuesWelcome_WorkerSendsOnce(t *testing.T) {
	s := openPostgresStore(t)
	r := newTestRouter(t, s)

	_, userID := register(t, r, "Pipeline", "pipeline@x.com")

	var jobType, status string
	err := s.Pool.QueryRow(context.Background(), `
		SELECT type, status FROM jobs
		WHERE idempotency_key = $1`, "welcome:"+userID).Scan(&jobType, &status)
	if err != nil {
		t.Fatalf("select job: %v", err)
	}
	if jobType != "send_welcome_notification" || status != "pending" {
		t.Fatalf("unexpected job type=%s status=%s", jobType, status)
	}

	rec := &recordingNotifier{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	wk := worker.New(worker.Config{
		WorkerID:      "test-worker",
		PollInterval:  10 * time.Millisecond,
		ShutdownGrace: time.Second,
	}, postgres.NewJobsRepo(s.Pool, nil), rec, logger, nil)

	processed, err := wk.ProcessOne(context.Background())
	if err != nil || !processed {
		t.Fatalf("ProcessOne = %v, %v", processed, err)
	}

	calls := rec.Calls()
	if len(calls) != 1 || calls[0].UserID != userID || calls[0].Email != "pipeline@x.com" {
		t.Fatalf("unexpected notifications %+v", calls)
	}

	if err := s.Pool.QueryRow(context.Background(),
		`SELECT status FROM jobs WHERE idempotency_key = $1`, "welcome:"+userID).Scan(&status); err != nil {
		t.Fatalf("select job: %v", err)
	}
	if status != "done" {
		t.Fatalf("expected done, got %s", status)
	}

	processed, err = wk.ProcessOne(context.Background())
	if err != nil || processed {
		t.Fatalf("expected empty queue, got %v, %v", processed, err)
	}
}

func TestPipeline_PostgresFeed(t *testing.T) {
	s := openPostgresStore(t)
	r := newTestRouter(t, s)
	cookie, _ := register(t, r, "Ann", "ann@x.com")

	for _, c := range []string{"P1", "P2"} {
		if w := do(t, r, http.MethodPost, "/api/posts", `{"content":"`+c+`"}`, withCookie(cookie)); w.Code != http.StatusOK {
			t.Fatalf("create: %d %s", w.Code, w.Body.String())
		}
	}

	feed := decode[struct {
		Posts []postJSON `json:"posts"`
	}](t, do(t, r, http.MethodGet, "/api/posts", ""))
	if len(feed.Posts) != 2 || feed.Posts[0].Content != "P2" {
		t.Fatalf("unexpected feed %+v", feed.Posts)
	}
}
