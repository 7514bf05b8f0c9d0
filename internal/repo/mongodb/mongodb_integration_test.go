package mongodb_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/repo/mongodb"
	"github.com/google/uuid"
)

// TEST_MONGO_URI=mongodb://127.0.0.1:27017 runs these against a throwaway database.
func setupClient(t *testing.T) *mongodb.Client {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	dbName := "ciaan_test_" + uuid.NewString()[:8]

	c, err := mongodb.Connect(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	t.Cleanup(func() {
		_ = c.Database().Drop(context.Background())
		_ = c.Disconnect(context.Background())
	})
	return c
}

func TestMongoUsersAndPosts_Integration(t *testing.T) {
	c := setupClient(t)
	users := mongodb.NewUsersRepo(c, nil)
	posts := mongodb.NewPostsRepo(c, nil)
	ctx := context.Background()

	anna, err := users.Create(ctx, user.CreateParams{Name: "Anna", Email: "ANNA@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := users.Create(ctx, user.CreateParams{Name: "Bob", Email: "annex@x.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create bob: %v", err)
	}

	got, err := users.FindByID(ctx, anna.ID)
	if err != nil || got.PasswordHash != "" {
		t.Fatalf("FindByID: %+v, %v", got, err)
	}
	if _, err := users.FindByID(ctx, "nope"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	found, err := users.Search(ctx, "Ann", 10)
	if err != nil || len(found) != 2 {
		t.Fatalf("Search: %+v, %v", found, err)
	}

	p1, err := posts.Create(ctx, post.CreateParams{Content: "P1", AuthorID: anna.ID})
	if err != nil {
		t.Fatalf("Create P1: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	p2, err := posts.Create(ctx, post.CreateParams{Content: "P2", AuthorID: anna.ID})
	if err != nil {
		t.Fatalf("Create P2: %v", err)
	}

	feed, err := posts.FindAll(ctx, post.FeedLimit)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(feed) != 2 || feed[0].ID != p2.ID || feed[1].ID != p1.ID {
		t.Fatalf("expected [P2, P1], got %+v", feed)
	}
	if feed[0].Author.Name != "Anna" || feed[0].Author.Email != "anna@x.com" {
		t.Fatalf("expected populated author, got %+v", feed[0].Author)
	}
}

func TestMongoConcurrentRegistration_Integration(t *testing.T) {
	c := setupClient(t)
	users := mongodb.NewUsersRepo(c, nil)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.Create(context.Background(), user.CreateParams{Name: "A", Email: "a@x.com", PasswordHash: "h"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, user.ErrEmailTaken) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one success, got %d", ok)
	}
}
