package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
)

type tickClock struct {
	t time.Time
}

func (c *tickClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func seedUser(t *testing.T, repo *UsersRepo, name, email string) user.User {
	t.Helper()
	u, err := repo.Create(context.Background(), user.CreateParams{Name: name, Email: email, PasswordHash: "h"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestPostsRepo_NewestFirstWithAuthor(t *testing.T) {
	users := NewUsersRepo()
	posts := NewPostsRepo(users)
	clock := &tickClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	posts.now = clock.now

	ctx := context.Background()
	anna := seedUser(t, users, "Anna", "anna@x.com")

	p1, err := posts.Create(ctx, post.CreateParams{Content: "P1", AuthorID: anna.ID})
	if err != nil {
		t.Fatalf("Create P1: %v", err)
	}
	p2, err := posts.Create(ctx, post.CreateParams{Content: "P2", AuthorID: anna.ID})
	if err != nil {
		t.Fatalf("Create P2: %v", err)
	}

	if p1.Author.Name != "Anna" || p1.Author.Email != "anna@x.com" {
		t.Fatalf("expected populated author, got %+v", p1.Author)
	}

	all, err := posts.FindAll(ctx, post.FeedLimit)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 || all[0].ID != p2.ID || all[1].ID != p1.ID {
		t.Fatalf("expected [P2, P1], got %+v", all)
	}
}

func TestPostsRepo_SameTimestampKeepsInsertionOrder(t *testing.T) {
	users := NewUsersRepo()
	posts := NewPostsRepo(users)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	posts.now = func() time.Time { return fixed }

	ctx := context.Background()
	anna := seedUser(t, users, "Anna", "anna@x.com")

	first, _ := posts.Create(ctx, post.CreateParams{Content: "first", AuthorID: anna.ID})
	second, _ := posts.Create(ctx, post.CreateParams{Content: "second", AuthorID: anna.ID})

	all, err := posts.FindAll(ctx, 0)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("expected newest insert first, got %+v", all)
	}
}

func TestPostsRepo_FeedLimitAndByAuthor(t *testing.T) {
	users := NewUsersRepo()
	posts := NewPostsRepo(users)
	clock := &tickClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	posts.now = clock.now

	ctx := context.Background()
	anna := seedUser(t, users, "Anna", "anna@x.com")
	bob := seedUser(t, users, "Bob", "bob@x.com")

	for i := 0; i < post.FeedLimit+10; i++ {
		author := anna.ID
		if i%2 == 1 {
			author = bob.ID
		}
		if _, err := posts.Create(ctx, post.CreateParams{Content: "x", AuthorID: author}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	feed, err := posts.FindAll(ctx, post.FeedLimit)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(feed) != post.FeedLimit {
		t.Fatalf("expected %d posts, got %d", post.FeedLimit, len(feed))
	}

	annas, err := posts.FindByAuthor(ctx, anna.ID)
	if err != nil {
		t.Fatalf("FindByAuthor: %v", err)
	}
	if len(annas) != (post.FeedLimit+10)/2 {
		t.Fatalf("expected %d posts by anna, got %d", (post.FeedLimit+10)/2, len(annas))
	}
	for i := 1; i < len(annas); i++ {
		if annas[i].Author.ID != anna.ID {
			t.Fatalf("unexpected author %+v", annas[i].Author)
		}
		if annas[i].CreatedAt.After(annas[i-1].CreatedAt) {
			t.Fatalf("posts not newest first at %d", i)
		}
	}
}

func TestPostsRepo_CreateUnknownAuthor(t *testing.T) {
	posts := NewPostsRepo(NewUsersRepo())

	_, err := posts.Create(context.Background(), post.CreateParams{Content: "x", AuthorID: "ghost"})
	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
