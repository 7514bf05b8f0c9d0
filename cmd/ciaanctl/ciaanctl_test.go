package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/geocoder89/ciaan/internal/config"
	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/store"
)

func seededApp(t *testing.T) (*app, *bytes.Buffer, string) {
	t.Helper()

	ctx := context.Background()
	s := store.NewMemory()

	anna, err := s.Users.Create(ctx, user.CreateParams{Name: "Anna", Email: "anna@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Users.Create(ctx, user.CreateParams{Name: "Carl", Email: "carl@x.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Posts.Create(ctx, post.CreateParams{Content: "hello feed", AuthorID: anna.ID}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var buf bytes.Buffer
	return &app{
		cfg:       config.Config{StoreDriver: config.DriverMemory},
		out:       &buf,
		openStore: func(context.Context) (*store.Store, error) { return s, nil },
		migrate:   func(string) error { return errors.New("unexpected migrate") },
	}, &buf, anna.ID
}

func run(t *testing.T, a *app, args ...string) error {
	t.Helper()
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestUsersSearch(t *testing.T) {
	a, buf, _ := seededApp(t)

	if err := run(t, a, "users", "search", "ann"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "anna@x.com") || strings.Contains(out, "carl@x.com") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestUsersShow(t *testing.T) {
	a, buf, id := seededApp(t)

	if err := run(t, a, "users", "show", id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "hello feed") {
		t.Fatalf("expected the user's posts, got:\n%s", buf.String())
	}

	if err := run(t, a, "users", "show", "missing"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostsFeed(t *testing.T) {
	a, buf, _ := seededApp(t)

	if err := run(t, a, "posts", "feed", "--limit", "5"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "Anna") {
		t.Fatalf("expected author column, got:\n%s", buf.String())
	}
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	a, _, _ := seededApp(t)

	if err := run(t, a, "migrate"); err == nil {
		t.Fatal("expected error for non-postgres driver")
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 100)
	if got := preview(long); len([]rune(got)) != previewRunes {
		t.Fatalf("preview length = %d", len([]rune(got)))
	}
	if preview("short") != "short" {
		t.Fatal("short content must be untouched")
	}
}
