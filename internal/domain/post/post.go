package post

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/ciaan/internal/domain/user"
)

const (
	MaxContentLength = 1000
	FeedLimit        = 50
)

var (
	ErrEmptyContent   = errors.New("post content is required")
	ErrContentTooLong = errors.New("post cannot be more than 1000 characters")
)

type Post struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Author    user.Author `json:"author"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type CreateParams struct {
	Content  string
	AuthorID string
}

type CreatePostRequest struct {
	Content string `json:"content"`
}

// NormalizeContent trims content and enforces the 1..1000 character bound.
func NormalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)

	if content == "" {
		return "", ErrEmptyContent
	}

	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", ErrContentTooLong
	}

	return content, nil
}
