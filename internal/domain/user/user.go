package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Author is the slice of a user embedded into posts.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Author() Author {
	return Author{ID: u.ID, Name: u.Name, Email: u.Email}
}

type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	Bio          string
}

// Normalized trims every field and lowercases the email, which is the unique key.
func (p CreateParams) Normalized() CreateParams {
	return CreateParams{
		Name:         strings.TrimSpace(p.Name),
		Email:        NormalizeEmail(p.Email),
		PasswordHash: p.PasswordHash,
		Bio:          strings.TrimSpace(p.Bio),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=50"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,bcryptmax"`
	Bio      string `json:"bio" binding:"omitempty,max=500"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)
