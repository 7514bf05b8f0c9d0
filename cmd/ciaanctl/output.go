package main

import (
	"io"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/jedib0t/go-pretty/v6/table"
)

const previewRunes = 60

func newTable(w io.Writer, headers ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(headers))
	return t
}

func renderUsers(w io.Writer, users []user.User) {
	t := newTable(w, "ID", "Name", "Email", "Joined")
	for _, u := range users {
		t.AppendRow(table.Row{u.ID, u.Name, u.Email, u.CreatedAt.Format(time.DateOnly)})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(users)})
	t.Render()
}

func renderPosts(w io.Writer, posts []post.Post) {
	t := newTable(w, "ID", "Author", "Content", "Created")
	for _, p := range posts {
		t.AppendRow(table.Row{p.ID, p.Author.Name, preview(p.Content), p.CreatedAt.Format(time.DateTime)})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(posts)})
	t.Render()
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:previewRunes-1]) + "…"
}
