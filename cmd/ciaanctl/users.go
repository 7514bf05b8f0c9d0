package main

import (
	"context"
	"strings"

	"github.com/geocoder89/ciaan/internal/domain/user"
	"github.com/geocoder89/ciaan/internal/store"
	"github.com/spf13/cobra"
)

func newUsersCmd(a *app) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Look up users",
	}

	var limit int
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search users by name or email",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				users, err := s.Users.Search(ctx, q, min(max(limit, 1), user.MaxSearchLimit))
				if err != nil {
					return err
				}
				renderUsers(a.out, users)
				return nil
			})
		},
	}
	searchCmd.Flags().IntVar(&limit, "limit", user.DefaultSearchLimit, "maximum number of results")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a profile and its posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				u, err := s.Users.FindByID(ctx, args[0])
				if err != nil {
					return err
				}
				posts, err := s.Posts.FindByAuthor(ctx, u.ID)
				if err != nil {
					return err
				}
				renderUsers(a.out, []user.User{u})
				renderPosts(a.out, posts)
				return nil
			})
		},
	}

	usersCmd.AddCommand(searchCmd, showCmd)
	return usersCmd
}
