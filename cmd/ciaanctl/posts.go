package main

import (
	"context"

	"github.com/geocoder89/ciaan/internal/domain/post"
	"github.com/geocoder89/ciaan/internal/store"
	"github.com/spf13/cobra"
)

func newPostsCmd(a *app) *cobra.Command {
	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Inspect posts",
	}

	var limit int
	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the newest posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				posts, err := s.Posts.FindAll(ctx, min(max(limit, 1), post.FeedLimit))
				if err != nil {
					return err
				}
				renderPosts(a.out, posts)
				return nil
			})
		},
	}
	feedCmd.Flags().IntVar(&limit, "limit", post.FeedLimit, "number of posts to show")

	postsCmd.AddCommand(feedCmd)
	return postsCmd
}
