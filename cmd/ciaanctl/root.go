package main

import (
	"context"
	"io"
	"time"

	"github.com/geocoder89/ciaan/internal/config"
	"github.com/geocoder89/ciaan/internal/store"
	"github.com/spf13/cobra"
)

type app struct {
	cfg       config.Config
	out       io.Writer
	openStore func(ctx context.Context) (*store.Store, error)
	migrate   func(databaseURL string) error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ciaanctl",
		Short:         "Ciaan admin CLI",
		Long:          "Operate on the Ciaan social feed store directly: migrations, user lookup and the feed.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	root.AddCommand(newMigrateCmd(a), newUsersCmd(a), newPostsCmd(a))
	return root
}

// withStore opens the store for one command and closes it afterwards.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	return fn(ctx, s)
}
