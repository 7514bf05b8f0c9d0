package main

import (
	"context"
	"fmt"
	"os"

	"github.com/geocoder89/ciaan/internal/config"
	"github.com/geocoder89/ciaan/internal/db"
	"github.com/geocoder89/ciaan/internal/store"
)

func main() {
	cfg := config.Load()

	a := &app{
		cfg: cfg,
		out: os.Stdout,
		openStore: func(ctx context.Context) (*store.Store, error) {
			// the CLI never migrates implicitly; use `ciaanctl migrate`
			c := cfg
			c.DBMigrate = false
			return store.Open(ctx, c, nil)
		},
		migrate: db.Migrate,
	}

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
