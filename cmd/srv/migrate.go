package main

import (
	"context"

	"github.com/fafcommunity/backend/migration"
	"github.com/fafcommunity/backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) migrate(ct *cli.Context) error {
	if err := s.loadConfig(ct.String("config")); err != nil {
		return err
	}
	s.loadLogger()
	if err := s.loadDatabase(); err != nil {
		return err
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, s.configs)
	ctx = xcontext.WithLogger(ctx, s.logger)
	ctx = xcontext.WithDB(ctx, s.db)

	return migration.Migrate(ctx)
}
