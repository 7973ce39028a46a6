package main

import (
	"context"

	"github.com/fafcommunity/backend/internal/domain"
	"github.com/fafcommunity/backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) deploy(ct *cli.Context) error {
	if err := s.loadConfig(ct.String("config")); err != nil {
		return err
	}
	s.loadLogger()
	if err := s.loadDatabase(); err != nil {
		return err
	}
	s.loadRepos()

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, s.configs)
	ctx = xcontext.WithLogger(ctx, s.logger)
	ctx = xcontext.WithDB(ctx, s.db)

	mod, err := s.featuredModRepo.GetByTechnicalName(ctx, ct.String("mod"))
	if err != nil {
		return err
	}

	task := domain.NewLegacyFeaturedModDeploymentTask(domain.NewGitWrapper(), s.featuredModRepo, nil)
	return task.SetFeaturedMod(mod).Run(ctx)
}
