package main

import (
	"fmt"
	"net/http"

	"github.com/fafcommunity/backend/internal/middleware"
	"github.com/fafcommunity/backend/pkg/router"

	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(ct *cli.Context) error {
	if err := s.loadConfig(ct.String("config")); err != nil {
		return err
	}
	s.loadLogger()
	if err := s.loadDatabase(); err != nil {
		return err
	}
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	addr := fmt.Sprintf("%s:%s", s.configs.ApiServer.Host, s.configs.ApiServer.Port)
	s.logger.Infof("Starting server on %s", addr)

	return http.ListenAndServe(addr, s.router.Handler())
}

func (s *srv) loadRouter() {
	s.router = router.New(s.db, s.configs, s.logger)

	authRouter := s.router.Branch()
	authRouter.Before(middleware.ResolvePlayer())
	{
		router.POST(authRouter, "/maps/upload", s.mapDomain.UploadMap)
	}
}
