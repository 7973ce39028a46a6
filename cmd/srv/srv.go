package main

import (
	"github.com/fafcommunity/backend/config"
	"github.com/fafcommunity/backend/internal/common"
	"github.com/fafcommunity/backend/internal/domain"
	"github.com/fafcommunity/backend/internal/repository"
	"github.com/fafcommunity/backend/pkg/logger"
	"github.com/fafcommunity/backend/pkg/mail"
	"github.com/fafcommunity/backend/pkg/router"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	configs config.Configs
	logger  logger.Logger
	db      *gorm.DB

	mapRepo             repository.MapRepository
	playerRepo          repository.PlayerRepository
	domainBlacklistRepo repository.DomainBlacklistRepository
	featuredModRepo     repository.FeaturedModRepository

	mapDomain    domain.MapDomain
	emailService domain.EmailService

	router *router.Router
}

func (s *srv) loadConfig(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	s.configs = cfg
	return nil
}

func (s *srv) loadLogger() {
	s.logger = logger.NewLogger(logger.ParseLevel(s.configs.LogLevel))
}

func (s *srv) loadDatabase() error {
	var err error
	s.db, err = gorm.Open(mysql.New(mysql.Config{
		DSN:                      s.configs.Database.ConnectionString(),
		DefaultStringSize:        256,
		DisableDatetimePrecision: true,
	}), &gorm.Config{})

	return err
}

func (s *srv) loadRepos() {
	s.mapRepo = repository.NewMapRepository()
	s.playerRepo = repository.NewPlayerRepository()
	s.domainBlacklistRepo = repository.NewDomainBlacklistRepository()
	s.featuredModRepo = repository.NewFeaturedModRepository()
}

func (s *srv) loadDomains() {
	s.mapDomain = domain.NewMapDomain(s.mapRepo, s.playerRepo, common.NewPreviewRenderer())
	s.emailService = domain.NewEmailService(s.domainBlacklistRepo, mail.NewSMTPSender(s.configs.Mail))
}
