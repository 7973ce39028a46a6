package domain

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fafcommunity/backend/internal/repository"
	"github.com/fafcommunity/backend/pkg/errorx"
	"github.com/fafcommunity/backend/pkg/xcontext"
)

var emailAddressPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// EmailSender delivers one rendered mail. The default implementation speaks
// SMTP; tests plug in a recorder.
type EmailSender interface {
	SendMail(ctx context.Context, fromAddress, fromName, to, subject, body string) error
}

type EmailService interface {
	ValidateEmailAddress(ctx context.Context, address string) error
	SendActivationMail(ctx context.Context, username, address, activationURL string) error
	SendPasswordResetMail(ctx context.Context, username, address, passwordResetURL string) error
}

type emailService struct {
	domainBlacklistRepo repository.DomainBlacklistRepository
	sender              EmailSender
}

func NewEmailService(domainBlacklistRepo repository.DomainBlacklistRepository, sender EmailSender) EmailService {
	return &emailService{
		domainBlacklistRepo: domainBlacklistRepo,
		sender:              sender,
	}
}

// ValidateEmailAddress checks the basic local@domain.tld shape and rejects
// blacklisted domains.
func (s *emailService) ValidateEmailAddress(ctx context.Context, address string) error {
	if !emailAddressPattern.MatchString(address) {
		return errorx.New(errorx.EmailInvalid, "The email address %s is invalid", address)
	}

	domain := address[strings.LastIndex(address, "@")+1:]
	blacklisted, err := s.domainBlacklistRepo.ExistsByDomain(ctx, domain)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check domain blacklist: %v", err)
		return errorx.Unknown
	}
	if blacklisted {
		return errorx.New(errorx.EmailBlacklisted, "The email domain %s is blacklisted", domain)
	}

	return nil
}

func (s *emailService) SendActivationMail(ctx context.Context, username, address, activationURL string) error {
	template := xcontext.Configs(ctx).Mail.Registration
	return s.send(ctx, address, template.Subject,
		fmt.Sprintf(template.HtmlFormat, username, activationURL))
}

func (s *emailService) SendPasswordResetMail(ctx context.Context, username, address, passwordResetURL string) error {
	template := xcontext.Configs(ctx).Mail.PasswordReset
	return s.send(ctx, address, template.Subject,
		fmt.Sprintf(template.HtmlFormat, username, passwordResetURL))
}

func (s *emailService) send(ctx context.Context, to, subject, body string) error {
	cfg := xcontext.Configs(ctx).Mail
	err := s.sender.SendMail(ctx, cfg.FromEmailAddress, cfg.FromEmailName, to, subject, body)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot send mail to %s: %v", to, err)
		return errorx.Unknown
	}

	return nil
}
