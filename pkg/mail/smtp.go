// Package mail provides the SMTP-backed mail sender.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/fafcommunity/backend/config"
)

type SMTPSender struct {
	cfg config.MailConfigs
}

func NewSMTPSender(cfg config.MailConfigs) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendMail(ctx context.Context, fromAddress, fromName, to, subject, body string) error {
	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s",
		fromName, fromAddress, to, subject, body,
	)

	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	return smtp.SendMail(addr, auth, fromAddress, []string{to}, []byte(msg))
}
