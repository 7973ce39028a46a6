package testutil

import (
	"context"
	"image"
)

// StubPreviewRenderer returns a solid image of the requested size.
type StubPreviewRenderer struct {
	Err error
}

func (r *StubPreviewRenderer) Render(scenarioFolder string, width, height int) (image.Image, error) {
	if r.Err != nil {
		return nil, r.Err
	}

	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

// SentMail is one mail recorded by RecordingEmailSender.
type SentMail struct {
	FromAddress string
	FromName    string
	To          string
	Subject     string
	Body        string
}

type RecordingEmailSender struct {
	Sent []SentMail
	Err  error
}

func (s *RecordingEmailSender) SendMail(ctx context.Context, fromAddress, fromName, to, subject, body string) error {
	if s.Err != nil {
		return s.Err
	}

	s.Sent = append(s.Sent, SentMail{
		FromAddress: fromAddress,
		FromName:    fromName,
		To:          to,
		Subject:     subject,
		Body:        body,
	})
	return nil
}

// StubGitWrapper fakes a checkout by invoking Populate on the target
// directory.
type StubGitWrapper struct {
	Populate func(targetDir string) error
	Calls    int
}

func (g *StubGitWrapper) CheckoutRef(ctx context.Context, remoteURL, ref, targetDir string) error {
	g.Calls++
	if g.Populate == nil {
		return nil
	}

	return g.Populate(targetDir)
}
