package mailer

import (
	"context"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/config"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
)

// Sender delivers transactional mail. Services depend on this interface so
// tests can capture messages instead of hitting SMTP.
type Sender interface {
	SendGalleryInvite(ctx context.Context, invite GalleryInvite) error
}

// GalleryInvite carries everything needed to deliver a guest's access link.
type GalleryInvite struct {
	To         string
	GuestName  string
	EventName  string
	GalleryURL string
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
	logg   *logger.Logger
}

// NewSMTPSender builds a gomail-backed sender from the mail config.
func NewSMTPSender(cfg config.MailConfig, logg *logger.Logger) (Sender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("mail from address is required")
	}
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.DefaultFrom,
		logg:   logg,
	}, nil
}

func (s *smtpSender) SendGalleryInvite(ctx context.Context, invite GalleryInvite) error {
	if strings.TrimSpace(invite.To) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(invite.GalleryURL) == "" {
		return fmt.Errorf("gallery url is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", invite.To)
	msg.SetHeader("Subject", fmt.Sprintf("Suas fotos de %s estão prontas", invite.EventName))
	msg.SetBody("text/html", inviteBody(invite))

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending gallery invite: %w", err)
	}

	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("gallery invite sent to %s", invite.To))
	}
	return nil
}

func inviteBody(invite GalleryInvite) string {
	name := invite.GuestName
	if name == "" {
		name = "convidado"
	}
	return fmt.Sprintf(
		`<p>Olá %s,</p>
<p>As fotos do evento <strong>%s</strong> já estão disponíveis. Acesse sua galeria pessoal pelo link abaixo:</p>
<p><a href="%s">%s</a></p>
<p>Este link é pessoal e não deve ser compartilhado.</p>`,
		name, invite.EventName, invite.GalleryURL, invite.GalleryURL,
	)
}
