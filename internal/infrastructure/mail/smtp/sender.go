package smtp

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Sender delivers approved replies over plain SMTP with optional auth.
type Sender struct {
	cfg Config
}

var _ ports.MailSender = (*Sender)(nil)

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

func (s *Sender) Send(ctx context.Context, toEmail, toName, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(toEmail) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "send mail", fmt.Errorf("empty recipient"))
	}

	msg := buildMessage(s.cfg.From, toEmail, toName, subject, body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{toEmail}, msg); err != nil {
		return domain.WrapError(domain.ErrTemporary, "send mail", err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 message with the subject and display
// name Q-encoded so Cyrillic survives transport.
func buildMessage(from, toEmail, toName, subject, body string) []byte {
	to := toEmail
	if strings.TrimSpace(toName) != "" {
		to = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", toName), toEmail)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
