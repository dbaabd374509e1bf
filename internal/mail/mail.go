package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Sender delivers portal mail (verification codes, reset tokens).
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends through a plain-auth SMTP relay.
type SMTPSender struct {
	Addr     string
	From     string
	Username string
	Password string
}

func (s *SMTPSender) Send(to, subject, body string) error {
	host := s.Addr
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body)
	return smtp.SendMail(s.Addr, auth, s.From, []string{to}, []byte(msg))
}

// LogSender is the development fallback when no SMTP relay is configured; it
// writes the mail to the process log instead of delivering it.
type LogSender struct{}

func (LogSender) Send(to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg(body)
	return nil
}
