package mailer

import (
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

var ErrBadRecipient = errors.New("bad recipient address")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailer struct {
	cfg  Config
	log  *zerolog.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

// Enabled is false when no SMTP host is configured; Send then only logs.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

func (m *Mailer) Send(template, recipientEmail string, data map[string]string) error {
	subject, body, err := Render(template, data)
	if err != nil {
		return err
	}

	if !m.Enabled() {
		m.log.Info().
			Str("template", template).
			Str("email", recipientEmail).
			Msg("smtp disabled, email skipped")
		return nil
	}

	if strings.ContainsAny(recipientEmail, "\r\n") {
		return fmt.Errorf("%w: %q", ErrBadRecipient, recipientEmail)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		singleLine(m.cfg.From), recipientEmail, encodeSubject(subject), body,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	if err := m.send(addr, auth, m.cfg.From, []string{recipientEmail}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("email", recipientEmail).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("email", recipientEmail).Str("template", template).Msg("email sent")
	return nil
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// encodeSubject folds the subject onto one line and Q-encodes anything outside ASCII.
func encodeSubject(s string) string {
	return mime.QEncoding.Encode("utf-8", singleLine(s))
}
