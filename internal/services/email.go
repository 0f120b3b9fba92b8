package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/config"
	"github.com/princeprakhar/yamdb-backend/internal/metrics"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a rendered message. An error means the message was not
// handed to the transport; callers surface it rather than retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer picks the backend named by EMAIL_BACKEND.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.EmailBackend == "smtp" {
		return NewSMTPMailer(cfg)
	}
	return &ConsoleMailer{from: cfg.FromEmail}
}

// SMTPMailer sends through gomail behind a circuit breaker. While the
// breaker is open, sends fail immediately instead of waiting on a dead
// relay.
type SMTPMailer struct {
	from    string
	dialer  *gomail.Dialer
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.SMTPInsecureSkipVerify,
	}

	settings := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("mail circuit breaker changed state")
		},
	}

	return &SMTPMailer{
		from:    cfg.FromEmail,
		dialer:  d,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := m.breaker.Execute(func() (struct{}, error) {
		gm := gomail.NewMessage()
		gm.SetHeader("From", m.from)
		gm.SetHeader("To", msg.To)
		gm.SetHeader("Subject", msg.Subject)
		gm.SetBody("text/plain", msg.Body)
		return struct{}{}, m.dialer.DialAndSend(gm)
	})
	if err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("smtp", "failure").Inc()
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}

	metrics.MailDeliveriesTotal.WithLabelValues("smtp", "success").Inc()
	return nil
}

// ConsoleMailer writes messages to the log. It is the development default.
type ConsoleMailer struct {
	from string
}

func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	logger.WithFields(logrus.Fields{
		"from":    m.from,
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	metrics.MailDeliveriesTotal.WithLabelValues("console", "success").Inc()
	return nil
}

const confirmationSubject = "Your YaMDb confirmation code"

func renderConfirmationEmail(to, username, code, tokenURL string) Message {
	body := fmt.Sprintf(`Welcome to YaMDb!

Your username: %s
Your confirmation code: %s

Exchange the username and confirmation code for an access token at:
%s

If you did not request this code, someone probably entered your address by
mistake and you can ignore this message.

The YaMDb team
`, username, code, tokenURL)

	return Message{To: to, Subject: confirmationSubject, Body: body}
}
