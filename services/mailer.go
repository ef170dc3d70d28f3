package services

import (
	"context"
	"fmt"
	"html"
	"net/url"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"yellowair/config"
)

// Message is a single transactional email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	fromEmail string
	fromName  string
	log       *logrus.Logger
	send      func(ctx context.Context, m *mail.SGMailV3) (*rest.Response, error)
}

func NewSendGridMailer(cfg config.Mail, log *logrus.Logger) *SendGridMailer {
	client := sendgrid.NewSendClient(cfg.SendGridAPIKey)
	return &SendGridMailer{
		fromEmail: cfg.From,
		fromName:  cfg.FromName,
		log:       log,
		send:      client.SendWithContext,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := m.send(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", response.StatusCode, response.Body)
	}

	m.log.WithFields(logrus.Fields{
		"to":     msg.ToEmail,
		"status": response.StatusCode,
	}).Debug("email sent")
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when
// email delivery is switched off.
type LogMailer struct {
	log *logrus.Logger
}

func NewLogMailer(log *logrus.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.WithFields(logrus.Fields{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
	}).Info("email delivery disabled, skipping")
	m.log.Debug(msg.Text)
	return nil
}

// NewMailer picks SendGrid when it is enabled and configured.
func NewMailer(enabled bool, cfg config.Mail, log *logrus.Logger) Mailer {
	if !enabled || cfg.SendGridAPIKey == "" || cfg.From == "" {
		return NewLogMailer(log)
	}
	return NewSendGridMailer(cfg, log)
}

// VerificationEmail builds the address confirmation mail. The name is
// user supplied and is escaped in the HTML part.
func VerificationEmail(appURL, toEmail, toName, token string) Message {
	link := appURL + "/auth/verify-email?token=" + url.QueryEscape(token)

	return Message{
		ToEmail: toEmail,
		ToName:  toName,
		Subject: "Verify your email | Yellow Airlines",
		Text: fmt.Sprintf(`Hi %s,

Please confirm your email address by opening the link below:

%s

If you did not create a Yellow Airlines account, you can ignore this email.`, greetingName(toName), link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p>
<p>Please confirm your email address:</p>
<p><a href="%s">Verify email</a></p>
<p>If you did not create a Yellow Airlines account, you can ignore this email.</p>`,
			html.EscapeString(greetingName(toName)), html.EscapeString(link)),
	}
}

func PasswordResetEmail(appURL, toEmail, toName, token string) Message {
	link := appURL + "/auth/reset-password?token=" + url.QueryEscape(token)

	return Message{
		ToEmail: toEmail,
		ToName:  toName,
		Subject: "Reset your password | Yellow Airlines",
		Text: fmt.Sprintf(`Hi %s,

We received a request to reset your password. The link below is valid for 24 hours:

%s

If you did not ask for this, no action is needed.`, greetingName(toName), link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. The link below is valid for 24 hours.</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not ask for this, no action is needed.</p>`,
			html.EscapeString(greetingName(toName)), html.EscapeString(link)),
	}
}

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
