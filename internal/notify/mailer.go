package notify

import (
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Mailer sends a single email. Plain text and HTML bodies are both optional,
// but at least one must be set.
type Mailer interface {
	Send(subject, recipient, plainText, html string) error
}

// SMTPConfig carries the connection settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	sender string
}

// NewSMTPMailer creates an SMTPMailer from the given config.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, sender: cfg.Sender}, nil
}

// Send delivers one email to one recipient.
func (m *SMTPMailer) Send(subject, recipient, plainText, html string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return fmt.Errorf("mail sender: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("mail recipient: %w", err)
	}
	msg.Subject(subject)

	switch {
	case plainText != "" && html != "":
		msg.SetBodyString(gomail.TypeTextPlain, plainText)
		msg.AddAlternativeString(gomail.TypeTextHTML, html)
	case html != "":
		msg.SetBodyString(gomail.TypeTextHTML, html)
	default:
		msg.SetBodyString(gomail.TypeTextPlain, plainText)
	}

	return m.client.DialAndSend(msg)
}
