package notifier

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Tijndh/Mallow/internal/domain"
)

// Notifier tells the shop owner about a new contact message.
type Notifier interface {
	NotifyContact(ctx context.Context, msg *domain.ContactMessage) error
}

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridConfig struct {
	APIKey   string
	From     string
	FromName string
	To       string
}

// SendGridNotifier mails contact messages to the shop inbox with the
// visitor's address as Reply-To.
type SendGridNotifier struct {
	client mailSender
	cfg    SendGridConfig
}

func NewSendGridNotifier(cfg SendGridConfig) (*SendGridNotifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("sendgrid from and to addresses are required")
	}
	return &SendGridNotifier{client: sendgrid.NewSendClient(cfg.APIKey), cfg: cfg}, nil
}

func (n *SendGridNotifier) NotifyContact(ctx context.Context, msg *domain.ContactMessage) error {
	from := mail.NewEmail(n.cfg.FromName, n.cfg.From)
	to := mail.NewEmail("", n.cfg.To)
	subject := "Contact: " + msg.Subject

	plain := fmt.Sprintf("Van: %s <%s>\nOnderwerp: %s\n\n%s", msg.Name, msg.Email, msg.Subject, msg.Message)
	htmlBody := fmt.Sprintf("<pre>%s</pre>", html.EscapeString(plain))

	message := mail.NewSingleEmail(from, subject, to, plain, htmlBody)
	message.SetReplyTo(mail.NewEmail(msg.Name, msg.Email))

	response, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	log.Printf("contact notification sent: status=%d id=%s", response.StatusCode, msg.ID)
	return nil
}

// LogNotifier only logs. Used when no mail provider is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyContact(_ context.Context, msg *domain.ContactMessage) error {
	log.Printf("contact notification skipped (no mailer configured): id=%s from=%s", msg.ID, msg.Email)
	return nil
}
