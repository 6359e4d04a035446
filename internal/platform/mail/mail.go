// Package mail sends webhook summaries to the merchant.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/pkg/config"
)

// Notifier delivers a plain text message. Implementations are best-effort.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends through a single SMTP relay.
type SMTPNotifier struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	send sendFunc
}

func NewSMTPNotifier(cfg config.MailConfig, to []string) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPNotifier{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: from,
		to:   to,
		send: smtp.SendMail,
	}
}

func (n *SMTPNotifier) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.send(n.addr, n.auth, n.from, n.to, BuildMessage(n.from, n.to, subject, body)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// BuildMessage renders a minimal RFC 5322 message with CRLF line endings.
func BuildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// WebhookSubject is the subject of the merchant summary for orderNo.
func WebhookSubject(orderNo string) string {
	return "Payment webhook notification - Order No : " + orderNo
}

type Noop struct{}

func (Noop) Notify(context.Context, string, string) error { return nil }

// Recipients splits a comma separated address list.
func Recipients(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func newNotifier(cfg *config.Config, log *zap.SugaredLogger) Notifier {
	to := Recipients(cfg.Webhook.EmailTo)
	if cfg.Mail.Host == "" || len(to) == 0 {
		log.Infow("mail not configured, webhook summaries disabled")
		return Noop{}
	}
	return NewSMTPNotifier(cfg.Mail, to)
}

var Module = fx.Options(
	fx.Provide(newNotifier),
)
