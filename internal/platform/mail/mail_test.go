package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/payport/pkg/config"
)

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage("shop@example.com", []string{"a@example.com", "b@example.com"},
		WebhookSubject("1001"), "Transaction ID: 14769800001234567\nTest order")

	require.Equal(t, "From: shop@example.com\r\n"+
		"To: a@example.com, b@example.com\r\n"+
		"Subject: Payment webhook notification - Order No : 1001\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"Transaction ID: 14769800001234567\r\nTest order\r\n", string(msg))
}

func TestRecipients(t *testing.T) {
	require.Equal(t, []string{"a@example.com", "b@example.com"}, Recipients(" a@example.com, ,b@example.com"))
	require.Nil(t, Recipients(""))
}

func TestSMTPNotifier_Notify(t *testing.T) {
	n := NewSMTPNotifier(config.MailConfig{Host: "smtp.example.com", Port: 587, User: "shop@example.com", Password: "pw"},
		[]string{"merchant@example.com"})

	var gotAddr, gotFrom string
	var gotTo []string
	n.send = func(addr string, _ smtp.Auth, from string, to []string, _ []byte) error {
		gotAddr, gotFrom, gotTo = addr, from, to
		return nil
	}
	require.NoError(t, n.Notify(context.Background(), "s", "b"))
	require.Equal(t, "smtp.example.com:587", gotAddr)
	require.Equal(t, "shop@example.com", gotFrom)
	require.Equal(t, []string{"merchant@example.com"}, gotTo)

	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }
	require.ErrorContains(t, n.Notify(context.Background(), "s", "b"), "relay down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.Notify(ctx, "s", "b"), context.Canceled)
}
