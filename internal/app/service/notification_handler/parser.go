package notification_handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
)

var (
	// ErrNotJSON rejects bodies that cannot be parsed at all.
	ErrNotJSON          = errors.New("received data is not in the JSON format")
	// ErrDeliveryInFlight means an identical delivery is being handled right now.
	ErrDeliveryInFlight = errors.New("identical notification is being processed")
)

// Delivery is one webhook request as received.
type Delivery struct {
	Body     []byte
	RemoteIP string
}

// checkSource applies the sender allow-list. A request without a source address is
// always refused; test mode accepts any other address.
func checkSource(cfg config.WebhookConfig, ip string) error {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return fmt.Errorf("%w: unauthorised access from the IP, host/received IP is empty", gateway.ErrAuthenticationFailure)
	}
	if cfg.TestMode || lo.Contains(cfg.AllowedIPs, ip) {
		return nil
	}
	return fmt.Errorf("%w: unauthorised access from the IP %s", gateway.ErrAuthenticationFailure, ip)
}

// parseDelivery decodes body and checks the mandatory members.
func parseDelivery(body []byte) (*gateway.Response, error) {
	if !json.Valid(body) {
		return nil, ErrNotJSON
	}
	resp, err := gateway.Normalize(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	if err := gateway.ValidateWebhook(resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// deliveryKey identifies a delivery for the in-flight guard. The checksum is part of
// the key because TRANSACTION_UPDATE events repeat the event tid.
func deliveryKey(resp *gateway.Response) string {
	return fmt.Sprintf("%s:%s:%s", resp.Event.Type, resp.Event.TID, resp.Event.Checksum)
}
