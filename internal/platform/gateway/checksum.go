package gateway

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reverse returns s with its runes in reverse order. The gateway signs callbacks
// with the reversed payment access key.
func Reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// RedirectChecksum signs a redirect return: tid + txn_secret + status + reverse(key).
func RedirectChecksum(tid, txnSecret, status, accessKey string) string {
	return sha256Hex(tid + txnSecret + status + Reverse(accessKey))
}

// VerifyRedirect fails closed on any missing component.
func VerifyRedirect(tid, txnSecret, status, checksum, accessKey string) error {
	if tid == "" || txnSecret == "" || status == "" || checksum == "" || accessKey == "" {
		return fmt.Errorf("%w: incomplete redirect checksum parameters", ErrAuthenticationFailure)
	}
	if !equalHex(RedirectChecksum(tid, txnSecret, status, accessKey), checksum) {
		return fmt.Errorf("%w: while redirecting some data has been changed, the hash check failed", ErrAuthenticationFailure)
	}
	return nil
}

// WebhookChecksum signs a webhook event:
// event.tid + event.type + result.status + [amount] + [currency] + reverse(key).
// Amount and currency take part only when present in the payload.
func WebhookChecksum(eventTID, eventType, resultStatus, amount, currency, accessKey string) string {
	return sha256Hex(eventTID + eventType + resultStatus + amount + currency + Reverse(accessKey))
}

// VerifyWebhook recomputes the checksum of a normalized webhook payload.
func VerifyWebhook(resp *Response, accessKey string) error {
	if resp == nil || resp.Event == nil || resp.Event.Checksum == "" {
		return fmt.Errorf("%w: checksum not received", ErrAuthenticationFailure)
	}
	if accessKey == "" {
		return fmt.Errorf("%w: payment access key is not configured", ErrAuthenticationFailure)
	}
	amount, _ := resp.rawMember("transaction", "amount")
	currency, _ := resp.rawMember("transaction", "currency")
	want := WebhookChecksum(resp.Event.TID.String(), string(resp.Event.Type), string(resp.Result.Status), amount, currency, accessKey)
	if !equalHex(want, resp.Event.Checksum) {
		return fmt.Errorf("%w: while notifying some data has been changed, the hash check failed", ErrAuthenticationFailure)
	}
	return nil
}

func equalHex(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(strings.TrimSpace(got)))) == 1
}

// rawMember renders a scalar of the patched document the way it appeared on the wire.
func (r *Response) rawMember(path ...string) (string, bool) {
	v, ok := r.Lookup(path...)
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

var tidPattern = regexp.MustCompile(`^\d{17}$`)

// IsTID reports whether s is a 17-digit transaction id.
func IsTID(s string) bool { return tidPattern.MatchString(s) }

var requiredWebhookMembers = []struct {
	category string
	members  []string
}{
	{"event", []string{"type", "checksum", "tid"}},
	{"merchant", []string{"vendor", "project"}},
	{"result", []string{"status"}},
	{"transaction", []string{"tid", "payment_type", "status"}},
}

// ValidateWebhook checks mandatory members and identifier formats of a webhook payload.
func ValidateWebhook(resp *Response) error {
	if resp == nil {
		return fmt.Errorf("%w: empty payload", ErrAuthenticationFailure)
	}
	for _, req := range requiredWebhookMembers {
		if _, ok := resp.Lookup(req.category); !ok {
			return fmt.Errorf("%w: required parameter category(%s) not received", ErrAuthenticationFailure, req.category)
		}
		for _, member := range req.members {
			v, ok := resp.rawMember(req.category, member)
			if !ok {
				return fmt.Errorf("%w: required parameter(%s) in the category(%s) not received", ErrAuthenticationFailure, member, req.category)
			}
			if member == "tid" && !IsTID(v) {
				return fmt.Errorf("%w: invalid TID received in the category(%s) %s", ErrAuthenticationFailure, req.category, member)
			}
		}
	}
	if v, ok := resp.rawMember("event", "parent_tid"); ok && !IsTID(v) {
		return fmt.Errorf("%w: invalid TID received in the category(event) parent_tid", ErrAuthenticationFailure)
	}
	return nil
}
