package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateOrderToken returns a random 32 hex character token that correlates
// gateway callbacks with an order.
func GenerateOrderToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
