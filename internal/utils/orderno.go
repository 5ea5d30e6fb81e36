package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderNoDigits = 1000000

// GenerateOrderNo builds an order number from the timestamp prefix
// (YYYYMMDDHHMMSS) followed by 6 random zero-padded digits
func GenerateOrderNo(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(orderNoDigits))
	if err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}
	return fmt.Sprintf("%s%06d", now.Format("20060102150405"), n.Int64()), nil
}

// GenerateRefundNo returns a random refund number (uuid v4 without dashes)
func GenerateRefundNo() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
