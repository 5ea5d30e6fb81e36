package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// CanonicalQuery joins non-empty params as sorted k=v pairs separated by &,
// leaving out the signature fields
func CanonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || k == "sign" || k == "sign_type" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(k)
		builder.WriteByte('=')
		builder.WriteString(params[k])
	}
	return builder.String()
}

// GenerateHMAC returns the hex HMAC-SHA256 of data
func GenerateHMAC(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC compares a hex signature against the expected one in constant time.
// Hex case is ignored.
func VerifyHMAC(data, secret, signature string) bool {
	expected := GenerateHMAC(data, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
