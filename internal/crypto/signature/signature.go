// Package signature signs and verifies webhook bodies.
//
// A signature is the base64 encoded HMAC-SHA256 of the exact body bytes,
// keyed with the shared webhook secret, carried in the X-Webhook-Signature
// header in both directions.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Header is the HTTP header carrying the signature.
const Header = "X-Webhook-Signature"

// Sign returns the signature of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the signature of body under secret.
// The comparison runs in constant time.
func Verify(body []byte, secret, sig string) bool {
	if sig == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(Sign(body, secret)))
}
