// Package wayforpay is the payment-gateway adapter: invoice creation,
// callback parsing and the gateway's HMAC-MD5 signature scheme.
package wayforpay

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Signature computes the gateway signature: HMAC-MD5 over the
// semicolon-joined fields, in the exact order the gateway documents for the
// given request or callback type.
func Signature(secret string, fields ...string) string {
	src := strings.Join(fields, ";")
	mac := hmac.New(md5.New, []byte(secret))
	mac.Write([]byte(src))
	return hex.EncodeToString(mac.Sum(nil))
}
