// Package checksum holds the stateless signature engines for each payment
// provider. Every function takes the exact material the provider specifies
// plus a secret, and returns either a signature or a verification verdict.
// A missing or malformed secret is a configuration failure, never reported
// as "signature invalid".
package checksum

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
)

// SignRazorpay computes the HMAC-SHA256 signature Razorpay expects over
// "{order_id}|{payment_id}", hex-encoded.
func SignRazorpay(orderID, paymentID, secret string) (string, error) {
	if secret == "" {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "razorpay secret is not configured")
	}
	if orderID == "" || paymentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id and payment id are required")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyRazorpay recomputes the signature and compares it to the
// client-submitted one in constant time.
func VerifyRazorpay(orderID, paymentID, signature, secret string) (bool, error) {
	expected, err := SignRazorpay(orderID, paymentID, secret)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// VerifyRazorpayWebhook authenticates a server-pushed webhook: HMAC-SHA256
// over the raw body, hex-encoded, keyed by the webhook secret.
func VerifyRazorpayWebhook(body []byte, signature, secret string) (bool, error) {
	if secret == "" {
		return false, pkgerrors.New(pkgerrors.CodeConfiguration, "razorpay webhook secret is not configured")
	}
	if signature == "" {
		return false, nil
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}
