package checksum

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
)

// SignPhonePe builds the X-VERIFY value PhonePe expects:
// sha256(base64Payload + apiPath + saltKey) + "###" + saltIndex.
// apiPath is "/pg/v1/pay" style on requests and empty when the material is a
// callback response body.
func SignPhonePe(base64Payload, apiPath, saltKey, saltIndex string) (string, error) {
	if saltKey == "" || saltIndex == "" {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "phonepe salt key or index is not configured")
	}

	sum := sha256.Sum256([]byte(base64Payload + apiPath + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex, nil
}

// VerifyPhonePe checks an inbound X-VERIFY header against the base64 response
// body. The salt index embedded after "###" must match the configured one.
func VerifyPhonePe(xVerify, base64Payload, apiPath, saltKey, saltIndex string) (bool, error) {
	if saltKey == "" || saltIndex == "" {
		return false, pkgerrors.New(pkgerrors.CodeConfiguration, "phonepe salt key or index is not configured")
	}

	parts := strings.Split(xVerify, "###")
	if len(parts) != 2 {
		return false, nil
	}
	if parts[1] != saltIndex {
		return false, nil
	}

	expected, err := SignPhonePe(base64Payload, apiPath, saltKey, saltIndex)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(xVerify)), nil
}
