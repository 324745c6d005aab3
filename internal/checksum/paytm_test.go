package checksum

import (
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
)

const testMerchantKey = "0123456789abcdef"

func paytmTestParams() map[string]string {
	return map[string]string{
		"MID":          "TriveniTest",
		"ORDER_ID":     "TRV-1A2B3C",
		"TXN_AMOUNT":   "1499.00",
		"CUST_ID":      "guest",
		"CHANNEL_ID":   "WEB",
		"WEBSITE":      "WEBSTAGING",
		"CALLBACK_URL": "https://example.com/webhooks/paytm",
	}
}

func TestPaytmRoundTrip(t *testing.T) {
	params := paytmTestParams()

	checksum, err := SignPaytm(params, testMerchantKey)
	require.NoError(t, err)
	require.NotEmpty(t, checksum)

	ok, err := VerifyPaytm(params, checksum, testMerchantKey)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPaytmVerifyIgnoresChecksumField(t *testing.T) {
	params := paytmTestParams()

	checksum, err := SignPaytm(params, testMerchantKey)
	require.NoError(t, err)

	// the callback form carries the checksum alongside the signed fields
	params[checksumField] = checksum
	ok, err := VerifyPaytm(params, checksum, testMerchantKey)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPaytmRejectsTamperedParams(t *testing.T) {
	params := paytmTestParams()

	checksum, err := SignPaytm(params, testMerchantKey)
	require.NoError(t, err)

	params["TXN_AMOUNT"] = "1.00"
	ok, err := VerifyPaytm(params, checksum, testMerchantKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPaytmRejectsGarbageChecksum(t *testing.T) {
	for _, checksum := range []string{"", "not-base64!!", "YWJjZA=="} {
		ok, err := VerifyPaytm(paytmTestParams(), checksum, testMerchantKey)
		require.NoError(t, err)
		require.False(t, ok, "checksum %q should not verify", checksum)
	}
}

func TestPaytmKeyValidation(t *testing.T) {
	_, err := SignPaytm(paytmTestParams(), "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))

	_, err = SignPaytm(paytmTestParams(), "short")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))

	_, err = VerifyPaytm(paytmTestParams(), "YWJjZA==", "short")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}
