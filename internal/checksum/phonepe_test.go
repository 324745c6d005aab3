package checksum

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
)

func TestPhonePeRoundTrip(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"merchantTransactionId":"TRV-1"}`))

	xVerify, err := SignPhonePe(payload, "/pg/v1/pay", "salt-key", "1")
	require.NoError(t, err)
	require.Contains(t, xVerify, "###1")

	ok, err := VerifyPhonePe(xVerify, payload, "/pg/v1/pay", "salt-key", "1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPhonePeCallbackUsesEmptyPath(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"code":"PAYMENT_SUCCESS"}`))

	xVerify, err := SignPhonePe(payload, "", "salt-key", "2")
	require.NoError(t, err)

	ok, err := VerifyPhonePe(xVerify, payload, "", "salt-key", "2")
	require.NoError(t, err)
	require.True(t, ok)

	// the same header against a request path must not verify
	ok, err = VerifyPhonePe(xVerify, payload, "/pg/v1/pay", "salt-key", "2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPhonePeRejectsSaltIndexMismatch(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{}`))

	xVerify, err := SignPhonePe(payload, "", "salt-key", "3")
	require.NoError(t, err)

	ok, err := VerifyPhonePe(xVerify, payload, "", "salt-key", "1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPhonePeRejectsMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "nohash", "a###b###c"} {
		ok, err := VerifyPhonePe(header, "cGF5bG9hZA==", "", "salt-key", "1")
		require.NoError(t, err)
		require.False(t, ok, "header %q should not verify", header)
	}
}

func TestPhonePeMissingSaltIsConfigError(t *testing.T) {
	_, err := SignPhonePe("cGF5bG9hZA==", "/pg/v1/pay", "", "1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))

	_, err = VerifyPhonePe("x###1", "cGF5bG9hZA==", "", "", "1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}
