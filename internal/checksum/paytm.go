package checksum

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"

	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
)

// Paytm's checksum scheme: the sorted params are hashed together with a
// 4-char random salt, the salt is appended to the hex digest, and the
// result is AES-128-CBC encrypted under the merchant key with a fixed IV.
const (
	paytmIV       = "@@@@&&&&####$$$$"
	paytmSaltLen  = 4
	paytmKeyLen   = 16
	checksumField = "CHECKSUMHASH"
)

var paytmSaltCharset = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// SignPaytm computes the CHECKSUMHASH for the given form params. Any
// existing CHECKSUMHASH entry in params is ignored.
func SignPaytm(params map[string]string, merchantKey string) (string, error) {
	if err := checkPaytmKey(merchantKey); err != nil {
		return "", err
	}

	salt, err := randomPaytmSalt()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating checksum salt")
	}
	return signPaytmWithSalt(params, merchantKey, salt)
}

// VerifyPaytm decrypts the submitted checksum, recovers the trailing salt,
// and recomputes the hash over the params with that salt.
func VerifyPaytm(params map[string]string, checksum, merchantKey string) (bool, error) {
	if err := checkPaytmKey(merchantKey); err != nil {
		return false, err
	}
	if checksum == "" {
		return false, nil
	}

	plaintext, err := paytmDecrypt(checksum, merchantKey)
	if err != nil {
		return false, nil
	}
	if len(plaintext) <= paytmSaltLen {
		return false, nil
	}

	salt := plaintext[len(plaintext)-paytmSaltLen:]
	expected, err := signPaytmWithSalt(params, merchantKey, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(checksum)) == 1, nil
}

func signPaytmWithSalt(params map[string]string, merchantKey, salt string) (string, error) {
	material := paytmParamString(params) + "|" + salt
	sum := sha256.Sum256([]byte(material))
	plaintext := hex.EncodeToString(sum[:]) + salt

	encrypted, err := paytmEncrypt(plaintext, merchantKey)
	if err != nil {
		return "", err
	}
	return encrypted, nil
}

// paytmParamString joins the non-checksum params as "key=value" pairs in
// key order, pipe-separated.
func paytmParamString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == checksumField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "|")
}

func paytmEncrypt(plaintext, merchantKey string) (string, error) {
	block, err := aes.NewCipher([]byte(merchantKey))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "paytm merchant key rejected by cipher")
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, []byte(paytmIV)).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

func paytmDecrypt(checksum, merchantKey string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(checksum)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", pkgerrors.New(pkgerrors.CodeSignature, "checksum is not block aligned")
	}

	block, err := aes.NewCipher([]byte(merchantKey))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "paytm merchant key rejected by cipher")
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, []byte(paytmIV)).CryptBlocks(out, raw)

	unpadded, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func checkPaytmKey(merchantKey string) error {
	if merchantKey == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "paytm merchant key is not configured")
	}
	if len(merchantKey) != paytmKeyLen {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "paytm merchant key must be 16 bytes")
	}
	return nil
}

func randomPaytmSalt() (string, error) {
	buf := make([]byte, paytmSaltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = paytmSaltCharset[int(b)%len(paytmSaltCharset)]
	}
	return string(buf), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(pad)}, pad)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "invalid padded length")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "invalid padding byte")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, pkgerrors.New(pkgerrors.CodeSignature, "inconsistent padding")
		}
	}
	return data[:len(data)-pad], nil
}
