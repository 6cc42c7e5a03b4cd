package credcrypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkarpenko/socialvault/internal/errs"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := DeriveKey([]byte("master-secret-for-tests"), "credentials")
	require.NoError(t, err)
	require.Len(t, key, KeyLen)
	return key
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(t)
	plain := []byte(`{"access_token":"tok","organizations":[{"id":"org-1"}]}`)

	token, err := Encrypt(key, plain)
	require.NoError(t, err)

	got, err := Decrypt(key, token)
	require.NoError(t, err)
	require.Equal(t, plain, got)
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	key := testKey(t)
	plain := []byte("same plaintext")

	first, err := Encrypt(key, plain)
	require.NoError(t, err)
	second, err := Encrypt(key, plain)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestEncrypt_WireForm(t *testing.T) {
	key := testKey(t)
	token, err := Encrypt(key, []byte("x"))
	require.NoError(t, err)

	ivPart, ctPart, ok := strings.Cut(token, ":")
	require.True(t, ok)
	iv, err := base64.StdEncoding.DecodeString(ivPart)
	require.NoError(t, err)
	require.Len(t, iv, 12)
	_, err = base64.StdEncoding.DecodeString(ctPart)
	require.NoError(t, err)
}

func TestDecrypt_WrongKey(t *testing.T) {
	key := testKey(t)
	other, err := DeriveKey([]byte("a different master"), "credentials")
	require.NoError(t, err)

	token, err := Encrypt(key, []byte("secret"))
	require.NoError(t, err)

	_, err = Decrypt(other, token)
	require.ErrorIs(t, err, errs.ErrDecryption)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key := testKey(t)
	token, err := Encrypt(key, []byte("secret"))
	require.NoError(t, err)

	ivPart, ctPart, _ := strings.Cut(token, ":")
	ct, err := base64.StdEncoding.DecodeString(ctPart)
	require.NoError(t, err)
	ct[0] ^= 0x01
	tampered := ivPart + ":" + base64.StdEncoding.EncodeToString(ct)

	_, err = Decrypt(key, tampered)
	require.ErrorIs(t, err, errs.ErrDecryption)
}

func TestDecrypt_MalformedToken(t *testing.T) {
	key := testKey(t)

	for _, token := range []string{
		"no-delimiter",
		"!!!:" + base64.StdEncoding.EncodeToString([]byte("ct")),
		base64.StdEncoding.EncodeToString([]byte("short")) + ":!!!",
		base64.StdEncoding.EncodeToString([]byte("short")) + ":" + base64.StdEncoding.EncodeToString([]byte("ct")),
	} {
		_, err := Decrypt(key, token)
		require.ErrorIs(t, err, errs.ErrDecryption, "token %q", token)
	}
}

func TestDeriveKey_EmptyMaster(t *testing.T) {
	_, err := DeriveKey(nil, "credentials")
	require.Error(t, err)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	a, err := DeriveKey([]byte("m"), "credentials")
	require.NoError(t, err)
	b, err := DeriveKey([]byte("m"), "credentials")
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := DeriveKey([]byte("m"), "other-context")
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}
