package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-jwt-secret")

func TestVerifyAcceptsMintedToken(t *testing.T) {
	token, err := Mint("user-1", "tenant-a", []string{"ADMIN", "MEMBER"}, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := Verify(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Sub)
	require.Equal(t, "tenant-a", claims.Tenant)
	require.Equal(t, []string{"ADMIN", "MEMBER"}, claims.Roles)
	require.NotZero(t, claims.Exp)
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := Mint("user-1", "tenant-a", nil, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = Verify(token, testSecret)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := Mint("user-1", "tenant-a", nil, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = Verify(token, []byte("some other secret"))
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	token, err := Mint("user-1", "tenant-a", nil, testSecret, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload := `{"sub":"user-2","tenant":"tenant-a","exp":` + "9999999999" + `}`
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payload))
	_, err = Verify(strings.Join(parts, "."), testSecret)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, token := range []string{
		"",
		"onlyonepart",
		"two.parts",
		"a.b.c.d",
		"!!!.???.###",
	} {
		_, err := Verify(token, testSecret)
		require.ErrorIs(t, err, ErrMalformed, "token %q", token)
	}
}

func TestVerifyRejectsNonHS256Header(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user-1"}`))
	sig := base64.RawURLEncoding.EncodeToString([]byte{})
	_, err := Verify(header+"."+payload+"."+sig, testSecret)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyAllowsMissingExp(t *testing.T) {
	// Hand-build a token without exp; signature computed via Mint is not
	// reusable here, so sign through Verify's own primitive instead.
	token := signRaw(t, `{"alg":"HS256","typ":"JWT"}`, `{"sub":"user-1","tenant":"t"}`)
	claims, err := Verify(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Sub)
	require.Zero(t, claims.Exp)
}

func signRaw(t *testing.T, header, payload string) string {
	t.Helper()
	h := base64.RawURLEncoding.EncodeToString([]byte(header))
	p := base64.RawURLEncoding.EncodeToString([]byte(payload))
	mac := hmac.New(sha256.New, testSecret)
	mac.Write([]byte(h + "." + p))
	return h + "." + p + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
