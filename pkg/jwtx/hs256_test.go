package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestKeySet() *KeySet {
	ks := NewKeySet()
	ks.Add("primary", []byte("0123456789abcdef0123456789abcdef"))
	return ks
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	ks := newTestKeySet()
	signer := NewSignerHS256(ks)
	verifier := NewVerifierHS256(ks, "agency-auth")

	claims := NewAccessClaims(
		"user-1", "hms-cli",
		[]string{"read"},
		map[string][]string{"cber.ai": {"read", "write"}},
		time.Hour, "agency-auth", time.Now(),
	)

	raw, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "hms-cli", got.ClientID)
	require.Equal(t, []string{"read"}, got.Scopes)
	require.Equal(t, []string{"read", "write"}, got.DomainAccess["cber.ai"])
	require.NotEmpty(t, got.ID, "jti should be set")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewSignerHS256(newTestKeySet())

	other := NewKeySet()
	other.Add("primary", []byte("a-completely-different-secret!!!"))
	verifier := NewVerifierHS256(other, "agency-auth")

	raw, err := signer.Sign(NewAccessClaims(
		"user-1", "hms-cli", []string{"read"}, nil, time.Hour, "agency-auth", time.Now(),
	))
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyRejectsExpired(t *testing.T) {
	ks := newTestKeySet()
	signer := NewSignerHS256(ks)
	verifier := NewVerifierHS256(ks, "agency-auth")
	verifier.Leeway = 0

	raw, err := signer.Sign(NewAccessClaims(
		"user-1", "hms-cli", []string{"read"}, nil,
		time.Hour, "agency-auth", time.Now().Add(-2*time.Hour),
	))
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	ks := newTestKeySet()
	signer := NewSignerHS256(ks)
	verifier := NewVerifierHS256(ks, "some-other-issuer")

	raw, err := signer.Sign(NewAccessClaims(
		"user-1", "hms-cli", []string{"read"}, nil, time.Hour, "agency-auth", time.Now(),
	))
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	verifier := NewVerifierHS256(newTestKeySet(), "agency-auth")

	_, err := verifier.Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestKeyRotationKeepsOldTokensVerifiable(t *testing.T) {
	ks := newTestKeySet()
	signer := NewSignerHS256(ks)
	verifier := NewVerifierHS256(ks, "agency-auth")

	oldToken, err := signer.Sign(NewAccessClaims(
		"user-1", "hms-cli", []string{"read"}, nil, time.Hour, "agency-auth", time.Now(),
	))
	require.NoError(t, err)

	// Rotate: new active key, previous key kept for verification.
	ks.Add("rotated", []byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, ks.SetActive("rotated"))

	newToken, err := signer.Sign(NewAccessClaims(
		"user-2", "hms-cli", []string{"read"}, nil, time.Hour, "agency-auth", time.Now(),
	))
	require.NoError(t, err)

	_, err = verifier.Verify(oldToken)
	require.NoError(t, err, "token signed before rotation must stay valid")

	got, err := verifier.Verify(newToken)
	require.NoError(t, err)
	require.Equal(t, "user-2", got.Subject)
}

func TestSetActiveUnknownKID(t *testing.T) {
	ks := newTestKeySet()
	require.Error(t, ks.SetActive("missing"))
	require.True(t, ks.IsReady())
}

func TestScopesForDomain(t *testing.T) {
	c := NewAccessClaims(
		"user-1", "hms-cli", []string{"read"},
		map[string][]string{
			"cber.ai":  {"read", "write"},
			"nhtsa.ai": {},
		},
		time.Hour, "agency-auth", time.Now(),
	)

	require.Equal(t, []string{"read", "write"}, c.ScopesForDomain("cber.ai"))
	require.Empty(t, c.ScopesForDomain("nhtsa.ai"), "explicit empty grant wins over fallback")
	require.Equal(t, []string{"read"}, c.ScopesForDomain("usitc.ai"))
}
