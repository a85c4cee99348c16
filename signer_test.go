package sessions_test

import (
	"strings"
	"testing"
	"time"

	sessions "github.com/goliatone/go-sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner() *sessions.Signer {
	return sessions.NewSigner(
		[]byte("test-signing-key-0123456789abcdef"),
		time.Hour,
		"test-issuer",
		[]string{"test-audience"},
		nil,
	)
}

func TestSignerRoundTrip(t *testing.T) {
	signer := newTestSigner()

	payload := map[string]any{
		"uid":   "user-123",
		"role":  sessions.RoleMember,
		"email": "ned@example.com",
	}

	token, err := signer.Sign(payload, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, sessions.RoleMember.String(), claims.Role())
	assert.Equal(t, "ned@example.com", claims.GetString("email", ""))
	assert.True(t, claims.Expires().After(time.Now()))
}

func TestSignerRejectsNonPositiveTTL(t *testing.T) {
	signer := newTestSigner()

	_, err := signer.Sign(map[string]any{"uid": "user-123"}, 0)
	require.Error(t, err)

	_, err = signer.Sign(map[string]any{"uid": "user-123"}, -time.Minute)
	require.Error(t, err)
}

func TestSignerVerifyExpiredToken(t *testing.T) {
	signer := newTestSigner()

	token, err := signer.Sign(map[string]any{"uid": "user-123"}, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = signer.Verify(token)
	require.Error(t, err)
	assert.True(t, sessions.IsTokenExpiredError(err))
}

func TestSignerVerifyTamperedToken(t *testing.T) {
	signer := newTestSigner()

	token, err := signer.Sign(map[string]any{"uid": "user-123"}, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// flip a character in the signature
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = signer.Verify(tampered)
	require.Error(t, err)
}

func TestSignerVerifyGarbageToken(t *testing.T) {
	signer := newTestSigner()

	_, err := signer.Verify("not-a-token")
	require.Error(t, err)
	assert.True(t, sessions.IsMalformedError(err))
}

func TestSignerVerifyWrongKey(t *testing.T) {
	signer := newTestSigner()
	other := sessions.NewSigner(
		[]byte("other-signing-key-0123456789abcd"),
		time.Hour,
		"test-issuer",
		[]string{"test-audience"},
		nil,
	)

	token, err := other.Sign(map[string]any{"uid": "user-123"}, time.Hour)
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.Error(t, err)
}

func TestSignerVerifyWrongIssuer(t *testing.T) {
	issued := sessions.NewSigner(
		[]byte("test-signing-key-0123456789abcdef"),
		time.Hour,
		"someone-else",
		nil,
		nil,
	)

	token, err := issued.Sign(map[string]any{"uid": "user-123"}, time.Hour)
	require.NoError(t, err)

	verifier := sessions.NewSigner(
		[]byte("test-signing-key-0123456789abcdef"),
		time.Hour,
		"test-issuer",
		nil,
		nil,
	)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestSignerMintScoped(t *testing.T) {
	signer := newTestSigner()

	token, expiresAt, err := signer.MintScoped("user-123", sessions.ScopedTokenOptions{
		TTL:    15 * time.Minute,
		Scopes: []string{"password:reset"},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject())

	scopes, ok := claims.Get("scopes")
	require.True(t, ok)
	assert.NotEmpty(t, scopes)
}

func TestSignerMintScopedRequiresUID(t *testing.T) {
	signer := newTestSigner()

	_, _, err := signer.MintScoped("", sessions.ScopedTokenOptions{})
	require.Error(t, err)
}
