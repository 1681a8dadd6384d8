package shared

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnsureTokenIsStablePerSession(t *testing.T) {
	m := NewCSRFManager("csrfsecret", time.Hour)
	sess := &Session{ID: "abc"}

	first, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureTokenRotatesExpiredToken(t *testing.T) {
	m := NewCSRFManager("csrfsecret", time.Nanosecond)
	sess := &Session{ID: "abc"}

	first, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	second, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyToken(t *testing.T) {
	m := NewCSRFManager("csrfsecret", time.Hour)
	sess := &Session{ID: "abc"}

	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	require.NoError(t, m.VerifyToken(context.Background(), sess, token))
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, "forged"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
	require.ErrorIs(t, m.VerifyToken(context.Background(), nil, token), ErrCSRFTokenMissing)
}

func TestVerifyTokenExpired(t *testing.T) {
	m := NewCSRFManager("csrfsecret", time.Nanosecond)
	sess := &Session{ID: "abc"}

	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, token), ErrCSRFTokenExpired)
}

func TestVerifyTokenRejectsForeignSessionToken(t *testing.T) {
	m := NewCSRFManager("csrfsecret", time.Hour)
	victim := &Session{ID: "victim"}
	attacker := &Session{ID: "attacker"}

	stolen, err := m.EnsureToken(context.Background(), attacker)
	require.NoError(t, err)

	// Plant the stolen token into the victim session store: the signature
	// check over the session ID must still reject it.
	victim.Set(CSRFSessionKey, stolen)
	require.ErrorIs(t, m.VerifyToken(context.Background(), victim, stolen), ErrCSRFTokenMismatch)
}
