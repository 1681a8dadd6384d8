package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"
)

const (
	// CSRFSessionKey is the session key holding the current catalog token.
	CSRFSessionKey = "catalog_csrf"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"

	// DefaultCSRFTokenTTL bounds how long a rendered form stays submittable.
	DefaultCSRFTokenTTL = 12 * time.Hour

	csrfTimestampLen = 8
)

// CSRFManager issues and verifies catalog form tokens. A token is the
// issue time plus an HMAC over the session ID and that time, so it is bound
// to one session and expires after the configured TTL without any server
// side state beyond the session entry.
type CSRFManager struct {
	secret []byte
	ttl    time.Duration
}

// NewCSRFManager returns a CSRFManager. ttl <= 0 selects the default.
func NewCSRFManager(secret string, ttl time.Duration) *CSRFManager {
	if ttl <= 0 {
		ttl = DefaultCSRFTokenTTL
	}
	return &CSRFManager{secret: []byte(secret), ttl: ttl}
}

// EnsureToken returns the session's current token, minting a fresh one when
// the session has none or the stored one has expired.
func (m *CSRFManager) EnsureToken(ctx context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", ErrCSRFTokenMissing
	}
	if token := sess.Get(CSRFSessionKey); token != "" && m.tokenFresh(sess.ID, token) {
		return token, nil
	}
	token := m.mintToken(sess.ID, time.Now())
	sess.Set(CSRFSessionKey, token)
	return token, nil
}

// VerifyToken checks the submitted token against the session token and the
// token's own age.
func (m *CSRFManager) VerifyToken(ctx context.Context, sess *Session, token string) error {
	if sess == nil {
		return ErrCSRFTokenMissing
	}
	expected := sess.Get(CSRFSessionKey)
	if expected == "" || token == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	issued, ok := m.parseToken(sess.ID, token)
	if !ok {
		return ErrCSRFTokenMismatch
	}
	if time.Since(issued) > m.ttl {
		return ErrCSRFTokenExpired
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (m *CSRFManager) TTL() time.Duration { return m.ttl }

func (m *CSRFManager) mintToken(sessionID string, issued time.Time) string {
	payload := make([]byte, csrfTimestampLen)
	binary.BigEndian.PutUint64(payload, uint64(issued.UnixNano()))
	return base64.RawURLEncoding.EncodeToString(append(payload, m.sign(sessionID, payload)...))
}

// parseToken recovers the issue time and checks the signature against the
// session ID. ok is false for malformed or foreign-session tokens.
func (m *CSRFManager) parseToken(sessionID, token string) (time.Time, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) <= csrfTimestampLen {
		return time.Time{}, false
	}
	payload, mac := raw[:csrfTimestampLen], raw[csrfTimestampLen:]
	if !hmac.Equal(mac, m.sign(sessionID, payload)) {
		return time.Time{}, false
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(payload))), true
}

func (m *CSRFManager) tokenFresh(sessionID, token string) bool {
	issued, ok := m.parseToken(sessionID, token)
	return ok && time.Since(issued) <= m.ttl
}

func (m *CSRFManager) sign(sessionID string, payload []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(sessionID))
	_, _ = mac.Write([]byte{'|'})
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}
