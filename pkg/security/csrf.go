// Package security signs and checks the tokens that guard form posts.
package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Token errors.
var (
	ErrMissingToken = errors.New("missing CSRF token")
	ErrInvalidToken = errors.New("invalid CSRF token")
	ErrTokenExpired = errors.New("CSRF token expired")
)

// FormField is the form field a token is posted in.
const FormField = "_csrf"

// CSRF issues tokens bound to a session ID and signed with a secret.
// A token is random|issued|session.signature, each part base64url encoded.
type CSRF struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCSRF creates a signer. An empty secret is replaced by a random one,
// which invalidates tokens on restart. A non-positive maxAge means 24h.
func NewCSRF(secret []byte, maxAge time.Duration) *CSRF {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		rand.Read(secret)
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &CSRF{secret: secret, maxAge: maxAge, now: time.Now}
}

// Token creates a token for sessionID.
func (c *CSRF) Token(sessionID string) string {
	random := make([]byte, 16)
	rand.Read(random)

	enc := base64.RawURLEncoding
	payload := enc.EncodeToString(random) + "|" +
		strconv.FormatInt(c.now().Unix(), 10) + "|" +
		enc.EncodeToString([]byte(sessionID))
	return payload + "." + enc.EncodeToString(c.sign(payload))
}

// Validate checks that token was issued by c for sessionID and has not
// expired.
func (c *CSRF) Validate(token, sessionID string) error {
	if token == "" {
		return ErrMissingToken
	}

	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return ErrInvalidToken
	}
	signature, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || subtle.ConstantTimeCompare(signature, c.sign(payload)) != 1 {
		return ErrInvalidToken
	}

	parts := strings.Split(payload, "|")
	if len(parts) != 3 {
		return ErrInvalidToken
	}
	issued, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	if c.now().Sub(time.Unix(issued, 0)) > c.maxAge {
		return ErrTokenExpired
	}

	session, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || subtle.ConstantTimeCompare(session, []byte(sessionID)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

func (c *CSRF) sign(payload string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
