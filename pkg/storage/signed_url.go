package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SignedURLSigner creates and validates signed download tokens for stored
// attachment keys. Tokens grant temporary read access without credentials.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate returns a signed token referencing the attachment key.
func (s *SignedURLSigner) Generate(key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, fmt.Errorf("storage key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedKey := base64.RawURLEncoding.EncodeToString([]byte(key))
	payload := fmt.Sprintf("%s|%d", encodedKey, expiresAt.Unix())
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	token := strings.Join([]string{encodedKey, fmt.Sprintf("%d", expiresAt.Unix()), signature}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded key and expiry.
func (s *SignedURLSigner) Parse(token string) (key string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, fmt.Errorf("invalid token format")
	}
	encodedKey := parts[0]
	ts := parts[1]
	signature := parts[2]

	rawKey, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("decode key: %w", err)
	}

	expUnix, err := parseUnix(ts)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt = time.Unix(expUnix, 0)

	payload := fmt.Sprintf("%s|%s", encodedKey, ts)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	if time.Now().After(expiresAt) {
		return "", time.Time{}, fmt.Errorf("token expired")
	}
	return string(rawKey), expiresAt, nil
}

func parseUnix(raw string) (int64, error) {
	var ts int64
	_, err := fmt.Sscanf(raw, "%d", &ts)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp")
	}
	return ts, nil
}
