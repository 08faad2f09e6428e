package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned for malformed or tampered download tokens.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired is returned once a token outlives its TTL.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadClaims is the payload carried by a signed download token.
type DownloadClaims struct {
	ReportID  string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates HMAC-signed download tokens for stored report files.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token of the form reportID.expiry.path.signature.
func (s *SignedURLSigner) Generate(reportID, relPath string) (string, time.Time, error) {
	if reportID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("report id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{reportID, ts, encodedPath, s.sign(reportID, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse validates the signature and expiry of a token.
func (s *SignedURLSigner) Parse(token string) (DownloadClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || parts[0] == "" {
		return DownloadClaims{}, ErrInvalidToken
	}
	reportID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(reportID, ts, encodedPath)), []byte(signature)) {
		return DownloadClaims{}, ErrInvalidToken
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return DownloadClaims{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return DownloadClaims{}, ErrInvalidToken
	}

	claims := DownloadClaims{ReportID: reportID, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(claims.ExpiresAt) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

func (s *SignedURLSigner) sign(reportID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(reportID + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
