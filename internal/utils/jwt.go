package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/sha256" // SHA-256 hashing for session identifiers
    "encoding/hex"  // hex encoding of digests
    "errors"        // errors for claim validation failures
    "strconv"       // strconv converts the numeric subject
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // uuid generates session identifiers
)

// ErrInvalidSessionToken is returned for tokens that are malformed, carry a
// bad signature, have expired or lack the session claims.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims is the payload of the session cookie.  Subject holds the
// user id, SessionID the server side session identifier and Roles the
// caller's role names at login time.
type SessionClaims struct {
    SessionID string   `json:"sid"`
    Roles     []string `json:"roles"`
    jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c SessionClaims) UserID() (int64, error) {
    return strconv.ParseInt(c.Subject, 10, 64)
}

// NewSessionID returns a random identifier for a new session.
func NewSessionID() string {
    return uuid.NewString()
}

// NewSessionToken builds and signs an HS256 JWT binding a session id to a
// user and its roles.  The token expires at exp.
func NewSessionToken(secret string, userID int64, sessionID string, roles []string, exp time.Time) (string, error) {
    now := time.Now().UTC()
    claims := SessionClaims{
        SessionID: sessionID,
        Roles:     roles,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatInt(userID, 10),
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken verifies the signature and expiry of a session token and
// returns its claims.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
    var claims SessionClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        // Reject anything that is not HMAC signed.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSessionToken
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return SessionClaims{}, ErrInvalidSessionToken
    }
    if claims.SessionID == "" {
        return SessionClaims{}, ErrInvalidSessionToken
    }
    if _, err := claims.UserID(); err != nil {
        return SessionClaims{}, ErrInvalidSessionToken
    }
    return claims, nil
}

// HashToken returns the SHA-256 hash of a session id as a hex string.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
