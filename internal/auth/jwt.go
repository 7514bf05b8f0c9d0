package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 7 * 24 * time.Hour

type Claims struct {
	JTI string `json:"jti"`
	jwt.RegisteredClaims
}

// Session is the identity carried by a verified token.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    SessionTTL,
		now:    time.Now,
	}
}

// WithClock swaps the time source; used by tests to move past expiry.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) Issue(userID string) (token string, expiresAt time.Time, err error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("empty user id")
	}

	now := m.now().UTC()
	expiresAt = now.Add(m.ttl)

	claims := Claims{
		JTI: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   userID,
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return
}

// Verify reports the session carried by token. Every failure (bad signature,
// wrong algorithm, malformed payload, expiry) collapses to ok=false.
func (m *Manager) Verify(token string) (Session, bool) {
	claims, err := m.parseAndValidate(token)
	if err != nil {
		return Session{}, false
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Session{}, false
	}

	return Session{UserID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, true
}

func (m *Manager) parseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HMAC
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
