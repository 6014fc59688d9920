package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const DefaultLifetime = 30 * time.Minute

// Config is the token signing setup. Rotating Secret invalidates every outstanding token.
type Config struct {
	Secret    string
	Algorithm string
	Lifetime  time.Duration
}

type Claims struct {
	jwt.RegisteredClaims
}

type Manager struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	now      func() time.Time
}

type Option func(*Manager)

// WithClock overrides time.Now for both issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("token secret is required")
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}

	// the secret is shared, so only HMAC methods make sense
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}

	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	m := &Manager{
		secret:   []byte(cfg.Secret),
		method:   method,
		lifetime: lifetime,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Issue signs a token for subject that expires after the configured lifetime.
func (m *Manager) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := m.now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	}

	token := jwt.NewWithClaims(m.method, claims)

	return token.SignedString(m.secret)
}

// Validate returns the subject of a token signed by this manager that has not expired.
// Every failure is reported as ErrInvalidToken.
func (m *Manager) Validate(tokenStr string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims.Subject, nil
}

func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}
