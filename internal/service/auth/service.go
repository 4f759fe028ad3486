// Package auth guards the admin panel with the single shared credential. A
// successful login issues a bearer token valid for 24 hours; there is no
// refresh mechanism.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const TokenTTL = 24 * time.Hour

type Config struct {
	Username string
	// Password is either a bcrypt hash ($2a$/$2b$ prefix) or a plaintext
	// value, which is hashed at construction so it never stays resident.
	Password string
	JWTSecret string
}

type Service struct {
	username     string
	passwordHash []byte
	secret       []byte
}

func New(cfg Config) (*Service, error) {
	const op = "auth.New"

	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%s: admin credential not configured", op)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: JWT secret not configured", op)
	}

	hash := []byte(cfg.Password)
	if !strings.HasPrefix(cfg.Password, "$2") {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
	}

	return &Service{
		username:     cfg.Username,
		passwordHash: hash,
		secret:       []byte(cfg.JWTSecret),
	}, nil
}

// Login checks the credential pair and issues a signed bearer token.
func (s *Service) Login(username, password string) (string, error) {
	const op = "auth.Login"

	if username != s.username {
		// Burn a comparison anyway so a wrong username costs the same as a
		// wrong password.
		_ = bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
		return "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	return signed, nil
}

// Verify validates a bearer token and returns its subject.
func (s *Service) Verify(tokenString string) (string, error) {
	const op = "auth.Verify"

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%s:%w", op, ErrInvalidToken)
	}

	return claims.Subject, nil
}
