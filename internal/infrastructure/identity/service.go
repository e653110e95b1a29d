// Package identity is the identity provider: bcrypt-hashed credentials and
// JWT session tokens whose sessions live in a session store.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

const minPasswordLen = 8

// Claims is the JWT payload. Subject is the user id and ID the session id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service authenticates credentials and issues sessions.
type Service struct {
	creds    ports.CredentialRepository
	sessions ports.SessionStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewService(creds ports.CredentialRepository, sessions ports.SessionStore, jwtSecret string, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		creds:    creds,
		sessions: sessions,
		secret:   []byte(jwtSecret),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Authenticate checks the credentials and opens a session. Unknown emails and
// wrong passwords fail alike with domain.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*ports.Session, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := s.creds.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(ctx, cred)
}

// Verify returns the live session behind token, or domain.ErrNoSession when
// the token is invalid, expired or revoked.
func (s *Service) Verify(ctx context.Context, token string) (*ports.Session, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	rec, err := s.sessions.Find(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNoSession
	}
	return &ports.Session{
		Token:     token,
		UserID:    rec.UserID,
		Email:     rec.Email,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// ParseToken validates the signature and expiry only.
func (s *Service) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoSession, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, domain.ErrNoSession
	}
	return claims, nil
}

// Revoke ends the session behind token. Unknown tokens are ignored.
func (s *Service) Revoke(ctx context.Context, token string) error {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Provision creates an account and returns its id.
func (s *Service) Provision(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	cred := ports.Credential{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := s.creds.Create(ctx, cred); err != nil {
		return "", err
	}
	s.log.Info().Str("user_id", cred.ID).Msg("account provisioned")
	return cred.ID, nil
}

// Client returns a provider handle bound to token. An empty token starts
// without a session.
func (s *Service) Client(token string) ports.IdentityProvider {
	return &client{svc: s, token: token, events: make(chan ports.AuthEvent, eventBuffer)}
}

func (s *Service) issue(ctx context.Context, cred *ports.Credential) (*ports.Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	sid := uuid.NewString()

	claims := Claims{
		Email: cred.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Subject:   cred.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	rec := ports.SessionRecord{UserID: cred.ID, Email: cred.Email, ExpiresAt: exp.UTC()}
	if err := s.sessions.Save(ctx, sid, rec, s.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &ports.Session{Token: token, UserID: cred.ID, Email: cred.Email, ExpiresAt: exp.UTC()}, nil
}
