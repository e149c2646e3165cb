package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/solarie/joias/internal/config"
	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/repository/store"
)

const (
	// CredentialsID is the config document holding the password hash.
	CredentialsID = "auth"
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 4

	fieldPasswordHash = "password_hash"
	issuer            = "joias"
	subject           = "owner"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token has expired")
)

// Credentials is the stored shared password.
type Credentials struct {
	ID           string    `bson:"_id"`
	PasswordHash string    `bson:"password_hash"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// CredentialStore persists the credentials document.
type CredentialStore interface {
	Get(ctx context.Context, id string) (Credentials, error)
	Put(ctx context.Context, id string, fields bson.M) error
}

// Session is an issued access token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service checks the shared password and issues session tokens.
type Service struct {
	store           CredentialStore
	secret          []byte
	ttl             time.Duration
	defaultPassword string
	cost            int
	now             func() time.Time
	logger          *zap.Logger
}

// NewService wires a new authentication service.
func NewService(credentials CredentialStore, cfg config.AuthConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:           credentials,
		secret:          []byte(cfg.JWTSecret),
		ttl:             cfg.TokenTTL,
		defaultPassword: cfg.DefaultPassword,
		cost:            bcrypt.DefaultCost,
		now:             time.Now,
		logger:          logger,
	}
}

// EnsureDefaultPassword stores the default password hash when no password
// has been set yet.
func (s *Service) EnsureDefaultPassword(ctx context.Context) error {
	_, err := s.store.Get(ctx, CredentialsID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load credentials: %w", err)
	}

	if err := s.setPassword(ctx, s.defaultPassword); err != nil {
		return err
	}
	s.logger.Info("default password installed")
	return nil
}

// Login verifies password and issues a session. Legacy SHA-256 hashes are
// replaced by a bcrypt hash on success.
func (s *Service) Login(ctx context.Context, password string) (Session, error) {
	creds, err := s.store.Get(ctx, CredentialsID)
	if err != nil {
		return Session{}, fmt.Errorf("load credentials: %w", err)
	}

	ok, legacy := verify(creds.PasswordHash, password)
	if !ok {
		s.logger.Warn("login rejected")
		return Session{}, ErrInvalidPassword
	}

	if legacy {
		if err := s.setPassword(ctx, password); err != nil {
			s.logger.Warn("failed to upgrade legacy password hash", zap.Error(err))
		} else {
			s.logger.Info("legacy password hash upgraded")
		}
	}

	return s.issue()
}

// ValidateToken checks a session token's signature and expiry.
func (s *Service) ValidateToken(token string) (*jwt.RegisteredClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithSubject(subject), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if current == "" {
		return models.NewValidationError("current_password", "is required")
	}

	creds, err := s.store.Get(ctx, CredentialsID)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if ok, _ := verify(creds.PasswordHash, current); !ok {
		return ErrInvalidPassword
	}

	if len(next) < MinPasswordLength {
		return models.NewValidationError("new_password", fmt.Sprintf("must have at least %d characters", MinPasswordLength))
	}
	if next != confirm {
		return models.NewValidationError("confirm_password", "does not match the new password")
	}

	if err := s.setPassword(ctx, next); err != nil {
		return err
	}
	s.logger.Info("password changed")
	return nil
}

func (s *Service) issue() (Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return Session{Token: token, ExpiresAt: expires}, nil
}

func (s *Service) setPassword(ctx context.Context, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Put(ctx, CredentialsID, bson.M{fieldPasswordHash: string(hash)}); err != nil {
		return &models.PersistenceError{Op: "upsert", Collection: store.CollectionConfig, ID: CredentialsID, Err: err}
	}
	return nil
}

// verify compares password with a bcrypt hash, or with the hex SHA-256
// digests written by earlier versions of the application.
func verify(stored, password string) (ok, legacy bool) {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
	}
	if stored == "" {
		return false, false
	}
	sum := sha256.Sum256([]byte(password))
	provided := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(provided)) == 1, true
}
