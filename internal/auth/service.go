package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"paper-trader/internal/model"
	"paper-trader/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type Service struct {
	store    store.Store
	settings model.GameSettings
	issuer   string
	secret   []byte
	ttl      time.Duration
}

func NewService(st store.Store, settings model.GameSettings, issuer string, secret []byte, ttl time.Duration) *Service {
	return &Service{store: st, settings: settings, issuer: issuer, secret: secret, ttl: ttl}
}

// Register creates an account funded with the configured starting cash.
// Returns store.ErrDuplicate if the username or email is taken.
func (s *Service) Register(ctx context.Context, username, password, email string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" || email == "" {
		return "", errors.New("username, password and email are required")
	}
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.New("invalid email address")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	acc := &model.Account{
		ID:         uuid.New().String(),
		Username:   username,
		Email:      email,
		Cash:       s.settings.StartingCash,
		RealizedPL: decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		return tx.CreateAccount(ctx, acc, string(hash))
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", store.ErrDuplicate
		}
		return "", fmt.Errorf("create account: %w", err)
	}
	return acc.ID, nil
}

// Login verifies credentials and returns a signed token plus the account
// snapshot. A successful login touches last_login.
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.Account, error) {
	accountID, hash, err := s.store.GetCredentials(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := s.store.TouchLastLogin(ctx, accountID); err != nil {
		return "", nil, err
	}
	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return "", nil, err
	}
	token, err := s.signToken(accountID)
	if err != nil {
		return "", nil, err
	}
	return token, acc, nil
}

func (s *Service) signToken(accountID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// ParseToken validates a token and returns the account id it carries.
func (s *Service) ParseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Issuer != s.issuer {
		return "", errors.New("invalid issuer")
	}
	if claims.Subject == "" {
		return "", errors.New("invalid subject")
	}
	return claims.Subject, nil
}
