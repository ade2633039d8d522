package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

const tokenTypeSession = "heat_session"

// Service issues and verifies anonymous session tokens.
type Service interface {
	Issue(ctx context.Context) (Token, error)
	Validate(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

type tokenClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// NewService wires up the session token domain.
func NewService(cfg Config, logger *slog.Logger) Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &service{
		cfg:    cfg,
		logger: logger.With("component", "session.service"),
		now:    time.Now,
		newID:  uuid.New,
	}
}

func (s *service) Issue(_ context.Context) (Token, error) {
	if s.cfg.Secret == "" {
		return Token{}, apperrors.Wrap(apperrors.CodeInvalidSession, "session secret not configured", nil)
	}
	now := s.now()
	id := s.newID().String()
	expires := now.Add(s.cfg.TTL)
	claims := tokenClaims{
		TokenType: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return Token{}, apperrors.Wrap(apperrors.CodeInvalidSession, "failed to sign session token", err)
	}
	s.logger.Debug("session issued", "session", id)
	return Token{Value: signed, SessionID: id, ExpiresAt: expires}, nil
}

func (s *service) Validate(_ context.Context, token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidSession, "missing session token", nil)
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidSession, "session token rejected", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || claims.TokenType != tokenTypeSession {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidSession, "session token invalid", nil)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidSession, "session id malformed", err)
	}
	return Claims{SessionID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
