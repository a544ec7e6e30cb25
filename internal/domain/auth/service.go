package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/kowalskibot/assistant/pkg/errors"
)

// Service exposes the channel credential exchange.
type Service interface {
	IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

const tokenTypeAccess = "access"

type service struct {
	cfg    Config
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" || strings.TrimSpace(req.ChannelSecret) == "" {
		return TokenResponse{}, apperrors.Wrap("invalid_credentials", "channel id and secret are required", nil)
	}
	channel, found := s.lookupChannel(channelID)
	if !found {
		return TokenResponse{}, apperrors.Wrap("invalid_credentials", "unknown channel", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(channel.SecretHash), []byte(req.ChannelSecret)); err != nil {
		return TokenResponse{}, apperrors.Wrap("invalid_credentials", "invalid channel secret", nil)
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := tokenClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   channel.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return TokenResponse{}, apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	s.logger.Info("channel token issued", "channel", channel.ID)
	return TokenResponse{Token: signed, ExpiresAt: expiresAt}, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing expiry", nil)
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		return Claims{}, apperrors.Wrap("invalid_token", "token expired", nil)
	}
	return Claims{
		ChannelID: claims.Subject,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *service) lookupChannel(id string) (Channel, bool) {
	for _, channel := range s.cfg.Channels {
		if channel.ID == id {
			return channel, true
		}
	}
	return Channel{}, false
}

type tokenClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}
