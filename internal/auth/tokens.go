package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	issuer = "vidtube"
)

// RefreshTokenStore persists the single refresh-token slot on the user
// record. SetRefreshToken overwrites whatever was there, which is what
// invalidates previously issued refresh tokens. RefreshTokenFor reports
// ok=false when no user exists for the id.
type RefreshTokenStore interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	RefreshTokenFor(ctx context.Context, userID string) (token string, ok bool, err error)
}

// Claims is the JWT payload for both token classes. TokenType keeps an
// access token from being replayed as a refresh token and vice versa.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Service issues, verifies, and rotates the signed token pair. One refresh
// token is active per user at any time: whoever completes a login or
// rotation last holds the only usable refresh token.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store RefreshTokenStore
	now   func() time.Time
}

// NewService constructs a token service from the auth configuration.
func NewService(cfg config.AuthConfig, store RefreshTokenStore) *Service {
	if store == nil {
		panic("auth: refresh token store must not be nil")
	}
	return &Service{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		store:         store,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IssuePair signs a fresh access/refresh token pair for the user and
// persists the refresh token onto the user record before returning. A
// persistence failure surfaces as an internal error so the caller never
// hands out a refresh token the server would not honor.
func (s *Service) IssuePair(ctx context.Context, userID string) (models.TokenPair, error) {
	if userID == "" {
		return models.TokenPair{}, apperror.Internal("token issuance failed", errors.New("empty user id"))
	}

	now := s.now()

	accessToken, accessExpiry, err := s.sign(userID, tokenTypeAccess, s.accessSecret, s.accessTTL, now)
	if err != nil {
		return models.TokenPair{}, apperror.Internal("token issuance failed", err)
	}

	refreshToken, refreshExpiry, err := s.sign(userID, tokenTypeRefresh, s.refreshSecret, s.refreshTTL, now)
	if err != nil {
		return models.TokenPair{}, apperror.Internal("token issuance failed", err)
	}

	if err := s.store.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		return models.TokenPair{}, apperror.Internal("token issuance failed", err)
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// VerifyAccess validates an access token's signature, expiry, and type, and
// returns the user id it was issued to.
func (s *Service) VerifyAccess(token string) (string, error) {
	claims, err := s.parse(token, tokenTypeAccess, s.accessSecret)
	if err != nil {
		return "", apperror.Unauthorized("unauthorized access")
	}
	return claims.Subject, nil
}

// Rotate exchanges a presented refresh token for a brand new pair. The
// presented token must verify against the refresh secret and byte-match the
// slot currently stored on the user record; a mismatch means the token was
// already rotated away and its reuse is rejected.
func (s *Service) Rotate(ctx context.Context, presented string) (models.TokenPair, error) {
	claims, err := s.parse(presented, tokenTypeRefresh, s.refreshSecret)
	if err != nil {
		return models.TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}

	stored, ok, err := s.store.RefreshTokenFor(ctx, claims.Subject)
	if err != nil {
		return models.TokenPair{}, apperror.Internal("token rotation failed", err)
	}
	if !ok {
		return models.TokenPair{}, apperror.InvalidToken("invalid refresh token")
	}
	if stored != presented {
		return models.TokenPair{}, apperror.TokenReuse("refresh token invalid or already used")
	}

	return s.IssuePair(ctx, claims.Subject)
}

func (s *Service) sign(userID, tokenType string, secret []byte, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every issued token unique even within the same
			// second, so a rotated-away refresh token never byte-matches its
			// replacement.
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

func (s *Service) parse(token, wantType string, secret []byte) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s token: %w", wantType, err)
	}
	if !parsed.Valid || claims.TokenType != wantType || claims.Subject == "" {
		return nil, fmt.Errorf("%s token claims rejected", wantType)
	}

	return claims, nil
}
