package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authdomain "github.com/jakobkordez/wmm-reborn/internal/auth/domain"
	authrepo "github.com/jakobkordez/wmm-reborn/internal/auth/repository"
	"github.com/jakobkordez/wmm-reborn/internal/common/clock"
	"github.com/jakobkordez/wmm-reborn/internal/common/constants"
	commoncrypto "github.com/jakobkordez/wmm-reborn/internal/common/crypto"
	"github.com/jakobkordez/wmm-reborn/internal/common/jwtverify"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
)

var (
	ErrEmptyTokenSecret  = errors.New("token secrets must not be empty")
	ErrSharedTokenSecret = errors.New("access and refresh token secrets must differ")
)

type TokenConfig struct {
	AccessSecret            string
	RefreshSecret           string
	AccessTTL               time.Duration
	RefreshTTL              time.Duration
	MaxRefreshTokensPerUser int
}

type tokenClaims struct {
	Username string               `json:"usr"`
	Kind     authdomain.TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenService owns what makes a token acceptable. Access tokens are checked
// cryptographically only; refresh tokens also need a live row in storage.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	maxPerUser    int
	repo          authrepo.RefreshTokenRepository
	idGenerator   commoncrypto.IDGenerator
	clock         clock.Clock
	log           *logger.Logger
}

func NewTokenService(
	cfg TokenConfig,
	repo authrepo.RefreshTokenRepository,
	idGenerator commoncrypto.IDGenerator,
	clk clock.Clock,
	log *logger.Logger,
) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrEmptyTokenSecret
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, ErrSharedTokenSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = constants.DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = constants.DefaultRefreshTokenTTL
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		maxPerUser:    cfg.MaxRefreshTokensPerUser,
		repo:          repo,
		idGenerator:   idGenerator,
		clock:         clk,
		log:           log,
	}, nil
}

func (s *TokenService) GenerateRefreshToken(userID int64, username string) (string, error) {
	return s.sign(userID, username, authdomain.KindRefresh)
}

func (s *TokenService) GenerateAccessToken(userID int64, username string) (string, error) {
	token, err := s.sign(userID, username, authdomain.KindAccess)
	if err != nil {
		return "", err
	}
	incrementAccessTokensIssued()
	return token, nil
}

func (s *TokenService) sign(userID int64, username string, kind authdomain.TokenKind) (string, error) {
	jti, err := s.idGenerator.NewID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := s.clock.Now()
	ttl := s.accessTTL
	if kind == authdomain.KindRefresh {
		ttl = s.refreshTTL
	}

	claims := tokenClaims{
		Username: username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (s *TokenService) secretFor(kind authdomain.TokenKind) []byte {
	if kind == authdomain.KindRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

// ValidateToken verifies signature, expiry and kind. Every failure is
// ErrInvalidToken; the reason only reaches logs and metrics.
func (s *TokenService) ValidateToken(token string, expected authdomain.TokenKind) (authdomain.Claims, error) {
	kind := string(expected)
	recordValidation(kind)

	if !expected.Valid() {
		recordValidationFailure(kind, "unknown_kind")
		return authdomain.Claims{}, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.clock.Now),
	)

	var claims tokenClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secretFor(expected), nil
	})
	if err != nil {
		reason := "malformed"
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			reason = "expired"
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			reason = "signature"
		case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
			reason = "not_yet_valid"
		}
		recordValidationFailure(kind, reason)
		if s.log != nil {
			s.log.Debugf("token rejected kind=%s reason=%s: %v", kind, reason, err)
		}
		return authdomain.Claims{}, ErrInvalidToken.WithCause(err)
	}

	if claims.Kind != expected {
		recordValidationFailure(kind, "kind_mismatch")
		return authdomain.Claims{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 || claims.Username == "" {
		recordValidationFailure(kind, "claims")
		return authdomain.Claims{}, ErrInvalidToken
	}

	return authdomain.Claims{UserID: userID, Username: claims.Username}, nil
}

// ValidateAccessToken lets the service act as the request gate's validator.
func (s *TokenService) ValidateAccessToken(token string) (jwtverify.Claims, error) {
	claims, err := s.ValidateToken(token, authdomain.KindAccess)
	if err != nil {
		return jwtverify.Claims{}, err
	}
	return jwtverify.Claims{UserID: claims.UserID, Username: claims.Username}, nil
}

// IssueRefreshToken signs a refresh token for the user and persists its row.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID int64, username string) (string, error) {
	token, err := s.GenerateRefreshToken(userID, username)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	row := authdomain.RefreshToken{
		UserID:    userID,
		TokenHash: hashRefreshToken(token),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateWithLimit(ctx, row, s.maxPerUser); err != nil {
		return "", err
	}

	incrementRefreshTokensIssued()
	return token, nil
}

// RedeemRefreshToken accepts a refresh token only when it verifies AND its row
// still exists for the same user. A deleted row means revoked even though the
// signature stays valid until expiry.
func (s *TokenService) RedeemRefreshToken(ctx context.Context, token string) (authdomain.Claims, error) {
	claims, err := s.ValidateToken(token, authdomain.KindRefresh)
	if err != nil {
		incrementRefreshTokensRejected()
		return authdomain.Claims{}, err
	}

	stored, err := s.repo.FindByTokenHash(ctx, hashRefreshToken(token))
	if err != nil {
		if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
			incrementRefreshTokensRejected()
			return authdomain.Claims{}, ErrInvalidToken
		}
		return authdomain.Claims{}, err
	}

	if stored.UserID != claims.UserID {
		incrementRefreshTokensRejected()
		return authdomain.Claims{}, ErrInvalidToken
	}

	incrementRefreshTokensExchanged()
	return claims, nil
}

// RevokeRefreshToken deletes the row for token on behalf of requesterID.
// Revoking an already-deleted token succeeds.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, requesterID int64, token string) error {
	claims, err := s.ValidateToken(token, authdomain.KindRefresh)
	if err != nil {
		return err
	}

	if claims.UserID != requesterID {
		return ErrNotTokenOwner
	}

	deleted, err := s.repo.DeleteByTokenHashAndUserID(ctx, hashRefreshToken(token), requesterID)
	if err != nil {
		return err
	}
	if deleted {
		incrementRefreshTokensRevoked()
	}
	return nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
