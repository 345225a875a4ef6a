package service

import (
	"context"
	"errors"
	"sync"

	authdomain "github.com/jakobkordez/wmm-reborn/internal/auth/domain"
	commoncrypto "github.com/jakobkordez/wmm-reborn/internal/common/crypto"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
	userdomain "github.com/jakobkordez/wmm-reborn/internal/user/domain"
	userrepo "github.com/jakobkordez/wmm-reborn/internal/user/repository"
)

// Tokens is the part of TokenService the account flows depend on.
type Tokens interface {
	IssueRefreshToken(ctx context.Context, userID int64, username string) (string, error)
	RedeemRefreshToken(ctx context.Context, token string) (authdomain.Claims, error)
	RevokeRefreshToken(ctx context.Context, requesterID int64, token string) error
	GenerateAccessToken(userID int64, username string) (string, error)
}

type AuthService struct {
	repo   userrepo.Repository
	tokens Tokens
	hasher commoncrypto.PasswordHasher
	log    *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	repo userrepo.Repository,
	tokens Tokens,
	hasher commoncrypto.PasswordHasher,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		log:    log,
	}
}

type RegisterInput struct {
	Username string
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

// Register validates the fields, rejects a taken username, then stores the
// account with a hashed password. The UNIQUE constraint on users.username
// catches a concurrent registration that slips past the existence check.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	fields := logger.Fields{
		"username": input.Username,
		"action":   "register",
	}

	if err := validateRegistration(input); err != nil {
		s.log.WithFields(ctx, fields).Debugf("register validation failed: %v", err)
		return err
	}

	exists, err := s.repo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return err
	}
	if exists {
		s.log.WithFields(ctx, fields).Info("register failed: username taken")
		return ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return newInternalError("PASSWORD_HASH_FAILED", "failed to hash password", err)
	}

	id, err := s.repo.Create(ctx, userdomain.NewUser{
		Username:     input.Username,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUsernameAlreadyExists) {
			s.log.WithFields(ctx, fields).Info("register failed: username taken concurrently")
			return ErrUsernameTaken
		}
		return err
	}

	incrementAccountsRegistered()
	fields["user_id"] = int64(id)
	s.log.WithFields(ctx, fields).Info("account created")
	return nil
}

// Login returns a fresh refresh token. Unknown usernames and wrong passwords
// fail with the same error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, error) {
	fields := logger.Fields{
		"username": input.Username,
		"action":   "login",
	}

	creds, err := s.repo.FindCredentialsByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.burnVerify(ctx, input.Password)
			recordLogin("unknown_user")
			s.log.WithFields(ctx, fields).Info("login failed")
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	ok, err := s.hasher.Verify(ctx, input.Password, creds.PasswordHash)
	if err != nil {
		return "", newInternalError("PASSWORD_VERIFY_FAILED", "failed to verify password", err)
	}
	if !ok {
		recordLogin("bad_password")
		s.log.WithFields(ctx, fields).Info("login failed")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueRefreshToken(ctx, int64(creds.ID), creds.Username)
	if err != nil {
		return "", err
	}

	recordLogin("success")
	fields["user_id"] = int64(creds.ID)
	s.log.WithFields(ctx, fields).Info("login success")
	return token, nil
}

func (s *AuthService) ExchangeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrRefreshTokenRequired
	}

	claims, err := s.tokens.RedeemRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	return s.tokens.GenerateAccessToken(claims.UserID, claims.Username)
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, requester authdomain.Claims, refreshToken string) error {
	if refreshToken == "" {
		return ErrRefreshTokenMissing
	}

	if err := s.tokens.RevokeRefreshToken(ctx, requester.UserID, refreshToken); err != nil {
		if errors.Is(err, ErrNotTokenOwner) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": requester.UserID,
				"action":  "revoke_refresh_token",
			}).Warn("revoke rejected: token belongs to another user")
		}
		return err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": requester.UserID,
		"action":  "revoke_refresh_token",
	}).Info("refresh token revoked")
	return nil
}

// burnVerify spends one hash comparison so unknown usernames cost the same
// time as wrong passwords.
func (s *AuthService) burnVerify(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(ctx, "wmm-reborn-unknown-user")
		if err != nil {
			s.log.Warnf("failed to prepare login timing hash: %v", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash == "" {
		return
	}
	_, _ = s.hasher.Verify(ctx, password, s.dummyHash)
}
