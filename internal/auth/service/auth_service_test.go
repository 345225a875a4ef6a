package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/jakobkordez/wmm-reborn/internal/auth/domain"
	commoncrypto "github.com/jakobkordez/wmm-reborn/internal/common/crypto"
	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
	userdomain "github.com/jakobkordez/wmm-reborn/internal/user/domain"
	userrepo "github.com/jakobkordez/wmm-reborn/internal/user/repository"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username: "alice123",
		Name:     "Alice A",
		Email:    "alice@example.com",
		Password: "secret1",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	f := setupAuthService(t)

	var created userdomain.NewUser
	f.users.createFunc = func(ctx context.Context, user userdomain.NewUser) (userdomain.ID, error) {
		created = user
		return 1, nil
	}

	err := f.auth.Register(context.Background(), validRegisterInput())

	require.NoError(t, err)
	assert.Equal(t, "alice123", created.Username)
	assert.Equal(t, "Alice A", created.Name)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "hashed:secret1", created.PasswordHash)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	f := setupAuthService(t)

	f.users.existsByUsernameFunc = func(ctx context.Context, username string) (bool, error) {
		return username == "alice123", nil
	}
	f.users.createFunc = func(ctx context.Context, user userdomain.NewUser) (userdomain.ID, error) {
		t.Fatal("create must not be called for a taken username")
		return 0, nil
	}

	err := f.auth.Register(context.Background(), validRegisterInput())

	assert.ErrorIs(t, err, ErrUsernameTaken)
	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, 400, de.HTTPStatus())
	assert.Equal(t, "Username taken", de.Message())
}

func TestAuthService_Register_ConcurrentDuplicate(t *testing.T) {
	f := setupAuthService(t)

	f.users.createFunc = func(ctx context.Context, user userdomain.NewUser) (userdomain.ID, error) {
		return 0, userrepo.ErrUsernameAlreadyExists
	}

	err := f.auth.Register(context.Background(), validRegisterInput())

	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthService_Register_ValidationOrder(t *testing.T) {
	f := setupAuthService(t)

	input := validRegisterInput()
	input.Username = "ab"
	input.Email = "bad"

	err := f.auth.Register(context.Background(), input)

	assert.ErrorIs(t, err, ErrValidationUsername)
}

func TestAuthService_Register_InvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{name: "username too long", mutate: func(in *RegisterInput) { in.Username = "abcdefghijklmnopqrstu" }, want: ErrValidationUsername},
		{name: "username bad char", mutate: func(in *RegisterInput) { in.Username = "alice-123" }, want: ErrValidationUsername},
		{name: "name with digit", mutate: func(in *RegisterInput) { in.Name = "Alice 2" }, want: ErrValidationName},
		{name: "name double space", mutate: func(in *RegisterInput) { in.Name = "Alice  A" }, want: ErrValidationName},
		{name: "email consecutive dots", mutate: func(in *RegisterInput) { in.Email = "al..ice@example.com" }, want: ErrValidationEmail},
		{name: "password too short", mutate: func(in *RegisterInput) { in.Password = "abc" }, want: ErrValidationPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAuthService(t)
			input := validRegisterInput()
			tt.mutate(&input)

			err := f.auth.Register(context.Background(), input)

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_Register_PasswordOverBcryptLimit(t *testing.T) {
	f := setupAuthService(t)
	auth := NewAuthService(f.users, f.svc, commoncrypto.NewBcryptHasher(4, 1), testLogger())
	input := validRegisterInput()
	input.Password = strings.Repeat("a", 80)

	err := auth.Register(context.Background(), input)

	assert.ErrorIs(t, err, ErrValidationPassword)
	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus())
}

func TestAuthService_Register_StorageError(t *testing.T) {
	f := setupAuthService(t)
	storageErr := errors.New("connection refused")
	f.users.existsByUsernameFunc = func(ctx context.Context, username string) (bool, error) {
		return false, storageErr
	}

	err := f.auth.Register(context.Background(), validRegisterInput())

	assert.ErrorIs(t, err, storageErr)
	assert.False(t, commonerrors.IsDomainError(err))
}

func registeredUser(f authFixture) {
	f.users.findCredentialsByUsernameFunc = func(ctx context.Context, username string) (userdomain.Credentials, error) {
		if username != "alice123" {
			return userdomain.Credentials{}, userrepo.ErrUserNotFound
		}
		return userdomain.Credentials{ID: 1, Username: "alice123", PasswordHash: "hashed:secret1"}, nil
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := setupAuthService(t)
	registeredUser(f)

	token, err := f.auth.Login(context.Background(), LoginInput{Username: "alice123", Password: "secret1"})

	require.NoError(t, err)
	claims, err := f.svc.ValidateToken(token, authdomain.KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, 1, f.repo.Count())
}

func TestAuthService_Login_UniformFailure(t *testing.T) {
	f := setupAuthService(t)
	registeredUser(f)
	ctx := context.Background()

	_, wrongPassword := f.auth.Login(ctx, LoginInput{Username: "alice123", Password: "wrong1"})
	_, unknownUser := f.auth.Login(ctx, LoginInput{Username: "nobody", Password: "secret1"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	assert.Equal(t, 0, f.repo.Count())
}

func TestAuthService_Login_UnknownUserStillVerifies(t *testing.T) {
	f := setupAuthService(t)
	registeredUser(f)
	var verifies atomic.Int32
	f.hasher.verifyFunc = func(ctx context.Context, password, hash string) (bool, error) {
		verifies.Add(1)
		return false, nil
	}

	_, err := f.auth.Login(context.Background(), LoginInput{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, int32(1), verifies.Load())

	_, err = f.auth.Login(context.Background(), LoginInput{Username: "ghost", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, int32(2), verifies.Load())
}

func TestAuthService_Login_MalformedHash(t *testing.T) {
	f := setupAuthService(t)
	registeredUser(f)
	f.hasher.verifyFunc = func(ctx context.Context, password, hash string) (bool, error) {
		return false, errors.New("crypto/bcrypt: hashedSecret too short")
	}

	_, err := f.auth.Login(context.Background(), LoginInput{Username: "alice123", Password: "secret1"})

	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, 500, de.HTTPStatus())
}

func TestAuthService_Login_PersistFailure(t *testing.T) {
	f := setupAuthService(t)
	registeredUser(f)
	storageErr := errors.New("insert failed")
	f.repo.CreateErr = storageErr

	token, err := f.auth.Login(context.Background(), LoginInput{Username: "alice123", Password: "secret1"})

	assert.ErrorIs(t, err, storageErr)
	assert.Empty(t, token)
}

func TestAuthService_ExchangeRefreshToken(t *testing.T) {
	f := setupAuthService(t)
	registeredUser(f)
	ctx := context.Background()

	refresh, err := f.auth.Login(ctx, LoginInput{Username: "alice123", Password: "secret1"})
	require.NoError(t, err)

	access, err := f.auth.ExchangeRefreshToken(ctx, refresh)
	require.NoError(t, err)

	claims, err := f.svc.ValidateToken(access, authdomain.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, authdomain.Claims{UserID: 1, Username: "alice123"}, claims)
}

func TestAuthService_ExchangeRefreshToken_Empty(t *testing.T) {
	f := setupAuthService(t)

	_, err := f.auth.ExchangeRefreshToken(context.Background(), "")

	assert.ErrorIs(t, err, ErrRefreshTokenRequired)
}

func TestAuthService_ExchangeRefreshToken_AccessTokenRejected(t *testing.T) {
	f := setupAuthService(t)

	access, err := f.svc.GenerateAccessToken(1, "alice123")
	require.NoError(t, err)

	_, err = f.auth.ExchangeRefreshToken(context.Background(), access)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ExchangeRefreshToken_Revoked(t *testing.T) {
	f := setupAuthService(t)
	registeredUser(f)
	ctx := context.Background()

	refresh, err := f.auth.Login(ctx, LoginInput{Username: "alice123", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, f.auth.RevokeRefreshToken(ctx, authdomain.Claims{UserID: 1, Username: "alice123"}, refresh))

	_, err = f.auth.ExchangeRefreshToken(ctx, refresh)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RevokeRefreshToken_Missing(t *testing.T) {
	f := setupAuthService(t)

	err := f.auth.RevokeRefreshToken(context.Background(), authdomain.Claims{UserID: 1}, "")

	assert.ErrorIs(t, err, ErrRefreshTokenMissing)
}

func TestAuthService_RevokeRefreshToken_NotOwner(t *testing.T) {
	f := setupAuthService(t)
	ctx := context.Background()

	refreshB, err := f.svc.IssueRefreshToken(ctx, 2, "bobby.b")
	require.NoError(t, err)

	err = f.auth.RevokeRefreshToken(ctx, authdomain.Claims{UserID: 1, Username: "alice123"}, refreshB)

	assert.ErrorIs(t, err, ErrNotTokenOwner)
	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, 403, de.HTTPStatus())

	_, err = f.auth.ExchangeRefreshToken(ctx, refreshB)
	assert.NoError(t, err)
}

func TestAuthService_RevokeRefreshToken_InvalidToken(t *testing.T) {
	f := setupAuthService(t)

	err := f.auth.RevokeRefreshToken(context.Background(), authdomain.Claims{UserID: 1}, "garbage")

	assert.ErrorIs(t, err, ErrInvalidToken)
}
