package service

import (
	"context"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakobkordez/wmm-reborn/internal/common/clock"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
	"github.com/jakobkordez/wmm-reborn/internal/testsupport"
	userdomain "github.com/jakobkordez/wmm-reborn/internal/user/domain"
	userrepo "github.com/jakobkordez/wmm-reborn/internal/user/repository"
)

const (
	testAccessSecret  = "access-secret-access-secret-0123456789"
	testRefreshSecret = "refresh-secret-refresh-secret-0123456789"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type mockUserRepo struct {
	createFunc                    func(ctx context.Context, user userdomain.NewUser) (userdomain.ID, error)
	existsByUsernameFunc          func(ctx context.Context, username string) (bool, error)
	findCredentialsByUsernameFunc func(ctx context.Context, username string) (userdomain.Credentials, error)
	findByIDFunc                  func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	findByUsernameFunc            func(ctx context.Context, username string) (userdomain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.NewUser) (userdomain.ID, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return 1, nil
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFunc != nil {
		return m.existsByUsernameFunc(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepo) FindCredentialsByUsername(ctx context.Context, username string) (userdomain.Credentials, error) {
	if m.findCredentialsByUsernameFunc != nil {
		return m.findCredentialsByUsernameFunc(ctx, username)
	}
	return userdomain.Credentials{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (userdomain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

// fakeHasher stores "hashed:" + password so tests stay fast.
type fakeHasher struct {
	hashFunc   func(ctx context.Context, password string) (string, error)
	verifyFunc func(ctx context.Context, password, hash string) (bool, error)
}

func (h *fakeHasher) Hash(ctx context.Context, password string) (string, error) {
	if h.hashFunc != nil {
		return h.hashFunc(ctx, password)
	}
	return "hashed:" + password, nil
}

func (h *fakeHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if h.verifyFunc != nil {
		return h.verifyFunc(ctx, password, hash)
	}
	return hash == "hashed:"+password, nil
}

type sequenceIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "jti-" + strconv.Itoa(g.n), nil
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "test", "error")
}

type tokenFixture struct {
	svc   *TokenService
	repo  *testsupport.RefreshTokenStore
	clock *clock.MockClock
}

func setupTokenService(t *testing.T) tokenFixture {
	t.Helper()
	repo := testsupport.NewRefreshTokenStore()
	clk := clock.NewMockClock(testNow)
	svc, err := NewTokenService(TokenConfig{
		AccessSecret:            testAccessSecret,
		RefreshSecret:           testRefreshSecret,
		AccessTTL:               15 * time.Minute,
		RefreshTTL:              14 * 24 * time.Hour,
		MaxRefreshTokensPerUser: 3,
	}, repo, &sequenceIDGenerator{}, clk, testLogger())
	require.NoError(t, err)
	return tokenFixture{svc: svc, repo: repo, clock: clk}
}

type authFixture struct {
	tokenFixture
	auth   *AuthService
	users  *mockUserRepo
	hasher *fakeHasher
}

func setupAuthService(t *testing.T) authFixture {
	t.Helper()
	tf := setupTokenService(t)
	users := &mockUserRepo{}
	hasher := &fakeHasher{}
	return authFixture{
		tokenFixture: tf,
		auth:         NewAuthService(users, tf.svc, hasher, testLogger()),
		users:        users,
		hasher:       hasher,
	}
}
