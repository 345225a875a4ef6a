// Package testsupport provides in-memory stores that satisfy the repository
// interfaces, for handler and service tests that need realistic state.
package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	authdomain "github.com/jakobkordez/wmm-reborn/internal/auth/domain"
	authrepo "github.com/jakobkordez/wmm-reborn/internal/auth/repository"
	userdomain "github.com/jakobkordez/wmm-reborn/internal/user/domain"
	userrepo "github.com/jakobkordez/wmm-reborn/internal/user/repository"
)

type UserStore struct {
	mu     sync.Mutex
	byID   map[userdomain.ID]userdomain.User
	nextID userdomain.ID
}

var _ userrepo.Repository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{byID: make(map[userdomain.ID]userdomain.User)}
}

func (s *UserStore) Create(ctx context.Context, u userdomain.NewUser) (userdomain.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Username == u.Username {
			return 0, userrepo.ErrUsernameAlreadyExists
		}
	}
	s.nextID++
	s.byID[s.nextID] = userdomain.User{
		ID:           s.nextID,
		Username:     u.Username,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
	return s.nextID, nil
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	return err == nil, nil
}

func (s *UserStore) FindCredentialsByUsername(ctx context.Context, username string) (userdomain.Credentials, error) {
	u, err := s.FindByUsername(ctx, username)
	if err != nil {
		return userdomain.Credentials{}, err
	}
	return userdomain.Credentials{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash}, nil
}

func (s *UserStore) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

// SetBalances stands in for the lending subsystem that maintains aggregates.
func (s *UserStore) SetBalances(id userdomain.ID, b userdomain.Balances) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID[id]
	u.Balances = b
	s.byID[id] = u
}

// Delete removes a user, as an operator would outside this service.
func (s *UserStore) Delete(id userdomain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// RefreshTokenStore keeps refresh token rows keyed by token hash.
type RefreshTokenStore struct {
	mu        sync.Mutex
	rows      map[string]authdomain.RefreshToken
	nextID    int64
	CreateErr error
	FindErr   error
}

var _ authrepo.RefreshTokenRepository = (*RefreshTokenStore)(nil)

func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{rows: make(map[string]authdomain.RefreshToken)}
}

func (s *RefreshTokenStore) CreateWithLimit(ctx context.Context, token authdomain.RefreshToken, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.nextID++
	token.ID = s.nextID
	s.rows[token.TokenHash] = token

	if limit <= 0 {
		return nil
	}
	var owned []authdomain.RefreshToken
	for _, row := range s.rows {
		if row.UserID == token.UserID {
			owned = append(owned, row)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID > owned[j].ID })
	for _, row := range owned[min(limit, len(owned)):] {
		delete(s.rows, row.TokenHash)
	}
	return nil
}

func (s *RefreshTokenStore) FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return authdomain.RefreshToken{}, s.FindErr
	}
	row, ok := s.rows[hash]
	if !ok {
		return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
	}
	return row, nil
}

func (s *RefreshTokenStore) DeleteByTokenHashAndUserID(ctx context.Context, hash string, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[hash]
	if !ok || row.UserID != userID {
		return false, nil
	}
	delete(s.rows, hash)
	return true, nil
}

func (s *RefreshTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, row := range s.rows {
		if row.ExpiresAt.Before(now) {
			delete(s.rows, hash)
			n++
		}
	}
	return n, nil
}

func (s *RefreshTokenStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
