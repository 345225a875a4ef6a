package service

import (
	"context"
	"errors"
	"net/http"

	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
	"github.com/jakobkordez/wmm-reborn/internal/user/domain"
	userrepo "github.com/jakobkordez/wmm-reborn/internal/user/repository"
)

// ErrProfileMissing means an authenticated caller's own row is gone.
var ErrProfileMissing = commonerrors.NewDomainError(
	"PROFILE_MISSING",
	commonerrors.CategoryInternal,
	http.StatusInternalServerError,
	"internal server error",
)

type PublicProfile struct {
	Username        string `json:"username"`
	Name            string `json:"name"`
	TotalLent       int64  `json:"total_lent"`
	TotalBorrowed   int64  `json:"total_borrowed"`
	CurrentLent     int64  `json:"current_lent"`
	CurrentBorrowed int64  `json:"current_borrowed"`
}

type OwnProfile struct {
	Username        string `json:"username"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	TotalLent       int64  `json:"total_lent"`
	TotalBorrowed   int64  `json:"total_borrowed"`
	CurrentLent     int64  `json:"current_lent"`
	CurrentBorrowed int64  `json:"current_borrowed"`
}

type ProfileService struct {
	repo userrepo.Repository
}

func NewProfileService(repo userrepo.Repository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) GetPublicProfile(ctx context.Context, username string) (PublicProfile, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return PublicProfile{}, commonerrors.ErrUserNotFound
		}
		return PublicProfile{}, err
	}
	return PublicProfile{
		Username:        u.Username,
		Name:            u.Name,
		TotalLent:       u.TotalLent,
		TotalBorrowed:   u.TotalBorrowed,
		CurrentLent:     u.CurrentLent,
		CurrentBorrowed: u.CurrentBorrowed,
	}, nil
}

func (s *ProfileService) GetOwnProfile(ctx context.Context, id domain.ID) (OwnProfile, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return OwnProfile{}, ErrProfileMissing.WithCause(err)
		}
		return OwnProfile{}, err
	}
	return OwnProfile{
		Username:        u.Username,
		Name:            u.Name,
		Email:           u.Email,
		TotalLent:       u.TotalLent,
		TotalBorrowed:   u.TotalBorrowed,
		CurrentLent:     u.CurrentLent,
		CurrentBorrowed: u.CurrentBorrowed,
	}, nil
}
