package service

import (
	"context"
	"net/http"

	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
	"github.com/jakobkordez/wmm-reborn/internal/relation/domain"
	"github.com/jakobkordez/wmm-reborn/internal/relation/repository"
)

var ErrSelfRelation = commonerrors.NewDomainError(
	"SELF_RELATION",
	commonerrors.CategoryValidation,
	http.StatusBadRequest,
	"Cannot get relation with yourself",
)

type RelationService struct {
	repo repository.Repository
}

func NewRelationService(repo repository.Repository) *RelationService {
	return &RelationService{repo: repo}
}

func (s *RelationService) Get(ctx context.Context, self, other string) (domain.Relation, error) {
	if self == other {
		return domain.Relation{}, ErrSelfRelation
	}
	amount, err := s.repo.NetAmount(ctx, self, other)
	if err != nil {
		return domain.Relation{}, err
	}
	return domain.Relation{Self: self, Other: other, Amount: amount}, nil
}
