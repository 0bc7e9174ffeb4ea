package reference

import (
	"context"
)

// Medicine search results are capped regardless of the requested query.
const medicineSearchLimit = 50

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Categories(ctx context.Context) ([]*SymptomCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) SymptomsByCategory(ctx context.Context, categoryID int64) ([]*Symptom, error) {
	exists, err := s.repo.CategoryExists(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return s.repo.ListSymptomsByCategory(ctx, categoryID)
}

func (s *Service) SearchMedicines(ctx context.Context, query string) ([]*Medicine, error) {
	return s.repo.SearchMedicines(ctx, query, medicineSearchLimit)
}
