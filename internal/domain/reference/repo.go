package reference

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the referenced category does not exist.
var ErrNotFound = errors.New("reference record not found")

type Repository interface {
	ListCategories(ctx context.Context) ([]*SymptomCategory, error)
	ListSymptomsByCategory(ctx context.Context, categoryID int64) ([]*Symptom, error)
	CategoryExists(ctx context.Context, categoryID int64) (bool, error)
	// SearchMedicines matches case-insensitively on name, ordered by name,
	// capped at limit results.
	SearchMedicines(ctx context.Context, query string, limit int) ([]*Medicine, error)
}
