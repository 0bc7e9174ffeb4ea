package reference

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digidocs/digidocs/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) ListCategories(ctx context.Context) ([]*SymptomCategory, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name FROM symptom_category ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list symptom categories: %w", err)
	}
	defer rows.Close()

	var out []*SymptomCategory
	for rows.Next() {
		var c SymptomCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *repoPG) ListSymptomsByCategory(ctx context.Context, categoryID int64) ([]*Symptom, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, category_id FROM symptom WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list symptoms: %w", err)
	}
	defer rows.Close()

	var out []*Symptom
	for rows.Next() {
		var s Symptom
		if err := rows.Scan(&s.ID, &s.Name, &s.CategoryID); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) CategoryExists(ctx context.Context, categoryID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM symptom_category WHERE id = $1)`, categoryID).Scan(&exists)
	return exists, err
}

func (r *repoPG) SearchMedicines(ctx context.Context, query string, limit int) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name FROM medicine
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search medicines: %w", err)
	}
	defer rows.Close()

	var out []*Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
