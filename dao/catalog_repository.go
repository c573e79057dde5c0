package dao

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
)

// CatalogRepository reads the seeded reference tables.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := r.db.SelectContext(ctx, &out, `SELECT id, slug, name, price_factor FROM categories ORDER BY name`)
	return out, err
}

func (r *CatalogRepository) ListConditions(ctx context.Context) ([]model.Condition, error) {
	var out []model.Condition
	err := r.db.SelectContext(ctx, &out, `SELECT id, slug, name, multiplier FROM conditions ORDER BY multiplier DESC`)
	return out, err
}

func (r *CatalogRepository) ListLocations(ctx context.Context) ([]model.Location, error) {
	var out []model.Location
	err := r.db.SelectContext(ctx, &out, `SELECT id, name, region FROM locations ORDER BY name`)
	return out, err
}

func (r *CatalogRepository) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	return getOrNil(&c, r.db.GetContext(ctx, &c, `SELECT id, slug, name, price_factor FROM categories WHERE id = ?`, id))
}

func (r *CatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var c model.Category
	return getOrNil(&c, r.db.GetContext(ctx, &c, `SELECT id, slug, name, price_factor FROM categories WHERE slug = ?`, slug))
}

func (r *CatalogRepository) GetCondition(ctx context.Context, id string) (*model.Condition, error) {
	var c model.Condition
	return getOrNil(&c, r.db.GetContext(ctx, &c, `SELECT id, slug, name, multiplier FROM conditions WHERE id = ?`, id))
}

func (r *CatalogRepository) GetConditionBySlug(ctx context.Context, slug string) (*model.Condition, error) {
	var c model.Condition
	return getOrNil(&c, r.db.GetContext(ctx, &c, `SELECT id, slug, name, multiplier FROM conditions WHERE slug = ?`, slug))
}

func (r *CatalogRepository) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	var l model.Location
	return getOrNil(&l, r.db.GetContext(ctx, &l, `SELECT id, name, region FROM locations WHERE id = ?`, id))
}

// getOrNil maps sql.ErrNoRows to (nil, nil).
func getOrNil[T any](v *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
