package usecase

import (
	"context"

	"tidyup-backend/model"
)

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListConditions(ctx context.Context) ([]model.Condition, error)
	ListLocations(ctx context.Context) ([]model.Location, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	GetCondition(ctx context.Context, id string) (*model.Condition, error)
	GetConditionBySlug(ctx context.Context, slug string) (*model.Condition, error)
	GetLocation(ctx context.Context, id string) (*model.Location, error)
}

type CatalogUsecase struct {
	store CatalogStore
}

func NewCatalogUsecase(store CatalogStore) *CatalogUsecase {
	return &CatalogUsecase{store: store}
}

func (u *CatalogUsecase) Categories(ctx context.Context) ([]model.Category, error) {
	return u.store.ListCategories(ctx)
}

func (u *CatalogUsecase) Conditions(ctx context.Context) ([]model.Condition, error) {
	return u.store.ListConditions(ctx)
}

func (u *CatalogUsecase) Locations(ctx context.Context) ([]model.Location, error) {
	return u.store.ListLocations(ctx)
}
