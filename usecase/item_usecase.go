package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"tidyup-backend/dao"
	"tidyup-backend/model"
	"tidyup-backend/pkg/idgen"
	"tidyup-backend/pkg/pricing"
)

type ItemStore interface {
	Insert(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	IncrementViewCount(ctx context.Context, id string) error
}

// ItemInput is what a seller supplies when listing or editing an item.
type ItemInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
	ConditionID string  `json:"condition_id"`
	LocationID  *string `json:"location_id"`
	BasePrice   float64 `json:"base_price"`
	ImageURL    string  `json:"image_url"`
}

type ItemUsecase struct {
	itemRepo ItemStore
	catalog  CatalogStore
	events   EventRecorder
	audit    Auditor
	log      *zap.Logger
}

func NewItemUsecase(itemRepo ItemStore, catalog CatalogStore, events EventRecorder, audit Auditor, log *zap.Logger) *ItemUsecase {
	return &ItemUsecase{
		itemRepo: itemRepo,
		catalog:  catalog,
		events:   events,
		audit:    audit,
		log:      log,
	}
}

func (u *ItemUsecase) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	if filter.Status == "" {
		filter.Status = model.ItemOnSale
	}
	if filter.Status == model.ItemDeleted {
		return nil, invalid("unknown status")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, invalid("min_price must not exceed max_price")
	}
	filter.Limit = clampLimit(filter.Limit, 20, 100)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	items, err := u.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// GetItemByID is the public "view an item" path, so it counts a view.
func (u *ItemUsecase) GetItemByID(ctx context.Context, id string) (*model.Item, error) {
	if err := u.itemRepo.IncrementViewCount(ctx, id); err != nil {
		u.log.Warn("failed to increment views", zap.String("item_id", id), zap.Error(err))
	}
	item, err := u.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Status == model.ItemDeleted {
		return nil, notFound("item")
	}
	return item, nil
}

func (u *ItemUsecase) CreateItem(ctx context.Context, sellerID string, in ItemInput) (*model.Item, error) {
	price, err := u.validate(ctx, &in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item := &model.Item{
		ID:          idgen.New(),
		SellerID:    sellerID,
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		ConditionID: in.ConditionID,
		LocationID:  in.LocationID,
		BasePrice:   pricing.Round2(in.BasePrice),
		Price:       price,
		ImageURL:    in.ImageURL,
		Status:      model.ItemOnSale,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.itemRepo.Insert(ctx, item); err != nil {
		return nil, err
	}

	track(ctx, u.events, u.log, sellerID, model.EventItemListed)
	return item, nil
}

func (u *ItemUsecase) UpdateItem(ctx context.Context, itemID, sellerID string, in ItemInput) (*model.Item, error) {
	item, err := u.owned(ctx, itemID, sellerID)
	if err != nil {
		return nil, err
	}
	if item.Status != model.ItemOnSale {
		return nil, conflict("only items on sale can be edited")
	}
	price, err := u.validate(ctx, &in)
	if err != nil {
		return nil, err
	}

	item.Title = in.Title
	item.Description = in.Description
	item.CategoryID = in.CategoryID
	item.ConditionID = in.ConditionID
	item.LocationID = in.LocationID
	item.BasePrice = pricing.Round2(in.BasePrice)
	item.Price = price
	item.ImageURL = in.ImageURL
	item.UpdatedAt = time.Now()

	if err := u.itemRepo.Update(ctx, item); err != nil {
		if errors.Is(err, dao.ErrItemUnavailable) {
			return nil, conflict("only items on sale can be edited")
		}
		return nil, err
	}
	return item, nil
}

// DeleteItem soft-deletes: rows stay for chats and transactions that refer to them.
func (u *ItemUsecase) DeleteItem(ctx context.Context, itemID, sellerID string) error {
	item, err := u.owned(ctx, itemID, sellerID)
	if err != nil {
		return err
	}
	if item.Status != model.ItemOnSale {
		return conflict("cannot delete item not on sale")
	}
	item.Status = model.ItemDeleted
	item.UpdatedAt = time.Now()
	if err := u.itemRepo.Update(ctx, item); err != nil {
		if errors.Is(err, dao.ErrItemUnavailable) {
			return conflict("cannot delete item not on sale")
		}
		return err
	}
	u.audit.Audit(ctx, sellerID, "item.delete", "item", itemID, item.Title)
	return nil
}

func (u *ItemUsecase) owned(ctx context.Context, itemID, sellerID string) (*model.Item, error) {
	item, err := u.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Status == model.ItemDeleted {
		return nil, notFound("item")
	}
	if item.SellerID != sellerID {
		return nil, forbidden("only the seller can change this item")
	}
	return item, nil
}

// validate normalizes in and returns the computed price.
func (u *ItemUsecase) validate(ctx context.Context, in *ItemInput) (float64, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if n := utf8.RuneCountInString(in.Title); n < 1 || n > 100 {
		return 0, invalid("title must be 1 to 100 characters")
	}
	if utf8.RuneCountInString(in.Description) > 2000 {
		return 0, invalid("description must be at most 2000 characters")
	}
	if len(in.ImageURL) > 500 {
		return 0, invalid("image_url is too long")
	}
	if err := pricing.Validate(in.BasePrice); err != nil {
		return 0, invalid(err.Error())
	}

	category, err := u.catalog.GetCategory(ctx, in.CategoryID)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return 0, invalid("invalid category id")
	}
	condition, err := u.catalog.GetCondition(ctx, in.ConditionID)
	if err != nil {
		return 0, err
	}
	if condition == nil {
		return 0, invalid("invalid condition id")
	}
	if in.LocationID != nil && *in.LocationID == "" {
		in.LocationID = nil
	}
	if in.LocationID != nil {
		loc, err := u.catalog.GetLocation(ctx, *in.LocationID)
		if err != nil {
			return 0, err
		}
		if loc == nil {
			return 0, invalid("invalid location id")
		}
	}

	return pricing.Calculate(in.BasePrice, condition.Multiplier, category.PriceFactor), nil
}
