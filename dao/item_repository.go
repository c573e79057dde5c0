package dao

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
)

const itemColumns = `id, seller_id, title, description, category_id, condition_id, location_id, base_price, price,
	image_url, status, buyer_id, views_count, created_at, updated_at`

type ItemRepository struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Insert(ctx context.Context, item *model.Item) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO items (id, seller_id, title, description, category_id, condition_id, location_id,
			base_price, price, image_url, status, created_at, updated_at)
		VALUES (:id, :seller_id, :title, :description, :category_id, :condition_id, :location_id,
			:base_price, :price, :image_url, :status, :created_at, :updated_at)
	`, item)
	return err
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	return getOrNil(&item, r.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
}

// List applies every non-empty filter field; results are newest first.
func (r *ItemRepository) List(ctx context.Context, f model.ItemFilter) ([]model.Item, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		where = append(where, clause)
		args = append(args, v)
	}
	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.CategoryID != "" {
		add("category_id = ?", f.CategoryID)
	}
	if f.ConditionID != "" {
		add("condition_id = ?", f.ConditionID)
	}
	if f.LocationID != "" {
		add("location_id = ?", f.LocationID)
	}
	if f.SellerID != "" {
		add("seller_id = ?", f.SellerID)
	}
	if f.MinPrice != nil {
		add("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= ?", *f.MaxPrice)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(q) + "%"
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		args = append(args, like, like)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	var items []model.Item
	err := r.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// Update writes item only while the stored row is still on sale, so a
// purchase reserving it concurrently wins. It returns ErrItemUnavailable
// when the row is no longer on sale.
func (r *ItemRepository) Update(ctx context.Context, item *model.Item) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE items SET
			title        = :title,
			description  = :description,
			category_id  = :category_id,
			condition_id = :condition_id,
			location_id  = :location_id,
			base_price   = :base_price,
			price        = :price,
			image_url    = :image_url,
			status       = :status,
			updated_at   = :updated_at
		WHERE id = :id AND status = 'on_sale'
	`, item)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemUnavailable
	}
	return nil
}

func (r *ItemRepository) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE items SET views_count = views_count + 1 WHERE id = ? AND status <> 'deleted'`, id)
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
