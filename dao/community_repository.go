package dao

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
)

type CommunityRepository struct {
	db *sqlx.DB
}

func NewCommunityRepository(db *sqlx.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

const postSelect = `
	SELECT p.id, p.author_id, p.title, p.body, p.status, p.created_at, p.updated_at,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.deleted = FALSE) AS comment_count
	FROM posts p`

func (r *CommunityRepository) CreatePost(ctx context.Context, p *model.Post) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO posts (id, author_id, title, body, status, created_at, updated_at)
		VALUES (:id, :author_id, :title, :body, :status, :created_at, :updated_at)
	`, p)
	return err
}

func (r *CommunityRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	return getOrNil(&p, r.db.GetContext(ctx, &p, postSelect+` WHERE p.id = ?`, id))
}

// ListPosts returns published posts, newest first. authorID is optional.
func (r *CommunityRepository) ListPosts(ctx context.Context, authorID string, limit, offset int) ([]model.Post, error) {
	query := postSelect + ` WHERE p.status = ?`
	args := []interface{}{model.PostPublished}
	if authorID != "" {
		query += " AND p.author_id = ?"
		args = append(args, authorID)
	}
	query += " ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, args...)
	return posts, err
}

func (r *CommunityRepository) UpdatePost(ctx context.Context, p *model.Post) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE posts SET title = :title, body = :body, status = :status, updated_at = :updated_at
		WHERE id = :id
	`, p)
	return err
}

// ReactionCounts returns post id -> kind -> count.
func (r *CommunityRepository) ReactionCounts(ctx context.Context, postIDs []string) (map[string]map[string]int, error) {
	out := make(map[string]map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
		SELECT post_id, kind, COUNT(*) AS total FROM reactions
		WHERE post_id IN (?) GROUP BY post_id, kind
	`, postIDs)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		PostID string `db:"post_id"`
		Kind   string `db:"kind"`
		Total  int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.PostID] == nil {
			out[row.PostID] = map[string]int{}
		}
		out[row.PostID][row.Kind] = row.Total
	}
	return out, nil
}

func (r *CommunityRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, body, created_at)
		VALUES (:id, :post_id, :author_id, :body, :created_at)
	`, c)
	return err
}

func (r *CommunityRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	return getOrNil(&c, r.db.GetContext(ctx, &c, `
		SELECT id, post_id, author_id, body, deleted, created_at FROM comments WHERE id = ?
	`, id))
}

func (r *CommunityRepository) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.SelectContext(ctx, &comments, `
		SELECT id, post_id, author_id, body, deleted, created_at FROM comments
		WHERE post_id = ? AND deleted = FALSE
		ORDER BY created_at, id
	`, postID)
	return comments, err
}

func (r *CommunityRepository) SoftDeleteComment(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE comments SET deleted = TRUE WHERE id = ?`, id)
	return err
}

func (r *CommunityRepository) AddReaction(ctx context.Context, rx model.Reaction) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT IGNORE INTO reactions (post_id, user_id, kind) VALUES (?, ?, ?)`,
		rx.PostID, rx.UserID, rx.Kind)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CommunityRepository) RemoveReaction(ctx context.Context, rx model.Reaction) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reactions WHERE post_id = ? AND user_id = ? AND kind = ?`,
		rx.PostID, rx.UserID, rx.Kind)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
