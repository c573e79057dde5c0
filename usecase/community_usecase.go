package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"tidyup-backend/model"
	"tidyup-backend/pkg/idgen"
)

type CommunityStore interface {
	CreatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context, authorID string, limit, offset int) ([]model.Post, error)
	UpdatePost(ctx context.Context, p *model.Post) error
	ReactionCounts(ctx context.Context, postIDs []string) (map[string]map[string]int, error)

	CreateComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
	SoftDeleteComment(ctx context.Context, id string) error

	// AddReaction and RemoveReaction report whether a row changed.
	AddReaction(ctx context.Context, r model.Reaction) (bool, error)
	RemoveReaction(ctx context.Context, r model.Reaction) (bool, error)
}

type CommunityUsecase struct {
	store  CommunityStore
	events EventRecorder
	notify Notifier
	audit  Auditor
	log    *zap.Logger
}

func NewCommunityUsecase(store CommunityStore, events EventRecorder, notify Notifier, audit Auditor, log *zap.Logger) *CommunityUsecase {
	return &CommunityUsecase{store: store, events: events, notify: notify, audit: audit, log: log}
}

// ReactionResult is returned by Toggle.
type ReactionResult struct {
	Kind      string         `json:"kind"`
	Active    bool           `json:"active"`
	Reactions map[string]int `json:"reactions"`
}

func (u *CommunityUsecase) CreatePost(ctx context.Context, authorID, title, body string) (*model.Post, error) {
	title, body, err := validatePost(title, body)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	p := &model.Post{
		ID:        idgen.New(),
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		Status:    model.PostPublished,
		CreatedAt: now,
		UpdatedAt: now,
		Reactions: map[string]int{},
	}
	if err := u.store.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	track(ctx, u.events, u.log, authorID, model.EventPostCreated)
	return p, nil
}

func (u *CommunityUsecase) ListPosts(ctx context.Context, authorID string, limit, offset int) ([]model.Post, error) {
	if offset < 0 {
		offset = 0
	}
	posts, err := u.store.ListPosts(ctx, authorID, clampLimit(limit, 20, 100), offset)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return []model.Post{}, nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	counts, err := u.store.ReactionCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Reactions = withKinds(counts[posts[i].ID])
	}
	return posts, nil
}

func (u *CommunityUsecase) GetPost(ctx context.Context, id string) (*model.Post, error) {
	p, err := u.published(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := u.store.ReactionCounts(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	p.Reactions = withKinds(counts[id])
	return p, nil
}

func (u *CommunityUsecase) UpdatePost(ctx context.Context, id, authorID, title, body string) (*model.Post, error) {
	p, err := u.published(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != authorID {
		return nil, forbidden("only the author can edit this post")
	}
	if p.Title, p.Body, err = validatePost(title, body); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()
	if err := u.store.UpdatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *CommunityUsecase) DeletePost(ctx context.Context, id string, actor Actor) error {
	p, err := u.published(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != actor.UserID && !actor.IsAdmin() {
		return forbidden("only the author can delete this post")
	}
	p.Status = model.PostDeleted
	p.UpdatedAt = time.Now()
	if err := u.store.UpdatePost(ctx, p); err != nil {
		return err
	}
	u.audit.Audit(ctx, actor.UserID, "post.delete", "post", id, p.Title)
	return nil
}

func (u *CommunityUsecase) AddComment(ctx context.Context, postID, authorID, body string) (*model.Comment, error) {
	p, err := u.published(ctx, postID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n < 1 || n > 1000 {
		return nil, invalid("comment must be 1 to 1000 characters")
	}
	c := &model.Comment{
		ID:        idgen.New(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := u.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	if p.AuthorID != authorID {
		u.notify.Notify(ctx, p.AuthorID, model.NotifyComment, "New comment on "+p.Title, preview(body), postID)
	}
	track(ctx, u.events, u.log, authorID, model.EventCommentCreated)
	return c, nil
}

func (u *CommunityUsecase) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	if _, err := u.published(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := u.store.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

func (u *CommunityUsecase) DeleteComment(ctx context.Context, id string, actor Actor) error {
	c, err := u.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c == nil || c.Deleted {
		return notFound("comment")
	}
	if c.AuthorID != actor.UserID && !actor.IsAdmin() {
		return forbidden("only the author can delete this comment")
	}
	if err := u.store.SoftDeleteComment(ctx, id); err != nil {
		return err
	}
	if actor.UserID != c.AuthorID {
		u.audit.Audit(ctx, actor.UserID, "comment.delete", "comment", id, "")
	}
	return nil
}

// ToggleReaction adds the reaction if absent and removes it if present.
func (u *CommunityUsecase) ToggleReaction(ctx context.Context, postID, userID, kind string) (*ReactionResult, error) {
	if !validReaction(kind) {
		return nil, invalid("reaction must be one of " + strings.Join(model.ReactionKinds, ", "))
	}
	if _, err := u.published(ctx, postID); err != nil {
		return nil, err
	}

	r := model.Reaction{PostID: postID, UserID: userID, Kind: kind}
	removed, err := u.store.RemoveReaction(ctx, r)
	if err != nil {
		return nil, err
	}
	active := false
	if !removed {
		if active, err = u.store.AddReaction(ctx, r); err != nil {
			return nil, err
		}
	}

	counts, err := u.store.ReactionCounts(ctx, []string{postID})
	if err != nil {
		return nil, err
	}
	return &ReactionResult{Kind: kind, Active: active, Reactions: withKinds(counts[postID])}, nil
}

func (u *CommunityUsecase) published(ctx context.Context, id string) (*model.Post, error) {
	p, err := u.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Status != model.PostPublished {
		return nil, notFound("post")
	}
	return p, nil
}

func validatePost(title, body string) (string, string, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(title); n < 1 || n > 150 {
		return "", "", invalid("title must be 1 to 150 characters")
	}
	if n := utf8.RuneCountInString(body); n < 1 || n > 5000 {
		return "", "", invalid("body must be 1 to 5000 characters")
	}
	return title, body, nil
}

func validReaction(kind string) bool {
	for _, k := range model.ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// withKinds returns counts with every reaction kind present.
func withKinds(counts map[string]int) map[string]int {
	out := make(map[string]int, len(model.ReactionKinds))
	for _, k := range model.ReactionKinds {
		out[k] = counts[k]
	}
	return out
}
