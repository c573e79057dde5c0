package usecase

import (
	"context"
	"sync"
	"time"

	"tidyup-backend/dao"
	"tidyup-backend/model"
	"tidyup-backend/pkg/pricing"
)

// recorder captures side effects sent to the cross-cutting interfaces.
type recorder struct {
	mu         sync.Mutex
	events     []string // userID:event
	notices    []notice
	audits     []string // action
	broadcasts []string // group event
}

type notice struct {
	UserID, Kind, Title, Body, RefID string
}

func (r *recorder) Record(_ context.Context, userID, event string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, userID+":"+event)
	return nil
}

func (r *recorder) Notify(_ context.Context, userID, kind, title, body, refID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{userID, kind, title, body, refID})
}

func (r *recorder) Audit(_ context.Context, _, action, _, _, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, action)
}

func (r *recorder) Broadcast(group, event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, group+" "+event)
}

// market is an in-memory ledger of users, items, transactions and escrows.
type market struct {
	balances map[string]float64
	items    map[string]*model.Item
	txs      map[string]*model.Transaction
	escrows  map[string]*model.Escrow // by transaction id
}

func newMarket() *market {
	return &market{
		balances: map[string]float64{},
		items:    map[string]*model.Item{},
		txs:      map[string]*model.Transaction{},
		escrows:  map[string]*model.Escrow{},
	}
}

func (m *market) total() float64 {
	sum := 0.0
	for _, b := range m.balances {
		sum += b
	}
	for _, e := range m.escrows {
		if e.Status == model.EscrowHeld {
			sum += e.Amount
		}
	}
	return pricing.Round2(sum)
}

type itemStore struct{ *market }

func (s itemStore) Insert(_ context.Context, item *model.Item) error {
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s itemStore) GetByID(_ context.Context, id string) (*model.Item, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (s itemStore) List(_ context.Context, filter model.ItemFilter) ([]model.Item, error) {
	var out []model.Item
	for _, it := range s.items {
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

// Update mirrors the conditional UPDATE in dao.ItemRepository.
func (s itemStore) Update(_ context.Context, item *model.Item) error {
	if stored, ok := s.items[item.ID]; !ok || stored.Status != model.ItemOnSale {
		return dao.ErrItemUnavailable
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s itemStore) IncrementViewCount(_ context.Context, id string) error {
	if it, ok := s.items[id]; ok {
		it.ViewsCount++
	}
	return nil
}

type txStore struct{ *market }

func (s txStore) Open(_ context.Context, t *model.Transaction, e *model.Escrow) error {
	it, ok := s.items[t.ItemID]
	if !ok || it.Status != model.ItemOnSale || pricing.Round2(it.Price) != pricing.Round2(t.Amount) {
		return dao.ErrItemUnavailable
	}
	if s.balances[t.BuyerID] < t.Amount {
		return dao.ErrInsufficientTokens
	}
	s.balances[t.BuyerID] = pricing.Round2(s.balances[t.BuyerID] - t.Amount)
	tc, ec := *t, *e
	s.txs[t.ID] = &tc
	s.escrows[t.ID] = &ec
	it.Status = model.ItemReserved
	return nil
}

func (s txStore) GetByID(_ context.Context, id string) (*model.Transaction, error) {
	t, ok := s.txs[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s txStore) ListByUser(_ context.Context, userID, status string) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range s.txs {
		if t.IsParty(userID) && (status == "" || t.Status == status) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s txStore) Transition(_ context.Context, id string, fn func(t *model.Transaction) error) (*model.Transaction, string, error) {
	stored, ok := s.txs[id]
	if !ok {
		return nil, "", nil
	}
	t := *stored
	prev := t.Status
	if err := fn(&t); err != nil {
		return nil, "", err
	}
	if t.Status != prev {
		e := s.escrows[id]
		it := s.items[t.ItemID]
		switch t.Status {
		case model.TxCompleted:
			e.Status = model.EscrowReleased
			s.balances[t.SellerID] = pricing.Round2(s.balances[t.SellerID] + e.Amount)
			it.Status = model.ItemSold
			buyer := t.BuyerID
			it.BuyerID = &buyer
		case model.TxCancelled:
			e.Status = model.EscrowRefunded
			s.balances[t.BuyerID] = pricing.Round2(s.balances[t.BuyerID] + e.Amount)
			if it.Status == model.ItemReserved {
				it.Status = model.ItemOnSale
			}
		}
	}
	*stored = t
	out := t
	return &out, prev, nil
}

func (s txStore) ListStalePending(_ context.Context, before time.Time) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range s.txs {
		if t.Status == model.TxPending && t.CreatedAt.Before(before) {
			out = append(out, *t)
		}
	}
	return out, nil
}

type chatStore struct {
	chats    map[string]*model.Chat
	messages []model.Message
}

func newChatStore(chats ...model.Chat) *chatStore {
	s := &chatStore{chats: map[string]*model.Chat{}}
	for i := range chats {
		c := chats[i]
		s.chats[c.ID] = &c
	}
	return s
}

func (s *chatStore) GetOrCreate(_ context.Context, c *model.Chat) (*model.Chat, error) {
	for _, existing := range s.chats {
		if existing.ItemID == c.ItemID && existing.BuyerID == c.BuyerID {
			cp := *existing
			return &cp, nil
		}
	}
	cp := *c
	s.chats[c.ID] = &cp
	return c, nil
}

func (s *chatStore) GetByID(_ context.Context, id string) (*model.Chat, error) {
	c, ok := s.chats[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *chatStore) ListByUser(_ context.Context, userID string) ([]model.Chat, error) {
	var out []model.Chat
	for _, c := range s.chats {
		if c.IsParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *chatStore) CreateMessage(_ context.Context, m *model.Message) error {
	s.messages = append(s.messages, *m)
	s.chats[m.ChatID].LastMessageAt = m.CreatedAt
	return nil
}

func (s *chatStore) ListMessages(_ context.Context, chatID string, _ *time.Time, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, m := range s.messages {
		if m.ChatID == chatID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *chatStore) MarkRead(_ context.Context, chatID, readerID string, at time.Time) (int64, error) {
	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.ChatID == chatID && m.SenderID != readerID && m.ReadAt == nil {
			m.ReadAt = &at
			n++
		}
	}
	return n, nil
}

type communityStore struct {
	posts     map[string]*model.Post
	comments  map[string]*model.Comment
	reactions map[model.Reaction]bool
}

func newCommunityStore() *communityStore {
	return &communityStore{
		posts:     map[string]*model.Post{},
		comments:  map[string]*model.Comment{},
		reactions: map[model.Reaction]bool{},
	}
}

func (s *communityStore) CreatePost(_ context.Context, p *model.Post) error {
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s *communityStore) GetPost(_ context.Context, id string) (*model.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *communityStore) ListPosts(_ context.Context, authorID string, limit, offset int) ([]model.Post, error) {
	var out []model.Post
	for _, p := range s.posts {
		if p.Status == model.PostPublished && (authorID == "" || p.AuthorID == authorID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *communityStore) UpdatePost(_ context.Context, p *model.Post) error {
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s *communityStore) ReactionCounts(_ context.Context, postIDs []string) (map[string]map[string]int, error) {
	out := map[string]map[string]int{}
	for _, id := range postIDs {
		out[id] = map[string]int{}
	}
	for r := range s.reactions {
		if counts, ok := out[r.PostID]; ok {
			counts[r.Kind]++
		}
	}
	return out, nil
}

func (s *communityStore) CreateComment(_ context.Context, c *model.Comment) error {
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *communityStore) GetComment(_ context.Context, id string) (*model.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *communityStore) ListComments(_ context.Context, postID string) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range s.comments {
		if c.PostID == postID && !c.Deleted {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *communityStore) SoftDeleteComment(_ context.Context, id string) error {
	s.comments[id].Deleted = true
	return nil
}

func (s *communityStore) AddReaction(_ context.Context, r model.Reaction) (bool, error) {
	if s.reactions[r] {
		return false, nil
	}
	s.reactions[r] = true
	return true, nil
}

func (s *communityStore) RemoveReaction(_ context.Context, r model.Reaction) (bool, error) {
	if !s.reactions[r] {
		return false, nil
	}
	delete(s.reactions, r)
	return true, nil
}

// catalogStore serves a fixed catalog.
type catalogStore struct{}

var (
	testCategories = []model.Category{
		{ID: "cat_electronics", Slug: "electronics", Name: "Electronics", PriceFactor: 1.0},
		{ID: "cat_books", Slug: "books", Name: "Books", PriceFactor: 0.6},
		{ID: "cat_other", Slug: "other", Name: "Other", PriceFactor: 0.8},
	}
	testConditions = []model.Condition{
		{ID: "cond_new", Slug: "new", Name: "New", Multiplier: 1.0},
		{ID: "cond_good", Slug: "good", Name: "Good", Multiplier: 0.75},
	}
)

func (catalogStore) ListCategories(context.Context) ([]model.Category, error) {
	return testCategories, nil
}

func (catalogStore) ListConditions(context.Context) ([]model.Condition, error) {
	return testConditions, nil
}

func (catalogStore) ListLocations(context.Context) ([]model.Location, error) {
	return []model.Location{{ID: "loc_tokyo", Name: "Tokyo"}}, nil
}

func (catalogStore) GetCategory(_ context.Context, id string) (*model.Category, error) {
	for i := range testCategories {
		if testCategories[i].ID == id {
			c := testCategories[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (catalogStore) GetCategoryBySlug(_ context.Context, slug string) (*model.Category, error) {
	for i := range testCategories {
		if testCategories[i].Slug == slug {
			c := testCategories[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (catalogStore) GetCondition(_ context.Context, id string) (*model.Condition, error) {
	for i := range testConditions {
		if testConditions[i].ID == id {
			c := testConditions[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (catalogStore) GetConditionBySlug(_ context.Context, slug string) (*model.Condition, error) {
	for i := range testConditions {
		if testConditions[i].Slug == slug {
			c := testConditions[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (catalogStore) GetLocation(_ context.Context, id string) (*model.Location, error) {
	if id == "loc_tokyo" {
		return &model.Location{ID: id, Name: "Tokyo"}, nil
	}
	return nil, nil
}
