package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tidyup-backend/model"
	"tidyup-backend/pkg/gemini"
	"tidyup-backend/pkg/pricing"
)

// Suggester is the AI model behind listing suggestions.
type Suggester interface {
	SuggestListing(ctx context.Context, title, description, condition string, categories []string) (*gemini.ListingSuggestion, error)
}

// Keyword hints and default new-condition base prices for the heuristic.
var categoryHints = map[string]struct {
	keywords  []string
	basePrice float64
}{
	"electronics": {[]string{"phone", "laptop", "tv", "camera", "headphone", "speaker", "console", "tablet", "monitor", "charger"}, 120},
	"furniture":   {[]string{"chair", "table", "sofa", "desk", "shelf", "bed", "drawer", "cabinet", "couch", "wardrobe"}, 80},
	"clothing":    {[]string{"shirt", "jacket", "dress", "shoes", "jeans", "coat", "sweater", "hat", "boots", "skirt"}, 25},
	"books":       {[]string{"book", "novel", "dvd", "vinyl", "comic", "magazine", "cd", "textbook"}, 12},
	"toys":        {[]string{"toy", "lego", "doll", "puzzle", "board game", "plush", "action figure"}, 20},
	"kitchen":     {[]string{"pan", "pot", "knife", "blender", "mug", "plate", "kettle", "toaster", "cutlery"}, 30},
	"sports":      {[]string{"bike", "bicycle", "ball", "racket", "yoga", "dumbbell", "skate", "tent", "helmet"}, 60},
}

const defaultBasePrice = 20

type AssistantUsecase struct {
	catalog CatalogStore
	ai      Suggester
	log     *zap.Logger
}

// NewAssistantUsecase builds the assistant. ai may be nil, in which case only
// the keyword heuristic is used.
func NewAssistantUsecase(catalog CatalogStore, ai Suggester, log *zap.Logger) *AssistantUsecase {
	return &AssistantUsecase{catalog: catalog, ai: ai, log: log}
}

func (u *AssistantUsecase) Suggest(ctx context.Context, title, description, conditionSlug string) (*model.PriceSuggestion, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if conditionSlug == "" {
		conditionSlug = "good"
	}
	condition, err := u.catalog.GetConditionBySlug(ctx, conditionSlug)
	if err != nil {
		return nil, err
	}
	if condition == nil {
		return nil, invalid("unknown condition")
	}
	categories, err := u.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, notFound("categories")
	}

	if u.ai != nil {
		if s := u.fromAI(ctx, title, description, condition, categories); s != nil {
			return s, nil
		}
	}

	category, base := heuristic(title+" "+description, categories)
	return &model.PriceSuggestion{
		CategoryID:   category.ID,
		CategorySlug: category.Slug,
		BasePrice:    base,
		Price:        pricing.Calculate(base, condition.Multiplier, category.PriceFactor),
		Reasoning:    "Matched keywords for " + category.Name,
		Source:       "heuristic",
	}, nil
}

// fromAI returns nil when the model fails or answers outside the catalog.
func (u *AssistantUsecase) fromAI(ctx context.Context, title, description string, condition *model.Condition, categories []model.Category) *model.PriceSuggestion {
	slugs := make([]string, len(categories))
	for i, c := range categories {
		slugs[i] = c.Slug
	}
	resp, err := u.ai.SuggestListing(ctx, title, description, condition.Name, slugs)
	if err != nil {
		u.log.Warn("ai suggestion failed, using heuristic", zap.Error(err))
		return nil
	}

	var category *model.Category
	for i := range categories {
		if categories[i].Slug == resp.CategorySlug {
			category = &categories[i]
			break
		}
	}
	if category == nil || pricing.Validate(resp.BasePrice) != nil {
		u.log.Warn("ai suggestion rejected", zap.String("category_slug", resp.CategorySlug), zap.Float64("base_price", resp.BasePrice))
		return nil
	}

	base := pricing.Round2(resp.BasePrice)
	return &model.PriceSuggestion{
		CategoryID:   category.ID,
		CategorySlug: category.Slug,
		BasePrice:    base,
		Price:        pricing.Calculate(base, condition.Multiplier, category.PriceFactor),
		Reasoning:    resp.Reasoning,
		Source:       "ai",
	}
}

// heuristic picks the category with the most keyword hits, falling back to
// "other" (or the first category) when nothing matches.
func heuristic(text string, categories []model.Category) (*model.Category, float64) {
	text = strings.ToLower(text)
	bySlug := make(map[string]*model.Category, len(categories))
	for i := range categories {
		bySlug[categories[i].Slug] = &categories[i]
	}

	var best *model.Category
	bestBase, bestHits := float64(defaultBasePrice), 0
	for slug, hint := range categoryHints {
		c, ok := bySlug[slug]
		if !ok {
			continue
		}
		hits := 0
		for _, kw := range hint.keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && best != nil && slug < best.Slug) {
			best, bestBase, bestHits = c, hint.basePrice, hits
		}
	}
	if best != nil {
		return best, bestBase
	}
	if c, ok := bySlug["other"]; ok {
		return c, defaultBasePrice
	}
	return &categories[0], defaultBasePrice
}
