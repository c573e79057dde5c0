package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model}, nil
}

type ListingSuggestion struct {
	CategorySlug string  `json:"category_slug"`
	BasePrice    float64 `json:"base_price"`
	Reasoning    string  `json:"reasoning"`
}

// SuggestListing asks the model to pick one of categories for a second-hand
// item and to estimate a fair base price in tokens for it in new condition.
func (c *Client) SuggestListing(ctx context.Context, title, description, condition string, categories []string) (*ListingSuggestion, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(listingPrompt(title, description, condition, categories)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	return parseSuggestion(resp.Text())
}

func listingPrompt(title, description, condition string, categories []string) string {
	return fmt.Sprintf(`
You help people list second-hand household items on "TidyUp", a token based marketplace.
One token is roughly one US dollar.

**Item:**
- Title: %s
- Description: %s
- Condition: %s

**Allowed categories (use the slug exactly):**
%s

**Instructions:**
1. Pick the single best category slug from the allowed list.
2. Estimate the base price in tokens the item would fetch in NEW condition. The marketplace
   applies the condition discount itself, so do not discount for wear.
3. Explain your choice in one or two short sentences.

Respond in JSON only:
{
  "category_slug": "one of the allowed slugs",
  "base_price": 0.00,
  "reasoning": "..."
}
`, title, description, condition, "- "+strings.Join(categories, "\n- "))
}

func parseSuggestion(txt string) (*ListingSuggestion, error) {
	txt = strings.TrimSpace(txt)
	if txt == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}
	// Some models still fence JSON output.
	txt = strings.TrimPrefix(txt, "```json")
	txt = strings.TrimSuffix(strings.TrimPrefix(txt, "```"), "```")

	var parsed ListingSuggestion
	if err := json.Unmarshal([]byte(txt), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	parsed.CategorySlug = strings.TrimSpace(strings.ToLower(parsed.CategorySlug))
	return &parsed, nil
}
