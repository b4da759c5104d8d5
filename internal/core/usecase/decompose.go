package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/core/ports"
)

// Decomposer breaks one user utterance into sub-tasks, each tagged with an
// execution intent. Router output is treated as untrusted text: it either
// parses strictly or the whole utterance degrades to a single
// semantic_document sub-task.
type Decomposer struct {
	generator ports.TextGenerator
	observer  TurnObserver
}

func NewDecomposer(generator ports.TextGenerator) *Decomposer {
	return &Decomposer{generator: generator, observer: nopObserver{}}
}

// Decompose returns the ordered sub-task list for an utterance. The only error
// it can return comes from the language-model transport; parse failures never
// surface to the caller.
func (d *Decomposer) Decompose(ctx context.Context, utterance, priorTurn string) ([]domain.SubTask, error) {
	raw, err := d.generator.Generate(ctx, buildRouterPrompt(utterance, priorTurn))
	if err != nil {
		return nil, fmt.Errorf("router generate: %w", err)
	}

	tasks, ok := parseSubTasks(raw)
	if !ok {
		slog.Warn("router_output_unparseable", "raw_len", len(raw))
		d.observer.RouterFallback()
		return domain.FallbackSubTasks(utterance), nil
	}
	return tasks, nil
}

func parseSubTasks(raw string) ([]domain.SubTask, bool) {
	type wireTask struct {
		SubQuery string `json:"sub_query"`
		Intent   string `json:"intent"`
	}

	cleaned := stripCodeFences(raw)
	var wire []wireTask
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, false
	}
	if len(wire) == 0 {
		return nil, false
	}

	tasks := make([]domain.SubTask, 0, len(wire))
	for _, t := range wire {
		subQuery := strings.TrimSpace(t.SubQuery)
		intent, valid := domain.ParseIntent(t.Intent)
		if subQuery == "" || !valid {
			return nil, false
		}
		tasks = append(tasks, domain.SubTask{SubQuery: subQuery, Intent: intent})
	}
	return tasks, true
}

// stripCodeFences removes markdown fence lines the model sometimes wraps its
// output in, with or without a language tag.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && !strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "{") {
		// drop the language tag line ("json", "sql", ...)
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildRouterPrompt(utterance, priorTurn string) string {
	if strings.TrimSpace(priorTurn) == "" {
		priorTurn = "(none)"
	}

	return fmt.Sprintf(`You are an intelligent query router for a retail shop assistant.
Break the user query into independent sub-tasks. Reference the previous
conversation context below; if the question is vague, infer the user's intent
from it.
Previous context:
%s

Assign one intent to each sub-task:
1. "structured": counting items, aggregations (average, max, sum), strict
   numeric filters (under $50, price > 100), listing products by brand or
   category, checking stock levels - anything needing precise data retrieval.
2. "semantic_catalog": finding products by description or feature
   ("comfortable shoes"), recommendations, "do you have something like X".
3. "semantic_document": shop policies, shipping, returns, store hours, any
   non-product information.

If the user asks for a specific product, emit BOTH a "structured" and a
"semantic_catalog" sub-task for it, so a typo or inexact name still matches.

Return ONLY a JSON list of objects, no prose, no markdown.
Example:
Query: "Show me shoes under $50 and do you have free shipping?"
Output: [
  {"sub_query": "products under 50 dollars", "intent": "structured"},
  {"sub_query": "free shipping policy", "intent": "semantic_document"}
]

Example:
Query: "is there iPhone in stock, tell me about it, and where is the shop?"
Output: [
  {"sub_query": "iPhone stock available", "intent": "structured"},
  {"sub_query": "about iPhone", "intent": "semantic_catalog"},
  {"sub_query": "shop address", "intent": "semantic_document"}
]

User query: %s
Output:`, priorTurn, utterance)
}
