package usecase

import (
	"fmt"
	"strings"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

// Context formatters are pure and total: empty input yields an explicit
// "no results" sentence, never an empty string, so the final prompt always
// contains a definite statement for every sub-task.

func FormatCatalogContext(items []domain.CatalogItem) string {
	if len(items) == 0 {
		return "No relevant products found in the database."
	}

	var b strings.Builder
	b.WriteString("Here are the relevant products from our database:\n")
	for idx, item := range items {
		fmt.Fprintf(&b, "\n%d. **%s** (%s)\n", idx+1, item.Name, item.NameMM)
		fmt.Fprintf(&b, "   - Category: %s, Brand: %s\n", item.Category, item.Brand)
		fmt.Fprintf(&b, "   - Price: $%s, Stock: %d\n", item.Price, item.StockQuantity)
		fmt.Fprintf(&b, "   - Description: %s\n", item.Description)
	}
	return b.String()
}

func FormatDocumentContext(frags []domain.DocumentFragment) string {
	if len(frags) == 0 {
		return "No relevant shop information found."
	}

	var b strings.Builder
	b.WriteString("Here is the relevant shop information:\n")
	for idx, frag := range frags {
		// Contextualization can be absent for fragments ingested before the
		// contextualizer existed; fall back to the raw chunk.
		text := frag.ContextualizedText
		if strings.TrimSpace(text) == "" {
			text = frag.ChunkText
		}
		fmt.Fprintf(&b, "\n%d. %s\n", idx+1, text)
	}
	return b.String()
}
