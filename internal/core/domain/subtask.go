package domain

import "strings"

// Intent selects the execution strategy for one decomposed sub-query.
type Intent string

const (
	IntentStructured       Intent = "structured"
	IntentSemanticCatalog  Intent = "semantic_catalog"
	IntentSemanticDocument Intent = "semantic_document"
)

// ParseIntent validates a raw intent string from router output.
func ParseIntent(raw string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentStructured:
		return IntentStructured, true
	case IntentSemanticCatalog:
		return IntentSemanticCatalog, true
	case IntentSemanticDocument:
		return IntentSemanticDocument, true
	default:
		return "", false
	}
}

// SubTask is one independently resolvable unit of a user query.
type SubTask struct {
	SubQuery string `json:"sub_query"`
	Intent   Intent `json:"intent"`
}

// FallbackSubTasks is the degrade path for unparseable router output: the whole
// utterance is answered from the document collection.
func FallbackSubTasks(utterance string) []SubTask {
	return []SubTask{{SubQuery: utterance, Intent: IntentSemanticDocument}}
}

// ChatRequest is one user turn handed to the orchestrator by a delivery adapter.
type ChatRequest struct {
	UserID    string
	Utterance string
	PriorTurn string
	TopK      int
}
