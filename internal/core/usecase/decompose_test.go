package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

type routerGeneratorFake struct {
	response string
	err      error
	prompt   string
}

func (f *routerGeneratorFake) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *routerGeneratorFake) GenerateStream(context.Context, string, func(string) error) error {
	return nil
}

func TestDecomposeParsesOrderedSubTasks(t *testing.T) {
	gen := &routerGeneratorFake{response: `[
  {"sub_query": "products under 50 dollars", "intent": "structured"},
  {"sub_query": "free shipping policy", "intent": "semantic_document"}
]`}
	d := NewDecomposer(gen)

	tasks, err := d.Decompose(context.Background(), "Show me shoes under $50 and do you have free shipping?", "")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 sub-tasks, got %d", len(tasks))
	}
	if tasks[0].Intent != domain.IntentStructured || tasks[1].Intent != domain.IntentSemanticDocument {
		t.Fatalf("unexpected intents: %v, %v", tasks[0].Intent, tasks[1].Intent)
	}
	if tasks[0].SubQuery != "products under 50 dollars" {
		t.Fatalf("unexpected first sub-query: %s", tasks[0].SubQuery)
	}
}

func TestDecomposeStripsCodeFences(t *testing.T) {
	gen := &routerGeneratorFake{response: "```json\n[{\"sub_query\": \"shop hours\", \"intent\": \"semantic_document\"}]\n```"}
	d := NewDecomposer(gen)

	tasks, err := d.Decompose(context.Background(), "when are you open", "")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].SubQuery != "shop hours" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestDecomposeFallsBackOnUnparseableOutput(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"prose", "Sure! Here is the breakdown you asked for."},
		{"empty list", "[]"},
		{"unknown intent", `[{"sub_query": "x", "intent": "keyword"}]`},
		{"blank sub-query", `[{"sub_query": "  ", "intent": "structured"}]`},
		{"object not list", `{"sub_query": "x", "intent": "structured"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDecomposer(&routerGeneratorFake{response: tc.response})
			tasks, err := d.Decompose(context.Background(), "original question", "")
			if err != nil {
				t.Fatalf("Decompose() error = %v", err)
			}
			if len(tasks) != 1 {
				t.Fatalf("expected single fallback task, got %d", len(tasks))
			}
			if tasks[0].Intent != domain.IntentSemanticDocument {
				t.Fatalf("fallback intent = %v", tasks[0].Intent)
			}
			if tasks[0].SubQuery != "original question" {
				t.Fatalf("fallback sub-query = %q", tasks[0].SubQuery)
			}
		})
	}
}

func TestDecomposePropagatesGeneratorError(t *testing.T) {
	d := NewDecomposer(&routerGeneratorFake{err: errors.New("model unreachable")})
	if _, err := d.Decompose(context.Background(), "q", ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecomposePromptIncludesPriorTurn(t *testing.T) {
	gen := &routerGeneratorFake{response: `[{"sub_query": "q", "intent": "semantic_document"}]`}
	d := NewDecomposer(gen)

	if _, err := d.Decompose(context.Background(), "what about that one?", "User: tell me about iPhone"); err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if !strings.Contains(gen.prompt, "User: tell me about iPhone") {
		t.Fatalf("prompt missing prior turn context")
	}
	if !strings.Contains(gen.prompt, "what about that one?") {
		t.Fatalf("prompt missing utterance")
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"```sql\nSELECT 1\n```", "SELECT 1"},
		{"```\nSELECT 1\n```", "SELECT 1"},
		{"```json\n[1]\n```", "[1]"},
		{"  ```[1]```  ", "[1]"},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
