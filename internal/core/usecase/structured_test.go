package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

type sqlGeneratorFake struct {
	response string
	err      error
	prompt   string
}

func (f *sqlGeneratorFake) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *sqlGeneratorFake) GenerateStream(context.Context, string, func(string) error) error {
	return nil
}

type querierFake struct {
	result   *domain.StructuredResult
	err      error
	executed string
}

func (f *querierFake) QueryReadOnly(_ context.Context, query string) (*domain.StructuredResult, error) {
	f.executed = query
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestRunStructuredFormatsResult(t *testing.T) {
	gen := &sqlGeneratorFake{response: "SELECT COUNT(*) FROM products WHERE brand ILIKE 'nike'"}
	querier := &querierFake{result: &domain.StructuredResult{
		Columns: []string{"count"},
		Rows:    [][]string{{"12"}},
	}}
	p := NewStructuredPipeline(gen, querier)

	block, err := p.RunStructured(context.Background(), "how many Nike products do we have?")
	if err != nil {
		t.Fatalf("RunStructured() error = %v", err)
	}
	if !strings.Contains(block, "SELECT COUNT(*)") {
		t.Fatalf("block missing generated query: %s", block)
	}
	if !strings.Contains(block, "count") || !strings.Contains(block, "12") {
		t.Fatalf("block missing result set: %s", block)
	}
}

func TestRunStructuredStripsFencesBeforeExecution(t *testing.T) {
	gen := &sqlGeneratorFake{response: "```sql\nSELECT name FROM products\n```"}
	querier := &querierFake{result: &domain.StructuredResult{Columns: []string{"name"}}}
	p := NewStructuredPipeline(gen, querier)

	if _, err := p.RunStructured(context.Background(), "list products"); err != nil {
		t.Fatalf("RunStructured() error = %v", err)
	}
	if querier.executed != "SELECT name FROM products" {
		t.Fatalf("executed query = %q", querier.executed)
	}
}

func TestRunStructuredFoldsExecutionErrorIntoBlock(t *testing.T) {
	gen := &sqlGeneratorFake{response: "SELECT nope FROM products"}
	querier := &querierFake{err: errors.New(`column "nope" does not exist`)}
	p := NewStructuredPipeline(gen, querier)

	block, err := p.RunStructured(context.Background(), "broken question")
	if err != nil {
		t.Fatalf("execution failure must not surface as error, got %v", err)
	}
	if !strings.Contains(block, "Database data could not be retrieved") {
		t.Fatalf("block missing failure statement: %s", block)
	}
	if !strings.Contains(block, "does not exist") {
		t.Fatalf("block missing error text: %s", block)
	}
}

func TestRunStructuredPropagatesGeneratorError(t *testing.T) {
	p := NewStructuredPipeline(&sqlGeneratorFake{err: errors.New("model down")}, &querierFake{})
	if _, err := p.RunStructured(context.Background(), "q"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSQLPromptDeclaresSchemaAndRules(t *testing.T) {
	gen := &sqlGeneratorFake{response: "SELECT 1"}
	p := NewStructuredPipeline(gen, &querierFake{result: &domain.StructuredResult{}})

	if _, err := p.RunStructured(context.Background(), "anything"); err != nil {
		t.Fatalf("RunStructured() error = %v", err)
	}
	for _, want := range []string{"stock_quantity", "ILIKE", "COUNT(*)", "Read-only"} {
		if !strings.Contains(gen.prompt, want) {
			t.Fatalf("sql prompt missing %q", want)
		}
	}
}
