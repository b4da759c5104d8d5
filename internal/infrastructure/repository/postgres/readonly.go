package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
)

// maxReadOnlyRows bounds how much of a result set ends up in a model prompt.
const maxReadOnlyRows = 50

var forbiddenKeyword = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|vacuum|comment)\b`)

// ReadOnlyQuerier executes model-generated SQL. The static guard rejects
// anything but a single SELECT, and the statement still runs inside a
// read-only transaction in case the guard is ever wrong.
type ReadOnlyQuerier struct {
	db *sql.DB
}

func NewReadOnlyQuerier(db *sql.DB) *ReadOnlyQuerier {
	return &ReadOnlyQuerier{db: db}
}

func (q *ReadOnlyQuerier) QueryReadOnly(ctx context.Context, query string) (*domain.StructuredResult, error) {
	query = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if err := validateReadOnly(query); err != nil {
		return nil, err
	}

	tx, err := q.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read-only tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &domain.StructuredResult{Columns: columns}
	for rows.Next() && len(result.Rows) < maxReadOnlyRows {
		values := make([]sql.NullString, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit read-only tx: %w", err)
	}
	return result, nil
}

func validateReadOnly(query string) error {
	if query == "" {
		return domain.WrapError(domain.ErrForbiddenQuery, "validate query", errors.New("empty statement"))
	}
	if strings.Contains(query, ";") {
		return domain.WrapError(domain.ErrForbiddenQuery, "validate query", errors.New("multiple statements"))
	}

	fields := strings.Fields(query)
	first := strings.ToUpper(fields[0])
	if first != "SELECT" && first != "WITH" {
		return domain.WrapError(domain.ErrForbiddenQuery, "validate query", fmt.Errorf("statement must start with SELECT, got %s", first))
	}
	if match := forbiddenKeyword.FindString(query); match != "" {
		return domain.WrapError(domain.ErrForbiddenQuery, "validate query", fmt.Errorf("forbidden keyword: %s", strings.ToUpper(match)))
	}
	return nil
}
