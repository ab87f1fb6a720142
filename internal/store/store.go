// Package store is the Postgres persistence collaborator: donors, hospitals,
// and blood requests with their responses.
package store

import (
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// upsertSuffix builds an ON CONFLICT clause that overwrites every column
// except the conflict key and the immutable ones, in column order.
func upsertSuffix(conflict string, columns []string, immutable ...string) string {
	sets := make([]string, 0, len(columns))
	for _, column := range columns {
		if column == conflict || slices.Contains(immutable, column) {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", conflict, strings.Join(sets, ", "))
}

// rowValues returns the db-tagged values of row in the order of columns.
func rowValues(columns []string, row map[string]any) []any {
	values := make([]any, len(columns))
	for i, column := range columns {
		values[i] = row[column]
	}
	return values
}
