package dictionary

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/annotext/annotation-platform/pkg/errors"
	"github.com/annotext/annotation-platform/pkg/postgres"
	"github.com/annotext/annotation-platform/pkg/resilience"
)

// PostgresSource loads terms from a table with (dictionary, term) columns.
// The query is retried with backoff; retry policy lives here in the source,
// never in the matcher itself. Rows are staged in memory so a retried query
// does not double-count terms.
type PostgresSource struct {
	DB    *postgres.Client
	Table string
	Retry resilience.RetryConfig
}

func (s PostgresSource) Name() string {
	return "postgres:" + s.Table
}

func (s PostgresSource) Load(ctx context.Context, reg *Registry) (int, error) {
	type row struct {
		dict string
		term string
	}
	var staged []row

	err := resilience.Retry(ctx, "dictionary-query", s.Retry, func() error {
		staged = staged[:0]
		rows, err := s.DB.DB.QueryContext(ctx,
			fmt.Sprintf(`SELECT dictionary, term FROM %s ORDER BY dictionary`, s.Table))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.dict, &r.term); err != nil {
				return err
			}
			staged = append(staged, r)
		}
		return rows.Err()
	})
	if err != nil {
		return 0, fmt.Errorf("%w: querying %s: %v", apperrors.ErrDictionaryRead, s.Table, err)
	}

	logger := slog.Default().With("component", "dictionary", "table", s.Table)
	total := 0
	perDict := make(map[string]int)
	for _, r := range staged {
		n := reg.Add(r.dict).LoadTerm(r.term)
		perDict[r.dict] += n
		total += n
	}
	for dict, count := range perDict {
		logger.Info("dictionary loaded", "dictionary", dict, "terms", count)
	}
	return total, nil
}
