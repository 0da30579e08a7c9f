package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// countByGender groups unarchived rows of a period-scoped table by gender.
// Used by the analytics aggregation across all participant tables.
func countByGender(ctx context.Context, db *sqlx.DB, table, periodID string) (map[string]int, error) {
	query := fmt.Sprintf("SELECT gender, COUNT(*) AS total FROM %s WHERE academic_period_id = $1 AND is_archived = FALSE GROUP BY gender", table)

	rows := []struct {
		Gender string `db:"gender"`
		Total  int    `db:"total"`
	}{}
	if err := db.SelectContext(ctx, &rows, query, periodID); err != nil {
		return nil, fmt.Errorf("count %s by gender: %w", table, err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Gender] = row.Total
	}
	return counts, nil
}
