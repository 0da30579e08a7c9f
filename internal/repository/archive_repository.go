package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gadconnect/gadconnect-api/internal/models"
)

// archivableCollections maps collection names (as reported to callers) to the
// tables holding period-scoped records. Order matters: results and logs follow it.
var archivableCollections = []struct {
	Name  string
	Table string
}{
	{"events", "events"},
	{"students", "students"},
	{"staff_faculty", "staff_faculty"},
	{"community_members", "community_members"},
}

// ArchiveRepository performs bulk archival of domain records when a period is
// superseded. Records are flagged, never deleted.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository instantiates an archive repository.
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// CollectionNames returns the collections covered by archival, in order.
func (r *ArchiveRepository) CollectionNames() []string {
	names := make([]string, 0, len(archivableCollections))
	for _, c := range archivableCollections {
		names = append(names, c.Name)
	}
	return names
}

// ArchiveByPeriod flips is_archived on every unarchived record tied to the
// given period, one collection at a time. A failing collection is recorded in
// its BatchResult and the run continues with the remaining collections.
func (r *ArchiveRepository) ArchiveByPeriod(ctx context.Context, periodID string) (map[string]models.BatchResult, error) {
	results := make(map[string]models.BatchResult, len(archivableCollections))
	now := time.Now().UTC()

	for _, collection := range archivableCollections {
		count, err := r.archiveTable(ctx, r.db, collection.Table, periodID, now)
		result := models.BatchResult{Archived: count}
		if err != nil {
			result.Failed = 1
			result.Errors = append(result.Errors, err.Error())
		}
		results[collection.Name] = result
	}

	return results, nil
}

// ArchiveByPeriodAtomic performs the same archival inside a single
// transaction: either every collection is archived or none is.
func (r *ArchiveRepository) ArchiveByPeriodAtomic(ctx context.Context, periodID string) (map[string]models.BatchResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	results := make(map[string]models.BatchResult, len(archivableCollections))
	now := time.Now().UTC()

	for _, collection := range archivableCollections {
		var count int
		count, err = r.archiveTable(ctx, tx, collection.Table, periodID, now)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", collection.Name, err)
		}
		results[collection.Name] = models.BatchResult{Archived: count}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit archive tx: %w", err)
	}
	return results, nil
}

func (r *ArchiveRepository) archiveTable(ctx context.Context, db sqlx.ExecerContext, table, periodID string, now time.Time) (int, error) {
	query := fmt.Sprintf("UPDATE %s SET is_archived = TRUE, updated_at = $2 WHERE academic_period_id = $1 AND is_archived = FALSE", table)
	res, err := db.ExecContext(ctx, query, periodID, now)
	if err != nil {
		return 0, fmt.Errorf("archive %s records: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count archived %s records: %w", table, err)
	}
	return int(affected), nil
}
