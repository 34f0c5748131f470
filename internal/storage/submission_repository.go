package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/finbench/internal/errors"
	"github.com/finbench/internal/logging"
	"github.com/finbench/internal/models"
	"github.com/finbench/internal/retry"
	"github.com/finbench/internal/types"
)

// submissionProjection is the fixed column set the adapter reads, in scan
// order.
const submissionProjection = `
	id, age, years_experience, city, occupation, region, income_bracket,
	yearly_income, monthly_expenses, total_savings, total_liabilities,
	net_worth, stock_value, mutual_fund_value, real_estate_value, gold_value,
	extra, created_at`

// SubmissionRepository is the record store adapter: bulk, paginated,
// read-only access to the submission population.
type SubmissionRepository struct {
	db       *PostgresDB
	pageSize int
	retryCfg *retry.Config
}

// NewSubmissionRepository creates a submission repository paging at pageSize
// rows per store round trip.
func NewSubmissionRepository(db *PostgresDB, pageSize int) *SubmissionRepository {
	return &SubmissionRepository{
		db:       db,
		pageSize: pageSize,
		retryCfg: retry.DefaultConfig(),
	}
}

// FetchAll pages through the entire population until a short page signals
// end-of-data. The operation is read-only and restartable.
//
// On a page failure the rows accumulated so far are returned together with a
// StoreUnavailable error: callers use the partial population and degrade
// rather than discarding prior pages.
func (r *SubmissionRepository) FetchAll(ctx context.Context) ([]*models.Submission, error) {
	var all []*models.Submission
	offset := 0

	for {
		page, err := r.fetchPage(ctx, offset)
		if err != nil {
			logging.FromContext(ctx).WithError(err).WithFields(map[string]interface{}{
				"offset":      offset,
				"accumulated": len(all),
			}).Warn("population fetch aborted mid-pagination")
			return all, apperrors.NewStoreUnavailableError("population fetch", err)
		}

		all = append(all, page...)
		if len(page) < r.pageSize {
			return all, nil
		}
		offset += r.pageSize
	}
}

// fetchPage reads one page, retrying transient failures with backoff.
func (r *SubmissionRepository) fetchPage(ctx context.Context, offset int) ([]*models.Submission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM submissions
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, submissionProjection)

	var page []*models.Submission
	err := retry.WithBackoff(ctx, r.retryCfg, func(ctx context.Context, attempt int) error {
		rows, err := r.db.Pool().Query(ctx, query, r.pageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to query submissions page: %w", err)
		}
		defer rows.Close()

		page = page[:0]
		for rows.Next() {
			sub, err := scanSubmission(rows)
			if err != nil {
				return err
			}
			page = append(page, sub)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// FetchFiltered queries the store directly with equality/IN filters. Used by
// the dashboard builder's cold-cache fallback; results are never cached.
func (r *SubmissionRepository) FetchFiltered(ctx context.Context, filters *types.DashboardFilters) ([]*models.Submission, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(clause string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if len(filters.Cities) > 0 {
		addCondition("LOWER(city) = ANY($%d)", lowercase(filters.Cities))
	}
	if len(filters.Occupations) > 0 {
		addCondition("LOWER(occupation) = ANY($%d)", lowercase(filters.Occupations))
	}
	if len(filters.Ages) > 0 {
		addCondition("age = ANY($%d)", filters.Ages)
	}
	if len(filters.YearsExperience) > 0 {
		addCondition("years_experience = ANY($%d)", filters.YearsExperience)
	}

	query := fmt.Sprintf("SELECT %s FROM submissions", submissionProjection)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("filtered fetch", err)
	}
	defer rows.Close()

	var result []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, apperrors.NewStoreUnavailableError("filtered fetch", err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("filtered fetch", err)
	}
	return result, nil
}

// Count returns the population size, for health reporting.
func (r *SubmissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM submissions").Scan(&count)
	if err != nil {
		return 0, apperrors.NewStoreUnavailableError("count", err)
	}
	return count, nil
}

// rowScanner matches the subset of pgx.Rows used by scanSubmission.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var sub models.Submission
	var extraJSON []byte

	err := row.Scan(
		&sub.ID,
		&sub.Age,
		&sub.YearsExperience,
		&sub.City,
		&sub.Occupation,
		&sub.Region,
		&sub.IncomeBracket,
		&sub.YearlyIncome,
		&sub.MonthlyExpenses,
		&sub.TotalSavings,
		&sub.TotalLiabilities,
		&sub.NetWorth,
		&sub.StockValue,
		&sub.MutualFundValue,
		&sub.RealEstateValue,
		&sub.GoldValue,
		&extraJSON,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}

	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &sub.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extra metrics: %w", err)
		}
	}
	return &sub, nil
}

func lowercase(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
