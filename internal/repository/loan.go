package repository

import (
	"context"
	"fmt"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// LoanRepository 贷出历史仓储
type LoanRepository struct {
	db DB
}

// NewLoanRepository 创建贷出历史仓储
func NewLoanRepository(db DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// HistorySince 查询某办公室自某日起的贷出历史（冷却判定与用量统计的输入）
func (r *LoanRepository) HistorySince(ctx context.Context, office, since string) ([]model.LoanRecord, error) {
	query := `
		SELECT l.partner_id, l.make, COALESCE(l.model, ''),
			to_char(l.start_date, 'YYYY-MM-DD'), to_char(l.end_date, 'YYYY-MM-DD'),
			l.published
		FROM loans l
		JOIN partners p ON p.id = l.partner_id
		WHERE p.office = $1 AND l.end_date >= $2
		ORDER BY l.end_date
	`

	rows, err := r.db.QueryContext(ctx, query, office, since)
	if err != nil {
		return nil, fmt.Errorf("查询贷出历史失败: %w", err)
	}
	defer rows.Close()

	var records []model.LoanRecord
	for rows.Next() {
		var rec model.LoanRecord
		if err := rows.Scan(&rec.PartnerID, &rec.Make, &rec.Model,
			&rec.StartDate, &rec.EndDate, &rec.Published); err != nil {
			return nil, fmt.Errorf("扫描贷出记录失败: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CapacityRows 查询某办公室在日期范围内的容量日历行
func (r *LoanRepository) CapacityRows(ctx context.Context, office, startDate, endDate string) ([]model.CapacityRow, error) {
	query := `
		SELECT office, to_char(date, 'YYYY-MM-DD'), slots, COALESCE(note, '')
		FROM capacity_calendar
		WHERE office = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, office, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询容量日历失败: %w", err)
	}
	defer rows.Close()

	var capRows []model.CapacityRow
	for rows.Next() {
		var row model.CapacityRow
		if err := rows.Scan(&row.Office, &row.Date, &row.Slots, &row.Note); err != nil {
			return nil, fmt.Errorf("扫描容量行失败: %w", err)
		}
		capRows = append(capRows, row)
	}

	return capRows, rows.Err()
}

// TierCapRules 查询全部等级上限规则
func (r *LoanRepository) TierCapRules(ctx context.Context) ([]model.TierCapRule, error) {
	query := `
		SELECT make, COALESCE(rank, ''), loan_cap_per_year, hard
		FROM tier_cap_rules
		ORDER BY make, rank
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询等级上限规则失败: %w", err)
	}
	defer rows.Close()

	var rules []model.TierCapRule
	for rows.Next() {
		var rule model.TierCapRule
		if err := rows.Scan(&rule.Make, &rule.Rank, &rule.LoanCapPerYear, &rule.Hard); err != nil {
			return nil, fmt.Errorf("扫描上限规则失败: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Budgets 查询某办公室某年度季度的预算行
func (r *LoanRepository) Budgets(ctx context.Context, office string, year, quarter int) ([]model.BudgetRow, error) {
	query := `
		SELECT office, fleet, year, quarter, amount, amount_used
		FROM quarterly_budgets
		WHERE office = $1 AND year = $2 AND quarter = $3
		ORDER BY fleet
	`

	rows, err := r.db.QueryContext(ctx, query, office, year, quarter)
	if err != nil {
		return nil, fmt.Errorf("查询季度预算失败: %w", err)
	}
	defer rows.Close()

	var budgets []model.BudgetRow
	for rows.Next() {
		var b model.BudgetRow
		if err := rows.Scan(&b.Office, &b.Fleet, &b.Year, &b.Quarter, &b.Amount, &b.AmountUsed); err != nil {
			return nil, fmt.Errorf("扫描预算行失败: %w", err)
		}
		budgets = append(budgets, b)
	}

	return budgets, rows.Err()
}
