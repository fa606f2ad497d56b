// Package model 定义排程引擎的核心数据模型
package model

import "github.com/google/uuid"

// LoanRecord 历史贷出记录
type LoanRecord struct {
	PartnerID uuid.UUID `json:"partner_id" db:"partner_id"`
	Make      string    `json:"make" db:"make"`
	Model     string    `json:"model" db:"model"`
	StartDate string    `json:"start_date" db:"start_date"` // YYYY-MM-DD
	EndDate   string    `json:"end_date" db:"end_date"`     // YYYY-MM-DD
	Published bool      `json:"published" db:"published"`   // 是否产出了媒体报道
}

// Valid 检查历史记录是否结构完整（单条坏记录跳过计数，不致命）
func (r *LoanRecord) Valid() bool {
	if r.PartnerID == uuid.Nil || r.Make == "" {
		return false
	}
	if _, err := ParseDate(r.EndDate); err != nil {
		return false
	}
	return true
}

// TierCapRule 等级年度上限规则
// Rank 为空表示按品牌的通用规则；Hard 表示零上限按硬约束执行（无软性超额）
type TierCapRule struct {
	Make           string `json:"make" db:"make"`
	Rank           string `json:"rank,omitempty" db:"rank"`
	LoanCapPerYear int    `json:"loan_cap_per_year" db:"loan_cap_per_year"`
	Hard           bool   `json:"hard,omitempty" db:"hard"`
}

// BudgetRow 季度预算行（按办公室、车队/品牌、年度季度）
type BudgetRow struct {
	Office     string  `json:"office" db:"office"`
	Fleet      string  `json:"fleet" db:"fleet"` // 车队编码，通常等于品牌
	Year       int     `json:"year" db:"year"`
	Quarter    int     `json:"quarter" db:"quarter"`
	Amount     float64 `json:"amount" db:"amount"`
	AmountUsed float64 `json:"amount_used" db:"amount_used"`
}

// Remaining 返回季度剩余预算
func (b *BudgetRow) Remaining() float64 {
	r := b.Amount - b.AmountUsed
	if r < 0 {
		return 0
	}
	return r
}
