// Package model 定义排程引擎的核心数据模型
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// FeasibleTriple 可行三元组（车辆, 合作方, 起租日）
// 由可行性生成器产出，已通过硬性资格检查；后续阶段只过滤和打分，不再新增
type FeasibleTriple struct {
	VIN       string    `json:"vin"`
	PartnerID uuid.UUID `json:"partner_id"`
	StartDay  string    `json:"start_day"` // YYYY-MM-DD

	// 冗余携带的上下文字段，避免下游阶段反查
	Make       string `json:"make"`
	Model      string `json:"model"`
	Office     string `json:"office"`
	Rank       string `json:"rank"`
	Class      string `json:"class,omitempty"`
	Powertrain string `json:"powertrain,omitempty"`
	GeoMatch   bool   `json:"geo_match"`

	// 确定性平手打破值，由 (vin, partner, day, seed) 派生
	TieBreak uint64 `json:"-"`
}

// Key 返回三元组的唯一标识
func (t *FeasibleTriple) Key() string {
	return fmt.Sprintf("%s|%s|%s", t.VIN, t.PartnerID, t.StartDay)
}

// ScoredTriple 打分后的三元组
type ScoredTriple struct {
	FeasibleTriple
	Score     int `json:"score"`
	RankScore int `json:"rank_score"` // 等级基础分
	GeoBonus  int `json:"geo_bonus"`
	PubBonus  int `json:"pub_bonus"`
	TieValue  int `json:"tie_value"` // 平手打破小数位，始终小于最小等级差
}

// SelectedAssignment 优化器选中的最终分配
type SelectedAssignment struct {
	VIN       string    `json:"vin"`
	PartnerID uuid.UUID `json:"partner_id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Office    string    `json:"office"`
	Rank      string    `json:"rank"`
	Score     int       `json:"score"`
	LoanStart string    `json:"loan_start"` // YYYY-MM-DD
	LoanEnd   string    `json:"loan_end"`   // YYYY-MM-DD
}

// AssignmentFromTriple 由选中的打分三元组构造最终分配
func AssignmentFromTriple(t *ScoredTriple, loanDays int) SelectedAssignment {
	return SelectedAssignment{
		VIN:       t.VIN,
		PartnerID: t.PartnerID,
		Make:      t.Make,
		Model:     t.Model,
		Office:    t.Office,
		Rank:      t.Rank,
		Score:     t.Score,
		LoanStart: t.StartDay,
		LoanEnd:   AddDays(t.StartDay, loanDays-1),
	}
}
