// Package constraint 定义选择约束接口和管理器
package constraint

import (
	"github.com/google/uuid"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeVINUnique   Type = "vin_unique"   // 每辆车一周最多借出一次
	TypeDayCapacity Type = "day_capacity" // 每日起租数不超过容量日历

	// 软约束类型
	TypeTierCap  Type = "tier_cap_overage" // 等级年度上限超额
	TypeFairness Type = "fairness"         // 分配集中度
	TypeBudget   Type = "budget_overage"   // 季度预算超额
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（违反计入惩罚）
)

// Constraint 选择约束接口
// 评估对象是三元组上的布尔选择，而不是单个分配
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重（软约束的单位惩罚系数）
	Weight() int

	// Evaluate 评估当前整体选择
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateTriple 评估"在当前选择上再选中第 i 个三元组"
	// 返回：是否满足、新增惩罚值
	EvaluateTriple(ctx *Context, i int) (valid bool, penalty int)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	VIN            string    `json:"vin,omitempty"`
	PartnerID      uuid.UUID `json:"partner_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // error/warning
	Penalty        int       `json:"penalty"`
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	PenaltyByType  map[Type]int      `json:"penalty_by_type"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
}
