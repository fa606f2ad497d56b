package builtin

import (
	"fmt"
	"math"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
)

// BudgetConstraint 季度预算软约束
// 按品牌车队累计本次新增开销，超出季度剩余预算的部分按美元线性惩罚
// 配置为硬执行时不走软惩罚，由流水线在打分前过滤（硬执行优先）
type BudgetConstraint struct {
	*BaseConstraint
}

// NewBudgetConstraint 创建预算约束
// weight 为每超支一美元的惩罚
func NewBudgetConstraint(weight int) *BudgetConstraint {
	return &BudgetConstraint{
		BaseConstraint: NewBaseConstraint(
			"季度预算",
			constraint.TypeBudget,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估当前整体选择
func (c *BudgetConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	counted := make(map[string]bool)
	for _, i := range ctx.SelectedIndexes() {
		t := &ctx.Triples[i]
		if counted[t.Make] {
			continue
		}
		counted[t.Make] = true

		spend := ctx.FleetSpend(t.Make)
		remaining := ctx.BudgetRemaining[t.Make]
		if spend > remaining {
			over := int(math.Ceil(spend - remaining))
			penalty := c.Weight() * over
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation("",
				fmt.Sprintf("车队 %s 新增开销 %.0f 超出季度剩余预算 %.0f", t.Make, spend, remaining), penalty))
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}

// EvaluateTriple 评估新增选中第 i 个三元组的增量惩罚
func (c *BudgetConstraint) EvaluateTriple(ctx *constraint.Context, i int) (bool, int) {
	if ctx.IsSelected(i) {
		return true, 0
	}
	t := &ctx.Triples[i]
	remaining := ctx.BudgetRemaining[t.Make]

	before := math.Max(0, ctx.FleetSpend(t.Make)-remaining)
	after := math.Max(0, ctx.FleetSpend(t.Make)+ctx.CostPerLoan-remaining)
	delta := c.Weight() * int(math.Ceil(after)-math.Ceil(before))
	return delta == 0, delta
}
