package builtin

import (
	"fmt"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
)

// HardTierCapConstraint 等级年度上限的硬执行变体
// 配置开启硬执行时替代软约束：任何超额选择直接被硬约束阻止
type HardTierCapConstraint struct {
	*BaseConstraint
}

// NewHardTierCapConstraint 创建硬执行的等级上限约束
func NewHardTierCapConstraint() *HardTierCapConstraint {
	return &HardTierCapConstraint{
		BaseConstraint: NewBaseConstraint(
			"等级年度上限(硬)",
			constraint.TypeTierCap,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估当前整体选择
func (c *HardTierCapConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	counted := make(map[constraint.UsageKey]bool)
	for _, i := range ctx.SelectedIndexes() {
		t := &ctx.Triples[i]
		k := constraint.UsageKey{PartnerID: t.PartnerID, Make: t.Make}
		if counted[k] {
			continue
		}
		counted[k] = true

		cap, _, _ := ctx.Caps.CapFor(t.Make, t.Rank)
		if total := ctx.TotalUsage(k); total > cap {
			isValid = false
			penalty := c.Weight() * (total - cap)
			totalPenalty += penalty

			v := c.CreateViolation(t.StartDay,
				fmt.Sprintf("合作方 %s 品牌 %s 用量 %d 超过硬上限 %d", t.PartnerID, t.Make, total, cap), penalty)
			v.PartnerID = t.PartnerID
			violations = append(violations, v)
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateTriple 评估新增选中第 i 个三元组
func (c *HardTierCapConstraint) EvaluateTriple(ctx *constraint.Context, i int) (bool, int) {
	if ctx.IsSelected(i) {
		return true, 0
	}
	t := &ctx.Triples[i]
	k := constraint.UsageKey{PartnerID: t.PartnerID, Make: t.Make}
	cap, _, _ := ctx.Caps.CapFor(t.Make, t.Rank)
	if ctx.TotalUsage(k)+1 > cap {
		return false, c.Weight()
	}
	return true, 0
}

// HardBudgetConstraint 季度预算的硬执行变体
// 任何会把品牌车队开销推过季度剩余预算的选择直接被阻止
type HardBudgetConstraint struct {
	*BaseConstraint
}

// NewHardBudgetConstraint 创建硬执行的预算约束
func NewHardBudgetConstraint() *HardBudgetConstraint {
	return &HardBudgetConstraint{
		BaseConstraint: NewBaseConstraint(
			"季度预算(硬)",
			constraint.TypeBudget,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估当前整体选择
func (c *HardBudgetConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

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
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation("",
				fmt.Sprintf("车队 %s 新增开销 %.0f 超出硬性季度预算 %.0f", t.Make, spend, remaining), penalty))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateTriple 评估新增选中第 i 个三元组
func (c *HardBudgetConstraint) EvaluateTriple(ctx *constraint.Context, i int) (bool, int) {
	if ctx.IsSelected(i) {
		return true, 0
	}
	t := &ctx.Triples[i]
	if ctx.FleetSpend(t.Make)+ctx.CostPerLoan > ctx.BudgetRemaining[t.Make] {
		return false, c.Weight()
	}
	return true, 0
}
