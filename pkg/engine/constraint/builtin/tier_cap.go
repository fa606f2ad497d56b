package builtin

import (
	"fmt"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
)

// TierCapConstraint 等级年度上限软约束
// 历史12个月用量加本次新增不得超过 (品牌, 等级) 的上限，超额按单位线性惩罚
// 声明为硬的零上限规则不走软惩罚，由流水线在选择前过滤
type TierCapConstraint struct {
	*BaseConstraint
}

// NewTierCapConstraint 创建等级上限约束
func NewTierCapConstraint(weight int) *TierCapConstraint {
	return &TierCapConstraint{
		BaseConstraint: NewBaseConstraint(
			"等级年度上限",
			constraint.TypeTierCap,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估当前整体选择
func (c *TierCapConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	counted := make(map[constraint.UsageKey]bool)
	for _, i := range ctx.SelectedIndexes() {
		t := &ctx.Triples[i]
		k := constraint.UsageKey{PartnerID: t.PartnerID, Make: t.Make}
		if counted[k] {
			continue
		}
		counted[k] = true

		cap, _, _ := ctx.Caps.CapFor(t.Make, t.Rank)
		total := ctx.TotalUsage(k)
		if total > cap {
			overage := total - cap
			penalty := c.Weight() * overage
			totalPenalty += penalty

			v := c.CreateViolation(t.StartDay,
				fmt.Sprintf("合作方 %s 品牌 %s 用量 %d 超过上限 %d", t.PartnerID, t.Make, total, cap), penalty)
			v.PartnerID = t.PartnerID
			violations = append(violations, v)
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}

// EvaluateTriple 评估新增选中第 i 个三元组的增量惩罚
func (c *TierCapConstraint) EvaluateTriple(ctx *constraint.Context, i int) (bool, int) {
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
