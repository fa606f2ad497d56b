package builtin

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
)

// FairnessConfig 公平性约束配置
type FairnessConfig struct {
	// 每个合作方本周的"公平目标"数，超出部分按权重惩罚
	FairTarget int `json:"fair_target" yaml:"fair_target"`
	// 第二阈值，超出部分追加阶梯惩罚
	StepThreshold int `json:"step_threshold" yaml:"step_threshold"`
	StepWeight    int `json:"step_weight" yaml:"step_weight"`
	// 同一合作方同一天多次起租的共选惩罚
	SameDayWeight int `json:"same_day_weight" yaml:"same_day_weight"`
}

// DefaultFairnessConfig 返回默认公平性配置
func DefaultFairnessConfig() FairnessConfig {
	return FairnessConfig{
		FairTarget:    1,
		StepThreshold: 2,
		StepWeight:    15,
		SameDayWeight: 10,
	}
}

// FairnessConstraint 分配公平性软约束
// 抑制把一周库存集中到少数合作方：超出公平目标线性惩罚，
// 超出第二阈值追加阶梯惩罚；同合作方同日共选通过与线性化辅助变量建模
type FairnessConstraint struct {
	*BaseConstraint
	cfg FairnessConfig

	model     *constraint.PenaltyModel
	buildOnce sync.Once
}

// NewFairnessConstraint 创建公平性约束
func NewFairnessConstraint(weight int, cfg FairnessConfig) *FairnessConstraint {
	return &FairnessConstraint{
		BaseConstraint: NewBaseConstraint(
			"分配公平性",
			constraint.TypeFairness,
			constraint.CategorySoft,
			weight,
		),
		cfg:   cfg,
		model: constraint.NewPenaltyModel(),
	}
}

// buildLinks 为每对同 (合作方, 起租日) 的三元组建立共选辅助变量
// 只依赖三元组集合本身，整个运行构建一次；并发工作者共享同一份
func (c *FairnessConstraint) buildLinks(ctx *constraint.Context) {
	c.buildOnce.Do(func() { c.doBuildLinks(ctx) })
}

func (c *FairnessConstraint) doBuildLinks(ctx *constraint.Context) {
	type pdKey struct {
		partnerID uuid.UUID
		day       string
	}
	byPD := make(map[pdKey][]int)
	for i := range ctx.Triples {
		t := &ctx.Triples[i]
		k := pdKey{partnerID: t.PartnerID, day: t.StartDay}
		byPD[k] = append(byPD[k], i)
	}

	for _, idxs := range byPD {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				c.model.AndLink(idxs[a], idxs[b])
			}
		}
	}
}

// overageFor 计算某合作方超出目标的惩罚
func (c *FairnessConstraint) overageFor(count int) int {
	penalty := 0
	if count > c.cfg.FairTarget {
		penalty += c.Weight() * (count - c.cfg.FairTarget)
	}
	if c.cfg.StepThreshold > 0 && count > c.cfg.StepThreshold {
		penalty += c.cfg.StepWeight * (count - c.cfg.StepThreshold)
	}
	return penalty
}

// Evaluate 评估当前整体选择
func (c *FairnessConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	c.buildLinks(ctx)

	var violations []constraint.ViolationDetail
	totalPenalty := 0

	counted := make(map[uuid.UUID]bool)
	for _, i := range ctx.SelectedIndexes() {
		t := &ctx.Triples[i]
		if counted[t.PartnerID] {
			continue
		}
		counted[t.PartnerID] = true

		count := ctx.PartnerCount(t.PartnerID)
		if penalty := c.overageFor(count); penalty > 0 {
			totalPenalty += penalty
			v := c.CreateViolation(t.StartDay,
				fmt.Sprintf("合作方 %s 本周获得 %d 次分配，超过公平目标 %d", t.PartnerID, count, c.cfg.FairTarget), penalty)
			v.PartnerID = t.PartnerID
			violations = append(violations, v)
		}
	}

	// 同合作方同日共选
	if c.cfg.SameDayWeight > 0 {
		if active := c.model.CountActive(ctx.Selected); active > 0 {
			penalty := c.cfg.SameDayWeight * active
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation("",
				fmt.Sprintf("%d 对同合作方同日共选", active), penalty))
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}

// EvaluateTriple 评估新增选中第 i 个三元组的增量惩罚
func (c *FairnessConstraint) EvaluateTriple(ctx *constraint.Context, i int) (bool, int) {
	if ctx.IsSelected(i) {
		return true, 0
	}
	t := &ctx.Triples[i]
	count := ctx.PartnerCount(t.PartnerID)

	penalty := c.overageFor(count+1) - c.overageFor(count)

	// 同日共选增量：该合作方当天已有几次选中
	if c.cfg.SameDayWeight > 0 {
		for _, j := range ctx.SelectedIndexes() {
			o := &ctx.Triples[j]
			if o.PartnerID == t.PartnerID && o.StartDay == t.StartDay {
				penalty += c.cfg.SameDayWeight
			}
		}
	}

	return penalty == 0, penalty
}
