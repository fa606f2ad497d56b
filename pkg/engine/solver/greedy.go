// Package solver 提供确定性的贪心分配器
package solver

import (
	"context"
	"sort"
	"time"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/logger"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// Result 贪心求解结果
type Result struct {
	Selected    []model.SelectedAssignment `json:"selected"`
	Indexes     []int                      `json:"-"`
	TotalScore  int                        `json:"total_score"`
	SkipReasons map[string]int             `json:"skip_reasons"`
	Duration    time.Duration              `json:"duration"`
}

// 贪心跳过原因
const (
	SkipVINUsed  = "vin_used"
	SkipTierCap  = "tier_cap"
	SkipCapacity = "capacity"
)

// GreedySolver 贪心回退分配器
// 单遍扫描、无回溯的确定性基线：按 (分数降序, VIN升序, 合作方升序) 走一遍，
// 等级上限在这里一律按硬上限执行（零上限严格阻止，无软性超额概念）
// 用作优化器的健全性基线和降级路径
type GreedySolver struct {
	logger *logger.EngineLogger
}

// NewGreedySolver 创建贪心分配器
func NewGreedySolver() *GreedySolver {
	return &GreedySolver{logger: logger.NewEngineLogger()}
}

// Name 返回求解器名称
func (s *GreedySolver) Name() string {
	return "GreedySolver"
}

// order 返回贪心遍历顺序的下标序列
func (s *GreedySolver) order(selCtx *constraint.Context) []int {
	idx := make([]int, len(selCtx.Triples))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ta, tb := &selCtx.Triples[idx[a]], &selCtx.Triples[idx[b]]
		if ta.Score != tb.Score {
			return ta.Score > tb.Score
		}
		if ta.VIN != tb.VIN {
			return ta.VIN < tb.VIN
		}
		if ta.PartnerID != tb.PartnerID {
			return ta.PartnerID.String() < tb.PartnerID.String()
		}
		if ta.StartDay != tb.StartDay {
			return ta.StartDay < tb.StartDay
		}
		return ta.TieBreak < tb.TieBreak
	})
	return idx
}

// Solve 在选择上下文上执行贪心分配
// 直接在传入的上下文上做选择；调用方需要保留原状态时自行 Clone
func (s *GreedySolver) Solve(ctx context.Context, selCtx *constraint.Context, loanDays int) (*Result, error) {
	start := time.Now()

	result := &Result{
		Selected:    make([]model.SelectedAssignment, 0),
		Indexes:     make([]int, 0),
		SkipReasons: make(map[string]int),
	}

	for _, i := range s.order(selCtx) {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		t := &selCtx.Triples[i]

		if selCtx.VINCount(t.VIN) >= 1 {
			result.SkipReasons[SkipVINUsed]++
			continue
		}

		cap, _, _ := selCtx.Caps.CapFor(t.Make, t.Rank)
		k := constraint.UsageKey{PartnerID: t.PartnerID, Make: t.Make}
		if selCtx.TotalUsage(k)+1 > cap {
			result.SkipReasons[SkipTierCap]++
			continue
		}

		if selCtx.DayCount(t.StartDay)+1 > selCtx.DaySlots[t.StartDay] {
			result.SkipReasons[SkipCapacity]++
			continue
		}

		selCtx.Select(i)
		result.Indexes = append(result.Indexes, i)
		result.TotalScore += t.Score
		result.Selected = append(result.Selected, model.AssignmentFromTriple(t, loanDays))
	}

	sort.Ints(result.Indexes)
	result.Duration = time.Since(start)

	s.logger.StageComplete("greedy", len(selCtx.Triples), len(result.Selected))
	return result, nil
}
