package constraint

import (
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// CapSource 上限规则的命中层级（审计用）
type CapSource string

const (
	CapSourceMakeRank CapSource = "make_rank" // 显式 (品牌, 等级) 规则
	CapSourceMake     CapSource = "make"      // 品牌级规则（不分等级）
	CapSourceRank     CapSource = "rank"      // 等级回退表
	CapSourceDefault  CapSource = "default"   // 兜底默认值
)

type capKey struct {
	make string
	rank string
}

// CapTable 等级年度上限规则表
// 查询按从具体到一般的显式优先级：(品牌,等级) → 品牌 → 等级回退 → 默认值，
// 并返回命中的层级供审计
type CapTable struct {
	rules        map[capKey]model.TierCapRule
	rankFallback map[string]int
	defaultCap   int
}

// DefaultRankFallback 默认的等级回退上限表（含未评级）
func DefaultRankFallback() map[string]int {
	return map[string]int{
		model.RankAPlus:    6,
		model.RankA:        4,
		model.RankB:        3,
		model.RankC:        2,
		model.RankUnranked: 1,
	}
}

// NewCapTable 构建上限规则表
func NewCapTable(rules []model.TierCapRule, rankFallback map[string]int, defaultCap int) *CapTable {
	t := &CapTable{
		rules:        make(map[capKey]model.TierCapRule, len(rules)),
		rankFallback: rankFallback,
		defaultCap:   defaultCap,
	}
	if t.rankFallback == nil {
		t.rankFallback = DefaultRankFallback()
	}
	for _, r := range rules {
		t.rules[capKey{make: r.Make, rank: r.Rank}] = r
	}
	return t
}

// CapFor 查询某 (品牌, 等级) 的年度上限
// 返回：上限、是否硬性（零上限且声明为硬时严格禁止，无软性超额）、命中层级
func (t *CapTable) CapFor(make, rank string) (cap int, hard bool, source CapSource) {
	if rank != "" {
		if r, ok := t.rules[capKey{make: make, rank: rank}]; ok {
			return r.LoanCapPerYear, r.Hard, CapSourceMakeRank
		}
	}
	if r, ok := t.rules[capKey{make: make}]; ok {
		return r.LoanCapPerYear, r.Hard, CapSourceMake
	}
	if c, ok := t.rankFallback[rank]; ok {
		return c, false, CapSourceRank
	}
	return t.defaultCap, false, CapSourceDefault
}
