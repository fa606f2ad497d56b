package cooldown

import (
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// Config 冷却期配置
type Config struct {
	// 按品牌的冷却天数，零值表示该品牌冷却明确关闭
	DaysByMake map[string]int `json:"days_by_make" yaml:"days_by_make"`
	// 品牌未配置时的默认冷却天数
	DefaultDays int `json:"default_days" yaml:"default_days"`
}

// DaysFor 返回某品牌的冷却天数
func (c *Config) DaysFor(make string) int {
	if days, ok := c.DaysByMake[make]; ok {
		return days
	}
	return c.DefaultDays
}

// Filter 冷却期过滤器
type Filter struct {
	ledger *Ledger
	cfg    Config
}

// NewFilter 创建冷却期过滤器
func NewFilter(history []model.LoanRecord, cfg Config) *Filter {
	return &Filter{ledger: BuildLedger(history), cfg: cfg}
}

// Ledger 返回底层账本（诊断用）
func (f *Filter) Ledger() *Ledger {
	return f.ledger
}

// Check 检查单个三元组是否通过冷却期，返回 (通过, 判定依据)
// 规则：冷却截止日 = 最近结束日 + 冷却天数，起租日在截止日当天或之后通过（边界含）
// 品牌冷却天数为零时无条件通过；无历史记录天然通过
func (f *Filter) Check(t *model.FeasibleTriple) (bool, string) {
	days := f.cfg.DaysFor(t.Make)
	if days <= 0 {
		return true, BasisNone
	}

	lastEnd, basis := f.ledger.LastEnd(t.PartnerID, t.Model, t.Make)
	if basis == BasisNone {
		return true, BasisNone
	}

	until := model.AddDays(lastEnd, days)
	if until == "" {
		return true, BasisNone
	}
	return t.StartDay >= until, basis
}

// Apply 对三元组序列应用冷却过滤
// 保持输入顺序；拒绝数按判定依据分类统计，供观测使用
func (f *Filter) Apply(triples []model.FeasibleTriple) ([]model.FeasibleTriple, map[string]int) {
	kept := make([]model.FeasibleTriple, 0, len(triples))
	rejected := make(map[string]int)

	for i := range triples {
		ok, basis := f.Check(&triples[i])
		if ok {
			kept = append(kept, triples[i])
		} else {
			rejected[basis]++
		}
	}

	return kept, rejected
}
