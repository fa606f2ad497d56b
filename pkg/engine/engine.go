// Package engine 把各阶段编排成完整的周排程流水线
// 容量日历 → 可行性生成 → 冷却过滤 → 打分 → (优化器 | 贪心) → 统计与诊断
// 每次运行单线程、只持有运行级状态；并发运行各自独立
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/calendar"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint/builtin"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/cooldown"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/diagnose"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/feasible"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/optimizer"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/scorer"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/solver"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/errors"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/logger"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/stats"
)

// 历史用量的滚动窗口天数
const usageWindowDays = 365

// RunConfig 运行配置
type RunConfig struct {
	Office             string `json:"office" yaml:"office"`
	WeekStart          string `json:"week_start" yaml:"week_start"` // 必须为周一
	CandidateStartDays int    `json:"candidate_start_days" yaml:"candidate_start_days"`
	MinConsecutiveDays int    `json:"min_consecutive_days" yaml:"min_consecutive_days"`
	LoanDays           int    `json:"loan_days" yaml:"loan_days"` // 贷出窗口天数
	PerPartnerPerDay   int    `json:"per_partner_per_day" yaml:"per_partner_per_day"`

	Cooldown cooldown.Config `json:"cooldown" yaml:"cooldown"`
	Scoring  scorer.Config   `json:"scoring" yaml:"scoring"`

	// 软约束权重（零权重表示关闭该约束）
	TierCapWeight  int                    `json:"tier_cap_weight" yaml:"tier_cap_weight"`
	FairnessWeight int                    `json:"fairness_weight" yaml:"fairness_weight"`
	Fairness       builtin.FairnessConfig `json:"fairness" yaml:"fairness"`
	BudgetWeight   int                    `json:"budget_weight" yaml:"budget_weight"`
	CostPerLoan    float64                `json:"cost_per_loan" yaml:"cost_per_loan"`

	// 硬/软开关：开启时对应约束按硬执行，软惩罚不再注册（硬执行优先）
	HardTierCaps bool `json:"hard_tier_caps" yaml:"hard_tier_caps"`
	HardBudget   bool `json:"hard_budget" yaml:"hard_budget"`

	// 强制走贪心分配器（降级模式或基线对照）
	UseGreedy bool `json:"use_greedy" yaml:"use_greedy"`

	Seed      int64             `json:"seed" yaml:"seed"`
	Optimizer *optimizer.Config `json:"optimizer,omitempty" yaml:"optimizer,omitempty"`
}

// DefaultRunConfig 返回默认运行配置
func DefaultRunConfig(office, weekStart string) *RunConfig {
	return &RunConfig{
		Office:             office,
		WeekStart:          weekStart,
		CandidateStartDays: 5,
		MinConsecutiveDays: 7,
		LoanDays:           7,
		PerPartnerPerDay:   1,
		Cooldown:           cooldown.Config{DefaultDays: 30},
		Scoring:            scorer.DefaultConfig(0),
		TierCapWeight:      25,
		FairnessWeight:     20,
		Fairness:           builtin.DefaultFairnessConfig(),
		BudgetWeight:       1,
		CostPerLoan:        1000,
	}
}

// Validate 校验运行配置
func (c *RunConfig) Validate() error {
	fc := feasible.Config{
		Office:             c.Office,
		WeekStart:          c.WeekStart,
		CandidateStartDays: c.CandidateStartDays,
		MinConsecutiveDays: c.MinConsecutiveDays,
		Seed:               c.Seed,
	}
	if err := fc.Validate(); err != nil {
		return err
	}
	if c.LoanDays < 1 {
		return errors.InvalidConfiguration("loan_days", "必须为正")
	}
	return nil
}

// RunRequest 运行输入
// 上游负责提供类型正确、预校验过的数据；核心只做内部不变量的防御性校验
type RunRequest struct {
	Vehicles     []model.Vehicle         `json:"vehicles"`
	Partners     []model.Partner         `json:"partners"`
	Availability model.AvailabilityGrid  `json:"availability"`
	History      []model.LoanRecord      `json:"history"`
	CapRules     []model.TierCapRule     `json:"cap_rules"`
	RankFallback map[string]int          `json:"rank_fallback,omitempty"`
	DefaultCap   int                     `json:"default_cap,omitempty"`
	CapacityRows []model.CapacityRow     `json:"capacity_rows"`
	CalDefaults  map[string]calendar.Defaults `json:"calendar_defaults"`
	Budgets      []model.BudgetRow       `json:"budgets"`
}

// UsageAuditRow 用量对上限审计行
type UsageAuditRow struct {
	PartnerID  string               `json:"partner_id"`
	Make       string               `json:"make"`
	Rank       string               `json:"rank"`
	Historical int                  `json:"historical"`
	New        int                  `json:"new"`
	Total      int                  `json:"total"`
	Cap        int                  `json:"cap"`
	CapSource  constraint.CapSource `json:"cap_source"`
	Overage    int                  `json:"overage"`
}

// BudgetAuditRow 预算审计行
type BudgetAuditRow struct {
	Make      string  `json:"make"`
	Remaining float64 `json:"remaining"`
	Spend     float64 `json:"spend"`
	Over      float64 `json:"over"`
}

// RunResult 运行结果
type RunResult struct {
	Status      optimizer.Status           `json:"status"`
	Solver      string                     `json:"solver"` // optimizer/greedy
	Assignments []model.SelectedAssignment `json:"assignments"`

	// 目标分解
	Objective     int                     `json:"objective"`
	RawScore      int                     `json:"raw_score"`
	PenaltyByType map[constraint.Type]int `json:"penalty_by_type"`

	// 各阶段观测量
	FeasibleCount    int            `json:"feasible_count"`
	CooldownRejected map[string]int `json:"cooldown_rejected"`
	HardFiltered     int            `json:"hard_filtered"`
	SkipReasons      map[string]int `json:"skip_reasons,omitempty"` // 贪心路径

	// 审计表
	UsageAudit  []UsageAuditRow           `json:"usage_audit"`
	BudgetAudit []BudgetAuditRow          `json:"budget_audit"`
	Fairness    *stats.FairnessMetrics    `json:"fairness"`
	Utilization *stats.UtilizationMetrics `json:"utilization"`

	Diagnostics *diagnose.Report `json:"diagnostics"`
	Duration    time.Duration    `json:"duration"`
}

// Engine 周排程引擎
type Engine struct {
	logger *logger.EngineLogger
}

// New 创建周排程引擎
func New() *Engine {
	return &Engine{logger: logger.NewEngineLogger()}
}

// Run 执行一次完整的周排程
// 运行级配置错误直接返回；单条坏数据在各阶段内跳过计数
func (e *Engine) Run(ctx context.Context, cfg *RunConfig, req *RunRequest) (*RunResult, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e.logger.StartRun(cfg.Office, cfg.WeekStart, len(req.Vehicles), len(req.Partners))

	cal, err := calendar.New(req.CapacityRows, req.CalDefaults)
	if err != nil {
		return nil, err
	}

	// 阶段1：可行三元组生成
	gen, err := feasible.NewGenerator(cal, feasible.Config{
		Office:             cfg.Office,
		WeekStart:          cfg.WeekStart,
		CandidateStartDays: cfg.CandidateStartDays,
		MinConsecutiveDays: cfg.MinConsecutiveDays,
		Seed:               cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	triples, err := gen.Generate(req.Vehicles, req.Partners, req.Availability)
	if err != nil {
		return nil, err
	}
	e.logger.StageComplete("feasible", len(req.Vehicles)*len(req.Partners), len(triples))

	// 阶段2：冷却过滤
	filter := cooldown.NewFilter(req.History, cfg.Cooldown)
	kept, rejected := filter.Apply(triples)
	e.logger.StageComplete("cooldown", len(triples), len(kept))

	// 阶段3：硬执行预过滤（硬执行优先于软惩罚）
	caps := constraint.NewCapTable(req.CapRules, req.RankFallback, req.DefaultCap)
	historicalUsage := buildHistoricalUsage(req.History, cfg.WeekStart)
	budgetRemaining := buildBudgetRemaining(req.Budgets, cfg.Office, cfg.WeekStart)
	kept, hardFiltered := e.hardPrefilter(kept, cfg, caps, historicalUsage, budgetRemaining)

	// 阶段4：打分
	scoring := cfg.Scoring
	if scoring.Seed == 0 {
		scoring.Seed = cfg.Seed
	}
	sc := scorer.New(scoring, req.History)
	scored := sc.ScoreAll(kept)
	e.logger.StageComplete("scorer", len(kept), len(scored))

	// 阶段5：选择上下文与约束装配
	selCtx := constraint.NewContext(cfg.Office, cfg.WeekStart, scored)
	selCtx.HistoricalUsage = historicalUsage
	selCtx.Caps = caps
	selCtx.BudgetRemaining = budgetRemaining
	selCtx.CostPerLoan = cfg.CostPerLoan
	for offset := 0; offset < cfg.CandidateStartDays; offset++ {
		day := model.AddDays(cfg.WeekStart, offset)
		if day == "" {
			continue
		}
		slots, _, cerr := cal.CapacityFor(cfg.Office, day)
		if cerr != nil {
			continue
		}
		selCtx.DaySlots[day] = slots
	}
	mgr := e.buildManager(cfg)

	result := &RunResult{
		Solver:           "optimizer",
		FeasibleCount:    len(triples),
		CooldownRejected: rejected,
		HardFiltered:     hardFiltered,
	}

	// 阶段6：求解
	if cfg.UseGreedy {
		e.solveGreedy(ctx, cfg, selCtx, result)
	} else {
		optCfg := cfg.Optimizer
		if optCfg == nil {
			optCfg = optimizer.DefaultConfig(cfg.Seed)
		}
		opt := optimizer.New(optCfg, mgr)
		optResult, oerr := opt.Optimize(ctx, selCtx)
		if oerr != nil {
			return nil, oerr
		}

		if optResult.Status == optimizer.StatusTimeout && len(optResult.Indexes) == 0 {
			// 超时且无部分解：降级走贪心
			selCtx.Reset()
			e.solveGreedy(ctx, cfg, selCtx, result)
		} else {
			result.Status = optResult.Status
			result.Objective = optResult.Objective
			result.RawScore = optResult.RawScore
			result.PenaltyByType = optResult.PenaltyByType
			for _, i := range optResult.Indexes {
				result.Assignments = append(result.Assignments,
					model.AssignmentFromTriple(&selCtx.Triples[i], cfg.LoanDays))
			}
		}
	}

	// 阶段7：审计与诊断
	e.buildAudits(cfg, selCtx, result)
	result.Fairness = stats.NewFairnessAnalyzer().Analyze(result.Assignments, partnerInfos(req.Partners))
	result.Utilization = stats.NewUtilizationAnalyzer().Analyze(result.Assignments, selCtx.DaySlots, len(req.Vehicles))
	result.Diagnostics = diagnose.New(cal, diagnose.Config{
		Office:           cfg.Office,
		WeekStart:        cfg.WeekStart,
		Days:             cfg.CandidateStartDays,
		PerPartnerPerDay: cfg.PerPartnerPerDay,
	}).Explain(kept, result.Assignments)

	result.Duration = time.Since(start)
	e.logger.RunComplete(cfg.Office, string(result.Status), len(result.Assignments), result.Objective, result.Duration)
	return result, nil
}

// buildManager 按运行配置装配约束管理器
func (e *Engine) buildManager(cfg *RunConfig) *constraint.Manager {
	mgr := constraint.NewManager()
	mgr.Register(builtin.NewVINUniqueConstraint())
	mgr.Register(builtin.NewDayCapacityConstraint())

	if cfg.HardTierCaps {
		mgr.Register(builtin.NewHardTierCapConstraint())
	} else if cfg.TierCapWeight > 0 {
		mgr.Register(builtin.NewTierCapConstraint(cfg.TierCapWeight))
	}
	if cfg.HardBudget {
		mgr.Register(builtin.NewHardBudgetConstraint())
	} else if cfg.BudgetWeight > 0 {
		mgr.Register(builtin.NewBudgetConstraint(cfg.BudgetWeight))
	}
	if cfg.FairnessWeight > 0 {
		mgr.Register(builtin.NewFairnessConstraint(cfg.FairnessWeight, cfg.Fairness))
	}
	return mgr
}

// hardPrefilter 在打分前滤除硬执行下不可能入选的三元组
// 命中两类：声明为硬的零上限规则；硬预算下连一次分配都负担不起的品牌
func (e *Engine) hardPrefilter(
	triples []model.FeasibleTriple,
	cfg *RunConfig,
	caps *constraint.CapTable,
	usage map[constraint.UsageKey]int,
	budgetRemaining map[string]float64,
) ([]model.FeasibleTriple, int) {
	kept := make([]model.FeasibleTriple, 0, len(triples))
	filtered := 0

	for i := range triples {
		t := &triples[i]

		cap, hard, _ := caps.CapFor(t.Make, t.Rank)
		if hard && cap == 0 {
			filtered++
			continue
		}
		if cfg.HardTierCaps {
			k := constraint.UsageKey{PartnerID: t.PartnerID, Make: t.Make}
			if usage[k] >= cap {
				filtered++
				continue
			}
		}
		if cfg.HardBudget && budgetRemaining[t.Make] < cfg.CostPerLoan {
			filtered++
			continue
		}
		kept = append(kept, *t)
	}

	if filtered > 0 {
		e.logger.StageComplete("hard_prefilter", len(triples), len(kept))
	}
	return kept, filtered
}

// solveGreedy 贪心路径
func (e *Engine) solveGreedy(ctx context.Context, cfg *RunConfig, selCtx *constraint.Context, result *RunResult) {
	greedy := solver.NewGreedySolver()
	gr, err := greedy.Solve(ctx, selCtx, cfg.LoanDays)
	if err != nil && gr == nil {
		return
	}

	result.Solver = "greedy"
	result.Status = optimizer.StatusFeasible
	result.Assignments = gr.Selected
	result.RawScore = gr.TotalScore
	result.Objective = gr.TotalScore
	result.SkipReasons = gr.SkipReasons
}

// buildAudits 产出用量对上限和预算审计表
func (e *Engine) buildAudits(cfg *RunConfig, selCtx *constraint.Context, result *RunResult) {
	type pairInfo struct {
		key  constraint.UsageKey
		rank string
	}
	seen := make(map[constraint.UsageKey]pairInfo)
	spendByMake := make(map[string]float64)

	for _, i := range selCtx.SelectedIndexes() {
		t := &selCtx.Triples[i]
		k := constraint.UsageKey{PartnerID: t.PartnerID, Make: t.Make}
		if _, ok := seen[k]; !ok {
			seen[k] = pairInfo{key: k, rank: t.Rank}
		}
		spendByMake[t.Make] += cfg.CostPerLoan
	}

	for _, p := range seen {
		cap, _, source := selCtx.Caps.CapFor(p.key.Make, p.rank)
		hist := selCtx.HistoricalUsage[p.key]
		newN := selCtx.NewUsage(p.key)
		row := UsageAuditRow{
			PartnerID:  p.key.PartnerID.String(),
			Make:       p.key.Make,
			Rank:       p.rank,
			Historical: hist,
			New:        newN,
			Total:      hist + newN,
			Cap:        cap,
			CapSource:  source,
		}
		if row.Total > cap {
			row.Overage = row.Total - cap
		}
		result.UsageAudit = append(result.UsageAudit, row)
	}
	sort.Slice(result.UsageAudit, func(i, j int) bool {
		a, b := &result.UsageAudit[i], &result.UsageAudit[j]
		if a.Make != b.Make {
			return a.Make < b.Make
		}
		return a.PartnerID < b.PartnerID
	})

	makes := make([]string, 0, len(spendByMake))
	for mk := range spendByMake {
		makes = append(makes, mk)
	}
	sort.Strings(makes)
	for _, mk := range makes {
		row := BudgetAuditRow{
			Make:      mk,
			Remaining: selCtx.BudgetRemaining[mk],
			Spend:     spendByMake[mk],
		}
		if row.Spend > row.Remaining {
			row.Over = row.Spend - row.Remaining
		}
		result.BudgetAudit = append(result.BudgetAudit, row)
	}
}

// buildHistoricalUsage 从贷出历史构建滚动12个月的 (合作方, 品牌) 用量
func buildHistoricalUsage(history []model.LoanRecord, weekStart string) map[constraint.UsageKey]int {
	usage := make(map[constraint.UsageKey]int)
	for i := range history {
		r := &history[i]
		if !r.Valid() {
			continue
		}
		age := model.DaysBetween(r.EndDate, weekStart)
		if age > usageWindowDays {
			continue
		}
		usage[constraint.UsageKey{PartnerID: r.PartnerID, Make: r.Make}]++
	}
	return usage
}

// buildBudgetRemaining 解析目标周所在季度的各品牌剩余预算
func buildBudgetRemaining(budgets []model.BudgetRow, office, weekStart string) map[string]float64 {
	year, quarter := model.QuarterOf(weekStart)
	remaining := make(map[string]float64)
	for i := range budgets {
		b := &budgets[i]
		if b.Office != office || b.Year != year || b.Quarter != quarter {
			continue
		}
		remaining[b.Fleet] += b.Remaining()
	}
	return remaining
}

// partnerInfos 转换为统计用的合作方信息
func partnerInfos(partners []model.Partner) []*stats.PartnerInfo {
	infos := make([]*stats.PartnerInfo, 0, len(partners))
	for i := range partners {
		infos = append(infos, &stats.PartnerInfo{ID: partners[i].ID, Name: partners[i].Name})
	}
	return infos
}
