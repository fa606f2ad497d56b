// Package optimizer 提供约束优化器（在打分三元组上做布尔选择）
package optimizer

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/logger"
)

// Status 求解状态
type Status string

const (
	StatusOptimal    Status = "optimal"    // 终止时完整单翻邻域内无改进
	StatusFeasible   Status = "feasible"   // 可行但未证明最优
	StatusInfeasible Status = "infeasible" // 不存在任何可行选择
	StatusTimeout    Status = "timeout"    // 超过时间预算，返回当前最优可行解
)

// Config 优化配置
type Config struct {
	MaxIterations    int           `json:"max_iterations" yaml:"max_iterations"`
	TimeBudget       time.Duration `json:"time_budget" yaml:"time_budget"`
	InitialTemp      float64       `json:"initial_temp" yaml:"initial_temp"`
	CoolingRate      float64       `json:"cooling_rate" yaml:"cooling_rate"`
	TabuSize         int           `json:"tabu_size" yaml:"tabu_size"`
	NeighborhoodSize int           `json:"neighborhood_size" yaml:"neighborhood_size"`
	Workers          int           `json:"workers" yaml:"workers"` // >1 时多起点并行搜索
	Seed             int64         `json:"seed" yaml:"seed"`
	StopOnPlateau    bool          `json:"stop_on_plateau" yaml:"stop_on_plateau"`
	PlateauThreshold int           `json:"plateau_threshold" yaml:"plateau_threshold"`
}

// DefaultConfig 默认优化配置
func DefaultConfig(seed int64) *Config {
	return &Config{
		MaxIterations:    2000,
		TimeBudget:       10 * time.Second,
		InitialTemp:      50.0,
		CoolingRate:      0.995,
		TabuSize:         64,
		NeighborhoodSize: 16,
		Workers:          1,
		Seed:             seed,
		StopOnPlateau:    true,
		PlateauThreshold: 200,
	}
}

// Result 优化结果
type Result struct {
	Status        Status                  `json:"status"`
	Indexes       []int                   `json:"indexes"` // 选中的三元组下标（升序）
	Objective     int                     `json:"objective"`
	RawScore      int                     `json:"raw_score"`
	PenaltyByType map[constraint.Type]int `json:"penalty_by_type"`
	Iterations    int                     `json:"iterations"`
	Duration      time.Duration           `json:"duration"`
}

// Optimizer 局部搜索优化器（模拟退火 + 禁忌表）
// 随机性全部来自配置的种子：单工作者模式下相同输入产出逐位相同的选择
type Optimizer struct {
	cfg    *Config
	mgr    *constraint.Manager
	logger *logger.EngineLogger
}

// New 创建优化器
func New(cfg *Config, mgr *constraint.Manager) *Optimizer {
	if cfg == nil {
		cfg = DefaultConfig(0)
	}
	return &Optimizer{
		cfg:    cfg,
		mgr:    mgr,
		logger: logger.NewEngineLogger(),
	}
}

// Optimize 在选择上下文上搜索最优选择
// 结束时把最优选择写回 selCtx；不可行时返回空选择和 infeasible 状态
func (o *Optimizer) Optimize(ctx context.Context, selCtx *constraint.Context) (*Result, error) {
	start := time.Now()

	if o.cfg.Workers > 1 {
		return o.optimizeParallel(ctx, selCtx, start)
	}
	return o.optimizeSingle(ctx, selCtx, o.cfg.Seed, start)
}

// optimizeSingle 单工作者搜索
func (o *Optimizer) optimizeSingle(ctx context.Context, selCtx *constraint.Context, seed int64, start time.Time) (*Result, error) {
	rng := rand.New(rand.NewSource(seed))

	if !o.anySelectable(selCtx) {
		return o.finish(selCtx, StatusInfeasible, 0, start), nil
	}

	// 贪心构造初始可行解：按净收益降序选入
	o.buildInitial(selCtx)
	best := snapshot(selCtx)
	bestObj := o.mgr.Objective(selCtx)

	gen := newNeighborGenerator(o.mgr, rng)
	tabu := newTabuList(o.cfg.TabuSize)
	temperature := o.cfg.InitialTemp
	currentObj := bestObj
	noImprovement := 0
	timedOut := false

	iterations := 0
	for ; iterations < o.cfg.MaxIterations; iterations++ {
		if ctx.Err() != nil {
			timedOut = true
			break
		}
		if time.Since(start) > o.cfg.TimeBudget {
			timedOut = true
			break
		}

		move := gen.next(selCtx, o.cfg.NeighborhoodSize)
		if move == nil {
			noImprovement++
		} else {
			move.apply(selCtx)
			newObj := o.mgr.Objective(selCtx)
			key := selectionHash(selCtx.Selected)

			accept := false
			if newObj > currentObj {
				accept = true
			} else if !tabu.contains(key) {
				// 模拟退火：较差解按玻尔兹曼概率接受
				if rng.Float64() < boltzmann(float64(currentObj-newObj), temperature) {
					accept = true
				}
			}

			if accept {
				currentObj = newObj
				tabu.add(key)
				if newObj > bestObj {
					bestObj = newObj
					best = snapshot(selCtx)
					noImprovement = 0
				} else {
					noImprovement++
				}
			} else {
				move.revert(selCtx)
				noImprovement++
			}
		}

		if o.cfg.StopOnPlateau && noImprovement >= o.cfg.PlateauThreshold {
			break
		}

		temperature *= o.cfg.CoolingRate
	}

	restore(selCtx, best)

	status := StatusFeasible
	if timedOut {
		status = StatusTimeout
	} else if o.isFlipOptimal(selCtx, bestObj) {
		status = StatusOptimal
	}

	return o.finish(selCtx, status, iterations, start), nil
}

// anySelectable 检查是否存在至少一个可选三元组
func (o *Optimizer) anySelectable(selCtx *constraint.Context) bool {
	for i := range selCtx.Triples {
		if ok, _ := o.mgr.CanSelect(selCtx, i); ok {
			return true
		}
	}
	return false
}

// buildInitial 按净收益贪心构造初始解
func (o *Optimizer) buildInitial(selCtx *constraint.Context) {
	idx := make([]int, len(selCtx.Triples))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ta, tb := &selCtx.Triples[idx[a]], &selCtx.Triples[idx[b]]
		if ta.Score != tb.Score {
			return ta.Score > tb.Score
		}
		return idx[a] < idx[b]
	})

	for _, i := range idx {
		if ok, _ := o.mgr.CanSelect(selCtx, i); !ok {
			continue
		}
		if selCtx.Triples[i].Score-o.mgr.SoftPenaltyDelta(selCtx, i) > 0 {
			selCtx.Select(i)
		}
	}
}

// isFlipOptimal 最优性检查：完整扫描所有单翻转移动，无一能改进目标
func (o *Optimizer) isFlipOptimal(selCtx *constraint.Context, obj int) bool {
	for i := range selCtx.Triples {
		if selCtx.IsSelected(i) {
			selCtx.Unselect(i)
			improved := o.mgr.Objective(selCtx) > obj
			selCtx.Select(i)
			if improved {
				return false
			}
			continue
		}
		if ok, _ := o.mgr.CanSelect(selCtx, i); !ok {
			continue
		}
		selCtx.Select(i)
		improved := o.mgr.Objective(selCtx) > obj
		selCtx.Unselect(i)
		if improved {
			return false
		}
	}
	return true
}

// finish 汇总结果
func (o *Optimizer) finish(selCtx *constraint.Context, status Status, iterations int, start time.Time) *Result {
	eval := o.mgr.Evaluate(selCtx)

	r := &Result{
		Status:        status,
		Indexes:       selCtx.SelectedIndexes(),
		RawScore:      selCtx.SelectedScore(),
		PenaltyByType: eval.PenaltyByType,
		Iterations:    iterations,
		Duration:      time.Since(start),
	}
	r.Objective = r.RawScore - eval.TotalPenalty

	o.logger.StageComplete("optimizer", len(selCtx.Triples), len(r.Indexes))
	return r
}

// snapshot 拷贝当前选择向量
func snapshot(selCtx *constraint.Context) []bool {
	s := make([]bool, len(selCtx.Selected))
	copy(s, selCtx.Selected)
	return s
}

// restore 把选择向量写回上下文（重建账本）
func restore(selCtx *constraint.Context, selected []bool) {
	selCtx.Reset()
	for i, on := range selected {
		if on {
			selCtx.Select(i)
		}
	}
}

// selectionHash 计算选择向量的 FNV-1a 哈希（禁忌表键）
func selectionHash(selected []bool) uint64 {
	h := fnv.New64a()
	var b [1]byte
	for _, on := range selected {
		if on {
			b[0] = 1
		} else {
			b[0] = 0
		}
		h.Write(b[:])
	}
	return h.Sum64()
}

// boltzmann 模拟退火接受概率
func boltzmann(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1.0
	}
	if temperature <= 0 {
		return 0.0
	}
	return math.Exp(-delta / temperature)
}

// tabuList 禁忌表（uint64 哈希键）
type tabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
}

func newTabuList(size int) *tabuList {
	return &tabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, size),
		maxSize: size,
	}
}

func (t *tabuList) add(key uint64) {
	if _, exists := t.items[key]; exists {
		return
	}
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}
	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

func (t *tabuList) contains(key uint64) bool {
	_, exists := t.items[key]
	return exists
}
