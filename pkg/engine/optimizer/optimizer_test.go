package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint/builtin"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

var (
	partner1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	partner2 = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func scored(vin string, p uuid.UUID, day, make, rank string, score int) model.ScoredTriple {
	return model.ScoredTriple{
		FeasibleTriple: model.FeasibleTriple{
			VIN:       vin,
			PartnerID: p,
			StartDay:  day,
			Make:      make,
			Model:     "Camry",
			Office:    "LAX",
			Rank:      rank,
		},
		Score: score,
	}
}

func newManager(tierWeight int) *constraint.Manager {
	m := constraint.NewManager()
	m.Register(builtin.NewVINUniqueConstraint())
	m.Register(builtin.NewDayCapacityConstraint())
	m.Register(builtin.NewTierCapConstraint(tierWeight))
	m.Register(builtin.NewFairnessConstraint(20, builtin.DefaultFairnessConfig()))
	m.Register(builtin.NewBudgetConstraint(2))
	return m
}

func newCtx(triples []model.ScoredTriple, slots map[string]int) *constraint.Context {
	ctx := constraint.NewContext("LAX", "2026-03-02", triples)
	ctx.DaySlots = slots
	ctx.Caps = constraint.NewCapTable(nil, map[string]int{
		model.RankA:        4,
		model.RankUnranked: 1,
	}, 2)
	ctx.CostPerLoan = 100
	ctx.BudgetRemaining = map[string]float64{"Toyota": 10000, "Honda": 10000}
	return ctx
}

// randomTriples 生成随机可行集（确定性种子）
func randomTriples(n int, rng *rand.Rand) ([]model.ScoredTriple, map[string]int) {
	days := []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"}
	partners := []uuid.UUID{partner1, partner2,
		uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		uuid.MustParse("44444444-4444-4444-4444-444444444444"),
	}
	makes := []string{"Toyota", "Honda"}

	triples := make([]model.ScoredTriple, 0, n)
	for i := 0; i < n; i++ {
		triples = append(triples, scored(
			fmt.Sprintf("VIN%03d", rng.Intn(12)),
			partners[rng.Intn(len(partners))],
			days[rng.Intn(len(days))],
			makes[rng.Intn(len(makes))],
			model.RankA,
			40+rng.Intn(80),
		))
	}

	slots := make(map[string]int)
	for _, d := range days {
		slots[d] = 1 + rng.Intn(3)
	}
	return triples, slots
}

func TestOptimizer_HardInvariants(t *testing.T) {
	// 随机可行集上跑多轮，检查硬约束不变量
	for trial := 0; trial < 5; trial++ {
		rng := rand.New(rand.NewSource(int64(trial)))
		triples, slots := randomTriples(40, rng)
		ctx := newCtx(triples, slots)

		o := New(DefaultConfig(int64(trial)), newManager(25))
		result, err := o.Optimize(context.Background(), ctx)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}

		vinSeen := make(map[string]bool)
		dayCount := make(map[string]int)
		for _, i := range result.Indexes {
			tr := &triples[i]
			if vinSeen[tr.VIN] {
				t.Fatalf("trial %d: VIN %s selected twice", trial, tr.VIN)
			}
			vinSeen[tr.VIN] = true
			dayCount[tr.StartDay]++
		}
		for day, n := range dayCount {
			if n > slots[day] {
				t.Fatalf("trial %d: day %s has %d starts, capacity %d", trial, day, n, slots[day])
			}
		}

		if result.Status != StatusOptimal && result.Status != StatusFeasible {
			t.Fatalf("trial %d: unexpected status %s", trial, result.Status)
		}
	}
}

func TestOptimizer_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	triples, slots := randomTriples(30, rng)

	run := func() []int {
		ctx := newCtx(triples, slots)
		o := New(DefaultConfig(42), newManager(25))
		result, err := o.Optimize(context.Background(), ctx)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		return result.Indexes
	}

	a := run()
	b := run()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Same seed must select identically:\n%v\n%v", a, b)
	}
}

func TestOptimizer_Infeasible(t *testing.T) {
	// 全部容量为零：不存在可行选择
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-02", "Toyota", model.RankA, 80),
	}
	ctx := newCtx(triples, map[string]int{"2026-03-02": 0})

	o := New(DefaultConfig(1), newManager(25))
	result, err := o.Optimize(context.Background(), ctx)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if result.Status != StatusInfeasible {
		t.Errorf("Status = %s, expected infeasible", result.Status)
	}
	if len(result.Indexes) != 0 {
		t.Errorf("Infeasible run selected %d triples, expected 0", len(result.Indexes))
	}
}

func TestOptimizer_Timeout(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	triples, slots := randomTriples(60, rng)
	ctx := newCtx(triples, slots)

	cfg := DefaultConfig(7)
	cfg.TimeBudget = 0 // 立刻超时
	cfg.StopOnPlateau = false

	o := New(cfg, newManager(25))
	result, err := o.Optimize(context.Background(), ctx)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if result.Status != StatusTimeout {
		t.Errorf("Status = %s, expected timeout", result.Status)
	}
	// 超时仍返回可行解（初始贪心解），不是错误
	vinSeen := make(map[string]bool)
	for _, i := range result.Indexes {
		if vinSeen[triples[i].VIN] {
			t.Fatal("Timeout result violates VIN uniqueness")
		}
		vinSeen[triples[i].VIN] = true
	}
}

func TestOptimizer_PenaltyWeightMonotonicity(t *testing.T) {
	// 等级上限惩罚权重上调后，超上限的选中数不增
	rng := rand.New(rand.NewSource(5))
	triples, slots := randomTriples(40, rng)

	overCap := func(tierWeight int) int {
		ctx := newCtx(triples, slots)
		// 压低上限让超额容易发生
		ctx.Caps = constraint.NewCapTable(nil, map[string]int{model.RankA: 1}, 1)
		o := New(DefaultConfig(11), newManager(tierWeight))
		result, err := o.Optimize(context.Background(), ctx)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}

		usage := make(map[constraint.UsageKey]int)
		for _, i := range result.Indexes {
			tr := &triples[i]
			usage[constraint.UsageKey{PartnerID: tr.PartnerID, Make: tr.Make}]++
		}
		over := 0
		for _, n := range usage {
			if n > 1 {
				over += n - 1
			}
		}
		return over
	}

	low := overCap(1)
	high := overCap(500)
	if high > low {
		t.Errorf("Raising tier-cap weight increased overage: %d -> %d", low, high)
	}
}

func TestOptimizer_ObjectiveBreakdown(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-02", "Toyota", model.RankA, 80),
		scored("VIN002", partner2, "2026-03-03", "Toyota", model.RankA, 60),
	}
	ctx := newCtx(triples, map[string]int{"2026-03-02": 1, "2026-03-03": 1})

	o := New(DefaultConfig(3), newManager(25))
	result, err := o.Optimize(context.Background(), ctx)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if len(result.Indexes) != 2 {
		t.Fatalf("Selected %d, expected 2", len(result.Indexes))
	}
	if result.RawScore != 140 || result.Objective != 140 {
		t.Errorf("RawScore/Objective = %d/%d, expected 140/140", result.RawScore, result.Objective)
	}
	if result.Status != StatusOptimal {
		t.Errorf("Status = %s, expected optimal for penalty-free full selection", result.Status)
	}
}

func TestOptimizer_ParallelDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	triples, slots := randomTriples(30, rng)

	run := func() []int {
		ctx := newCtx(triples, slots)
		cfg := DefaultConfig(42)
		cfg.Workers = 4
		cfg.TimeBudget = 30 * time.Second
		o := New(cfg, newManager(25))
		result, err := o.Optimize(context.Background(), ctx)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		return result.Indexes
	}

	a := run()
	b := run()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Parallel runs with same seed and workers must agree:\n%v\n%v", a, b)
	}
}
