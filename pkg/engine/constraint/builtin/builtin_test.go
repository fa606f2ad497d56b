package builtin

import (
	"testing"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/constraint"
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

func newCtx(triples []model.ScoredTriple) *constraint.Context {
	ctx := constraint.NewContext("LAX", "2026-03-02", triples)
	ctx.DaySlots = map[string]int{"2026-03-02": 2, "2026-03-03": 1}
	ctx.Caps = constraint.NewCapTable(nil, map[string]int{
		model.RankA:        2,
		model.RankUnranked: 1,
	}, 1)
	ctx.CostPerLoan = 100
	return ctx
}

func TestVINUnique(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-02", "Toyota", model.RankA, 80),
		scored("VIN001", partner2, "2026-03-03", "Toyota", model.RankA, 80),
	}
	ctx := newCtx(triples)
	c := NewVINUniqueConstraint()

	ctx.Select(0)
	if ok, _ := c.EvaluateTriple(ctx, 1); ok {
		t.Error("Second selection of the same VIN must violate")
	}

	ctx.Select(1)
	valid, penalty, details := c.Evaluate(ctx)
	if valid || penalty == 0 || len(details) != 1 {
		t.Errorf("Evaluate() = (%v, %d, %d details), expected violation", valid, penalty, len(details))
	}
}

func TestDayCapacity(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-03", "Toyota", model.RankA, 80),
		scored("VIN002", partner2, "2026-03-03", "Toyota", model.RankA, 80),
	}
	ctx := newCtx(triples)
	c := NewDayCapacityConstraint()

	// 2026-03-03 容量为1
	if ok, _ := c.EvaluateTriple(ctx, 0); !ok {
		t.Error("First selection within capacity must pass")
	}
	ctx.Select(0)
	if ok, _ := c.EvaluateTriple(ctx, 1); ok {
		t.Error("Selection beyond day capacity must violate")
	}
}

func TestDayCapacity_ZeroSlots(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-04", "Toyota", model.RankA, 80),
	}
	ctx := newCtx(triples) // 2026-03-04 不在容量表中：零容量
	c := NewDayCapacityConstraint()

	if ok, _ := c.EvaluateTriple(ctx, 0); ok {
		t.Error("Zero-capacity day must force triples unselected")
	}
}

func TestTierCap_Overage(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-02", "Toyota", model.RankA, 80),
		scored("VIN002", partner1, "2026-03-02", "Toyota", model.RankA, 80),
		scored("VIN003", partner1, "2026-03-03", "Toyota", model.RankA, 80),
	}
	ctx := newCtx(triples)
	c := NewTierCapConstraint(25)

	// A级上限2，历史用量1：第二次新增就超
	ctx.HistoricalUsage[constraint.UsageKey{PartnerID: partner1, Make: "Toyota"}] = 1

	if ok, _ := c.EvaluateTriple(ctx, 0); !ok {
		t.Error("First selection within cap must pass")
	}
	ctx.Select(0)
	if ok, penalty := c.EvaluateTriple(ctx, 1); ok || penalty != 25 {
		t.Errorf("Selection beyond cap = (%v, %d), expected (false, 25)", ok, penalty)
	}

	ctx.Select(1)
	ctx.Select(2)
	_, penalty, _ := c.Evaluate(ctx)
	// 总用量4，上限2：超额2 × 25
	if penalty != 50 {
		t.Errorf("Evaluate() penalty = %d, expected 50", penalty)
	}
}

func TestFairness_TargetAndStep(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-02", "Toyota", model.RankA, 80),
		scored("VIN002", partner1, "2026-03-03", "Toyota", model.RankA, 80),
		scored("VIN003", partner1, "2026-03-02", "Honda", model.RankA, 80),
	}
	ctx := newCtx(triples)
	cfg := FairnessConfig{FairTarget: 1, StepThreshold: 2, StepWeight: 15, SameDayWeight: 0}
	c := NewFairnessConstraint(20, cfg)

	ctx.Select(0)
	if valid, penalty, _ := c.Evaluate(ctx); !valid || penalty != 0 {
		t.Errorf("Within fair target = (%v, %d), expected (true, 0)", valid, penalty)
	}

	ctx.Select(1)
	if _, penalty, _ := c.Evaluate(ctx); penalty != 20 {
		t.Errorf("One beyond target penalty = %d, expected 20", penalty)
	}

	ctx.Select(2)
	// 超出目标2次×20 + 超出阶梯1次×15
	if _, penalty, _ := c.Evaluate(ctx); penalty != 55 {
		t.Errorf("Step-up penalty = %d, expected 55", penalty)
	}
}

func TestFairness_SameDayLinking(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-02", "Toyota", model.RankA, 80),
		scored("VIN002", partner1, "2026-03-02", "Honda", model.RankA, 80),
		scored("VIN003", partner2, "2026-03-02", "Toyota", model.RankA, 80),
	}
	ctx := newCtx(triples)
	cfg := FairnessConfig{FairTarget: 5, SameDayWeight: 10}
	c := NewFairnessConstraint(20, cfg)

	ctx.Select(0)
	ctx.Select(2)
	// 不同合作方同日：无共选惩罚
	if _, penalty, _ := c.Evaluate(ctx); penalty != 0 {
		t.Errorf("Different partners same day penalty = %d, expected 0", penalty)
	}

	ctx.Select(1)
	// partner1 同日两次：一对共选
	if _, penalty, _ := c.Evaluate(ctx); penalty != 10 {
		t.Errorf("Same partner same day penalty = %d, expected 10", penalty)
	}
}

func TestBudget_Overage(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-02", "Toyota", model.RankA, 80),
		scored("VIN002", partner2, "2026-03-03", "Toyota", model.RankA, 80),
	}
	ctx := newCtx(triples)
	ctx.BudgetRemaining["Toyota"] = 150 // 每次100：第二次超50
	c := NewBudgetConstraint(2)

	if ok, _ := c.EvaluateTriple(ctx, 0); !ok {
		t.Error("Within budget must pass")
	}
	ctx.Select(0)
	if ok, penalty := c.EvaluateTriple(ctx, 1); ok || penalty != 100 {
		t.Errorf("Over-budget delta = (%v, %d), expected (false, 100)", ok, penalty)
	}

	ctx.Select(1)
	// 开销200 − 预算150 = 超50美元 × 权重2
	if _, penalty, _ := c.Evaluate(ctx); penalty != 100 {
		t.Errorf("Evaluate() penalty = %d, expected 100", penalty)
	}
}

func TestManager_Integration(t *testing.T) {
	triples := []model.ScoredTriple{
		scored("VIN001", partner1, "2026-03-02", "Toyota", model.RankA, 80),
		scored("VIN001", partner2, "2026-03-02", "Toyota", model.RankA, 60),
	}
	ctx := newCtx(triples)
	ctx.BudgetRemaining["Toyota"] = 1000

	m := constraint.NewManager()
	m.Register(NewVINUniqueConstraint())
	m.Register(NewDayCapacityConstraint())
	m.Register(NewTierCapConstraint(25))
	m.Register(NewFairnessConstraint(20, DefaultFairnessConfig()))
	m.Register(NewBudgetConstraint(2))

	if m.Count() != 5 {
		t.Fatalf("Count() = %d, expected 5", m.Count())
	}

	ctx.Select(0)
	if ok, reason := m.CanSelect(ctx, 1); ok {
		t.Errorf("Duplicate VIN must be blocked, got ok (reason %q)", reason)
	}

	if obj := m.Objective(ctx); obj != 80 {
		t.Errorf("Objective() = %d, expected 80", obj)
	}

	result := m.Evaluate(ctx)
	if !result.IsValid {
		t.Error("Single clean selection must be valid")
	}
}
