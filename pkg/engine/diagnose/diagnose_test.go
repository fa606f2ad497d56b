package diagnose

import (
	"testing"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/calendar"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

var (
	partner1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	partner2 = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

const weekStart = "2026-03-02" // 周一

func testEngine(t *testing.T, rows []model.CapacityRow) *Engine {
	t.Helper()
	cal, err := calendar.New(rows, map[string]calendar.Defaults{
		"LAX": {WeekdaySlots: 2, WeekendSlots: 0},
	})
	if err != nil {
		t.Fatalf("calendar.New() error = %v", err)
	}
	return New(cal, Config{Office: "LAX", WeekStart: weekStart, Days: 5, PerPartnerPerDay: 1})
}

func feas(vin string, p uuid.UUID, day string) model.FeasibleTriple {
	return model.FeasibleTriple{VIN: vin, PartnerID: p, StartDay: day, Make: "Toyota", Model: "Camry", Office: "LAX"}
}

func sel(vin string, p uuid.UUID, day string) model.SelectedAssignment {
	return model.SelectedAssignment{VIN: vin, PartnerID: p, Make: "Toyota", LoanStart: day}
}

func TestExplain_BlackoutDay(t *testing.T) {
	rows := []model.CapacityRow{{Office: "LAX", Date: weekStart, Slots: 0, Note: "blackout"}}
	e := testEngine(t, rows)

	report := e.Explain(nil, nil)
	if report.Daily[0].Bottleneck != BottleneckNoCapacity {
		t.Errorf("Blackout day classified as %s, expected no_capacity", report.Daily[0].Bottleneck)
	}
	// 封锁日不计入主要瓶颈（没有可归因的空位）
	for _, s := range report.PrimaryBottlenecks {
		if s.Bottleneck == BottleneckNoCapacity {
			t.Error("Blackout must not appear in primary bottlenecks")
		}
	}
}

func TestExplain_NoFeasibleTriples(t *testing.T) {
	e := testEngine(t, nil)

	report := e.Explain(nil, nil)
	for _, d := range report.Daily {
		if d.Bottleneck != BottleneckNoFeasibleTriples {
			t.Errorf("Day %s classified as %s, expected no_feasible_triples", d.Date, d.Bottleneck)
		}
	}
	if len(report.PrimaryBottlenecks) != 1 || report.PrimaryBottlenecks[0].EmptySlots != 10 {
		t.Errorf("Expected single bottleneck with 10 empty slots, got %+v", report.PrimaryBottlenecks)
	}
	if len(report.Recommendations) == 0 || report.Recommendations[0].Rank != 1 {
		t.Error("Expected ranked recommendations")
	}
}

func TestExplain_FilledDay(t *testing.T) {
	e := testEngine(t, nil)

	feasible := []model.FeasibleTriple{
		feas("VIN001", partner1, weekStart),
		feas("VIN002", partner2, weekStart),
	}
	selected := []model.SelectedAssignment{
		sel("VIN001", partner1, weekStart),
		sel("VIN002", partner2, weekStart),
	}

	report := e.Explain(feasible, selected)
	if report.Daily[0].Bottleneck != BottleneckNone {
		t.Errorf("Filled day classified as %s, expected none", report.Daily[0].Bottleneck)
	}
	if report.Daily[0].EmptySlots != 0 {
		t.Errorf("EmptySlots = %d, expected 0", report.Daily[0].EmptySlots)
	}
}

func TestExplain_InsufficientVehicles(t *testing.T) {
	e := testEngine(t, nil)

	// 容量2，但该日只有1辆可行车
	feasible := []model.FeasibleTriple{
		feas("VIN001", partner1, weekStart),
		feas("VIN001", partner2, weekStart),
	}
	selected := []model.SelectedAssignment{sel("VIN001", partner1, weekStart)}

	report := e.Explain(feasible, selected)
	if report.Daily[0].Bottleneck != BottleneckFewVehicles {
		t.Errorf("Classified as %s, expected insufficient_vehicles", report.Daily[0].Bottleneck)
	}
}

func TestExplain_InsufficientPartners(t *testing.T) {
	e := testEngine(t, nil)

	// 容量2、2辆车，但只有1个合作方且同日上限1
	feasible := []model.FeasibleTriple{
		feas("VIN001", partner1, weekStart),
		feas("VIN002", partner1, weekStart),
	}
	selected := []model.SelectedAssignment{sel("VIN001", partner1, weekStart)}

	report := e.Explain(feasible, selected)
	if report.Daily[0].Bottleneck != BottleneckFewPartners {
		t.Errorf("Classified as %s, expected insufficient_partners", report.Daily[0].Bottleneck)
	}
}

func TestExplain_OptimizerDeclined(t *testing.T) {
	e := testEngine(t, nil)

	// 容量、车辆、合作方都够，但只选了1个：软惩罚主导
	feasible := []model.FeasibleTriple{
		feas("VIN001", partner1, weekStart),
		feas("VIN002", partner2, weekStart),
	}
	selected := []model.SelectedAssignment{sel("VIN001", partner1, weekStart)}

	report := e.Explain(feasible, selected)
	if report.Daily[0].Bottleneck != BottleneckOptimizerDeclined {
		t.Errorf("Classified as %s, expected optimizer_declined", report.Daily[0].Bottleneck)
	}

	// 建议应指向下调软惩罚权重
	found := false
	for _, r := range report.Recommendations {
		if r.Bottleneck == BottleneckOptimizerDeclined {
			found = true
		}
	}
	if !found {
		t.Error("Expected a recommendation for optimizer_declined")
	}
}
