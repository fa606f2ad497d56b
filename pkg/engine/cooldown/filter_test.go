package cooldown

import (
	"testing"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

var (
	partner1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	partner2 = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func triple(p uuid.UUID, make, vmodel, start string) model.FeasibleTriple {
	return model.FeasibleTriple{
		VIN:       "VIN001",
		PartnerID: p,
		StartDay:  start,
		Make:      make,
		Model:     vmodel,
	}
}

func TestFilter_ModelCooldownBoundary(t *testing.T) {
	// 历史：partner1 借过 Toyota Camry，2026-02-20 结束，品牌冷却30天
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", StartDate: "2026-02-13", EndDate: "2026-02-20"},
	}
	f := NewFilter(history, Config{DaysByMake: map[string]int{"Toyota": 30}})

	tests := []struct {
		name  string
		start string
		pass  bool
		basis string
	}{
		{"截止日前一天拒绝", "2026-03-21", false, BasisModel},
		{"截止日当天通过", "2026-03-22", true, BasisModel},
		{"截止日之后通过", "2026-03-23", true, BasisModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := triple(partner1, "Toyota", "Camry", tt.start)
			ok, basis := f.Check(&tr)
			if ok != tt.pass {
				t.Errorf("Check() = %v, expected %v", ok, tt.pass)
			}
			if basis != tt.basis {
				t.Errorf("Check() basis = %q, expected %q", basis, tt.basis)
			}
		})
	}
}

func TestFilter_MakeFallback(t *testing.T) {
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", StartDate: "2026-02-13", EndDate: "2026-02-20"},
	}
	f := NewFilter(history, Config{DaysByMake: map[string]int{"Toyota": 30}})

	// 不同车型：无车型级记录，回退到品牌级记录仍然拦截
	tr := triple(partner1, "Toyota", "Corolla", "2026-03-01")
	ok, basis := f.Check(&tr)
	if ok {
		t.Error("Different model within make cooldown should be rejected via make fallback")
	}
	if basis != BasisMake {
		t.Errorf("Check() basis = %q, expected %q", basis, BasisMake)
	}
}

func TestFilter_NoHistoryPasses(t *testing.T) {
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", StartDate: "2026-02-13", EndDate: "2026-02-20"},
	}
	f := NewFilter(history, Config{DefaultDays: 60})

	// partner2 无任何历史
	tr := triple(partner2, "Toyota", "Camry", "2026-03-01")
	ok, basis := f.Check(&tr)
	if !ok || basis != BasisNone {
		t.Errorf("Partner without history should pass, got (%v, %q)", ok, basis)
	}

	// partner1 借的是别的品牌
	tr = triple(partner1, "Honda", "Civic", "2026-03-01")
	ok, basis = f.Check(&tr)
	if !ok || basis != BasisNone {
		t.Errorf("Make without history should pass, got (%v, %q)", ok, basis)
	}
}

func TestFilter_ZeroCooldownOverride(t *testing.T) {
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", StartDate: "2026-02-27", EndDate: "2026-02-28"},
	}
	f := NewFilter(history, Config{DaysByMake: map[string]int{"Toyota": 0}, DefaultDays: 30})

	// 品牌冷却为零：哪怕昨天刚还车也通过
	tr := triple(partner1, "Toyota", "Camry", "2026-03-01")
	if ok, _ := f.Check(&tr); !ok {
		t.Error("Zero cooldown days for a make must always pass")
	}
}

func TestFilter_ApplyTallies(t *testing.T) {
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", StartDate: "2026-02-13", EndDate: "2026-02-28"},
	}
	f := NewFilter(history, Config{DefaultDays: 30})

	triples := []model.FeasibleTriple{
		triple(partner1, "Toyota", "Camry", "2026-03-02"),   // 车型级拒绝
		triple(partner1, "Toyota", "Corolla", "2026-03-02"), // 品牌级拒绝
		triple(partner2, "Toyota", "Camry", "2026-03-02"),   // 无历史通过
	}

	kept, rejected := f.Apply(triples)
	if len(kept) != 1 {
		t.Fatalf("Apply() kept = %d, expected 1", len(kept))
	}
	if kept[0].PartnerID != partner2 {
		t.Error("Wrong triple survived the filter")
	}
	if rejected[BasisModel] != 1 || rejected[BasisMake] != 1 {
		t.Errorf("Rejection tally = %v, expected model:1 make:1", rejected)
	}
}

func TestBuildLedger_KeepsLatestEnd(t *testing.T) {
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", EndDate: "2026-01-10"},
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", EndDate: "2026-02-20"},
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", EndDate: "2026-01-25"},
	}
	l := BuildLedger(history)

	end, basis := l.LastEnd(partner1, "Camry", "Toyota")
	if end != "2026-02-20" || basis != BasisModel {
		t.Errorf("LastEnd() = (%q, %q), expected (2026-02-20, model)", end, basis)
	}
}

func TestBuildLedger_SkipsMalformed(t *testing.T) {
	history := []model.LoanRecord{
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", EndDate: "bad-date"},
		{PartnerID: uuid.Nil, Make: "Toyota", EndDate: "2026-01-10"},
		{PartnerID: partner1, Make: "Toyota", Model: "Camry", EndDate: "2026-01-10"},
	}
	l := BuildLedger(history)

	if l.SkippedRecords() != 2 {
		t.Errorf("SkippedRecords() = %d, expected 2", l.SkippedRecords())
	}
	if end, _ := l.LastEnd(partner1, "Camry", "Toyota"); end != "2026-01-10" {
		t.Errorf("LastEnd() = %q, expected 2026-01-10", end)
	}
}
