package feasible

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/calendar"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/errors"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

var (
	partner1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	partner2 = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// 2026-03-02 是周一
const weekStart = "2026-03-02"

func testConfig() Config {
	return Config{
		Office:             "LAX",
		WeekStart:          weekStart,
		CandidateStartDays: 5,
		MinConsecutiveDays: 7,
		Seed:               42,
	}
}

func testCalendar(t *testing.T, rows []model.CapacityRow) *calendar.Calendar {
	t.Helper()
	cal, err := calendar.New(rows, map[string]calendar.Defaults{
		"LAX": {WeekdaySlots: 2, WeekendSlots: 0},
	})
	if err != nil {
		t.Fatalf("calendar.New() error = %v", err)
	}
	return cal
}

func testVehicle(vin string) model.Vehicle {
	return model.Vehicle{
		VIN:       vin,
		Make:      "Toyota",
		Model:     "Camry",
		Office:    "LAX",
		InService: "2026-01-01",
		TurnIn:    "2026-12-31",
	}
}

func testPartner(id uuid.UUID, approvals map[string]string) model.Partner {
	p := model.Partner{
		Name:      "合作方",
		Office:    "LAX",
		Approvals: approvals,
	}
	p.ID = id
	return p
}

func fullAvailability(vins ...string) model.AvailabilityGrid {
	grid := model.AvailabilityGrid{}
	for _, vin := range vins {
		grid[vin] = map[string]bool{}
		for i := 0; i < 14; i++ {
			grid[vin][model.AddDays(weekStart, i)] = true
		}
	}
	return grid
}

func TestGenerator_BasicGeneration(t *testing.T) {
	gen, err := NewGenerator(testCalendar(t, nil), testConfig())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	vehicles := []model.Vehicle{testVehicle("VIN001")}
	partners := []model.Partner{testPartner(partner1, map[string]string{"Toyota": model.RankA})}

	triples, err := gen.Generate(vehicles, partners, fullAvailability("VIN001"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// 5个候选起租日 × 1车 × 1合作方
	if len(triples) != 5 {
		t.Fatalf("Generate() produced %d triples, expected 5", len(triples))
	}
	first := triples[0]
	if first.StartDay != weekStart || first.Rank != model.RankA || !first.GeoMatch {
		t.Errorf("Unexpected first triple: %+v", first)
	}
}

func TestGenerator_BlackoutSkipsDay(t *testing.T) {
	rows := []model.CapacityRow{{Office: "LAX", Date: "2026-03-03", Slots: 0, Note: "blackout"}}
	gen, _ := NewGenerator(testCalendar(t, rows), testConfig())

	vehicles := []model.Vehicle{testVehicle("VIN001")}
	partners := []model.Partner{testPartner(partner1, map[string]string{"Toyota": model.RankA})}

	triples, err := gen.Generate(vehicles, partners, fullAvailability("VIN001"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, tr := range triples {
		if tr.StartDay == "2026-03-03" {
			t.Error("Blackout day must produce zero triples")
		}
	}
	if len(triples) != 4 {
		t.Errorf("Generate() produced %d triples, expected 4", len(triples))
	}
}

func TestGenerator_RequiresExplicitApproval(t *testing.T) {
	gen, _ := NewGenerator(testCalendar(t, nil), testConfig())

	vehicles := []model.Vehicle{testVehicle("VIN001")}
	// 只审批了别的品牌：无隐式回退资格
	partners := []model.Partner{testPartner(partner1, map[string]string{"Honda": model.RankAPlus})}

	triples, err := gen.Generate(vehicles, partners, fullAvailability("VIN001"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(triples) != 0 {
		t.Errorf("Partner without make approval produced %d triples, expected 0", len(triples))
	}
}

func TestGenerator_AvailabilityWindow(t *testing.T) {
	gen, _ := NewGenerator(testCalendar(t, nil), testConfig())

	vehicles := []model.Vehicle{testVehicle("VIN001")}
	partners := []model.Partner{testPartner(partner1, map[string]string{"Toyota": model.RankA})}

	// 周三起不可用：只有周一能覆盖完整7天窗口的才保留
	grid := model.AvailabilityGrid{"VIN001": map[string]bool{}}
	for i := 0; i < 14; i++ {
		grid["VIN001"][model.AddDays(weekStart, i)] = i < 2
	}

	triples, err := gen.Generate(vehicles, partners, grid)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(triples) != 0 {
		t.Errorf("Interrupted availability produced %d triples, expected 0", len(triples))
	}
}

func TestGenerator_WeekdayRestriction(t *testing.T) {
	gen, _ := NewGenerator(testCalendar(t, nil), testConfig())

	vehicles := []model.Vehicle{testVehicle("VIN001")}
	p := testPartner(partner1, map[string]string{"Toyota": model.RankA})
	p.AllowedStartWeekdays = []time.Weekday{time.Tuesday, time.Thursday}
	partners := []model.Partner{p}

	triples, err := gen.Generate(vehicles, partners, fullAvailability("VIN001"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(triples) != 2 {
		t.Fatalf("Generate() produced %d triples, expected 2", len(triples))
	}
	for _, tr := range triples {
		d, _ := model.ParseDate(tr.StartDay)
		if wd := d.Weekday(); wd != time.Tuesday && wd != time.Thursday {
			t.Errorf("Triple on disallowed weekday %v", wd)
		}
	}
}

func TestGenerator_LifecycleWindow(t *testing.T) {
	gen, _ := NewGenerator(testCalendar(t, nil), testConfig())

	v := testVehicle("VIN001")
	v.TurnIn = "2026-03-05" // 周四到期，7天窗口放不下
	partners := []model.Partner{testPartner(partner1, map[string]string{"Toyota": model.RankA})}

	triples, err := gen.Generate([]model.Vehicle{v}, partners, fullAvailability("VIN001"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(triples) != 0 {
		t.Errorf("Vehicle past turn-in produced %d triples, expected 0", len(triples))
	}
}

func TestGenerator_EmptyInputs(t *testing.T) {
	gen, _ := NewGenerator(testCalendar(t, nil), testConfig())

	triples, err := gen.Generate(nil, nil, nil)
	if err != nil {
		t.Fatalf("Empty inputs must not error, got %v", err)
	}
	if len(triples) != 0 {
		t.Errorf("Empty inputs produced %d triples, expected 0", len(triples))
	}
}

func TestGenerator_DeterministicOrdering(t *testing.T) {
	gen, _ := NewGenerator(testCalendar(t, nil), testConfig())

	vehicles := []model.Vehicle{testVehicle("VIN002"), testVehicle("VIN001")}
	partners := []model.Partner{
		testPartner(partner2, map[string]string{"Toyota": model.RankB}),
		testPartner(partner1, map[string]string{"Toyota": model.RankA}),
	}
	grid := fullAvailability("VIN001", "VIN002")

	a, err := gen.Generate(vehicles, partners, grid)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := gen.Generate(vehicles, partners, grid)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("Same inputs and seed must produce identical output")
	}

	// 排序：起租日优先，VIN次之，合作方再次
	for i := 1; i < len(a); i++ {
		prev, cur := &a[i-1], &a[i]
		if prev.StartDay > cur.StartDay {
			t.Fatal("Output not sorted by start day")
		}
		if prev.StartDay == cur.StartDay && prev.VIN > cur.VIN {
			t.Fatal("Output not sorted by VIN within day")
		}
		if prev.StartDay == cur.StartDay && prev.VIN == cur.VIN &&
			prev.PartnerID.String() > cur.PartnerID.String() {
			t.Fatal("Output not sorted by partner within VIN")
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   errors.Code
	}{
		{"空办公室", func(c *Config) { c.Office = "" }, errors.CodeInvalidConfiguration},
		{"坏日期", func(c *Config) { c.WeekStart = "03/02/2026" }, errors.CodeInvalidDate},
		{"非周一", func(c *Config) { c.WeekStart = "2026-03-03" }, errors.CodeInvalidConfiguration},
		{"候选日越界", func(c *Config) { c.CandidateStartDays = 8 }, errors.CodeInvalidConfiguration},
		{"窗口长度为零", func(c *Config) { c.MinConsecutiveDays = 0 }, errors.CodeInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.code) {
				t.Errorf("Validate() = %v, expected code %s", err, tt.code)
			}
		})
	}
}
