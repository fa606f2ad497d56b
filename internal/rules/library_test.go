package rules

import (
	"testing"
	"time"

	"github.com/aininja-pro/media-scheduler-sub000/internal/config"
	"github.com/aininja-pro/media-scheduler-sub000/internal/office"
)

func TestGetLibrary(t *testing.T) {
	library := GetLibrary()

	if len(library) != 5 {
		t.Fatalf("Expected 5 constraint definitions, got %d", len(library))
	}

	byName := make(map[string]ConstraintDefinition)
	for _, def := range library {
		byName[def.Name] = def
	}

	// 两个硬约束不可配置
	for _, name := range []string{"vin_unique", "day_capacity"} {
		def, ok := byName[name]
		if !ok {
			t.Fatalf("Missing definition %s", name)
		}
		if def.Type != "hard" {
			t.Errorf("%s type = %s, expected hard", name, def.Type)
		}
		if len(def.Params) != 0 {
			t.Errorf("%s should have no params", name)
		}
	}

	// 三个软约束带权重参数
	for _, name := range []string{"tier_cap_overage", "fairness", "budget_overage"} {
		def, ok := byName[name]
		if !ok {
			t.Fatalf("Missing definition %s", name)
		}
		if def.Type != "soft" {
			t.Errorf("%s type = %s, expected soft", name, def.Type)
		}
		hasWeight := false
		for _, p := range def.Params {
			if p.Name == "weight" {
				hasWeight = true
			}
		}
		if !hasWeight {
			t.Errorf("%s should have a weight param", name)
		}
	}
}

func TestBuildRunConfig(t *testing.T) {
	ec := config.EngineConfig{
		SolveTimeBudget:    5 * time.Second,
		MaxIterations:      500,
		Workers:            4,
		Seed:               42,
		CandidateStartDays: 3,
		MinConsecutiveDays: 5,
		LoanDays:           5,
		CooldownDays:       60,
		CostPerLoan:        2000,
	}
	o := &office.Office{
		Code:   "SEA",
		Status: "active",
		Settings: office.Settings{
			WeekdaySlots:     2,
			PerPartnerPerDay: 2,
		},
	}

	cfg := BuildRunConfig(ec, o, "2026-03-02")

	if cfg.Office != "SEA" || cfg.WeekStart != "2026-03-02" {
		t.Errorf("Office/WeekStart = %s/%s", cfg.Office, cfg.WeekStart)
	}
	if cfg.CandidateStartDays != 3 || cfg.MinConsecutiveDays != 5 || cfg.LoanDays != 5 {
		t.Errorf("Day knobs = %d/%d/%d", cfg.CandidateStartDays, cfg.MinConsecutiveDays, cfg.LoanDays)
	}
	if cfg.PerPartnerPerDay != 2 {
		t.Errorf("PerPartnerPerDay = %d, expected office override 2", cfg.PerPartnerPerDay)
	}
	if cfg.Cooldown.DefaultDays != 60 {
		t.Errorf("Cooldown = %d, expected 60", cfg.Cooldown.DefaultDays)
	}
	if cfg.Seed != 42 || cfg.Scoring.Seed != 42 {
		t.Errorf("Seeds = %d/%d, expected 42", cfg.Seed, cfg.Scoring.Seed)
	}
	if cfg.Optimizer == nil {
		t.Fatal("Optimizer config should be set")
	}
	if cfg.Optimizer.MaxIterations != 500 || cfg.Optimizer.Workers != 4 ||
		cfg.Optimizer.TimeBudget != 5*time.Second {
		t.Errorf("Optimizer = %+v", cfg.Optimizer)
	}
}
