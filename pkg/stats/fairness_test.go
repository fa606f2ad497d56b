package stats

import (
	"testing"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

var (
	partner1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	partner2 = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	partner3 = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func sel(p uuid.UUID, make, day string) model.SelectedAssignment {
	return model.SelectedAssignment{VIN: "VIN001", PartnerID: p, Make: make, LoanStart: day}
}

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	partners := []*PartnerInfo{
		{ID: partner1, Name: "合作方1"},
		{ID: partner2, Name: "合作方2"},
	}
	selected := []model.SelectedAssignment{
		sel(partner1, "Toyota", "2026-03-02"),
		sel(partner1, "Honda", "2026-03-03"),
		sel(partner2, "Toyota", "2026-03-02"),
	}

	metrics := analyzer.Analyze(selected, partners)
	if metrics == nil {
		t.Fatal("Metrics should not be nil")
	}

	// 合作方1有2次，合作方2有1次，应有一定集中度
	if metrics.AssignmentGini < 0 || metrics.AssignmentGini > 1 {
		t.Errorf("Gini should be between 0 and 1, got %f", metrics.AssignmentGini)
	}
	if len(metrics.PartnerStats) != 2 {
		t.Errorf("Expected 2 partner stats, got %d", len(metrics.PartnerStats))
	}
	if metrics.PartnerStats[0].PartnerID != partner1 || metrics.PartnerStats[0].Assignments != 2 {
		t.Errorf("Top partner stat = %+v, expected partner1 with 2", metrics.PartnerStats[0])
	}
	if len(metrics.PartnerStats[0].Makes) != 2 {
		t.Errorf("Expected 2 makes for partner1, got %v", metrics.PartnerStats[0].Makes)
	}
}

func TestFairnessAnalyzer_PerfectFairness(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	partners := []*PartnerInfo{
		{ID: partner1, Name: "合作方1"},
		{ID: partner2, Name: "合作方2"},
	}
	// 完全均匀的分配
	selected := []model.SelectedAssignment{
		sel(partner1, "Toyota", "2026-03-02"),
		sel(partner2, "Toyota", "2026-03-03"),
	}

	metrics := analyzer.Analyze(selected, partners)
	if metrics.AssignmentGini > 0.01 {
		t.Errorf("Even selection should have Gini near 0, got %f", metrics.AssignmentGini)
	}
}

func TestFairnessAnalyzer_Concentration(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	partners := []*PartnerInfo{
		{ID: partner1, Name: "合作方1"},
		{ID: partner2, Name: "合作方2"},
		{ID: partner3, Name: "合作方3"},
	}
	// 全部集中在一个合作方
	selected := []model.SelectedAssignment{
		sel(partner1, "Toyota", "2026-03-02"),
		sel(partner1, "Toyota", "2026-03-03"),
		sel(partner1, "Toyota", "2026-03-04"),
	}

	metrics := analyzer.Analyze(selected, partners)
	if metrics.AssignmentGini < 0.5 {
		t.Errorf("Concentrated selection should have high Gini, got %f", metrics.AssignmentGini)
	}
	if metrics.TopNShare != 1.0 {
		t.Errorf("TopNShare = %f, expected 1.0", metrics.TopNShare)
	}
}

func TestFairnessAnalyzer_EmptyInput(t *testing.T) {
	metrics := NewFairnessAnalyzer().Analyze(nil, nil)
	if metrics == nil {
		t.Fatal("Should return empty metrics for nil input")
	}
	if metrics.OverallFairnessScore != 100 {
		t.Errorf("Empty input score = %f, expected 100", metrics.OverallFairnessScore)
	}
}

func TestGini_Bounds(t *testing.T) {
	if g := Gini([]float64{1, 1, 1, 1}); g > 0.001 {
		t.Errorf("Uniform Gini = %f, expected 0", g)
	}
	if g := Gini(nil); g != 0 {
		t.Errorf("Empty Gini = %f, expected 0", g)
	}
	g := Gini([]float64{0, 0, 0, 10})
	if g < 0.7 {
		t.Errorf("Concentrated Gini = %f, expected > 0.7", g)
	}
}
