package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aininja-pro/media-scheduler-sub000/internal/config"
	"github.com/aininja-pro/media-scheduler-sub000/internal/office"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/calendar"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/cooldown"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/diagnose"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/feasible"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/errors"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// DiagnoseHandler 诊断处理器
// 不求解，只回答"为什么这周的容量没填满"
type DiagnoseHandler struct {
	offices   *office.Registry
	engineCfg config.EngineConfig
}

// NewDiagnoseHandler 创建诊断处理器
func NewDiagnoseHandler(offices *office.Registry, engineCfg config.EngineConfig) *DiagnoseHandler {
	return &DiagnoseHandler{offices: offices, engineCfg: engineCfg}
}

// DiagnoseRequest 诊断请求
// 输入与生成请求相同的原始数据，外加一份要解释的分配结果（可为空）
type DiagnoseRequest struct {
	Office    string `json:"office"`
	WeekStart string `json:"week_start"`

	Vehicles     []model.Vehicle        `json:"vehicles"`
	Partners     []PartnerInput         `json:"partners"`
	Availability model.AvailabilityGrid `json:"availability"`
	History      []LoanInput            `json:"history,omitempty"`
	CapacityRows []model.CapacityRow    `json:"capacity_rows,omitempty"`

	Assignments  []model.SelectedAssignment `json:"assignments,omitempty"`
	CooldownDays int                        `json:"cooldown_days,omitempty"`
}

// DiagnoseResponse 诊断响应
type DiagnoseResponse struct {
	Success          bool             `json:"success"`
	Report           *diagnose.Report `json:"report"`
	FeasibleCount    int              `json:"feasible_count"`
	CooldownRejected map[string]int   `json:"cooldown_rejected,omitempty"`
}

// Diagnose 对一周的容量利用做瓶颈归因
func (h *DiagnoseHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Office == "" || req.WeekStart == "" {
		respondError(w, errors.New(errors.CodeInvalidInput, "办公室编码和周起始日不能为空"))
		return
	}

	o, err := h.offices.Get(req.Office)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeNotFound, "办公室不可用: "+req.Office))
		return
	}

	cal, err := calendar.New(req.CapacityRows, h.offices.CalendarDefaults())
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	candidateDays := h.engineCfg.CandidateStartDays
	if candidateDays <= 0 {
		candidateDays = 5
	}
	minConsecutive := h.engineCfg.MinConsecutiveDays
	if minConsecutive <= 0 {
		minConsecutive = 7
	}

	gen, err := feasible.NewGenerator(cal, feasible.Config{
		Office:             req.Office,
		WeekStart:          req.WeekStart,
		CandidateStartDays: candidateDays,
		MinConsecutiveDays: minConsecutive,
		Seed:               h.engineCfg.Seed,
	})
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	partners, appErr := convertPartners(req.Partners)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	triples, err := gen.Generate(req.Vehicles, partners, req.Availability)
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	history, appErr := convertHistory(req.History)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	cooldownDays := req.CooldownDays
	if cooldownDays <= 0 {
		cooldownDays = h.engineCfg.CooldownDays
	}
	kept, rejected := cooldown.NewFilter(history, cooldown.Config{DefaultDays: cooldownDays}).Apply(triples)

	report := diagnose.New(cal, diagnose.Config{
		Office:           req.Office,
		WeekStart:        req.WeekStart,
		Days:             candidateDays,
		PerPartnerPerDay: o.Settings.PerPartnerPerDay,
	}).Explain(kept, req.Assignments)

	respondJSON(w, http.StatusOK, DiagnoseResponse{
		Success:          true,
		Report:           report,
		FeasibleCount:    len(triples),
		CooldownRejected: rejected,
	})
}
