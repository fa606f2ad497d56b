// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/internal/config"
	"github.com/aininja-pro/media-scheduler-sub000/internal/metrics"
	"github.com/aininja-pro/media-scheduler-sub000/internal/office"
	"github.com/aininja-pro/media-scheduler-sub000/internal/repository"
	"github.com/aininja-pro/media-scheduler-sub000/internal/rules"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/cooldown"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/optimizer"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/errors"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/validator"
)

// Store 数据加载仓储集合（可为nil，此时请求必须内联全部输入）
type Store struct {
	Vehicles *repository.VehicleRepository
	Partners *repository.PartnerRepository
	Loans    *repository.LoanRepository
}

// ScheduleHandler 排程处理器
type ScheduleHandler struct {
	engine    *engine.Engine
	offices   *office.Registry
	engineCfg config.EngineConfig
	store     *Store
	metrics   *metrics.Metrics
}

// NewScheduleHandler 创建排程处理器
func NewScheduleHandler(offices *office.Registry, engineCfg config.EngineConfig, store *Store, m *metrics.Metrics) *ScheduleHandler {
	return &ScheduleHandler{
		engine:    engine.New(),
		offices:   offices,
		engineCfg: engineCfg,
		store:     store,
		metrics:   m,
	}
}

// GenerateRequest 排程生成请求
// 输入数据可内联提供，省略时从数据库按办公室加载
type GenerateRequest struct {
	Office    string `json:"office"`
	WeekStart string `json:"week_start"` // YYYY-MM-DD，必须为周一

	Vehicles     []model.Vehicle         `json:"vehicles,omitempty"`
	Partners     []PartnerInput          `json:"partners,omitempty"`
	Availability model.AvailabilityGrid  `json:"availability,omitempty"`
	History      []LoanInput             `json:"history,omitempty"`
	CapRules     []model.TierCapRule     `json:"cap_rules,omitempty"`
	CapacityRows []model.CapacityRow     `json:"capacity_rows,omitempty"`
	Budgets      []model.BudgetRow       `json:"budgets,omitempty"`

	Options *GenerateOptions `json:"options,omitempty"`
}

// PartnerInput 合作方输入
type PartnerInput struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Office               string            `json:"office,omitempty"`
	Approvals            map[string]string `json:"approvals"` // make -> 等级排名
	ServiceRegion        []string          `json:"service_region,omitempty"`
	AllowedStartWeekdays []int             `json:"allowed_start_weekdays,omitempty"` // 0=周日
}

// LoanInput 历史贷出输入
type LoanInput struct {
	PartnerID string `json:"partner_id"`
	Make      string `json:"make"`
	Model     string `json:"model,omitempty"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Published bool   `json:"published,omitempty"`
}

// GenerateOptions 生成选项（覆盖服务级默认）
type GenerateOptions struct {
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
	UseGreedy      bool     `json:"use_greedy,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	TierCapWeight  *int     `json:"tier_cap_weight,omitempty"`
	FairnessWeight *int     `json:"fairness_weight,omitempty"`
	BudgetWeight   *int     `json:"budget_weight,omitempty"`
	HardTierCaps   bool     `json:"hard_tier_caps,omitempty"`
	HardBudget     bool     `json:"hard_budget,omitempty"`
	CostPerLoan    *float64 `json:"cost_per_loan,omitempty"`
	CooldownDays   *int     `json:"cooldown_days,omitempty"`
}

// GenerateResponse 排程生成响应
type GenerateResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Solver    string `json:"solver"`
	Message   string `json:"message,omitempty"`
	RunID     string `json:"run_id"`
	Office    string `json:"office"`
	WeekStart string `json:"week_start"`

	Assignments []AssignmentOutput `json:"assignments"`

	Objective     int            `json:"objective"`
	RawScore      int            `json:"raw_score"`
	PenaltyByType map[string]int `json:"penalty_by_type,omitempty"`

	FeasibleCount    int            `json:"feasible_count"`
	CooldownRejected map[string]int `json:"cooldown_rejected,omitempty"`
	HardFiltered     int            `json:"hard_filtered,omitempty"`
	SkipReasons      map[string]int `json:"skip_reasons,omitempty"`

	UsageAudit  []engine.UsageAuditRow  `json:"usage_audit,omitempty"`
	BudgetAudit []engine.BudgetAuditRow `json:"budget_audit,omitempty"`

	Fairness    interface{} `json:"fairness,omitempty"`
	Utilization interface{} `json:"utilization,omitempty"`
	Diagnostics interface{} `json:"diagnostics,omitempty"`

	Duration string `json:"duration"`
}

// AssignmentOutput 分配输出
type AssignmentOutput struct {
	VIN         string `json:"vin"`
	PartnerID   string `json:"partner_id"`
	PartnerName string `json:"partner_name,omitempty"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Office      string `json:"office"`
	Rank        string `json:"rank"`
	Score       int    `json:"score"`
	LoanStart   string `json:"loan_start"`
	LoanEnd     string `json:"loan_end"`
}

// Generate 生成周排程
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if appErr := validateGenerateRequest(&req); appErr != nil {
		respondError(w, appErr)
		return
	}

	o, err := h.offices.Get(req.Office)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeNotFound, "办公室不可用: "+req.Office))
		return
	}

	cfg := rules.BuildRunConfig(h.engineCfg, o, req.WeekStart)
	applyOptions(cfg, req.Options)

	runReq, appErr := h.buildRunRequest(r, &req, o)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	runCtx := r.Context()
	if cfg.Optimizer != nil && cfg.Optimizer.TimeBudget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, cfg.Optimizer.TimeBudget+5*time.Second)
		defer cancel()
	}

	result, err := h.engine.Run(runCtx, cfg, runReq)
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	if h.metrics != nil {
		gini, fill := 0.0, 0.0
		if result.Fairness != nil {
			gini = result.Fairness.AssignmentGini
		}
		if result.Utilization != nil {
			fill = result.Utilization.OverallFill
		}
		h.metrics.RecordRun(req.Office, string(result.Status), result.Solver,
			result.Duration, float64(result.Objective), result.FeasibleCount, gini, fill)
	}

	respondJSON(w, http.StatusOK, buildGenerateResponse(&req, runReq, result))
}

// buildRunRequest 装配引擎输入：内联数据优先，缺失部分从数据库加载
func (h *ScheduleHandler) buildRunRequest(r *http.Request, req *GenerateRequest, o *office.Office) (*engine.RunRequest, *errors.AppError) {
	runReq := &engine.RunRequest{
		Vehicles:     req.Vehicles,
		Availability: req.Availability,
		CapRules:     req.CapRules,
		CapacityRows: req.CapacityRows,
		Budgets:      req.Budgets,
		CalDefaults:  h.offices.CalendarDefaults(),
	}

	partners, appErr := convertPartners(req.Partners)
	if appErr != nil {
		return nil, appErr
	}
	runReq.Partners = partners

	history, appErr := convertHistory(req.History)
	if appErr != nil {
		return nil, appErr
	}
	runReq.History = history

	if h.store == nil {
		return runReq, nil
	}

	ctx := r.Context()
	weekEnd := model.AddDays(req.WeekStart, 13)
	historySince := model.AddDays(req.WeekStart, -400)

	if len(runReq.Vehicles) == 0 {
		vehicles, err := h.store.Vehicles.ListByOffice(ctx, req.Office)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载车辆失败")
		}
		runReq.Vehicles = vehicles
	}
	if len(runReq.Partners) == 0 {
		loaded, err := h.store.Partners.ListByOffice(ctx, req.Office)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载合作方失败")
		}
		runReq.Partners = loaded
	}
	if len(runReq.Availability) == 0 {
		grid, err := h.store.Vehicles.AvailabilityGrid(ctx, req.Office, req.WeekStart, weekEnd)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载可用性网格失败")
		}
		runReq.Availability = grid
	}
	if len(runReq.History) == 0 {
		records, err := h.store.Loans.HistorySince(ctx, req.Office, historySince)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载贷出历史失败")
		}
		runReq.History = records
	}
	if len(runReq.CapRules) == 0 {
		capRules, err := h.store.Loans.TierCapRules(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载上限规则失败")
		}
		runReq.CapRules = capRules
	}
	if len(runReq.CapacityRows) == 0 {
		capRows, err := h.store.Loans.CapacityRows(ctx, req.Office, req.WeekStart, weekEnd)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载容量日历失败")
		}
		runReq.CapacityRows = capRows
	}
	if len(runReq.Budgets) == 0 {
		year, quarter := model.QuarterOf(req.WeekStart)
		budgets, err := h.store.Loans.Budgets(ctx, req.Office, year, quarter)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载季度预算失败")
		}
		runReq.Budgets = budgets
	}

	return runReq, nil
}

// ValidateRequest 排程验证请求
type ValidateRequest struct {
	Office       string                     `json:"office"`
	WeekStart    string                     `json:"week_start"`
	Assignments  []model.SelectedAssignment `json:"assignments"`
	Partners     []PartnerInput             `json:"partners,omitempty"`
	History      []LoanInput                `json:"history,omitempty"`
	SlotsByDay   map[string]int             `json:"slots_by_day,omitempty"`
	CooldownDays int                        `json:"cooldown_days,omitempty"`
}

// ValidateResponse 验证响应
type ValidateResponse struct {
	Valid      bool                  `json:"valid"`
	Violations []validator.Violation `json:"violations"`
}

// Validate 校验一份分配结果的全部硬性不变量
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if len(req.Assignments) == 0 {
		respondError(w, errors.New(errors.CodeInvalidInput, "分配列表不能为空"))
		return
	}

	partners, appErr := convertPartners(req.Partners)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	partnerMap := make(map[uuid.UUID]*model.Partner, len(partners))
	for i := range partners {
		partnerMap[partners[i].ID] = &partners[i]
	}

	history, appErr := convertHistory(req.History)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	var filter *cooldown.Filter
	if len(history) > 0 {
		days := req.CooldownDays
		if days <= 0 {
			days = h.engineCfg.CooldownDays
		}
		filter = cooldown.NewFilter(history, cooldown.Config{DefaultDays: days})
	}

	checker := validator.NewInvariantChecker(req.SlotsByDay, filter, partnerMap)
	violations := checker.CheckAll(req.Assignments)
	if violations == nil {
		violations = []validator.Violation{}
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}

// validateGenerateRequest 验证生成请求
func validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	if req.Office == "" {
		ve.Add("office", "办公室编码不能为空")
	}
	if req.WeekStart == "" {
		ve.Add("week_start", "周起始日不能为空")
	} else if _, err := model.ParseDate(req.WeekStart); err != nil {
		ve.Add("week_start", "日期格式无效，应为YYYY-MM-DD")
	} else if !model.IsMonday(req.WeekStart) {
		ve.Add("week_start", "周起始日必须为周一")
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// applyOptions 把请求级选项叠加到运行配置上
func applyOptions(cfg *engine.RunConfig, opts *GenerateOptions) {
	if opts == nil {
		return
	}
	if opts.TimeoutSeconds > 0 && cfg.Optimizer != nil {
		cfg.Optimizer.TimeBudget = time.Duration(opts.TimeoutSeconds) * time.Second
	}
	if opts.Seed != nil {
		cfg.Seed = *opts.Seed
		cfg.Scoring.Seed = *opts.Seed
		if cfg.Optimizer != nil {
			cfg.Optimizer.Seed = *opts.Seed
		}
	}
	if opts.TierCapWeight != nil {
		cfg.TierCapWeight = *opts.TierCapWeight
	}
	if opts.FairnessWeight != nil {
		cfg.FairnessWeight = *opts.FairnessWeight
	}
	if opts.BudgetWeight != nil {
		cfg.BudgetWeight = *opts.BudgetWeight
	}
	if opts.CostPerLoan != nil {
		cfg.CostPerLoan = *opts.CostPerLoan
	}
	if opts.CooldownDays != nil {
		cfg.Cooldown = cooldown.Config{DefaultDays: *opts.CooldownDays}
	}
	cfg.HardTierCaps = cfg.HardTierCaps || opts.HardTierCaps
	cfg.HardBudget = cfg.HardBudget || opts.HardBudget
	cfg.UseGreedy = cfg.UseGreedy || opts.UseGreedy
}

// convertPartners 转换合作方输入
func convertPartners(inputs []PartnerInput) ([]model.Partner, *errors.AppError) {
	partners := make([]model.Partner, 0, len(inputs))
	for _, in := range inputs {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的合作方ID格式: "+in.ID)
		}
		p := model.Partner{
			BaseModel:     model.BaseModel{ID: id},
			Name:          in.Name,
			Office:        in.Office,
			Approvals:     in.Approvals,
			ServiceRegion: in.ServiceRegion,
		}
		for _, wd := range in.AllowedStartWeekdays {
			if wd >= 0 && wd <= 6 {
				p.AllowedStartWeekdays = append(p.AllowedStartWeekdays, time.Weekday(wd))
			}
		}
		partners = append(partners, p)
	}
	return partners, nil
}

// convertHistory 转换历史贷出输入
func convertHistory(inputs []LoanInput) ([]model.LoanRecord, *errors.AppError) {
	records := make([]model.LoanRecord, 0, len(inputs))
	for _, in := range inputs {
		id, err := uuid.Parse(in.PartnerID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "历史记录的合作方ID格式无效: "+in.PartnerID)
		}
		records = append(records, model.LoanRecord{
			PartnerID: id,
			Make:      in.Make,
			Model:     in.Model,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Published: in.Published,
		})
	}
	return records, nil
}

// buildGenerateResponse 构建生成响应
func buildGenerateResponse(req *GenerateRequest, runReq *engine.RunRequest, result *engine.RunResult) GenerateResponse {
	nameByID := make(map[uuid.UUID]string, len(runReq.Partners))
	for i := range runReq.Partners {
		nameByID[runReq.Partners[i].ID] = runReq.Partners[i].Name
	}

	assignments := make([]AssignmentOutput, len(result.Assignments))
	for i, a := range result.Assignments {
		assignments[i] = AssignmentOutput{
			VIN:         a.VIN,
			PartnerID:   a.PartnerID.String(),
			PartnerName: nameByID[a.PartnerID],
			Make:        a.Make,
			Model:       a.Model,
			Office:      a.Office,
			Rank:        a.Rank,
			Score:       a.Score,
			LoanStart:   a.LoanStart,
			LoanEnd:     a.LoanEnd,
		}
	}

	penalties := make(map[string]int, len(result.PenaltyByType))
	for t, v := range result.PenaltyByType {
		penalties[string(t)] = v
	}

	resp := GenerateResponse{
		Success:          result.Status != optimizer.StatusInfeasible,
		Status:           string(result.Status),
		Solver:           result.Solver,
		RunID:            uuid.New().String(),
		Office:           req.Office,
		WeekStart:        req.WeekStart,
		Assignments:      assignments,
		Objective:        result.Objective,
		RawScore:         result.RawScore,
		PenaltyByType:    penalties,
		FeasibleCount:    result.FeasibleCount,
		CooldownRejected: result.CooldownRejected,
		HardFiltered:     result.HardFiltered,
		SkipReasons:      result.SkipReasons,
		UsageAudit:       result.UsageAudit,
		BudgetAudit:      result.BudgetAudit,
		Fairness:         result.Fairness,
		Utilization:      result.Utilization,
		Diagnostics:      result.Diagnostics,
		Duration:         result.Duration.String(),
	}
	if !resp.Success {
		resp.Message = "本周无可行分配，参见诊断报告"
	}
	return resp
}

// toAppError 把引擎错误规整为应用错误
func toAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, "排程失败")
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}
