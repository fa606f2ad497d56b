// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/internal/rules"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/errors"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/logger"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/stats"
)

// StatsRequest 统计请求
type StatsRequest struct {
	Office      string                     `json:"office"`
	WeekStart   string                     `json:"week_start"`
	Assignments []model.SelectedAssignment `json:"assignments"`
	Partners    []PartnerInput             `json:"partners,omitempty"`
	SlotsByDay  map[string]int             `json:"slots_by_day,omitempty"`
	FleetSize   int                        `json:"fleet_size,omitempty"`
}

// FairnessResponse 公平性响应
type FairnessResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.FairnessMetrics `json:"data,omitempty"`
}

// UtilizationResponse 利用率响应
type UtilizationResponse struct {
	Success bool                      `json:"success"`
	Data    *stats.UtilizationMetrics `json:"data,omitempty"`
}

// GetFairnessHandler 公平性分析API
func GetFairnessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	logger.Debug().
		Str("office", req.Office).
		Int("partners", len(req.Partners)).
		Int("assignments", len(req.Assignments)).
		Msg("接收公平性分析请求")

	infos := make([]*stats.PartnerInfo, 0, len(req.Partners))
	for _, p := range req.Partners {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的合作方ID格式: "+p.ID))
			return
		}
		infos = append(infos, &stats.PartnerInfo{ID: id, Name: p.Name})
	}

	metrics := stats.NewFairnessAnalyzer().Analyze(req.Assignments, infos)
	respondJSON(w, http.StatusOK, FairnessResponse{Success: true, Data: metrics})
}

// GetUtilizationHandler 容量利用率分析API
func GetUtilizationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	metrics := stats.NewUtilizationAnalyzer().Analyze(req.Assignments, req.SlotsByDay, req.FleetSize)
	respondJSON(w, http.StatusOK, UtilizationResponse{Success: true, Data: metrics})
}

// GetConstraintLibraryHandler 约束库目录API
func GetConstraintLibraryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	respondJSON(w, http.StatusOK, rules.LibraryResponse{Library: rules.GetLibrary()})
}
