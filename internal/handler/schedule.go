// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/calendar"
	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/export"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler"
	"github.com/lunban/lunban/pkg/swap"
	"github.com/lunban/lunban/pkg/validator"
)

// ScheduleHandler 排班处理器。仓储为 nil 时以无库模式运行，
// 历史排班与锚点配置完全依赖请求体。
type ScheduleHandler struct {
	engine       *scheduler.Engine
	scheduleRepo *repository.ScheduleRepository
	configRepo   *repository.SystemConfigRepository
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(engine *scheduler.Engine, scheduleRepo *repository.ScheduleRepository, configRepo *repository.SystemConfigRepository) *ScheduleHandler {
	return &ScheduleHandler{engine: engine, scheduleRepo: scheduleRepo, configRepo: configRepo}
}

// Generate 生成整月排班
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req scheduler.Request
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	ctx := r.Context()
	h.applyStoredConfig(ctx, &req)

	start := time.Now()
	resp, err := h.engine.Generate(ctx, &req)

	reg := metrics.Get()
	if err != nil {
		reg.Counter("lunban_schedule_generation_total").Inc(`status="error"`)
		respondError(w, err)
		return
	}
	reg.Counter("lunban_schedule_generation_total").Inc(`status="ok"`)
	reg.Histogram("lunban_schedule_generation_duration_seconds").ObserveDuration("", time.Since(start))
	reg.Gauge("lunban_fairness_score").Set("", float64(resp.Statistics.FairnessScore))

	respondJSON(w, http.StatusOK, resp)
}

// applyStoredConfig 从库中补齐请求缺省项：锚点配置、首个工作日覆盖与上月排班
func (h *ScheduleHandler) applyStoredConfig(ctx context.Context, req *scheduler.Request) {
	if h.configRepo != nil {
		if req.AnchorDate == "" || req.AnchorGroup == "" {
			if date, group, err := h.configRepo.AnchorConfig(ctx); err == nil {
				if req.AnchorDate == "" {
					req.AnchorDate = date
				}
				if req.AnchorGroup == "" {
					req.AnchorGroup = group
				}
			}
		}
		if req.FirstWorkDayOverride == 0 {
			key := repository.FirstWorkDayKey(req.Month, req.Group)
			if value, err := h.configRepo.Get(ctx, key); err == nil && value != "" {
				fmt.Sscanf(value, "%d", &req.FirstWorkDayOverride)
			}
		}
	}

	if h.scheduleRepo != nil && len(req.PreviousSchedules) == 0 {
		if year, month, err := calendar.ParseMonth(req.Month); err == nil {
			prevYear, prevMonth := year, month-1
			if prevMonth == 0 {
				prevYear, prevMonth = year-1, 12
			}
			if prev, err := h.scheduleRepo.MonthSchedules(ctx, prevYear, prevMonth, req.Group); err == nil {
				req.PreviousSchedules = prev
			}
		}
	}
}

// ValidateRequest 整月校验请求
type ValidateRequest struct {
	Employees       []model.Employee       `json:"employees"`
	AvoidanceGroups []model.AvoidanceGroup `json:"avoidance_groups,omitempty"`
	Schedules       []model.DaySchedule    `json:"schedules"`
}

// ValidateResponse 校验响应
type ValidateResponse struct {
	IsValid    bool                  `json:"is_valid"`
	Violations []validator.Violation `json:"violations"`
}

// Validate 校验整月排班
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ValidateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if len(req.Employees) == 0 {
		respondError(w, apperrors.InvalidInput("employees", "员工列表不能为空"))
		return
	}

	roster := model.NewRoster(req.Employees)
	violations := validator.New(roster, req.AvoidanceGroups).ValidateMonth(req.Schedules)
	if violations == nil {
		violations = []validator.Violation{}
	}
	metrics.Get().Counter("lunban_validation_violations_total").Add("", float64(len(violations)))

	respondJSON(w, http.StatusOK, ValidateResponse{
		IsValid:    len(violations) == 0,
		Violations: violations,
	})
}

// SuggestRequest 修复建议请求
type SuggestRequest struct {
	Employees       []model.Employee         `json:"employees"`
	AvoidanceGroups []model.AvoidanceGroup   `json:"avoidance_groups,omitempty"`
	Schedules       []model.DaySchedule      `json:"schedules"`
	Pins            []model.PinnedAssignment `json:"pinned,omitempty"`
	Violation       validator.Violation      `json:"violation"`
	Today           string                   `json:"today,omitempty"` // 为空时默认当天
}

// SuggestResponse 修复建议响应，无可行建议时 suggestion 为 null
type SuggestResponse struct {
	Suggestion *swap.Suggestion `json:"suggestion"`
}

// Suggest 针对单条冲突给出局部修复建议
func (h *ScheduleHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req SuggestRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if len(req.Employees) == 0 {
		respondError(w, apperrors.InvalidInput("employees", "员工列表不能为空"))
		return
	}

	today := req.Today
	if today == "" {
		today = time.Now().Format("2006-01-02")
	}

	roster := model.NewRoster(req.Employees)
	recommender := swap.NewRecommender(roster, req.AvoidanceGroups, req.Pins, today)
	suggestion := recommender.Suggest(req.Violation, req.Schedules)

	respondJSON(w, http.StatusOK, SuggestResponse{Suggestion: suggestion})
}

// WorkDays 查询某月某组的工作日
func (h *ScheduleHandler) WorkDays(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	group := r.URL.Query().Get("group_id")

	year, monthNum, err := calendar.ParseMonth(month)
	if err != nil {
		respondError(w, apperrors.InvalidInput("month", "格式应为 YYYY-MM"))
		return
	}
	if calendar.GroupOffset(group) < 0 {
		respondError(w, apperrors.InvalidInput("group_id", "组别应为 A/B/C"))
		return
	}

	ctx := r.Context()
	anchorDate, anchorGroup := calendar.DefaultAnchorDate, calendar.DefaultAnchorGroup
	firstWorkDay := 0
	if h.configRepo != nil {
		if date, g, err := h.configRepo.AnchorConfig(ctx); err == nil {
			anchorDate, anchorGroup = date, g
		}
		if value, err := h.configRepo.Get(ctx, repository.FirstWorkDayKey(month, group)); err == nil && value != "" {
			fmt.Sscanf(value, "%d", &firstWorkDay)
		}
	}

	var workDays []string
	if firstWorkDay > 0 {
		workDays = calendar.WorkDaysFromFirstDay(year, monthNum, firstWorkDay)
	} else {
		cal, calErr := calendar.New(anchorDate, anchorGroup)
		if calErr != nil {
			respondError(w, apperrors.InvalidInput("anchor_date", calErr.Error()))
			return
		}
		workDays = cal.WorkDaysInMonth(year, monthNum, group)
	}
	if len(workDays) == 0 {
		respondError(w, apperrors.CalendarEmpty(month, group))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"month":     month,
		"group_id":  group,
		"work_days": workDays,
	})
}

// ExportRequest 导出请求
type ExportRequest struct {
	Month     string              `json:"month"`
	Group     string              `json:"group_id"`
	Employees []model.Employee    `json:"employees"`
	Schedules []model.DaySchedule `json:"schedules"`
}

// Export 导出整月排班为Excel
func (h *ScheduleHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ExportRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	buf, err := export.ToExcel(req.Month, req.Group, req.Schedules, req.Employees)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInternal, "导出失败"))
		return
	}

	filename := fmt.Sprintf("schedule_%s_%s.xlsx", req.Month, req.Group)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// SaveRequest 保存排班请求
type SaveRequest struct {
	Month     string              `json:"month"`
	Group     string              `json:"group_id"`
	Schedules []model.DaySchedule `json:"schedules"`
}

// Save 保存整月排班
func (h *ScheduleHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.scheduleRepo == nil {
		respondError(w, apperrors.New(apperrors.CodeDatabaseError, "未连接数据库，无法保存"))
		return
	}

	var req SaveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	saved, err := h.scheduleRepo.SaveMonth(r.Context(), req.Group, req.Schedules)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     fmt.Sprintf("已保存 %s %s组排班", req.Month, req.Group),
		"saved_count": saved,
	})
}

// SetFirstWorkDayRequest 设置首个工作日请求
type SetFirstWorkDayRequest struct {
	Month        string `json:"month"`
	Group        string `json:"group_id"`
	FirstWorkDay int    `json:"first_work_day"`
}

// SetFirstWorkDay 设置某月某组的首个工作日覆盖
func (h *ScheduleHandler) SetFirstWorkDay(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.configRepo == nil {
		respondError(w, apperrors.New(apperrors.CodeDatabaseError, "未连接数据库，无法保存配置"))
		return
	}

	var req SetFirstWorkDayRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	year, monthNum, err := calendar.ParseMonth(req.Month)
	if err != nil {
		respondError(w, apperrors.InvalidInput("month", "格式应为 YYYY-MM"))
		return
	}
	workDays := calendar.WorkDaysFromFirstDay(year, monthNum, req.FirstWorkDay)
	if len(workDays) == 0 {
		respondError(w, apperrors.InvalidInput("first_work_day", "不在该月范围内"))
		return
	}

	key := repository.FirstWorkDayKey(req.Month, req.Group)
	if err := h.configRepo.Set(r.Context(), key, fmt.Sprintf("%d", req.FirstWorkDay), "首个工作日覆盖"); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    fmt.Sprintf("成功设置 %s %s组首个工作日为 %d 日", req.Month, req.Group, req.FirstWorkDay),
		"work_days":  workDays,
		"config_key": key,
	})
}
