// Package scheduler 排班引擎编排：日历 -> 历史投影 -> 约束求解 -> 结果提取
package scheduler

import (
	"context"
	"time"

	"github.com/lunban/lunban/pkg/calendar"
	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/history"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/solver"
	"github.com/lunban/lunban/pkg/stats"
)

// Request 排班生成请求。Employees 的顺序即显示顺序，位置0为锚点员工。
type Request struct {
	Month                string                   `json:"month"`    // YYYY-MM
	Group                string                   `json:"group_id"` // A/B/C
	Employees            []model.Employee         `json:"employees"`
	AvoidanceGroups      []model.AvoidanceGroup   `json:"avoidance_groups,omitempty"`
	Pins                 []model.PinnedAssignment `json:"pinned,omitempty"`
	PreviousSchedules    []model.DaySchedule      `json:"previous_month_schedule,omitempty"`
	FirstWorkDayOverride int                      `json:"first_work_day_override,omitempty"`
	Seed                 int64                    `json:"seed,omitempty"` // 0 表示由引擎抽取
	AnchorDate           string                   `json:"anchor_date,omitempty"`
	AnchorGroup          string                   `json:"anchor_group,omitempty"`
}

// Response 排班生成响应
type Response struct {
	Month      string              `json:"month"`
	Group      string              `json:"group_id"`
	WorkDays   []string            `json:"work_days"`
	Schedules  []model.DaySchedule `json:"schedules"`
	Statistics *model.Statistics   `json:"statistics"`
}

// Engine 排班引擎。单次调用单次求解，调用之间不保留可变状态。
type Engine struct {
	opts *solver.Options
	log  *logger.SchedulerLogger
}

// NewEngine 创建排班引擎
func NewEngine(opts *solver.Options) *Engine {
	if opts == nil {
		opts = solver.DefaultOptions()
	}
	return &Engine{opts: opts, log: logger.NewSchedulerLogger()}
}

// Generate 生成整月排班。错误均为结构化的 *errors.AppError。
func (e *Engine) Generate(ctx context.Context, req *Request) (*Response, error) {
	year, month, err := calendar.ParseMonth(req.Month)
	if err != nil {
		return nil, apperrors.InvalidInput("month", "格式应为 YYYY-MM")
	}
	if calendar.GroupOffset(req.Group) < 0 {
		return nil, apperrors.InvalidInput("group_id", "组别应为 A/B/C")
	}

	workDays, aerr := e.resolveWorkDays(year, month, req)
	if aerr != nil {
		return nil, aerr
	}

	if len(req.Employees) < model.TotalHeadcount {
		return nil, apperrors.RosterTooSmall(len(req.Employees))
	}
	roster := model.NewRoster(req.Employees)

	proj := history.Project(req.PreviousSchedules, roster)

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := *e.opts
	opts.Seed = seed

	e.log.StartSolve(req.Month, req.Group, roster.Size(), len(workDays), seed)

	result, err := solver.New(&opts).Solve(ctx, &solver.Problem{
		Roster:          roster,
		WorkDays:        workDays,
		AvoidanceGroups: req.AvoidanceGroups,
		Pins:            req.Pins,
		History:         proj,
	})
	if err != nil {
		e.log.SolveFailed(req.Month, req.Group, err)
		return nil, err
	}

	schedules, counts := extract(roster, workDays, result.Assignment)
	statistics := stats.Compute(roster, workDays, counts, proj.PrevCounts, proj.HasPrevious, result.Seed)

	e.log.SolveComplete(req.Month, req.Group, result.Duration, result.Objective, statistics.FairnessScore)

	return &Response{
		Month:      req.Month,
		Group:      req.Group,
		WorkDays:   workDays,
		Schedules:  schedules,
		Statistics: statistics,
	}, nil
}

// resolveWorkDays 计算工作日：优先使用人工设定的首个工作日，否则按锚点公式
func (e *Engine) resolveWorkDays(year, month int, req *Request) ([]string, *apperrors.AppError) {
	if req.FirstWorkDayOverride > 0 {
		workDays := calendar.WorkDaysFromFirstDay(year, month, req.FirstWorkDayOverride)
		if len(workDays) == 0 {
			return nil, apperrors.CalendarEmpty(req.Month, req.Group)
		}
		return workDays, nil
	}

	anchorDate := req.AnchorDate
	anchorGroup := req.AnchorGroup
	if anchorDate == "" {
		anchorDate = calendar.DefaultAnchorDate
	}
	if anchorGroup == "" {
		anchorGroup = calendar.DefaultAnchorGroup
	}
	cal, err := calendar.New(anchorDate, anchorGroup)
	if err != nil {
		return nil, apperrors.InvalidInput("anchor_date", err.Error())
	}

	workDays := cal.WorkDaysInMonth(year, month, req.Group)
	if len(workDays) == 0 {
		return nil, apperrors.CalendarEmpty(req.Month, req.Group)
	}
	return workDays, nil
}
