// Package solver 提供基于约束的排班求解器。
//
// 求解分两个阶段：先用随机化逐日构造（带回退与重启）找到满足全部硬约束的
// 可行解，再用模拟退火在保持硬约束的前提下最小化加权软惩罚目标。
// 给定相同输入与随机种子，结果完全可复现。
package solver

import (
	"context"
	"time"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/history"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
)

// 软惩罚权重：连续 >> 间隔 >> 公平性 >> 随机扰动
const (
	weightLeaderDayPair = 1000 // 主任连续白班
	weightLateGap       = 500  // 大夜班最大间隔超限
	weightDayGap        = 500  // 白班最大间隔超限
	weightSpread        = 200  // 两月班次极差
)

// 班次间隔参数（以工作日为单位）
const (
	lateMinGap      = 3 // 大夜班最小间隔（硬约束）
	lateMaxGapChief = 5 // 主任席大夜班最大间隔（软约束）
	lateMaxGapStaff = 6 // 普通席大夜班最大间隔（软约束）
	dayMaxGap       = 3 // 白班最大间隔（软约束）
	chiefDayPairCap = 3 // 主任每月两连白班次数上限（硬约束）
)

// Options 求解器配置
type Options struct {
	MaxTime       time.Duration // 求解时限
	MaxIterations int           // 退火迭代次数
	MaxRestarts   int           // 构造阶段整月重启次数
	DayRetries    int           // 单日构造重试次数
	Seed          int64         // 随机种子
}

// DefaultOptions 返回默认配置
func DefaultOptions() *Options {
	return &Options{
		MaxTime:       30 * time.Second,
		MaxIterations: 20000,
		MaxRestarts:   12,
		DayRetries:    60,
	}
}

// Problem 求解输入
type Problem struct {
	Roster          *model.Roster
	WorkDays        []string
	AvoidanceGroups []model.AvoidanceGroup
	Pins            []model.PinnedAssignment
	History         *history.Projection
}

// PenaltyBreakdown 目标函数各项取值
type PenaltyBreakdown struct {
	LeaderDayPairs int   `json:"leader_day_pairs"`
	LateGap        int   `json:"late_gap_violations"`
	DayGap         int   `json:"day_gap_violations"`
	Spread         int   `json:"two_month_spread"`
	Jitter         int64 `json:"random_tiebreak"`
}

// Result 求解结果。Assignment 按 [工作日索引][员工显示位置] 给出班次。
type Result struct {
	Assignment [][]model.ShiftKind `json:"assignment"`
	Objective  int64               `json:"objective"`
	Penalties  PenaltyBreakdown    `json:"penalties"`
	Seed       int64               `json:"seed"`
	Duration   time.Duration       `json:"duration"`
	Iterations int                 `json:"iterations"`
}

// Solver 排班求解器
type Solver struct {
	opts *Options
	log  *logger.SchedulerLogger
}

// New 创建求解器
func New(opts *Options) *Solver {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Solver{opts: opts, log: logger.NewSchedulerLogger()}
}

// Solve 求解排班问题。成功时保证所有硬约束成立；
// 失败返回 PIN_INVALID / INFEASIBLE / TIMEOUT 结构化错误。
func (s *Solver) Solve(ctx context.Context, p *Problem) (*Result, error) {
	start := time.Now()

	// 无工作日：返回空排班，不进入搜索
	if len(p.WorkDays) == 0 {
		return &Result{Assignment: nil, Seed: s.opts.Seed, Duration: time.Since(start)}, nil
	}

	m, err := newCPModel(p, s.opts)
	if err != nil {
		return nil, err
	}
	if err := m.precheck(); err != nil {
		return nil, err
	}

	deadline := start.Add(s.opts.MaxTime)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if !m.construct(ctx, deadline) {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return nil, apperrors.Timeout("构造阶段未在时限内找到可行解，可延长时限或放宽锁定")
		}
		return nil, apperrors.Infeasible("硬约束冲突：通常由锁定单元格、避让组与锚点循环相互挤压导致")
	}

	iterations := m.anneal(ctx, deadline)

	objective, breakdown := m.objective()
	return &Result{
		Assignment: m.kinds,
		Objective:  objective,
		Penalties:  breakdown,
		Seed:       s.opts.Seed,
		Duration:   time.Since(start),
		Iterations: iterations,
	}, nil
}
