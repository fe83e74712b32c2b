// Package stats 提供排班统计分析功能
package stats

import (
	"math"

	"github.com/lunban/lunban/pkg/model"
)

// Compute 计算整月统计：本月分布、两月累计分布与公平性得分。
// counts 为本月各员工各班次次数；prev 为上月计数（可为nil）。
func Compute(roster *model.Roster, workDays []string, counts map[string]map[model.ShiftKind]int, prev map[string]map[model.ShiftKind]int, hasPrevious bool, seed int64) *model.Statistics {
	employees := roster.Employees()

	twoMonth := make(map[string]map[model.ShiftKind]int, len(employees))
	for _, e := range employees {
		merged := make(map[model.ShiftKind]int, len(model.WorkingShiftKinds))
		for _, kind := range model.WorkingShiftKinds {
			merged[kind] = counts[e.ID][kind] + prevCount(prev, e.ID, kind)
		}
		twoMonth[e.ID] = merged
	}

	stats := &model.Statistics{
		TotalWorkDays:          len(workDays),
		EmployeeShiftCounts:    counts,
		ShiftDistributions:     Distributions(employees, counts),
		TwoMonthEmployeeCounts: twoMonth,
		TwoMonthDistributions:  Distributions(employees, twoMonth),
		HasPreviousData:        hasPrevious,
		Seed:                   seed,
	}

	// 公平性得分 = 各工作班次两月极差之和，越小越公平
	for _, kind := range model.WorkingShiftKinds {
		stats.FairnessScore += stats.TwoMonthDistributions[kind].Spread
	}
	return stats
}

// Distributions 计算各工作班次在员工间的分布
func Distributions(employees []model.Employee, counts map[string]map[model.ShiftKind]int) map[model.ShiftKind]model.Distribution {
	result := make(map[model.ShiftKind]model.Distribution, len(model.WorkingShiftKinds))
	if len(employees) == 0 {
		return result
	}

	for _, kind := range model.WorkingShiftKinds {
		values := make([]int, len(employees))
		for i, e := range employees {
			values[i] = counts[e.ID][kind]
		}
		result[kind] = distribution(values)
	}
	return result
}

// distribution 计算单组计数的 min/max/avg/std/极差
func distribution(values []int) model.Distribution {
	min, max := values[0], values[0]
	sum := 0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := float64(sum) / float64(len(values))

	return model.Distribution{
		Min:    min,
		Max:    max,
		Avg:    round2(avg),
		StdDev: round2(sampleStdDev(values, avg)),
		Spread: max - min,
	}
}

// sampleStdDev 样本标准差（n-1），单个样本时为0
func sampleStdDev(values []int, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := float64(v) - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// LateNightStdDev 大夜班次数的总体标准差，用于整月公平性检查
func LateNightStdDev(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	sum := 0
	for _, v := range counts {
		sum += v
	}
	mean := float64(sum) / float64(len(counts))
	sumSquares := 0.0
	for _, v := range counts {
		diff := float64(v) - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(counts)))
}

func prevCount(prev map[string]map[model.ShiftKind]int, id string, kind model.ShiftKind) int {
	if prev == nil {
		return 0
	}
	if counts, ok := prev[id]; ok {
		return counts[kind]
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
