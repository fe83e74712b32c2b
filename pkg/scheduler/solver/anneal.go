// Package solver 提供基于约束的排班求解器
package solver

import (
	"context"
	"math"
	"time"

	"github.com/lunban/lunban/pkg/model"
)

// 模拟退火参数
const (
	initialTemp = 800.0
	coolingRate = 0.9995
)

// anneal 在可行解上做模拟退火：随机选某天的两名同类员工（主任对主任、
// 普通对普通）对调班次，保持全部硬约束，最小化加权软惩罚。
// 返回实际迭代次数。
func (m *cpModel) anneal(ctx context.Context, deadline time.Time) int {
	best := cloneGrid(m.kinds)
	bestScore, _ := m.objective()
	curScore := bestScore
	temp := initialTemp

	iterations := 0
	for i := 0; i < m.opts.MaxIterations; i++ {
		if i%256 == 0 && (ctx.Err() != nil || time.Now().After(deadline)) {
			break
		}
		iterations++
		temp *= coolingRate

		d := m.rng.Intn(m.n)
		var pool []int
		if m.rng.Intn(2) == 0 {
			pool = m.chiefIdxs
		} else {
			pool = m.staffIdxs
		}
		if len(pool) < 2 {
			continue
		}
		e1 := pool[m.rng.Intn(len(pool))]
		e2 := pool[m.rng.Intn(len(pool))]
		if e1 == e2 || e1 == m.anchorIdx || e2 == m.anchorIdx {
			continue
		}
		if m.pins[d][e1] != "" || m.pins[d][e2] != "" {
			continue
		}
		k1, k2 := m.kinds[d][e1], m.kinds[d][e2]
		if k1 == k2 {
			continue
		}

		m.swap(d, e1, e2)
		if !m.rowOK(e1, d) || !m.rowOK(e2, d) {
			m.swap(d, e1, e2)
			continue
		}

		newScore, _ := m.objective()
		delta := float64(newScore - curScore)
		if delta <= 0 || m.rng.Float64() < math.Exp(-delta/temp) {
			curScore = newScore
			if curScore < bestScore {
				bestScore = curScore
				best = cloneGrid(m.kinds)
			}
		} else {
			m.swap(d, e1, e2)
		}
	}

	m.restoreGrid(best)
	return iterations
}

// swap 交换某天两名员工的班次并维护计数
func (m *cpModel) swap(d, e1, e2 int) {
	k1, k2 := m.kinds[d][e1], m.kinds[d][e2]
	m.kinds[d][e1], m.kinds[d][e2] = k2, k1
	m.monthCounts[e1][kindIndex(k1)]--
	m.monthCounts[e1][kindIndex(k2)]++
	m.monthCounts[e2][kindIndex(k2)]--
	m.monthCounts[e2][kindIndex(k1)]++
}

// objective 计算当前分配的加权软惩罚目标值与分项
func (m *cpModel) objective() (int64, PenaltyBreakdown) {
	var b PenaltyBreakdown

	// 主任连续白班（锚点有固定循环，不参与）
	for _, c := range m.chiefIdxs {
		if c == m.anchorIdx {
			continue
		}
		for d := 0; d+1 < m.n; d++ {
			if m.kinds[d][c] == model.ShiftDay && m.kinds[d+1][c] == model.ShiftDay {
				b.LeaderDayPairs++
			}
		}
	}

	// 大夜班最大间隔：某天上大夜后，其后 maxGap+1 个工作日内应再排到一次
	for e := 0; e < m.nEmp; e++ {
		maxGap := lateMaxGapStaff
		if m.emps[e].IsChief {
			maxGap = lateMaxGapChief
		}
		for d := 0; d < m.n; d++ {
			if m.kinds[d][e] != model.ShiftLateNight {
				continue
			}
			end := d + maxGap + 2
			if end > m.n {
				end = m.n
			}
			if end-d < 2 {
				continue
			}
			found := false
			for i := d + 1; i < end; i++ {
				if m.kinds[i][e] == model.ShiftLateNight {
					found = true
					break
				}
			}
			if !found {
				b.LateGap++
			}
		}
	}

	// 白班最大间隔：任意4个连续工作日应至少有1个白班（锚点除外）
	for e := 0; e < m.nEmp; e++ {
		if e == m.anchorIdx {
			continue
		}
		for d := 0; d+3 < m.n; d++ {
			hasDay := false
			for i := d; i <= d+3; i++ {
				if m.kinds[i][e] == model.ShiftDay {
					hasDay = true
					break
				}
			}
			if !hasDay {
				b.DayGap++
			}
		}
	}

	// 两月班次极差，普通员工与主任（锚点除外）分组计算
	b.Spread += m.cohortSpread(m.staffIdxs)
	var chiefCohort []int
	for _, c := range m.chiefIdxs {
		if c != m.anchorIdx {
			chiefCohort = append(chiefCohort, c)
		}
	}
	b.Spread += m.cohortSpread(chiefCohort)

	// 随机扰动（打破对称，使不同种子产出不同的等优方案）
	for d := 0; d < m.n; d++ {
		for e := 0; e < m.nEmp; e++ {
			if k := m.kinds[d][e]; k != "" {
				b.Jitter += int64(m.jitter[d][e][kindIndex(k)])
			}
		}
	}

	total := int64(weightLeaderDayPair)*int64(b.LeaderDayPairs) +
		int64(weightLateGap)*int64(b.LateGap) +
		int64(weightDayGap)*int64(b.DayGap) +
		int64(weightSpread)*int64(b.Spread) +
		b.Jitter
	return total, b
}

// cohortSpread 组内各班次两月计数的极差之和
func (m *cpModel) cohortSpread(cohort []int) int {
	if len(cohort) < 2 {
		return 0
	}
	spread := 0
	for k := 0; k < 4; k++ {
		min, max := 1<<30, -1
		for _, e := range cohort {
			total := m.monthCounts[e][k] + m.prevCounts[e][k]
			if total < min {
				min = total
			}
			if total > max {
				max = total
			}
		}
		spread += max - min
	}
	return spread
}

func cloneGrid(grid [][]model.ShiftKind) [][]model.ShiftKind {
	out := make([][]model.ShiftKind, len(grid))
	for i := range grid {
		out[i] = make([]model.ShiftKind, len(grid[i]))
		copy(out[i], grid[i])
	}
	return out
}

// restoreGrid 恢复到指定分配并重建计数
func (m *cpModel) restoreGrid(grid [][]model.ShiftKind) {
	m.kinds = grid
	for e := 0; e < m.nEmp; e++ {
		for k := 0; k < 4; k++ {
			m.monthCounts[e][k] = 0
		}
	}
	for d := 0; d < m.n; d++ {
		for e := 0; e < m.nEmp; e++ {
			if k := m.kinds[d][e]; k != "" {
				m.monthCounts[e][kindIndex(k)]++
			}
		}
	}
}
