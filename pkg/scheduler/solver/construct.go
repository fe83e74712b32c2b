// Package solver 提供基于约束的排班求解器
package solver

import (
	"context"
	"sort"
	"time"

	"github.com/lunban/lunban/pkg/model"
)

// construct 逐日随机化构造可行解：单日失败先原地重试，再回退前一日，
// 预算耗尽后整月重启。返回是否构造成功。
func (m *cpModel) construct(ctx context.Context, deadline time.Time) bool {
	maxBacktracks := 40 * m.n

	for restart := 0; restart <= m.opts.MaxRestarts; restart++ {
		for d := 0; d < m.n; d++ {
			m.clearDay(d)
		}

		d := 0
		backtracks := 0
		for d < m.n {
			if ctx.Err() != nil || time.Now().After(deadline) {
				return false
			}

			built := false
			for try := 0; try < m.opts.DayRetries; try++ {
				if m.buildDay(d) {
					built = true
					break
				}
			}
			if built {
				d++
				continue
			}

			if d == 0 || backtracks >= maxBacktracks {
				break
			}
			backtracks++
			m.clearDay(d)
			m.clearDay(d - 1)
			d--
		}

		if d >= m.n {
			return true
		}
	}
	return false
}

// buildDay 构造单日分配。顺序：锁定 -> 锚点 -> 夜班主任席 ->
// 其余主任补白班 -> 普通员工按席位容量填充（大夜最先，睡觉班兜底）。
func (m *cpModel) buildDay(d int) bool {
	m.clearDay(d)

	// 1) 锁定单元格
	for e := 0; e < m.nEmp; e++ {
		if k := m.pins[d][e]; k != "" {
			m.place(d, e, k)
		}
	}

	// 2) 锚点循环（锁定日以锁定为准）
	if m.kinds[d][m.anchorIdx] == "" {
		m.place(d, m.anchorIdx, m.anchorCycle[d])
	}

	// 3) 夜班主任席：每个夜班恰好一名主任
	for _, kind := range model.NightShiftKinds {
		seated := 0
		for _, c := range m.chiefIdxs {
			if m.kinds[d][c] == kind {
				seated++
			}
		}
		if seated > 1 {
			return false
		}
		if seated == 1 {
			continue
		}

		cands := m.chiefCandidates(d, kind)
		if len(cands) == 0 {
			return false
		}
		m.place(d, m.pick(cands), kind)
	}

	// 4) 其余主任全部补白班
	for _, c := range m.chiefIdxs {
		if m.kinds[d][c] != "" {
			continue
		}
		if !m.eligible(c, d, model.ShiftDay) {
			return false
		}
		m.place(d, c, model.ShiftDay)
	}

	// 5) 剩余席位容量
	seats := make(map[model.ShiftKind]int, 4)
	for _, kind := range model.WorkingShiftKinds {
		seats[kind] = model.ShiftHeadcount[kind]
	}
	for e := 0; e < m.nEmp; e++ {
		if k := m.kinds[d][e]; k != "" {
			seats[k]--
			if seats[k] < 0 {
				return false
			}
		}
	}

	// 6) 连上3天夜班的普通员工必须排白班
	for _, s := range m.staffIdxs {
		if m.kinds[d][s] != "" || !m.mustDay(s, d) {
			continue
		}
		if seats[model.ShiftDay] == 0 || !m.eligible(s, d, model.ShiftDay) {
			return false
		}
		m.place(d, s, model.ShiftDay)
		seats[model.ShiftDay]--
	}

	// 7) 大夜、小夜、白班依次填充，睡觉班兜底
	for _, kind := range []model.ShiftKind{model.ShiftLateNight, model.ShiftMiniNight, model.ShiftDay} {
		for seats[kind] > 0 {
			cands := m.staffCandidates(d, kind)
			if len(cands) == 0 {
				return false
			}
			m.place(d, m.pick(cands), kind)
			seats[kind]--
		}
	}
	for _, s := range m.staffIdxs {
		if m.kinds[d][s] != "" {
			continue
		}
		if seats[model.ShiftSleep] == 0 || !m.eligible(s, d, model.ShiftSleep) {
			return false
		}
		m.place(d, s, model.ShiftSleep)
		seats[model.ShiftSleep]--
	}

	return seats[model.ShiftSleep] == 0
}

// mustDay 前3个工作日全为夜班时，当天只能排白班
func (m *cpModel) mustDay(e, d int) bool {
	if d < 3 {
		return false
	}
	for i := d - 3; i < d; i++ {
		if !m.kinds[i][e].IsNight() {
			return false
		}
	}
	return true
}

// chiefCandidates 夜班主任席候选：优先排不了白班的主任，
// 其次按两月该班次计数升序（公平性启发），随机打破平手。
func (m *cpModel) chiefCandidates(d int, kind model.ShiftKind) []int {
	var cands []int
	for _, c := range m.chiefIdxs {
		if c == m.anchorIdx || m.kinds[d][c] != "" {
			continue
		}
		if m.eligible(c, d, kind) {
			cands = append(cands, c)
		}
	}
	m.rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		aDay := m.eligible(a, d, model.ShiftDay)
		bDay := m.eligible(b, d, model.ShiftDay)
		if aDay != bDay {
			return !aDay // 排不了白班的先占夜班席
		}
		return m.twoMonthCount(a, kind) < m.twoMonthCount(b, kind)
	})
	return cands
}

// staffCandidates 普通员工候选：大夜班按距上次大夜的间隔降序（越久越优先），
// 其余按两月计数升序，随机打破平手。
func (m *cpModel) staffCandidates(d int, kind model.ShiftKind) []int {
	var cands []int
	for _, s := range m.staffIdxs {
		if m.kinds[d][s] != "" {
			continue
		}
		if m.eligible(s, d, kind) {
			cands = append(cands, s)
		}
	}
	m.rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
	if kind == model.ShiftLateNight {
		sort.SliceStable(cands, func(i, j int) bool {
			a, b := cands[i], cands[j]
			ua := d - m.lastLateBefore(a, d)
			ub := d - m.lastLateBefore(b, d)
			if ua != ub {
				return ua > ub
			}
			return m.twoMonthCount(a, kind) < m.twoMonthCount(b, kind)
		})
	} else {
		sort.SliceStable(cands, func(i, j int) bool {
			return m.twoMonthCount(cands[i], kind) < m.twoMonthCount(cands[j], kind)
		})
	}
	return cands
}

// pick 以较大概率取首选，偶尔取次选，保证搜索的多样性
func (m *cpModel) pick(cands []int) int {
	if len(cands) > 1 && m.rng.Intn(4) == 0 {
		return cands[1]
	}
	return cands[0]
}
