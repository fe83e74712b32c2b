// Package solver 提供基于约束的排班求解器
package solver

import (
	"fmt"
	"math/rand"
	"time"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
)

// kindIndex 工作班次的稠密索引
func kindIndex(k model.ShiftKind) int {
	switch k {
	case model.ShiftDay:
		return 0
	case model.ShiftSleep:
		return 1
	case model.ShiftMiniNight:
		return 2
	case model.ShiftLateNight:
		return 3
	}
	return -1
}

// cpModel 约束模型与搜索状态。决策张量 kinds[天][员工位置]，
// 员工与日期均用小整数索引，热路径上不做字符串哈希。
type cpModel struct {
	opts *Options

	emps     []model.Employee
	workDays []string
	n        int // 工作日数
	nEmp     int

	anchorIdx int   // 锚点员工（位置0）
	chiefIdxs []int // 主任资质员工位置
	staffIdxs []int // 普通员工位置

	pins        [][]model.ShiftKind // [天][员工] 锁定班次，空串表示未锁定
	anchorCycle []model.ShiftKind   // [天] 锚点循环要求的班次
	lateBlocked [][]bool            // [天][员工] 上月大夜班的跨月最小间隔封锁
	avoidOf     [][]int             // 员工 -> 避让组同伴位置
	prevCounts  [][]int             // [员工][班次] 上月计数

	rng    *rand.Rand
	jitter [][][]int // [天][员工][班次] 随机扰动系数 0..3

	// 搜索状态
	kinds       [][]model.ShiftKind // 当前分配，空串表示未分配
	monthCounts [][]int             // [员工][班次] 当前月计数
}

func newCPModel(p *Problem, opts *Options) (*cpModel, error) {
	emps := p.Roster.Employees()
	n := len(p.WorkDays)

	m := &cpModel{
		opts:      opts,
		emps:      emps,
		workDays:  p.WorkDays,
		n:         n,
		nEmp:      len(emps),
		anchorIdx: 0,
		rng:       rand.New(rand.NewSource(opts.Seed)),
	}

	for i, e := range emps {
		if e.IsChief {
			m.chiefIdxs = append(m.chiefIdxs, i)
		} else {
			m.staffIdxs = append(m.staffIdxs, i)
		}
	}

	// 日期与员工索引
	dayIdx := make(map[string]int, n)
	for i, d := range p.WorkDays {
		dayIdx[d] = i
	}
	empIdx := make(map[string]int, len(emps))
	for i, e := range emps {
		empIdx[e.ID] = i
	}

	// 锁定单元格
	m.pins = makeKindGrid(n, m.nEmp)
	for _, pin := range p.Pins {
		d, okDay := dayIdx[pin.Date]
		e, okEmp := empIdx[pin.EmployeeID]
		if !okDay || !okEmp {
			continue // 非工作日或未知员工的锁定不进入模型
		}
		if !pin.Kind.IsWorking() {
			return nil, apperrors.PinInvalid(fmt.Sprintf("%s 在 %s 锁定为非工作班次 %s", pin.EmployeeID, pin.Date, pin.Kind))
		}
		if e == m.anchorIdx && pin.Kind != model.ShiftDay && pin.Kind != model.ShiftSleep {
			return nil, apperrors.PinInvalid(fmt.Sprintf("锚点员工 %s 只能锁定白班或睡觉班", pin.EmployeeID))
		}
		if existing := m.pins[d][e]; existing != "" && existing != pin.Kind {
			return nil, apperrors.PinInvalid(fmt.Sprintf("%s 在 %s 被锁定为两种班次", pin.EmployeeID, pin.Date))
		}
		m.pins[d][e] = pin.Kind
	}

	// 锚点循环（锁定日不适用，相位仍由历史推导）
	m.anchorCycle = make([]model.ShiftKind, n)
	for i := 0; i < n; i++ {
		m.anchorCycle[i] = p.History.AnchorKindAt(i)
	}

	// 上月大夜班的跨月封锁（按自然日间隔）
	m.lateBlocked = make([][]bool, n)
	for d := range m.lateBlocked {
		m.lateBlocked[d] = make([]bool, m.nEmp)
	}
	for id, lastDate := range p.History.LastLateNight {
		e, ok := empIdx[id]
		if !ok {
			continue
		}
		last, err := time.Parse("2006-01-02", lastDate)
		if err != nil {
			continue
		}
		for d, date := range p.WorkDays {
			t, err := time.Parse("2006-01-02", date)
			if err != nil {
				continue
			}
			if int(t.Sub(last).Hours()/24) <= lateMinGap {
				m.lateBlocked[d][e] = true
			}
		}
	}

	// 避让组同伴
	m.avoidOf = make([][]int, m.nEmp)
	for _, pair := range model.AvoidancePairs(p.AvoidanceGroups) {
		a, okA := empIdx[pair[0]]
		b, okB := empIdx[pair[1]]
		if !okA || !okB {
			continue
		}
		m.avoidOf[a] = append(m.avoidOf[a], b)
		m.avoidOf[b] = append(m.avoidOf[b], a)
	}

	// 上月计数
	m.prevCounts = make([][]int, m.nEmp)
	for i, e := range emps {
		m.prevCounts[i] = make([]int, 4)
		for _, kind := range model.WorkingShiftKinds {
			m.prevCounts[i][kindIndex(kind)] = p.History.PrevCount(e.ID, kind)
		}
	}

	// 随机扰动系数
	m.jitter = make([][][]int, n)
	for d := 0; d < n; d++ {
		m.jitter[d] = make([][]int, m.nEmp)
		for e := 0; e < m.nEmp; e++ {
			m.jitter[d][e] = make([]int, 4)
			for k := 0; k < 4; k++ {
				m.jitter[d][e][k] = m.rng.Intn(4)
			}
		}
	}

	m.kinds = makeKindGrid(n, m.nEmp)
	m.monthCounts = make([][]int, m.nEmp)
	for e := range m.monthCounts {
		m.monthCounts[e] = make([]int, 4)
	}

	return m, nil
}

func makeKindGrid(n, nEmp int) [][]model.ShiftKind {
	grid := make([][]model.ShiftKind, n)
	for d := range grid {
		grid[d] = make([]model.ShiftKind, nEmp)
	}
	return grid
}

// precheck 在搜索前做传播检查，尽早报告结构性不可行
func (m *cpModel) precheck() error {
	if m.nEmp != model.TotalHeadcount {
		return apperrors.Infeasible(fmt.Sprintf("定员要求恰好%d人，实际%d人", model.TotalHeadcount, m.nEmp))
	}

	for d := 0; d < m.n; d++ {
		date := m.workDays[d]

		// 各班次锁定人数不得超过定员
		pinCount := make(map[model.ShiftKind]int)
		for e := 0; e < m.nEmp; e++ {
			if k := m.pins[d][e]; k != "" {
				pinCount[k]++
			}
		}
		for _, kind := range model.WorkingShiftKinds {
			if pinCount[kind] > model.ShiftHeadcount[kind] {
				return apperrors.Infeasible(fmt.Sprintf("%s %s锁定%d人，超过定员%d人", date, kind.Name(), pinCount[kind], model.ShiftHeadcount[kind]))
			}
		}

		// 每个夜班恰好一名主任：锁定不得挤占或掏空主任席
		chiefDayPins := 0
		for _, kind := range model.NightShiftKinds {
			pinnedChiefs := 0
			available := 0
			for _, c := range m.chiefIdxs {
				pin := m.pins[d][c]
				if pin == kind {
					pinnedChiefs++
				}
				if c == m.anchorIdx {
					// 锚点只可能占据睡觉班主任席
					anchorKind := pin
					if anchorKind == "" {
						anchorKind = m.anchorCycle[d]
					}
					if kind == model.ShiftSleep && anchorKind == model.ShiftSleep {
						available++
					}
					continue
				}
				if pin == "" || pin == kind {
					available++
				}
			}
			if pinnedChiefs > 1 {
				return apperrors.Infeasible(fmt.Sprintf("%s %s被锁定了%d名主任，主任席只有1个", date, kind.Name(), pinnedChiefs))
			}
			// 锚点按循环在睡觉班时，其他主任不得再锁定进睡觉班
			if kind == model.ShiftSleep && pinnedChiefs == 1 &&
				m.pins[d][m.anchorIdx] == "" && m.anchorCycle[d] == model.ShiftSleep {
				return apperrors.Infeasible(fmt.Sprintf("%s 锚点员工按循环上睡觉班，不能再锁定其他主任进睡觉班", date))
			}
			if available == 0 {
				return apperrors.Infeasible(fmt.Sprintf("%s %s没有可用的主任席人选", date, kind.Name()))
			}
		}
		for _, c := range m.chiefIdxs {
			if m.pins[d][c] == model.ShiftDay {
				chiefDayPins++
			}
		}
		if chiefDayPins > 3 {
			return apperrors.Infeasible(fmt.Sprintf("%s 有%d名主任被锁定白班，夜班主任席将无人可用", date, chiefDayPins))
		}

		// 避让组同伴不得被锁定进锚点当天的循环班次
		anchorKind := m.pins[d][m.anchorIdx]
		if anchorKind == "" {
			anchorKind = m.anchorCycle[d]
		}
		for _, b := range m.avoidOf[m.anchorIdx] {
			if m.pins[d][b] == anchorKind {
				return apperrors.Infeasible(fmt.Sprintf("%s %s 被锁定进锚点员工当天的%s，违反避让组", date, m.emps[b].Name, anchorKind.Name()))
			}
		}

		// 避让组成员不得被锁定进同一班次
		for a := 0; a < m.nEmp; a++ {
			ka := m.pins[d][a]
			if ka == "" {
				continue
			}
			for _, b := range m.avoidOf[a] {
				if b > a && m.pins[d][b] == ka {
					return apperrors.Infeasible(fmt.Sprintf("%s 避让组成员 %s 与 %s 被锁定进同一%s", date, m.emps[a].Name, m.emps[b].Name, ka.Name()))
				}
			}
		}
	}

	// 同一员工的锁定之间的间隔冲突
	for e := 0; e < m.nEmp; e++ {
		lastLate, lastMini := -10, -10
		for d := 0; d < m.n; d++ {
			switch m.pins[d][e] {
			case model.ShiftLateNight:
				if d-lastLate <= lateMinGap {
					return apperrors.Infeasible(fmt.Sprintf("%s 的两个大夜班锁定间隔不足%d个工作日", m.emps[e].Name, lateMinGap))
				}
				if m.lateBlocked[d][e] {
					return apperrors.Infeasible(fmt.Sprintf("%s 在 %s 锁定大夜班，与上月末的大夜班间隔不足", m.emps[e].Name, m.workDays[d]))
				}
				lastLate = d
			case model.ShiftMiniNight:
				if d-lastMini == 1 {
					return apperrors.Infeasible(fmt.Sprintf("%s 被锁定连续两个小夜班", m.emps[e].Name))
				}
				lastMini = d
			}
		}
	}

	return nil
}

// place / unplace 维护分配与计数
func (m *cpModel) place(d, e int, k model.ShiftKind) {
	m.kinds[d][e] = k
	m.monthCounts[e][kindIndex(k)]++
}

func (m *cpModel) clearDay(d int) {
	for e := 0; e < m.nEmp; e++ {
		if k := m.kinds[d][e]; k != "" {
			m.monthCounts[e][kindIndex(k)]--
			m.kinds[d][e] = ""
		}
	}
}

// lastLateBefore 返回员工在 d 之前最近一次大夜班的索引，没有返回 -10
func (m *cpModel) lastLateBefore(e, d int) int {
	for i := d - 1; i >= 0; i-- {
		if m.kinds[i][e] == model.ShiftLateNight {
			return i
		}
	}
	return -10
}

// chiefDayPairs 统计主任当前月的两连白班次数
func (m *cpModel) chiefDayPairs(e int) int {
	pairs := 0
	for d := 0; d+1 < m.n; d++ {
		if m.kinds[d][e] == model.ShiftDay && m.kinds[d+1][e] == model.ShiftDay {
			pairs++
		}
	}
	return pairs
}

// eligible 构造阶段的资格检查（只看已排的过去几天）
func (m *cpModel) eligible(e, d int, k model.ShiftKind) bool {
	if pin := m.pins[d][e]; pin != "" && pin != k {
		return false
	}
	if e == m.anchorIdx && k != model.ShiftDay && k != model.ShiftSleep {
		return false
	}

	switch k {
	case model.ShiftLateNight:
		if m.lateBlocked[d][e] {
			return false
		}
		for i := d - 1; i >= 0 && i >= d-lateMinGap; i-- {
			if m.kinds[i][e] == model.ShiftLateNight {
				return false
			}
		}
		// 往后看锁定：不得与未来锁定的大夜班挤进最小间隔
		for i := d + 1; i <= d+lateMinGap && i < m.n; i++ {
			if m.pins[i][e] == model.ShiftLateNight {
				return false
			}
		}
	case model.ShiftMiniNight:
		if d > 0 && m.kinds[d-1][e] == model.ShiftMiniNight {
			return false
		}
		if d+1 < m.n && m.pins[d+1][e] == model.ShiftMiniNight {
			return false
		}
	case model.ShiftDay:
		if d > 0 && m.kinds[d-1][e] == model.ShiftDay {
			if !m.emps[e].IsChief {
				return false // 普通员工绝不连续白班
			}
			if d > 1 && m.kinds[d-2][e] == model.ShiftDay {
				return false // 主任不允许三连白班
			}
			if m.chiefDayPairs(e) >= chiefDayPairCap {
				return false // 主任每月两连白班次数封顶
			}
		}
		if !m.emps[e].IsChief {
			if d+1 < m.n && m.pins[d+1][e] == model.ShiftDay {
				return false
			}
		} else if d+2 < m.n && m.pins[d+1][e] == model.ShiftDay && m.pins[d+2][e] == model.ShiftDay {
			return false
		}
	}

	// 任意4个连续工作日内夜班不超过3个
	if k.IsNight() {
		if d >= 3 {
			allNight := true
			for i := d - 3; i < d; i++ {
				if !m.kinds[i][e].IsNight() {
					allNight = false
					break
				}
			}
			if allNight {
				return false
			}
		}
		// 往后看锁定：后3天全被锁定为夜班时不得再排夜班
		if d+3 < m.n &&
			m.pins[d+1][e].IsNight() && m.pins[d+2][e].IsNight() && m.pins[d+3][e].IsNight() {
			return false
		}
	}

	// 避让组：同伴当天不得在同一班次
	for _, p := range m.avoidOf[e] {
		if m.kinds[d][p] == k {
			return false
		}
	}

	return true
}

// rowOK 退火阶段的双向检查：员工 e 第 d 天的班次在其前后文中是否合法
func (m *cpModel) rowOK(e, d int) bool {
	k := m.kinds[d][e]

	switch k {
	case model.ShiftLateNight:
		if m.lateBlocked[d][e] {
			return false
		}
		for i := d - lateMinGap; i <= d+lateMinGap; i++ {
			if i == d || i < 0 || i >= m.n {
				continue
			}
			if m.kinds[i][e] == model.ShiftLateNight {
				return false
			}
		}
	case model.ShiftMiniNight:
		if d > 0 && m.kinds[d-1][e] == model.ShiftMiniNight {
			return false
		}
		if d+1 < m.n && m.kinds[d+1][e] == model.ShiftMiniNight {
			return false
		}
	case model.ShiftDay:
		prev := d > 0 && m.kinds[d-1][e] == model.ShiftDay
		next := d+1 < m.n && m.kinds[d+1][e] == model.ShiftDay
		if !m.emps[e].IsChief {
			if prev || next {
				return false
			}
		} else {
			// 三连白班禁止
			for start := d - 2; start <= d; start++ {
				if start < 0 || start+2 >= m.n {
					continue
				}
				if m.kinds[start][e] == model.ShiftDay &&
					m.kinds[start+1][e] == model.ShiftDay &&
					m.kinds[start+2][e] == model.ShiftDay {
					return false
				}
			}
			if m.chiefDayPairs(e) > chiefDayPairCap {
				return false
			}
		}
	}

	// 夜班窗口
	if k.IsNight() {
		for start := d - 3; start <= d; start++ {
			if start < 0 || start+3 >= m.n {
				continue
			}
			nights := 0
			for i := start; i <= start+3; i++ {
				if m.kinds[i][e].IsNight() {
					nights++
				}
			}
			if nights > 3 {
				return false
			}
		}
	}

	// 避让
	for _, p := range m.avoidOf[e] {
		if m.kinds[d][p] == k {
			return false
		}
	}

	return true
}

// twoMonthCount 两月累计计数（用于构造阶段的公平性启发）
func (m *cpModel) twoMonthCount(e int, k model.ShiftKind) int {
	idx := kindIndex(k)
	return m.monthCounts[e][idx] + m.prevCounts[e][idx]
}
