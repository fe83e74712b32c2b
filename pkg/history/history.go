// Package history 从上月排班中提取跨月延续信息
package history

import (
	"sort"

	"github.com/lunban/lunban/pkg/model"
)

// Projection 上月排班的投影：锚点员工的循环相位、各人班次计数、
// 以及每人最后一次大夜班的日期
type Projection struct {
	AnchorPhaseOffset int                                  // 新月首个工作日在1白2睡循环中的位置 {0,1,2}
	PrevCounts        map[string]map[model.ShiftKind]int   // 员工 -> 班次 -> 上月次数
	LastLateNight     map[string]string                    // 员工 -> 最后一次大夜班日期
	HasPrevious       bool
}

// Project 投影上月排班。prev 可为空（无历史），按日期升序处理。
// 上月数据中缺少锚点员工时按无历史处理（相位0）。
func Project(prev []model.DaySchedule, roster *model.Roster) *Projection {
	p := &Projection{
		PrevCounts:    make(map[string]map[model.ShiftKind]int),
		LastLateNight: make(map[string]string),
		HasPrevious:   len(prev) > 0,
	}
	if len(prev) == 0 {
		return p
	}

	sorted := make([]model.DaySchedule, len(prev))
	copy(sorted, prev)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	for _, day := range sorted {
		for _, rec := range day.Records {
			if rec.Kind == model.ShiftLateNight {
				p.LastLateNight[rec.EmployeeID] = day.Date
			}
			if rec.Kind.IsWorking() {
				counts := p.PrevCounts[rec.EmployeeID]
				if counts == nil {
					counts = make(map[model.ShiftKind]int)
					p.PrevCounts[rec.EmployeeID] = counts
				}
				counts[rec.Kind]++
			}
		}
	}

	p.AnchorPhaseOffset = anchorPhase(sorted, roster)
	return p
}

// anchorPhase 根据锚点员工上月最后两个班推导新月相位：
//
//	末班=白           -> 1（新月从第一个睡觉班开始）
//	末班=睡 且 前班=白 -> 2（新月从第二个睡觉班开始）
//	末班=睡 且 前班=睡 -> 0（新月从白班开始）
//	其他/无历史        -> 0
func anchorPhase(sorted []model.DaySchedule, roster *model.Roster) int {
	anchor := roster.Anchor()
	if anchor == nil {
		return 0
	}

	var seq []model.ShiftKind
	for _, day := range sorted {
		if rec := day.RecordFor(anchor.ID); rec != nil {
			seq = append(seq, rec.Kind)
		}
	}
	if len(seq) == 0 {
		return 0
	}

	last := seq[len(seq)-1]
	if last == model.ShiftDay {
		return 1
	}
	if last == model.ShiftSleep && len(seq) >= 2 {
		switch seq[len(seq)-2] {
		case model.ShiftDay:
			return 2
		case model.ShiftSleep:
			return 0
		}
	}
	return 0
}

// AnchorKindAt 返回新月第 i 个工作日（从0起）锚点员工应排的班次
func (p *Projection) AnchorKindAt(i int) model.ShiftKind {
	if (i+p.AnchorPhaseOffset)%3 == 0 {
		return model.ShiftDay
	}
	return model.ShiftSleep
}

// PrevCount 返回某员工上月某班次的次数
func (p *Projection) PrevCount(employeeID string, kind model.ShiftKind) int {
	if counts, ok := p.PrevCounts[employeeID]; ok {
		return counts[kind]
	}
	return 0
}
