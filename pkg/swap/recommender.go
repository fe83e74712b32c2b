// Package swap 针对排班冲突提出保持定员的局部修复建议
package swap

import (
	"fmt"
	"sort"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/validator"
)

// Change 一处改动：某员工在某日期从一个班次移到另一个班次
type Change struct {
	Date       string          `json:"date"`
	EmployeeID string          `json:"employee_id"`
	FromShift  model.ShiftKind `json:"from_shift"`
	ToShift    model.ShiftKind `json:"to_shift"`
}

// Suggestion 修复建议：1处改动为纯移动，2处改动为对调
type Suggestion struct {
	Description string   `json:"description"`
	Changes     []Change `json:"changes"`
}

// Recommender 修复建议器。锁定单元格永不触碰，只改今天及以后的单元格。
type Recommender struct {
	roster *model.Roster
	groups []model.AvoidanceGroup
	pinned map[string]model.ShiftKind
	today  string
}

// NewRecommender 创建修复建议器。today 为空时不限制日期。
func NewRecommender(roster *model.Roster, groups []model.AvoidanceGroup, pins []model.PinnedAssignment, today string) *Recommender {
	pinned := make(map[string]model.ShiftKind, len(pins))
	for _, p := range pins {
		pinned[cellKey(p.EmployeeID, p.Date)] = p.Kind
	}
	return &Recommender{roster: roster, groups: groups, pinned: pinned, today: today}
}

// Suggest 针对单条冲突给出至多一条建议，找不到满足全部保护条件的方案时返回 nil
func (r *Recommender) Suggest(v validator.Violation, schedules []model.DaySchedule) *Suggestion {
	grid := newGrid(schedules)

	switch v.Type {
	case validator.ViolationSlotCount:
		return r.suggestSlotCount(v, grid)
	case validator.ViolationConsecutive:
		return r.suggestConsecutive(v, grid)
	case validator.ViolationChiefMissing:
		return r.suggestChiefMissing(v, grid)
	case validator.ViolationChiefDuplicate:
		return r.suggestChiefDuplicate(v, grid)
	}
	return nil
}

// suggestSlotCount 把超员班次的一名员工移到同日缺员班次
func (r *Recommender) suggestSlotCount(v validator.Violation, g *grid) *Suggestion {
	di, ok := g.dayIndex(v.Date)
	if !ok || !r.editable(v.Date) {
		return nil
	}

	var over, under []model.ShiftKind
	for _, kind := range model.WorkingShiftKinds {
		n := len(g.on(di, kind))
		switch {
		case n > model.ShiftHeadcount[kind]:
			over = append(over, kind)
		case n < model.ShiftHeadcount[kind]:
			under = append(under, kind)
		}
	}
	if len(over) == 0 || len(under) == 0 {
		return nil
	}

	for _, src := range over {
		for _, dst := range under {
			for _, id := range g.on(di, src) {
				if !r.canMove(g, di, id, src, dst) {
					continue
				}
				return &Suggestion{
					Description: fmt.Sprintf("将 %s 从%s移到%s（%s）", r.name(id), src.Name(), dst.Name(), v.Date),
					Changes:     []Change{{Date: v.Date, EmployeeID: id, FromShift: src, ToShift: dst}},
				}
			}
		}
	}
	return nil
}

// suggestConsecutive 针对小夜/大夜连续：在次日把当事人与另一班次的员工对调
func (r *Recommender) suggestConsecutive(v validator.Violation, g *grid) *Suggestion {
	if v.Shift != model.ShiftMiniNight && v.Shift != model.ShiftLateNight {
		return nil // 白班/睡觉班允许连续，窗口类冲突不做局部修复
	}
	if len(v.EmployeeIDs) == 0 {
		return nil
	}
	offender := v.EmployeeIDs[0]
	di, ok := g.dayIndex(v.Date)
	if !ok || di+1 >= len(g.days) {
		return nil
	}
	next := di + 1
	nextDate := g.days[next].Date
	if !r.editable(nextDate) || r.isPinned(offender, nextDate) {
		return nil
	}

	kind := v.Shift
	for _, alt := range model.WorkingShiftKinds {
		if alt == kind {
			continue
		}
		for _, id := range g.on(next, alt) {
			if !r.swapOK(g, next, offender, kind, id, alt) {
				continue
			}
			// 候选人在前一日与后一日都不能已排同班，否则换过去又形成连续
			if g.kindOf(di, id) == kind || g.kindOf(next+1, id) == kind {
				continue
			}
			// 当事人换到夜班时同样不能形成新的连续
			if alt.IsNight() && alt != model.ShiftSleep && g.kindOf(next+1, offender) == alt {
				continue
			}
			return &Suggestion{
				Description: fmt.Sprintf("在 %s 将 %s（%s）与 %s（%s）对调，消除连续%s", nextDate, r.name(offender), kind.Name(), r.name(id), alt.Name(), kind.Name()),
				Changes: []Change{
					{Date: nextDate, EmployeeID: offender, FromShift: kind, ToShift: alt},
					{Date: nextDate, EmployeeID: id, FromShift: alt, ToShift: kind},
				},
			}
		}
	}
	return nil
}

// suggestChiefMissing 从持有多余主任的班次换一名主任过来补席
func (r *Recommender) suggestChiefMissing(v validator.Violation, g *grid) *Suggestion {
	di, ok := g.dayIndex(v.Date)
	if !ok || !r.editable(v.Date) || !v.Shift.IsNight() {
		return nil
	}

	for _, src := range model.WorkingShiftKinds {
		if src == v.Shift {
			continue
		}
		chiefs := r.chiefsOn(g, di, src)
		// 夜班只剩一个主任席时绝不抽走
		if len(chiefs) == 0 || (src.IsNight() && len(chiefs) < 2) {
			continue
		}
		for _, chief := range chiefs {
			if !r.movable(chief, v.Date) || !r.fits(g, di, chief, v.Shift) {
				continue
			}
			for _, id := range g.on(di, v.Shift) {
				if r.roster.IsChief(id) || !r.movable(id, v.Date) || !r.fits(g, di, id, src) {
					continue
				}
				return &Suggestion{
					Description: fmt.Sprintf("在 %s 将主任 %s 从%s调入%s，与 %s 对调", v.Date, r.name(chief), src.Name(), v.Shift.Name(), r.name(id)),
					Changes: []Change{
						{Date: v.Date, EmployeeID: chief, FromShift: src, ToShift: v.Shift},
						{Date: v.Date, EmployeeID: id, FromShift: v.Shift, ToShift: src},
					},
				}
			}
		}
	}
	return nil
}

// suggestChiefDuplicate 把多余的主任换去缺主任的夜班（优先）或白班
func (r *Recommender) suggestChiefDuplicate(v validator.Violation, g *grid) *Suggestion {
	di, ok := g.dayIndex(v.Date)
	if !ok || !r.editable(v.Date) {
		return nil
	}
	chiefs := r.chiefsOn(g, di, v.Shift)
	if len(chiefs) < 2 {
		return nil
	}
	extras := chiefs[1:]

	var targets []model.ShiftKind
	for _, kind := range model.NightShiftKinds {
		if kind != v.Shift && len(r.chiefsOn(g, di, kind)) == 0 {
			targets = append(targets, kind)
		}
	}
	targets = append(targets, model.ShiftDay)

	for _, chief := range extras {
		if !r.movable(chief, v.Date) {
			continue
		}
		for _, target := range targets {
			if target == v.Shift || !r.fits(g, di, chief, target) {
				continue
			}
			for _, id := range g.on(di, target) {
				if r.roster.IsChief(id) || !r.movable(id, v.Date) || !r.fits(g, di, id, v.Shift) {
					continue
				}
				return &Suggestion{
					Description: fmt.Sprintf("在 %s 将多余主任 %s 从%s调往%s，与 %s 对调", v.Date, r.name(chief), v.Shift.Name(), target.Name(), r.name(id)),
					Changes: []Change{
						{Date: v.Date, EmployeeID: chief, FromShift: v.Shift, ToShift: target},
						{Date: v.Date, EmployeeID: id, FromShift: target, ToShift: v.Shift},
					},
				}
			}
		}
	}
	return nil
}

// canMove 纯移动的保护条件：可动、不抽走夜班唯一主任、目标班次合规
func (r *Recommender) canMove(g *grid, di int, id string, from, to model.ShiftKind) bool {
	date := g.days[di].Date
	if !r.movable(id, date) {
		return false
	}
	if r.roster.IsChief(id) {
		// 不抽走夜班唯一主任，也不把第二个主任挤进已有主任的夜班
		if from.IsNight() && len(r.chiefsOn(g, di, from)) < 2 {
			return false
		}
		if to.IsNight() && len(r.chiefsOn(g, di, to)) > 0 {
			return false
		}
	}
	return r.fits(g, di, id, to)
}

// swapOK 对调的保护条件：双方可动且主任资质一致（保持两边主任数不变）
func (r *Recommender) swapOK(g *grid, di int, a string, aKind model.ShiftKind, b string, bKind model.ShiftKind) bool {
	date := g.days[di].Date
	if !r.movable(a, date) || !r.movable(b, date) {
		return false
	}
	if r.roster.IsChief(a) != r.roster.IsChief(b) {
		return false
	}
	return r.fitsExcluding(g, di, a, bKind, b) && r.fitsExcluding(g, di, b, aKind, a)
}

// fits 检查员工换到目标班次后不产生避让冲突、锚点越界或新的连续夜班
func (r *Recommender) fits(g *grid, di int, id string, kind model.ShiftKind) bool {
	return r.fitsExcluding(g, di, id, kind, "")
}

func (r *Recommender) fitsExcluding(g *grid, di int, id string, kind model.ShiftKind, leaving string) bool {
	if r.roster.IsAnchor(id) && kind != model.ShiftDay && kind != model.ShiftSleep {
		return false
	}

	// 避让冲突
	for _, grp := range r.groups {
		if !contains(grp.EmployeeIDs, id) {
			continue
		}
		for _, member := range g.on(di, kind) {
			if member != id && member != leaving && contains(grp.EmployeeIDs, member) {
				return false
			}
		}
	}

	// 小夜/大夜不得与相邻工作日同班连续
	if kind == model.ShiftMiniNight || kind == model.ShiftLateNight {
		if g.kindOf(di-1, id) == kind || g.kindOf(di+1, id) == kind {
			return false
		}
	}
	// 大夜班最小间隔
	if kind == model.ShiftLateNight {
		for j := di - 3; j <= di+3; j++ {
			if j == di {
				continue
			}
			if g.kindOf(j, id) == model.ShiftLateNight {
				return false
			}
		}
	}
	return true
}

func (r *Recommender) chiefsOn(g *grid, di int, kind model.ShiftKind) []string {
	var chiefs []string
	for _, id := range g.on(di, kind) {
		if r.roster.IsChief(id) {
			chiefs = append(chiefs, id)
		}
	}
	return chiefs
}

func (r *Recommender) movable(id, date string) bool {
	return !r.isPinned(id, date) && !r.roster.IsAnchor(id) && r.editable(date)
}

func (r *Recommender) isPinned(id, date string) bool {
	_, ok := r.pinned[cellKey(id, date)]
	return ok
}

func (r *Recommender) editable(date string) bool {
	return r.today == "" || date >= r.today
}

func (r *Recommender) name(id string) string {
	if e := r.roster.ByID(id); e != nil {
		return e.Name
	}
	return id
}

// grid 按日期排序的排班索引
type grid struct {
	days    []model.DaySchedule
	indexOf map[string]int
}

func newGrid(schedules []model.DaySchedule) *grid {
	days := make([]model.DaySchedule, len(schedules))
	copy(days, schedules)
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	indexOf := make(map[string]int, len(days))
	for i := range days {
		indexOf[days[i].Date] = i
	}
	return &grid{days: days, indexOf: indexOf}
}

func (g *grid) dayIndex(date string) (int, bool) {
	i, ok := g.indexOf[date]
	return i, ok
}

func (g *grid) on(di int, kind model.ShiftKind) []string {
	if di < 0 || di >= len(g.days) {
		return nil
	}
	return g.days[di].EmployeesOn(kind)
}

// kindOf 返回某员工第 di 个工作日的班次，越界返回 NONE
func (g *grid) kindOf(di int, id string) model.ShiftKind {
	if di < 0 || di >= len(g.days) {
		return model.ShiftNone
	}
	if rec := g.days[di].RecordFor(id); rec != nil {
		return rec.Kind
	}
	return model.ShiftNone
}

func cellKey(id, date string) string {
	return id + "|" + date
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
