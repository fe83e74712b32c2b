// Package validator 提供排班校验功能
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/stats"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationHeadcount      ViolationType = "HEADCOUNT_MISMATCH"      // 当日总定员不符
	ViolationSlotCount      ViolationType = "SLOT_COUNT_MISMATCH"     // 单班次人数不符
	ViolationChiefMissing   ViolationType = "CHIEF_MISSING"           // 夜班缺少主任席
	ViolationChiefDuplicate ViolationType = "CHIEF_DUPLICATE"         // 夜班主任席重复
	ViolationAvoidance      ViolationType = "AVOIDANCE_CONFLICT"      // 避让组冲突
	ViolationDuplicate      ViolationType = "DUPLICATE_ASSIGNMENT"    // 员工当日重复分配
	ViolationRoleMismatch   ViolationType = "ROLE_MISMATCH"           // 锚点员工班次越界
	ViolationConsecutive    ViolationType = "CONSECUTIVE_VIOLATION"   // 小夜/大夜连续，或4天窗口夜班超限
	ViolationLateSpacing    ViolationType = "LATE_SPACING_VIOLATION"  // 大夜班间隔不足
	ViolationDaySpacing     ViolationType = "DAY_SPACING_VIOLATION"   // 普通员工白班间隔不足
	ViolationFairness       ViolationType = "FAIRNESS_IMBALANCE"      // 大夜班分配失衡
)

// Violation 一条违规
type Violation struct {
	Type        ViolationType   `json:"type"`
	Date        string          `json:"date,omitempty"`
	Shift       model.ShiftKind `json:"shift,omitempty"`
	EmployeeIDs []string        `json:"employee_ids"`
	Message     string          `json:"message"`
}

// Validator 排班校验器
type Validator struct {
	roster *model.Roster
	groups []model.AvoidanceGroup
}

// New 创建校验器
func New(roster *model.Roster, groups []model.AvoidanceGroup) *Validator {
	return &Validator{roster: roster, groups: groups}
}

// ValidateDay 校验单日排班：定员、主任席、避让、重复分配与锚点班次
func (v *Validator) ValidateDay(date string, records []model.ShiftRecord) []Violation {
	var violations []Violation

	// 只统计工作班次
	var active []model.ShiftRecord
	for _, r := range records {
		if r.Kind.IsWorking() {
			active = append(active, r)
		}
	}

	// 总定员
	if len(active) != model.TotalHeadcount {
		violations = append(violations, Violation{
			Type:    ViolationHeadcount,
			Date:    date,
			Message: fmt.Sprintf("定员不足: 需要%d人，实际%d人", model.TotalHeadcount, len(active)),
		})
	}

	// 各班次定员
	byKind := make(map[model.ShiftKind][]string)
	for _, r := range active {
		byKind[r.Kind] = append(byKind[r.Kind], r.EmployeeID)
	}
	for _, kind := range model.WorkingShiftKinds {
		required := model.ShiftHeadcount[kind]
		if actual := len(byKind[kind]); actual != required {
			violations = append(violations, Violation{
				Type:        ViolationSlotCount,
				Date:        date,
				Shift:       kind,
				EmployeeIDs: byKind[kind],
				Message:     fmt.Sprintf("%s人数错误: 需要%d人，实际%d人", kind.Name(), required, actual),
			})
		}
	}

	// 夜班主任席
	for _, kind := range model.NightShiftKinds {
		var chiefs []string
		for _, id := range byKind[kind] {
			if v.roster.IsChief(id) {
				chiefs = append(chiefs, id)
			}
		}
		switch {
		case len(chiefs) == 0:
			violations = append(violations, Violation{
				Type:        ViolationChiefMissing,
				Date:        date,
				Shift:       kind,
				EmployeeIDs: byKind[kind],
				Message:     fmt.Sprintf("%s缺少主任席（夜班长）", kind.Name()),
			})
		case len(chiefs) > 1:
			violations = append(violations, Violation{
				Type:        ViolationChiefDuplicate,
				Date:        date,
				Shift:       kind,
				EmployeeIDs: chiefs,
				Message:     fmt.Sprintf("%s存在多个主任席（夜班长）", kind.Name()),
			})
		}
	}

	// 避让组
	for _, g := range v.groups {
		members := make(map[string]bool, len(g.EmployeeIDs))
		for _, id := range g.EmployeeIDs {
			members[id] = true
		}
		for _, kind := range model.WorkingShiftKinds {
			var conflicting []string
			for _, id := range byKind[kind] {
				if members[id] {
					conflicting = append(conflicting, id)
				}
			}
			if len(conflicting) > 1 {
				violations = append(violations, Violation{
					Type:        ViolationAvoidance,
					Date:        date,
					Shift:       kind,
					EmployeeIDs: conflicting,
					Message:     fmt.Sprintf("%s存在避让冲突: %s", kind.Name(), strings.Join(v.names(conflicting), ", ")),
				})
			}
		}
	}

	// 重复分配
	seen := make(map[string]bool)
	var duplicates []string
	for _, r := range active {
		if seen[r.EmployeeID] {
			duplicates = append(duplicates, r.EmployeeID)
		}
		seen[r.EmployeeID] = true
	}
	if len(duplicates) > 0 {
		violations = append(violations, Violation{
			Type:        ViolationDuplicate,
			Date:        date,
			EmployeeIDs: duplicates,
			Message:     fmt.Sprintf("员工重复分配: %s", strings.Join(v.names(duplicates), ", ")),
		})
	}

	// 锚点员工只能上白班或睡觉班
	if anchor := v.roster.Anchor(); anchor != nil {
		for _, r := range active {
			if r.EmployeeID == anchor.ID && r.Kind != model.ShiftDay && r.Kind != model.ShiftSleep {
				violations = append(violations, Violation{
					Type:        ViolationRoleMismatch,
					Date:        date,
					Shift:       r.Kind,
					EmployeeIDs: []string{anchor.ID},
					Message:     fmt.Sprintf("%s 只能上白班或睡觉班，不能上%s", anchor.Name, r.Kind.Name()),
				})
			}
		}
	}

	return violations
}

// ValidateMonth 校验整月排班：逐日校验加跨日规则
func (v *Validator) ValidateMonth(schedules []model.DaySchedule) []Violation {
	sorted := make([]model.DaySchedule, len(schedules))
	copy(sorted, schedules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var violations []Violation
	for _, day := range sorted {
		violations = append(violations, v.ValidateDay(day.Date, day.Records)...)
	}

	violations = append(violations, v.checkConsecutive(sorted)...)
	violations = append(violations, v.checkSpacing(sorted)...)
	violations = append(violations, v.checkLateFairness(sorted)...)
	return violations
}

// checkConsecutive 相邻工作日小夜/大夜连续，以及任意4个连续工作日内夜班超过3个
func (v *Validator) checkConsecutive(sorted []model.DaySchedule) []Violation {
	var violations []Violation

	for _, e := range v.roster.Employees() {
		kinds := employeeKinds(sorted, e.ID)

		for i := 0; i+1 < len(kinds); i++ {
			k := kinds[i]
			if (k == model.ShiftMiniNight || k == model.ShiftLateNight) && kinds[i+1] == k {
				violations = append(violations, Violation{
					Type:        ViolationConsecutive,
					Date:        sorted[i].Date,
					Shift:       k,
					EmployeeIDs: []string{e.ID},
					Message:     fmt.Sprintf("%s 在 %s 和 %s 连续上%s", e.Name, sorted[i].Date, sorted[i+1].Date, k.Name()),
				})
			}
		}

		for i := 0; i+3 < len(kinds); i++ {
			nights := 0
			for j := 0; j < 4; j++ {
				if kinds[i+j].IsNight() {
					nights++
				}
			}
			if nights > 3 {
				violations = append(violations, Violation{
					Type:        ViolationConsecutive,
					Date:        sorted[i].Date,
					EmployeeIDs: []string{e.ID},
					Message:     fmt.Sprintf("%s 从 %s 起连续4个工作日均为夜班", e.Name, sorted[i].Date),
				})
			}
		}
	}
	return violations
}

// checkSpacing 大夜班最小间隔与普通员工白班最小间隔
func (v *Validator) checkSpacing(sorted []model.DaySchedule) []Violation {
	var violations []Violation
	anchor := v.roster.Anchor()

	for _, e := range v.roster.Employees() {
		kinds := employeeKinds(sorted, e.ID)

		lastLate := -10
		for i, k := range kinds {
			if k != model.ShiftLateNight {
				continue
			}
			if i-lastLate <= 3 && lastLate >= 0 {
				violations = append(violations, Violation{
					Type:        ViolationLateSpacing,
					Date:        sorted[i].Date,
					Shift:       model.ShiftLateNight,
					EmployeeIDs: []string{e.ID},
					Message:     fmt.Sprintf("%s 的大夜班间隔不足3个工作日（%s 与 %s）", e.Name, sorted[lastLate].Date, sorted[i].Date),
				})
			}
			lastLate = i
		}

		// 白班最小间隔只约束普通员工；锚点有固定循环，主任白班连续另行处理
		if anchor != nil && e.ID == anchor.ID || e.IsChief {
			continue
		}
		for i := 0; i+1 < len(kinds); i++ {
			if kinds[i] == model.ShiftDay && kinds[i+1] == model.ShiftDay {
				violations = append(violations, Violation{
					Type:        ViolationDaySpacing,
					Date:        sorted[i].Date,
					Shift:       model.ShiftDay,
					EmployeeIDs: []string{e.ID},
					Message:     fmt.Sprintf("%s 在 %s 和 %s 连续上白班", e.Name, sorted[i].Date, sorted[i+1].Date),
				})
			}
		}
	}
	return violations
}

// checkLateFairness 大夜班次数总体标准差超过阈值时提示失衡
func (v *Validator) checkLateFairness(sorted []model.DaySchedule) []Violation {
	counts := make(map[string]int)
	for _, day := range sorted {
		for _, r := range day.Records {
			if r.Kind == model.ShiftLateNight {
				counts[r.EmployeeID]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}

	stdDev := stats.LateNightStdDev(counts)
	if stdDev <= 2.0 {
		return nil
	}

	maxCount, minCount := 0, 1<<30
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
		if c < minCount {
			minCount = c
		}
	}
	var extremes []string
	for id, c := range counts {
		if c == maxCount || c == minCount {
			extremes = append(extremes, id)
		}
	}
	sort.Strings(extremes)

	return []Violation{{
		Type:        ViolationFairness,
		EmployeeIDs: extremes,
		Message:     fmt.Sprintf("大夜班分配不均衡（标准差: %.2f，最多%d次，最少%d次）", stdDev, maxCount, minCount),
	}}
}

// employeeKinds 按日期顺序取出某员工每个工作日的班次（缺勤记为 NONE）
func employeeKinds(sorted []model.DaySchedule, employeeID string) []model.ShiftKind {
	kinds := make([]model.ShiftKind, len(sorted))
	for i := range sorted {
		kinds[i] = model.ShiftNone
		if rec := sorted[i].RecordFor(employeeID); rec != nil && rec.Kind.IsWorking() {
			kinds[i] = rec.Kind
		}
	}
	return kinds
}

func (v *Validator) names(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if e := v.roster.ByID(id); e != nil {
			names = append(names, e.Name)
		} else {
			names = append(names, id)
		}
	}
	return names
}
