package history

import (
	"fmt"
	"testing"

	"github.com/lunban/lunban/pkg/model"
)

func testRoster() *model.Roster {
	employees := make([]model.Employee, 17)
	for i := range employees {
		employees[i] = model.Employee{ID: fmt.Sprintf("e%d", i+1), Name: fmt.Sprintf("员工%d", i+1)}
	}
	return model.NewRoster(employees)
}

// anchorDays 构造只含锚点员工记录的上月排班
func anchorDays(kinds ...model.ShiftKind) []model.DaySchedule {
	days := make([]model.DaySchedule, len(kinds))
	for i, k := range kinds {
		date := fmt.Sprintf("2024-03-%02d", i+1)
		days[i] = model.DaySchedule{
			Date:    date,
			Records: []model.ShiftRecord{{EmployeeID: "e1", Date: date, Kind: k}},
		}
	}
	return days
}

func TestProject_AnchorPhase(t *testing.T) {
	tests := []struct {
		name     string
		prev     []model.DaySchedule
		expected int
	}{
		{"无历史", nil, 0},
		{"末班白班", anchorDays(model.ShiftSleep, model.ShiftSleep, model.ShiftDay), 1},
		{"末班睡1", anchorDays(model.ShiftSleep, model.ShiftDay, model.ShiftSleep), 2},
		{"末班睡2", anchorDays(model.ShiftDay, model.ShiftSleep, model.ShiftSleep), 0},
		{"仅一条白班", anchorDays(model.ShiftDay), 1},
		{"仅一条睡觉班", anchorDays(model.ShiftSleep), 0},
		{"末班休假", anchorDays(model.ShiftDay, model.ShiftVacation), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(tt.prev, testRoster())
			if p.AnchorPhaseOffset != tt.expected {
				t.Errorf("AnchorPhaseOffset = %d, expected %d", p.AnchorPhaseOffset, tt.expected)
			}
		})
	}
}

func TestProject_AnchorMissing(t *testing.T) {
	// 上月数据缺少锚点员工（后来才加入）按无历史处理
	prev := []model.DaySchedule{
		{Date: "2024-03-01", Records: []model.ShiftRecord{{EmployeeID: "e2", Kind: model.ShiftDay}}},
	}
	p := Project(prev, testRoster())
	if p.AnchorPhaseOffset != 0 {
		t.Errorf("AnchorPhaseOffset = %d, expected 0", p.AnchorPhaseOffset)
	}
	if !p.HasPrevious {
		t.Error("HasPrevious 应为 true")
	}
}

func TestProject_UnsortedInput(t *testing.T) {
	// 输入乱序也按日期排序后取末班
	days := anchorDays(model.ShiftSleep, model.ShiftSleep, model.ShiftDay)
	shuffled := []model.DaySchedule{days[2], days[0], days[1]}
	p := Project(shuffled, testRoster())
	if p.AnchorPhaseOffset != 1 {
		t.Errorf("AnchorPhaseOffset = %d, expected 1", p.AnchorPhaseOffset)
	}
}

func TestProject_PrevCounts(t *testing.T) {
	prev := []model.DaySchedule{
		{Date: "2024-03-01", Records: []model.ShiftRecord{
			{EmployeeID: "e2", Kind: model.ShiftLateNight},
			{EmployeeID: "e3", Kind: model.ShiftDay},
			{EmployeeID: "e4", Kind: model.ShiftVacation}, // 不计入
		}},
		{Date: "2024-03-04", Records: []model.ShiftRecord{
			{EmployeeID: "e2", Kind: model.ShiftLateNight},
			{EmployeeID: "e3", Kind: model.ShiftSleep},
		}},
	}
	p := Project(prev, testRoster())

	if got := p.PrevCount("e2", model.ShiftLateNight); got != 2 {
		t.Errorf("e2大夜班次数 = %d, expected 2", got)
	}
	if got := p.PrevCount("e3", model.ShiftDay); got != 1 {
		t.Errorf("e3白班次数 = %d, expected 1", got)
	}
	if got := p.PrevCount("e4", model.ShiftVacation); got != 0 {
		t.Errorf("休假不应计数, got %d", got)
	}
	if got := p.PrevCount("e9", model.ShiftDay); got != 0 {
		t.Errorf("无记录员工应为0, got %d", got)
	}

	if p.LastLateNight["e2"] != "2024-03-04" {
		t.Errorf("e2最后大夜班 = %s, expected 2024-03-04", p.LastLateNight["e2"])
	}
}

func TestProjection_AnchorKindAt(t *testing.T) {
	tests := []struct {
		offset   int
		expected []model.ShiftKind
	}{
		{0, []model.ShiftKind{model.ShiftDay, model.ShiftSleep, model.ShiftSleep, model.ShiftDay}},
		{1, []model.ShiftKind{model.ShiftSleep, model.ShiftSleep, model.ShiftDay, model.ShiftSleep}},
		{2, []model.ShiftKind{model.ShiftSleep, model.ShiftDay, model.ShiftSleep, model.ShiftSleep}},
	}

	for _, tt := range tests {
		p := &Projection{AnchorPhaseOffset: tt.offset}
		for i, expected := range tt.expected {
			if got := p.AnchorKindAt(i); got != expected {
				t.Errorf("offset=%d day=%d: got %s, expected %s", tt.offset, i, got, expected)
			}
		}
	}
}
