package validator

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

// validDay 构造满足全部单日规则的一天：
// 白班 e1,e5,e6,e7,e8,e9；睡觉班 e2,e10,e11,e12,e13；
// 小夜班 e3,e14,e15；大夜班 e4,e16,e17
func validDay(date string) model.DaySchedule {
	kinds := map[string]model.ShiftKind{
		"e1": model.ShiftDay, "e5": model.ShiftDay, "e6": model.ShiftDay,
		"e7": model.ShiftDay, "e8": model.ShiftDay, "e9": model.ShiftDay,
		"e2": model.ShiftSleep, "e10": model.ShiftSleep, "e11": model.ShiftSleep,
		"e12": model.ShiftSleep, "e13": model.ShiftSleep,
		"e3": model.ShiftMiniNight, "e14": model.ShiftMiniNight, "e15": model.ShiftMiniNight,
		"e4": model.ShiftLateNight, "e16": model.ShiftLateNight, "e17": model.ShiftLateNight,
	}
	day := model.DaySchedule{Date: date}
	for i := 1; i <= 17; i++ {
		id := fmt.Sprintf("e%d", i)
		day.Records = append(day.Records, model.ShiftRecord{EmployeeID: id, Date: date, Kind: kinds[id]})
	}
	return day
}

func setKind(day *model.DaySchedule, id string, kind model.ShiftKind) {
	for i := range day.Records {
		if day.Records[i].EmployeeID == id {
			day.Records[i].Kind = kind
			return
		}
	}
}

func hasViolation(violations []Violation, vt ViolationType) bool {
	for _, v := range violations {
		if v.Type == vt {
			return true
		}
	}
	return false
}

func TestValidateDay_Clean(t *testing.T) {
	v := New(testRoster(), nil)
	if violations := v.ValidateDay("2024-01-01", validDay("2024-01-01").Records); len(violations) != 0 {
		t.Errorf("合规单日不应有违规: %+v", violations)
	}
}

func TestValidateDay_SlotCount(t *testing.T) {
	v := New(testRoster(), nil)
	day := validDay("2024-01-01")
	// e9 白班 -> 睡觉班：白班5人、睡觉班6人
	setKind(&day, "e9", model.ShiftSleep)

	violations := v.ValidateDay(day.Date, day.Records)
	if !hasViolation(violations, ViolationSlotCount) {
		t.Errorf("应报定员不符: %+v", violations)
	}
}

func TestValidateDay_Headcount(t *testing.T) {
	v := New(testRoster(), nil)
	day := validDay("2024-01-01")
	setKind(&day, "e17", model.ShiftVacation) // 只剩16个工作班次

	violations := v.ValidateDay(day.Date, day.Records)
	if !hasViolation(violations, ViolationHeadcount) {
		t.Errorf("应报总定员不符: %+v", violations)
	}
}

func TestValidateDay_ChiefMissing(t *testing.T) {
	v := New(testRoster(), nil)
	day := validDay("2024-01-01")
	// 大夜班主任 e4 与白班普通员工 e9 对调
	setKind(&day, "e4", model.ShiftDay)
	setKind(&day, "e9", model.ShiftLateNight)

	violations := v.ValidateDay(day.Date, day.Records)
	if !hasViolation(violations, ViolationChiefMissing) {
		t.Errorf("应报缺少主任席: %+v", violations)
	}
}

func TestValidateDay_ChiefDuplicate(t *testing.T) {
	v := New(testRoster(), nil)
	day := validDay("2024-01-01")
	// 主任 e5 调入大夜班，普通员工 e17 调去白班
	setKind(&day, "e5", model.ShiftLateNight)
	setKind(&day, "e17", model.ShiftDay)

	violations := v.ValidateDay(day.Date, day.Records)
	if !hasViolation(violations, ViolationChiefDuplicate) {
		t.Errorf("应报主任席重复: %+v", violations)
	}
}

func TestValidateDay_Avoidance(t *testing.T) {
	groups := []model.AvoidanceGroup{{ID: "g1", EmployeeIDs: []string{"e10", "e11"}}}
	v := New(testRoster(), groups)
	day := validDay("2024-01-01")

	violations := v.ValidateDay(day.Date, day.Records)
	if !hasViolation(violations, ViolationAvoidance) {
		t.Errorf("e10和e11同上睡觉班，应报避让冲突: %+v", violations)
	}
}

func TestValidateDay_Duplicate(t *testing.T) {
	v := New(testRoster(), nil)
	day := validDay("2024-01-01")
	day.Records = append(day.Records, model.ShiftRecord{EmployeeID: "e9", Date: day.Date, Kind: model.ShiftSleep})

	violations := v.ValidateDay(day.Date, day.Records)
	if !hasViolation(violations, ViolationDuplicate) {
		t.Errorf("应报重复分配: %+v", violations)
	}
}

func TestValidateDay_RoleMismatch(t *testing.T) {
	v := New(testRoster(), nil)
	day := validDay("2024-01-01")
	// 锚点 e1 调去大夜班，e4 调回白班
	setKind(&day, "e1", model.ShiftLateNight)
	setKind(&day, "e4", model.ShiftDay)

	violations := v.ValidateDay(day.Date, day.Records)
	if !hasViolation(violations, ViolationRoleMismatch) {
		t.Errorf("锚点上大夜班应报班次越界: %+v", violations)
	}
}

func TestValidateMonth_ConsecutiveNight(t *testing.T) {
	v := New(testRoster(), nil)
	day1 := validDay("2024-01-01")
	day2 := validDay("2024-01-04")
	// e16 两天都在大夜班（validDay 已如此），应报连续
	violations := v.ValidateMonth([]model.DaySchedule{day1, day2})
	if !hasViolation(violations, ViolationConsecutive) {
		t.Errorf("相邻工作日连续大夜班应报违规: %+v", violations)
	}
}

func TestValidateMonth_LateSpacing(t *testing.T) {
	v := New(testRoster(), nil)
	day1 := validDay("2024-01-01")
	day2 := validDay("2024-01-04")
	// 打散 day2，只留 e16 在 day1 和 day3 上大夜班（中间只隔1个工作日）
	setKind(&day2, "e16", model.ShiftSleep)
	setKind(&day2, "e10", model.ShiftLateNight)
	day3 := validDay("2024-01-10")

	violations := v.ValidateMonth([]model.DaySchedule{day1, day2, day3})
	if !hasViolation(violations, ViolationLateSpacing) {
		t.Errorf("中间只隔1个工作日的大夜班应报间隔不足: %+v", violations)
	}
}

func TestValidateMonth_DaySpacing(t *testing.T) {
	v := New(testRoster(), nil)
	day1 := validDay("2024-01-01")
	day2 := validDay("2024-01-04")
	// 普通员工 e9 连续两天白班（validDay 已如此），主任白班连续不在此规则内
	setKind(&day2, "e16", model.ShiftSleep)
	setKind(&day2, "e10", model.ShiftLateNight)
	setKind(&day2, "e14", model.ShiftSleep) // 防止 e14 连续小夜
	setKind(&day2, "e11", model.ShiftMiniNight)

	violations := v.ValidateMonth([]model.DaySchedule{day1, day2})
	found := false
	for _, violation := range violations {
		if violation.Type == ViolationDaySpacing && violation.EmployeeIDs[0] == "e9" {
			found = true
		}
		if violation.Type == ViolationDaySpacing && violation.EmployeeIDs[0] == "e5" {
			t.Error("主任连续白班不应报白班间隔违规")
		}
	}
	if !found {
		t.Errorf("普通员工连续白班应报违规: %+v", violations)
	}
}

func TestValidateMonth_Fairness(t *testing.T) {
	v := New(testRoster(), nil)

	// 构造极端失衡：e16 八次大夜班，e17 只有一次
	var schedules []model.DaySchedule
	for i := 0; i < 8; i++ {
		day := validDay(fmt.Sprintf("2024-01-%02d", 1+i*3))
		if i > 0 {
			setKind(&day, "e17", model.ShiftSleep)
			setKind(&day, "e10", model.ShiftLateNight)
		}
		schedules = append(schedules, day)
	}

	violations := v.ValidateMonth(schedules)
	if !hasViolation(violations, ViolationFairness) {
		t.Errorf("失衡的大夜班分配应报公平性提示: %+v", violations)
	}
}
