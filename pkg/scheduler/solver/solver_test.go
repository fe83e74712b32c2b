package solver

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/history"
	"github.com/lunban/lunban/pkg/model"
)

func testRoster() *model.Roster {
	employees := make([]model.Employee, 17)
	for i := range employees {
		employees[i] = model.Employee{ID: fmt.Sprintf("e%d", i+1), Name: fmt.Sprintf("员工%d", i+1)}
	}
	return model.NewRoster(employees)
}

// aprilWorkDays 2024年4月A组的10个工作日（3,6,...,30）
func aprilWorkDays() []string {
	var days []string
	for d := 3; d <= 30; d += 3 {
		days = append(days, fmt.Sprintf("2024-04-%02d", d))
	}
	return days
}

func testOptions(seed int64) *Options {
	opts := DefaultOptions()
	opts.MaxTime = 20 * time.Second
	opts.MaxIterations = 3000
	opts.Seed = seed
	return opts
}

func solve(t *testing.T, p *Problem, seed int64) *Result {
	t.Helper()
	result, err := New(testOptions(seed)).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	return result
}

func baseProblem(roster *model.Roster) *Problem {
	return &Problem{
		Roster:   roster,
		WorkDays: aprilWorkDays(),
		History:  history.Project(nil, roster),
	}
}

// assertHardConstraints 校验全部硬约束
func assertHardConstraints(t *testing.T, p *Problem, result *Result) {
	t.Helper()
	roster := p.Roster
	n := len(p.WorkDays)
	employees := roster.Employees()

	for d := 0; d < n; d++ {
		counts := make(map[model.ShiftKind]int)
		chiefCounts := make(map[model.ShiftKind]int)
		for i := range employees {
			k := result.Assignment[d][i]
			if !k.IsWorking() {
				t.Fatalf("第%d天员工%d班次非法: %q", d, i, k)
			}
			counts[k]++
			if employees[i].IsChief {
				chiefCounts[k]++
			}
		}
		for _, kind := range model.WorkingShiftKinds {
			if counts[kind] != model.ShiftHeadcount[kind] {
				t.Errorf("第%d天%s人数 = %d, expected %d", d, kind, counts[kind], model.ShiftHeadcount[kind])
			}
		}
		for _, kind := range model.NightShiftKinds {
			if chiefCounts[kind] != 1 {
				t.Errorf("第%d天%s主任数 = %d, expected 1", d, kind, chiefCounts[kind])
			}
		}
	}

	for i, e := range employees {
		for d := 0; d < n; d++ {
			k := result.Assignment[d][i]

			if i == 0 && k != model.ShiftDay && k != model.ShiftSleep {
				t.Errorf("锚点员工第%d天上了%s", d, k)
			}

			if d+1 < n {
				next := result.Assignment[d+1][i]
				if (k == model.ShiftMiniNight || k == model.ShiftLateNight) && next == k {
					t.Errorf("%s 第%d/%d天连续%s", e.ID, d, d+1, k)
				}
				if !e.IsChief && i != 0 && k == model.ShiftDay && next == model.ShiftDay {
					t.Errorf("%s 第%d/%d天连续白班", e.ID, d, d+1)
				}
			}

			if k == model.ShiftLateNight {
				for j := d + 1; j <= d+3 && j < n; j++ {
					if result.Assignment[j][i] == model.ShiftLateNight {
						t.Errorf("%s 第%d/%d天大夜班间隔不足", e.ID, d, j)
					}
				}
			}

			if d+3 < n {
				nights := 0
				for j := d; j <= d+3; j++ {
					if result.Assignment[j][i].IsNight() {
						nights++
					}
				}
				if nights > 3 {
					t.Errorf("%s 从第%d天起4天内%d个夜班", e.ID, d, nights)
				}
			}
		}
	}
}

func TestSolve_Invariants(t *testing.T) {
	roster := testRoster()
	p := baseProblem(roster)
	result := solve(t, p, 42)
	assertHardConstraints(t, p, result)

	// 锚点循环：无历史时从白班开始
	expected := []model.ShiftKind{
		model.ShiftDay, model.ShiftSleep, model.ShiftSleep,
		model.ShiftDay, model.ShiftSleep, model.ShiftSleep,
		model.ShiftDay, model.ShiftSleep, model.ShiftSleep,
		model.ShiftDay,
	}
	for d, kind := range expected {
		if result.Assignment[d][0] != kind {
			t.Errorf("锚点第%d天 = %s, expected %s", d, result.Assignment[d][0], kind)
		}
	}
}

func TestSolve_Deterministic(t *testing.T) {
	roster := testRoster()
	r1 := solve(t, baseProblem(roster), 1234)
	r2 := solve(t, baseProblem(roster), 1234)

	if !reflect.DeepEqual(r1.Assignment, r2.Assignment) {
		t.Error("相同输入与种子应产出相同排班")
	}
	if r1.Objective != r2.Objective {
		t.Errorf("目标值不一致: %d vs %d", r1.Objective, r2.Objective)
	}
}

func TestSolve_DifferentSeeds(t *testing.T) {
	roster := testRoster()
	r1 := solve(t, baseProblem(roster), 1)
	r2 := solve(t, baseProblem(roster), 2)

	// 随机扰动应让不同种子大概率产出不同方案
	if reflect.DeepEqual(r1.Assignment, r2.Assignment) {
		t.Log("不同种子产出了相同方案（小概率，允许）")
	}
}

func TestSolve_PinHonored(t *testing.T) {
	roster := testRoster()
	p := baseProblem(roster)
	date := p.WorkDays[4]
	// 显示位置3的主任锁定第5个工作日大夜班
	p.Pins = []model.PinnedAssignment{{EmployeeID: "e4", Date: date, Kind: model.ShiftLateNight}}

	result := solve(t, p, 7)
	assertHardConstraints(t, p, result)
	if result.Assignment[4][3] != model.ShiftLateNight {
		t.Errorf("锁定未生效: %s", result.Assignment[4][3])
	}
}

func TestSolve_Avoidance(t *testing.T) {
	roster := testRoster()
	p := baseProblem(roster)
	p.AvoidanceGroups = []model.AvoidanceGroup{{ID: "g1", EmployeeIDs: []string{"e2", "e3"}}}

	result := solve(t, p, 99)
	assertHardConstraints(t, p, result)
	for d := range p.WorkDays {
		if result.Assignment[d][1] == result.Assignment[d][2] {
			t.Errorf("第%d天避让组成员同班: %s", d, result.Assignment[d][1])
		}
	}
}

func TestSolve_InfeasiblePins(t *testing.T) {
	roster := testRoster()
	p := baseProblem(roster)
	// 六名主任全部锁定白班：夜班主任席无人可用
	for i := 1; i <= 6; i++ {
		p.Pins = append(p.Pins, model.PinnedAssignment{
			EmployeeID: fmt.Sprintf("e%d", i),
			Date:       p.WorkDays[0],
			Kind:       model.ShiftDay,
		})
	}

	_, err := New(testOptions(5)).Solve(context.Background(), p)
	if !apperrors.Is(err, apperrors.CodeInfeasible) {
		t.Errorf("应返回 INFEASIBLE, got %v", err)
	}
}

func TestSolve_PinInvalid(t *testing.T) {
	roster := testRoster()

	tests := []struct {
		name string
		pins []model.PinnedAssignment
	}{
		{"锚点锁定小夜班", []model.PinnedAssignment{
			{EmployeeID: "e1", Date: "2024-04-03", Kind: model.ShiftMiniNight},
		}},
		{"同一单元格锁定两种班次", []model.PinnedAssignment{
			{EmployeeID: "e7", Date: "2024-04-03", Kind: model.ShiftDay},
			{EmployeeID: "e7", Date: "2024-04-03", Kind: model.ShiftSleep},
		}},
		{"锁定非工作班次", []model.PinnedAssignment{
			{EmployeeID: "e7", Date: "2024-04-03", Kind: model.ShiftVacation},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseProblem(roster)
			p.Pins = tt.pins
			_, err := New(testOptions(5)).Solve(context.Background(), p)
			if !apperrors.Is(err, apperrors.CodePinInvalid) {
				t.Errorf("应返回 PIN_INVALID, got %v", err)
			}
		})
	}
}

func TestSolve_EmptyWorkDays(t *testing.T) {
	roster := testRoster()
	p := &Problem{Roster: roster, WorkDays: nil, History: history.Project(nil, roster)}

	result, err := New(testOptions(1)).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("无工作日应返回空排班: %v", err)
	}
	if len(result.Assignment) != 0 {
		t.Errorf("应为空分配: %v", result.Assignment)
	}
}

func TestSolve_SingleWorkDay(t *testing.T) {
	// 单个工作日：全部间隔约束自动失效
	roster := testRoster()
	p := &Problem{Roster: roster, WorkDays: []string{"2024-04-03"}, History: history.Project(nil, roster)}

	result := solve(t, p, 3)
	assertHardConstraints(t, p, result)
}

func TestSolve_CrossMonthLateGap(t *testing.T) {
	roster := testRoster()
	// e7 上月最后一个工作日（4月1日前3天内）上过大夜班
	prev := []model.DaySchedule{
		{Date: "2024-03-31", Records: []model.ShiftRecord{
			{EmployeeID: "e7", Date: "2024-03-31", Kind: model.ShiftLateNight},
		}},
	}
	p := baseProblem(roster)
	p.History = history.Project(prev, roster)

	result := solve(t, p, 11)
	assertHardConstraints(t, p, result)
	// 4月3日与3月31日只隔3天，e7 不得再排大夜班
	if result.Assignment[0][6] == model.ShiftLateNight {
		t.Error("跨月大夜班最小间隔未生效")
	}
}

func TestSolve_TwoMonthFairnessInObjective(t *testing.T) {
	roster := testRoster()

	// e7 上月大夜班远多于其他人，本月应被少排
	var prev []model.DaySchedule
	for i := 0; i < 6; i++ {
		date := fmt.Sprintf("2024-03-%02d", 2+i*5)
		prev = append(prev, model.DaySchedule{
			Date: date,
			Records: []model.ShiftRecord{
				{EmployeeID: "e7", Date: date, Kind: model.ShiftLateNight},
			},
		})
	}
	p := baseProblem(roster)
	p.History = history.Project(prev, roster)

	result := solve(t, p, 21)
	assertHardConstraints(t, p, result)

	lateOf := func(idx int) int {
		count := 0
		for d := range p.WorkDays {
			if result.Assignment[d][idx] == model.ShiftLateNight {
				count++
			}
		}
		return count
	}
	e7 := lateOf(6)
	maxOther := 0
	for i := 7; i < 17; i++ {
		if c := lateOf(i); c > maxOther {
			maxOther = c
		}
	}
	if e7 > maxOther {
		t.Errorf("上月大夜班最多的 e7 本月又排最多（e7=%d, 其他最多=%d）", e7, maxOther)
	}
}
