package stats

import (
	"fmt"
	"math"
	"testing"

	"github.com/lunban/lunban/pkg/model"
)

func testRoster(n int) *model.Roster {
	employees := make([]model.Employee, n)
	for i := range employees {
		employees[i] = model.Employee{ID: fmt.Sprintf("e%d", i+1), Name: fmt.Sprintf("员工%d", i+1)}
	}
	return model.NewRoster(employees)
}

func TestDistributions(t *testing.T) {
	roster := testRoster(3)
	counts := map[string]map[model.ShiftKind]int{
		"e1": {model.ShiftDay: 4},
		"e2": {model.ShiftDay: 2},
		"e3": {model.ShiftDay: 3},
	}

	dist := Distributions(roster.Employees(), counts)[model.ShiftDay]
	if dist.Min != 2 || dist.Max != 4 || dist.Spread != 2 {
		t.Errorf("min/max/spread = %d/%d/%d", dist.Min, dist.Max, dist.Spread)
	}
	if dist.Avg != 3.0 {
		t.Errorf("avg = %v, expected 3.0", dist.Avg)
	}
	// 样本标准差 sqrt(((4-3)^2+(2-3)^2+(3-3)^2)/2) = 1
	if math.Abs(dist.StdDev-1.0) > 1e-9 {
		t.Errorf("std = %v, expected 1.0", dist.StdDev)
	}

	// 未统计的班次全为0
	if d := Distributions(roster.Employees(), counts)[model.ShiftLateNight]; d.Max != 0 || d.Spread != 0 {
		t.Errorf("大夜班分布应全0: %+v", d)
	}
}

func TestCompute_NoHistory(t *testing.T) {
	roster := testRoster(2)
	counts := map[string]map[model.ShiftKind]int{
		"e1": {model.ShiftDay: 3, model.ShiftLateNight: 1},
		"e2": {model.ShiftDay: 1, model.ShiftLateNight: 2},
	}

	s := Compute(roster, []string{"d1", "d2", "d3"}, counts, nil, false, 7)

	if s.TotalWorkDays != 3 {
		t.Errorf("TotalWorkDays = %d", s.TotalWorkDays)
	}
	if s.Seed != 7 {
		t.Errorf("Seed = %d", s.Seed)
	}
	if s.HasPreviousData {
		t.Error("HasPreviousData 应为 false")
	}

	// 无历史时公平性得分等于本月极差之和
	monthSum := 0
	for _, kind := range model.WorkingShiftKinds {
		monthSum += s.ShiftDistributions[kind].Spread
	}
	if s.FairnessScore != monthSum {
		t.Errorf("FairnessScore = %d, expected %d", s.FairnessScore, monthSum)
	}
}

func TestCompute_TwoMonth(t *testing.T) {
	roster := testRoster(2)
	counts := map[string]map[model.ShiftKind]int{
		"e1": {model.ShiftLateNight: 3},
		"e2": {model.ShiftLateNight: 1},
	}
	prev := map[string]map[model.ShiftKind]int{
		"e2": {model.ShiftLateNight: 2},
	}

	s := Compute(roster, []string{"d1"}, counts, prev, true, 1)

	if got := s.TwoMonthEmployeeCounts["e2"][model.ShiftLateNight]; got != 3 {
		t.Errorf("e2两月大夜班 = %d, expected 3", got)
	}
	if got := s.TwoMonthDistributions[model.ShiftLateNight].Spread; got != 0 {
		t.Errorf("两月极差 = %d, expected 0", got)
	}
	if got := s.ShiftDistributions[model.ShiftLateNight].Spread; got != 2 {
		t.Errorf("本月极差 = %d, expected 2", got)
	}
	if !s.HasPreviousData {
		t.Error("HasPreviousData 应为 true")
	}
}

func TestLateNightStdDev(t *testing.T) {
	if got := LateNightStdDev(nil); got != 0 {
		t.Errorf("空输入 = %v", got)
	}
	// 总体标准差: 值 {2, 4}, 均值3, 方差1, 标准差1
	counts := map[string]int{"e1": 2, "e2": 4}
	if got := LateNightStdDev(counts); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("LateNightStdDev = %v, expected 1.0", got)
	}
}
