// Package scenario 提供整月排班的端到端场景测试
package scenario

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler"
	"github.com/lunban/lunban/pkg/scheduler/solver"
	"github.com/lunban/lunban/pkg/validator"
)

func testEmployees() []model.Employee {
	employees := make([]model.Employee, 17)
	for i := range employees {
		employees[i] = model.Employee{ID: fmt.Sprintf("e%d", i+1), Name: fmt.Sprintf("员工%d", i+1)}
	}
	return employees
}

func testEngine() *scheduler.Engine {
	opts := solver.DefaultOptions()
	opts.MaxTime = 20 * time.Second
	opts.MaxIterations = 3000
	return scheduler.NewEngine(opts)
}

// anchorKinds 取出锚点员工的整月班次序列
func anchorKinds(resp *scheduler.Response) []model.ShiftKind {
	var kinds []model.ShiftKind
	for _, day := range resp.Schedules {
		if rec := day.RecordFor("e1"); rec != nil {
			kinds = append(kinds, rec.Kind)
		}
	}
	return kinds
}

// assertNoViolations 用校验器复查生成结果
func assertNoViolations(t *testing.T, req *scheduler.Request, resp *scheduler.Response) {
	t.Helper()
	roster := model.NewRoster(req.Employees)
	violations := validator.New(roster, req.AvoidanceGroups).ValidateMonth(resp.Schedules)
	for _, v := range violations {
		t.Errorf("违规: %s %s %s", v.Type, v.Date, v.Message)
	}
}

// anchorPrev 构造只含锚点记录的上月排班
func anchorPrev(kinds ...model.ShiftKind) []model.DaySchedule {
	days := make([]model.DaySchedule, len(kinds))
	for i, k := range kinds {
		date := fmt.Sprintf("2024-03-%02d", 20+i*3)
		days[i] = model.DaySchedule{
			Date:    date,
			Records: []model.ShiftRecord{{EmployeeID: "e1", Date: date, Kind: k}},
		}
	}
	return days
}

// 场景1：无历史、无锁定。2024年4月A组恰有10个工作日。
func TestScenario_FreshMonth(t *testing.T) {
	req := &scheduler.Request{
		Month:     "2024-04",
		Group:     "A",
		Employees: testEmployees(),
		Seed:      42,
	}

	resp, err := testEngine().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	if len(resp.WorkDays) != 10 {
		t.Fatalf("工作日数 = %d, expected 10", len(resp.WorkDays))
	}
	if resp.WorkDays[0] != "2024-04-03" {
		t.Errorf("首个工作日 = %s, expected 2024-04-03", resp.WorkDays[0])
	}

	expected := []model.ShiftKind{
		model.ShiftDay, model.ShiftSleep, model.ShiftSleep,
		model.ShiftDay, model.ShiftSleep, model.ShiftSleep,
		model.ShiftDay, model.ShiftSleep, model.ShiftSleep,
		model.ShiftDay,
	}
	if !reflect.DeepEqual(anchorKinds(resp), expected) {
		t.Errorf("锚点序列 = %v", anchorKinds(resp))
	}

	assertNoViolations(t, req, resp)

	// 无历史时公平性得分等于本月极差之和
	monthSum := 0
	for _, kind := range model.WorkingShiftKinds {
		monthSum += resp.Statistics.ShiftDistributions[kind].Spread
	}
	if resp.Statistics.FairnessScore != monthSum {
		t.Errorf("FairnessScore = %d, expected %d", resp.Statistics.FairnessScore, monthSum)
	}
	if resp.Statistics.HasPreviousData {
		t.Error("HasPreviousData 应为 false")
	}
	if resp.Statistics.Seed != 42 {
		t.Errorf("Seed = %d, expected 42", resp.Statistics.Seed)
	}

	// 每天恰好17条记录，日期与星期齐全
	for _, day := range resp.Schedules {
		if len(day.Records) != model.TotalHeadcount {
			t.Errorf("%s 记录数 = %d", day.Date, len(day.Records))
		}
		if day.DayOfWeek == "" {
			t.Errorf("%s 缺少星期", day.Date)
		}
	}
}

// 场景2：上月末班为白班，新月从第一个睡觉班开始
func TestScenario_ContinuationAfterDay(t *testing.T) {
	req := &scheduler.Request{
		Month:             "2024-04",
		Group:             "A",
		Employees:         testEmployees(),
		PreviousSchedules: anchorPrev(model.ShiftSleep, model.ShiftSleep, model.ShiftDay),
		Seed:              43,
	}

	resp, err := testEngine().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	kinds := anchorKinds(resp)
	expectedStart := []model.ShiftKind{model.ShiftSleep, model.ShiftSleep, model.ShiftDay}
	if !reflect.DeepEqual(kinds[:3], expectedStart) {
		t.Errorf("新月开头 = %v, expected %v", kinds[:3], expectedStart)
	}
	assertNoViolations(t, req, resp)
}

// 场景3：上月末为 白,睡,睡，新月从白班开始
func TestScenario_ContinuationAfterTwoSleeps(t *testing.T) {
	req := &scheduler.Request{
		Month:             "2024-04",
		Group:             "A",
		Employees:         testEmployees(),
		PreviousSchedules: anchorPrev(model.ShiftDay, model.ShiftSleep, model.ShiftSleep),
		Seed:              44,
	}

	resp, err := testEngine().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	kinds := anchorKinds(resp)
	expectedStart := []model.ShiftKind{model.ShiftDay, model.ShiftSleep, model.ShiftSleep}
	if !reflect.DeepEqual(kinds[:3], expectedStart) {
		t.Errorf("新月开头 = %v, expected %v", kinds[:3], expectedStart)
	}
	assertNoViolations(t, req, resp)
}

// 场景4：锁定显示位置3的主任在第5个工作日上大夜班
func TestScenario_PinHonored(t *testing.T) {
	employees := testEmployees()
	req := &scheduler.Request{
		Month:     "2024-04",
		Group:     "A",
		Employees: employees,
		Seed:      45,
	}
	// 2024年4月A组第5个工作日为4月15日，生成后再核对
	req.Pins = []model.PinnedAssignment{{EmployeeID: "e4", Date: "2024-04-15", Kind: model.ShiftLateNight}}

	resp, err := testEngine().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	if resp.WorkDays[4] != "2024-04-15" {
		t.Fatalf("第5个工作日 = %s", resp.WorkDays[4])
	}
	rec := resp.Schedules[4].RecordFor("e4")
	if rec == nil || rec.Kind != model.ShiftLateNight {
		t.Errorf("锁定未生效: %+v", rec)
	}
	if rec != nil && rec.Seat != model.SeatLateNightChief {
		t.Errorf("主任应落在大夜班主任席: %s", rec.Seat)
	}
	assertNoViolations(t, req, resp)
}

// 场景5：避让组成员不得同班
func TestScenario_AvoidanceRespected(t *testing.T) {
	req := &scheduler.Request{
		Month:           "2024-04",
		Group:           "A",
		Employees:       testEmployees(),
		AvoidanceGroups: []model.AvoidanceGroup{{ID: "g1", EmployeeIDs: []string{"e2", "e3"}}},
		Seed:            46,
	}

	resp, err := testEngine().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	for _, day := range resp.Schedules {
		a, b := day.RecordFor("e2"), day.RecordFor("e3")
		if a != nil && b != nil && a.Kind == b.Kind {
			t.Errorf("%s 避让组成员同班: %s", day.Date, a.Kind)
		}
	}
	assertNoViolations(t, req, resp)
}

// 场景6：六名主任全部锁定白班，夜班无主任可用
func TestScenario_InfeasiblePins(t *testing.T) {
	req := &scheduler.Request{
		Month:     "2024-04",
		Group:     "A",
		Employees: testEmployees(),
		Seed:      47,
	}
	for i := 1; i <= 6; i++ {
		req.Pins = append(req.Pins, model.PinnedAssignment{
			EmployeeID: fmt.Sprintf("e%d", i),
			Date:       "2024-04-03",
			Kind:       model.ShiftDay,
		})
	}

	_, err := testEngine().Generate(context.Background(), req)
	if !apperrors.Is(err, apperrors.CodeInfeasible) {
		t.Errorf("应返回 INFEASIBLE, got %v", err)
	}
}

// 回环：本月输出作为下月历史，锚点循环无缝衔接
func TestScenario_RoundTrip(t *testing.T) {
	engine := testEngine()

	april := &scheduler.Request{
		Month:     "2024-04",
		Group:     "A",
		Employees: testEmployees(),
		Seed:      48,
	}
	aprilResp, err := engine.Generate(context.Background(), april)
	if err != nil {
		t.Fatalf("4月生成失败: %v", err)
	}

	may := &scheduler.Request{
		Month:             "2024-05",
		Group:             "A",
		Employees:         testEmployees(),
		PreviousSchedules: aprilResp.Schedules,
		Seed:              49,
	}
	mayResp, err := engine.Generate(context.Background(), may)
	if err != nil {
		t.Fatalf("5月生成失败: %v", err)
	}

	// 4月锚点以 白,睡,睡 循环、末班为白班 -> 5月从睡1开始
	aprilAnchor := anchorKinds(aprilResp)
	if aprilAnchor[len(aprilAnchor)-1] != model.ShiftDay {
		t.Fatalf("4月末班 = %s", aprilAnchor[len(aprilAnchor)-1])
	}
	mayAnchor := anchorKinds(mayResp)
	expectedStart := []model.ShiftKind{model.ShiftSleep, model.ShiftSleep, model.ShiftDay}
	if !reflect.DeepEqual(mayAnchor[:3], expectedStart) {
		t.Errorf("5月开头 = %v, expected %v", mayAnchor[:3], expectedStart)
	}

	if !mayResp.Statistics.HasPreviousData {
		t.Error("5月应带有历史标记")
	}
	assertNoViolations(t, may, mayResp)
}

// 相同输入与种子产出完全一致
func TestScenario_DeterministicWithSeed(t *testing.T) {
	engine := testEngine()
	newReq := func() *scheduler.Request {
		return &scheduler.Request{
			Month:     "2024-04",
			Group:     "A",
			Employees: testEmployees(),
			Seed:      1234,
		}
	}

	r1, err := engine.Generate(context.Background(), newReq())
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	r2, err := engine.Generate(context.Background(), newReq())
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	if !reflect.DeepEqual(r1.Schedules, r2.Schedules) {
		t.Error("相同种子应产出相同排班")
	}
	if r1.Statistics.FairnessScore != r2.Statistics.FairnessScore {
		t.Error("相同种子统计应一致")
	}
}

// 入参错误
func TestScenario_InputErrors(t *testing.T) {
	engine := testEngine()

	t.Run("员工不足", func(t *testing.T) {
		req := &scheduler.Request{Month: "2024-04", Group: "A", Employees: testEmployees()[:16]}
		_, err := engine.Generate(context.Background(), req)
		if !apperrors.Is(err, apperrors.CodeRosterTooSmall) {
			t.Errorf("应返回 ROSTER_TOO_SMALL, got %v", err)
		}
	})

	t.Run("锚点锁定非法", func(t *testing.T) {
		req := &scheduler.Request{
			Month:     "2024-04",
			Group:     "A",
			Employees: testEmployees(),
			Pins:      []model.PinnedAssignment{{EmployeeID: "e1", Date: "2024-04-03", Kind: model.ShiftLateNight}},
		}
		_, err := engine.Generate(context.Background(), req)
		if !apperrors.Is(err, apperrors.CodePinInvalid) {
			t.Errorf("应返回 PIN_INVALID, got %v", err)
		}
	})

	t.Run("覆盖日期超出月份", func(t *testing.T) {
		req := &scheduler.Request{
			Month:                "2026-02",
			Group:                "A",
			Employees:            testEmployees(),
			FirstWorkDayOverride: 30,
		}
		_, err := engine.Generate(context.Background(), req)
		if !apperrors.Is(err, apperrors.CodeCalendarEmpty) {
			t.Errorf("应返回 CALENDAR_EMPTY, got %v", err)
		}
	})

	t.Run("非法月份", func(t *testing.T) {
		req := &scheduler.Request{Month: "2024/04", Group: "A", Employees: testEmployees()}
		_, err := engine.Generate(context.Background(), req)
		if !apperrors.Is(err, apperrors.CodeInvalidInput) {
			t.Errorf("应返回 INVALID_INPUT, got %v", err)
		}
	})

	t.Run("非法组别", func(t *testing.T) {
		req := &scheduler.Request{Month: "2024-04", Group: "X", Employees: testEmployees()}
		_, err := engine.Generate(context.Background(), req)
		if !apperrors.Is(err, apperrors.CodeInvalidInput) {
			t.Errorf("应返回 INVALID_INPUT, got %v", err)
		}
	})
}

// 首个工作日覆盖生效
func TestScenario_FirstWorkDayOverride(t *testing.T) {
	req := &scheduler.Request{
		Month:                "2024-04",
		Group:                "A",
		Employees:            testEmployees(),
		FirstWorkDayOverride: 1,
		Seed:                 50,
	}

	resp, err := testEngine().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	if resp.WorkDays[0] != "2024-04-01" {
		t.Errorf("首个工作日 = %s, expected 2024-04-01", resp.WorkDays[0])
	}
	if len(resp.WorkDays) != 10 {
		t.Errorf("工作日数 = %d, expected 10", len(resp.WorkDays))
	}
	assertNoViolations(t, req, resp)
}
