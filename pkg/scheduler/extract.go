// Package scheduler 排班引擎编排
package scheduler

import (
	"github.com/lunban/lunban/pkg/calendar"
	"github.com/lunban/lunban/pkg/model"
)

// extract 把求解器的分配张量物化为按日期排序的排班记录（员工按显示顺序），
// 同时累计各员工各班次的本月计数。
func extract(roster *model.Roster, workDays []string, assignment [][]model.ShiftKind) ([]model.DaySchedule, map[string]map[model.ShiftKind]int) {
	employees := roster.Employees()

	counts := make(map[string]map[model.ShiftKind]int, len(employees))
	for _, e := range employees {
		counts[e.ID] = make(map[model.ShiftKind]int, len(model.WorkingShiftKinds))
	}

	schedules := make([]model.DaySchedule, 0, len(workDays))
	for d, date := range workDays {
		seats := assignSeats(employees, assignment[d])

		records := make([]model.ShiftRecord, 0, len(employees))
		for i, e := range employees {
			kind := assignment[d][i]
			counts[e.ID][kind]++
			records = append(records, model.ShiftRecord{
				EmployeeID: e.ID,
				Date:       date,
				Kind:       kind,
				Seat:       seats[i],
			})
		}

		schedules = append(schedules, model.DaySchedule{
			Date:      date,
			DayOfWeek: calendar.DayOfWeekCN(date),
			Records:   records,
		})
	}
	return schedules, counts
}

// assignSeats 按席位布局给当天每名员工分配席位：主任席归该班次中
// 唯一的主任资质员工，其余席位按显示顺序依次落座。
func assignSeats(employees []model.Employee, kinds []model.ShiftKind) []model.SeatKind {
	seats := make([]model.SeatKind, len(employees))

	for _, kind := range model.WorkingShiftKinds {
		plan := model.SeatPlan[kind]

		// 展开普通席位队列
		var queue []model.SeatKind
		var chiefSeat model.SeatKind
		for _, slot := range plan {
			if slot.RequiresChief {
				chiefSeat = slot.Seat
				continue
			}
			for i := 0; i < slot.Count; i++ {
				queue = append(queue, slot.Seat)
			}
		}

		chiefTaken := false
		next := 0
		for i, e := range employees {
			if kinds[i] != kind {
				continue
			}
			if chiefSeat != "" && !chiefTaken && e.IsChief {
				seats[i] = chiefSeat
				chiefTaken = true
				continue
			}
			if next < len(queue) {
				seats[i] = queue[next]
				next++
			} else {
				seats[i] = queue[len(queue)-1]
			}
		}
	}
	return seats
}
