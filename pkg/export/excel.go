// Package export 提供排班表的 Excel 导出
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lunban/lunban/pkg/model"
)

// shiftFills 各班次的底色
var shiftFills = map[model.ShiftKind]string{
	model.ShiftDay:       "FFF3E0",
	model.ShiftSleep:     "E3F2FD",
	model.ShiftMiniNight: "F3E5F5",
	model.ShiftLateNight: "FCE4EC",
	model.ShiftVacation:  "E8F5E9",
	model.ShiftNone:      "FAFAFA",
}

const headerFill = "4A90D9"

// ToExcel 导出整月排班表：行是日期，列是显示顺序下的员工，
// 附带每人各班次次数的汇总页。
func ToExcel(month, group string, schedules []model.DaySchedule, employees []model.Employee) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%s %s组排班表", month, group)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("重命名工作表失败: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("创建表头样式失败: %w", err)
	}

	cellStyles := make(map[model.ShiftKind]int, len(shiftFills))
	for kind, fill := range shiftFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorder(),
		})
		if err != nil {
			return nil, fmt.Errorf("创建单元格样式失败: %w", err)
		}
		cellStyles[kind] = style
	}

	// 表头：日期、星期、各员工
	setCell(f, sheet, 1, 1, "日期", headerStyle)
	setCell(f, sheet, 2, 1, "星期", headerStyle)
	for i, e := range employees {
		setCell(f, sheet, 3+i, 1, e.Name, headerStyle)
	}

	// 数据行
	for row, day := range schedules {
		r := row + 2
		setCell(f, sheet, 1, r, day.Date, cellStyles[model.ShiftNone])
		setCell(f, sheet, 2, r, day.DayOfWeek, cellStyles[model.ShiftNone])

		for col, e := range employees {
			kind := model.ShiftNone
			if rec := day.RecordFor(e.ID); rec != nil {
				kind = rec.Kind
			}
			style, ok := cellStyles[kind]
			if !ok {
				style = cellStyles[model.ShiftNone]
			}
			setCell(f, sheet, 3+col, r, kind.Label(), style)
		}
	}

	// 列宽
	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 8)
	if len(employees) > 0 {
		last, _ := excelize.ColumnNumberToName(2 + len(employees))
		_ = f.SetColWidth(sheet, "C", last, 6)
	}

	if err := addSummarySheet(f, schedules, employees, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("写出Excel失败: %w", err)
	}
	return buf, nil
}

// addSummarySheet 汇总页：每人各班次次数
func addSummarySheet(f *excelize.File, schedules []model.DaySchedule, employees []model.Employee, headerStyle int) error {
	const sheet = "班次汇总"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("创建汇总页失败: %w", err)
	}

	counts := make(map[string]map[model.ShiftKind]int, len(employees))
	for _, day := range schedules {
		for _, rec := range day.Records {
			if !rec.Kind.IsWorking() {
				continue
			}
			if counts[rec.EmployeeID] == nil {
				counts[rec.EmployeeID] = make(map[model.ShiftKind]int)
			}
			counts[rec.EmployeeID][rec.Kind]++
		}
	}

	setCell(f, sheet, 1, 1, "员工", headerStyle)
	for i, kind := range model.WorkingShiftKinds {
		setCell(f, sheet, 2+i, 1, kind.Name(), headerStyle)
	}
	setCell(f, sheet, 2+len(model.WorkingShiftKinds), 1, "合计", headerStyle)

	for row, e := range employees {
		r := row + 2
		setCell(f, sheet, 1, r, e.Name, 0)
		total := 0
		for i, kind := range model.WorkingShiftKinds {
			n := counts[e.ID][kind]
			total += n
			setCell(f, sheet, 2+i, r, n, 0)
		}
		setCell(f, sheet, 2+len(model.WorkingShiftKinds), r, total, 0)
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}, style int) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	_ = f.SetCellValue(sheet, cell, value)
	if style != 0 {
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
}

func thinBorder() []excelize.Border {
	var borders []excelize.Border
	for _, side := range []string{"left", "right", "top", "bottom"} {
		borders = append(borders, excelize.Border{Type: side, Style: 1, Color: "000000"})
	}
	return borders
}
