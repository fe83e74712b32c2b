// Package calendar 计算"做一休二"轮换制下各组的工作日
package calendar

import (
	"fmt"
	"time"
)

// 默认锚点：2024-01-01 为 A 组工作日
const (
	DefaultAnchorDate  = "2024-01-01"
	DefaultAnchorGroup = "A"
	CycleLength        = 3 // 做一休二：上1天休2天
)

const dateLayout = "2006-01-02"

// weekdayNamesCN 中文星期名（周日起，按 time.Weekday 索引）
var weekdayNamesCN = []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// Calendar 基于锚点的工作日日历
type Calendar struct {
	anchorDate  time.Time
	anchorGroup string
}

// New 创建日历。锚点日期为锚点组的工作日。
func New(anchorDate, anchorGroup string) (*Calendar, error) {
	t, err := time.Parse(dateLayout, anchorDate)
	if err != nil {
		return nil, fmt.Errorf("解析锚点日期失败: %w", err)
	}
	if GroupOffset(anchorGroup) < 0 {
		return nil, fmt.Errorf("无效的组别: %s", anchorGroup)
	}
	return &Calendar{anchorDate: t, anchorGroup: anchorGroup}, nil
}

// Default 返回使用默认锚点的日历
func Default() *Calendar {
	c, _ := New(DefaultAnchorDate, DefaultAnchorGroup)
	return c
}

// GroupOffset 返回组别相对 A 组的天数偏移，未知组别返回 -1
func GroupOffset(group string) int {
	switch group {
	case "A":
		return 0
	case "B":
		return 1
	case "C":
		return 2
	}
	return -1
}

// IsWorkDay 检查某天是否为指定组的工作日
func (c *Calendar) IsWorkDay(date time.Time, group string) bool {
	offset := GroupOffset(group)
	if offset < 0 {
		return false
	}
	anchorOffset := GroupOffset(c.anchorGroup)
	days := int(date.Sub(c.anchorDate).Hours() / 24)
	adjusted := days - (offset - anchorOffset)
	return ((adjusted % CycleLength) + CycleLength) % CycleLength == 0
}

// WorkDaysInMonth 返回某月中指定组的全部工作日（升序，YYYY-MM-DD）
func (c *Calendar) WorkDaysInMonth(year, month int, group string) []string {
	var workDays []string
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == time.Month(month); d = d.AddDate(0, 0, 1) {
		if c.IsWorkDay(d, group) {
			workDays = append(workDays, d.Format(dateLayout))
		}
	}
	return workDays
}

// WorkDaysFromFirstDay 从运营方指定的首个工作日起，每隔2天生成整月工作日。
// 覆盖锚点公式，用于该(月,组)的人工校准。
func WorkDaysFromFirstDay(year, month, firstDay int) []string {
	var workDays []string
	for day := firstDay; ; day += CycleLength {
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if d.Month() != time.Month(month) || day < 1 {
			break
		}
		workDays = append(workDays, d.Format(dateLayout))
	}
	return workDays
}

// DayOfWeekCN 返回日期的中文星期名，解析失败返回空串
func DayOfWeekCN(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return ""
	}
	return weekdayNamesCN[int(t.Weekday())]
}

// ParseMonth 解析 YYYY-MM 格式的月份
func ParseMonth(month string) (int, int, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0, 0, fmt.Errorf("解析月份失败: %w", err)
	}
	return t.Year(), int(t.Month()), nil
}

// DaysBetween 返回两个日期相差的天数（b - a）
func DaysBetween(a, b string) (int, error) {
	ta, err := time.Parse(dateLayout, a)
	if err != nil {
		return 0, err
	}
	tb, err := time.Parse(dateLayout, b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}
