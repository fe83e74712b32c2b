// Package model 定义排班引擎的核心数据模型
package model

// ShiftKind 班次类型
type ShiftKind string

const (
	ShiftDay       ShiftKind = "DAY"        // 白班
	ShiftSleep     ShiftKind = "SLEEP"      // 睡觉班
	ShiftMiniNight ShiftKind = "MINI_NIGHT" // 小夜班
	ShiftLateNight ShiftKind = "LATE_NIGHT" // 大夜班
	ShiftVacation  ShiftKind = "VACATION"   // 休假（仅作为输入出现）
	ShiftCustom    ShiftKind = "CUSTOM"     // 自定义（仅作为输入出现）
	ShiftNone      ShiftKind = "NONE"       // 无（仅作为输入出现）
)

// WorkingShiftKinds 工作班次（按定员配置顺序）
var WorkingShiftKinds = []ShiftKind{ShiftDay, ShiftSleep, ShiftMiniNight, ShiftLateNight}

// NightShiftKinds 夜班班次（每班需要且仅需要一个主任席）
var NightShiftKinds = []ShiftKind{ShiftSleep, ShiftMiniNight, ShiftLateNight}

// ShiftHeadcount 各工作班次的每日定员
var ShiftHeadcount = map[ShiftKind]int{
	ShiftDay:       6,
	ShiftSleep:     5,
	ShiftMiniNight: 3,
	ShiftLateNight: 3,
}

// TotalHeadcount 每个工作日的总定员（各班次定员之和）
const TotalHeadcount = 17

// IsWorking 检查是否为工作班次
func (k ShiftKind) IsWorking() bool {
	switch k {
	case ShiftDay, ShiftSleep, ShiftMiniNight, ShiftLateNight:
		return true
	}
	return false
}

// IsNight 检查是否为夜班班次
func (k ShiftKind) IsNight() bool {
	switch k {
	case ShiftSleep, ShiftMiniNight, ShiftLateNight:
		return true
	}
	return false
}

// Label 返回班次的表格显示标签
func (k ShiftKind) Label() string {
	switch k {
	case ShiftDay:
		return "白"
	case ShiftSleep:
		return "睡"
	case ShiftMiniNight:
		return "小夜"
	case ShiftLateNight:
		return "大夜"
	case ShiftVacation:
		return "休"
	}
	return ""
}

// Name 返回班次的中文名称
func (k ShiftKind) Name() string {
	switch k {
	case ShiftDay:
		return "白班"
	case ShiftSleep:
		return "睡觉班"
	case ShiftMiniNight:
		return "小夜班"
	case ShiftLateNight:
		return "大夜班"
	case ShiftVacation:
		return "休假"
	}
	return "无"
}

// SeatKind 席位类型（班次内的具体坐席）
type SeatKind string

const (
	SeatDayRegular       SeatKind = "DAY_REGULAR"
	SeatSleepChief       SeatKind = "SLEEP_CHIEF"
	SeatSleepNorthwest   SeatKind = "SLEEP_NORTHWEST"
	SeatSleepSoutheast   SeatKind = "SLEEP_SOUTHEAST"
	SeatMiniNightChief   SeatKind = "MINI_NIGHT_CHIEF"
	SeatMiniNightRegular SeatKind = "MINI_NIGHT_REGULAR"
	SeatLateNightChief   SeatKind = "LATE_NIGHT_CHIEF"
	SeatLateNightRegular SeatKind = "LATE_NIGHT_REGULAR"
)

// SeatSlot 席位定义
type SeatSlot struct {
	Seat          SeatKind
	Count         int
	RequiresChief bool
}

// SeatPlan 各班次的席位布局，各班次席位数之和等于该班次定员
var SeatPlan = map[ShiftKind][]SeatSlot{
	ShiftDay: {
		{Seat: SeatDayRegular, Count: 6},
	},
	ShiftSleep: {
		{Seat: SeatSleepChief, Count: 1, RequiresChief: true},
		{Seat: SeatSleepNorthwest, Count: 2},
		{Seat: SeatSleepSoutheast, Count: 2},
	},
	ShiftMiniNight: {
		{Seat: SeatMiniNightChief, Count: 1, RequiresChief: true},
		{Seat: SeatMiniNightRegular, Count: 2},
	},
	ShiftLateNight: {
		{Seat: SeatLateNightChief, Count: 1, RequiresChief: true},
		{Seat: SeatLateNightRegular, Count: 2},
	},
}
