// Package rules 规则目录：向前端描述引擎内置的硬约束与软惩罚
package rules

// RuleDefinition 规则定义
type RuleDefinition struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"` // hard 硬约束, soft 软约束
	Weight      int    `json:"weight,omitempty"`
	Description string `json:"description"`
}

// CatalogResponse 规则目录响应
type CatalogResponse struct {
	Rules []RuleDefinition `json:"rules"`
}

// Catalog 返回引擎的完整规则目录
func Catalog() []RuleDefinition {
	return []RuleDefinition{
		{
			Name:        "headcount",
			DisplayName: "每日定员",
			Type:        "hard",
			Description: "每个工作日恰好17人：白班6人、睡觉班5人、小夜班3人、大夜班3人，每人每天恰好一个班次。",
		},
		{
			Name:        "chief_coverage",
			DisplayName: "夜班主任席",
			Type:        "hard",
			Description: "睡觉班、小夜班、大夜班每天各有且仅有一名主任资质员工（显示顺序前6人）。",
		},
		{
			Name:        "anchor_cycle",
			DisplayName: "锚点循环",
			Type:        "hard",
			Description: "显示顺序第1人按\"1个白班+2个睡觉班\"循环排班，跨月相位由上月末班推导；锁定日以锁定为准。",
		},
		{
			Name:        "pinned_cells",
			DisplayName: "锁定单元格",
			Type:        "hard",
			Description: "用户锁定的单元格原样保留，求解器不得改动。",
		},
		{
			Name:        "avoidance_groups",
			DisplayName: "避让组",
			Type:        "hard",
			Description: "同一避让组的成员不得在同一天上同一班次。",
		},
		{
			Name:        "late_night_min_gap",
			DisplayName: "大夜班最小间隔",
			Type:        "hard",
			Description: "任意两次大夜班之间至少间隔3个工作日。",
		},
		{
			Name:        "day_min_gap",
			DisplayName: "白班最小间隔",
			Type:        "hard",
			Description: "普通员工不得连续两个工作日上白班；主任不得三连白班，每月两连白班不超过3次。",
		},
		{
			Name:        "no_consecutive_night",
			DisplayName: "禁止连续小夜/大夜",
			Type:        "hard",
			Description: "同一人不得在相邻工作日连续上小夜班或大夜班；白班和睡觉班允许连续。",
		},
		{
			Name:        "night_window",
			DisplayName: "夜班窗口限制",
			Type:        "hard",
			Description: "任意4个连续工作日内，同一人的夜班（睡觉/小夜/大夜）不超过3个。",
		},
		{
			Name:        "leader_day_consecutive",
			DisplayName: "主任连续白班",
			Type:        "soft",
			Weight:      1000,
			Description: "主任相邻两个工作日均为白班时每次计罚一次。",
		},
		{
			Name:        "late_gap_violation",
			DisplayName: "大夜班最大间隔",
			Type:        "soft",
			Weight:      500,
			Description: "大夜班间隔超过上限（主任5个、普通6个工作日）时计罚。",
		},
		{
			Name:        "day_gap_violation",
			DisplayName: "白班最大间隔",
			Type:        "soft",
			Weight:      500,
			Description: "非锚点员工任意4个连续工作日内没有白班时计罚。",
		},
		{
			Name:        "two_month_spread",
			DisplayName: "两月公平性",
			Type:        "soft",
			Weight:      200,
			Description: "本月与上月累计的各班次次数在员工间的极差（max-min），按班次求和。",
		},
		{
			Name:        "random_tiebreak",
			DisplayName: "随机扰动",
			Type:        "soft",
			Weight:      1,
			Description: "微小的随机偏好，用于在等优方案间打破对称，使不同种子产出不同方案。",
		},
	}
}
