// Package model 定义排班引擎的核心数据模型
package model

// ChiefCount 主任资质人数：显示顺序前6人具备主任资质
const ChiefCount = 6

// Employee 员工
type Employee struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Position         int    `json:"position"`           // 显示顺序（从0开始）
	IsChief          bool   `json:"is_chief"`           // 主任资质（由显示顺序派生）
	AvoidanceGroupID string `json:"avoidance_group_id,omitempty"` // 避让组
}

// AvoidanceGroup 避让组：组内成员不得在同一天上同一班次
type AvoidanceGroup struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	EmployeeIDs []string `json:"employee_ids"`
}

// Roster 员工花名册（保持显示顺序不变）
type Roster struct {
	employees []Employee
	byID      map[string]*Employee
}

// NewRoster 按显示顺序创建花名册，前6人标记为主任资质
func NewRoster(employees []Employee) *Roster {
	r := &Roster{
		employees: make([]Employee, len(employees)),
		byID:      make(map[string]*Employee, len(employees)),
	}
	copy(r.employees, employees)
	for i := range r.employees {
		r.employees[i].Position = i
		r.employees[i].IsChief = i < ChiefCount
		r.byID[r.employees[i].ID] = &r.employees[i]
	}
	return r
}

// Size 返回员工人数
func (r *Roster) Size() int {
	return len(r.employees)
}

// Employees 按显示顺序返回全部员工
func (r *Roster) Employees() []Employee {
	return r.employees
}

// At 返回指定显示位置的员工
func (r *Roster) At(position int) *Employee {
	if position < 0 || position >= len(r.employees) {
		return nil
	}
	return &r.employees[position]
}

// Anchor 返回锚点员工（显示位置0，遵循固定的1白2睡循环）
func (r *Roster) Anchor() *Employee {
	return r.At(0)
}

// ByID 按员工ID查找
func (r *Roster) ByID(id string) *Employee {
	return r.byID[id]
}

// IsChief 检查员工是否具备主任资质
func (r *Roster) IsChief(id string) bool {
	e := r.byID[id]
	return e != nil && e.IsChief
}

// IsAnchor 检查员工是否为锚点员工
func (r *Roster) IsAnchor(id string) bool {
	e := r.byID[id]
	return e != nil && e.Position == 0
}

// Chiefs 返回主任资质员工（显示位置0-5）
func (r *Roster) Chiefs() []Employee {
	if len(r.employees) < ChiefCount {
		return r.employees
	}
	return r.employees[:ChiefCount]
}

// Staff 返回普通员工（显示位置6起）
func (r *Roster) Staff() []Employee {
	if len(r.employees) <= ChiefCount {
		return nil
	}
	return r.employees[ChiefCount:]
}

// AvoidancePairs 展开避让组为成员两两组合
func AvoidancePairs(groups []AvoidanceGroup) [][2]string {
	var pairs [][2]string
	for _, g := range groups {
		ids := g.EmployeeIDs
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pairs = append(pairs, [2]string{ids[i], ids[j]})
			}
		}
	}
	return pairs
}
