// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lunban/lunban/pkg/errors"
)

// Employee 员工记录
type Employee struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	GroupID          string     `json:"group_id"`
	IsNightLeader    bool       `json:"is_night_leader"`
	SequenceOrder    int        `json:"sequence_order"`
	AvoidanceGroupID *uuid.UUID `json:"avoidance_group_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// AvoidanceRule 避让规则记录，成员ID以逗号分隔存储
type AvoidanceRule struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name,omitempty"`
	MemberIDs   []string  `json:"member_ids"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmployeeRepository 员工仓储
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// ListByGroup 按组别查询员工，按显示顺序排序
func (r *EmployeeRepository) ListByGroup(ctx context.Context, groupID string) ([]*Employee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, group_id, is_night_leader, sequence_order, avoidance_group_id, created_at, updated_at
		FROM employees
		WHERE group_id = $1
		ORDER BY sequence_order`, groupID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询员工失败")
	}
	defer rows.Close()

	var employees []*Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// GetByID 按ID查询员工
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, group_id, is_night_leader, sequence_order, avoidance_group_id, created_at, updated_at
		FROM employees
		WHERE id = $1`, id)

	e := &Employee{}
	var avoidID sql.NullString
	err := row.Scan(&e.ID, &e.Name, &e.GroupID, &e.IsNightLeader, &e.SequenceOrder, &avoidID, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("员工 %s 不存在", id))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询员工失败")
	}
	applyAvoidID(e, avoidID)
	return e, nil
}

// Create 创建员工。未指定显示顺序时排在组内末尾。
func (r *EmployeeRepository) Create(ctx context.Context, e *Employee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.SequenceOrder == 0 {
		var max sql.NullInt64
		err := r.db.QueryRowContext(ctx,
			`SELECT MAX(sequence_order) FROM employees WHERE group_id = $1`, e.GroupID).Scan(&max)
		if err == nil && max.Valid {
			e.SequenceOrder = int(max.Int64) + 1
		}
	}

	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, group_id, is_night_leader, sequence_order, avoidance_group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Name, e.GroupID, e.IsNightLeader, e.SequenceOrder, avoidIDValue(e), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "创建员工失败")
	}
	return nil
}

// Update 更新员工
func (r *EmployeeRepository) Update(ctx context.Context, e *Employee) error {
	e.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE employees
		SET name = $2, group_id = $3, is_night_leader = $4, sequence_order = $5, avoidance_group_id = $6, updated_at = $7
		WHERE id = $1`,
		e.ID, e.Name, e.GroupID, e.IsNightLeader, e.SequenceOrder, avoidIDValue(e), e.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "更新员工失败")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("员工 %s 不存在", e.ID))
	}
	return nil
}

// Delete 删除员工
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "删除员工失败")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("员工 %s 不存在", id))
	}
	return nil
}

// ListAvoidanceRules 查询全部避让规则
func (r *EmployeeRepository) ListAvoidanceRules(ctx context.Context) ([]*AvoidanceRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, COALESCE(name, ''), member_ids, COALESCE(description, ''), created_at
		FROM avoidance_rules
		ORDER BY created_at`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询避让规则失败")
	}
	defer rows.Close()

	var rules []*AvoidanceRule
	for rows.Next() {
		rule := &AvoidanceRule{}
		var members string
		if err := rows.Scan(&rule.ID, &rule.Name, &members, &rule.Description, &rule.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取避让规则失败")
		}
		if members != "" {
			rule.MemberIDs = strings.Split(members, ",")
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CreateAvoidanceRule 创建避让规则
func (r *EmployeeRepository) CreateAvoidanceRule(ctx context.Context, rule *AvoidanceRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO avoidance_rules (id, name, member_ids, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rule.ID, rule.Name, strings.Join(rule.MemberIDs, ","), rule.Description, rule.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "创建避让规则失败")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*Employee, error) {
	e := &Employee{}
	var avoidID sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &e.GroupID, &e.IsNightLeader, &e.SequenceOrder, &avoidID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取员工失败")
	}
	applyAvoidID(e, avoidID)
	return e, nil
}

func applyAvoidID(e *Employee, avoidID sql.NullString) {
	if avoidID.Valid {
		if id, err := uuid.Parse(avoidID.String); err == nil {
			e.AvoidanceGroupID = &id
		}
	}
}

func avoidIDValue(e *Employee) any {
	if e.AvoidanceGroupID == nil {
		return nil
	}
	return *e.AvoidanceGroupID
}
