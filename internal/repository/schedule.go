// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
)

// ShiftRow 已保存的单条班次记录
type ShiftRow struct {
	ID         uuid.UUID `json:"id"`
	Date       string    `json:"date"`
	GroupID    string    `json:"group_id"`
	EmployeeID string    `json:"employee_id"`
	ShiftType  string    `json:"shift_type"`
	SeatType   string    `json:"seat_type,omitempty"`
	Label      string    `json:"label,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScheduleRepository 排班仓储：保存与读取整月班表
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository 创建排班仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// SaveMonth 保存整月排班：先清空该月该组再整体写入。
// 底层支持事务时整月原子提交，避免清空后写入失败丢数据。
func (r *ScheduleRepository) SaveMonth(ctx context.Context, groupID string, schedules []model.DaySchedule) (int, error) {
	if runner, ok := r.db.(TxRunner); ok {
		saved := 0
		err := runner.Transaction(ctx, func(tx *sql.Tx) error {
			n, err := saveMonth(ctx, tx, groupID, schedules)
			saved = n
			return err
		})
		return saved, err
	}
	return saveMonth(ctx, r.db, groupID, schedules)
}

func saveMonth(ctx context.Context, db DB, groupID string, schedules []model.DaySchedule) (int, error) {
	if len(schedules) == 0 {
		return 0, nil
	}
	firstDate, lastDate := schedules[0].Date, schedules[0].Date
	for _, day := range schedules {
		if day.Date < firstDate {
			firstDate = day.Date
		}
		if day.Date > lastDate {
			lastDate = day.Date
		}
	}

	_, err := db.ExecContext(ctx, `
		DELETE FROM shifts
		WHERE group_id = $1 AND shift_date >= $2 AND shift_date <= $3`,
		groupID, firstDate, lastDate)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "清空旧排班失败")
	}

	saved := 0
	for _, day := range schedules {
		for _, rec := range day.Records {
			if rec.Kind == model.ShiftNone {
				continue
			}
			_, err := db.ExecContext(ctx, `
				INSERT INTO shifts (id, shift_date, group_id, employee_id, shift_type, seat_type, label, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.New(), day.Date, groupID, rec.EmployeeID, string(rec.Kind), string(rec.Seat), rec.Label, time.Now())
			if err != nil {
				return saved, apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存排班失败")
			}
			saved++
		}
	}
	return saved, nil
}

// MonthSchedules 读取某月某组的排班，按日期聚合
func (r *ScheduleRepository) MonthSchedules(ctx context.Context, year, month int, groupID string) ([]model.DaySchedule, error) {
	first := fmt.Sprintf("%04d-%02d-01", year, month)
	next := fmt.Sprintf("%04d-%02d-01", year, month+1)
	if month == 12 {
		next = fmt.Sprintf("%04d-01-01", year+1)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT shift_date, employee_id, shift_type, COALESCE(seat_type, ''), COALESCE(label, '')
		FROM shifts
		WHERE group_id = $1 AND shift_date >= $2 AND shift_date < $3
		ORDER BY shift_date`, groupID, first, next)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询排班失败")
	}
	defer rows.Close()

	var schedules []model.DaySchedule
	byDate := make(map[string]int)
	for rows.Next() {
		var date time.Time
		var rec model.ShiftRecord
		var kind, seat string
		if err := rows.Scan(&date, &rec.EmployeeID, &kind, &seat, &rec.Label); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取排班失败")
		}
		rec.Date = date.Format("2006-01-02")
		rec.Kind = model.ShiftKind(kind)
		rec.Seat = model.SeatKind(seat)

		idx, ok := byDate[rec.Date]
		if !ok {
			idx = len(schedules)
			byDate[rec.Date] = idx
			schedules = append(schedules, model.DaySchedule{Date: rec.Date})
		}
		schedules[idx].Records = append(schedules[idx].Records, rec)
	}
	return schedules, rows.Err()
}

// HasMonthData 检查某月某组是否已有排班
func (r *ScheduleRepository) HasMonthData(ctx context.Context, year, month int, groupID string) (bool, error) {
	first := fmt.Sprintf("%04d-%02d-01", year, month)
	next := fmt.Sprintf("%04d-%02d-01", year, month+1)
	if month == 12 {
		next = fmt.Sprintf("%04d-01-01", year+1)
	}

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM shifts
		WHERE group_id = $1 AND shift_date >= $2 AND shift_date < $3`,
		groupID, first, next).Scan(&count)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeDatabaseError, "统计排班失败")
	}
	return count > 0, nil
}

// UpdateShift 更新单个单元格：存在则改班次，不存在则插入
func (r *ScheduleRepository) UpdateShift(ctx context.Context, row *ShiftRow) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE shifts
		SET shift_type = $4, seat_type = $5, label = $6
		WHERE shift_date = $1 AND group_id = $2 AND employee_id = $3`,
		row.Date, row.GroupID, row.EmployeeID, row.ShiftType, row.SeatType, row.Label)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "更新班次失败")
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shifts (id, shift_date, group_id, employee_id, shift_type, seat_type, label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), row.Date, row.GroupID, row.EmployeeID, row.ShiftType, row.SeatType, row.Label, time.Now())
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "插入班次失败")
	}
	return nil
}

// SystemConfigRepository 系统配置仓储
type SystemConfigRepository struct {
	db DB
}

// NewSystemConfigRepository 创建系统配置仓储
func NewSystemConfigRepository(db DB) *SystemConfigRepository {
	return &SystemConfigRepository{db: db}
}

// Get 读取配置项，不存在返回空串
func (r *SystemConfigRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT config_value FROM system_config WHERE config_key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取配置失败")
	}
	return value, nil
}

// Set 写入配置项
func (r *SystemConfigRepository) Set(ctx context.Context, key, value, description string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_config (config_key, config_value, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (config_key)
		DO UPDATE SET config_value = EXCLUDED.config_value, updated_at = EXCLUDED.updated_at`,
		key, value, description, time.Now())
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "写入配置失败")
	}
	return nil
}

// AnchorConfig 读取锚点配置，未设置时返回默认值
func (r *SystemConfigRepository) AnchorConfig(ctx context.Context) (string, string, error) {
	date, err := r.Get(ctx, "anchor_date")
	if err != nil {
		return "", "", err
	}
	group, err := r.Get(ctx, "anchor_group")
	if err != nil {
		return "", "", err
	}
	if date == "" {
		date = "2024-01-01"
	}
	if group == "" {
		group = "A"
	}
	return date, group, nil
}

// FirstWorkDayKey 首个工作日覆盖配置的键
func FirstWorkDayKey(month, groupID string) string {
	return fmt.Sprintf("first_work_day_%s_%s", month, groupID)
}
