// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/calendar"
	apperrors "github.com/lunban/lunban/pkg/errors"
)

// EmployeeHandler 员工处理器
type EmployeeHandler struct {
	repo *repository.EmployeeRepository
}

// NewEmployeeHandler 创建员工处理器
func NewEmployeeHandler(repo *repository.EmployeeRepository) *EmployeeHandler {
	return &EmployeeHandler{repo: repo}
}

// EmployeeInput 员工输入
type EmployeeInput struct {
	Name             string `json:"name"`
	GroupID          string `json:"group_id"`
	IsNightLeader    bool   `json:"is_night_leader"`
	SequenceOrder    int    `json:"sequence_order,omitempty"`
	AvoidanceGroupID string `json:"avoidance_group_id,omitempty"`
}

// Handle 路由 /api/v1/employees 与 /api/v1/employees/{id}
func (h *EmployeeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, apperrors.New(apperrors.CodeDatabaseError, "未连接数据库，员工管理不可用"))
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/employees")
	rest = strings.Trim(rest, "/")

	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.list(w, r)
	case rest == "" && r.Method == http.MethodPost:
		h.create(w, r)
	case rest != "" && r.Method == http.MethodPut:
		h.update(w, r, rest)
	case rest != "" && r.Method == http.MethodDelete:
		h.delete(w, r, rest)
	default:
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "不支持的方法或路径"))
	}
}

func (h *EmployeeHandler) list(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group_id")
	if calendar.GroupOffset(group) < 0 {
		respondError(w, apperrors.InvalidInput("group_id", "组别应为 A/B/C"))
		return
	}

	employees, err := h.repo.ListByGroup(r.Context(), group)
	if err != nil {
		respondError(w, err)
		return
	}
	if employees == nil {
		employees = []*repository.Employee{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"employees": employees})
}

func (h *EmployeeHandler) create(w http.ResponseWriter, r *http.Request) {
	var input EmployeeInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, err)
		return
	}
	if input.Name == "" {
		respondError(w, apperrors.InvalidInput("name", "姓名不能为空"))
		return
	}
	if calendar.GroupOffset(input.GroupID) < 0 {
		respondError(w, apperrors.InvalidInput("group_id", "组别应为 A/B/C"))
		return
	}

	e := &repository.Employee{
		Name:          input.Name,
		GroupID:       input.GroupID,
		IsNightLeader: input.IsNightLeader,
		SequenceOrder: input.SequenceOrder,
	}
	if input.AvoidanceGroupID != "" {
		id, err := uuid.Parse(input.AvoidanceGroupID)
		if err != nil {
			respondError(w, apperrors.InvalidInput("avoidance_group_id", "应为UUID"))
			return
		}
		e.AvoidanceGroupID = &id
	}

	if err := h.repo.Create(r.Context(), e); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (h *EmployeeHandler) update(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, apperrors.InvalidInput("id", "应为UUID"))
		return
	}

	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	var input EmployeeInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, err)
		return
	}
	if input.Name != "" {
		existing.Name = input.Name
	}
	if input.GroupID != "" {
		if calendar.GroupOffset(input.GroupID) < 0 {
			respondError(w, apperrors.InvalidInput("group_id", "组别应为 A/B/C"))
			return
		}
		existing.GroupID = input.GroupID
	}
	existing.IsNightLeader = input.IsNightLeader
	if input.SequenceOrder > 0 {
		existing.SequenceOrder = input.SequenceOrder
	}

	if err := h.repo.Update(r.Context(), existing); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func (h *EmployeeHandler) delete(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, apperrors.InvalidInput("id", "应为UUID"))
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
