// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
)

// respondJSON 输出JSON响应
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Msg("写出响应失败")
	}
}

// errorBody 结构化错误响应体
type errorBody struct {
	ErrorKind apperrors.Code `json:"error_kind"`
	Message   string         `json:"message"`
	Detail    string         `json:"detail,omitempty"`
}

// respondError 输出结构化错误
func respondError(w http.ResponseWriter, err error) {
	body := errorBody{
		ErrorKind: apperrors.GetCode(err),
		Message:   err.Error(),
	}
	if appErr, ok := err.(*apperrors.AppError); ok {
		body.Message = appErr.Message
		body.Detail = appErr.Detail
	}
	respondJSON(w, apperrors.GetHTTPStatus(err), body)
}

// decodeBody 解析JSON请求体
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败")
	}
	return nil
}

// requirePost 限制POST方法
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return false
	}
	return true
}
