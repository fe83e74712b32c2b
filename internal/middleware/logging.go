// Package middleware 提供HTTP中间件
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/pkg/logger"
)

// statusWriter 记录响应状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Logging 请求日志中间件：生成请求ID、记录方法/路径/状态/耗时并上报指标
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", elapsed).
			Msg("请求完成")

		reg := metrics.Get()
		labels := fmt.Sprintf(`method="%s",path="%s"`, r.Method, r.URL.Path)
		reg.Counter("lunban_http_requests_total").Inc(fmt.Sprintf(`%s,status="%d"`, labels, sw.status))
		reg.Histogram("lunban_http_request_duration_seconds").ObserveDuration(labels, elapsed)
	})
}

// Recovery 恐慌恢复中间件
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error().
					Str("path", r.URL.Path).
					Interface("panic", p).
					Msg("请求处理恐慌")
				http.Error(w, `{"error_kind":"INTERNAL_ERROR","message":"内部错误"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
