// Package logger 基于 zerolog 的日志封装。
// 排班服务只写标准输出，级别来自配置，格式由调用方传入，其余一概从简。
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	setupOnce sync.Once
	base      zerolog.Logger
)

// Setup 初始化全局日志器。format 为 json 时输出结构化日志，
// 其余取控制台格式。重复调用只有第一次生效。
func Setup(level, format string) {
	setupOnce.Do(func() {
		lv, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil || lv == zerolog.NoLevel {
			lv = zerolog.InfoLevel
		}

		var out io.Writer = os.Stdout
		if format != "json" {
			out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		}
		base = zerolog.New(out).Level(lv).With().Timestamp().Logger()
	})
}

// Get 获取全局日志器，未初始化时按默认级别初始化
func Get() *zerolog.Logger {
	Setup("info", "console")
	return &base
}

// Component 返回带组件标记的子日志器，scheduler 与 db 子系统经由这一入口取得子日志器
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithError 记录带错误的日志
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// SchedulerLogger 排班求解器专用日志器
type SchedulerLogger struct {
	base zerolog.Logger
}

// NewSchedulerLogger 创建排班求解器日志器
func NewSchedulerLogger() *SchedulerLogger {
	return &SchedulerLogger{base: Component("scheduler")}
}

// StartSolve 记录求解开始
func (l *SchedulerLogger) StartSolve(month, group string, employees, workDays int, seed int64) {
	l.base.Info().
		Str("month", month).
		Str("group", group).
		Int("employees", employees).
		Int("work_days", workDays).
		Int64("seed", seed).
		Msg("开始生成排班")
}

// ConstraintViolation 记录约束违反
func (l *SchedulerLogger) ConstraintViolation(constraint, details string) {
	l.base.Warn().
		Str("constraint", constraint).
		Str("details", details).
		Msg("约束违反")
}

// SolveComplete 记录求解完成
func (l *SchedulerLogger) SolveComplete(month, group string, duration time.Duration, objective int64, fairness int) {
	l.base.Info().
		Str("month", month).
		Str("group", group).
		Dur("duration", duration).
		Int64("objective", objective).
		Int("fairness_score", fairness).
		Msg("排班生成完成")
}

// SolveFailed 记录求解失败
func (l *SchedulerLogger) SolveFailed(month, group string, err error) {
	l.base.Warn().
		Str("month", month).
		Str("group", group).
		Err(err).
		Msg("排班生成失败")
}
