// LunBan 轮班排班引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lunban/lunban/internal/config"
	"github.com/lunban/lunban/internal/database"
	"github.com/lunban/lunban/internal/handler"
	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/internal/middleware"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/internal/rules"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/scheduler"
	"github.com/lunban/lunban/pkg/scheduler/solver"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 本地开发时从 .env 读取环境变量
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.App.LogLevel, "console")

	fmt.Printf("LunBan 轮班排班引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库连接失败时降级为无库模式：生成/校验/建议仍可用
	var db *database.DB
	var scheduleRepo *repository.ScheduleRepository
	var configRepo *repository.SystemConfigRepository
	var employeeRepo *repository.EmployeeRepository
	if !cfg.Database.Disabled {
		conn, err := database.Open(context.Background(), &cfg.Database)
		if err != nil {
			logger.Warn().Err(err).Msg("数据库不可用，以无库模式启动")
		} else {
			db = conn
			defer db.Close()
			migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := db.Migrate(migrateCtx); err != nil {
				logger.Warn().Err(err).Msg("初始化数据表失败")
			}
			cancel()
			scheduleRepo = repository.NewScheduleRepository(db)
			configRepo = repository.NewSystemConfigRepository(db)
			employeeRepo = repository.NewEmployeeRepository(db)
		}
	}

	solverOpts := solver.DefaultOptions()
	solverOpts.MaxTime = cfg.Scheduler.MaxTime
	solverOpts.MaxIterations = cfg.Scheduler.MaxIterations
	solverOpts.MaxRestarts = cfg.Scheduler.MaxRestarts

	engine := scheduler.NewEngine(solverOpts)
	scheduleHandler := handler.NewScheduleHandler(engine, scheduleRepo, configRepo)
	employeeHandler := handler.NewEmployeeHandler(employeeRepo)

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"degraded","service":"lunban","database":"down"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"lunban"}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Get().Handler())
	}

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "LunBan 轮班排班引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"validate": "POST /api/v1/schedule/validate",
					"suggest": "POST /api/v1/schedule/suggest",
					"save": "POST /api/v1/schedule/save",
					"export": "POST /api/v1/schedule/export",
					"workdays": "GET /api/v1/schedule/workdays"
				},
				"config": {
					"first_work_day": "POST /api/v1/config/first-work-day"
				},
				"employees": "GET|POST|PUT|DELETE /api/v1/employees",
				"rules": "GET /api/v1/rules"
			}
		}`))
	})

	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)
	mux.HandleFunc("/api/v1/schedule/validate", scheduleHandler.Validate)
	mux.HandleFunc("/api/v1/schedule/suggest", scheduleHandler.Suggest)
	mux.HandleFunc("/api/v1/schedule/save", scheduleHandler.Save)
	mux.HandleFunc("/api/v1/schedule/export", scheduleHandler.Export)
	mux.HandleFunc("/api/v1/schedule/workdays", scheduleHandler.WorkDays)
	mux.HandleFunc("/api/v1/config/first-work-day", scheduleHandler.SetFirstWorkDay)
	mux.HandleFunc("/api/v1/employees", employeeHandler.Handle)
	mux.HandleFunc("/api/v1/employees/", employeeHandler.Handle)

	mux.HandleFunc("/api/v1/rules", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(rules.CatalogResponse{Rules: rules.Catalog()}); err != nil {
			logger.WithError(err).Msg("写出规则目录失败")
		}
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      middleware.Recovery(middleware.Logging(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // 求解可能长时间占用
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("HTTP服务启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP服务异常退出")
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("收到退出信号，开始关闭")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("关闭HTTP服务失败")
	}
	logger.Info().Msg("服务已退出")
}
