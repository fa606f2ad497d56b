// 媒体车队周排程服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aininja-pro/media-scheduler-sub000/internal/config"
	"github.com/aininja-pro/media-scheduler-sub000/internal/database"
	"github.com/aininja-pro/media-scheduler-sub000/internal/handler"
	"github.com/aininja-pro/media-scheduler-sub000/internal/metrics"
	"github.com/aininja-pro/media-scheduler-sub000/internal/middleware"
	"github.com/aininja-pro/media-scheduler-sub000/internal/office"
	"github.com/aininja-pro/media-scheduler-sub000/internal/repository"
	"github.com/aininja-pro/media-scheduler-sub000/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: logFormat(cfg),
	})

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("env", cfg.App.Env).
		Msg("媒体车队周排程服务启动中")

	// 数据库连接：开发环境允许无库启动（全内联输入模式）
	var store *handler.Store
	db, err := database.New(&cfg.Database)
	if err != nil {
		if cfg.IsProduction() {
			logger.Fatal().Err(err).Msg("数据库连接失败")
		}
		logger.Warn().Err(err).Msg("数据库不可用，仅支持内联输入请求")
	} else {
		defer db.Close()
		store = &handler.Store{
			Vehicles: repository.NewVehicleRepository(db),
			Partners: repository.NewPartnerRepository(db),
			Loans:    repository.NewLoanRepository(db),
		}
	}

	// 办公室注册表
	offices := office.NewRegistry()
	if err := offices.Register(office.CreateDefaultOffice()); err != nil {
		logger.Fatal().Err(err).Msg("注册默认办公室失败")
	}
	if cfg.Engine.DefaultOffice != "" && cfg.Engine.DefaultOffice != "LAX" {
		_ = offices.Register(&office.Office{
			Code:     cfg.Engine.DefaultOffice,
			Name:     cfg.Engine.DefaultOffice,
			Status:   "active",
			Settings: office.DefaultSettings(),
		})
	}

	m := metrics.NewMetrics()
	scheduleHandler := handler.NewScheduleHandler(offices, cfg.Engine, store, m)
	diagnoseHandler := handler.NewDiagnoseHandler(offices, cfg.Engine)

	mux := http.NewServeMux()

	// 系统端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"media-scheduler"}`))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "媒体车队周排程 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"validate": "POST /api/v1/schedule/validate",
					"diagnose": "POST /api/v1/schedule/diagnose"
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"utilization": "POST /api/v1/stats/utilization"
				}
			}
		}`))
	})

	// 排程 API
	mux.Handle("/api/v1/schedule/generate", m.WrapHandler("/api/v1/schedule/generate", http.HandlerFunc(scheduleHandler.Generate)))
	mux.Handle("/api/v1/schedule/validate", m.WrapHandler("/api/v1/schedule/validate", http.HandlerFunc(scheduleHandler.Validate)))
	mux.Handle("/api/v1/schedule/diagnose", m.WrapHandler("/api/v1/schedule/diagnose", http.HandlerFunc(diagnoseHandler.Diagnose)))

	// 约束库 API
	mux.HandleFunc("/api/v1/constraints/library", handler.GetConstraintLibraryHandler)

	// 统计分析 API
	mux.HandleFunc("/api/v1/stats/fairness", handler.GetFairnessHandler)
	mux.HandleFunc("/api/v1/stats/utilization", handler.GetUtilizationHandler)

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, m.Handler())
	}

	// 中间件执行顺序：requestID -> recovery -> rateLimit -> cors -> auth -> securityHeaders -> logging
	root := middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		middleware.RecoveryMiddleware,
		middleware.RateLimitMiddleware(cfg.API),
		middleware.CORSMiddleware(cfg.API.CORS),
		middleware.AuthMiddleware(&middleware.AuthConfig{
			APIKey:    cfg.API.APIKey,
			SkipPaths: []string{"/health", "/version", cfg.Metrics.Path},
		}),
		middleware.SecurityHeadersMiddleware,
		middleware.LoggingMiddleware,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// logFormat 生产环境输出JSON，其余输出控制台格式
func logFormat(cfg *config.Config) string {
	if cfg.IsProduction() {
		return "json"
	}
	return "console"
}
