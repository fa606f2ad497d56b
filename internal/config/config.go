// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Engine   EngineConfig   `yaml:"engine"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	APIKey    string        `yaml:"api_key"`
	RateLimit int           `yaml:"rate_limit"` // 每秒请求数
	RateBurst int           `yaml:"rate_burst"`
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// EngineConfig 排程引擎配置
type EngineConfig struct {
	DefaultOffice      string        `yaml:"default_office"`
	SolveTimeBudget    time.Duration `yaml:"solve_time_budget"`
	MaxIterations      int           `yaml:"max_iterations"`
	Workers            int           `yaml:"workers"` // 1 = 逐位可复现
	Seed               int64         `yaml:"seed"`
	CandidateStartDays int           `yaml:"candidate_start_days"`
	MinConsecutiveDays int           `yaml:"min_consecutive_days"`
	LoanDays           int           `yaml:"loan_days"`
	CooldownDays       int           `yaml:"cooldown_days"`
	CostPerLoan        float64       `yaml:"cost_per_loan"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 加载配置：环境变量优先，可选的 YAML 文件（CONFIG_FILE）作为基底
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	return cfg, nil
}

// defaults 返回默认配置
func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:     "media-scheduler",
			Env:      "development",
			Port:     7012,
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "scheduler",
			User:            "scheduler",
			Password:        "scheduler123",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		API: APIConfig{
			RateLimit: 100,
			RateBurst: 200,
			Timeout:   30 * time.Second,
			CORS: CORSConfig{
				Enabled: true,
				Origins: []string{"*"},
			},
		},
		Engine: EngineConfig{
			SolveTimeBudget:    10 * time.Second,
			MaxIterations:      2000,
			Workers:            1,
			CandidateStartDays: 5,
			MinConsecutiveDays: 7,
			LoanDays:           7,
			CooldownDays:       30,
			CostPerLoan:        1000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// loadFile 从 YAML 文件覆盖默认值
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

// applyEnv 环境变量覆盖（最高优先级）
func (c *Config) applyEnv() {
	c.App.Name = getEnv("APP_NAME", c.App.Name)
	c.App.Env = getEnv("APP_ENV", c.App.Env)
	c.App.Port = getEnvInt("APP_PORT", c.App.Port)
	c.App.LogLevel = getEnv("APP_LOG_LEVEL", c.App.LogLevel)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)

	c.API.APIKey = getEnv("API_KEY", c.API.APIKey)
	c.API.RateLimit = getEnvInt("API_RATE_LIMIT", c.API.RateLimit)
	c.API.RateBurst = getEnvInt("API_RATE_BURST", c.API.RateBurst)
	c.API.Timeout = getEnvDuration("API_TIMEOUT", c.API.Timeout)
	c.API.CORS.Enabled = getEnvBool("API_CORS_ENABLED", c.API.CORS.Enabled)

	c.Engine.DefaultOffice = getEnv("ENGINE_DEFAULT_OFFICE", c.Engine.DefaultOffice)
	c.Engine.SolveTimeBudget = getEnvDuration("ENGINE_SOLVE_TIME_BUDGET", c.Engine.SolveTimeBudget)
	c.Engine.MaxIterations = getEnvInt("ENGINE_MAX_ITERATIONS", c.Engine.MaxIterations)
	c.Engine.Workers = getEnvInt("ENGINE_WORKERS", c.Engine.Workers)
	c.Engine.Seed = int64(getEnvInt("ENGINE_SEED", int(c.Engine.Seed)))
	c.Engine.CandidateStartDays = getEnvInt("ENGINE_CANDIDATE_START_DAYS", c.Engine.CandidateStartDays)
	c.Engine.MinConsecutiveDays = getEnvInt("ENGINE_MIN_CONSECUTIVE_DAYS", c.Engine.MinConsecutiveDays)
	c.Engine.LoanDays = getEnvInt("ENGINE_LOAN_DAYS", c.Engine.LoanDays)
	c.Engine.CooldownDays = getEnvInt("ENGINE_COOLDOWN_DAYS", c.Engine.CooldownDays)
	c.Engine.CostPerLoan = getEnvFloat("ENGINE_COST_PER_LOAN", c.Engine.CostPerLoan)

	c.Metrics.Enabled = getEnvBool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Path = getEnv("METRICS_PATH", c.Metrics.Path)
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
