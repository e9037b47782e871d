package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"todolis-backend/pkg/database"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 应用配置结构
type Config struct {
	// 环境配置
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"3000"`

	// 数据库配置
	UseLocalDB     bool   `env:"USE_LOCAL_DB" envDefault:"true"`
	LocalDataDir   string `env:"LOCAL_DATA_DIR" envDefault:"./data"`
	PostgresDSN    string `env:"POSTGRES_DSN"`
	PostgresDriver string `env:"POSTGRES_DRIVER" envDefault:"postgres"`
	SupabaseURL    string `env:"SUPABASE_URL"`
	SupabaseKey    string `env:"SUPABASE_SERVICE_KEY"`

	// 缓存配置. An empty RedisURL disables the summary cache.
	RedisURL        string        `env:"REDIS_URL"`
	SummaryCacheTTL time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"5m"`

	// CORS配置
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// HTTP
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	// 调试配置
	Debug bool `env:"DEBUG" envDefault:"false"`
}

// LoadConfig 加载配置（支持本地和Vercel环境）
func LoadConfig() (*Config, error) {
	// 根据环境加载对应的 .env 文件; variables already set win.
	switch os.Getenv("ENVIRONMENT") {
	case "production":
		loadEnvFiles(".env.production", ".env")
	default:
		loadEnvFiles(".env.local", ".env")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Trim whitespace to avoid trailing spaces/newlines from env sources
	cfg.PostgresDSN = strings.TrimSpace(cfg.PostgresDSN)
	cfg.SupabaseURL = strings.TrimSpace(cfg.SupabaseURL)
	cfg.SupabaseKey = strings.TrimSpace(cfg.SupabaseKey)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	for i, o := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(o)
	}

	// 环境特定配置
	if cfg.IsProduction() {
		// 生产环境强制使用外部数据库（PostgreSQL或Supabase）
		if cfg.PostgresDSN != "" || (cfg.SupabaseURL != "" && cfg.SupabaseKey != "") {
			cfg.UseLocalDB = false
		} else {
			fmt.Println("⚠️  WARNING: Production environment using local file database. Please configure POSTGRES_DSN or SUPABASE_URL+SUPABASE_SERVICE_KEY")
		}
		// 生产环境关闭调试
		cfg.Debug = false
	}

	return cfg, nil
}

// Cached config (initialized once per cold start)
var (
	cachedConfig *Config
	cachedErr    error
	configOnce   sync.Once
)

// GetCached returns the process-wide cached Config.
// On serverless (Vercel), it initializes once per cold start and
// reuses it across warm invocations, avoiding per-request parsing.
func GetCached() (*Config, error) {
	configOnce.Do(func() {
		cachedConfig, cachedErr = LoadConfig()
	})
	return cachedConfig, cachedErr
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.PostgresDriver {
	case database.DriverLibPQ, database.DriverPGX:
	default:
		return fmt.Errorf("POSTGRES_DRIVER must be %q or %q, got %q", database.DriverLibPQ, database.DriverPGX, c.PostgresDriver)
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	// 验证数据库配置
	if c.UseLocalDB || c.PostgresDSN != "" || (c.SupabaseURL != "" && c.SupabaseKey != "") {
		return nil
	}
	return fmt.Errorf("数据库配置不完整：请配置 POSTGRES_DSN 或 SUPABASE_URL+SUPABASE_SERVICE_KEY")
}

// DatabaseConfig projects the storage settings for database.NewPool.
func (c *Config) DatabaseConfig() database.DatabaseConfig {
	return database.DatabaseConfig{
		UseLocalDB:     c.UseLocalDB,
		LocalDataDir:   c.LocalDataDir,
		PostgresDSN:    c.PostgresDSN,
		PostgresDriver: c.PostgresDriver,
		SupabaseURL:    c.SupabaseURL,
		SupabaseKey:    c.SupabaseKey,
		Debug:          c.Debug,
	}
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// loadEnvFiles 加载存在的 .env 文件，文件不存在时静默跳过
func loadEnvFiles(filenames ...string) {
	for _, name := range filenames {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Printf("⚠️  Failed to load %s: %v\n", name, err)
		}
	}
}
