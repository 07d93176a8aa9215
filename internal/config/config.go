package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// 支持的数据库驱动。
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config 保存应用程序配置。
type Config struct {
	App      AppConfig      `json:"app"`
	Database DatabaseConfig `json:"database"`
	Security SecurityConfig `json:"security"`
}

// AppConfig 应用程序基础配置。
type AppConfig struct {
	Env      string `json:"env"`       // 运行环境: local / prod
	LogLevel string `json:"log_level"` // 日志级别: debug / info / warn / error
	HTTPAddr string `json:"http_addr"` // API 服务监听地址
}

// DatabaseConfig 数据库配置。
type DatabaseConfig struct {
	Driver string `json:"driver"` // sqlite / mysql
	DSN    string `json:"dsn"`    // sqlite 为文件路径，mysql 为连接字符串
}

// SecurityConfig 安全相关配置。
type SecurityConfig struct {
	JWTSecret  string        `json:"jwt_secret"` // JWT 签名密钥
	TokenTTL   time.Duration `json:"token_ttl"`  // 令牌有效期，0 表示永不过期
	BcryptCost int           `json:"-"`          // bcrypt 成本因子，固定为 10，仅测试中调低
}

// Load 从 JSON 文件加载配置。
//
// 它会尝试读取 configs/config.json 文件，如果不存在则使用默认值。
//
// 参数:
//
//	configPath: 配置文件路径（如果为空则使用默认路径 "configs/config.json")
//
// 返回值:
//
//	*Config: 加载完成的配置对象
//	error: 加载失败返回错误
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	// 如果配置文件不存在，使用默认配置
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		// 即使没有配置文件，也允许环境变量覆盖默认值
		applyEnvOverrides(cfg)
		normalizeDSN(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	normalizeDSN(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save 保存配置到 JSON 文件。
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate 校验配置的合法性。
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("jwt secret is empty")
	}
	if c.Security.TokenTTL < 0 {
		return fmt.Errorf("token ttl must not be negative")
	}
	return nil
}

// getDefaultConfig 返回默认配置。
func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:      "local",
			LogLevel: "info",
			HTTPAddr: ":3000",
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "myDatabase.db",
		},
		Security: SecurityConfig{
			JWTSecret:  "dev_secret_change_me",
			TokenTTL:   0,
			BcryptCost: 10,
		},
	}
}

// applyDefaults 对未设置的字段应用默认值。
func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaults.Database.Driver
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.DSN == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = defaults.Database.DSN
	}
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = defaults.Security.JWTSecret
	}
	if cfg.Security.BcryptCost == 0 {
		cfg.Security.BcryptCost = defaults.Security.BcryptCost
	}
}

func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.AutomaticEnv()

	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("db_host", "DB_HOST")
	_ = v.BindEnv("db_password", "DB_PASSWORD")

	if e := os.Getenv("APP_ENV"); e != "" {
		cfg.App.Env = e
	}
	if e := os.Getenv("APP_LOG_LEVEL"); e != "" {
		cfg.App.LogLevel = e
	}
	if e := os.Getenv("APP_HTTP_ADDR"); e != "" {
		cfg.App.HTTPAddr = e
	} else if e := os.Getenv("PORT"); e != "" {
		cfg.App.HTTPAddr = ":" + e
	}
	if e := os.Getenv("APP_TOKEN_TTL"); e != "" {
		if d, err := time.ParseDuration(e); err == nil {
			cfg.Security.TokenTTL = d
		}
	}
	if s := v.GetString("jwt_secret"); s != "" {
		cfg.Security.JWTSecret = s
	}

	if e := os.Getenv("DB_DRIVER"); e != "" {
		cfg.Database.Driver = strings.ToLower(strings.TrimSpace(e))
	}
	if e := os.Getenv("DB_DSN"); e != "" {
		cfg.Database.DSN = e
		return
	}
	if cfg.Database.Driver != DriverMySQL {
		return
	}
	if hasAnyEnv("DB_PORT", "DB_USER", "DB_NAME") || v.GetString("db_host") != "" || v.GetString("db_password") != "" {
		parsed := parseMySQLDSN(cfg.Database.DSN)
		if h := v.GetString("db_host"); h != "" {
			port := getenvDefault("DB_PORT", parsed.Addr, "3306")
			parsed.Addr = h + ":" + port
		} else if p := os.Getenv("DB_PORT"); p != "" {
			host := parsed.Addr
			if strings.Contains(host, ":") {
				host = strings.Split(host, ":")[0]
			}
			parsed.Addr = host + ":" + p
		}
		if u := os.Getenv("DB_USER"); u != "" {
			parsed.User = u
		}
		if p := v.GetString("db_password"); p != "" {
			parsed.Passwd = p
		}
		if n := os.Getenv("DB_NAME"); n != "" {
			parsed.DBName = n
		}
		cfg.Database.DSN = parsed.FormatDSN()
	}
}

// normalizeDSN 为 MySQL 连接强制设置 clientFoundRows，使 UPDATE 返回匹配行数而非变更行数，
// 这样重复写入相同值时不会被误判为任务不存在。
func normalizeDSN(cfg *Config) {
	if cfg.Database.Driver != DriverMySQL {
		return
	}
	parsed := parseMySQLDSN(cfg.Database.DSN)
	parsed.ClientFoundRows = true
	parsed.ParseTime = true
	cfg.Database.DSN = parsed.FormatDSN()
}

func hasAnyEnv(keys ...string) bool {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func getenvDefault(envKey, fallbackAddr, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if fallbackAddr == "" {
		return defaultValue
	}
	if strings.Contains(fallbackAddr, ":") {
		parts := strings.Split(fallbackAddr, ":")
		if len(parts) == 2 && parts[1] != "" {
			return parts[1]
		}
	}
	return defaultValue
}

func defaultMySQLConfig() *mysql.Config {
	c := mysql.NewConfig()
	c.User = "root"
	c.Net = "tcp"
	c.Addr = "localhost:3306"
	c.DBName = "taskmanager"
	return c
}

func parseMySQLDSN(dsn string) *mysql.Config {
	if dsn == "" {
		return defaultMySQLConfig()
	}
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return defaultMySQLConfig()
	}
	return parsed
}

// UnmarshalJSON 自定义 JSON 解析，支持时间 Duration 字符串。
func (s *SecurityConfig) UnmarshalJSON(data []byte) error {
	type Alias SecurityConfig
	aux := &struct {
		TokenTTL string `json:"token_ttl"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TokenTTL != "" {
		d, err := time.ParseDuration(aux.TokenTTL)
		if err != nil {
			return fmt.Errorf("invalid token_ttl format: %w", err)
		}
		s.TokenTTL = d
	}
	return nil
}

// MarshalJSON 自定义 JSON 序列化，将 Duration 转为字符串。
func (s SecurityConfig) MarshalJSON() ([]byte, error) {
	type Alias SecurityConfig
	return json.Marshal(&struct {
		TokenTTL string `json:"token_ttl"`
		*Alias
	}{
		TokenTTL: s.TokenTTL.String(),
		Alias:    (*Alias)(&s),
	})
}
