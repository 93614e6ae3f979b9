// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 为应用配置。零值字段由 Validate 填充默认值。
type Config struct {
	Cache      Cache  `yaml:"CACHE"`
	Server     Server `yaml:"SERVER"`
	Auth       Auth   `yaml:"AUTH"`
	Fetch      Fetch  `yaml:"FETCH"`
	Proxy      Proxy  `yaml:"PROXY"`
	View       View   `yaml:"VIEW"`
	ExportFile string `yaml:"EXPORT_FILE"`
	LogLevel   string `yaml:"LOG_LEVEL"`
	LogFormat  string `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale  string `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor   string `yaml:"LOG_COLOR"`  // auto|always|never
}

// Cache 描述原始行与登录标记的缓存后端。
type Cache struct {
	Type     string `yaml:"type"` // sqlite (default) | redis | memory
	DSN      string `yaml:"dsn"`  // sqlite 文件路径，默认 ./cache.db
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLHours int    `yaml:"ttl_hours"` // 仅 redis；0 表示不过期
}

// TTL 返回缓存过期时长，0 表示不过期。
func (c Cache) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug|release|test
}

// Addr 返回监听地址。
func (s Server) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

type Auth struct {
	Users           []User `yaml:"users"`
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// User 的 PasswordHash 为 bcrypt 哈希，不存明文。
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

type Fetch struct {
	TimeoutSeconds    int `yaml:"timeout_seconds"`
	Retry             int `yaml:"retry"`
	MinIntervalMillis int `yaml:"min_interval_ms"` // 0 表示不限速
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// View 为分页与预览长度。
type View struct {
	RowsPerPage   int `yaml:"rows_per_page"`
	CardsPerPage  int `yaml:"cards_per_page"`
	PreviewLength int `yaml:"preview_length"`
}

// Default 返回全部取默认值的配置，供未指定配置文件时使用。
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

func Load(path string) (*Config, error) {
	// Load 从文件读取 YAML 并反序列化为 Config，同时进行基础校验与默认值填充。
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
	switch c.Cache.Type {
	case "":
		c.Cache.Type = "sqlite"
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
	}
	if c.Cache.DSN == "" {
		c.Cache.DSN = "./cache.db"
	}
	if c.Cache.Host == "" {
		c.Cache.Host = "127.0.0.1"
	}
	if c.Cache.Port == 0 {
		c.Cache.Port = 6379
	}
	if c.Cache.TTLHours < 0 {
		return errors.New("CACHE.ttl_hours must be >= 0")
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER.port: %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "":
		c.Server.Mode = "release"
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid SERVER.mode: %s", c.Server.Mode)
	}
	for i, u := range c.Auth.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return fmt.Errorf("AUTH.users[%d]: username and password_hash required", i)
		}
	}
	if len(c.Auth.Users) > 0 && c.Auth.JWTSecret == "" {
		return errors.New("AUTH.jwt_secret required when users are configured")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		c.Auth.TokenTTLMinutes = 24 * 60
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = 20
	}
	if c.Fetch.Retry < 0 {
		c.Fetch.Retry = 2
	}
	if c.Fetch.MinIntervalMillis < 0 {
		return errors.New("FETCH.min_interval_ms must be >= 0")
	}
	if c.View.RowsPerPage <= 0 {
		c.View.RowsPerPage = 10
	}
	if c.View.CardsPerPage <= 0 {
		c.View.CardsPerPage = 6
	}
	if c.View.PreviewLength <= 0 {
		c.View.PreviewLength = 100
	}
	if c.ExportFile == "" {
		c.ExportFile = "linkedin_data_export.json"
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
