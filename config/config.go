package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Data     DataConfig     `yaml:"data"`
	Chat     ChatConfig     `yaml:"chat"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql, postgres
	DSN  string `yaml:"dsn"`
}

type LLMConfig struct {
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	// Timeout 为 0 时沿用底层 HTTP 客户端默认值
	Timeout time.Duration `yaml:"timeout"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

type ChatConfig struct {
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
	SweepInterval      time.Duration `yaml:"sweep_interval"`
}

// ErrMissingAPIKey 未配置模型服务凭证
var ErrMissingAPIKey = errors.New("model service credential is not configured")

// ConfigurationError 配置错误，启动阶段直接失败
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/medisync.db",
		},
		LLM: LLMConfig{
			// Gemini 的 OpenAI 兼容入口
			APIURL:    "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:     "gemini-2.0-flash",
			MaxTokens: 4096,
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Chat: ChatConfig{
			SessionIdleTimeout: 2 * time.Hour,
			SweepInterval:      5 * time.Minute,
		},
	}
}

func loadConfig() *Config {
	config := Default()

	// .env 不存在时忽略
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	applyEnv(config)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
		if os.Getenv("DB_DSN") == "" && config.Database.Type == "sqlite" {
			config.Database.DSN = filepath.Join(dataDir, "medisync.db")
		}
	}
}

// Validate 校验启动必需的配置项
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return &ConfigurationError{Field: "llm.api_key", Err: ErrMissingAPIKey}
	}
	if c.LLM.APIURL == "" {
		return &ConfigurationError{Field: "llm.api_url", Err: errors.New("must not be empty")}
	}
	if c.LLM.Model == "" {
		return &ConfigurationError{Field: "llm.model", Err: errors.New("must not be empty")}
	}
	return nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
