// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 凭据单一数据源：JWT 密钥、短信网关 Key、超管密码只存在 .env 中，
// YAML 中不存储任何密码。
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lms-admin/internal/shared/delivery"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig         `yaml:"server"`
	Database DatabaseConfig       `yaml:"database"`
	Redis    RedisConfig          `yaml:"redis"`
	Auth     AuthConfig           `yaml:"auth"`
	SMS      delivery.KarixConfig `yaml:"sms"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	URI  string `yaml:"uri"`  // MongoDB 连接 URI
	Name string `yaml:"name"` // 数据库名
}

type RedisConfig struct {
	URL string `yaml:"url"` // 为空则禁用重发冷却缓存
}

// AuthConfig 认证配置
// 注意：JWTSecret/AdminEmail/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret     string `yaml:"-"`               // 只从 JWT_SECRET 环境变量读取
	UserTokenTTL  string `yaml:"user_token_ttl"`  // 例如 "720h"
	AdminTokenTTL string `yaml:"admin_token_ttl"` // 例如 "168h"
	DevMode       bool   `yaml:"dev_mode"`        // 注册核验跳过码值比对（仅开发）
	AdminEmail    string `yaml:"-"`               // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword string `yaml:"-"`               // 只从 ADMIN_PASSWORD 环境变量读取
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env      Environment
	APIPort  string
	MongoURI string
	MongoDB  string
	RedisURL string
	Auth     AuthConfig
	SMS      delivery.KarixConfig

	UserTokenTTL  time.Duration
	AdminTokenTTL time.Duration
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息
	yamlCfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	yamlCfg.Auth.AdminEmail = getEnv("ADMIN_EMAIL", "")
	yamlCfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", "")
	yamlCfg.SMS.APIKey = getEnv("SMS_API_KEY", "")

	// 环境变量覆盖 YAML
	if v := os.Getenv("PORT"); v != "" {
		yamlCfg.Server.Port = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		yamlCfg.Database.URI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		yamlCfg.Database.Name = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		yamlCfg.Redis.URL = v
	}

	cfg := &Config{
		Env:           env,
		APIPort:       yamlCfg.Server.Port,
		MongoURI:      yamlCfg.Database.URI,
		MongoDB:       yamlCfg.Database.Name,
		RedisURL:      yamlCfg.Redis.URL,
		Auth:          yamlCfg.Auth,
		SMS:           yamlCfg.SMS,
		UserTokenTTL:  parseTTL(yamlCfg.Auth.UserTokenTTL, 30*24*time.Hour),
		AdminTokenTTL: parseTTL(yamlCfg.Auth.AdminTokenTTL, 7*24*time.Hour),
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{URI: "mongodb://localhost:27017", Name: "lms_admin"},
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（不含任何凭据）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Port: %s, DB: %s/%s, Redis: %s}",
		c.Env, c.APIPort, c.MongoURI, c.MongoDB, c.RedisURL)
}
