package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseEnv(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"dev", EnvDevelopment},
		{"test", EnvTest},
		{"prod", EnvProduction},
		{"production", EnvProduction},
		{"PROD", EnvProduction},
		{"", EnvDevelopment},
		{"bogus", EnvDevelopment},
	}
	for _, tt := range tests {
		if got := parseEnv(tt.in); got != tt.want {
			t.Errorf("parseEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 30 * 24 * time.Hour},
		{"720h", 720 * time.Hour},
		{"15m", 15 * time.Minute},
		{"not-a-duration", 30 * 24 * time.Hour},
		{"-1h", 30 * 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := parseTTL(tt.in, 30*24*time.Hour); got != tt.want {
			t.Errorf("parseTTL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg := Load()
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" || cfg.MongoDB != "lms_admin" {
		t.Errorf("Mongo = %q/%q", cfg.MongoURI, cfg.MongoDB)
	}
	if cfg.UserTokenTTL != 30*24*time.Hour || cfg.AdminTokenTTL != 7*24*time.Hour {
		t.Errorf("TTLs = %v/%v", cfg.UserTokenTTL, cfg.AdminTokenTTL)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
server:
  port: "9090"
database:
  uri: "mongodb://db.internal:27017"
  name: "lms_staging"
auth:
  user_token_ttl: "48h"
  dev_mode: true
sms:
  sender_id: "LMSOTP"
`
	mustWrite(t, filepath.Join(dir, "configs", "dev.yaml"), yaml)

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SMS_API_KEY", "karix-key")
	t.Setenv("MONGO_DB", "lms_override")

	cfg := Load()
	if cfg.APIPort != "9090" {
		t.Errorf("APIPort = %q, want 9090", cfg.APIPort)
	}
	if cfg.MongoURI != "mongodb://db.internal:27017" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
	// 环境变量覆盖 YAML
	if cfg.MongoDB != "lms_override" {
		t.Errorf("MongoDB = %q, want lms_override", cfg.MongoDB)
	}
	if cfg.UserTokenTTL != 48*time.Hour {
		t.Errorf("UserTokenTTL = %v, want 48h", cfg.UserTokenTTL)
	}
	if !cfg.Auth.DevMode {
		t.Error("DevMode not loaded")
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.SMS.APIKey != "karix-key" {
		t.Error("credentials not read from environment")
	}
	if cfg.SMS.SenderID != "LMSOTP" {
		t.Errorf("SenderID = %q", cfg.SMS.SenderID)
	}
}

func TestLoad_CredentialsNeverFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	// YAML 中写入的密钥字段必须被忽略
	mustWrite(t, filepath.Join(dir, "configs", "dev.yaml"), `
auth:
  jwtsecret: "leaked"
sms:
  apikey: "leaked"
`)

	cfg := Load()
	if cfg.Auth.JWTSecret == "leaked" || cfg.SMS.APIKey == "leaked" {
		t.Error("credentials loaded from YAML")
	}
}

func TestConfigString_NoCredentials(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "super-secret-value")

	s := Load().String()
	if strings.Contains(s, "super-secret-value") {
		t.Errorf("String() leaks secret: %s", s)
	}
}

// chdirTemp 切到临时目录，避免读到仓库里的 configs/ 与 .env
func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_DB", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SMS_API_KEY", "")
	return dir
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
