package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 4000 || cfg.HTTP.RedirectPort != 4001 {
		t.Errorf("ports = %d/%d", cfg.HTTP.Port, cfg.HTTP.RedirectPort)
	}
	if cfg.Chat.YieldEvery != 100 || cfg.Chat.YieldPause != 100*time.Millisecond {
		t.Errorf("yield = %d/%v", cfg.Chat.YieldEvery, cfg.Chat.YieldPause)
	}
	if cfg.Captcha.MinScore != 0.1 {
		t.Errorf("min score = %v", cfg.Captcha.MinScore)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9000
chat:
  yield_every: 10
  yield_pause: 5ms
nats:
  servers: ["nats://a:4222", "nats://b:4222"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("unset host lost its default: %q", cfg.HTTP.Host)
	}
	if cfg.Chat.YieldEvery != 10 || cfg.Chat.YieldPause != 5*time.Millisecond {
		t.Errorf("chat = %+v", cfg.Chat)
	}
	if len(cfg.Nats.Servers) != 2 {
		t.Errorf("servers = %v", cfg.Nats.Servers)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":          "4443",
		"RECAPTCHA_KEY": "s3cret",
		"NATS_URL":      "nats://x:4222,nats://y:4222",
		"REDIS_DB":      "3",
		"LOG_COLOR":     "false",
	}
	cfg := Default()
	err := applyEnv(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("applyEnv: %v", err)
	}

	if cfg.HTTP.Port != 4443 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Captcha.Secret != "s3cret" {
		t.Errorf("secret = %q", cfg.Captcha.Secret)
	}
	if len(cfg.Nats.Servers) != 2 || cfg.Nats.Servers[0] != "nats://x:4222" {
		t.Errorf("servers = %v", cfg.Nats.Servers)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("redis db = %d", cfg.Redis.DB)
	}
	if cfg.Log.Color {
		t.Error("LOG_COLOR=false not applied")
	}
	if cfg.Captcha.Endpoint == "" {
		t.Error("untouched default was cleared")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"port", func(c *AppConfig) { c.HTTP.Port = 0 }},
		{"redirect port high", func(c *AppConfig) { c.HTTP.RedirectPort = 70000 }},
		{"redirect port negative", func(c *AppConfig) { c.HTTP.RedirectPort = -1 }},
		{"half tls", func(c *AppConfig) { c.HTTP.TLSCert = "cert.pem" }},
		{"yield", func(c *AppConfig) { c.Chat.YieldEvery = 0 }},
		{"buffer", func(c *AppConfig) { c.Chat.SendBuffer = -1 }},
		{"cookie", func(c *AppConfig) { c.HTTP.CookieName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	noRedirect := Default()
	noRedirect.HTTP.RedirectPort = 0
	if err := noRedirect.Validate(); err != nil {
		t.Errorf("redirect_port 0 disables the listener: %v", err)
	}
}
