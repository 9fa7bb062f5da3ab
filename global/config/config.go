package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ChatStory/tools/decode"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	NodeID  int64         `yaml:"node_id"`
	HTTP    HTTPConfig    `yaml:"http"`
	Chat    ChatConfig    `yaml:"chat"`
	Captcha CaptchaConfig `yaml:"captcha"`
	Redis   RedisConfig   `yaml:"redis"`
	Nats    NatsConfig    `yaml:"nats"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	RedirectPort int    `yaml:"redirect_port"` // plain-HTTP listener answering 301; 0 disables
	RedirectTo   string `yaml:"redirect_to"`
	TLSCert      string `yaml:"tls_cert"`
	TLSKey       string `yaml:"tls_key"`
	StaticDir    string `yaml:"static_dir"`
	// PushAssets are pushed with index.html over HTTP/2.
	PushAssets []string `yaml:"push_assets"`
	CookieName string   `yaml:"cookie_name"`
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ChatConfig struct {
	YieldEvery   int           `yaml:"yield_every"`
	YieldPause   time.Duration `yaml:"yield_pause"`
	SendBuffer   int           `yaml:"send_buffer"`
	Heartbeat    time.Duration `yaml:"heartbeat"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxMessage   int64         `yaml:"max_message"`
}

type CaptchaConfig struct {
	Secret   string        `yaml:"secret"`
	Endpoint string        `yaml:"endpoint"`
	MinScore float64       `yaml:"min_score"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"pool_size"`
	KeyPrefix string `yaml:"key_prefix"`
}

type NatsConfig struct {
	Servers       []string `yaml:"servers"`
	Name          string   `yaml:"name"`
	SubjectPrefix string   `yaml:"subject_prefix"`
	User          string   `yaml:"user"`
	Password      string   `yaml:"password"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *AppConfig {
	return &AppConfig{
		NodeID: 1,
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            4000,
			RedirectPort:    4001,
			CookieName:      "user",
			ShutdownTimeout: 5 * time.Second,
			PushAssets: []string{
				"/script.js", "/send.svg", "/home.svg", "/chat-story-logo.svg",
				"/leave.svg", "/favicon.ico", "/chat.html", "/manifest.json",
			},
		},
		Chat: ChatConfig{
			YieldEvery:   100,
			YieldPause:   100 * time.Millisecond,
			SendBuffer:   64,
			Heartbeat:    25 * time.Second,
			WriteTimeout: 5 * time.Second,
			MaxMessage:   64 << 10,
		},
		Captcha: CaptchaConfig{
			Endpoint: "https://www.google.com/recaptcha/api/siteverify",
			MinScore: 0.1,
			Timeout:  5 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:  10,
			KeyPrefix: "chatstory:",
		},
		Nats: NatsConfig{
			Name:          "chatstory",
			SubjectPrefix: "chatstory",
		},
		Log: LogConfig{
			Level: "info",
			Color: true,
		},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeys maps environment variables onto yaml key paths.
var envKeys = map[string]string{
	"NODE_ID":          "node_id",
	"HOST":             "http.host",
	"PORT":             "http.port",
	"HTTP_PORT":        "http.redirect_port",
	"REDIRECT_TO":      "http.redirect_to",
	"TLS_CERT":         "http.tls_cert",
	"TLS_KEY":          "http.tls_key",
	"STATIC_DIR":       "http.static_dir",
	"ALLOWED_ORIGINS":  "http.allowed_origins",
	"RECAPTCHA_KEY":    "captcha.secret",
	"RECAPTCHA_URL":    "captcha.endpoint",
	"REDIS_ADDR":       "redis.addr",
	"REDIS_PASSWORD":   "redis.password",
	"REDIS_DB":         "redis.db",
	"NATS_URL":         "nats.servers",
	"NATS_USER":        "nats.user",
	"NATS_PASSWORD":    "nats.password",
	"LOG_LEVEL":        "log.level",
	"LOG_COLOR":        "log.color",
	"CHAT_YIELD_EVERY": "chat.yield_every",
	"CHAT_SEND_BUFFER": "chat.send_buffer",
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) error {
	tree := make(map[string]any)
	for env, path := range envKeys {
		v, ok := lookup(env)
		if !ok || v == "" {
			continue
		}
		setPath(tree, strings.Split(path, "."), v)
	}
	if len(tree) == 0 {
		return nil
	}
	if err := decode.Into(tree, cfg, decode.WithTag("yaml")); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

func setPath(tree map[string]any, keys []string, v string) {
	for _, k := range keys[:len(keys)-1] {
		next, ok := tree[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			tree[k] = next
		}
		tree = next
	}
	tree[keys[len(keys)-1]] = v
}

func (c *AppConfig) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.RedirectPort < 0 || c.HTTP.RedirectPort > 65535 {
		return fmt.Errorf("http.redirect_port %d out of range", c.HTTP.RedirectPort)
	}
	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		return errors.New("http.tls_cert and http.tls_key must be set together")
	}
	if c.Chat.YieldEvery <= 0 {
		return fmt.Errorf("chat.yield_every must be positive, got %d", c.Chat.YieldEvery)
	}
	if c.Chat.SendBuffer <= 0 {
		return fmt.Errorf("chat.send_buffer must be positive, got %d", c.Chat.SendBuffer)
	}
	if c.HTTP.CookieName == "" {
		return errors.New("http.cookie_name is empty")
	}
	return nil
}

func (c *AppConfig) TLSEnabled() bool {
	return c.HTTP.TLSCert != "" && c.HTTP.TLSKey != ""
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
