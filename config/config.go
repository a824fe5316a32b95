package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Voice    VoiceConfig    `yaml:"voice"`
	LLM      LLMConfig      `yaml:"llm"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Feedback FeedbackConfig `yaml:"feedback"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	Mode           string   `yaml:"mode"` // debug, release, test
	CORSOrigins    []string `yaml:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// StoreConfig selects the document store. memory is never chosen implicitly.
type StoreConfig struct {
	Driver   string `yaml:"driver"` // mongo, memory
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres, sqlite; empty disables SQL
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"` // host:port or redis:// URL
}

type VoiceConfig struct {
	WebToken   string `yaml:"web_token"`
	WorkflowID string `yaml:"workflow_id"`
}

type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`
}

type AuthConfig struct {
	Secret   string `yaml:"jwt_secret"`
	Issuer   string `yaml:"jwt_issuer"`
	Audience string `yaml:"jwt_audience"`
}

type StorageConfig struct {
	Bucket string `yaml:"bucket"`
	Public bool   `yaml:"public"`
}

type FeedbackConfig struct {
	Mode        string        `yaml:"mode"` // inline, queue
	Workers     int           `yaml:"workers"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

var GlobalConfig *Config

// Load reads configPath when it exists and then applies environment
// overrides. CONFIG_FILE is used when configPath is empty.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_FILE")
	}
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Mode:           "debug",
			RateLimitRPS:   1,
			RateLimitBurst: 5,
		},
		Log:   LogConfig{Level: "info", Format: "json"},
		Store: StoreConfig{Driver: "mongo", MongoDB: "yoodefence"},
		LLM: LLMConfig{
			Provider: "vertex",
			Model:    "gemini-2.0-flash-001",
			Location: "us-central1",
		},
		Feedback: FeedbackConfig{
			Mode:        "inline",
			Workers:     2,
			WaitTimeout: 2 * time.Minute,
		},
	}
}

func (c *Config) overrideFromEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Mode, "GIN_MODE")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitCSV(v)
	}
	if v, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64); err == nil {
		c.Server.RateLimitRPS = v
	}
	setInt(&c.Server.RateLimitBurst, "RATE_LIMIT_BURST")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Store.MongoURI, "MONGO_URI")
	setString(&c.Store.MongoDB, "MONGO_DB")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")
	if c.Database.DSN == "" {
		if v := os.Getenv("POSTGRES_URI"); v != "" {
			c.Database.DSN = v
			if c.Database.Driver == "" {
				c.Database.Driver = "postgres"
			}
		}
	}

	for _, k := range []string{"REDIS_ADDR", "REDIS_URI", "REDIS_URL"} {
		if v := os.Getenv(k); v != "" {
			c.Redis.Addr = v
			break
		}
	}

	setString(&c.Voice.WebToken, "VAPI_WEB_TOKEN")
	setString(&c.Voice.WorkflowID, "VAPI_WORKFLOW_ID")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.ProjectID, "GCP_PROJECT_ID")
	setString(&c.LLM.Location, "GCP_LOCATION")

	setString(&c.Auth.Secret, "AUTH_JWT_SECRET")
	setString(&c.Auth.Issuer, "AUTH_JWT_ISSUER")
	setString(&c.Auth.Audience, "AUTH_JWT_AUDIENCE")

	setString(&c.Storage.Bucket, "GCS_BUCKET")
	if v, err := strconv.ParseBool(os.Getenv("GCS_PUBLIC")); err == nil {
		c.Storage.Public = v
	}

	setString(&c.Feedback.Mode, "FEEDBACK_MODE")
	setInt(&c.Feedback.Workers, "FEEDBACK_WORKERS")
	if v, err := time.ParseDuration(os.Getenv("FEEDBACK_WAIT_TIMEOUT")); err == nil && v > 0 {
		c.Feedback.WaitTimeout = v
	}
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
