package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		IdleTimeout     time.Duration `yaml:"idleTimeout"`
		AllowedOrigins  []string      `yaml:"allowedOrigins"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Database struct {
		// mysql (default) atau postgres (openGauss juga pakai driver ini)
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		KeyPrefix string `yaml:"keyPrefix"`
	} `yaml:"redis"`

	Queue struct {
		Name        string `yaml:"name"`
		Concurrency int    `yaml:"concurrency"`
	} `yaml:"queue"`

	Upload struct {
		Dir               string   `yaml:"dir"`
		MaxBytes          int64    `yaml:"maxBytes"`
		AllowedExtensions []string `yaml:"allowedExtensions"`
	} `yaml:"upload"`

	Analysis struct {
		TaskTTL       time.Duration `yaml:"taskTTL"`
		JobTimeout    time.Duration `yaml:"jobTimeout"`
		ScoreMarker   string        `yaml:"scoreMarker"`
		ProjectFormat string        `yaml:"projectFormat"`
		FrontCommand  []string      `yaml:"frontCommand"`
		SideCommand   []string      `yaml:"sideCommand"`
	} `yaml:"analysis"`

	Chat struct {
		// dify (default) atau openai
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"baseURL"`
		APIKey   string `yaml:"apiKey"`
	} `yaml:"chat"`

	OpenAI struct {
		BaseURL      string `yaml:"baseURL"`
		APIKey       string `yaml:"apiKey"`
		Model        string `yaml:"model"`
		SystemPrompt string `yaml:"systemPrompt"`
	} `yaml:"openai"`

	Media struct {
		// local (default) atau minio
		Backend      string `yaml:"backend"`
		VideoDir     string `yaml:"videoDir"`
		ThumbnailDir string `yaml:"thumbnailDir"`
	} `yaml:"media"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	JWT struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`

	Admin struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"admin"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requestsPerSecond"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	Cleanup struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"cleanup"`
}

// Load baca file config.yaml, lalu isi default dan override dari env
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML bytes and applies env overrides plus defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DATABASE_PASSWORD": &c.Database.Password,
		"REDIS_ADDR":        &c.Redis.Addr,
		"REDIS_PASSWORD":    &c.Redis.Password,
		"JWT_SECRET":        &c.JWT.Secret,
		"DIFY_API_KEY":      &c.Chat.APIKey,
		"OPENAI_API_KEY":    &c.OpenAI.APIKey,
		"MINIO_SECRET_KEY":  &c.Minio.SecretKey,
	}
	for env, dst := range overrides {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	// chat stream bisa lama, jadi write timeout lebih longgar
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Queue.Name == "" {
		c.Queue.Name = "analysis"
	}
	if c.Queue.Concurrency == 0 {
		c.Queue.Concurrency = 2
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = "uploads"
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 100 << 20
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = []string{"mp4", "mov", "avi"}
	}
	if c.Analysis.TaskTTL == 0 {
		c.Analysis.TaskTTL = 24 * time.Hour
	}
	if c.Analysis.JobTimeout == 0 {
		c.Analysis.JobTimeout = 300 * time.Second
	}
	if c.Analysis.ScoreMarker == "" {
		c.Analysis.ScoreMarker = "评分"
	}
	if c.Analysis.ProjectFormat == "" {
		c.Analysis.ProjectFormat = "pull-ups × %d"
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = "dify"
	}
	if c.Chat.BaseURL == "" {
		c.Chat.BaseURL = "https://api.dify.ai/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Media.Backend == "" {
		c.Media.Backend = "local"
	}
	if c.Media.VideoDir == "" {
		c.Media.VideoDir = "example/video"
	}
	if c.Media.ThumbnailDir == "" {
		c.Media.ThumbnailDir = "example/thumbnail"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 10
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 30
	}
	if c.Cleanup.Schedule == "" {
		c.Cleanup.Schedule = "@hourly"
	}
}

// Validate checks the values that have no safe default.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database.driver: %s", c.Database.Driver)
	}
	switch c.Chat.Provider {
	case "dify", "openai":
	default:
		return fmt.Errorf("unsupported chat.provider: %s", c.Chat.Provider)
	}
	switch c.Media.Backend {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported media.backend: %s", c.Media.Backend)
	}
	if strings.Count(c.Analysis.ProjectFormat, "%d") != 1 {
		return fmt.Errorf("analysis.projectFormat must contain exactly one %%d")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.Database.Driver == "postgres" {
		return c.PostgresDSN()
	}
	return c.MySQLDSN()
}

// AnalyzerTimeout is the budget for one analyzer command. The front and
// side analyzers run back to back inside a single job, so both together
// stay under JobTimeout with a margin left for writing the result.
func (c *Config) AnalyzerTimeout() time.Duration {
	margin := c.Analysis.JobTimeout / 10
	if margin > 10*time.Second {
		margin = 10 * time.Second
	}
	return (c.Analysis.JobTimeout - margin) / 2
}
