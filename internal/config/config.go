package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Workers struct {
		PoolSize  int `yaml:"pool_size" default:"4"`
		QueueSize int `yaml:"queue_size" default:"100"`
	} `yaml:"workers"`

	BackgroundTasks struct {
		TaskTimeout     time.Duration `yaml:"task_timeout" default:"300s"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1h"`
		MaxTaskAge      time.Duration `yaml:"max_task_age" default:"24h"`
	} `yaml:"background_tasks"`

	LLM struct {
		Provider    string        `yaml:"provider" default:"claude"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"claude-3-7-sonnet-latest"`
		BaseURL     string        `yaml:"base_url"`
		MaxTokens   int           `yaml:"max_tokens" default:"8192"`
		Temperature float32       `yaml:"temperature" default:"0.1"`
		Timeout     time.Duration `yaml:"timeout" default:"120s"`
	} `yaml:"llm"`

	Upload struct {
		MaxSizeBytes int64    `yaml:"max_size_bytes" default:"10485760"`
		MaxPages     int      `yaml:"max_pages" default:"30"`
		AllowedTypes []string `yaml:"allowed_types"`
		ArchiveCV    bool     `yaml:"archive_cv" default:"false"`
	} `yaml:"upload"`

	Form struct {
		Store      string        `yaml:"store" default:"memory"`
		SessionTTL time.Duration `yaml:"session_ttl" default:"24h"`
	} `yaml:"form"`

	RateLimit struct {
		Enabled           bool    `yaml:"enabled" default:"true"`
		RequestsPerMinute float64 `yaml:"requests_per_minute" default:"10"`
		Burst             int     `yaml:"burst" default:"3"`
	} `yaml:"rate_limit"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`

	DigitalOcean struct {
		Spaces struct {
			BucketURL       string `yaml:"bucket_url"`
			CDNEndpoint     string `yaml:"cdn_endpoint"`
			AccessKeyID     string `yaml:"access_key_id"`
			AccessKeySecret string `yaml:"access_key_secret"`
			Region          string `yaml:"region" default:"blr1"`
			BucketName      string `yaml:"bucket_name" default:"jobportal-cv"`
		} `yaml:"spaces"`
	} `yaml:"digitalocean"`

	ProfileAPI struct {
		URL     string        `yaml:"url"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"profile_api"`

	Callback struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout" default:"30s"`
		Enabled bool          `yaml:"enabled" default:"false"`
	} `yaml:"callback"`
}

// DefaultUploadMaxSize is the largest CV accepted for extraction
const DefaultUploadMaxSize int64 = 10 * 1024 * 1024

// DefaultGeminiModel replaces a Claude model name when the provider is switched to gemini
const DefaultGeminiModel = "gemini-1.5-pro"

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if env var not found
	})

	s = bareEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// Default returns a configuration populated with built-in defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Workers.PoolSize = 4
	config.Workers.QueueSize = 100

	config.BackgroundTasks.TaskTimeout = 300 * time.Second
	config.BackgroundTasks.CleanupInterval = 1 * time.Hour
	config.BackgroundTasks.MaxTaskAge = 24 * time.Hour

	config.LLM.Provider = "claude"
	config.LLM.Model = "claude-3-7-sonnet-latest"
	config.LLM.MaxTokens = 8192
	config.LLM.Temperature = 0.1
	config.LLM.Timeout = 120 * time.Second

	config.Upload.MaxSizeBytes = DefaultUploadMaxSize
	config.Upload.MaxPages = 30
	config.Upload.AllowedTypes = []string{"application/pdf"}

	config.Form.Store = "memory"
	config.Form.SessionTTL = 24 * time.Hour

	config.RateLimit.Enabled = true
	config.RateLimit.RequestsPerMinute = 10
	config.RateLimit.Burst = 3

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.DigitalOcean.Spaces.Region = "blr1"
	config.DigitalOcean.Spaces.BucketName = "jobportal-cv"

	config.ProfileAPI.Timeout = 30 * time.Second
	config.Callback.Timeout = 30 * time.Second

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	config.loadFromEnv()

	return config, nil
}

// SpacesConfigured reports whether CV archiving has credentials to work with
func (c *Config) SpacesConfigured() bool {
	s := c.DigitalOcean.Spaces
	return s.AccessKeyID != "" && s.AccessKeySecret != "" && s.BucketURL != ""
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if c.LLM.Provider == "gemini" && strings.HasPrefix(c.LLM.Model, "claude") {
		c.LLM.Model = DefaultGeminiModel
	}

	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		c.LLM.BaseURL = baseURL
	}

	if llmTimeout := os.Getenv("LLM_TIMEOUT"); llmTimeout != "" {
		if timeout, err := time.ParseDuration(llmTimeout); err == nil {
			c.LLM.Timeout = timeout
		}
	}

	if maxSize := os.Getenv("UPLOAD_MAX_SIZE"); maxSize != "" {
		if size, err := strconv.ParseInt(maxSize, 10, 64); err == nil && size > 0 {
			c.Upload.MaxSizeBytes = size
		}
	}

	if maxPages := os.Getenv("UPLOAD_MAX_PAGES"); maxPages != "" {
		if pages, err := strconv.Atoi(maxPages); err == nil {
			c.Upload.MaxPages = pages
		}
	}

	if archive := os.Getenv("UPLOAD_ARCHIVE_CV"); archive != "" {
		c.Upload.ArchiveCV = archive == "true" || archive == "1"
	}

	if store := os.Getenv("FORM_STORE"); store != "" {
		c.Form.Store = store
	}

	if ttl := os.Getenv("FORM_SESSION_TTL"); ttl != "" {
		if duration, err := time.ParseDuration(ttl); err == nil {
			c.Form.SessionTTL = duration
		}
	}

	if enabled := os.Getenv("RATE_LIMIT_ENABLED"); enabled != "" {
		c.RateLimit.Enabled = enabled == "true" || enabled == "1"
	}

	if rpm := os.Getenv("RATE_LIMIT_RPM"); rpm != "" {
		if value, err := strconv.ParseFloat(rpm, 64); err == nil {
			c.RateLimit.RequestsPerMinute = value
		}
	}

	if secret := os.Getenv("AUTH_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}

	if issuer := os.Getenv("AUTH_JWT_ISSUER"); issuer != "" {
		c.Auth.Issuer = issuer
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if betterstackEnabled := os.Getenv("BETTERSTACK_ENABLED"); betterstackEnabled != "" {
		enabled := betterstackEnabled == "true" || betterstackEnabled == "1"

		for i := range c.Logging.Adapters {
			if c.Logging.Adapters[i].Name == "betterstack" || c.Logging.Adapters[i].Type == "betterstack" {
				c.Logging.Adapters[i].Enabled = enabled
				break
			}
		}
	}

	// DigitalOcean Spaces configuration
	if bucketURL := os.Getenv("BUCKET_URL"); bucketURL != "" {
		c.DigitalOcean.Spaces.BucketURL = bucketURL
	}

	if cdnEndpoint := os.Getenv("BUCKET_CDN_ENDPOINT"); cdnEndpoint != "" {
		c.DigitalOcean.Spaces.CDNEndpoint = cdnEndpoint
	}

	if accessKeyID := os.Getenv("BUCKET_ACCESS_KEY_ID"); accessKeyID != "" {
		c.DigitalOcean.Spaces.AccessKeyID = accessKeyID
	}

	if accessKeySecret := os.Getenv("BUCKET_ACCESS_KEY_SECRET"); accessKeySecret != "" {
		c.DigitalOcean.Spaces.AccessKeySecret = accessKeySecret
	}

	if region := os.Getenv("BUCKET_REGION"); region != "" {
		c.DigitalOcean.Spaces.Region = region
	}

	if bucketName := os.Getenv("BUCKET_NAME"); bucketName != "" {
		c.DigitalOcean.Spaces.BucketName = bucketName
	}

	if profileURL := os.Getenv("PROFILE_API_URL"); profileURL != "" {
		c.ProfileAPI.URL = profileURL
	}

	if profileToken := os.Getenv("PROFILE_API_TOKEN"); profileToken != "" {
		c.ProfileAPI.Token = profileToken
	}

	if callbackURL := os.Getenv("CALLBACK_URL"); callbackURL != "" {
		c.Callback.URL = callbackURL
	}

	if callbackTimeout := os.Getenv("CALLBACK_TIMEOUT"); callbackTimeout != "" {
		if timeout, err := time.ParseDuration(callbackTimeout); err == nil {
			c.Callback.Timeout = timeout
		}
	}

	if callbackEnabled := os.Getenv("CALLBACK_ENABLED"); callbackEnabled != "" {
		c.Callback.Enabled = callbackEnabled == "true" || callbackEnabled == "1"
	}

	c.loadLoggingAdapterEnvVars()
}

// loadLoggingAdapterEnvVars loads environment variables for logging adapters
func (c *Config) loadLoggingAdapterEnvVars() {
	for i := range c.Logging.Adapters {
		adapter := &c.Logging.Adapters[i]
		if adapter.Type != "betterstack" {
			continue
		}

		if adapter.Options == nil {
			adapter.Options = make(map[string]interface{})
		}

		if token := os.Getenv("BETTERSTACK_SOURCE_TOKEN"); token != "" {
			adapter.Options["source_token"] = token
		}

		if endpoint := os.Getenv("BETTERSTACK_ENDPOINT"); endpoint != "" {
			adapter.Options["endpoint"] = endpoint
		}

		if maxRetries := os.Getenv("BETTERSTACK_MAX_RETRIES"); maxRetries != "" {
			if retries, err := strconv.Atoi(maxRetries); err == nil {
				adapter.Options["max_retries"] = retries
			}
		}

		if timeout := os.Getenv("BETTERSTACK_TIMEOUT"); timeout != "" {
			adapter.Options["timeout"] = timeout
		}
	}
}
