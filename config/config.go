package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the gateway server configuration
type Config struct {
	// Server
	Addr              string `env:"SERVER_ADDR" envDefault:":8080"`
	CorsAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
	MaxUploadBytes    int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	SwaggerURL        string `env:"SWAGGER_DOC_URL" envDefault:"/swagger/doc.json"`

	// Analysis backend. One base URL serves chat, analyze, info and reports.
	BackendURL          string        `env:"FASTAPI_BASE_URL" envDefault:"http://localhost:8000"`
	BackendTimeout      time.Duration `env:"BACKEND_TIMEOUT" envDefault:"60s"`
	BackendProbeTimeout time.Duration `env:"BACKEND_PROBE_TIMEOUT" envDefault:"5s"`
	BackendRetries      int           `env:"BACKEND_RETRIES" envDefault:"2"`

	// Auth
	JWTSecret string `env:"JWT_SECRET,required"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"ortho-assist"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Study history
	StudySeedFile       string `env:"STUDY_SEED_FILE"`
	RecorderConcurrency int    `env:"STUDY_RECORDER_CONCURRENCY" envDefault:"2"`
	RecorderQueueSize   int    `env:"STUDY_RECORDER_QUEUE_SIZE" envDefault:"100"`
	RecorderRetries     int    `env:"STUDY_RECORDER_RETRIES" envDefault:"3"`
}

// ClientConfig holds the terminal chat client configuration
type ClientConfig struct {
	GatewayURL     string        `env:"ORTHO_GATEWAY_URL" envDefault:"http://localhost:8080"`
	Token          string        `env:"ORTHO_TOKEN"`
	DownloadDir    string        `env:"ORTHO_DOWNLOAD_DIR" envDefault:"."`
	RequestTimeout time.Duration `env:"ORTHO_REQUEST_TIMEOUT" envDefault:"2m"`
	MaxImageBytes  int64         `env:"ORTHO_MAX_IMAGE_BYTES" envDefault:"10485760"`
	HistoryFile    string        `env:"ORTHO_HISTORY_FILE"`
	UserInfo       string        `env:"ORTHO_USER_INFO"`
	Verbose        bool          `env:"ORTHO_VERBOSE" envDefault:"false"`
}

// loadDotEnv loads a .env file when present. A missing file is not an error.
func loadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
}

// Load reads the server configuration from the environment
func Load(dotEnvFiles ...string) (*Config, error) {
	loadDotEnv(dotEnvFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("parse config: FASTAPI_BASE_URL must not be empty")
	}
	if cfg.BackendRetries < 0 {
		cfg.BackendRetries = 0
	}
	return cfg, nil
}

// LoadClient reads the chat client configuration from the environment
func LoadClient(dotEnvFiles ...string) (*ClientConfig, error) {
	loadDotEnv(dotEnvFiles...)

	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse client config: %w", err)
	}
	cfg.GatewayURL = strings.TrimRight(cfg.GatewayURL, "/")
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("parse client config: ORTHO_GATEWAY_URL must not be empty")
	}
	if cfg.UserInfo != "" && !json.Valid([]byte(cfg.UserInfo)) {
		return nil, fmt.Errorf("parse client config: ORTHO_USER_INFO must be valid JSON")
	}
	return cfg, nil
}
