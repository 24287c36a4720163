package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pipeline-entry/internal/models"
)

// Config holds all application configuration
type Config struct {
	// Remote API configuration
	API APIConfig

	// Attachment upload configuration
	Upload UploadConfig

	// Stub backend configuration
	Stub StubConfig

	// Logging configuration
	Log LogConfig
}

// APIConfig holds the remote pipeline API settings
type APIConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gte=0"`
}

// UploadConfig holds client-side attachment settings
type UploadConfig struct {
	MaxUploadSize     int64 `validate:"gt=0"` // in bytes
	PhotoMaxDimension int   `validate:"gte=0"` // in pixels, 0 disables downscaling
}

// StubConfig holds settings for the local stub backend
type StubConfig struct {
	Port            string        `validate:"required,numeric"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	Users           []StubUser    `validate:"dive"`
}

// StubUser is an account accepted by the stub backend
type StubUser struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Role     string `validate:"required"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `validate:"omitempty,oneof=debug info warn error"`
	Format string `validate:"omitempty,oneof=json pretty"`
}

const defaultStubUsers = "admin:admin123:Super Admin,agent:agent123:Agent,viewer:viewer123:Viewer"

// Load reads configuration from environment variables. A .env file in the
// working directory, when present, is loaded first without overriding
// variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("PIPELINE_API_BASE_URL", "http://localhost:8000"), "/"),
			Timeout: getDurationEnv("PIPELINE_HTTP_TIMEOUT", 60*time.Second),
		},
		Upload: UploadConfig{
			MaxUploadSize:     getInt64Env("PIPELINE_MAX_UPLOAD_SIZE", 25*1024*1024), // 25MB
			PhotoMaxDimension: getIntEnv("PIPELINE_PHOTO_MAX_DIMENSION", 1600),
		},
		Stub: StubConfig{
			Port:            getEnv("STUB_PORT", "8000"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	users, err := ParseStubUsers(getEnv("STUB_USERS", defaultStubUsers))
	if err != nil {
		return nil, err
	}
	cfg.Stub.Users = users

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ParseStubUsers parses "username:password:role" entries separated by commas.
// The password is everything between the first and the last colon. Roles must
// be ones the dashboard knows.
func ParseStubUsers(s string) ([]StubUser, error) {
	var users []StubUser
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		first, last := strings.Index(entry, ":"), strings.LastIndex(entry, ":")
		if first < 0 || first == last {
			return nil, fmt.Errorf("STUB_USERS entry %q must be username:password:role", entry)
		}
		role := strings.TrimSpace(entry[last+1:])
		if !models.ValidRoles[models.Role(role)] {
			return nil, fmt.Errorf("STUB_USERS entry %q has unknown role %q", entry, role)
		}
		users = append(users, StubUser{
			Username: strings.TrimSpace(entry[:first]),
			Password: entry[first+1 : last],
			Role:     role,
		})
	}
	return users, nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
