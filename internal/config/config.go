package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/domain"
)

// Storage backends.
const (
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

const defaultColumns = "todo=To Do,in-progress=In Progress,done=Done"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Board    BoardConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Server   ServerConfig
	Log      LogConfig
}

// BoardConfig names the board and fixes its columns.
type BoardConfig struct {
	Name    string
	Columns domain.ColumnSet
}

// StorageConfig selects the persistence gateway.
type StorageConfig struct {
	Backend     string
	FilePath    string
	SQLitePath  string
	SaveTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds bearer token settings. An empty Secret disables auth.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
	TTL    time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	RateLimit    float64
	RateBurst    int
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("TASKBOARD_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("TASKBOARD_DB_MAX_CONNS", 4)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TASKBOARD_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	saveTimeout, err := getEnvDuration("TASKBOARD_SAVE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	jwtTTL, err := getEnvDuration("TASKBOARD_JWT_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TASKBOARD_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TASKBOARD_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimit, err := getEnvFloat("TASKBOARD_RATE_LIMIT", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("TASKBOARD_RATE_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	columns, err := ParseColumns(getEnv("TASKBOARD_COLUMNS", defaultColumns))
	if err != nil {
		return nil, fmt.Errorf("config.Load: TASKBOARD_COLUMNS: %w", err)
	}

	cfg := &Config{
		Board: BoardConfig{
			Name:    strings.TrimSpace(getEnv("TASKBOARD_BOARD_NAME", "default")),
			Columns: columns,
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("TASKBOARD_STORAGE", StorageFile)),
			FilePath:    getEnv("TASKBOARD_FILE_PATH", defaultFilePath()),
			SQLitePath:  getEnv("TASKBOARD_SQLITE_PATH", "taskboard.db"),
			SaveTimeout: saveTimeout,
		},
		Database: DatabaseConfig{
			Host:     getEnv("TASKBOARD_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("TASKBOARD_DB_USER", "taskboard"),
			Password: getEnv("TASKBOARD_DB_PASSWORD", ""),
			DBName:   getEnv("TASKBOARD_DB_NAME", "taskboard"),
			SSLMode:  getEnv("TASKBOARD_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("TASKBOARD_REDIS_ADDR", ""),
			Password: getEnv("TASKBOARD_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("TASKBOARD_JWT_SECRET", ""),
			TTL:    jwtTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("TASKBOARD_SERVER_ADDR", "127.0.0.1:8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("TASKBOARD_CORS_ORIGINS", []string{"http://localhost:5173"}),
			RateLimit:    rateLimit,
			RateBurst:    rateBurst,
		},
		Log: LogConfig{
			Level:  getEnv("TASKBOARD_LOG_LEVEL", "info"),
			Format: getEnv("TASKBOARD_LOG_FORMAT", "json"),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.Board.Name == "" {
		return errors.New("TASKBOARD_BOARD_NAME must not be blank")
	}

	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.FilePath == "" {
			return errors.New("TASKBOARD_FILE_PATH is required for file storage")
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("TASKBOARD_SQLITE_PATH is required for sqlite storage")
		}
	case StoragePostgres:
		if c.Database.SSLMode == "disable" {
			log.Warn().Msg("TASKBOARD_DB_SSLMODE=disable is insecure outside local development")
		}
	case StorageRedis:
		if c.Redis.Addr == "" {
			return errors.New("TASKBOARD_REDIS_ADDR is required for redis storage")
		}
	default:
		return fmt.Errorf("TASKBOARD_STORAGE must be one of file, sqlite, postgres, redis, got %q", c.Storage.Backend)
	}

	if c.Storage.SaveTimeout < 0 {
		return fmt.Errorf("TASKBOARD_SAVE_TIMEOUT must not be negative, got %s", c.Storage.SaveTimeout)
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("TASKBOARD_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("TASKBOARD_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}

	// An empty secret leaves the API open; anything shorter than the signing
	// minimum is a misconfiguration.
	if c.JWT.Secret != "" && len(c.JWT.Secret) < auth.MinSecretLength {
		return fmt.Errorf("TASKBOARD_JWT_SECRET must be at least %d characters", auth.MinSecretLength)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("TASKBOARD_JWT_TTL must be positive, got %s", c.JWT.TTL)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TASKBOARD_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TASKBOARD_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("TASKBOARD_RATE_LIMIT must be positive, got %g", c.Server.RateLimit)
	}
	if c.Server.RateBurst < 1 {
		return fmt.Errorf("TASKBOARD_RATE_BURST must be >= 1, got %d", c.Server.RateBurst)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("TASKBOARD_LOG_LEVEL: %w", err)
	}

	return nil
}

// AuthEnabled reports whether API and websocket routes require a token.
func (c *Config) AuthEnabled() bool {
	return c.JWT.Secret != ""
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// ParseColumns parses an ordered "id=Title,id=Title" list. A pair without
// "=" uses the id as its title.
func ParseColumns(s string) (domain.ColumnSet, error) {
	var specs []domain.ColumnSpec
	for _, pair := range strings.Split(s, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		id, title, ok := strings.Cut(pair, "=")
		if !ok {
			title = id
		}
		specs = append(specs, domain.ColumnSpec{ID: id, Title: title})
	}

	cs, err := domain.NewColumnSet(specs)
	if err != nil {
		return domain.ColumnSet{}, fmt.Errorf("config.ParseColumns: %w", err)
	}
	return cs, nil
}

func defaultFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tasks.json"
	}
	return filepath.Join(home, "tasks.json")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
