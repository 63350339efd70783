package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskboard/internal/domain"
)

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "TASKBOARD_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "TASKBOARD_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "TASKBOARD_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
		{name: "preserves whitespace", key: "TASKBOARD_TEST_GETENV_WS", setVal: strPtr("  spaced  "), fallback: "x", want: "  spaced  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TASKBOARD_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "TASKBOARD_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "TASKBOARD_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "errors on non-numeric", key: "TASKBOARD_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "TASKBOARD_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback float64
		want     float64
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TASKBOARD_TEST_FLOAT_UNSET", setVal: nil, fallback: 2.5, want: 2.5},
		{name: "parses fraction", key: "TASKBOARD_TEST_FLOAT_FRAC", setVal: strPtr("0.5"), fallback: 0, want: 0.5},
		{name: "parses integer", key: "TASKBOARD_TEST_FLOAT_INT", setVal: strPtr("20"), fallback: 0, want: 20},
		{name: "errors on invalid", key: "TASKBOARD_TEST_FLOAT_INV", setVal: strPtr("fast"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvFloat(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "TASKBOARD_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses seconds", key: "TASKBOARD_TEST_DUR_SEC", setVal: strPtr("30s"), fallback: 0, want: 30 * time.Second},
		{name: "parses composite", key: "TASKBOARD_TEST_DUR_COMP", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "parses zero", key: "TASKBOARD_TEST_DUR_ZERO", setVal: strPtr("0s"), fallback: 5 * time.Second, want: 0},
		{name: "errors on invalid", key: "TASKBOARD_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "TASKBOARD_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TASKBOARD_TEST_LIST", " a, ,b ,c")

	assert.Equal(t, []string{"a", "b", "c"}, getEnvList("TASKBOARD_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvList("TASKBOARD_TEST_LIST_UNSET", []string{"x"}))
}

// ---------------------------------------------------------------------------
// ParseColumns
// ---------------------------------------------------------------------------

func TestParseColumns(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []domain.ColumnSpec
		wantErr bool
	}{
		{
			name:  "default list",
			input: defaultColumns,
			want: []domain.ColumnSpec{
				{ID: "todo", Title: "To Do"},
				{ID: "in-progress", Title: "In Progress"},
				{ID: "done", Title: "Done"},
			},
		},
		{
			name:  "id doubles as title",
			input: "backlog, review=In Review",
			want: []domain.ColumnSpec{
				{ID: "backlog", Title: "backlog"},
				{ID: "review", Title: "In Review"},
			},
		},
		{
			name:  "title may contain equals",
			input: "eq=a=b",
			want:  []domain.ColumnSpec{{ID: "eq", Title: "a=b"}},
		},
		{name: "empty list", input: " , ", wantErr: true},
		{name: "empty id", input: "=Title", wantErr: true},
		{name: "empty title", input: "todo=", wantErr: true},
		{name: "duplicate id", input: "todo=A,todo=B", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cs, err := ParseColumns(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, cs.Specs())
		})
	}
}

// ---------------------------------------------------------------------------
// Load() error cases
// ---------------------------------------------------------------------------

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		errMsg string
	}{
		// Board
		{name: "BOARD_NAME blank", envKey: "TASKBOARD_BOARD_NAME", envVal: "   ", errMsg: "TASKBOARD_BOARD_NAME"},
		{name: "COLUMNS duplicate", envKey: "TASKBOARD_COLUMNS", envVal: "a=A,a=B", errMsg: "TASKBOARD_COLUMNS"},

		// Storage
		{name: "STORAGE unknown", envKey: "TASKBOARD_STORAGE", envVal: "s3", errMsg: "TASKBOARD_STORAGE"},
		{name: "STORAGE redis without addr", envKey: "TASKBOARD_STORAGE", envVal: "redis", errMsg: "TASKBOARD_REDIS_ADDR"},
		{name: "SAVE_TIMEOUT invalid", envKey: "TASKBOARD_SAVE_TIMEOUT", envVal: "soon", errMsg: "TASKBOARD_SAVE_TIMEOUT"},
		{name: "SAVE_TIMEOUT negative", envKey: "TASKBOARD_SAVE_TIMEOUT", envVal: "-1s", errMsg: "TASKBOARD_SAVE_TIMEOUT"},

		// Database
		{name: "DB_PORT not a number", envKey: "TASKBOARD_DB_PORT", envVal: "abc", errMsg: "TASKBOARD_DB_PORT"},
		{name: "DB_PORT zero", envKey: "TASKBOARD_DB_PORT", envVal: "0", errMsg: "TASKBOARD_DB_PORT"},
		{name: "DB_PORT too high", envKey: "TASKBOARD_DB_PORT", envVal: "65536", errMsg: "TASKBOARD_DB_PORT"},
		{name: "DB_MAX_CONNS zero", envKey: "TASKBOARD_DB_MAX_CONNS", envVal: "0", errMsg: "TASKBOARD_DB_MAX_CONNS"},

		// Redis
		{name: "REDIS_DB not a number", envKey: "TASKBOARD_REDIS_DB", envVal: "abc", errMsg: "TASKBOARD_REDIS_DB"},

		// JWT
		{name: "JWT_SECRET too short", envKey: "TASKBOARD_JWT_SECRET", envVal: "short", errMsg: "TASKBOARD_JWT_SECRET"},
		{name: "JWT_TTL invalid", envKey: "TASKBOARD_JWT_TTL", envVal: "badval", errMsg: "TASKBOARD_JWT_TTL"},
		{name: "JWT_TTL zero", envKey: "TASKBOARD_JWT_TTL", envVal: "0s", errMsg: "TASKBOARD_JWT_TTL"},

		// Server
		{name: "SERVER_READ_TIMEOUT zero", envKey: "TASKBOARD_SERVER_READ_TIMEOUT", envVal: "0s", errMsg: "TASKBOARD_SERVER_READ_TIMEOUT"},
		{name: "SERVER_WRITE_TIMEOUT invalid", envKey: "TASKBOARD_SERVER_WRITE_TIMEOUT", envVal: "x", errMsg: "TASKBOARD_SERVER_WRITE_TIMEOUT"},
		{name: "RATE_LIMIT zero", envKey: "TASKBOARD_RATE_LIMIT", envVal: "0", errMsg: "TASKBOARD_RATE_LIMIT"},
		{name: "RATE_LIMIT invalid", envKey: "TASKBOARD_RATE_LIMIT", envVal: "lots", errMsg: "TASKBOARD_RATE_LIMIT"},
		{name: "RATE_BURST zero", envKey: "TASKBOARD_RATE_BURST", envVal: "0", errMsg: "TASKBOARD_RATE_BURST"},

		// Log
		{name: "LOG_LEVEL unknown", envKey: "TASKBOARD_LOG_LEVEL", envVal: "loud", errMsg: "TASKBOARD_LOG_LEVEL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.envKey, tc.envVal)

			cfg, err := Load()
			require.Error(t, err, "expected error for %s=%q", tc.envKey, tc.envVal)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() happy paths
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/operator")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Board defaults.
	assert.Equal(t, "default", cfg.Board.Name)
	assert.Equal(t, []string{"todo", "in-progress", "done"}, columnIDs(cfg.Board.Columns))

	// Storage defaults.
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, "/home/operator/tasks.json", cfg.Storage.FilePath)
	assert.Equal(t, "taskboard.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.Storage.SaveTimeout)

	// Database defaults.
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "taskboard", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "taskboard", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 4, cfg.Database.MaxConns)

	// Redis is off by default.
	assert.Empty(t, cfg.Redis.Addr)

	// Auth is off by default.
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, 720*time.Hour, cfg.JWT.TTL)

	// Server defaults.
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, 40, cfg.Server.RateBurst)

	// Log defaults.
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_AllCustomValues(t *testing.T) {
	envs := map[string]string{
		"TASKBOARD_BOARD_NAME":           "team",
		"TASKBOARD_COLUMNS":              "backlog=Backlog,doing=Doing",
		"TASKBOARD_STORAGE":              "REDIS",
		"TASKBOARD_SAVE_TIMEOUT":         "0s",
		"TASKBOARD_DB_HOST":              "db.internal",
		"TASKBOARD_DB_PORT":              "5433",
		"TASKBOARD_DB_PASSWORD":          "s3cret!",
		"TASKBOARD_DB_SSLMODE":           "require",
		"TASKBOARD_DB_MAX_CONNS":         "8",
		"TASKBOARD_REDIS_ADDR":           "redis:6379",
		"TASKBOARD_REDIS_PASSWORD":       "redis-pass",
		"TASKBOARD_REDIS_DB":             "3",
		"TASKBOARD_JWT_SECRET":           "prod-jwt-secret-256-bits-long!!!",
		"TASKBOARD_JWT_TTL":              "24h",
		"TASKBOARD_SERVER_ADDR":          ":9090",
		"TASKBOARD_SERVER_READ_TIMEOUT":  "5s",
		"TASKBOARD_SERVER_WRITE_TIMEOUT": "15s",
		"TASKBOARD_CORS_ORIGINS":         "https://a.example, https://b.example",
		"TASKBOARD_RATE_LIMIT":           "2.5",
		"TASKBOARD_RATE_BURST":           "5",
		"TASKBOARD_LOG_LEVEL":            "debug",
		"TASKBOARD_LOG_FORMAT":           "text",
	}

	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "team", cfg.Board.Name)
	assert.Equal(t, []string{"backlog", "doing"}, columnIDs(cfg.Board.Columns))
	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, time.Duration(0), cfg.Storage.SaveTimeout)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 8, cfg.Database.MaxConns)

	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)

	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 2.5, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, 5, cfg.Server.RateBurst)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

// ---------------------------------------------------------------------------
// DSN
// ---------------------------------------------------------------------------

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	c := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "taskboard",
		Password: "pw",
		DBName:   "boards",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=taskboard password=pw dbname=boards sslmode=disable", c.DSN())
}

func columnIDs(cs domain.ColumnSet) []string {
	specs := cs.Specs()
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	return ids
}
