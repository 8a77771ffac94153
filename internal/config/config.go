package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read from the process or a .env file.
const (
	EnvToken  = "CLICKUP_TOKEN"
	EnvListID = "CLICKUP_LIST_ID"
	EnvAPIURL = "CLICKUP_API_URL"
)

// Sample size bounds for schema discovery.
const (
	MinSampleSize = 1
	MaxSampleSize = 100
)

// Config holds application configuration.
type Config struct {
	// APIBaseURL is the board API root.
	APIBaseURL string `json:"api_base_url,omitempty"`

	// APIToken authenticates board API calls. Prefer CLICKUP_TOKEN in .env
	// over storing it in a config file.
	APIToken string `json:"api_token,omitempty"`

	// ListID is the board list leads are uploaded to.
	ListID string `json:"list_id,omitempty"`

	// SampleSize is how many existing tasks discovery samples.
	// Clamped to [MinSampleSize, MaxSampleSize].
	SampleSize int `json:"sample_size,omitempty"`

	// BatchSize is the number of uploads between pauses.
	BatchSize int `json:"batch_size,omitempty"`

	// BatchPauseMS is the pause between upload batches. Negative disables it.
	BatchPauseMS int `json:"batch_pause_ms,omitempty"`

	// RequestTimeoutMS bounds each board API request.
	RequestTimeoutMS int `json:"request_timeout_ms,omitempty"`

	// DefaultValue is the estimated value of leads from generic files.
	DefaultValue int `json:"default_value,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:       "https://api.clickup.com/api/v2",
		SampleSize:       5,
		BatchSize:        5,
		BatchPauseMS:     2000,
		RequestTimeoutMS: 30000,
		DefaultValue:     5000,
	}
}

// EffectiveSampleSize returns SampleSize clamped to its bounds.
func (c *Config) EffectiveSampleSize() int {
	switch {
	case c.SampleSize < MinSampleSize:
		return MinSampleSize
	case c.SampleSize > MaxSampleSize:
		return MaxSampleSize
	}
	return c.SampleSize
}

// BatchPause returns the pause between upload batches.
func (c *Config) BatchPause() time.Duration {
	if c.BatchPauseMS <= 0 {
		return 0
	}
	return time.Duration(c.BatchPauseMS) * time.Millisecond
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.leadsync.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.leadsync) and repo (.leadsync) directories.
// Repo config is found by walking upward from startDir to find the nearest .leadsync/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .leadsync/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".leadsync", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadEnv returns the known environment variables, taken from the process
// environment or, failing that, from dir/.env. A missing .env is not an error.
func LoadEnv(dir string) (map[string]string, error) {
	file := map[string]string{}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err == nil {
		file, err = godotenv.Read(path)
		if err != nil {
			return nil, err
		}
	}

	env := make(map[string]string)
	for _, key := range []string{EnvToken, EnvListID, EnvAPIURL} {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			env[key] = strings.TrimSpace(v)
		} else if v := strings.TrimSpace(file[key]); v != "" {
			env[key] = v
		}
	}
	return env, nil
}

// ApplyEnv returns cfg with environment values layered on top.
func ApplyEnv(cfg *Config, env map[string]string) *Config {
	return Merge(cfg, &Config{
		APIToken:   env[EnvToken],
		ListID:     env[EnvListID],
		APIBaseURL: env[EnvAPIURL],
	})
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		APIBaseURL:       firstString(overlay.APIBaseURL, base.APIBaseURL),
		APIToken:         firstString(overlay.APIToken, base.APIToken),
		ListID:           firstString(overlay.ListID, base.ListID),
		SampleSize:       firstInt(overlay.SampleSize, base.SampleSize),
		BatchSize:        firstInt(overlay.BatchSize, base.BatchSize),
		BatchPauseMS:     firstInt(overlay.BatchPauseMS, base.BatchPauseMS),
		RequestTimeoutMS: firstInt(overlay.RequestTimeoutMS, base.RequestTimeoutMS),
		DefaultValue:     firstInt(overlay.DefaultValue, base.DefaultValue),
		DBMaxOpenConns:   firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:   firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		DisabledTools:    mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
	}
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
