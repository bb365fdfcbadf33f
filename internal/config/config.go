package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scorer kinds
const (
	ScorerModel    = "model"
	ScorerKeywords = "keywords"
	ScorerVertex   = "vertex"
)

// KeywordRule adds Weight to an answer's raw score when it mentions any
// of the listed terms.
type KeywordRule struct {
	Tag    string   `json:"tag" yaml:"tag"`
	Weight int      `json:"weight" yaml:"weight"`
	Any    []string `json:"any" yaml:"any"`
}

// Config holds application configuration
type Config struct {
	Port    string `json:"port" yaml:"port"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Question source: .xlsx, .yml/.yaml or .txt
	DatasetPath string `json:"dataset_path" yaml:"dataset_path"`

	// Verdict and labels. An unset threshold means one point per question.
	PassThreshold *int     `json:"pass_threshold,omitempty" yaml:"pass_threshold,omitempty"`
	Labels        []string `json:"labels" yaml:"labels"`

	Scorer    string `json:"scorer" yaml:"scorer"`
	ModelPath string `json:"model_path" yaml:"model_path"`

	// Keyword scorer: raw rule weights are bucketed by ascending cutoffs,
	// one fewer than there are labels.
	KeywordRules   []KeywordRule `json:"keyword_rules" yaml:"keyword_rules"`
	KeywordCutoffs []int         `json:"keyword_cutoffs" yaml:"keyword_cutoffs"`

	GoogleCloudProject  string `json:"google_cloud_project" yaml:"google_cloud_project"`
	GoogleCloudLocation string `json:"google_cloud_location" yaml:"google_cloud_location"`
	VertexModel         string `json:"vertex_model" yaml:"vertex_model"`

	GoogleClientID     string `json:"google_client_id" yaml:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret,omitempty" yaml:"google_client_secret,omitempty"`
	GoogleRedirectURL  string `json:"google_redirect_url" yaml:"google_redirect_url"`

	SessionTTLMinutes    int `json:"session_ttl_minutes" yaml:"session_ttl_minutes"`
	SweepIntervalSeconds int `json:"sweep_interval_seconds" yaml:"sweep_interval_seconds"`

	RateLimitPerSecond float64  `json:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `json:"rate_limit_burst" yaml:"rate_limit_burst"`
	AllowedOrigins     []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Port:                 "5000",
		DataDir:              ".",
		DatasetPath:          filepath.Join("data", "questions.yml"),
		Labels:               []string{"Poor", "Average", "Good"},
		Scorer:               ScorerModel,
		ModelPath:            filepath.Join("data", "model.json"),
		KeywordCutoffs:       []int{1, 3},
		GoogleCloudLocation:  "us-central1",
		VertexModel:          "gemini-1.5-flash",
		SessionTTLMinutes:    120,
		SweepIntervalSeconds: 300,
		RateLimitPerSecond:   5,
		RateLimitBurst:       10,
		AllowedOrigins:       []string{"*"},
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/InterviewCoach/config.yml
// On Unix: ~/.config/InterviewCoach/config.yml
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "InterviewCoach")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "InterviewCoach")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.yml"), nil
}

// Path returns INTERVIEW_CONFIG when set, otherwise the default config path
func Path() (string, error) {
	if p := os.Getenv("INTERVIEW_CONFIG"); p != "" {
		return p, nil
	}
	return GetConfigPath()
}

// Load loads configuration from Path
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

// LoadFrom loads configuration from a specific path. YAML is used for
// .yml/.yaml files, JSON otherwise.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("INTERVIEW_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("INTERVIEW_DATASET"); v != "" {
		c.DatasetPath = v
	}
	if v := os.Getenv("INTERVIEW_SCORER"); v != "" {
		c.Scorer = v
	}
	if v := os.Getenv("INTERVIEW_PASS_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PassThreshold = &n
		}
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		c.GoogleCloudProject = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_LOCATION"); v != "" {
		c.GoogleCloudLocation = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		c.GoogleClientSecret = v
	}
	if v := os.Getenv("GOOGLE_REDIRECT_URL"); v != "" {
		c.GoogleRedirectURL = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []string

	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		errs = append(errs, "port must be 1..65535")
	}
	if strings.TrimSpace(c.DatasetPath) == "" {
		errs = append(errs, "dataset_path is required")
	}
	if len(c.Labels) < 2 {
		errs = append(errs, "labels must name at least 2 scores")
	}
	for i, l := range c.Labels {
		if strings.TrimSpace(l) == "" {
			errs = append(errs, fmt.Sprintf("labels[%d] cannot be empty", i))
		}
	}
	if c.PassThreshold != nil && *c.PassThreshold < 0 {
		errs = append(errs, "pass_threshold must be >= 0")
	}

	switch c.Scorer {
	case ScorerModel:
		if c.ModelPath == "" {
			errs = append(errs, "model_path is required when scorer=model")
		}
	case ScorerKeywords:
		if len(c.KeywordRules) == 0 {
			errs = append(errs, "keyword_rules must have at least 1 rule when scorer=keywords")
		}
		for i, r := range c.KeywordRules {
			if r.Tag == "" {
				errs = append(errs, fmt.Sprintf("keyword_rules[%d].tag is required", i))
			}
			if len(r.Any) == 0 {
				errs = append(errs, fmt.Sprintf("keyword_rules[%d].any must have at least 1 term", i))
			}
		}
		if len(c.KeywordCutoffs) != len(c.Labels)-1 {
			errs = append(errs, fmt.Sprintf("keyword_cutoffs must have %d entries", len(c.Labels)-1))
		}
		for i := 1; i < len(c.KeywordCutoffs); i++ {
			if c.KeywordCutoffs[i] <= c.KeywordCutoffs[i-1] {
				errs = append(errs, "keyword_cutoffs must be strictly ascending")
				break
			}
		}
	case ScorerVertex:
		if c.GoogleCloudProject == "" {
			errs = append(errs, "google_cloud_project is required when scorer=vertex")
		}
		if c.GoogleCloudLocation == "" {
			errs = append(errs, "google_cloud_location is required when scorer=vertex")
		}
	default:
		errs = append(errs, fmt.Sprintf("scorer must be one of %s, %s, %s", ScorerModel, ScorerKeywords, ScorerVertex))
	}

	if c.SessionTTLMinutes < 0 {
		errs = append(errs, "session_ttl_minutes must be >= 0")
	}
	if c.RateLimitPerSecond < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, "rate limits must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// SessionTTL is how long an idle interview session is kept; 0 keeps
// sessions for the life of the process.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// SweepInterval is how often idle sessions are swept.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// Resolve makes a relative path relative to DataDir.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// GoogleSignInEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleSignInEnabled() bool {
	return c.GoogleClientID != ""
}
