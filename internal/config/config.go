package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// History backends
const (
	HistoryBackendFile     = "file"
	HistoryBackendPostgres = "postgres"
)

// BlackoutRule defines a recurring unavailability for a user, e.g. a
// standing commitment every Friday. The rrule is expanded per target month.
type BlackoutRule struct {
	User  string `yaml:"user" validate:"required"`
	RRule string `yaml:"rrule" validate:"required"`
}

// Config represents the application configuration
type Config struct {
	Tier2RosterFile   string `yaml:"tier2RosterFile" validate:"required"`
	Tier3RosterFile   string `yaml:"tier3RosterFile" validate:"required"`
	UpgradeRosterFile string `yaml:"upgradeRosterFile" validate:"required"`

	// PTO maps user identifiers to comma-separated date ranges
	PTO map[string]string `yaml:"pto,omitempty"`

	// BlackoutRules are recurring unavailabilities on top of PTO
	BlackoutRules []BlackoutRule `yaml:"blackoutRules,omitempty" validate:"dive"`

	// HistoryBackend selects where cumulative shift history lives
	HistoryBackend string `yaml:"historyBackend,omitempty" validate:"omitempty,oneof=file postgres"`
	HistoryFile    string `yaml:"historyFile,omitempty"`
	DatabaseURL    string `yaml:"databaseURL,omitempty"`

	// ScheduleSheetID is the Google Sheets spreadsheet for publishing
	ScheduleSheetID string `yaml:"scheduleSheetID,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration with an environment
// suffix, e.g. env="test" reads "oncall_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, including rrule syntax and
// the backend-specific required fields.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, rule := range cfg.BlackoutRules {
		if _, err := rrule.StrToRRule(rule.RRule); err != nil {
			return fmt.Errorf("invalid rrule in blackoutRules[%d]: %w", i, err)
		}
	}

	switch cfg.HistoryBackend {
	case "", HistoryBackendFile:
		if cfg.HistoryFile == "" {
			return fmt.Errorf("historyFile is required for the file history backend")
		}
	case HistoryBackendPostgres:
		if cfg.DatabaseURL == "" && os.Getenv("DATABASE_URL") == "" {
			return fmt.Errorf("databaseURL (or DATABASE_URL) is required for the postgres history backend")
		}
	}

	return nil
}

// BlackoutRulesByUser groups the configured recurrence rules per user
func (c *Config) BlackoutRulesByUser() map[string][]string {
	rules := make(map[string][]string)
	for _, rule := range c.BlackoutRules {
		rules[rule.User] = append(rules[rule.User], rule.RRule)
	}
	return rules
}

// findConfigFile searches for oncall_config.yaml in the current directory
// and the user's home directory. env, when set, is added as an extension.
func findConfigFile(env string) (string, error) {
	configFileName := "oncall_config.yaml"
	if env != "" {
		configFileName = "oncall_config." + env + ".yaml"
	}

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
