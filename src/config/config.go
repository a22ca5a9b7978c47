// Package config reads settings from a YAML file and secrets from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/hedge-sheets/src/utils"
)

const (
	EnvFileVariable    = "HEDGESHEETS_ENV_FILE"
	ConfigFileVariable = "HEDGESHEETS_CONFIG"

	DefaultConfigFile = "hedgesheets.yaml"
)

type Config struct {
	ETrade   ETradeConfig `yaml:"etrade"`
	Schwab   SchwabConfig `yaml:"schwab"`
	Output   OutputConfig `yaml:"output"`
	Sheet    SheetConfig  `yaml:"sheet"`
	Retry    RetryConfig  `yaml:"retry"`
	LogLevel string       `yaml:"log_level"`
}

type ETradeConfig struct {
	// Accounts limits processing to these account ids. Empty means every account.
	Accounts     []string `yaml:"accounts"`
	AuthorizeURL string   `yaml:"authorize_url"`
}

type SchwabConfig struct {
	AccountHash string `yaml:"account_hash"`
	BaseURL     string `yaml:"base_url"`
	TokenFile   string `yaml:"token_file"`
}

type OutputConfig struct {
	Dir            string `yaml:"dir"`
	OpenAfterWrite bool   `yaml:"open_after_write"`
	ExportCSV      bool   `yaml:"export_csv"`
	DriveFolderID  string `yaml:"drive_folder_id"`
}

type SheetConfig struct {
	StrikeIncrement float64 `yaml:"strike_increment"`
}

type RetryConfig struct {
	// MaxAttempts <= 0 keeps asking until the user declines.
	MaxAttempts int `yaml:"max_attempts"`
}

func Default() Config {
	return Config{
		Schwab: SchwabConfig{
			TokenFile: "tokens.json",
		},
		Output: OutputConfig{
			Dir:            ".",
			OpenAfterWrite: true,
		},
		Sheet: SheetConfig{
			StrikeIncrement: 1,
		},
		LogLevel: "info",
	}
}

// Load reads envFile into the environment and configFile over the defaults. Either
// file may be missing.
func Load(envFile, configFile string) (Config, error) {
	if err := utils.InitEnvironmentVariables(envFile); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}

	cfg := Default()

	if configFile == "" {
		configFile = DefaultConfigFile
	}

	data, err := os.ReadFile(configFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("Load: failed to read %s: %w", configFile, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("Load: failed to unmarshal %s: %w", configFile, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %s: %w", configFile, err)
	}

	return cfg, nil
}

// LoadFromEnv finds both files through HEDGESHEETS_ENV_FILE and HEDGESHEETS_CONFIG.
func LoadFromEnv() (Config, error) {
	return Load(os.Getenv(EnvFileVariable), os.Getenv(ConfigFileVariable))
}

func (c Config) Validate() error {
	if c.Sheet.StrikeIncrement <= 0 {
		return fmt.Errorf("sheet.strike_increment must be positive, got %v", c.Sheet.StrikeIncrement)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	return nil
}

type ETradeCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	BaseURL        string
}

// ETradeCredentialsFromEnv is called only once E*TRADE is chosen, so a user of the
// other provider needs none of these variables.
func ETradeCredentialsFromEnv() (ETradeCredentials, error) {
	consumerKey, err := utils.GetEnv("CONSUMER_KEY")
	if err != nil {
		return ETradeCredentials{}, err
	}

	consumerSecret, err := utils.GetEnv("CONSUMER_SECRET")
	if err != nil {
		return ETradeCredentials{}, err
	}

	baseURL, err := utils.GetEnv("PROD_BASE_URL")
	if err != nil {
		return ETradeCredentials{}, err
	}

	return ETradeCredentials{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		BaseURL:        baseURL,
	}, nil
}

type SchwabCredentials struct {
	AppKey      string
	AppSecret   string
	CallbackURL string
}

func SchwabCredentialsFromEnv() (SchwabCredentials, error) {
	appKey, err := utils.GetEnv("app_key")
	if err != nil {
		return SchwabCredentials{}, err
	}

	appSecret, err := utils.GetEnv("app_secret")
	if err != nil {
		return SchwabCredentials{}, err
	}

	callbackURL, err := utils.GetEnv("callback_url")
	if err != nil {
		return SchwabCredentials{}, err
	}

	return SchwabCredentials{
		AppKey:      appKey,
		AppSecret:   appSecret,
		CallbackURL: callbackURL,
	}, nil
}
