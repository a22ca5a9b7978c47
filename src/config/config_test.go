package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing files give defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := Load(filepath.Join(dir, ".env"), filepath.Join(dir, "hedgesheets.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.True(t, cfg.Output.OpenAfterWrite)
		assert.Equal(t, 1.0, cfg.Sheet.StrikeIncrement)
	})

	t.Run("yaml overrides only what it names", func(t *testing.T) {
		path := writeFile(t, "hedgesheets.yaml", `
etrade:
  accounts: ["11111234", "22225678"]
schwab:
  account_hash: ABCDEF
output:
  export_csv: true
  drive_folder_id: folder-1
sheet:
  strike_increment: 2.5
retry:
  max_attempts: 3
log_level: debug
`)

		cfg, err := Load(filepath.Join(t.TempDir(), ".env"), path)
		require.NoError(t, err)

		assert.Equal(t, []string{"11111234", "22225678"}, cfg.ETrade.Accounts)
		assert.Equal(t, "ABCDEF", cfg.Schwab.AccountHash)
		assert.Equal(t, "tokens.json", cfg.Schwab.TokenFile)
		assert.True(t, cfg.Output.ExportCSV)
		assert.True(t, cfg.Output.OpenAfterWrite)
		assert.Equal(t, "folder-1", cfg.Output.DriveFolderID)
		assert.Equal(t, 2.5, cfg.Sheet.StrikeIncrement)
		assert.Equal(t, 3, cfg.Retry.MaxAttempts)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		for _, content := range []string{
			"sheet:\n  strike_increment: 0\n",
			"log_level: loud\n",
			"etrade: [",
		} {
			_, err := Load(filepath.Join(t.TempDir(), ".env"), writeFile(t, "hedgesheets.yaml", content))
			assert.Error(t, err, content)
		}
	})

	t.Run("env file fills the environment", func(t *testing.T) {
		for _, key := range []string{"CONSUMER_KEY", "PROD_BASE_URL"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
		t.Setenv("CONSUMER_SECRET", "from-process")

		envFile := writeFile(t, ".env", "CONSUMER_KEY=from-file\nCONSUMER_SECRET=from-file\nPROD_BASE_URL=https://api.etrade.com\n")

		_, err := Load(envFile, filepath.Join(t.TempDir(), "hedgesheets.yaml"))
		require.NoError(t, err)

		creds, err := ETradeCredentialsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "from-file", creds.ConsumerKey)
		assert.Equal(t, "from-process", creds.ConsumerSecret)
		assert.Equal(t, "https://api.etrade.com", creds.BaseURL)
	})
}

func TestCredentialsAreCheckedLazily(t *testing.T) {
	t.Setenv("app_key", "key")
	t.Setenv("app_secret", "")
	t.Setenv("callback_url", "https://127.0.0.1")

	_, err := SchwabCredentialsFromEnv()
	require.Error(t, err)
	assert.Equal(t, "missing app_secret environment variable", err.Error())

	t.Setenv("app_secret", "secret")
	creds, err := SchwabCredentialsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, SchwabCredentials{AppKey: "key", AppSecret: "secret", CallbackURL: "https://127.0.0.1"}, creds)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvFileVariable, filepath.Join(t.TempDir(), ".env"))
	t.Setenv(ConfigFileVariable, writeFile(t, "custom.yaml", "schwab:\n  account_hash: XYZ\nsheet:\n  strike_increment: 5\n"))

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "XYZ", cfg.Schwab.AccountHash)
	assert.Equal(t, 5.0, cfg.Sheet.StrikeIncrement)

	t.Setenv(ConfigFileVariable, writeFile(t, "broken.yaml", "log_level: loud\n"))
	_, err = LoadFromEnv()
	assert.Error(t, err)
}
