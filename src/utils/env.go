package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const DEFAULT_ENV_FILENAME = ".env"

// InitEnvironmentVariables loads envFile into the process environment. Variables
// that are already set win. A missing file is not an error.
func InitEnvironmentVariables(envFile string) error {
	if envFile == "" {
		envFile = DEFAULT_ENV_FILENAME
	}

	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		log.Debugf("no %s file found, using process environment", envFile)
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s file: %v", envFile, err)
	}

	return nil
}

func GetEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("missing %s environment variable", key)
	}

	return value, nil
}
