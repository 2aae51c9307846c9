package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey     = "APP_ENV"
	envFileKey    = "ENV_FILE"
	skipDotenvKey = "SKIP_DOTENV"
)

// Environment is APP_ENV folded onto one canonical name per deployment tier.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTest        Environment = "test"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

var environmentAliases = map[string]Environment{
	"":            EnvDevelopment,
	"dev":         EnvDevelopment,
	"development": EnvDevelopment,
	"local":       EnvDevelopment,
	"test":        EnvTest,
	"testing":     EnvTest,
	"stage":       EnvStaging,
	"staging":     EnvStaging,
	"prod":        EnvProduction,
	"production":  EnvProduction,
}

// ParseEnvironment maps aliases onto their tier. Unknown names are kept
// lowercased so they can be reported.
func ParseEnvironment(raw string) Environment {
	name := strings.ToLower(strings.TrimSpace(raw))
	if env, ok := environmentAliases[name]; ok {
		return env
	}
	return Environment(name)
}

func CurrentEnvironment() Environment {
	return ParseEnvironment(os.Getenv(AppEnvKey))
}

func (e Environment) IsProduction() bool {
	return e == EnvProduction
}

// AllowsAutoMigrate is true for development and test only. Shared tiers go
// through the versioned SQL migrations.
func (e Environment) AllowsAutoMigrate() bool {
	return e == EnvDevelopment || e == EnvTest
}

func ValidateAutoMigrateAllowed(env Environment) error {
	if env.AllowsAutoMigrate() {
		return nil
	}
	return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: development, test and their aliases)", AppEnvKey, string(env))
}

// InitializeEnvFile loads ENV_FILE (comma separated, default .env) without
// overriding variables already set. SKIP_DOTENV=true turns it off.
func InitializeEnvFile(logger *log.Logger) {
	if strings.EqualFold(strings.TrimSpace(os.Getenv(skipDotenvKey)), "true") {
		logger.Info("Skipping env file load", "reason", skipDotenvKey+"=true")
		return
	}

	files := envFiles(os.Getenv(envFileKey))
	for _, file := range files {
		err := godotenv.Load(file)
		switch {
		case err == nil:
			logger.Info("Environment variables loaded", "file", file)
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("Env file not found", "file", file)
		default:
			logger.Warn("Failed to load env file", "file", file, "error", err)
		}
	}
}

func envFiles(raw string) []string {
	var files []string
	for _, file := range strings.Split(raw, ",") {
		if file = strings.TrimSpace(file); file != "" {
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		return []string{".env"}
	}
	return files
}
