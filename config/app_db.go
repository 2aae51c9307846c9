package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/ilyakaznacheev/cleanenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DatabaseConfig points at PostgreSQL either through APP_DATABASE_URL or the
// POSTGRES_* parts, which are only consulted when the URL is empty.
type DatabaseConfig struct {
	URL      string `env:"APP_DATABASE_URL" env-description:"full postgres DSN, wins over POSTGRES_*"`
	Host     string `env:"POSTGRES_HOST"`
	Port     int    `env:"POSTGRES_PORT" env-default:"5432"`
	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Name     string `env:"POSTGRES_DB_NAME"`
	SSLMode  string `env:"POSTGRES_SSLMODE" env-default:"require"`

	MaxIdleConns       int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns       int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	ConnMaxLifetime    time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" env-default:"200ms"`
	PingTimeout        time.Duration `env:"DB_PING_TIMEOUT" env-default:"5s"`

	// MigrationsDir is only read by the CLI migrate command.
	MigrationsDir string `env:"MIGRATIONS_DIR" env-default:"migrations"`
}

func LoadDatabaseConfig() (*DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read database config: %w", err)
	}

	// Orchestrators sometimes pass values through with their quotes.
	for _, field := range []*string{&cfg.URL, &cfg.Host, &cfg.User, &cfg.Password, &cfg.Name, &cfg.SSLMode, &cfg.MigrationsDir} {
		*field = unquote(*field)
	}

	return &cfg, nil
}

// DSN returns the connection string, building a postgres:// URL from the
// parts when APP_DATABASE_URL is unset. Credentials are URL-escaped.
func (c *DatabaseConfig) DSN() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}

	var missing []string
	if c.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if c.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if c.Name == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}
	if c.Port <= 0 || c.Port > 65535 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing or invalid database env vars: %s", strings.Join(missing, ", "))
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return dsn.String(), nil
}

// redactedDSN is safe to log.
func redactedDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "<unparseable dsn>"
	}
	return u.Redacted()
}

// NewDatabase opens PostgreSQL through gorm. Driver errors are translated,
// so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(logger *log.Logger, cfg *DatabaseConfig) (*gorm.DB, error) {
	if cfg == nil {
		loaded, err := LoadDatabaseConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	dsn, err := cfg.DSN()
	if err != nil {
		logger.Error("Database is not configured", "error", err)
		return nil, err
	}

	logger.Info("Connecting to database", "dsn", redactedDSN(dsn))

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.NewSlogLogger(logger.Logger, gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Database ping failed", "error", err)
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return gdb, nil
}

func unquote(v string) string {
	s := strings.TrimSpace(v)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// AutoMigrate syncs the gorm models; SQL migrations remain the source of truth
// outside development.
func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database auto-migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database auto-migration completed", "models", len(models))
	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}
	logger.Info("Database closed")
}
