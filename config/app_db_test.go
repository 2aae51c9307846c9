package config

import (
	"net/url"
	"testing"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestLoadDatabaseConfig_URLWins(t *testing.T) {
	t.Setenv("APP_DATABASE_URL", `"postgres://app:secret@db:5432/carbioo?sslmode=disable"`)
	t.Setenv("POSTGRES_HOST", "ignored")

	cfg, err := LoadDatabaseConfig()
	require.NoError(t, err)

	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:secret@db:5432/carbioo?sslmode=disable", dsn)
	assert.Equal(t, "postgres://app:xxxxx@db:5432/carbioo?sslmode=disable", redactedDSN(dsn))
}

func TestLoadDatabaseConfig_BuildsEscapedURL(t *testing.T) {
	t.Setenv("APP_DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_USER", "carbioo")
	t.Setenv("POSTGRES_PASSWORD", "p@ss word/1")
	t.Setenv("POSTGRES_DB_NAME", "waitlist")
	unsetEnv(t, "POSTGRES_PORT")
	unsetEnv(t, "POSTGRES_SSLMODE")

	cfg, err := LoadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "require", cfg.SSLMode)

	dsn, err := cfg.DSN()
	require.NoError(t, err)

	parsed, err := url.Parse(dsn)
	require.NoError(t, err)
	password, _ := parsed.User.Password()
	assert.Equal(t, "p@ss word/1", password)
	assert.Equal(t, "db.internal:5432", parsed.Host)
	assert.Equal(t, "/waitlist", parsed.Path)
	assert.Equal(t, "require", parsed.Query().Get("sslmode"))
}

func TestDatabaseConfig_DSNListsMissingParts(t *testing.T) {
	cfg := &DatabaseConfig{Port: 5432}

	_, err := cfg.DSN()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_HOST")
	assert.Contains(t, err.Error(), "POSTGRES_USER")
	assert.Contains(t, err.Error(), "POSTGRES_DB_NAME")

	_, err = (&DatabaseConfig{Host: "h", User: "u", Name: "n", Port: 70000}).DSN()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_PORT")
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		`"value"`:   "value",
		`'value'`:   "value",
		`  value  `: "value",
		`"mixed'`:   `"mixed'`,
		`"`:         `"`,
	}
	for in, want := range cases {
		assert.Equal(t, want, unquote(in), in)
	}
}

func TestAutoMigrate_CreatesModelTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:config_automigrate?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	t.Cleanup(func() { CloseDatabase(db, log.NewDiscardLogger()) })

	require.NoError(t, AutoMigrate(log.NewDiscardLogger(), db, models.ModelRegistry...))
	assert.True(t, db.Migrator().HasTable(&models.WaitlistEntry{}))
	assert.True(t, db.Migrator().HasConstraint(&models.WaitlistEntry{}, "chk_waitlist_entries_token_pair"))

	assert.Error(t, AutoMigrate(log.NewDiscardLogger(), nil))
}
