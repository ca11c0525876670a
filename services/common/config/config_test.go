package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecretMap(ctx context.Context, name string) (map[string]string, error) {
	return f, nil
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com/, https://admin.example.com")

	cfg := FromEnv()
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", SQLitePath: "x.db", Env: "development", EventBus: "none"}
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.JWTSecret)

	prod := &Config{DBDriver: "sqlite", SQLitePath: "x.db", Env: "production"}
	assert.EqualError(t, prod.Validate(), "JWT_SECRET is required in production")

	pg := &Config{DBDriver: "postgres", JWTSecret: "s"}
	assert.EqualError(t, pg.Validate(), "database config incomplete")

	kafka := &Config{DBDriver: "sqlite", SQLitePath: "x.db", JWTSecret: "s", EventBus: "kafka"}
	assert.Error(t, kafka.Validate())

	mysql := &Config{DBDriver: "mysql"}
	assert.Error(t, mysql.Validate())
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{AWSSecretName: "storefront/backend", PostgresUser: "env-user", PostgresHost: "db"}
	err := cfg.ApplySecrets(context.Background(), fakeSecrets{
		"POSTGRES_USER": "secret-user",
		"JWT_SECRET":    "from-secrets",
		"POSTGRES_HOST": "",
	})
	require.NoError(t, err)
	assert.Equal(t, "secret-user", cfg.PostgresUser)
	assert.Equal(t, "from-secrets", cfg.JWTSecret)
	assert.Equal(t, "db", cfg.PostgresHost)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@h/db"}
	assert.Equal(t, "postgres://u:p@h/db", cfg.PostgresDSN())

	cfg = &Config{PostgresHost: "h", PostgresUser: "u", PostgresPassword: "p", PostgresDB: "d", PostgresPort: "5432", PostgresSSLMode: "disable", PostgresTimeZone: "UTC"}
	assert.Equal(t, "host=h user=u password=p dbname=d port=5432 sslmode=disable TimeZone=UTC", cfg.PostgresDSN())
}
