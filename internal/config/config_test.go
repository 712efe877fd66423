package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "JWT_SECRET", "JWT_EXPIRES_DAYS", "NODE_ENV", "REQUEST_TIMEOUT", "PUZZLES_FILE"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, "5175", c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 14, c.JWTExpiresDays)
	assert.False(t, c.Production)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Empty(t, c.PuzzlesFile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "")
	t.Setenv("JWT_EXPIRES_DAYS", "3")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	c := Load()
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "", c.DBPath)
	assert.Equal(t, 3, c.JWTExpiresDays)
	assert.True(t, c.Production)
	assert.Equal(t, 2*time.Second, c.RequestTimeout)
}
