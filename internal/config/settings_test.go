package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	s := Load()
	assert.Equal(t, ":8080", s.Addr)
	assert.Equal(t, 24*time.Hour, s.TokenTTL)
	assert.NotEmpty(t, s.JWTSecret)
	assert.NotEmpty(t, s.CORSOrigins)
	assert.Empty(t, s.AdminEmail)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TASKHUB_ADDR", ":9090")
	t.Setenv("TASKHUB_TOKEN_TTL", "2h")
	t.Setenv("TASKHUB_ADMIN_EMAIL", "root@example.com")
	t.Setenv("TASKHUB_CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	s := Load()
	assert.Equal(t, ":9090", s.Addr)
	assert.Equal(t, 2*time.Hour, s.TokenTTL)
	assert.Equal(t, "root@example.com", s.AdminEmail)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, s.CORSOrigins)
}

func TestLoadFallsBackOnBadTTL(t *testing.T) {
	t.Setenv("TASKHUB_TOKEN_TTL", "soon")
	assert.Equal(t, 24*time.Hour, Load().TokenTTL)
}
