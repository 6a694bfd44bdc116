package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings carries everything the process needs at startup. All values
// come from TASKHUB_* environment variables with sane defaults.
type Settings struct {
	Addr          string
	DSN           string
	GinMode       string
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	CORSOrigins   []string
}

func Load() Settings {
	v := viper.New()
	v.SetEnvPrefix("taskhub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("dsn", "root:@tcp(127.0.0.1:3306)/taskhub?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s")
	v.SetDefault("gin_mode", "")
	v.SetDefault("jwt_secret", "super-secret-key-change-me")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("cors_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")

	ttl, err := time.ParseDuration(v.GetString("token_ttl"))
	if err != nil {
		ttl = 24 * time.Hour
	}

	origins := []string{}
	for _, o := range strings.Split(v.GetString("cors_origins"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Settings{
		Addr:          strings.TrimSpace(v.GetString("addr")),
		DSN:           v.GetString("dsn"),
		GinMode:       strings.TrimSpace(v.GetString("gin_mode")),
		JWTSecret:     v.GetString("jwt_secret"),
		TokenTTL:      ttl,
		AdminEmail:    strings.TrimSpace(v.GetString("admin_email")),
		AdminPassword: v.GetString("admin_password"),
		CORSOrigins:   origins,
	}
}
