package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrMissing is returned by Load when a required key is unset.
var ErrMissing = errors.New("config: missing required key")

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	DatabaseURL         string
	RunMigrations       bool
	RedisURL            string
	SupabaseURL         string // e.g. https://<project>.supabase.co, used for auth, storage sign URLs and public URLs
	SupabaseSecretKey   string // must be service_role key, not anon key
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	SendinblueAPIKey    string // Brevo; empty disables invite emails
	MailFrom            string
	InviteBaseURL       string // base URL for invite links
	RateLimitPerMinute  int    // per principal; 0 disables
}

var required = []string{"SUPABASE_URL", "SUPABASE_SECRET_KEY", "DATABASE_URL"}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("MAIL_FROM", "noreply@teamhub.app")
	v.SetDefault("INVITE_BASE_URL", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	return &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RunMigrations:       v.GetBool("RUN_MIGRATIONS"),
		RedisURL:            v.GetString("REDIS_URL"),
		SupabaseURL:         strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
		SupabaseSecretKey:   v.GetString("SUPABASE_SECRET_KEY"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		InviteBaseURL:       strings.TrimRight(strings.TrimSpace(v.GetString("INVITE_BASE_URL")), "/"),
		RateLimitPerMinute:  v.GetInt("RATE_LIMIT_PER_MINUTE"),
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
