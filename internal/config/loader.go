package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig reads configuration from config.<env>.yaml and LIBSYS_-prefixed
// environment variables. A missing config file is fine; env vars alone work.
func LoadConfig() (*Config, error) {
	// Local development convenience; errors are ignored on purpose.
	_ = godotenv.Load()

	setDefaults()

	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/libsys")
	}

	viper.SetEnvPrefix("LIBSYS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "15s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("auth.token_ttl", "12h")
	viper.SetDefault("auth.issuer", "libsys")

	viper.SetDefault("security.lockout.max_failed_attempts", 5)
	viper.SetDefault("security.lockout.lock_duration", "5m")
	viper.SetDefault("security.lockout.manual_lock_duration", "30m")
	viper.SetDefault("security.lockout.warning_threshold", 3)
	viper.SetDefault("security.lockout.affected_roles", []string{"member"})

	viper.SetDefault("security.password_policy.expiry_days", 180)
	viper.SetDefault("security.password_policy.admin_grace_delay", "1m")

	viper.SetDefault("security.min_password_length", 8)

	viper.SetDefault("security.password_hash.memory", 64*1024)
	viper.SetDefault("security.password_hash.iterations", 3)
	viper.SetDefault("security.password_hash.parallelism", 4)
	viper.SetDefault("security.password_hash.salt_length", 16)
	viper.SetDefault("security.password_hash.key_length", 32)

	viper.SetDefault("sessions.role_timeout_minutes", map[string]int{
		"member":    15,
		"librarian": 15,
		"manager":   30,
		"admin":     30,
	})
	viper.SetDefault("sessions.default_timeout_minutes", 15)
	viper.SetDefault("sessions.settings_cache_ttl", "5m")

	viper.SetDefault("borrowing.pickup_window_days", 3)
	viper.SetDefault("borrowing.default_loan_period_days", 14)
	viper.SetDefault("borrowing.default_extension_days", 7)
	viper.SetDefault("borrowing.reservation_timeout_hours", 24)

	viper.SetDefault("fines.tiers", []map[string]interface{}{
		{"up_to_day": 3, "rate": "2.00"},
		{"up_to_day": 7, "rate": "5.00"},
		{"up_to_day": 0, "rate": "10.00"},
	})
	viper.SetDefault("fines.processing_fee", "50.00")
}
