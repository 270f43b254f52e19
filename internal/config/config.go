package config

import "time"

// Config is the single configuration struct passed into component
// constructors. Nothing below the handler layer reads the environment
// directly.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Security  SecurityConfig  `mapstructure:"security"`
	Sessions  SessionConfig   `mapstructure:"sessions"`
	Borrowing BorrowingConfig `mapstructure:"borrowing"`
	Fines     FineConfig      `mapstructure:"fines"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	DBName      string        `mapstructure:"dbname"`
	SSLMode     string        `mapstructure:"sslmode"`
	MaxConns    int           `mapstructure:"max_conns"`
	MinConns    int           `mapstructure:"min_conns"`
	ConnMaxLife time.Duration `mapstructure:"conn_max_life"`
	AutoMigrate bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Brokers    []string `mapstructure:"brokers"`
	AuditTopic string   `mapstructure:"audit_topic"`
}

// AuthConfig covers the signed session token handed to the web layer.
type AuthConfig struct {
	TokenSigningKey string        `mapstructure:"token_signing_key"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
}

// LockoutConfig drives the lockout engine. Lockout applies only to
// AffectedRoles; staff accounts are governed by manual locks instead.
type LockoutConfig struct {
	MaxFailedAttempts  int           `mapstructure:"max_failed_attempts"`
	LockDuration       time.Duration `mapstructure:"lock_duration"`
	ManualLockDuration time.Duration `mapstructure:"manual_lock_duration"`
	WarningThreshold   int           `mapstructure:"warning_threshold"`
	AffectedRoles      []string      `mapstructure:"affected_roles"`
}

// PasswordPolicyConfig drives rotation for elevated roles. AdminGraceDelay is
// the post-login window before a pending change is enforced for admins only.
type PasswordPolicyConfig struct {
	ExpiryDays      int           `mapstructure:"expiry_days"`
	AdminGraceDelay time.Duration `mapstructure:"admin_grace_delay"`
}

type PasswordHashConfig struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type SecurityConfig struct {
	Lockout           LockoutConfig        `mapstructure:"lockout"`
	PasswordPolicy    PasswordPolicyConfig `mapstructure:"password_policy"`
	PasswordHash      PasswordHashConfig   `mapstructure:"password_hash"`
	MinPasswordLength int                  `mapstructure:"min_password_length"`
}

// SessionConfig holds the per-role inactivity timeouts used when neither a
// per-session override nor a system setting applies.
type SessionConfig struct {
	RoleTimeoutMinutes map[string]int `mapstructure:"role_timeout_minutes"`
	DefaultTimeoutMin  int            `mapstructure:"default_timeout_minutes"`
	SettingsCacheTTL   time.Duration  `mapstructure:"settings_cache_ttl"`
}

type BorrowingConfig struct {
	PickupWindowDays      int `mapstructure:"pickup_window_days"`
	DefaultLoanPeriodDays int `mapstructure:"default_loan_period_days"`
	DefaultExtensionDays  int `mapstructure:"default_extension_days"`
	ReservationTimeoutHrs int `mapstructure:"reservation_timeout_hours"`
}

// FineTier is one inclusive band of overdue days billed at a flat daily rate.
// UpToDay == 0 means the band is open-ended.
type FineTier struct {
	UpToDay int    `mapstructure:"up_to_day"`
	Rate    string `mapstructure:"rate"`
}

type FineConfig struct {
	Tiers         []FineTier `mapstructure:"tiers"`
	ProcessingFee string     `mapstructure:"processing_fee"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}
