package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is populated from AUTH_-prefixed environment variables.
type Config struct {
	Issuer string `envconfig:"ISSUER" default:"agencyauth"`

	// SigningKeys maps kid to shared secret ("k1:secret,k2:secret").
	// Retired kids stay in the set for verification; ActiveKID signs. When
	// empty an ephemeral key is generated and tokens die with the process.
	SigningKeys map[string]string `envconfig:"SIGNING_KEYS"`
	ActiveKID   string            `envconfig:"ACTIVE_KID"`

	DatabaseFile string `envconfig:"DATABASE_FILE" default:"auth.db"`

	AccessTTL     time.Duration `envconfig:"ACCESS_TTL" default:"1h"`
	RefreshTTL    time.Duration `envconfig:"REFRESH_TTL" default:"720h"`
	DeviceCodeTTL time.Duration `envconfig:"DEVICE_CODE_TTL" default:"10m"`
	// PollInterval is the minimum polling interval in seconds suggested to
	// devices.
	PollInterval int `envconfig:"POLL_INTERVAL" default:"5"`
	// VerificationURI is handed to devices verbatim in the authorization
	// response.
	VerificationURI string `envconfig:"VERIFICATION_URI" default:"http://localhost:8080/activate"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// SeedDemoData provisions demo users and clients on an empty database.
	SeedDemoData bool `envconfig:"SEED_DEMO_DATA" default:"false"`

	Env       string `envconfig:"ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Port      int    `envconfig:"PORT" default:"8080"`

	ShutdownGracePeriod  time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`
	HousekeepingInterval time.Duration `envconfig:"HOUSEKEEPING_INTERVAL" default:"10m"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("auth", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
