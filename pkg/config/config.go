package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STABLEMATE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "STABLEMATE_APP_ENV"
	EnvPort   = "STABLEMATE_APP_PORT"
	EnvDBDSN  = "STABLEMATE_DB_DSN"
	EnvDBHost = "STABLEMATE_DB_HOST"
	EnvDBUser = "STABLEMATE_DB_USER"
	EnvDBName = "STABLEMATE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	GroupBooking GroupBookingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STABLEMATE_APP_ENV" required:"true"`
	Port         string `envconfig:"STABLEMATE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STABLEMATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STABLEMATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STABLEMATE_DB_DSN"`
	Driver string `envconfig:"STABLEMATE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STABLEMATE_DB_HOST"`
	LegacyPort     int    `envconfig:"STABLEMATE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STABLEMATE_DB_USER"`
	LegacyPassword string `envconfig:"STABLEMATE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STABLEMATE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STABLEMATE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STABLEMATE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STABLEMATE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STABLEMATE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STABLEMATE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// GroupBookingConfig tunes the group booking aggregate.
type GroupBookingConfig struct {
	InviteCodeLength   int `envconfig:"STABLEMATE_GROUP_INVITE_CODE_LENGTH" default:"10"`
	DefaultMaxMembers  int `envconfig:"STABLEMATE_GROUP_DEFAULT_MAX_MEMBERS" default:"6"`
	AbsoluteMaxMembers int `envconfig:"STABLEMATE_GROUP_ABSOLUTE_MAX_MEMBERS" default:"20"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
