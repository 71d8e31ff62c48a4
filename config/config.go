package config

import (
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sib-utrecht/portal/codes"
	"github.com/sib-utrecht/portal/storage"
)

type Config struct {
	InstanceId uint8          `json:"instance_id"`
	HTTP       HTTP           `json:"http"`
	Log        Log            `json:"log"`
	Auth       Auth           `json:"auth"`
	TOTP       TOTP           `json:"totp"`
	Storage    storage.Config `json:"storage"`
	Migrations *bool          `json:"migrations"`
}

type HTTP struct {
	Listen string `json:"listen"`
}

type Log struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

type Auth struct {
	// HS256 signing secret shared with the identity provider's
	// token broker
	Secret   string `json:"secret"`
	Issuer   string `json:"issuer"`
	Audience string `json:"audience"`

	// members of this group (cognito:groups claim) are admins
	AdminGroup string `json:"admin_group"`

	// allowed clock skew, in seconds, when validating exp/nbf
	Leeway int `json:"leeway"`
}

type TOTP struct {
	// issuer shown in authenticator apps for provisioned committees
	Issuer string `json:"issuer"`
	// number of random bytes in a new secret; the base32 form is longer
	SecretLength int `json:"secret_length"`
}

// Values which are typically injected by the deployment rather
// than committed in the config file. Read with the PORTAL_ prefix,
// e.g. PORTAL_AUTH_SECRET.
type overrides struct {
	Listen      string `envconfig:"HTTP_LISTEN"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	AuthSecret  string `envconfig:"AUTH_SECRET"`
	StorageType string `envconfig:"STORAGE_TYPE"`
	PostgresURL string `envconfig:"POSTGRES_URL"`
	SqlitePath  string `envconfig:"SQLITE_PATH"`
}

func (a Auth) LeewayDuration() time.Duration {
	return time.Duration(a.Leeway) * time.Second
}

// Configure loads, validates and applies the configuration: the
// global logger is configured and the storage singleton is opened.
func Configure(filePath string) (Config, error) {
	config, err := Load(filePath)
	if err != nil {
		return config, err
	}

	if err := configureLog(config.Log); err != nil {
		return config, err
	}

	if err := storage.Configure(config.Storage); err != nil {
		return config, err
	}

	return config, nil
}

// Load reads and validates the configuration without any side effects.
func Load(filePath string) (Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, codes.Err(codes.ERR_READ_CONFIG, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return config, codes.Err(codes.ERR_PARSE_CONFIG, err)
	}

	if err := applyOverrides(&config); err != nil {
		return config, err
	}

	if config.Auth.Secret == "" {
		return config, codes.Errf(codes.ERR_AUTH_CONFIG, "auth.secret must be set")
	}
	if config.Auth.AdminGroup == "" {
		config.Auth.AdminGroup = "admins"
	}

	if config.TOTP.SecretLength == 0 {
		config.TOTP.SecretLength = 32
	}
	if config.TOTP.Issuer == "" {
		config.TOTP.Issuer = "Member Portal"
	}

	return config, nil
}

func applyOverrides(config *Config) error {
	var o overrides
	if err := envconfig.Process("portal", &o); err != nil {
		return codes.Err(codes.ERR_ENV_CONFIG, err)
	}

	if o.Listen != "" {
		config.HTTP.Listen = o.Listen
	}
	if o.LogLevel != "" {
		config.Log.Level = o.LogLevel
	}
	if o.AuthSecret != "" {
		config.Auth.Secret = o.AuthSecret
	}
	if o.StorageType != "" {
		config.Storage.Type = o.StorageType
	}
	if o.PostgresURL != "" {
		config.Storage.Postgres.URL = o.PostgresURL
	}
	if o.SqlitePath != "" {
		config.Storage.Sqlite.Path = o.SqlitePath
	}
	return nil
}

func configureLog(config Log) error {
	level := zerolog.InfoLevel
	if l := strings.TrimSpace(config.Level); l != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(l))
		if err != nil {
			return codes.Err(codes.ERR_LOG_CONFIG, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if config.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}
