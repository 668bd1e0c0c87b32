// Package config loads service settings from defaults, an optional config
// file and NANOSEARCH_* environment variables, in increasing priority.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	HTTPListenPath          = "http.listen"
	HTTPReadTimeoutPath     = "http.read_timeout"
	HTTPShutdownTimeoutPath = "http.shutdown_timeout"
	MaxBodyBytesPath        = "server.max_body_bytes"
	APIKeyHashesPath        = "auth.api_key_hashes"
	QueryMaxLengthPath      = "query.max_length"
	CacheExpirationPath     = "query.cache_expiration"
	CacheCleanupPath        = "query.cache_cleanup"
	BatchWorkersPath        = "query.batch_workers"
	EngineCapacityPath      = "engine.capacity"
	EngineRetentionPath     = "engine.retention"
	SearchDefaultLimitPath  = "search.default_limit"
	LogLevelPath            = "log.level"
	LogPathPath             = "log.path"

	EnvPrefix = "NANOSEARCH"
)

// Config is the resolved service configuration.
type Config struct {
	HTTP   HTTPConfig
	Auth   AuthConfig
	Query  QueryConfig
	Engine EngineConfig
	Log    LogConfig
}

type HTTPConfig struct {
	Listen          string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// AuthConfig holds bcrypt hashes of accepted API keys. No hashes means
// authentication is off.
type AuthConfig struct {
	APIKeyHashes []string
}

type QueryConfig struct {
	MaxLength       int
	CacheExpiration time.Duration
	CacheCleanup    time.Duration
	BatchWorkers    int
}

type EngineConfig struct {
	Capacity     int
	Retention    time.Duration // 0 disables the cleaner
	DefaultLimit int
}

type LogConfig struct {
	Level string
	Path  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(HTTPListenPath, ":8088")
	v.SetDefault(HTTPReadTimeoutPath, 10*time.Second)
	v.SetDefault(HTTPShutdownTimeoutPath, 5*time.Second)
	v.SetDefault(MaxBodyBytesPath, 4<<20)
	v.SetDefault(APIKeyHashesPath, []string{})
	v.SetDefault(QueryMaxLengthPath, 4096)
	v.SetDefault(CacheExpirationPath, 5*time.Minute)
	v.SetDefault(CacheCleanupPath, 10*time.Minute)
	v.SetDefault(BatchWorkersPath, 8)
	v.SetDefault(EngineCapacityPath, 100000)
	v.SetDefault(EngineRetentionPath, 0)
	v.SetDefault(SearchDefaultLimitPath, 100)
	v.SetDefault(LogLevelPath, "info")
	v.SetDefault(LogPathPath, "")
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Listen:          v.GetString(HTTPListenPath),
			ReadTimeout:     v.GetDuration(HTTPReadTimeoutPath),
			ShutdownTimeout: v.GetDuration(HTTPShutdownTimeoutPath),
			MaxBodyBytes:    v.GetInt64(MaxBodyBytesPath),
		},
		Auth: AuthConfig{
			APIKeyHashes: v.GetStringSlice(APIKeyHashesPath),
		},
		Query: QueryConfig{
			MaxLength:       v.GetInt(QueryMaxLengthPath),
			CacheExpiration: v.GetDuration(CacheExpirationPath),
			CacheCleanup:    v.GetDuration(CacheCleanupPath),
			BatchWorkers:    v.GetInt(BatchWorkersPath),
		},
		Engine: EngineConfig{
			Capacity:     v.GetInt(EngineCapacityPath),
			Retention:    v.GetDuration(EngineRetentionPath),
			DefaultLimit: v.GetInt(SearchDefaultLimitPath),
		},
		Log: LogConfig{
			Level: v.GetString(LogLevelPath),
			Path:  v.GetString(LogPathPath),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.HTTP.Listen == "":
		return errors.Errorf("%s must not be empty", HTTPListenPath)
	case c.HTTP.MaxBodyBytes <= 0:
		return errors.Errorf("%s must be positive", MaxBodyBytesPath)
	case c.Query.MaxLength <= 0:
		return errors.Errorf("%s must be positive", QueryMaxLengthPath)
	case c.Query.BatchWorkers <= 0:
		return errors.Errorf("%s must be positive", BatchWorkersPath)
	case c.Engine.Capacity <= 0:
		return errors.Errorf("%s must be positive", EngineCapacityPath)
	case c.Engine.DefaultLimit <= 0:
		return errors.Errorf("%s must be positive", SearchDefaultLimitPath)
	}
	return nil
}
