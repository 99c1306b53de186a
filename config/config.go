// config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backends selectable in config.
const (
	DocumentBackendFirestore = "firestore"
	DocumentBackendPostgres  = "postgres"

	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"

	ClaimBackendCache    = "cache"
	ClaimBackendPostgres = "postgres"
)

// S3Config points at the blob bucket (R2 or any S3-compatible endpoint).
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	CDNBaseURL      string `mapstructure:"cdn_base_url"`
}

// Config is the service configuration.
type Config struct {
	Addr             string        `mapstructure:"addr"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	DatabaseURL      string        `mapstructure:"database_url"`
	DocumentBackend  string        `mapstructure:"document_backend"`
	FirestoreProject string        `mapstructure:"firestore_project"`
	CacheBackend     string        `mapstructure:"cache_backend"`
	LocalDBPath      string        `mapstructure:"local_db_path"`
	RedisURL         string        `mapstructure:"redis_url"`
	ClaimBackend     string        `mapstructure:"claim_backend"`
	JWTSecret        string        `mapstructure:"jwt_secret"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	PhotoDir         string        `mapstructure:"photo_dir"`
	ReplayInterval   time.Duration `mapstructure:"replay_interval"`
	S3               S3Config      `mapstructure:"s3"`
}

// EnvPrefix prefixes every environment override, e.g. ENDOTRACK_JWT_SECRET.
const EnvPrefix = "ENDOTRACK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":5200")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("document_backend", DocumentBackendPostgres)
	v.SetDefault("cache_backend", CacheBackendSQLite)
	v.SetDefault("local_db_path", "endotrack-cache.db")
	v.SetDefault("claim_backend", ClaimBackendCache)
	v.SetDefault("token_ttl", 72*time.Hour)
	v.SetDefault("photo_dir", "uploads/photos")
	v.SetDefault("replay_interval", 30*time.Second)
	v.SetDefault("s3.region", "auto")
}

// Load reads .env, then the optional YAML file at path, then ENDOTRACK_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{
		"database_url", "firestore_project", "redis_url", "jwt_secret",
		"s3.endpoint", "s3.bucket", "s3.access_key_id", "s3.secret_access_key", "s3.cdn_base_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *os.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
			log.Printf("⚠️  [CONFIG] %s not found, using defaults and environment", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// Env values arrive as one comma separated string.
	cfg.AllowedOrigins = splitOrigins(strings.Join(cfg.AllowedOrigins, ","))

	if cfg.JWTSecret == "" {
		if secret, err := GetSecret(SecretJWT); err == nil {
			cfg.JWTSecret = secret
		} else {
			log.Printf("⚠️  [CONFIG] jwt secret not in config or keyring: %v", err)
		}
	}
	if cfg.S3.SecretAccessKey == "" {
		if secret, err := GetSecret(SecretS3); err == nil {
			cfg.S3.SecretAccessKey = secret
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks backend names and required settings.
func (c *Config) Validate() error {
	// Accounts always live in Postgres, whatever the document backend.
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	switch c.DocumentBackend {
	case DocumentBackendFirestore:
		if c.FirestoreProject == "" {
			return errors.New("firestore_project is required for the firestore document backend")
		}
	case DocumentBackendPostgres:
	default:
		return fmt.Errorf("unknown document_backend %q", c.DocumentBackend)
	}
	switch c.CacheBackend {
	case CacheBackendSQLite:
	case CacheBackendRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache_backend %q", c.CacheBackend)
	}
	switch c.ClaimBackend {
	case ClaimBackendCache, ClaimBackendPostgres:
	default:
		return fmt.Errorf("unknown claim_backend %q", c.ClaimBackend)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	return nil
}

func splitOrigins(raw string) []string {
	var out []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
