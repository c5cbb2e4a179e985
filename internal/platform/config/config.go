package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	// DefaultJWTSecret is only fit for local development.
	DefaultJWTSecret = "defaultsecret"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MigrationLockKey        string
	MigrationLockTTLSeconds int

	BcryptCost            int
	AllowSelfAssignedRole bool
	Store                 string
	AutoMigrate           bool
	LogFormat             string
}

// loader resolves one setting from, in order: changed flags, environment,
// the YAML config file, then the fallback.
type loader struct {
	file  *koanf.Koanf
	flags *koanf.Koanf
}

// Load builds the process configuration. path may be empty; flags may be nil.
// Flag names are the lower-case, dash-separated form of the env key
// (API_PORT -> api-port); YAML keys use underscores (api_port).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	l := loader{file: koanf.New("."), flags: koanf.New(".")}
	if path != "" {
		if err := l.file.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", nil, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		})
		if err := l.flags.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("load command-line flags: %w", err)
		}
	}

	cfg := &Config{
		APIPort:                 l.str("API_PORT", "8080"),
		JWTKey:                  []byte(l.str("JWT_SECRET", DefaultJWTSecret)),
		JWTExp:                  time.Duration(l.int("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:                  l.str("DB_HOST", "localhost"),
		DBPort:                  l.str("DB_PORT", "5432"),
		DBUser:                  l.str("DB_USER", "user"),
		DBPassword:              l.str("DB_PASSWORD", "password"),
		DBName:                  l.str("DB_NAME", "blog_db"),
		DBSslMode:               l.str("DB_SSLMODE", "disable"),
		RedisAddr:               l.str("REDIS_ADDR", ""),
		RedisPassword:           l.str("REDIS_PASSWORD", ""),
		RedisDB:                 l.int("REDIS_DB", 0),
		MigrationLockKey:        l.str("MIGRATION_LOCK_KEY", "blog_migration_lock"),
		MigrationLockTTLSeconds: l.int("MIGRATION_LOCK_TTL_SECONDS", 60),
		BcryptCost:              l.int("BCRYPT_COST", 10),
		AllowSelfAssignedRole:   l.bool("ALLOW_SELF_ASSIGNED_ROLE", false),
		Store:                   l.str("STORE", StorePostgres),
		AutoMigrate:             l.bool("AUTO_MIGRATE", true),
		LogFormat:               l.str("LOG_FORMAT", "json"),
	}

	cfg.DBConnStr = (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     cfg.DBHost + ":" + cfg.DBPort,
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.DBSslMode),
	}).String()

	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("unknown STORE %q (want %q or %q)", cfg.Store, StorePostgres, StoreMemory)
	}
	return cfg, nil
}

// UsesDefaultJWTSecret reports whether tokens would be signed with the
// built-in development secret.
func (c *Config) UsesDefaultJWTSecret() bool {
	return string(c.JWTKey) == DefaultJWTSecret
}

// MigrationLockTTL is the lock lifetime as a duration.
func (c *Config) MigrationLockTTL() time.Duration {
	return time.Duration(c.MigrationLockTTLSeconds) * time.Second
}

func (l loader) str(env, fallback string) string {
	flagKey, fileKey := keys(env)
	if l.flags.Exists(flagKey) {
		return l.flags.String(flagKey)
	}
	if value, exists := os.LookupEnv(env); exists {
		return value
	}
	if l.file.Exists(fileKey) {
		return l.file.String(fileKey)
	}
	return fallback
}

func (l loader) int(env string, fallback int) int {
	if value, err := strconv.Atoi(l.str(env, "")); err == nil {
		return value
	}
	return fallback
}

func (l loader) bool(env string, fallback bool) bool {
	if value, err := strconv.ParseBool(l.str(env, "")); err == nil {
		return value
	}
	return fallback
}

func keys(env string) (flagKey, fileKey string) {
	fileKey = strings.ToLower(env)
	return strings.ReplaceAll(fileKey, "_", "-"), fileKey
}
