package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Keycloak holds the identity provider coordinates shared by both services.
type Keycloak struct {
	BaseURL      string        `env:"KEYCLOAK_URI,required,notEmpty"`
	Realm        string        `env:"KEYCLOAK_REALM,required,notEmpty"`
	ClientID     string        `env:"KEYCLOAK_CLIENT_ID,required,notEmpty"`
	ClientSecret string        `env:"KEYCLOAK_CLIENT_SECRET,required,notEmpty"`
	Timeout      time.Duration `env:"KEYCLOAK_TIMEOUT" envDefault:"10s"`
}

// IssuerURL is the realm issuer used to verify bearer tokens.
func (k Keycloak) IssuerURL() string {
	return strings.TrimRight(k.BaseURL, "/") + "/realms/" + url.PathEscape(k.Realm)
}

// Postgres captures relational store connection parameters and pool sizing.
type Postgres struct {
	Host        string `env:"PG_HOST" envDefault:"localhost"`
	Port        int    `env:"PG_PORT" envDefault:"5432"`
	Database    string `env:"PG_DATABASE" envDefault:"paralelogram"`
	Schema      string `env:"PG_SCHEMA" envDefault:"public"`
	Username    string `env:"PG_USERNAME" envDefault:"postgres"`
	Password    string `env:"PG_PASSWORD"`
	MaxPoolSize int    `env:"PG_MAX_POOL_SIZE" envDefault:"10"`
	MinIdle     int    `env:"PG_MIN_IDLE" envDefault:"2"`
}

// DSN builds a pgx connection URL with the configured search_path.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.Username, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	q := u.Query()
	q.Set("search_path", p.Schema)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig configures the optional shared admin token slot.
// An empty URL keeps the slot in process memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Audit configures where audit events go. Without brokers events are logged.
type Audit struct {
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic             string   `env:"AUDIT_TOPIC" envDefault:"paralelogram.audit"`
	Partitions        int32    `env:"AUDIT_TOPIC_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"AUDIT_TOPIC_REPLICATION" envDefault:"1"`
}

// RateLimit bounds password grants per client address.
type RateLimit struct {
	Disabled bool          `env:"TOKEN_RATE_LIMIT_DISABLED" envDefault:"false"`
	Limit    int           `env:"TOKEN_RATE_LIMIT" envDefault:"10"`
	Window   time.Duration `env:"TOKEN_RATE_WINDOW" envDefault:"1m"`
}

// Auth is the auth gateway configuration. Redis, when set, shares rate limit
// windows between replicas.
type Auth struct {
	Addr      string `env:"AUTH_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	Keycloak  Keycloak
	Redis     RedisConfig
	RateLimit RateLimit
	Audit     Audit
}

// User is the user management service configuration.
type User struct {
	Addr     string `env:"USER_ADDR" envDefault:":8081"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Keycloak Keycloak
	Postgres Postgres
	Redis    RedisConfig
	Audit    Audit
}

// LoadAuth reads the auth gateway configuration from the environment.
func LoadAuth() (Auth, error) {
	var cfg Auth
	if err := env.Parse(&cfg); err != nil {
		return Auth{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadUser reads the user service configuration from the environment.
func LoadUser() (User, error) {
	var cfg User
	if err := env.Parse(&cfg); err != nil {
		return User{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
