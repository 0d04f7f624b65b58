package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string `env:"ENV" env-required:"true"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`
	HttpServer   HttpServer
	Database     Database
	Limiter      Limiter
	Auth         AuthConfig
	Verification VerificationConfig
	Sybil        SybilConfig
	Webhook      WebhookConfig
	Cache        Cache
}

type HttpServer struct {
	Port           string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout        time.Duration `env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	SwaggerEnabled bool          `env:"HTTP_SWAGGER_ENABLED" env-default:"false"`
}

type Database struct {
	Net                string        `env:"DB_NET" env-default:"tcp"`
	Server             string        `env:"DB_SERVER" env-required:"true"`
	DBName             string        `env:"DB_NAME" env-required:"true"`
	User               string        `env:"DB_USER" env-required:"true"`
	Password           string        `env:"DB_PASSWORD" env-required:"true"`
	TimeZone           string        `env:"DB_TIMEZONE"`
	Timeout            time.Duration `env:"DB_TIMEOUT" env-default:"2s"`
	MaxIdleConnections int           `env:"DB_MAX_IDLE_CONNECTIONS" env-default:"40"`
	MaxOpenConnections int           `env:"DB_MAX_OPEN_CONNECTIONS" env-default:"40"`
}

// Limiter configures the per-IP edge throttle. Per-caller quotas are enforced
// separately by the token bucket keyed on the API key.
type Limiter struct {
	RPS   int           `env:"LIMITER_RPS" env-default:"10"`
	Burst int           `env:"LIMITER_BURST" env-default:"20"`
	TTL   time.Duration `env:"LIMITER_TTL" env-default:"10m"`
}

type AuthConfig struct {
	APIKeySalt       string `env:"AUTH_API_KEY_SALT" env-required:"true"`
	DefaultRateLimit int    `env:"AUTH_DEFAULT_RATE_LIMIT" env-default:"100" env-description:"requests per minute granted to new API keys"`
	MaxRateLimit     int    `env:"AUTH_MAX_RATE_LIMIT" env-default:"1000"`
}

type VerificationConfig struct {
	TTL         time.Duration `env:"VERIFICATION_TTL" env-default:"24h" env-description:"how long a pending verification stays completable"`
	MaxAttempts int           `env:"VERIFICATION_MAX_ATTEMPTS" env-default:"3" env-description:"proof-of-personhood completion attempts"`
}

type SybilConfig struct {
	DefaultThreshold int           `env:"SYBIL_DEFAULT_THRESHOLD" env-default:"70"`
	CheckCacheTTL    time.Duration `env:"SYBIL_CHECK_CACHE_TTL" env-default:"60s"`
	ResultTTL        time.Duration `env:"SYBIL_RESULT_TTL" env-default:"1h"`
	MaxBatchSize     int           `env:"SYBIL_MAX_BATCH_SIZE" env-default:"100"`
}

type WebhookConfig struct {
	MaxRetries     int           `env:"WEBHOOK_MAX_RETRIES" env-default:"3"`
	AttemptTimeout time.Duration `env:"WEBHOOK_ATTEMPT_TIMEOUT" env-default:"10s"`
}

type Cache struct {
	Type  string `env:"REDIS_TYPE" env-required:"true" env-description:"specifies provider, one of redis/redisCluster"`
	Redis struct {
		Address  string `env:"REDIS_ADDR" env-default:"" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
	RedisCluster struct {
		Addresses []string `env:"REDIS_CLUSTER_ADDRS" env-default:"" env-description:"redis cluster nodes: ['172.27.29.90:7000','172.27.29.91:7001'', '172.27.29.92:7002'']"`
		Password  string   `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize  int      `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
}

func MustLoad() *Config {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return &cfg
}
