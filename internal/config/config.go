package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the process configuration read from the environment.
type Config struct {
	Port     string `default:"3000" envconfig:"PORT"`
	Env      string `default:"development" envconfig:"ENV"`
	LogLevel string `default:"info" envconfig:"LOG_LEVEL"`

	DBHost            string        `default:"localhost" envconfig:"DB_HOST"`
	DBPort            string        `default:"5432" envconfig:"DB_PORT"`
	DBUser            string        `default:"postgres" envconfig:"DB_USER"`
	DBPassword        string        `default:"postgres" envconfig:"DB_PASSWORD"`
	DBName            string        `default:"tpos" envconfig:"DB_NAME"`
	DBMaxIdleConns    int           `default:"10" envconfig:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `default:"100" envconfig:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `default:"1h" envconfig:"DB_CONN_MAX_LIFETIME"`

	RedisHost     string `default:"localhost" envconfig:"REDIS_HOST"`
	RedisPort     string `default:"6379" envconfig:"REDIS_PORT"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `default:"0" envconfig:"REDIS_DB"`

	JWTSecret string        `required:"true" envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `default:"1h" envconfig:"JWT_TTL"`

	// Lightning backend holding the wallets
	LNbitsURL      string        `default:"http://localhost:5000" envconfig:"LNBITS_URL"`
	GatewayTimeout time.Duration `default:"15s" envconfig:"GATEWAY_TIMEOUT"`

	// LNURL client
	LNURLTimeout      time.Duration `default:"10s" envconfig:"LNURL_TIMEOUT"`
	LNURLUserAgent    string        `default:"lnbits/tpos" envconfig:"LNURL_USER_AGENT"`
	LNURLMaxRedirects int           `default:"10" envconfig:"LNURL_MAX_REDIRECTS"`

	// Fiat rates
	RatesURL            string        `default:"https://api.coinbase.com/v2/exchange-rates?currency=BTC" envconfig:"RATES_URL"`
	RateCacheTTL        time.Duration `default:"2m" envconfig:"RATE_CACHE_TTL"`
	RateRefreshSchedule string        `default:"@every 1m" envconfig:"RATE_REFRESH_SCHEDULE"`
	RateCurrencies      []string      `default:"USD,EUR" envconfig:"RATE_CURRENCIES"`

	CORSOrigins     string `default:"*" envconfig:"CORS_ORIGINS"`
	PublicRateLimit int    `default:"60" envconfig:"PUBLIC_RATE_LIMIT"`
}

// Load reads the configuration, failing hard on missing required values.
func Load() Config {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return c
}

// IsProduction reports whether the config targets production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}
