package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "quadzone"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "QUADZONE_DB_DSN"
	EnvDBHost = "QUADZONE_DB_HOST"
	EnvDBUser = "QUADZONE_DB_USER"
	EnvDBName = "QUADZONE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	Shipping     ShippingConfig
	Geo          GeoConfig
	Checkout     CheckoutConfig
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
	Env          string `envconfig:"QUADZONE_APP_ENV" required:"true"`
	Port         string `envconfig:"QUADZONE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUADZONE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUADZONE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QUADZONE_DB_DSN"`
	Driver string `envconfig:"QUADZONE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUADZONE_DB_HOST"`
	LegacyPort     int    `envconfig:"QUADZONE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUADZONE_DB_USER"`
	LegacyPassword string `envconfig:"QUADZONE_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUADZONE_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUADZONE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUADZONE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUADZONE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUADZONE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUADZONE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUADZONE_REDIS_URL"`
	Address      string        `envconfig:"QUADZONE_REDIS_ADDR"`
	Password     string        `envconfig:"QUADZONE_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUADZONE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUADZONE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUADZONE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUADZONE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUADZONE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUADZONE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"QUADZONE_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the monetary knobs applied to every checkout.
type PricingConfig struct {
	TaxRate decimal.Decimal `envconfig:"QUADZONE_TAX_RATE" default:"0.08"`
}

// ShippingConfig holds the tiered fee schedule. Distances are kilometers,
// amounts are currency units.
type ShippingConfig struct {
	HandlingFee           decimal.Decimal `envconfig:"QUADZONE_SHIPPING_HANDLING_FEE" default:"10"`
	DiscountedRate        decimal.Decimal `envconfig:"QUADZONE_SHIPPING_DISCOUNTED_RATE" default:"3"`
	StandardRate          decimal.Decimal `envconfig:"QUADZONE_SHIPPING_STANDARD_RATE" default:"4"`
	MinimumFee            decimal.Decimal `envconfig:"QUADZONE_SHIPPING_MINIMUM_FEE" default:"15"`
	InnerCityFreeKm       float64         `envconfig:"QUADZONE_SHIPPING_INNER_CITY_FREE_KM" default:"1.0"`
	DiscountedThresholdKm float64         `envconfig:"QUADZONE_SHIPPING_DISCOUNTED_THRESHOLD_KM" default:"10.0"`
	OriginLat             float64         `envconfig:"QUADZONE_SHIPPING_ORIGIN_LAT" required:"true"`
	OriginLng             float64         `envconfig:"QUADZONE_SHIPPING_ORIGIN_LNG" required:"true"`
}

type GeoConfig struct {
	GeocodeBaseURL string        `envconfig:"QUADZONE_GEO_GEOCODE_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	RouteBaseURL   string        `envconfig:"QUADZONE_GEO_ROUTE_BASE_URL" default:"https://router.project-osrm.org"`
	APIKey         string        `envconfig:"QUADZONE_GEO_API_KEY"`
	Timeout        time.Duration `envconfig:"QUADZONE_GEO_TIMEOUT" default:"5s"`
}

type CheckoutConfig struct {
	IdempotencyTTL time.Duration `envconfig:"QUADZONE_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
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
