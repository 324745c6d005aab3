package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	Orders       OrdersConfig
	COD          CODConfig
	Payments     PaymentsConfig
	Admin        AdminConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"TRIVENI_APP_ENV" required:"true"`
	Port         string `envconfig:"TRIVENI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRIVENI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRIVENI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRIVENI_DB_DSN"`
	Driver string `envconfig:"TRIVENI_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TRIVENI_DB_HOST"`
	Port     int    `envconfig:"TRIVENI_DB_PORT" default:"5432"`
	User     string `envconfig:"TRIVENI_DB_USER"`
	Password string `envconfig:"TRIVENI_DB_PASSWORD"`
	Name     string `envconfig:"TRIVENI_DB_NAME"`
	SSLMode  string `envconfig:"TRIVENI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRIVENI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRIVENI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRIVENI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRIVENI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRIVENI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRIVENI_REDIS_ADDR"`
	Password     string        `envconfig:"TRIVENI_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRIVENI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRIVENI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRIVENI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRIVENI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRIVENI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRIVENI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig carries server-side pricing policy. Amounts are rupees.
type CheckoutConfig struct {
	FreeShippingThreshold int     `envconfig:"TRIVENI_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"999"`
	ShippingFlatRate      int     `envconfig:"TRIVENI_CHECKOUT_SHIPPING_FLAT_RATE" default:"49"`
	TaxRatePercent        float64 `envconfig:"TRIVENI_CHECKOUT_TAX_RATE_PERCENT" default:"0"`
	Currency              string  `envconfig:"TRIVENI_CHECKOUT_CURRENCY" default:"INR"`
}

// FreeShippingThresholdAmount returns the threshold as a decimal amount.
func (c CheckoutConfig) FreeShippingThresholdAmount() decimal.Decimal {
	return decimal.NewFromInt(int64(c.FreeShippingThreshold))
}

// ShippingFlatRateAmount returns the flat shipping rate as a decimal amount.
func (c CheckoutConfig) ShippingFlatRateAmount() decimal.Decimal {
	return decimal.NewFromInt(int64(c.ShippingFlatRate))
}

// TaxRate returns the tax rate as a fraction (e.g. 0.18 for 18%).
func (c CheckoutConfig) TaxRate() decimal.Decimal {
	return decimal.NewFromFloat(c.TaxRatePercent).Div(decimal.NewFromInt(100))
}

type OrdersConfig struct {
	// AllowSkipOutForDelivery permits shipped -> delivered without the
	// out_for_delivery intermediate step.
	AllowSkipOutForDelivery bool `envconfig:"TRIVENI_ORDERS_ALLOW_SKIP_OUT_FOR_DELIVERY" default:"false"`

	// PendingPaymentTTL is how long an online order may stay placed with a
	// pending payment before the sweeper cancels it and restores stock.
	PendingPaymentTTL time.Duration `envconfig:"TRIVENI_ORDERS_PENDING_PAYMENT_TTL" default:"24h"`
}

// CronConfig tunes the background worker loop.
type CronConfig struct {
	Interval  time.Duration `envconfig:"TRIVENI_CRON_INTERVAL" default:"15m"`
	LockTTL   time.Duration `envconfig:"TRIVENI_CRON_LOCK_TTL" default:"14m"`
	BatchSize int           `envconfig:"TRIVENI_CRON_BATCH_SIZE" default:"100"`
}

// CODConfig bounds cash-on-delivery orders. Zero max disables the upper bound.
type CODConfig struct {
	MinAmount       int      `envconfig:"TRIVENI_COD_MIN_AMOUNT" default:"0"`
	MaxAmount       int      `envconfig:"TRIVENI_COD_MAX_AMOUNT" default:"0"`
	BlockedPincodes []string `envconfig:"TRIVENI_COD_BLOCKED_PINCODES"`
}

type PaymentsConfig struct {
	CallbackBaseURL      string        `envconfig:"TRIVENI_PAYMENTS_CALLBACK_BASE_URL" required:"true"`
	ProviderHTTPTimeout  time.Duration `envconfig:"TRIVENI_PAYMENTS_PROVIDER_HTTP_TIMEOUT" default:"15s"`
	CallbackReplayTTL    time.Duration `envconfig:"TRIVENI_PAYMENTS_CALLBACK_REPLAY_TTL" default:"72h"`
	RazorpayKeyID        string        `envconfig:"TRIVENI_RAZORPAY_KEY_ID"`
	RazorpayKeySecret    string        `envconfig:"TRIVENI_RAZORPAY_KEY_SECRET"`
	PhonePeMerchantID    string        `envconfig:"TRIVENI_PHONEPE_MERCHANT_ID"`
	PhonePeSaltKey       string        `envconfig:"TRIVENI_PHONEPE_SALT_KEY"`
	PhonePeSaltIndex     string        `envconfig:"TRIVENI_PHONEPE_SALT_INDEX" default:"1"`
	PhonePeEnv           string        `envconfig:"TRIVENI_PHONEPE_ENV" default:"sandbox"`
	PaytmMerchantID      string        `envconfig:"TRIVENI_PAYTM_MERCHANT_ID"`
	PaytmMerchantKey     string        `envconfig:"TRIVENI_PAYTM_MERCHANT_KEY"`
	PaytmWebsite         string        `envconfig:"TRIVENI_PAYTM_WEBSITE" default:"WEBSTAGING"`
	PaytmIndustryType    string        `envconfig:"TRIVENI_PAYTM_INDUSTRY_TYPE" default:"Retail"`
	PaytmEnv             string        `envconfig:"TRIVENI_PAYTM_ENV" default:"staging"`
}

// AdminConfig guards the back-office order endpoints. The storefront's own
// session handling lives upstream; this API only checks the shared token.
type AdminConfig struct {
	APIToken string `envconfig:"TRIVENI_ADMIN_API_TOKEN"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRIVENI_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRIVENI_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
