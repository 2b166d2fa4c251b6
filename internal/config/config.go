package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the binaries in this module.
// All values must come from env (or a .env file loaded by LoadDotEnv).
// No business logic should depend on raw environment variables; the
// provisioner, catalog and workflow packages receive these structs only.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Carrier CarrierConfig
	Trunk   TrunkConfig
	Gateway GatewayConfig
	Catalog CatalogConfig
	Metrics MetricsConfig
}

type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// DBConfig is optional everywhere. When Host is empty, run history is kept
// in memory only.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. When Host is empty, provisioning runs are not
// serialized across processes.
type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type CarrierConfig struct {
	AccountSID string
	AuthToken  string
}

// TrunkConfig is the provisioning target. TrunkName is the idempotency key.
type TrunkConfig struct {
	Name        string
	SIPURI      string
	PhoneNumber string
}

type GatewayMode string

const (
	GatewayModeCLI GatewayMode = "cli"
	GatewayModeAPI GatewayMode = "api"
)

type GatewayConfig struct {
	Mode GatewayMode

	// CLI mode.
	Binary  string
	WorkDir string

	// API mode.
	URL       string
	APIKey    string
	APISecret string
}

type CatalogConfig struct {
	URL         string
	APIKey      string
	BatchSize   int
	StepTimeout time.Duration
}

type MetricsConfig struct {
	PushgatewayURL string
}

// Keys for the mandatory provisioning inputs.
const (
	KeyCarrierAccountSID  = "CARRIER_ACCOUNT_SID"
	KeyCarrierAuthToken   = "CARRIER_AUTH_TOKEN"
	KeyCarrierPhoneNumber = "CARRIER_PHONE_NUMBER"
	KeySIPEndpointURI     = "SIP_ENDPOINT_URI"
	KeyTrunkName          = "TRUNK_NAME"
)

// MissingError reports a mandatory variable that is unset or blank.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string { return e.Key + " is required" }

// ErrMissing matches any *MissingError via errors.Is.
var ErrMissing = errors.New("config: required variable missing")

func (e *MissingError) Is(target error) bool { return target == ErrMissing }

// MissingKeys returns the names of every missing variable reported in err,
// in the order they were detected.
func MissingKeys(err error) []string {
	var out []string
	var me *MissingError
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		for _, e := range multi.Unwrap() {
			if errors.As(e, &me) {
				out = append(out, me.Key)
			}
		}
		return out
	}
	if errors.As(err, &me) {
		out = append(out, me.Key)
	}
	return out
}

// LoadDotEnv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// LoadProvisioning reads the trunk-setup configuration. The five carrier and
// trunk variables are mandatory; everything else is optional.
func LoadProvisioning() (Config, error) {
	c := Config{}
	var errs []error

	loadApp(&c, &errs, false)
	loadProvisioningInputs(&c, &errs, true)
	loadGateway(&c, &errs)
	loadOptionalStores(&c, &errs)
	c.Metrics.PushgatewayURL = strings.TrimSpace(os.Getenv("PUSHGATEWAY_URL"))

	if err := joinErrors(errs); err != nil {
		return Config{}, err
	}
	if err := c.ValidateProvisioning(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadCatalog reads the catalog and workflow configuration.
func LoadCatalog() (Config, error) {
	c := Config{}
	var errs []error

	loadApp(&c, &errs, false)
	loadCatalog(&c, &errs)
	c.Auth = loadAuth(&errs)
	c.Metrics.PushgatewayURL = strings.TrimSpace(os.Getenv("PUSHGATEWAY_URL"))

	if err := joinErrors(errs); err != nil {
		return Config{}, err
	}
	if err := c.ValidateCatalog(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadAPI reads the HTTP API configuration. Provisioning is enabled only
// when every mandatory carrier variable is present.
func LoadAPI() (Config, error) {
	c := Config{}
	var errs []error

	loadApp(&c, &errs, true)
	loadCatalog(&c, &errs)
	c.Auth = loadAuth(&errs)
	loadProvisioningInputs(&c, &errs, false)
	loadGateway(&c, &errs)
	loadOptionalStores(&c, &errs)

	if err := joinErrors(errs); err != nil {
		return Config{}, err
	}
	if err := c.ValidateAPI(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func loadApp(c *Config, errs *[]error, needPort bool) {
	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	if c.App.Env == "" {
		c.App.Env = "local"
	}
	c.App.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if needPort {
		n, err := mustInt("APP_PORT")
		if err != nil {
			*errs = append(*errs, err)
		}
		c.App.Port = n
	}
}

func loadProvisioningInputs(c *Config, errs *[]error, required bool) {
	read := func(key string, trim bool) string {
		v := os.Getenv(key)
		if trim {
			v = strings.TrimSpace(v)
		}
		if required && strings.TrimSpace(v) == "" {
			*errs = append(*errs, &MissingError{Key: key})
		}
		return v
	}
	c.Carrier.AccountSID = read(KeyCarrierAccountSID, true)
	c.Carrier.AuthToken = read(KeyCarrierAuthToken, false)
	c.Trunk.PhoneNumber = read(KeyCarrierPhoneNumber, true)
	c.Trunk.SIPURI = read(KeySIPEndpointURI, true)
	c.Trunk.Name = read(KeyTrunkName, true)
}

func loadGateway(c *Config, errs *[]error) {
	c.Gateway.Mode = GatewayMode(strings.ToLower(strings.TrimSpace(os.Getenv("SIP_GATEWAY_MODE"))))
	c.Gateway.Binary = strings.TrimSpace(os.Getenv("LK_BINARY"))
	c.Gateway.WorkDir = strings.TrimSpace(os.Getenv("SIP_GATEWAY_WORKDIR"))
	c.Gateway.URL = strings.TrimSpace(os.Getenv("LIVEKIT_URL"))
	c.Gateway.APIKey = strings.TrimSpace(os.Getenv("LIVEKIT_API_KEY"))
	c.Gateway.APISecret = os.Getenv("LIVEKIT_API_SECRET")
}

func loadCatalog(c *Config, errs *[]error) {
	c.Catalog.URL = strings.TrimSpace(os.Getenv("WEAVIATE_URL"))
	c.Catalog.APIKey = os.Getenv("WEAVIATE_API_KEY")
	if v := strings.TrimSpace(os.Getenv("CATALOG_BATCH_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("CATALOG_BATCH_SIZE must be an integer, got %q", v))
		}
		c.Catalog.BatchSize = n
	}
	d, err := optionalDuration("WORKFLOW_STEP_TIMEOUT")
	if err != nil {
		*errs = append(*errs, err)
	}
	c.Catalog.StepTimeout = d
}

func loadAuth(errs *[]error) AuthConfig {
	a := AuthConfig{
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		JWTAudience: strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
	}
	d, err := optionalDuration("JWT_ACCESS_TTL")
	if err != nil {
		*errs = append(*errs, err)
	}
	a.AccessTokenTTL = d
	return a
}

func loadOptionalStores(c *Config, errs *[]error) {
	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	if c.DB.Host != "" {
		n, err := mustInt("DB_PORT")
		if err != nil {
			*errs = append(*errs, err)
		}
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		if err != nil {
			*errs = append(*errs, err)
		}
		c.Redis.Port = n
	}
}

// ValidateProvisioning checks the trunk-setup configuration and applies
// defaults. It never touches the environment.
func (c *Config) ValidateProvisioning() error {
	var errs []error
	errs = append(errs, c.validateApp(false)...)
	for _, kv := range []struct{ key, value string }{
		{KeyCarrierAccountSID, c.Carrier.AccountSID},
		{KeyCarrierAuthToken, c.Carrier.AuthToken},
		{KeyCarrierPhoneNumber, c.Trunk.PhoneNumber},
		{KeySIPEndpointURI, c.Trunk.SIPURI},
		{KeyTrunkName, c.Trunk.Name},
	} {
		if strings.TrimSpace(kv.value) == "" {
			errs = append(errs, &MissingError{Key: kv.key})
		}
	}
	errs = append(errs, c.validateGateway()...)
	errs = append(errs, c.validateStores()...)
	return joinErrors(errs)
}

// ValidateCatalog checks the catalog configuration and applies defaults.
func (c *Config) ValidateCatalog() error {
	var errs []error
	errs = append(errs, c.validateApp(false)...)
	errs = append(errs, c.validateCatalog()...)
	return joinErrors(errs)
}

// ValidateAPI checks the HTTP API configuration and applies defaults.
func (c *Config) ValidateAPI() error {
	var errs []error
	errs = append(errs, c.validateApp(true)...)
	errs = append(errs, c.validateCatalog()...)
	if c.ProvisioningEnabled() {
		errs = append(errs, c.validateGateway()...)
	}
	errs = append(errs, c.validateStores()...)
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	return joinErrors(errs)
}

func (c *Config) validateApp(needPort bool) []error {
	var errs []error
	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if needPort && (c.App.Port <= 0 || c.App.Port > 65535) {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.LogLevel != "" && !isValidLogLevel(c.App.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.App.LogLevel))
	}
	return errs
}

func (c *Config) validateGateway() []error {
	var errs []error
	if c.Gateway.Mode == "" {
		c.Gateway.Mode = GatewayModeCLI
	}
	switch c.Gateway.Mode {
	case GatewayModeCLI:
		if c.Gateway.Binary == "" {
			c.Gateway.Binary = "lk"
		}
		if c.Gateway.WorkDir == "" {
			c.Gateway.WorkDir = "."
		}
	case GatewayModeAPI:
		if c.Gateway.URL == "" {
			errs = append(errs, &MissingError{Key: "LIVEKIT_URL"})
		}
		if c.Gateway.APIKey == "" {
			errs = append(errs, &MissingError{Key: "LIVEKIT_API_KEY"})
		}
		if c.Gateway.APISecret == "" {
			errs = append(errs, &MissingError{Key: "LIVEKIT_API_SECRET"})
		}
	default:
		errs = append(errs, fmt.Errorf("SIP_GATEWAY_MODE must be one of cli, api, got %q", c.Gateway.Mode))
	}
	return errs
}

func (c *Config) validateCatalog() []error {
	var errs []error
	if c.Catalog.URL == "" {
		c.Catalog.URL = "http://localhost:8080"
	}
	if c.Catalog.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("CATALOG_BATCH_SIZE must be > 0, got %d", c.Catalog.BatchSize))
	}
	if c.Catalog.BatchSize == 0 {
		c.Catalog.BatchSize = 100
	}
	if c.Catalog.StepTimeout <= 0 {
		c.Catalog.StepTimeout = 120 * time.Second
	}
	return errs
}

func (c *Config) validateStores() []error {
	var errs []error
	if c.DB.Host != "" {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				// Local-friendly default; production must be explicit.
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}
	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// ProvisioningEnabled reports whether carrier credentials and a trunk
// target are configured.
func (c Config) ProvisioningEnabled() bool {
	return c.Carrier.AccountSID != "" && c.Carrier.AuthToken != ""
}

func (c Config) DBEnabled() bool    { return c.DB.Host != "" }
func (c Config) RedisEnabled() bool { return c.Redis.Host != "" }

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, &MissingError{Key: key}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch v {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

// joinErrors keeps every problem reachable through errors.Is/As while
// rendering one line per problem.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return &multiError{errs: errs}
}

type multiError struct {
	errs []error
}

func (m *multiError) Error() string {
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range m.errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (m *multiError) Unwrap() []error { return m.errs }
