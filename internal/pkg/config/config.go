package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	PublicURL string `env:"PUBLIC_URL, default=http://localhost:8080"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Audit   AuditConfig
	College CollegeAPIConfig
	OAuth   OAuthConfig
	SAML    SAMLConfig
	LDAP    LDAPConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=sceh_portal"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

type AuthConfig struct {
	SessionTTL       time.Duration `env:"SESSION_TTL,            default=24h"`
	CookieName       string        `env:"SESSION_COOKIE,         default=sceh_session"`
	CookieSecure     bool          `env:"SESSION_COOKIE_SECURE,  default=false"`
	DemoMode         bool          `env:"AUTH_DEMO_MODE,         default=true"`
	StrictDashboards bool          `env:"AUTH_STRICT_DASHBOARDS, default=true"`
	RosterFile       string        `env:"ROSTER_FILE"`
	StateTTL         time.Duration `env:"OAUTH_STATE_TTL,        default=10m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type CollegeAPIConfig struct {
	BaseURL string        `env:"COLLEGE_API_URL"`
	APIKey  string        `env:"COLLEGE_API_KEY"`
	Timeout time.Duration `env:"COLLEGE_API_TIMEOUT, default=10s"`
}

type OAuthConfig struct {
	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	AuthURL      string   `env:"OAUTH_AUTH_URL"`
	TokenURL     string   `env:"OAUTH_TOKEN_URL"`
	UserInfoURL  string   `env:"OAUTH_USERINFO_URL"`
	RedirectURL  string   `env:"OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"OAUTH_SCOPES"`
}

type SAMLConfig struct {
	EntryPoint      string `env:"SAML_ENTRY_POINT"`
	Issuer          string `env:"SAML_ISSUER, default=sceh-portal"`
	Certificate     string `env:"SAML_CERT"`
	CertificateFile string `env:"SAML_CERT_FILE"`
}

type LDAPConfig struct {
	URL     string        `env:"LDAP_URL"`
	BaseDN  string        `env:"LDAP_BASE_DN"`
	Timeout time.Duration `env:"LDAP_TIMEOUT, default=10s"`
}

func (c CollegeAPIConfig) Enabled() bool { return c.BaseURL != "" }

func (c OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.AuthURL != "" && c.TokenURL != "" && c.UserInfoURL != ""
}

func (c SAMLConfig) Enabled() bool {
	return c.EntryPoint != "" && (c.Certificate != "" || c.CertificateFile != "")
}

func (c LDAPConfig) Enabled() bool { return c.URL != "" && c.BaseDN != "" }

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads a .env file when present, then configuration from environment
// variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}

	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	if cfg.OAuth.RedirectURL == "" {
		cfg.OAuth.RedirectURL = cfg.PublicURL + "/auth/oauth/callback"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.IsProduction() && c.Auth.DemoMode {
		errs = append(errs, errors.New("AUTH_DEMO_MODE must be disabled in production"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SAMLCertificate returns the PEM certificate, reading SAML_CERT_FILE when
// SAML_CERT is not set inline.
func (c SAMLConfig) SAMLCertificate() (string, error) {
	if c.Certificate != "" {
		return c.Certificate, nil
	}
	b, err := os.ReadFile(c.CertificateFile)
	if err != nil {
		return "", fmt.Errorf("config: read SAML certificate: %w", err)
	}
	return string(b), nil
}
