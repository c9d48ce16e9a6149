// Package config loads the site server configuration from YAML with
// environment expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Docs       DocsConfig       `yaml:"docs"`
	Jam        JamConfig        `yaml:"jam"`
	License    LicenseConfig    `yaml:"license"`
	Billing    BillingConfig    `yaml:"billing"`
	Newsletter NewsletterConfig `yaml:"newsletter"`
	Auth       AuthConfig       `yaml:"auth"`
	NATS       NATSConfig       `yaml:"nats"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	MetricsAddr string   `yaml:"metrics_addr"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// DocsConfig drives the documentation pipeline.
type DocsConfig struct {
	// Mode selects the content source: "local", "github", or "gitmirror".
	Mode          string        `yaml:"mode"`
	RootPath      string        `yaml:"root_path"`
	ContentDir    string        `yaml:"content_dir,omitempty"` // local mode
	Owner         string        `yaml:"owner,omitempty"`       // github mode
	Repo          string        `yaml:"repo,omitempty"`
	Token         string        `yaml:"token,omitempty"`
	RepoURL       string        `yaml:"repo_url,omitempty"`   // gitmirror mode
	MirrorDir     string        `yaml:"mirror_dir,omitempty"` // gitmirror mode
	DefaultBranch string        `yaml:"default_branch,omitempty"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	CacheSize     int           `yaml:"cache_size"`
	DevTags       []string      `yaml:"dev_tags,omitempty"` // versions reported in local mode
	Watch         bool          `yaml:"watch"`              // flush caches on content changes (local mode)
	WarmInterval  time.Duration `yaml:"warm_interval"`      // 0 disables the scheduled cache warm
}

// JamConfig points at the conference data set and the ticket
// storefront.
type JamConfig struct {
	DataDir       string            `yaml:"data_dir"`
	StoreDomain   string            `yaml:"store_domain,omitempty"`
	StoreToken    string            `yaml:"store_token,omitempty"`
	ProductID     string            `yaml:"product_id,omitempty"`
	DiscountTiers map[string]string `yaml:"discount_tiers,omitempty"`
}

// LicenseConfig locates the license database.
type LicenseConfig struct {
	DBPath string `yaml:"db_path"`
}

// BillingConfig holds payment provider credentials.
type BillingConfig struct {
	APIURL        string `yaml:"api_url,omitempty"`
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	PriceID       string `yaml:"price_id"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

// NewsletterConfig holds mailing-list provider credentials.
type NewsletterConfig struct {
	APIURL    string `yaml:"api_url,omitempty"`
	APISecret string `yaml:"api_secret"`
	FormID    string `yaml:"form_id"`
}

// AuthConfig holds session signing settings.
type AuthConfig struct {
	SigningKey string        `yaml:"signing_key"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// NATSConfig enables queued license fulfillment when a URL is set.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads the configuration file, expanding ${VAR} references after
// loading a .env file when one exists.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}
	if c.Docs.Mode == "" {
		c.Docs.Mode = "local"
	}
	if c.Docs.RootPath == "" {
		c.Docs.RootPath = "docs"
	}
	if c.Docs.CacheTTL == 0 {
		if c.Docs.Mode == "local" {
			// Effectively disabled: edits show up immediately in dev.
			c.Docs.CacheTTL = 100 * time.Millisecond
		} else {
			c.Docs.CacheTTL = time.Hour
		}
	}
	if c.Docs.CacheSize == 0 {
		c.Docs.CacheSize = 512
	}
	if c.Docs.DefaultBranch == "" {
		c.Docs.DefaultBranch = "main"
	}
	if c.Jam.DataDir == "" {
		c.Jam.DataDir = "./data/jam"
	}
	if c.License.DBPath == "" {
		c.License.DBPath = "./site.db"
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 7 * 24 * time.Hour
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		c.NATS.Subject = "site.fulfillment"
	}
}

// Validate checks mode-dependent required fields.
func (c *Config) Validate() error {
	switch c.Docs.Mode {
	case "local":
		if c.Docs.ContentDir == "" {
			return fmt.Errorf("docs.content_dir is required in local mode")
		}
	case "github":
		if c.Docs.Owner == "" || c.Docs.Repo == "" {
			return fmt.Errorf("docs.owner and docs.repo are required in github mode")
		}
		if c.Docs.Token == "" {
			return fmt.Errorf("docs.token is required in github mode")
		}
	case "gitmirror":
		if c.Docs.RepoURL == "" || c.Docs.MirrorDir == "" {
			return fmt.Errorf("docs.repo_url and docs.mirror_dir are required in gitmirror mode")
		}
	default:
		return fmt.Errorf("unknown docs mode %q (want local, github, or gitmirror)", c.Docs.Mode)
	}

	if c.Auth.SigningKey != "" && len(c.Auth.SigningKey) < 32 {
		return fmt.Errorf("auth.signing_key must be at least 32 characters")
	}
	return nil
}
