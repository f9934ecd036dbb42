package statsd

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

// EnvConfigPath names the environment variable ConfigFromEnv reads
const EnvConfigPath = "STATSD_CONFIG"

// Config defines the configuration of a Client
type Config struct {
	Host   string `yaml:"host" validate:"nonzero"`
	Port   int    `yaml:"port" validate:"min=1,max=65535"`
	Prefix string `yaml:"prefix"`

	// Enabled defaults to true in DefaultConfig and in loaded files. A
	// disabled client opens no socket and drops every metric silently.
	Enabled bool `yaml:"enabled"`

	// Strict makes send operations return transport write errors instead of
	// logging and counting them.
	Strict bool `yaml:"strict"`

	DNS       ResolverConfig  `yaml:"dns"`
	SelfStats SelfStatsConfig `yaml:"self_stats"`

	// Optional logger
	Logger *zap.Logger `yaml:"-" validate:"-"`
}

// ResolverConfig defines the optional resolvers used to look up the
// collector host. The system resolver is always queried as well.
type ResolverConfig struct {
	UDPServers   []string      `yaml:"udp_servers"`   // e.g. ["1.1.1.1:53", "8.8.8.8:53"]
	TLSServers   []string      `yaml:"tls_servers"`   // e.g. ["1.1.1.1:853"]
	DoHEndpoints []string      `yaml:"doh_endpoints"` // e.g. ["https://cloudflare-dns.com/dns-query"]
	Timeout      time.Duration `yaml:"timeout"`
}

// SelfStatsConfig enables pushing the client's own counters to a
// Prometheus remote write endpoint.
type SelfStatsConfig struct {
	RemoteWriteURL string        `yaml:"remote_write_url"`
	Interval       time.Duration `yaml:"interval"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Host:    "localhost",
		Port:    8125,
		Enabled: true,
	}
}

// UnmarshalYAML fills in defaults for keys the document omits.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain Config
	*c = DefaultConfig()
	return unmarshal((*plain)(c))
}

// Validate checks the configuration and returns a *ConfigError on failure.
func (c Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		var errs validator.ErrorMap
		if errors.As(err, &errs) && len(errs) > 0 {
			fields := make([]string, 0, len(errs))
			for field := range errs {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			return &ConfigError{Field: fields[0], Err: errs[fields[0]]}
		}
		return &ConfigError{Err: err}
	}
	if err := ValidatePrefix(c.Prefix); err != nil {
		return &ConfigError{Field: "Prefix", Err: err}
	}
	if c.DNS.Timeout < 0 {
		return &ConfigError{Field: "DNS.Timeout", Err: errors.New("negative duration")}
	}
	if c.SelfStats.Interval < 0 {
		return &ConfigError{Field: "SelfStats.Interval", Err: errors.New("negative duration")}
	}
	return nil
}

// Addr returns host:port
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML configuration document.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigError{Err: fmt.Errorf("unmarshal: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFromEnv loads the file named by STATSD_CONFIG, or returns the
// defaults when the variable is unset.
func ConfigFromEnv() (Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
