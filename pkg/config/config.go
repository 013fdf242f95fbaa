package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/keysafe/config"
	ConfigFileName    = "keysafe.yml"
)

// KeysafeConfig holds all keysafe configuration settings
type KeysafeConfig struct {
	// DefaultProject is the project used when a caller supplies only a
	// secret name. Empty means generate-and-store calls without an explicit
	// project are rejected.
	DefaultProject string `yaml:"default_project" json:"default_project"`

	// DefaultRotationSeconds is the advisory seconds-until-next-rotation
	// attached to stored keys when the caller doesn't name one
	DefaultRotationSeconds int `yaml:"default_rotation_seconds" json:"default_rotation_seconds"`

	// RotationSweepSchedule is the cron schedule for the advisory rotation
	// sweeper. Empty disables the sweeper.
	RotationSweepSchedule string `yaml:"rotation_sweep_schedule" json:"rotation_sweep_schedule"`

	// TokenTTLSeconds is the TTL for issued API tokens in seconds
	TokenTTLSeconds int `yaml:"token_ttl" json:"token_ttl"`

	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// AuditEnabled enables audit logging
	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *KeysafeConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *KeysafeConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *KeysafeConfig {
	return &KeysafeConfig{
		DefaultProject:         "",
		DefaultRotationSeconds: 60 * 60 * 24 * 30,
		RotationSweepSchedule:  "@hourly",
		TokenTTLSeconds:        480,
		TrustedProxies:         []string{},
		AuditEnabled:           true,
		sources:                make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*KeysafeConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("KEYSAFE_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig KeysafeConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"default_project", "default_rotation_seconds", "rotation_sweep_schedule",
		"token_ttl", "trusted_proxies", "audit_enabled",
	}
}

func (c *KeysafeConfig) applyFileConfig(file *KeysafeConfig) {
	if file.DefaultProject != "" {
		c.DefaultProject = file.DefaultProject
		c.sources["default_project"] = "file"
	}
	if file.DefaultRotationSeconds != 0 {
		c.DefaultRotationSeconds = file.DefaultRotationSeconds
		c.sources["default_rotation_seconds"] = "file"
	}
	if file.RotationSweepSchedule != "" {
		c.RotationSweepSchedule = file.RotationSweepSchedule
		c.sources["rotation_sweep_schedule"] = "file"
	}
	if file.TokenTTLSeconds != 0 {
		c.TokenTTLSeconds = file.TokenTTLSeconds
		c.sources["token_ttl"] = "file"
	}
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
}

func (c *KeysafeConfig) applyEnvConfig() {
	if val := os.Getenv("KEYSAFE_DEFAULT_PROJECT"); val != "" {
		c.DefaultProject = val
		c.sources["default_project"] = "environment"
	}
	if val := os.Getenv("KEYSAFE_DEFAULT_ROTATION_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.DefaultRotationSeconds = i
			c.sources["default_rotation_seconds"] = "environment"
		}
	}
	if val := os.Getenv("KEYSAFE_ROTATION_SWEEP_SCHEDULE"); val != "" {
		c.RotationSweepSchedule = val
		c.sources["rotation_sweep_schedule"] = "environment"
	}
	if val := os.Getenv("KEYSAFE_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.TokenTTLSeconds = i
			c.sources["token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("KEYSAFE_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("KEYSAFE_AUDIT_ENABLED"); val != "" {
		c.AuditEnabled = val == "true" || val == "1"
		c.sources["audit_enabled"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *KeysafeConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *KeysafeConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenTTL returns the API token TTL as a duration
func (c *KeysafeConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// DefaultRotation returns the default advisory rotation period as a duration
func (c *KeysafeConfig) DefaultRotation() time.Duration {
	return time.Duration(c.DefaultRotationSeconds) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *KeysafeConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Try as plain IP
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *KeysafeConfig) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	if c.DefaultRotationSeconds <= 0 {
		return fmt.Errorf("default_rotation_seconds must be positive")
	}

	if c.RotationSweepSchedule != "" {
		if _, err := cron.ParseStandard(c.RotationSweepSchedule); err != nil {
			return fmt.Errorf("invalid rotation_sweep_schedule: %w", err)
		}
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *KeysafeConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "default_project", Value: c.DefaultProject, Source: c.Source("default_project")},
		{Name: "default_rotation_seconds", Value: strconv.Itoa(c.DefaultRotationSeconds), Source: c.Source("default_rotation_seconds")},
		{Name: "rotation_sweep_schedule", Value: c.RotationSweepSchedule, Source: c.Source("rotation_sweep_schedule")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTLSeconds), Source: c.Source("token_ttl")},
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.AuditEnabled), Source: c.Source("audit_enabled")},
	}
}

// FormatText returns a text representation of the configuration
func (c *KeysafeConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *KeysafeConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
