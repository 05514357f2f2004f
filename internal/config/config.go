package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/lineup"
	"github.com/draftgate/draftgate/internal/tiers"
)

type Config struct {
	Server       ServerConfig       `json:"server"`
	Redis        RedisConfig        `json:"redis"`
	Postgres     PostgresConfig     `json:"postgres"`
	Auth         AuthConfig         `json:"auth"`
	SportsData   SportsDataConfig   `json:"sports_data"`
	Capabilities []CapabilityConfig `json:"capabilities"`
	Quotas       []QuotaConfig      `json:"quotas"`
	Formats      []FormatConfig     `json:"formats"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
	LogLevel    string `json:"log_level"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (r RedisConfig) GetRedisAddr() string {
	return r.Host + ":" + r.Port
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type AuthConfig struct {
	JWTSecret   string `json:"-"` // env only, never from file
	ExpiryHours int    `json:"expiry_hours"`
}

type SportsDataConfig struct {
	BaseURL        string `json:"base_url"`
	RefreshMinutes int    `json:"refresh_minutes"`
}

// CapabilityConfig maps a logical route key to the minimum tier allowed to
// call it and whether calls count against the hourly quota.
type CapabilityConfig struct {
	RouteKey     string `json:"route_key"`
	RequiredTier string `json:"required_tier"`
	Metered      bool   `json:"metered"`
}

// QuotaConfig sets the hourly ceiling for metered calls per tier. Zero
// means unlimited, not zero allowed.
type QuotaConfig struct {
	Tier            string `json:"tier"`
	RequestsPerHour int    `json:"requests_per_hour"`
}

// FormatConfig describes one roster format: required slots and the
// quantitative rules rosters in that format must satisfy.
type FormatConfig struct {
	Name         string       `json:"name"`
	SalaryCap    int64        `json:"salary_cap"`
	MaxOwnership float64      `json:"max_ownership"`
	MaxPerTeam   int          `json:"max_per_team"`
	Slots        []SlotConfig `json:"slots"`
}

type SlotConfig struct {
	Slot     string   `json:"slot"`
	Count    int      `json:"count"`
	Eligible []string `json:"eligible"`
}

func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == "" {
		c.Redis.Port = "6379"
	}
	if c.Auth.ExpiryHours <= 0 {
		c.Auth.ExpiryHours = 24
	}
	if c.SportsData.RefreshMinutes <= 0 {
		c.SportsData.RefreshMinutes = 30
	}
	if len(c.Capabilities) == 0 {
		c.Capabilities = DefaultCapabilities()
	}
	if len(c.Quotas) == 0 {
		c.Quotas = DefaultQuotas()
	}
	if len(c.Formats) == 0 {
		c.Formats = DefaultFormats()
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

func (c *Config) validate() error {
	for _, capCfg := range c.Capabilities {
		if _, err := tiers.ParseStrict(capCfg.RequiredTier); err != nil {
			return fmt.Errorf("capability %s: %w", capCfg.RouteKey, err)
		}
	}
	for _, q := range c.Quotas {
		if _, err := tiers.ParseStrict(q.Tier); err != nil {
			return fmt.Errorf("quota config: %w", err)
		}
		if q.RequestsPerHour < 0 {
			return fmt.Errorf("quota for %s: requests_per_hour must not be negative", q.Tier)
		}
	}
	for _, f := range c.Formats {
		if f.Name == "" {
			return fmt.Errorf("format with empty name")
		}
		if len(f.Slots) == 0 {
			return fmt.Errorf("format %s has no slots", f.Name)
		}
	}
	return nil
}

// CapabilityTable converts the configured capabilities into the gate's form.
func (c *Config) CapabilityTable() map[string]gate.Capability {
	table := make(map[string]gate.Capability, len(c.Capabilities))
	for _, capCfg := range c.Capabilities {
		table[capCfg.RouteKey] = gate.Capability{
			RequiredTier: tiers.Parse(capCfg.RequiredTier),
			Metered:      capCfg.Metered,
		}
	}
	return table
}

// QuotaTable converts the configured quotas into per-tier hourly ceilings.
func (c *Config) QuotaTable() map[tiers.Tier]int {
	table := make(map[tiers.Tier]int, len(c.Quotas))
	for _, q := range c.Quotas {
		table[tiers.Parse(q.Tier)] = q.RequestsPerHour
	}
	return table
}

// Format returns the named roster format as constraint-engine inputs.
func (c *Config) Format(name string) ([]lineup.SlotRequirement, lineup.Rules, bool) {
	for _, f := range c.Formats {
		if f.Name != name {
			continue
		}
		reqs := make([]lineup.SlotRequirement, 0, len(f.Slots))
		for _, s := range f.Slots {
			eligible := make([]lineup.Position, 0, len(s.Eligible))
			for _, pos := range s.Eligible {
				eligible = append(eligible, lineup.Position(pos))
			}
			reqs = append(reqs, lineup.SlotRequirement{
				Slot:     s.Slot,
				Count:    s.Count,
				Eligible: eligible,
			})
		}
		rules := lineup.Rules{
			SalaryCap:    f.SalaryCap,
			MaxOwnership: f.MaxOwnership,
			MaxPerTeam:   f.MaxPerTeam,
		}
		return reqs, rules, true
	}
	return nil, lineup.Rules{}, false
}

func DefaultCapabilities() []CapabilityConfig {
	return []CapabilityConfig{
		{RouteKey: "LINEUP_VALIDATE", RequiredTier: "FREE", Metered: true},
		{RouteKey: "LINEUP_SAVE", RequiredTier: "FREE", Metered: true},
		{RouteKey: "LINEUP_OPTIMIZER", RequiredTier: "PRO", Metered: true},
		{RouteKey: "PLAYER_POOL", RequiredTier: "FREE", Metered: false},
		{RouteKey: "OWNERSHIP_REPORT", RequiredTier: "ELITE", Metered: false},
	}
}

func DefaultQuotas() []QuotaConfig {
	return []QuotaConfig{
		{Tier: "FREE", RequestsPerHour: 100},
		{Tier: "PRO", RequestsPerHour: 1000},
		{Tier: "ELITE", RequestsPerHour: 0}, // unlimited
	}
}

func DefaultFormats() []FormatConfig {
	return []FormatConfig{
		{
			Name:       "classic",
			SalaryCap:  50000,
			MaxPerTeam: 4,
			Slots: []SlotConfig{
				{Slot: "QB", Count: 1, Eligible: []string{"QB"}},
				{Slot: "RB", Count: 2, Eligible: []string{"RB"}},
				{Slot: "WR", Count: 3, Eligible: []string{"WR"}},
				{Slot: "TE", Count: 1, Eligible: []string{"TE"}},
				{Slot: "FLEX", Count: 1, Eligible: []string{"RB", "WR", "TE"}},
				{Slot: "DST", Count: 1, Eligible: []string{"DST"}},
			},
		},
		{
			Name:      "showdown",
			SalaryCap: 50000,
			Slots: []SlotConfig{
				{Slot: "FLEX", Count: 5, Eligible: []string{"QB", "RB", "WR", "TE", "K", "DST"}},
			},
		},
	}
}
