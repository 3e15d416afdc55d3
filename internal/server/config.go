package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/peakecoin/peakpoker/internal/hive"
)

// Config represents the complete service configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
	Ledger LedgerSettings `hcl:"ledger,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings configures the token game
type GameSettings struct {
	Symbol          string  `hcl:"symbol,optional"`
	PlatformAccount string  `hcl:"platform_account"`
	ContractsURL    string  `hcl:"contracts_url,optional"`
	HistoryURL      string  `hcl:"history_url,optional"`
	MinBet          float64 `hcl:"min_bet,optional"`
	MaxBet          float64 `hcl:"max_bet,optional"`
}

// LedgerSettings configures the deposit ledger
type LedgerSettings struct {
	Enabled     bool   `hcl:"enabled,optional"`
	DatabaseURL string `hcl:"database_url,optional"`
	PollSeconds int    `hcl:"poll_seconds,optional"`
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			Symbol:          "PEK",
			PlatformAccount: "peakpoker",
			ContractsURL:    hive.DefaultContractsURL,
			HistoryURL:      hive.DefaultHistoryURL,
			MinBet:          1,
			MaxBet:          1000,
		},
		Ledger: LedgerSettings{
			PollSeconds: 30,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.Symbol == "" {
		config.Game.Symbol = defaults.Game.Symbol
	}
	if config.Game.ContractsURL == "" {
		config.Game.ContractsURL = defaults.Game.ContractsURL
	}
	if config.Game.HistoryURL == "" {
		config.Game.HistoryURL = defaults.Game.HistoryURL
	}
	if config.Game.MinBet == 0 {
		config.Game.MinBet = defaults.Game.MinBet
	}
	if config.Game.MaxBet == 0 {
		config.Game.MaxBet = defaults.Game.MaxBet
	}
	if config.Ledger.PollSeconds == 0 {
		config.Ledger.PollSeconds = defaults.Ledger.PollSeconds
	}
}

// Validate checks the configuration for problems
func (c *Config) Validate() error {
	if c.Game.PlatformAccount == "" {
		return fmt.Errorf("game.platform_account is required")
	}
	if c.Game.MinBet <= 0 {
		return fmt.Errorf("game.min_bet must be positive")
	}
	if c.Game.MaxBet < c.Game.MinBet {
		return fmt.Errorf("game.max_bet must be at least game.min_bet")
	}
	if c.Ledger.Enabled && c.Ledger.DatabaseURL == "" {
		return fmt.Errorf("ledger.database_url is required when the ledger is enabled")
	}
	return nil
}

// Addr returns the listen address in host:port form
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
