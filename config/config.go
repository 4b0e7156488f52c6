// Package config contains configuration of the token ledger node.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/ft-contract/deploy"
	"github.com/nspcc-dev/ft-contract/fungible"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the top-level node configuration.
type Config struct {
	Logger Logger                   `yaml:"Logger"`
	DB     dbconfig.DBConfiguration `yaml:"DB"`
	Token  Token                    `yaml:"Token"`
}

// Logger configures zap logger.
type Logger struct {
	Level    string `yaml:"Level"`
	Encoding string `yaml:"Encoding"`
}

// Token describes the token contract deployed on node start. Amounts are
// decimal strings.
type Token struct {
	Account      string   `yaml:"Account"`
	Balance      string   `yaml:"Balance"`
	Owner        string   `yaml:"Owner"`
	OwnerBalance string   `yaml:"OwnerBalance"`
	TotalSupply  string   `yaml:"TotalSupply"`
	Metadata     Metadata `yaml:"Metadata"`
}

// Metadata describes the token metadata. ReferenceHash is hex-encoded.
type Metadata struct {
	Name          string `yaml:"Name"`
	Symbol        string `yaml:"Symbol"`
	Icon          string `yaml:"Icon"`
	Reference     string `yaml:"Reference"`
	ReferenceHash string `yaml:"ReferenceHash"`
	Decimals      uint8  `yaml:"Decimals"`
}

// Default returns configuration of the in-memory node with a test token.
func Default() *Config {
	return &Config{
		Logger: Logger{Level: "info", Encoding: "console"},
		DB:     dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB},
		Token: Token{
			Account:      "token.ledger",
			Balance:      "10000000000000000000000000",
			Owner:        "owner.ledger",
			OwnerBalance: "100000000000000000000000000",
			TotalSupply:  "1000000000000000000000000000",
			Metadata: Metadata{
				Name:     "Example Token",
				Symbol:   "EXT",
				Decimals: 24,
			},
		},
	}
}

// Load reads YAML configuration from path on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.DB.Type {
	case dbconfig.InMemoryDB, dbconfig.BoltDB, dbconfig.LevelDB:
	default:
		return fmt.Errorf("unknown DB type '%s'", c.DB.Type)
	}
	if _, err := zapcore.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if _, err := c.Token.DeployPrm(); err != nil {
		return fmt.Errorf("token: %w", err)
	}
	return nil
}

// NewLogger builds logger described by configuration.
func (l Logger) NewLogger() (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	if l.Encoding != "" {
		c.Encoding = l.Encoding
	}
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return c.Build()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DeployPrm converts token configuration into deployment parameters.
func (t Token) DeployPrm() (deploy.TokenPrm, error) {
	var prm deploy.TokenPrm

	for _, id := range []string{t.Account, t.Owner} {
		if err := host.ValidateAccountID(id); err != nil {
			return prm, err
		}
	}
	if t.Account == t.Owner {
		return prm, errors.New("owner must differ from the contract account")
	}

	balance, err := u128.Parse(t.Balance)
	if err != nil {
		return prm, fmt.Errorf("balance: %w", err)
	}
	ownerBalance, err := u128.Parse(t.OwnerBalance)
	if err != nil {
		return prm, fmt.Errorf("owner balance: %w", err)
	}
	supply, err := u128.Parse(t.TotalSupply)
	if err != nil {
		return prm, fmt.Errorf("total supply: %w", err)
	}

	m := fungible.Metadata{
		Spec:      fungible.MetadataSpec,
		Name:      t.Metadata.Name,
		Symbol:    t.Metadata.Symbol,
		Icon:      optional(t.Metadata.Icon),
		Reference: optional(t.Metadata.Reference),
		Decimals:  t.Metadata.Decimals,
	}
	if t.Metadata.ReferenceHash != "" {
		m.ReferenceHash, err = hex.DecodeString(t.Metadata.ReferenceHash)
		if err != nil {
			return prm, fmt.Errorf("reference hash: %w", err)
		}
	}
	if err := m.Validate(); err != nil {
		return prm, err
	}

	prm.Common = deploy.CommonDeployPrm{Account: t.Account, Balance: balance}
	prm.Owner = t.Owner
	prm.OwnerBalance = ownerBalance
	prm.TotalSupply = supply
	prm.Metadata = m
	return prm, nil
}
