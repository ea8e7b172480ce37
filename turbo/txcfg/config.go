package txcfg

import (
	"math/big"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"

	"github.com/SipengXie/pangutx/core/types"
	"github.com/SipengXie/pangutx/params"
)

// DefaultMaxTxSize matches the largest transaction a local pool accepts.
const DefaultMaxTxSize = 128 * datasize.KB

// Config holds the settings shared by every pangutx command.
type Config struct {
	Name string

	Chain *params.ChainConfig
	// BlockNumber selects the signature rules; nil means the latest rules.
	BlockNumber *big.Int

	JournalPath string
	MaxTxSize   datasize.ByteSize

	Verbosity log.Lvl
}

// Default returns the configuration used when no flags are given.
func Default() *Config {
	return &Config{
		Name:      "pangutx",
		Chain:     params.MainnetChainConfig,
		MaxTxSize: DefaultMaxTxSize,
		Verbosity: log.LvlInfo,
	}
}

// Signer returns the signer for the configured chain and block.
func (c *Config) Signer() types.Signer {
	if c.BlockNumber == nil {
		return types.LatestSigner(c.Chain)
	}
	return types.MakeSigner(c.Chain, c.BlockNumber)
}
