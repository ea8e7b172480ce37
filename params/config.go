package params

import "math/big"

// ChainConfig is the part of the chain configuration that decides which
// signature rules apply to transactions.
type ChainConfig struct {
	// HomesteadBlock switches signature validation to the homestead rules
	// (nil = never, 0 = already active).
	HomesteadBlock *big.Int `json:"homesteadBlock,omitempty"`
}

var (
	// MainnetChainConfig activates homestead at block 1,150,000.
	MainnetChainConfig = &ChainConfig{
		HomesteadBlock: big.NewInt(1_150_000),
	}

	// FrontierChainConfig never leaves the frontier rules.
	FrontierChainConfig = &ChainConfig{}

	// TestChainConfig has homestead active from genesis.
	TestChainConfig = &ChainConfig{
		HomesteadBlock: big.NewInt(0),
	}
)

// IsHomestead returns whether num is either equal to the homestead block or greater.
func (c *ChainConfig) IsHomestead(num *big.Int) bool {
	return isBlockForked(c.HomesteadBlock, num)
}

// isBlockForked returns whether a fork scheduled at block s is active at the
// given head block.
func isBlockForked(s, head *big.Int) bool {
	if s == nil || head == nil {
		return false
	}
	return s.Cmp(head) <= 0
}
