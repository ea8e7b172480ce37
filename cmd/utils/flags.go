package utils

import (
	"crypto/ecdsa"
	"math/big"
	"runtime"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/SipengXie/pangutx/params"
	"github.com/SipengXie/pangutx/turbo/txcfg"
)

// ErrBadArgument reports an unusable command line value.
var ErrBadArgument = errors.New("bad argument")

var (
	// General settings
	ChainFlag = &cli.StringFlag{
		Name:  "chain",
		Usage: "Signature rules to apply: mainnet, frontier or test",
		Value: "mainnet",
	}
	BlockFlag = &cli.Uint64Flag{
		Name:  "block",
		Usage: "Block number that selects the signature rules (default: latest rules)",
	}
	JournalFlag = &cli.StringFlag{
		Name:  "journal",
		Usage: "Path of the local transaction journal",
	}
	MaxTxSizeFlag = &cli.StringFlag{
		Name:  "txsize.max",
		Usage: "Largest accepted encoded transaction, e.g. 128KB",
		Value: txcfg.DefaultMaxTxSize.String(),
	}
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: crit, error, warn, info, debug, trace",
		Value: "info",
	}

	// Transaction fields
	KeyFlag = &cli.StringFlag{
		Name:  "key",
		Usage: "Hex encoded private key used for signing",
	}
	NonceFlag = &cli.StringFlag{
		Name:  "nonce",
		Usage: "Sender nonce (decimal or 0x hex)",
		Value: "0",
	}
	ValueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "Amount to transfer in wei (decimal or 0x hex)",
		Value: "0",
	}
	GasPriceFlag = &cli.StringFlag{
		Name:  "gasprice",
		Usage: "Gas price in wei (decimal or 0x hex)",
		Value: "1",
	}
	GasFlag = &cli.StringFlag{
		Name:  "gas",
		Usage: "Gas limit (decimal or 0x hex)",
		Value: "21000",
	}
	ToFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "Destination address; omit to create a contract",
	}
	DataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "Hex encoded call data or init code",
	}
	VerifyFlag = &cli.BoolFlag{
		Name:  "verify",
		Usage: "Recover the sender while decoding and reject on failure",
	}
	JSONFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the transaction as JSON",
	}
	ClassifyFlag = &cli.BoolFlag{
		Name:  "classify",
		Usage: "Group journal entries by the accounts they touch",
	}

	// Benchmark settings
	BenchOpFlag = &cli.StringFlag{
		Name:  "bench.op",
		Usage: "Operation to benchmark: recover or sign",
		Value: "recover",
	}
	BenchWarmupFlag = &cli.DurationFlag{
		Name:  "bench.warmup",
		Usage: "Duration of the warmup run",
		Value: 3 * time.Second,
	}
	BenchTrialFlag = &cli.DurationFlag{
		Name:  "bench.trial",
		Usage: "Duration of each trial",
		Value: 3 * time.Second,
	}
	BenchTrialsFlag = &cli.IntFlag{
		Name:  "bench.trials",
		Usage: "Number of trials",
		Value: 5,
	}
	BenchThreadsFlag = &cli.IntFlag{
		Name:  "bench.threads",
		Usage: "Number of concurrent workers",
		Value: runtime.NumCPU(),
	}
)

// GlobalFlags are accepted by every command.
var GlobalFlags = []cli.Flag{
	ChainFlag,
	BlockFlag,
	JournalFlag,
	MaxTxSizeFlag,
	VerbosityFlag,
}

func badArgument(flag, value string) error {
	return errors.Wrapf(ErrBadArgument, "bad --%s option: %q", flag, value)
}

// SetConfig applies the global flags to cfg.
func SetConfig(ctx *cli.Context, cfg *txcfg.Config) error {
	switch name := ctx.String(ChainFlag.Name); strings.ToLower(name) {
	case "mainnet":
		cfg.Chain = params.MainnetChainConfig
	case "frontier":
		cfg.Chain = params.FrontierChainConfig
	case "test":
		cfg.Chain = params.TestChainConfig
	default:
		return badArgument(ChainFlag.Name, name)
	}
	if ctx.IsSet(BlockFlag.Name) {
		cfg.BlockNumber = new(big.Int).SetUint64(ctx.Uint64(BlockFlag.Name))
	}
	cfg.JournalPath = ctx.String(JournalFlag.Name)

	size, err := datasize.ParseString(ctx.String(MaxTxSizeFlag.Name))
	if err != nil {
		return badArgument(MaxTxSizeFlag.Name, ctx.String(MaxTxSizeFlag.Name))
	}
	cfg.MaxTxSize = size

	lvl, err := log.LvlFromString(ctx.String(VerbosityFlag.Name))
	if err != nil {
		return badArgument(VerbosityFlag.Name, ctx.String(VerbosityFlag.Name))
	}
	cfg.Verbosity = lvl
	return nil
}

// SetupLogger routes the root logger to stderr at the configured level.
func SetupLogger(cfg *txcfg.Config) {
	log.Root().SetHandler(log.LvlFilterHandler(cfg.Verbosity, log.StderrHandler))
}

// ParseUint256 parses a decimal or 0x prefixed hex quantity.
func ParseUint256(flag, s string) (*uint256.Int, error) {
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = uint256.FromHex(s)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, badArgument(flag, s)
	}
	return v, nil
}

// ParseAddress parses a hex address. The empty string yields nil.
func ParseAddress(flag, s string) (*common.Address, error) {
	if s == "" {
		return nil, nil
	}
	if !common.IsHexAddress(s) {
		return nil, badArgument(flag, s)
	}
	addr := common.HexToAddress(s)
	return &addr, nil
}

// ParseHex decodes hex input with or without the 0x prefix.
func ParseHex(flag, s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, badArgument(flag, s)
	}
	return b, nil
}

// ParseKey decodes a hex private key.
func ParseKey(flag, s string) (*ecdsa.PrivateKey, error) {
	if s == "" {
		return nil, errors.Wrapf(ErrBadArgument, "--%s is required", flag)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, badArgument(flag, "<redacted>")
	}
	return key, nil
}
