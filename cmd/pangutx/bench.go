package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/SipengXie/pangutx/cmd/utils"
	"github.com/SipengXie/pangutx/core/types"
)

var benchCommand = &cli.Command{
	Name:  "bench",
	Usage: "Measure signing or sender recovery throughput",
	Flags: []cli.Flag{
		utils.KeyFlag,
		utils.BenchOpFlag,
		utils.BenchWarmupFlag,
		utils.BenchTrialFlag,
		utils.BenchTrialsFlag,
		utils.BenchThreadsFlag,
	},
	Action: runBench,
}

// benchResult summarises the per-trial rates in operations per second.
type benchResult struct {
	Min, Mean, Max float64
	// InnerMean drops the slowest and fastest trial.
	InnerMean float64
}

func (r benchResult) String() string {
	return fmt.Sprintf("min/mean/max: %.0f/%.0f/%.0f op/s, inner mean: %.0f op/s", r.Min, r.Mean, r.Max, r.InnerMean)
}

func summarize(rates []float64) benchResult {
	if len(rates) == 0 {
		return benchResult{}
	}
	sorted := append([]float64(nil), rates...)
	sort.Float64s(sorted)

	var sum float64
	for _, r := range sorted {
		sum += r
	}
	res := benchResult{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: sum / float64(len(sorted)),
	}
	if len(sorted) < 3 {
		res.InnerMean = res.Mean
		return res
	}
	var inner float64
	for _, r := range sorted[1 : len(sorted)-1] {
		inner += r
	}
	res.InnerMean = inner / float64(len(sorted)-2)
	return res
}

// runTrial runs op on threads workers until d elapses and returns the
// achieved rate. The first error stops every worker.
func runTrial(ctx context.Context, threads int, d time.Duration, op func() error) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	var done atomic.Uint64
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := 0; i < threads; i++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				if err := op(); err != nil {
					return err
				}
				done.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return float64(done.Load()) / time.Since(start).Seconds(), nil
}

func benchOp(name string, signer types.Signer, key *ecdsa.PrivateKey) (func() error, error) {
	tx, err := types.SignNewTx(signer, key, uint256.NewInt(0), &types.CallTx{
		To:       crypto.PubkeyToAddress(key.PublicKey),
		Value:    *uint256.NewInt(1000),
		GasPrice: *uint256.NewInt(1),
		Gas:      *uint256.NewInt(21000),
	})
	if err != nil {
		return nil, err
	}
	enc := tx.RLP(true)
	switch name {
	case "recover":
		return func() error {
			dec, err := types.Decode(enc, signer, false)
			if err != nil {
				return err
			}
			_, err = dec.Sender()
			return err
		}, nil
	case "sign":
		digest := tx.Hash(false)
		return func() error {
			_, err := signer.Sign(digest, key)
			return err
		}, nil
	}
	return nil, errors.Wrapf(utils.ErrBadArgument, "unknown benchmark operation %q", name)
}

func runBench(cliCtx *cli.Context) error {
	var (
		key *ecdsa.PrivateKey
		err error
	)
	if cliCtx.IsSet(utils.KeyFlag.Name) {
		key, err = utils.ParseKey(utils.KeyFlag.Name, cliCtx.String(utils.KeyFlag.Name))
	} else {
		key, err = crypto.GenerateKey()
	}
	if err != nil {
		return err
	}
	threads, trials := cliCtx.Int(utils.BenchThreadsFlag.Name), cliCtx.Int(utils.BenchTrialsFlag.Name)
	if threads < 1 {
		return errors.Wrapf(utils.ErrBadArgument, "--%s must be positive", utils.BenchThreadsFlag.Name)
	}
	if trials < 1 {
		return errors.Wrapf(utils.ErrBadArgument, "--%s must be positive", utils.BenchTrialsFlag.Name)
	}
	opName := cliCtx.String(utils.BenchOpFlag.Name)
	op, err := benchOp(opName, config.Signer(), key)
	if err != nil {
		return err
	}

	logger := log.New("op", opName, "threads", threads)
	logger.Info("Warming up", "duration", cliCtx.Duration(utils.BenchWarmupFlag.Name))
	if _, err := runTrial(cliCtx.Context, threads, cliCtx.Duration(utils.BenchWarmupFlag.Name), op); err != nil {
		return err
	}
	rates := make([]float64, 0, trials)
	for i := 1; i <= trials; i++ {
		rate, err := runTrial(cliCtx.Context, threads, cliCtx.Duration(utils.BenchTrialFlag.Name), op)
		if err != nil {
			return err
		}
		logger.Info("Trial finished", "trial", i, "rate", fmt.Sprintf("%.0f op/s", rate))
		rates = append(rates, rate)
	}
	_, err = fmt.Fprintln(cliCtx.App.Writer, summarize(rates))
	return err
}
