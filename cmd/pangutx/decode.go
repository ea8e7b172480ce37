package main

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/cockroachdb/errors"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/SipengXie/pangutx/cmd/utils"
	"github.com/SipengXie/pangutx/core/types"
)

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "Decode a signed transaction and print its fields",
	ArgsUsage: "<hex>",
	Flags: []cli.Flag{
		utils.VerifyFlag,
		utils.JSONFlag,
	},
	Action: runDecode,
}

func runDecode(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return errors.Wrap(utils.ErrBadArgument, "decode expects exactly one hex argument")
	}
	raw, err := utils.ParseHex("input", cliCtx.Args().First())
	if err != nil {
		return err
	}
	if size := datasize.ByteSize(len(raw)); size > config.MaxTxSize {
		return errors.Wrapf(utils.ErrBadArgument, "transaction size %s exceeds limit %s", size.HR(), config.MaxTxSize.HR())
	}
	tx, err := types.Decode(raw, config.Signer(), cliCtx.Bool(utils.VerifyFlag.Name))
	if err != nil {
		return err
	}
	if cliCtx.Bool(utils.JSONFlag.Name) {
		return printTx(cliCtx, tx)
	}

	w := cliCtx.App.Writer
	fmt.Fprintf(w, "kind:      %v\n", tx.Kind())
	fmt.Fprintf(w, "hash:      %v\n", tx.Hash(true))
	fmt.Fprintf(w, "sighash:   %v\n", tx.Hash(false))
	fmt.Fprintf(w, "nonce:     %v\n", tx.Nonce().Dec())
	fmt.Fprintf(w, "gasPrice:  %v\n", tx.GasPrice().Dec())
	fmt.Fprintf(w, "gas:       %v\n", tx.Gas().Dec())
	if to := tx.To(); to != nil {
		fmt.Fprintf(w, "to:        %v\n", to.Hex())
	}
	fmt.Fprintf(w, "value:     %v\n", tx.Value().Dec())
	fmt.Fprintf(w, "data:      %x\n", tx.Data())
	fmt.Fprintf(w, "signature: %v\n", tx.Signature())
	from, err := tx.Sender()
	if err != nil {
		log.Warn("Sender recovery failed", "hash", tx.Hash(true), "err", err)
		return nil
	}
	_, err = fmt.Fprintf(w, "from:      %v\n", from.Hex())
	return err
}
