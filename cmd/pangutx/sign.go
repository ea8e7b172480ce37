package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/SipengXie/pangutx/cmd/utils"
	"github.com/SipengXie/pangutx/core/txjournal"
	"github.com/SipengXie/pangutx/core/types"
)

var signCommand = &cli.Command{
	Name:  "sign",
	Usage: "Build and sign a transaction, print its encoding",
	Flags: []cli.Flag{
		utils.KeyFlag,
		utils.NonceFlag,
		utils.ValueFlag,
		utils.GasPriceFlag,
		utils.GasFlag,
		utils.ToFlag,
		utils.DataFlag,
		utils.JSONFlag,
	},
	Action: runSign,
}

// txDataFromFlags assembles the unsigned payload from the transaction flags.
func txDataFromFlags(cliCtx *cli.Context) (types.TxData, error) {
	value, err := utils.ParseUint256(utils.ValueFlag.Name, cliCtx.String(utils.ValueFlag.Name))
	if err != nil {
		return nil, err
	}
	gasPrice, err := utils.ParseUint256(utils.GasPriceFlag.Name, cliCtx.String(utils.GasPriceFlag.Name))
	if err != nil {
		return nil, err
	}
	gas, err := utils.ParseUint256(utils.GasFlag.Name, cliCtx.String(utils.GasFlag.Name))
	if err != nil {
		return nil, err
	}
	to, err := utils.ParseAddress(utils.ToFlag.Name, cliCtx.String(utils.ToFlag.Name))
	if err != nil {
		return nil, err
	}
	data, err := utils.ParseHex(utils.DataFlag.Name, cliCtx.String(utils.DataFlag.Name))
	if err != nil {
		return nil, err
	}
	if to == nil {
		return &types.CreateTx{Value: *value, GasPrice: *gasPrice, Gas: *gas, Data: data}, nil
	}
	return &types.CallTx{To: *to, Value: *value, GasPrice: *gasPrice, Gas: *gas, Data: data}, nil
}

func runSign(cliCtx *cli.Context) error {
	key, err := utils.ParseKey(utils.KeyFlag.Name, cliCtx.String(utils.KeyFlag.Name))
	if err != nil {
		return err
	}
	nonce, err := utils.ParseUint256(utils.NonceFlag.Name, cliCtx.String(utils.NonceFlag.Name))
	if err != nil {
		return err
	}
	inner, err := txDataFromFlags(cliCtx)
	if err != nil {
		return err
	}
	tx, err := types.SignNewTx(config.Signer(), key, nonce, inner)
	if err != nil {
		return err
	}
	log.Info("Signed transaction", "hash", tx.Hash(true), "kind", tx.Kind(), "size", tx.Size())

	if config.JournalPath != "" {
		journal := txjournal.New(config.JournalPath, log.Root())
		if err := journal.Open(); err != nil {
			return err
		}
		if err := journal.Insert(tx); err != nil {
			journal.Close()
			return err
		}
		if err := journal.Close(); err != nil {
			return err
		}
	}
	return printTx(cliCtx, tx)
}

func printTx(cliCtx *cli.Context, tx *types.Transaction) error {
	w := cliCtx.App.Writer
	if cliCtx.Bool(utils.JSONFlag.Name) {
		out, err := tx.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
	_, err := fmt.Fprintln(w, hexutil.Encode(tx.RLP(true)))
	return err
}
