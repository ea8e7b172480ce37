package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/SipengXie/pangutx/cmd/utils"
	"github.com/SipengXie/pangutx/core/txclass"
	"github.com/SipengXie/pangutx/core/txjournal"
	"github.com/SipengXie/pangutx/core/types"
)

var journalCommand = &cli.Command{
	Name:  "journal",
	Usage: "List the verified transactions held in the journal",
	Flags: []cli.Flag{
		utils.JSONFlag,
		utils.ClassifyFlag,
	},
	Action: runJournal,
}

func runJournal(cliCtx *cli.Context) error {
	if config.JournalPath == "" {
		return errors.Wrapf(utils.ErrBadArgument, "--%s is required", utils.JournalFlag.Name)
	}
	var loaded types.Transactions
	journal := txjournal.New(config.JournalPath, log.Root())
	err := journal.Load(config.Signer(), func(txs types.Transactions) []error {
		loaded = append(loaded, txs...)
		return make([]error, len(txs))
	})
	if err != nil {
		return err
	}
	if !cliCtx.Bool(utils.ClassifyFlag.Name) {
		return printJournal(cliCtx, "", loaded)
	}
	groups, err := txclass.ClassifyTx(loaded)
	if err != nil {
		return err
	}
	for i, group := range groups {
		if err := printJournal(cliCtx, fmt.Sprintf("%d ", i), group); err != nil {
			return err
		}
	}
	return nil
}

func printJournal(cliCtx *cli.Context, prefix string, txs types.Transactions) error {
	for _, tx := range txs {
		if cliCtx.Bool(utils.JSONFlag.Name) {
			if err := printTx(cliCtx, tx); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(cliCtx.App.Writer, prefix+tx.Hash(true).Hex(), tx); err != nil {
			return err
		}
	}
	return nil
}
