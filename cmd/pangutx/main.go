package main

import (
	"fmt"
	"os"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/SipengXie/pangutx/cmd/utils"
	"github.com/SipengXie/pangutx/turbo/app"
	"github.com/SipengXie/pangutx/turbo/txcfg"
)

// config is filled by the Before hook and read by every command.
var config *txcfg.Config

func main() {
	defer func() {
		panicRes := recover()
		if panicRes == nil {
			return
		}
		log.Error("catch panic", "err", panicRes)
		os.Exit(1)
	}()
	if err := newApp().Run(os.Args); err != nil {
		_, printErr := fmt.Fprintln(os.Stderr, err)
		if printErr != nil {
			log.Warn("Fprintln error", "err", printErr)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return app.MakeApp("pangutx", "sign, decode and inspect legacy transactions", setup, utils.GlobalFlags, []*cli.Command{
		signCommand,
		decodeCommand,
		journalCommand,
		benchCommand,
	})
}

func setup(cliCtx *cli.Context) error {
	config = txcfg.Default()
	if err := utils.SetConfig(cliCtx, config); err != nil {
		return err
	}
	utils.SetupLogger(config)
	log.Debug("Configured", "chain", cliCtx.String(utils.ChainFlag.Name), "block", config.BlockNumber, "maxTxSize", config.MaxTxSize.HR())
	return nil
}
