package app

import (
	cli2 "github.com/SipengXie/pangutx/turbo/cli"
	"github.com/urfave/cli/v2"
)

// MakeApp builds the command line application with the shared flags and
// the given subcommands. before runs ahead of every command.
func MakeApp(name, usage string, before cli.BeforeFunc, cliFlags []cli.Flag, commands []*cli.Command) *cli.App {
	app := cli2.NewApp()
	app.Name = name
	app.Usage = usage
	app.UsageText = app.Name + ` [command] [flags]`
	app.Flags = cliFlags
	app.Commands = commands
	app.Before = before
	return app
}
