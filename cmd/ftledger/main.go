package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ftledger"
	app.Usage = "Fungible token ledger node"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to YAML configuration (in-memory node with default token if omitted)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "create-account",
			Usage:     "Create plain account with native balance",
			ArgsUsage: "<account> <balance>",
			Action:    createAccount,
		},
		{
			Name:      "balance",
			Usage:     "Print token and native balances of the account",
			ArgsUsage: "<account>",
			Action:    balance,
		},
		{
			Name:   "info",
			Usage:  "Print total supply, metadata and storage bounds of the token",
			Action: info,
		},
		{
			Name:  "transfer",
			Usage: "Transfer tokens",
			Flags: []cli.Flag{
				fromFlag, toFlag, amountFlag,
				cli.StringFlag{Name: "memo", Usage: "transfer memo"},
			},
			Action: transfer,
		},
		{
			Name:  "transfer-call",
			Usage: "Transfer tokens and notify the receiver",
			Flags: []cli.Flag{
				fromFlag, toFlag, amountFlag,
				cli.StringFlag{Name: "memo", Usage: "transfer memo"},
				cli.StringFlag{Name: "msg", Usage: "message passed to the receiver"},
				cli.Uint64Flag{Name: "gas", Usage: "prepaid gas in TGas (default: maximum)"},
			},
			Action: transferCall,
		},
		{
			Name:  "storage-deposit",
			Usage: "Pay storage deposit registering the account",
			Flags: []cli.Flag{
				fromFlag,
				cli.StringFlag{Name: "account", Usage: "account to register (sender if omitted)"},
				cli.StringFlag{Name: "deposit", Usage: "attached native amount (minimum bond if omitted)"},
				cli.BoolFlag{Name: "keep-excess", Usage: "record the whole deposit instead of refunding the excess"},
			},
			Action: storageDeposit,
		},
		{
			Name:  "storage-withdraw",
			Usage: "Withdraw available storage deposit",
			Flags: []cli.Flag{
				fromFlag,
				cli.StringFlag{Name: "amount", Usage: "amount to withdraw (everything available if omitted)"},
			},
			Action: storageWithdraw,
		},
		{
			Name:  "storage-unregister",
			Usage: "Unregister the account and return its storage deposit",
			Flags: []cli.Flag{
				fromFlag,
				cli.BoolFlag{Name: "force", Usage: "burn remaining tokens"},
			},
			Action: storageUnregister,
		},
		{
			Name:  "dump",
			Usage: "Dump token contract state and storage",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "out", Value: "dumps", Usage: "output directory"},
				cli.StringFlag{Name: "label", Value: "ftledger", Usage: "dump label"},
			},
			Action: dumpState,
		},
	}
	return app
}
