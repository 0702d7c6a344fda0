package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/evgeny-myasishchev/ledger.transfers/config"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/app"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/query"
)

var logger = diag.CreateLogger()

var cliArgs struct {
	cmd     string
	accType string
	limit   int
}

func init() {
	flag.StringVar(&cliArgs.cmd, "cmd", "", "Command to run. Available commands: accounts, balance, history")
	flag.StringVar(&cliArgs.accType, "type", "checking", "Account type: checking or savings")
	flag.IntVar(&cliArgs.limit, "limit", 10, "Max number of transactions to show, 0 to show all")

	flag.Parse()
}

func showHelpAndExit() {
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	if cliArgs.cmd == "" {
		showHelpAndExit()
	}

	appCfg := config.LoadAppConfig()

	diag.SetupLoggingSystem(func(setup diag.LoggingSystemSetup) {
		setup.SetLogMode(appCfg.Log.Mode.Value())
		setup.SetLogLevel(appCfg.Log.Level.Value())
	})

	injector := app.BootstrapServices(appCfg)
	ctx := context.Background()

	var err error
	switch cliArgs.cmd {
	case "accounts":
		err = injector(func(l ledger.Ledger) error {
			accounts, err := l.ListAccounts(ctx)
			if err != nil {
				return err
			}
			for _, acc := range accounts {
				fmt.Printf("%v\t%v\t%v\t%v\n", acc.ID, acc.Type, acc.Number.Masked(), acc.Balance.StringFixed(2))
			}
			return nil
		})

	case "balance":
		err = injector(func(queries query.Service) error {
			balance, err := queries.GetBalance(ctx, cliArgs.accType)
			if err != nil {
				return err
			}
			fmt.Printf("%v %v: %v\n", balance.AccountType, balance.AccountNumber, balance.Balance.StringFixed(2))
			return nil
		})

	case "history":
		err = injector(func(queries query.Service) error {
			items, err := queries.GetTransactionHistory(ctx, cliArgs.accType, cliArgs.limit)
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Printf("%v\t%v\t%v\t%v\n", item.Date, item.Type, item.Amount.StringFixed(2), item.Description)
			}
			return nil
		})

	default:
		showHelpAndExit()
	}

	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to run %v command", cliArgs.cmd)
		os.Exit(1)
	}
}
