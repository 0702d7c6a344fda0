package main

import (
	"context"
	"flag"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.transfers/config"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/app"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/types"
)

var logger = diag.CreateLogger()

var cliArgs struct {
	cmd     string
	id      string
	accType string
	number  string
	balance string
}

func init() {
	flag.StringVar(&cliArgs.cmd, "cmd", "", "Command to run. Available commands: setup, add-account")
	flag.StringVar(&cliArgs.id, "id", "", "Id of the account to add")
	flag.StringVar(&cliArgs.accType, "type", "", "Type of the account to add: checking or savings")
	flag.StringVar(&cliArgs.number, "number", "", "Number of the account to add")
	flag.StringVar(&cliArgs.balance, "balance", "0", "Seed balance of the account to add")

	flag.Parse()
}

func showHelpAndExit() {
	flag.PrintDefaults()
	os.Exit(1)
}

func accountFromArgs() (ledger.Account, error) {
	if cliArgs.id == "" || cliArgs.number == "" {
		return ledger.Account{}, errors.New("id and number are required")
	}
	accType, err := types.ParseAccountType(cliArgs.accType)
	if err != nil {
		return ledger.Account{}, err
	}
	balance, err := decimal.NewFromString(cliArgs.balance)
	if err != nil {
		return ledger.Account{}, err
	}
	return ledger.Account{
		ID:          cliArgs.id,
		Type:        accType,
		Number:      types.AccountNumber(cliArgs.number),
		SeedBalance: balance,
	}, nil
}

func main() {
	if cliArgs.cmd == "" {
		showHelpAndExit()
	}
	ctx := context.Background()

	appCfg := config.LoadAppConfig()

	diag.SetupLoggingSystem(func(setup diag.LoggingSystemSetup) {
		setup.SetLogMode(appCfg.Log.Mode.Value())
		setup.SetLogLevel(appCfg.Log.Level.Value())
	})

	if appCfg.Storage.Driver.Value() == app.MemoryDriver {
		logger.Error(ctx, "Storage commands are not available for %v driver", app.MemoryDriver)
		os.Exit(1)
	}

	injector := app.BootstrapServices(appCfg)

	switch cliArgs.cmd {
	case "setup":
		if err := injector(func(storage dal.Storage) error {
			if err := storage.Setup(ctx); err != nil {
				return err
			}
			accounts, err := app.SeedAccounts(appCfg)
			if err != nil {
				return err
			}
			for _, acc := range accounts {
				if err := ledger.SaveAccount(ctx, storage, acc); err != nil {
					return err
				}
				logger.Info(ctx, "Seeded %v account %v", acc.Type, acc.ID)
			}
			return nil
		}); err != nil {
			logger.WithError(err).Error(ctx, "Failed to setup storage")
			os.Exit(1)
		}

	case "add-account":
		acc, err := accountFromArgs()
		if err != nil {
			logger.WithError(err).Error(ctx, "Invalid account args")
			showHelpAndExit()
		}
		if err := injector(func(storage dal.Storage) error {
			return ledger.SaveAccount(ctx, storage, acc)
		}); err != nil {
			logger.WithError(err).Error(ctx, "Failed to add account")
			os.Exit(1)
		}
		logger.Info(ctx, "Account %v added", acc.ID)

	default:
		showHelpAndExit()
	}
}
