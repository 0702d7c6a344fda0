package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/evgeny-myasishchev/ledger.transfers/config"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/api"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/app"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/router"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/query"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/transfers"
)

var logger = diag.CreateLogger()

var cliArgs struct {
	port int
}

func init() {
	flag.IntVar(&cliArgs.port, "port", 0, "Port to listen on. Overrides server/port config")

	flag.Parse()
}

func main() {
	appCfg := config.LoadAppConfig()

	diag.SetupLoggingSystem(func(setup diag.LoggingSystemSetup) {
		setup.SetLogMode(appCfg.Log.Mode.Value())
		setup.SetLogLevel(appCfg.Log.Level.Value())
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	port := appCfg.Server.Port.Value()
	if cliArgs.port != 0 {
		port = cliArgs.port
	}

	injector := app.BootstrapServices(appCfg)
	if err := injector(func(l ledger.Ledger, queries query.Service, transfersSvc transfers.Service) error {
		if _, err := transfersSvc.Restore(ctx); err != nil {
			return err
		}
		return router.StartServer(ctx, port, func(r router.Router) {
			api.SetupRoutes(r, api.Services{
				Ledger:    l,
				Queries:   queries,
				Transfers: transfersSvc,
			})
		})
	}); err != nil {
		logger.WithError(err).Error(ctx, "Server failed")
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped")
}
