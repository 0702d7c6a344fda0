package app

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/dig"

	"github.com/evgeny-myasishchev/ledger.transfers/config"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/otp"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/query"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/transfers"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/types"
)

// MemoryDriver keeps everything in memory, accounts are seeded from config
const MemoryDriver = "memory"

const (
	logDeliverer     = "log"
	gatewayDeliverer = "gateway"
)

// Injector is a function that will inject desired services
// to a target function
type Injector func(function interface{}) error

// SeedAccounts returns accounts defined in config
func SeedAccounts(appCfg *config.AppConfig) ([]ledger.Account, error) {
	seeds := []struct {
		accType types.AccountType
		seed    config.SeedAccount
	}{
		{types.AccountTypeChecking, appCfg.Ledger.Checking},
		{types.AccountTypeSavings, appCfg.Ledger.Savings},
	}
	result := make([]ledger.Account, 0, len(seeds))
	for _, s := range seeds {
		balance, err := decimal.NewFromString(s.seed.Balance.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "Bad seed balance of %v account", s.accType)
		}
		result = append(result, ledger.Account{
			ID:          s.seed.ID.Value(),
			Type:        s.accType,
			Number:      types.AccountNumber(s.seed.Number.Value()),
			SeedBalance: balance,
		})
	}
	return result, nil
}

func newDeliverer(appCfg *config.AppConfig) (otp.Deliverer, error) {
	switch appCfg.OTP.Deliverer.Value() {
	case logDeliverer:
		return otp.NewLogDeliverer(), nil
	case gatewayDeliverer:
		return otp.NewGatewayDeliverer(appCfg.OTP.GatewayURL.Value(), appCfg.OTP.GatewayToken.Value()), nil
	}
	return nil, errors.Errorf("Unknown deliverer: %v", appCfg.OTP.Deliverer.Value())
}

func otpPolicy(appCfg *config.AppConfig) otp.Policy {
	return otp.Policy{
		MaxAttempts: appCfg.OTP.MaxAttempts.Value(),
		TTL:         appCfg.OTP.TTL.Value(),
	}
}

// BootstrapServices setup di container with all app services
func BootstrapServices(appCfg *config.AppConfig) Injector {
	c := dig.New()
	provide := func(constructor interface{}) {
		if err := c.Provide(constructor); err != nil {
			panic(err)
		}
	}

	if appCfg.Storage.Driver.Value() == MemoryDriver {
		provide(func() (ledger.Journal, error) {
			accounts, err := SeedAccounts(appCfg)
			if err != nil {
				return nil, err
			}
			return ledger.NewMemoryJournal(accounts...), nil
		})
		provide(func() transfers.Repository {
			return transfers.NewMemoryRepository()
		})
	} else {
		provide(func() (*sql.DB, error) {
			return sql.Open(appCfg.Storage.Driver.Value(), appCfg.Storage.DSN.Value())
		})
		provide(func(db *sql.DB) (dal.Storage, error) {
			return dal.NewSQLStorage(dal.WithSQLDb(db))
		})
		provide(func(storage dal.Storage) ledger.Journal {
			return ledger.NewSQLJournal(storage)
		})
		provide(func(storage dal.Storage) transfers.Repository {
			return transfers.NewSQLRepository(storage)
		})
	}

	provide(func(journal ledger.Journal) (ledger.Ledger, error) {
		return ledger.Load(context.Background(),
			ledger.WithJournal(journal),
			ledger.WithLockWait(appCfg.Ledger.LockWait.Value()),
		)
	})

	provide(func() (otp.Challenger, error) {
		deliverer, err := newDeliverer(appCfg)
		if err != nil {
			return nil, err
		}
		opts := []otp.ChallengerOpt{
			otp.WithPolicy(otpPolicy(appCfg)),
			otp.WithDeliverer(deliverer),
			otp.WithHashCost(appCfg.OTP.HashCost.Value()),
		}
		if code := appCfg.OTP.FixedCode.Value(); code != "" {
			opts = append(opts, otp.WithFixedCode(code))
		}
		return otp.NewChallenger(opts...), nil
	})

	provide(func(l ledger.Ledger, challenger otp.Challenger, repository transfers.Repository) (transfers.Service, error) {
		fee, err := decimal.NewFromString(appCfg.Transfers.DefaultFee.Value())
		if err != nil {
			return nil, errors.Wrap(err, "Bad default fee")
		}
		return transfers.NewService(
			transfers.WithLedger(l),
			transfers.WithChallenger(challenger),
			transfers.WithRepository(repository),
			transfers.WithPolicy(otpPolicy(appCfg)),
			transfers.WithDefaultFee(fee),
		)
	})

	provide(func(l ledger.Ledger) query.Service {
		return query.NewService(l)
	})

	return func(function interface{}) error {
		return c.Invoke(function)
	}
}
