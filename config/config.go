package config

import (
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/config"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/version"
)

var appEnv = config.NewAppEnv(version.AppName)
var configBuilder = config.NewBuilder(appEnv)

var localParams = configBuilder.NewParamsBuilder(configBuilder.WithLocalSource())
var remoteParams = configBuilder.NewParamsBuilder(configBuilder.WithRemoteSource())

// Do not change vars below at runtime
var (
	LogLevel = localParams.NewParam("log/level").String()
	LogMode  = localParams.NewParam("log/mode").String()

	ServerPort = localParams.NewParam("server/port").Int()

	StorageDriver = localParams.NewParam("storage/driver").String()
	StorageDSN    = localParams.NewParam("storage/data-source-name").String()

	LedgerLockWait = localParams.NewParam("ledger/lock-wait").Duration()

	SeedCheckingID      = localParams.NewParam("ledger/seed/checking/id").String()
	SeedCheckingNumber  = localParams.NewParam("ledger/seed/checking/number").String()
	SeedCheckingBalance = localParams.NewParam("ledger/seed/checking/balance").String()
	SeedSavingsID       = localParams.NewParam("ledger/seed/savings/id").String()
	SeedSavingsNumber   = localParams.NewParam("ledger/seed/savings/number").String()
	SeedSavingsBalance  = localParams.NewParam("ledger/seed/savings/balance").String()

	TransfersDefaultFee = localParams.NewParam("transfers/default-fee").String()

	OTPMaxAttempts = localParams.NewParam("otp/max-attempts").Int()
	OTPTTL         = localParams.NewParam("otp/ttl").Duration()
	OTPFixedCode   = localParams.NewParam("otp/fixed-code").String()
	OTPHashCost    = localParams.NewParam("otp/hash-cost").Int()
	OTPDeliverer   = localParams.NewParam("otp/deliverer").String()
	OTPGatewayURL  = localParams.NewParam("otp/gateway/url").String()

	OTPGatewayToken = remoteParams.NewParam("otp/gateway/token").String()
)

// Log represents logger specific options
type Log struct {
	Level config.StringVal

	// Mode is json or text
	Mode config.StringVal
}

// Server represents http server settings
type Server struct {
	Port config.IntVal
}

// Storage represents storage settings
type Storage struct {
	Driver config.StringVal
	DSN    config.StringVal
}

// SeedAccount is an account the ledger is initialized with
type SeedAccount struct {
	ID      config.StringVal
	Number  config.StringVal
	Balance config.StringVal
}

// Ledger represents ledger settings
type Ledger struct {
	LockWait config.DurationVal
	Checking SeedAccount
	Savings  SeedAccount
}

// Transfers represents transfer workflow settings
type Transfers struct {
	DefaultFee config.StringVal
}

// OTP represents one-time codes settings
type OTP struct {
	MaxAttempts config.IntVal
	TTL         config.DurationVal

	// FixedCode makes all codes equal to a given value, dev only
	FixedCode config.StringVal
	HashCost  config.IntVal

	// Deliverer is either log or gateway
	Deliverer    config.StringVal
	GatewayURL   config.StringVal
	GatewayToken config.StringVal
}

// AppConfig is a toplevel config structure
type AppConfig struct {
	Log       Log
	Server    Server
	Storage   Storage
	Ledger    Ledger
	Transfers Transfers
	OTP       OTP
}

// Load will load and initialize config
func Load() config.ServiceConfig {
	cfg, err := configBuilder.LoadConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadAppConfig will load and initialize app config structure
func LoadAppConfig() *AppConfig {
	cfg := Load()

	appCfg := AppConfig{
		Log: Log{
			Level: cfg.StringParam(LogLevel),
			Mode:  cfg.StringParam(LogMode),
		},
		Server: Server{
			Port: cfg.IntParam(ServerPort),
		},
		Storage: Storage{
			Driver: cfg.StringParam(StorageDriver),
			DSN:    cfg.StringParam(StorageDSN),
		},
		Ledger: Ledger{
			LockWait: cfg.DurationParam(LedgerLockWait),
			Checking: SeedAccount{
				ID:      cfg.StringParam(SeedCheckingID),
				Number:  cfg.StringParam(SeedCheckingNumber),
				Balance: cfg.StringParam(SeedCheckingBalance),
			},
			Savings: SeedAccount{
				ID:      cfg.StringParam(SeedSavingsID),
				Number:  cfg.StringParam(SeedSavingsNumber),
				Balance: cfg.StringParam(SeedSavingsBalance),
			},
		},
		Transfers: Transfers{
			DefaultFee: cfg.StringParam(TransfersDefaultFee),
		},
		OTP: OTP{
			MaxAttempts:  cfg.IntParam(OTPMaxAttempts),
			TTL:          cfg.DurationParam(OTPTTL),
			FixedCode:    cfg.StringParam(OTPFixedCode),
			HashCost:     cfg.IntParam(OTPHashCost),
			Deliverer:    cfg.StringParam(OTPDeliverer),
			GatewayURL:   cfg.StringParam(OTPGatewayURL),
			GatewayToken: cfg.StringParam(OTPGatewayToken),
		},
	}

	return &appCfg
}
