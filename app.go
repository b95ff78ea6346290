package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/TxnLab/gemfarm/internal/lib/algo"
	"github.com/TxnLab/gemfarm/internal/lib/ledger"
	"github.com/TxnLab/gemfarm/internal/lib/misc"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
	"github.com/TxnLab/gemfarm/internal/lib/store"
)

var logLevel = new(slog.LevelVar) // Info by default

func initApp() *GemFarmApp {
	log.SetFlags(0)
	// a tty means we're being run as a CLI rather than as a daemon
	logger := misc.NewLogger(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), logLevel)
	slog.SetDefault(logger)
	if os.Getenv("DEBUG") == "1" {
		logLevel.Set(slog.LevelDebug)
	}

	misc.LoadEnvSettings(logger)

	// We initialize our wrapper instance first, so we can call its methods in the 'Before' lambda func
	// in initialization of cli App instance.
	appConfig := &GemFarmApp{logger: logger}

	appConfig.cliCmd = &cli.Command{
		Name:    "gemfarm",
		Usage:   "Staking farm manager - stake assets, attach boosting objects and claim rewards",
		Version: misc.GetVersionInfo(),
		Before: func(ctx context.Context, cmd *cli.Command) error {
			return appConfig.initClients(ctx, cmd)
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			return appConfig.close()
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "envfile",
				Usage:   "env file to load",
				Sources: cli.EnvVars("GEMFARM_ENVFILE"),
				Aliases: []string{"e"},
			},
			&cli.StringFlag{
				Name:    "network",
				Usage:   "Algorand network to use",
				Value:   "mainnet",
				Aliases: []string{"n"},
				Sources: cli.EnvVars("ALGO_NETWORK"),
			},
			&cli.StringFlag{
				Name:    "datadir",
				Usage:   "Directory holding the farm ledger database",
				Sources: cli.EnvVars("GEMFARM_DATADIR"),
			},
			&cli.UintFlag{
				Name:        "farm",
				Usage:       "The farm id to operate on.  Defaults to the farm selected with 'farm use'",
				Sources:     cli.EnvVars("GEMFARM_FARMID"),
				Destination: &appConfig.farmID,
				OnlyOnce:    true,
			},
		},
		Commands: []*cli.Command{
			GetDaemonCmdOpts(),
			GetFarmCmdOpts(),
			GetWhitelistCmdOpts(),
			GetFarmerCmdOpts(),
			GetStakeCmdOpts(),
			GetObjectCmdOpts(),
		},
	}
	return appConfig
}

type GemFarmApp struct {
	cliCmd     *cli.Command
	logger     *slog.Logger
	signer     *algo.LocalKeyStore
	algoClient *algod.Client
	store      *store.Store
	ledger     *ledger.Ledger
	settings   *LocalSettings

	// just here for flag bootstrapping destination
	farmID uint64
}

// initClients connects to algod for the chosen network, loads signing keys and opens the ledger database.
func (ac *GemFarmApp) initClients(ctx context.Context, cmd *cli.Command) error {
	network := cmd.String("network")

	if envfile := cmd.String("envfile"); envfile != "" {
		misc.Infof(ac.logger, "loading env file:%s", envfile)
		if err := godotenv.Load(envfile); err != nil {
			return err
		}
	}
	if err := algo.ValidateNetwork(network); err != nil {
		return err
	}
	// Now load .env.{network} overrides -ie: .env.sandbox containing generated mnemonics
	misc.LoadEnvForNetwork(ac.logger, network)

	settings, err := LoadSettings()
	if err != nil {
		return err
	}
	ac.settings = settings
	if ac.farmID == 0 {
		ac.farmID = settings.FarmID
	}

	cfg := algo.GetNetworkConfig(network)
	ac.algoClient, err = algo.GetAlgoClient(ac.logger, cfg)
	if err != nil {
		return err
	}
	ac.signer, err = algo.NewLocalKeyStore(ac.logger)
	if err != nil {
		return err
	}
	creators, err := algo.NewCreatorLookup(ac.logger, ac.algoClient, algo.DefaultCreatorCacheSize)
	if err != nil {
		return err
	}

	dataDir := cmd.String("datadir")
	if dataDir == "" {
		dataDir = settings.DataDir
	}
	if dataDir == "" {
		if dataDir, err = defaultDataDir(network); err != nil {
			return err
		}
	}
	ac.store, err = store.Open(dataDir, store.Options{})
	if err != nil {
		return err
	}
	misc.Debugf(ac.logger, "opened ledger at:%s", dataDir)

	custodian := algo.NewAssetCustodian(ac.logger, ac.algoClient, ac.signer)
	ac.ledger = ledger.New(ac.logger, ac.store, custodian, creators, staking.SystemClock{})
	return nil
}

func (ac *GemFarmApp) close() error {
	if ac.store == nil {
		return nil
	}
	return ac.store.Close()
}

func (ac *GemFarmApp) farm() staking.FarmID {
	return staking.FarmID(ac.farmID)
}

func checkConfigured(ctx context.Context, command *cli.Command) error {
	if App.farmID == 0 {
		return errors.New("no farm selected - pass --farm or run 'farm use'")
	}
	return nil
}

func defaultDataDir(network string) (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "gemfarm", network, "ledger"), nil
}
