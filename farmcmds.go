package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/urfave/cli/v3"

	"github.com/TxnLab/gemfarm/internal/lib/algo"
	"github.com/TxnLab/gemfarm/internal/lib/misc"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

func GetFarmCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "farm",
		Aliases: []string{"f"},
		Usage:   "Create and administer farms",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a new farm, either from a yaml definition file or interactively",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Farm definition (yaml) to create the farm from",
					},
				},
				Action: CreateFarm,
			},
			{
				Name:  "use",
				Usage: "Select the farm later commands operate on",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Usage: "Farm id", Required: true},
				},
				Action: UseFarm,
			},
			{
				Name:   "list",
				Usage:  "List all farms in the ledger",
				Action: ListFarms,
			},
			{
				Name:   "info",
				Usage:  "Display the farm configuration and reward pool",
				Before: checkConfigured,
				Action: FarmInfo,
			},
			{
				Name:   "fund",
				Usage:  "Move reward tokens from a manager account into the farm vault",
				Before: checkConfigured,
				Flags: []cli.Flag{
					signerFlag("account", "Manager account funding the rewards"),
					&cli.UintFlag{Name: "amount", Usage: "Amount in base units of the reward asset", Required: true},
				},
				Action: FundFarm,
			},
			{
				Name:   "manager",
				Usage:  "Add a manager to the farm (authority only)",
				Before: checkConfigured,
				Flags: []cli.Flag{
					signerFlag("account", "Farm authority account"),
					&cli.StringFlag{Name: "manager", Usage: "Account to add as manager", Required: true},
				},
				Action: AddManager,
			},
			{
				Name:   "lock",
				Usage:  "Manage lock options",
				Before: checkConfigured,
				Commands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Add a lock option",
						Flags: []cli.Flag{
							signerFlag("account", "Manager account"),
							&cli.UintFlag{Name: "duration", Usage: "Seconds a stake must run before it can be unstaked"},
							&cli.UintFlag{Name: "bonus", Usage: "Percentage bonus added to the stake reward rate"},
							&cli.UintFlag{Name: "cooldown", Usage: "Seconds between unstaking and withdrawal"},
						},
						Action: AddLock,
					},
					{
						Name:   "list",
						Usage:  "List lock options",
						Action: ListLocks,
					},
				},
			},
		},
	}
}

func signerFlag(name, usage string) cli.Flag {
	return &cli.StringFlag{
		Name:     name,
		Usage:    usage + " - mnemonics for it must be available",
		Required: true,
	}
}

// signerAddress parses an address flag and makes sure we can sign for it.
func signerAddress(command *cli.Command, name string) (types.Address, error) {
	addr, err := types.DecodeAddress(command.Value(name).(string))
	if err != nil {
		return types.Address{}, fmt.Errorf("invalid %s address: %w", name, err)
	}
	if !App.signer.HasAccount(addr.String()) {
		return types.Address{}, fmt.Errorf("the mnemonics aren't available for account %s", addr)
	}
	return addr, nil
}

func CreateFarm(ctx context.Context, command *cli.Command) error {
	var (
		def *FarmDefinition
		err error
	)
	if file := command.Value("file").(string); file != "" {
		def, err = LoadFarmDefinition(file)
	} else {
		def, err = promptFarmDefinition()
	}
	if err != nil {
		return cli.Exit(err, 1)
	}
	if !App.signer.HasAccount(def.Authority) {
		return fmt.Errorf("the mnemonics aren't available for authority %s", def.Authority)
	}
	if !App.signer.HasAccount(def.Vault) {
		misc.Warnf(App.logger, "vault %s has no local key - assets can't be released from this node", def.Vault)
	}
	farm, err := def.Apply(ctx, App.ledger)
	if farm != nil {
		misc.Infof(App.logger, "farm id:%d", farm.ID)
		App.settings.FarmID = uint64(farm.ID)
		if saveErr := SaveSettings(App.settings); saveErr != nil {
			misc.Warnf(App.logger, "couldn't save farm selection: %v", saveErr)
		}
	}
	return err
}

func promptFarmDefinition() (*FarmDefinition, error) {
	authority, err := getAlgoAccount("Enter account address for the farm authority", "")
	if err != nil {
		return nil, err
	}
	vault, err := getAlgoAccount("Enter account address for the vault holding staked assets and rewards", "")
	if err != nil {
		return nil, err
	}
	rewardAsset, err := getUint("Enter the reward asset id (0 for ALGO)", 0, 0, 1<<63)
	if err != nil {
		return nil, err
	}
	duration, err := getUint("Enter the lock duration in seconds", 0, 0, 10*365*86400)
	if err != nil {
		return nil, err
	}
	bonus, err := getUint("Enter the lock bonus percentage", 0, 0, 255)
	if err != nil {
		return nil, err
	}
	cooldown, err := getUint("Enter the cooldown in seconds", 0, 0, 365*86400)
	if err != nil {
		return nil, err
	}
	def := &FarmDefinition{
		Authority:   authority.String(),
		Vault:       vault.String(),
		RewardAsset: rewardAsset,
		Locks:       []LockDefinition{{Duration: duration, BonusFactor: uint8(bonus), Cooldown: cooldown}},
	}
	if err = farmValidator.Struct(def); err != nil {
		return nil, err
	}
	fmt.Printf("Authority:%s\nVault:%s\nReward asset:%d\nLock: %ds, %d%% bonus, %ds cooldown\n",
		def.Authority, def.Vault, def.RewardAsset, duration, bonus, cooldown)
	// promptui returns an error when the confirmation is declined
	if _, err = yesNo("Create this farm"); err != nil {
		return nil, errors.New("farm creation cancelled")
	}
	return def, nil
}

func UseFarm(ctx context.Context, command *cli.Command) error {
	id := staking.FarmID(command.Value("id").(uint64))
	if _, err := App.ledger.Farm(id); err != nil {
		return cli.Exit(err, 1)
	}
	App.settings.FarmID = uint64(id)
	return SaveSettings(App.settings)
}

func ListFarms(ctx context.Context, command *cli.Command) error {
	farms, err := App.ledger.Farms()
	if err != nil {
		return err
	}
	for _, farm := range farms {
		fmt.Printf("%d: authority:%s vault:%s reward asset:%d\n", farm.ID, farm.Authority, farm.Vault, farm.Reward.Asset)
	}
	return nil
}

func FarmInfo(ctx context.Context, command *cli.Command) error {
	farm, err := App.ledger.Farm(App.farm())
	if err != nil {
		return cli.Exit(err, 1)
	}
	stats, err := App.ledger.Stats(farm.ID)
	if err != nil {
		return err
	}
	fmt.Println("Farm:", farm.ID)
	fmt.Println("Authority:", farm.Authority)
	fmt.Println("Vault:", farm.Vault)
	fmt.Println("Reward Asset:", farm.Reward.Asset)
	if farm.Reward.Asset == 0 {
		fmt.Println("Available:", algo.FormattedAlgoAmount(farm.Reward.Available))
		fmt.Println("Reserved:", algo.FormattedAlgoAmount(farm.Reward.Reserved))
	} else {
		fmt.Println("Available:", farm.Reward.Available)
		fmt.Println("Reserved:", farm.Reward.Reserved)
	}
	fmt.Println("Farmers:", stats.Farmers)
	fmt.Println("Running Stakes:", stats.RunningReceipts)
	fmt.Println("Attached Objects:", stats.Objects)
	fmt.Println("Total Reward Rate:", stats.TotalRate)
	fmt.Println("Pending Rewards:", stats.PendingRewards)
	return nil
}

func FundFarm(ctx context.Context, command *cli.Command) error {
	account, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	amount := command.Value("amount").(uint64)
	if err = App.ledger.FundReward(ctx, App.farm(), account, amount); err != nil {
		return cli.Exit(err, 1)
	}
	farm, err := App.ledger.Farm(App.farm())
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "funded farm %d, available:%d", farm.ID, farm.Reward.Available)
	return nil
}

func AddManager(ctx context.Context, command *cli.Command) error {
	account, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	manager, err := types.DecodeAddress(command.Value("manager").(string))
	if err != nil {
		return err
	}
	if err = App.ledger.AddManager(ctx, App.farm(), account, manager); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func AddLock(ctx context.Context, command *cli.Command) error {
	account, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	bonus := command.Value("bonus").(uint64)
	if bonus > 255 {
		return fmt.Errorf("bonus must be at most 255")
	}
	lock, err := App.ledger.CreateLock(ctx, App.farm(), account,
		command.Value("duration").(uint64), uint8(bonus), command.Value("cooldown").(uint64))
	if err != nil {
		return cli.Exit(err, 1)
	}
	misc.Infof(App.logger, "lock id:%d", lock.ID)
	return nil
}

func ListLocks(ctx context.Context, command *cli.Command) error {
	locks, err := App.ledger.Locks(App.farm())
	if err != nil {
		return err
	}
	for _, lock := range locks {
		fmt.Printf("%d: duration:%ds bonus:%d%% cooldown:%ds\n", lock.ID, lock.Duration, lock.BonusFactor, lock.Cooldown)
	}
	return nil
}

func GetWhitelistCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "whitelist",
		Aliases: []string{"w"},
		Usage:   "Manage which creators and assets can be staked or attached",
		Before:  checkConfigured,
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Whitelist a creator (creator), single asset (mint) or object creator (object)",
				Flags: []cli.Flag{
					signerFlag("account", "Manager account"),
					&cli.StringFlag{Name: "type", Usage: "creator, mint or object", Required: true},
					&cli.StringFlag{Name: "address", Usage: "Creator address for creator and object entries"},
					&cli.UintFlag{Name: "asset", Usage: "Asset id for mint entries"},
					&cli.UintFlag{Name: "rate", Usage: "Reward rate per second"},
					&cli.UintFlag{Name: "tokens", Usage: "Reward tokens per interval (alternative to rate)"},
					&cli.UintFlag{Name: "interval", Usage: "Interval in seconds for --tokens", Value: 86400},
				},
				Action: AddWhitelist,
			},
			{
				Name:  "remove",
				Usage: "Remove a whitelist entry",
				Flags: []cli.Flag{
					signerFlag("account", "Manager account"),
					&cli.StringFlag{Name: "address", Usage: "Creator address of the entry"},
					&cli.UintFlag{Name: "asset", Usage: "Asset id of a mint entry"},
				},
				Action: RemoveWhitelist,
			},
			{
				Name:   "list",
				Usage:  "List whitelist entries",
				Action: ListWhitelist,
			},
		},
	}
}

func AddWhitelist(ctx context.Context, command *cli.Command) error {
	account, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	entry := WhitelistEntry{
		Type:              command.Value("type").(string),
		Address:           command.Value("address").(string),
		Asset:             command.Value("asset").(uint64),
		RewardRate:        command.Value("rate").(uint64),
		TokensPerInterval: command.Value("tokens").(uint64),
		Interval:          command.Value("interval").(uint64),
	}
	proof, err := entry.proof(App.farm())
	if err != nil {
		return cli.Exit(err, 1)
	}
	if err = App.ledger.AddToWhitelist(ctx, account, proof); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func RemoveWhitelist(ctx context.Context, command *cli.Command) error {
	account, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	var address types.Address
	if s := command.Value("address").(string); s != "" {
		if address, err = types.DecodeAddress(s); err != nil {
			return err
		}
	}
	asset := staking.AssetID(command.Value("asset").(uint64))
	if address.IsZero() && asset == 0 {
		return fmt.Errorf("one of --address or --asset is required")
	}
	if err = App.ledger.RemoveFromWhitelist(ctx, App.farm(), account, address, asset); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func ListWhitelist(ctx context.Context, command *cli.Command) error {
	proofs, err := App.ledger.Whitelists(App.farm())
	if err != nil {
		return err
	}
	for _, p := range proofs {
		target := p.Address.String()
		if p.Type == staking.WhitelistMint {
			target = fmt.Sprintf("asset %d", p.Asset)
		}
		fmt.Printf("%-7s %s rate:%d/s (%s per day)\n", p.Type, target, p.RewardRate, algo.FormattedAmount(p.RewardRate*86400, 0))
	}
	return nil
}
