package main

import (
	"context"
	"fmt"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/urfave/cli/v3"

	"github.com/TxnLab/gemfarm/internal/lib/ledger"
	"github.com/TxnLab/gemfarm/internal/lib/misc"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

func GetFarmerCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "farmer",
		Usage:  "Register as a farmer and inspect accrued rewards",
		Before: checkConfigured,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Register an account as a farmer of the selected farm",
				Flags:  []cli.Flag{signerFlag("account", "Farmer account")},
				Action: InitFarmer,
			},
			{
				Name:  "info",
				Usage: "Display reward rate and pending rewards for a farmer",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "account", Usage: "Farmer account", Required: true},
				},
				Action: FarmerInfo,
			},
			{
				Name:   "list",
				Usage:  "List all farmers of the selected farm",
				Action: ListFarmers,
			},
		},
	}
}

func GetStakeCmdOpts() *cli.Command {
	mintFlags := []cli.Flag{
		signerFlag("account", "Farmer account"),
		&cli.UintFlag{Name: "mint", Usage: "Asset id of the stake", Required: true},
	}
	return &cli.Command{
		Name:    "stake",
		Aliases: []string{"s"},
		Usage:   "Stake, unstake and withdraw assets and claim rewards",
		Before:  checkConfigured,
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Stake a whitelisted asset under a lock option",
				Flags: []cli.Flag{
					signerFlag("account", "Farmer account"),
					&cli.UintFlag{Name: "mint", Usage: "Asset id to stake", Required: true},
					&cli.UintFlag{Name: "lock", Usage: "Lock option id", Required: true},
					&cli.UintFlag{Name: "amount", Usage: "Units of the asset to stake", Value: 1},
				},
				Action: StakeAsset,
			},
			{
				Name:   "unstake",
				Usage:  "End a stake once its lock has expired",
				Flags:  mintFlags,
				Action: UnstakeAsset,
			},
			{
				Name:   "withdraw",
				Usage:  "Return an unstaked asset once its cooldown is over",
				Flags:  mintFlags,
				Action: WithdrawAsset,
			},
			{
				Name:   "claim",
				Usage:  "Pay out all accrued rewards",
				Flags:  []cli.Flag{signerFlag("account", "Farmer account")},
				Action: ClaimRewards,
			},
			{
				Name:  "list",
				Usage: "List the stakes of a farmer",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "account", Usage: "Farmer account", Required: true},
				},
				Action: ListReceipts,
			},
		},
	}
}

func GetObjectCmdOpts() *cli.Command {
	objectFlags := []cli.Flag{
		signerFlag("account", "Farmer account"),
		&cli.UintFlag{Name: "mint", Usage: "Asset id of the running stake", Required: true},
		&cli.UintFlag{Name: "object", Usage: "Asset id of the object", Required: true},
	}
	return &cli.Command{
		Name:    "object",
		Aliases: []string{"o"},
		Usage:   "Attach objects to running stakes to boost their reward rate",
		Before:  checkConfigured,
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Attach an object to a running stake",
				Flags: append(objectFlags, &cli.StringFlag{
					Name:  "whitelist",
					Usage: "Address of the whitelist entry authorizing the object (defaults to the object's creator)",
				}),
				Action: AddObject,
			},
			{
				Name:   "remove",
				Usage:  "Detach an object from a running stake and return it",
				Flags:  objectFlags,
				Action: RemoveObject,
			},
		},
	}
}

func InitFarmer(ctx context.Context, command *cli.Command) error {
	owner, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	if _, err = App.ledger.InitializeFarmer(ctx, App.farm(), owner); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func FarmerInfo(ctx context.Context, command *cli.Command) error {
	owner, err := types.DecodeAddress(command.Value("account").(string))
	if err != nil {
		return err
	}
	farmer, err := App.ledger.Farmer(App.farm(), owner)
	if err != nil {
		return cli.Exit(err, 1)
	}
	pending, err := App.ledger.PendingRewards(App.farm(), owner)
	if err != nil {
		return err
	}
	fmt.Println("Farmer:", farmer.Owner)
	fmt.Println("Reward Rate:", farmer.RewardRate, "per second")
	fmt.Println("Pending Rewards:", pending)
	fmt.Println("Last Update:", time.Unix(int64(farmer.LastUpdateTs), 0).UTC().Format(time.RFC3339))
	return nil
}

func ListFarmers(ctx context.Context, command *cli.Command) error {
	farmers, err := App.ledger.Farmers(App.farm())
	if err != nil {
		return err
	}
	for _, farmer := range farmers {
		pending, err := App.ledger.PendingRewards(farmer.Farm, farmer.Owner)
		if err != nil {
			return err
		}
		fmt.Printf("%s rate:%d pending:%d\n", farmer.Owner, farmer.RewardRate, pending)
	}
	return nil
}

func StakeAsset(ctx context.Context, command *cli.Command) error {
	owner, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	receipt, err := App.ledger.Stake(ctx, ledger.StakeRequest{
		Farm:   App.farm(),
		Owner:  owner,
		Asset:  staking.AssetID(command.Value("mint").(uint64)),
		Lock:   staking.LockID(command.Value("lock").(uint64)),
		Amount: command.Value("amount").(uint64),
	})
	if err != nil {
		return cli.Exit(err, 1)
	}
	misc.Infof(App.logger, "staked asset:%d rate:%d", receipt.Mint, receipt.RewardRate)
	return nil
}

func UnstakeAsset(ctx context.Context, command *cli.Command) error {
	owner, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	receipt, err := App.ledger.Unstake(ctx, App.farm(), owner, staking.AssetID(command.Value("mint").(uint64)))
	if err != nil {
		return cli.Exit(err, 1)
	}
	if !receipt.Released {
		misc.Infof(App.logger, "unstaked asset:%d - withdraw once the cooldown is over", receipt.Mint)
	}
	return nil
}

func WithdrawAsset(ctx context.Context, command *cli.Command) error {
	owner, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	if _, err = App.ledger.Withdraw(ctx, App.farm(), owner, staking.AssetID(command.Value("mint").(uint64))); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func ClaimRewards(ctx context.Context, command *cli.Command) error {
	owner, err := signerAddress(command, "account")
	if err != nil {
		return err
	}
	paid, err := App.ledger.ClaimRewards(ctx, App.farm(), owner)
	if err != nil {
		return cli.Exit(err, 1)
	}
	misc.Infof(App.logger, "claimed %d reward tokens", paid)
	return nil
}

func ListReceipts(ctx context.Context, command *cli.Command) error {
	owner, err := types.DecodeAddress(command.Value("account").(string))
	if err != nil {
		return err
	}
	receipts, err := App.ledger.Receipts(App.farm(), owner)
	if err != nil {
		return err
	}
	for _, r := range receipts {
		state := "running"
		switch {
		case r.Released:
			state = "withdrawn"
		case !r.IsRunning():
			state = "cooling down"
		}
		fmt.Printf("asset:%d amount:%d lock:%d rate:%d objects:%d [%s]\n", r.Mint, r.Amount, r.Lock, r.RewardRate, r.Objects.Len(), state)
		for obj := range r.Objects.All() {
			fmt.Printf("  object:%d rate:%d\n", obj.Asset, obj.Rate)
		}
	}
	return nil
}

func objectRequest(command *cli.Command) (ledger.ObjectRequest, error) {
	owner, err := signerAddress(command, "account")
	if err != nil {
		return ledger.ObjectRequest{}, err
	}
	return ledger.ObjectRequest{
		Farm:   App.farm(),
		Owner:  owner,
		Mint:   staking.AssetID(command.Value("mint").(uint64)),
		Object: staking.AssetID(command.Value("object").(uint64)),
	}, nil
}

func AddObject(ctx context.Context, command *cli.Command) error {
	req, err := objectRequest(command)
	if err != nil {
		return err
	}
	if wl := command.Value("whitelist").(string); wl != "" {
		if req.Whitelist, err = types.DecodeAddress(wl); err != nil {
			return err
		}
	}
	receipt, err := App.ledger.AddObject(ctx, req)
	if err != nil {
		return cli.Exit(err, 1)
	}
	misc.Infof(App.logger, "attached object:%d, stake rate now %d", req.Object, receipt.RewardRate)
	return nil
}

func RemoveObject(ctx context.Context, command *cli.Command) error {
	req, err := objectRequest(command)
	if err != nil {
		return err
	}
	receipt, err := App.ledger.RemoveObject(ctx, req)
	if err != nil {
		return cli.Exit(err, 1)
	}
	misc.Infof(App.logger, "removed object:%d, stake rate now %d", req.Object, receipt.RewardRate)
	return nil
}
