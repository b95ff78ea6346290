package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/TxnLab/gemfarm/internal/lib/misc"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
	"github.com/TxnLab/gemfarm/internal/lib/store"
)

func (l *Ledger) InitializeFarmer(ctx context.Context, farmID staking.FarmID, owner types.Address) (_ *staking.Farmer, err error) {
	defer func() { recordOp("init_farmer", err) }()
	defer l.lockFarmer(farmID, owner)()

	if _, err = l.loadFarm(farmID); err != nil {
		return nil, err
	}
	existing, err := l.store.Farmer(farmID, owner)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	farmer := staking.NewFarmer(farmID, owner, l.clock.Now())
	if err = l.store.NewBatch().PutFarmer(farmer).Write(); err != nil {
		return nil, err
	}
	misc.Infof(l.log, "farm %d: initialized farmer %s", farmID, owner)
	return farmer, nil
}

type StakeRequest struct {
	Farm   staking.FarmID
	Owner  types.Address
	Asset  staking.AssetID
	Lock   staking.LockID
	Amount uint64
}

// Stake moves the asset into the farm vault and starts a receipt earning
// proof rate × amount, boosted by the lock bonus. Rewards for the full lock
// duration are reserved from the pool up front.
func (l *Ledger) Stake(ctx context.Context, req StakeRequest) (_ *staking.StakeReceipt, err error) {
	defer func() { recordOp("stake", err) }()
	if req.Amount == 0 {
		return nil, errors.New("stake amount must be greater than 0")
	}
	defer l.lockFarmAndFarmer(req.Farm, req.Owner)()

	farm, err := l.loadFarm(req.Farm)
	if err != nil {
		return nil, err
	}
	farmer, err := l.loadFarmer(req.Farm, req.Owner)
	if err != nil {
		return nil, err
	}
	lock, err := l.loadLock(req.Farm, req.Lock)
	if err != nil {
		return nil, err
	}

	prior, err := l.store.Receipt(req.Farm, req.Owner, req.Asset)
	switch {
	case err == nil:
		if prior.IsRunning() || !prior.Released {
			return nil, staking.ErrGemStillStaked
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	creator, err := l.metadata.CreatorOf(ctx, req.Asset)
	if err != nil {
		return nil, fmt.Errorf("looking up creator of asset %d: %w", req.Asset, err)
	}
	proof, err := l.lookupStakeProof(req.Farm, req.Asset, creator)
	if err != nil {
		return nil, err
	}
	if err = proof.AuthorizeStake(req.Farm, req.Asset, creator); err != nil {
		return nil, err
	}

	rate, err := lock.StakeRate(proof.RewardRate, req.Amount)
	if err != nil {
		return nil, err
	}
	reservation, err := lock.Reservation(rate)
	if err != nil {
		return nil, err
	}
	if err = farm.Reward.Reserve(reservation); err != nil {
		return nil, err
	}

	receipt := &staking.StakeReceipt{
		Farm:       req.Farm,
		Owner:      req.Owner,
		Mint:       req.Asset,
		Lock:       req.Lock,
		Amount:     req.Amount,
		RewardRate: rate,
	}
	if err = staking.Begin(farmer, receipt, l.clock.Now()); err != nil {
		return nil, err
	}

	moves := []staking.Transfer{{
		Asset: req.Asset, From: req.Owner, To: farm.Vault, Authority: req.Owner, Amount: req.Amount,
	}}
	batch := l.store.NewBatch().PutFarm(farm).PutFarmer(farmer).PutReceipt(receipt)
	if err = l.commit(ctx, moves, batch); err != nil {
		return nil, err
	}
	l.log.Info("staked", "farm", req.Farm, "owner", req.Owner.String(), "asset", req.Asset,
		"amount", req.Amount, "rate", rate, "reserved", reservation)
	return receipt, nil
}

// Unstake ends a running receipt once its lock duration has passed and all
// objects are detached. The receipt's reservation goes back to Available,
// bounded by what is still reserved. With no cooldown the asset is returned immediately, otherwise
// Withdraw returns it after the cooldown.
func (l *Ledger) Unstake(ctx context.Context, farmID staking.FarmID, owner types.Address, mint staking.AssetID) (_ *staking.StakeReceipt, err error) {
	defer func() { recordOp("unstake", err) }()
	defer l.lockFarmAndFarmer(farmID, owner)()

	farm, err := l.loadFarm(farmID)
	if err != nil {
		return nil, err
	}
	farmer, err := l.loadFarmer(farmID, owner)
	if err != nil {
		return nil, err
	}
	receipt, err := l.loadReceipt(farmID, owner, mint)
	if err != nil {
		return nil, err
	}
	if !receipt.IsRunning() {
		return nil, staking.ErrGemNotStaked
	}
	if receipt.Objects.Len() > 0 {
		return nil, staking.ErrGemStillHasObjects
	}
	lock, err := l.loadLock(farmID, receipt.Lock)
	if err != nil {
		return nil, err
	}
	now := l.clock.Now()
	if err = lock.CheckUnlocked(receipt.StartTs, now); err != nil {
		return nil, err
	}

	reservation, err := lock.Reservation(receipt.RewardRate)
	if err != nil {
		return nil, err
	}
	if err = farm.Reward.Release(reservation); err != nil {
		return nil, err
	}
	if err = receipt.End(farmer, now); err != nil {
		return nil, err
	}

	var moves []staking.Transfer
	if lock.Cooldown == 0 {
		receipt.Released = true
		moves = append(moves, releaseTransfer(farm, receipt))
	}
	batch := l.store.NewBatch().PutFarm(farm).PutFarmer(farmer).PutReceipt(receipt)
	if err = l.commit(ctx, moves, batch); err != nil {
		return nil, err
	}
	l.log.Info("unstaked", "farm", farmID, "owner", owner.String(), "asset", mint, "released", receipt.Released)
	return receipt, nil
}

// Withdraw returns the asset of an ended receipt once the lock cooldown has
// passed.
func (l *Ledger) Withdraw(ctx context.Context, farmID staking.FarmID, owner types.Address, mint staking.AssetID) (_ *staking.StakeReceipt, err error) {
	defer func() { recordOp("withdraw", err) }()
	defer l.lockFarmAndFarmer(farmID, owner)()

	farm, err := l.loadFarm(farmID)
	if err != nil {
		return nil, err
	}
	receipt, err := l.loadReceipt(farmID, owner, mint)
	if err != nil {
		return nil, err
	}
	if receipt.IsRunning() {
		return nil, staking.ErrGemStillStaked
	}
	if receipt.Released {
		return nil, fmt.Errorf("asset %d already withdrawn: %w", mint, staking.ErrGemNotStaked)
	}
	lock, err := l.loadLock(farmID, receipt.Lock)
	if err != nil {
		return nil, err
	}
	if err = lock.CheckCooldown(*receipt.EndTs, l.clock.Now()); err != nil {
		return nil, err
	}

	receipt.Released = true
	moves := []staking.Transfer{releaseTransfer(farm, receipt)}
	if err = l.commit(ctx, moves, l.store.NewBatch().PutReceipt(receipt)); err != nil {
		return nil, err
	}
	l.log.Info("withdrew", "farm", farmID, "owner", owner.String(), "asset", mint)
	return receipt, nil
}

// ClaimRewards pays out everything the farmer has accrued up to now.
func (l *Ledger) ClaimRewards(ctx context.Context, farmID staking.FarmID, owner types.Address) (_ uint64, err error) {
	defer func() { recordOp("claim", err) }()
	defer l.lockFarmAndFarmer(farmID, owner)()

	farm, err := l.loadFarm(farmID)
	if err != nil {
		return 0, err
	}
	farmer, err := l.loadFarmer(farmID, owner)
	if err != nil {
		return 0, err
	}
	amount, err := farmer.ClaimRewards(l.clock.Now())
	if err != nil {
		return 0, err
	}
	if err = farm.Reward.Pay(amount); err != nil {
		return 0, err
	}

	var moves []staking.Transfer
	if amount > 0 {
		moves = append(moves, staking.Transfer{
			Asset: farm.Reward.Asset, From: farm.Vault, To: owner, Authority: farm.Vault, Amount: amount,
		})
	}
	if err = l.commit(ctx, moves, l.store.NewBatch().PutFarm(farm).PutFarmer(farmer)); err != nil {
		return 0, err
	}
	l.log.Info("claimed rewards", "farm", farmID, "owner", owner.String(), "amount", amount)
	return amount, nil
}

func releaseTransfer(farm *staking.Farm, receipt *staking.StakeReceipt) staking.Transfer {
	return staking.Transfer{
		Asset:     receipt.Mint,
		From:      farm.Vault,
		To:        receipt.Owner,
		Authority: farm.Vault,
		Amount:    receipt.Amount,
	}
}
