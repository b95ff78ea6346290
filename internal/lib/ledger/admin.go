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

// CreateFarm registers a farm paying rewards in rewardAsset out of vault.
// The authority is also recorded as the first manager.
func (l *Ledger) CreateFarm(ctx context.Context, authority, vault types.Address, rewardAsset staking.AssetID) (_ *staking.Farm, err error) {
	defer func() { recordOp("create_farm", err) }()
	if authority.IsZero() || vault.IsZero() {
		return nil, errors.New("farm authority and vault must be set")
	}
	l.createMu.Lock()
	defer l.createMu.Unlock()

	id, err := l.store.NextFarmID()
	if err != nil {
		return nil, err
	}
	farm := &staking.Farm{ID: id, Authority: authority, Vault: vault, Reward: staking.Reward{Asset: rewardAsset}}
	err = l.store.NewBatch().PutFarm(farm).PutFarmSeq(id).PutManager(id, authority).Write()
	if err != nil {
		return nil, err
	}
	misc.Infof(l.log, "created farm %d, authority:%s vault:%s reward asset:%d", id, authority, vault, rewardAsset)
	return farm, nil
}

func (l *Ledger) AddManager(ctx context.Context, farmID staking.FarmID, caller, manager types.Address) (err error) {
	defer func() { recordOp("add_manager", err) }()
	defer l.lockFarm(farmID)()

	farm, err := l.loadFarm(farmID)
	if err != nil {
		return err
	}
	if caller != farm.Authority {
		return staking.ErrUnauthorized
	}
	if err = l.store.NewBatch().PutManager(farmID, manager).Write(); err != nil {
		return err
	}
	misc.Infof(l.log, "farm %d: added manager %s", farmID, manager)
	return nil
}

// CreateLock adds a lock option to the farm. bonusFactor is a percentage
// added to the base reward rate of stakes using the lock.
func (l *Ledger) CreateLock(ctx context.Context, farmID staking.FarmID, caller types.Address, duration uint64, bonusFactor uint8, cooldown uint64) (_ *staking.Lock, err error) {
	defer func() { recordOp("create_lock", err) }()
	defer l.lockFarm(farmID)()

	farm, err := l.loadFarm(farmID)
	if err != nil {
		return nil, err
	}
	if err = l.requireManager(farm, caller); err != nil {
		return nil, err
	}
	id, err := l.store.NextLockID(farmID)
	if err != nil {
		return nil, err
	}
	lock := &staking.Lock{Farm: farmID, ID: id, Duration: duration, BonusFactor: bonusFactor, Cooldown: cooldown}
	if err = l.store.NewBatch().PutLock(lock).Write(); err != nil {
		return nil, err
	}
	misc.Infof(l.log, "farm %d: created lock %d, duration:%ds bonus:%d%% cooldown:%ds", farmID, id, duration, bonusFactor, cooldown)
	return lock, nil
}

// FundReward moves amount of the reward asset from caller into the vault and
// makes it available for reservation.
func (l *Ledger) FundReward(ctx context.Context, farmID staking.FarmID, caller types.Address, amount uint64) (err error) {
	defer func() { recordOp("fund_reward", err) }()
	defer l.lockFarm(farmID)()

	farm, err := l.loadFarm(farmID)
	if err != nil {
		return err
	}
	if err = l.requireManager(farm, caller); err != nil {
		return err
	}
	if err = farm.Reward.Fund(amount); err != nil {
		return err
	}
	moves := []staking.Transfer{{
		Asset: farm.Reward.Asset, From: caller, To: farm.Vault, Authority: caller, Amount: amount,
	}}
	if err = l.commit(ctx, moves, l.store.NewBatch().PutFarm(farm)); err != nil {
		return err
	}
	misc.Infof(l.log, "farm %d: funded %d reward units, available:%d", farmID, amount, farm.Reward.Available)
	return nil
}

// AddToWhitelist stores proof, replacing any proof for the same target. Rate
// changes do not touch running stakes.
func (l *Ledger) AddToWhitelist(ctx context.Context, caller types.Address, proof staking.WhitelistProof) (err error) {
	defer func() { recordOp("add_whitelist", err) }()
	defer l.lockFarm(proof.Farm)()

	farm, err := l.loadFarm(proof.Farm)
	if err != nil {
		return err
	}
	if err = l.requireManager(farm, caller); err != nil {
		return err
	}
	if err = proof.Validate(); err != nil {
		return err
	}
	if err = l.store.NewBatch().PutWhitelist(&proof).Write(); err != nil {
		return err
	}
	misc.Infof(l.log, "farm %d: whitelisted %s %s asset:%d rate:%d", proof.Farm, proof.Type, proof.Address, proof.Asset, proof.RewardRate)
	return nil
}

// RemoveFromWhitelist deletes the proof for address, or for asset when asset
// is non-zero.
func (l *Ledger) RemoveFromWhitelist(ctx context.Context, farmID staking.FarmID, caller, address types.Address, asset staking.AssetID) (err error) {
	defer func() { recordOp("remove_whitelist", err) }()
	defer l.lockFarm(farmID)()

	farm, err := l.loadFarm(farmID)
	if err != nil {
		return err
	}
	if err = l.requireManager(farm, caller); err != nil {
		return err
	}
	var proof *staking.WhitelistProof
	if asset != 0 {
		proof, err = l.store.WhitelistByAsset(farmID, asset)
	} else {
		proof, err = l.store.WhitelistByAddress(farmID, address)
	}
	if errors.Is(err, store.ErrNotFound) {
		return staking.ErrAddressNotWhitelisted
	}
	if err != nil {
		return err
	}
	if err = l.store.NewBatch().DeleteWhitelist(proof).Write(); err != nil {
		return err
	}
	misc.Infof(l.log, "farm %d: removed %s whitelist %s asset:%d", farmID, proof.Type, proof.Address, proof.Asset)
	return nil
}

// lookupStakeProof finds the proof allowing asset to be staked: a mint proof
// for the asset itself, else an address proof for its creator.
func (l *Ledger) lookupStakeProof(farm staking.FarmID, asset staking.AssetID, creator types.Address) (*staking.WhitelistProof, error) {
	proof, err := l.store.WhitelistByAsset(farm, asset)
	if err == nil {
		return proof, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	proof, err = l.store.WhitelistByAddress(farm, creator)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("asset %d by %s: %w", asset, creator, staking.ErrAddressNotWhitelisted)
	}
	return proof, err
}
