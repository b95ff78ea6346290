package staking

import (
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Farmer aggregates reward accounting for one staker within a farm.
// RewardRate is the sum of the rates of the staker's running receipts, and
// AccruedRewards is exact up to LastUpdateTs.
type Farmer struct {
	Farm           FarmID
	Owner          types.Address
	RewardRate     uint64
	AccruedRewards uint64
	LastUpdateTs   uint64
}

func NewFarmer(farm FarmID, owner types.Address, now uint64) *Farmer {
	return &Farmer{Farm: farm, Owner: owner, LastUpdateTs: now}
}

// UpdateAccruedRewards flushes rewards earned at the current rate since the
// last update. It must run before every change to RewardRate. The farmer is
// left untouched on error.
func (f *Farmer) UpdateAccruedRewards(now uint64) error {
	accrued, err := f.PendingRewards(now)
	if err != nil {
		return err
	}
	f.AccruedRewards = accrued
	f.LastUpdateTs = now
	return nil
}

// PendingRewards returns what AccruedRewards would be after a flush at now.
func (f *Farmer) PendingRewards(now uint64) (uint64, error) {
	if now < f.LastUpdateTs {
		return 0, fmt.Errorf("clock moved backwards from %d to %d: %w", f.LastUpdateTs, now, ErrArithmetic)
	}
	earned, err := checkedMul(now-f.LastUpdateTs, f.RewardRate)
	if err != nil {
		return 0, err
	}
	return checkedAdd(f.AccruedRewards, earned)
}

func (f *Farmer) IncreaseRewardRate(delta uint64) error {
	rate, err := checkedAdd(f.RewardRate, delta)
	if err != nil {
		return err
	}
	f.RewardRate = rate
	return nil
}

// DecreaseRewardRate fails when delta exceeds the current rate.
func (f *Farmer) DecreaseRewardRate(delta uint64) error {
	rate, err := checkedSub(f.RewardRate, delta)
	if err != nil {
		return err
	}
	f.RewardRate = rate
	return nil
}

// ClaimRewards flushes and zeroes the accrued balance, returning the amount
// claimed.
func (f *Farmer) ClaimRewards(now uint64) (uint64, error) {
	next := *f
	if err := next.UpdateAccruedRewards(now); err != nil {
		return 0, err
	}
	amount := next.AccruedRewards
	next.AccruedRewards = 0
	*f = next
	return amount, nil
}
