package staking

import (
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Farm is the pool-wide configuration. Staked assets, attached objects and
// reward tokens are held by Vault.
type Farm struct {
	ID        FarmID
	Authority types.Address
	Vault     types.Address
	Reward    Reward
}

// Reward tracks the farm's reward pool. Reserved is promised to running stakes
// for their lock duration; Available is unallocated.
type Reward struct {
	Asset     AssetID
	Available uint64
	Reserved  uint64
}

func (r *Reward) Fund(amount uint64) error {
	v, err := checkedAdd(r.Available, amount)
	if err != nil {
		return err
	}
	r.Available = v
	return nil
}

func (r *Reward) Reserve(amount uint64) error {
	if amount > r.Available {
		return ErrReserveRewardFailed
	}
	reserved, err := checkedAdd(r.Reserved, amount)
	if err != nil {
		return ErrReserveRewardFailed
	}
	r.Available -= amount
	r.Reserved = reserved
	return nil
}

// Release returns up to amount of reserved reward to the available pool.
func (r *Reward) Release(amount uint64) error {
	amount = min(amount, r.Reserved)
	available, err := checkedAdd(r.Available, amount)
	if err != nil {
		return ErrReleaseRewardFailed
	}
	r.Reserved -= amount
	r.Available = available
	return nil
}

// Pay withdraws amount from the pool, reserved funds first.
func (r *Reward) Pay(amount uint64) error {
	fromReserved := min(amount, r.Reserved)
	rest := amount - fromReserved
	if rest > r.Available {
		return ErrReleaseRewardFailed
	}
	r.Reserved -= fromReserved
	r.Available -= rest
	return nil
}

// Lock configures how long a stake must run, the bonus it earns in percent
// and the cooldown between unstaking and withdrawal.
type Lock struct {
	Farm        FarmID
	ID          LockID
	Duration    uint64
	BonusFactor uint8
	Cooldown    uint64
}

// StakeRate is the base rate of staking amount units under a proof granting
// rate per unit.
func (l *Lock) StakeRate(rate, amount uint64) (uint64, error) {
	v, err := checkedMul(rate, amount)
	if err != nil {
		return 0, err
	}
	v, err = checkedMul(v, 100+uint64(l.BonusFactor))
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

// Reservation is the reward set aside for a stake at rate over the lock.
func (l *Lock) Reservation(rate uint64) (uint64, error) {
	return checkedMul(rate, l.Duration)
}

// CheckUnlocked fails with ErrGemStillLocked until the lock duration has
// elapsed since start.
func (l *Lock) CheckUnlocked(start, now uint64) error {
	end, err := checkedAdd(start, l.Duration)
	if err != nil {
		return err
	}
	if now < end {
		return ErrGemStillLocked
	}
	return nil
}

// CheckCooldown fails with ErrCooldownNotOver until the cooldown has elapsed
// since the stake ended.
func (l *Lock) CheckCooldown(ended, now uint64) error {
	end, err := checkedAdd(ended, l.Cooldown)
	if err != nil {
		return err
	}
	if now < end {
		return ErrCooldownNotOver
	}
	return nil
}
