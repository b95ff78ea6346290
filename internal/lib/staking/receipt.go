package staking

import (
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// StakeReceipt records one stake of an asset by a farmer. The receipt is
// running while EndTs is nil; once ended it is kept for withdrawal checks and
// history.
type StakeReceipt struct {
	Farm       FarmID
	Owner      types.Address
	Mint       AssetID
	Lock       LockID
	StartTs    uint64
	EndTs      *uint64
	Amount     uint64
	RewardRate uint64
	Objects    Objects
	// Released is set once the staked asset has been returned to the owner.
	Released bool
}

func (r *StakeReceipt) IsRunning() bool {
	return r.EndTs == nil
}

// BaseRate is the rate granted by the stake itself, excluding objects.
func (r *StakeReceipt) BaseRate() (uint64, error) {
	objRate, err := r.Objects.TotalRate()
	if err != nil {
		return 0, err
	}
	return checkedSub(r.RewardRate, objRate)
}

// CanAttach reports whether another object could be attached right now.
func (r *StakeReceipt) CanAttach() error {
	if !r.IsRunning() {
		return ErrGemNotStaked
	}
	if r.Objects.Full() {
		return ErrMaxObjectsExceeded
	}
	return nil
}

// TryAddObject attaches object to the running receipt, flushing the farmer's
// accrued rewards at the old rate before raising both rates. Neither the
// receipt nor the farmer change when an error is returned.
func (r *StakeReceipt) TryAddObject(farmer *Farmer, object AssociatedObject, now uint64) error {
	if err := r.CanAttach(); err != nil {
		return err
	}
	nextFarmer := *farmer
	nextReceipt := *r

	if err := nextFarmer.UpdateAccruedRewards(now); err != nil {
		return err
	}
	if err := nextReceipt.Objects.push(object); err != nil {
		return err
	}
	rate, err := checkedAdd(nextReceipt.RewardRate, object.Rate)
	if err != nil {
		return err
	}
	nextReceipt.RewardRate = rate
	if err := nextFarmer.IncreaseRewardRate(object.Rate); err != nil {
		return err
	}

	*farmer = nextFarmer
	*r = nextReceipt
	return nil
}

// TryRemoveObject detaches the object for asset. Rewards are flushed at the
// pre-removal rate before both rates drop. Neither the receipt nor the farmer
// change when an error is returned.
func (r *StakeReceipt) TryRemoveObject(farmer *Farmer, asset AssetID, now uint64) (AssociatedObject, error) {
	if !r.IsRunning() {
		return AssociatedObject{}, ErrGemNotStaked
	}
	nextFarmer := *farmer
	nextReceipt := *r

	removed, err := nextReceipt.Objects.swapRemove(asset)
	if err != nil {
		return AssociatedObject{}, err
	}
	if err := nextFarmer.UpdateAccruedRewards(now); err != nil {
		return AssociatedObject{}, err
	}
	rate, err := checkedSub(nextReceipt.RewardRate, removed.Rate)
	if err != nil {
		return AssociatedObject{}, err
	}
	nextReceipt.RewardRate = rate
	if err := nextFarmer.DecreaseRewardRate(removed.Rate); err != nil {
		return AssociatedObject{}, err
	}

	*farmer = nextFarmer
	*r = nextReceipt
	return removed, nil
}

// AddObject runs the full attach protocol: running and capacity checks, then
// whitelist authorization of the object's creator, then TryAddObject.
func (r *StakeReceipt) AddObject(farmer *Farmer, proof *WhitelistProof, asset AssetID, creator types.Address, now uint64) (AssociatedObject, error) {
	if err := r.CanAttach(); err != nil {
		return AssociatedObject{}, err
	}
	if proof == nil {
		return AssociatedObject{}, ErrAddressNotWhitelisted
	}
	obj, err := proof.AuthorizeObject(r.Farm, asset, creator)
	if err != nil {
		return AssociatedObject{}, err
	}
	if err := r.TryAddObject(farmer, obj, now); err != nil {
		return AssociatedObject{}, err
	}
	return obj, nil
}

// Begin starts a stake: the farmer is flushed and its rate raised by the
// receipt's base rate.
func Begin(farmer *Farmer, receipt *StakeReceipt, now uint64) error {
	nextFarmer := *farmer
	if err := nextFarmer.UpdateAccruedRewards(now); err != nil {
		return err
	}
	if err := nextFarmer.IncreaseRewardRate(receipt.RewardRate); err != nil {
		return err
	}
	receipt.StartTs = now
	receipt.EndTs = nil
	receipt.Released = false
	*farmer = nextFarmer
	return nil
}

// End stops a running stake with no attached objects. The farmer is flushed
// and its rate lowered by the receipt's rate.
func (r *StakeReceipt) End(farmer *Farmer, now uint64) error {
	if !r.IsRunning() {
		return ErrGemNotStaked
	}
	if r.Objects.Len() > 0 {
		return ErrGemStillHasObjects
	}
	nextFarmer := *farmer
	if err := nextFarmer.UpdateAccruedRewards(now); err != nil {
		return err
	}
	if err := nextFarmer.DecreaseRewardRate(r.RewardRate); err != nil {
		return err
	}
	end := now
	r.EndTs = &end
	*farmer = nextFarmer
	return nil
}
