package ledger

import (
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

func (l *Ledger) Farm(id staking.FarmID) (*staking.Farm, error) {
	return l.loadFarm(id)
}

func (l *Ledger) Farms() ([]*staking.Farm, error) {
	return l.store.Farms()
}

func (l *Ledger) Locks(farm staking.FarmID) ([]*staking.Lock, error) {
	return l.store.Locks(farm)
}

func (l *Ledger) Whitelists(farm staking.FarmID) ([]*staking.WhitelistProof, error) {
	return l.store.Whitelists(farm)
}

func (l *Ledger) Farmers(farm staking.FarmID) ([]*staking.Farmer, error) {
	return l.store.Farmers(farm)
}

func (l *Ledger) Farmer(farm staking.FarmID, owner types.Address) (*staking.Farmer, error) {
	return l.loadFarmer(farm, owner)
}

func (l *Ledger) Receipt(farm staking.FarmID, owner types.Address, mint staking.AssetID) (*staking.StakeReceipt, error) {
	return l.loadReceipt(farm, owner, mint)
}

func (l *Ledger) Receipts(farm staking.FarmID, owner types.Address) ([]*staking.StakeReceipt, error) {
	return l.store.Receipts(farm, owner)
}

// PendingRewards is what the farmer could claim right now.
func (l *Ledger) PendingRewards(farm staking.FarmID, owner types.Address) (uint64, error) {
	farmer, err := l.loadFarmer(farm, owner)
	if err != nil {
		return 0, err
	}
	return farmer.PendingRewards(l.clock.Now())
}

// FarmStats summarizes a farm for metrics and status output.
type FarmStats struct {
	Farmers         int
	RunningReceipts int
	Objects         int
	TotalRate       uint64
	PendingRewards  uint64
	Available       uint64
	Reserved        uint64
}

func (l *Ledger) Stats(farmID staking.FarmID) (FarmStats, error) {
	farm, err := l.loadFarm(farmID)
	if err != nil {
		return FarmStats{}, err
	}
	stats := FarmStats{Available: farm.Reward.Available, Reserved: farm.Reward.Reserved}

	farmers, err := l.store.Farmers(farmID)
	if err != nil {
		return FarmStats{}, err
	}
	now := l.clock.Now()
	stats.Farmers = len(farmers)
	for _, f := range farmers {
		stats.TotalRate = saturatingAdd(stats.TotalRate, f.RewardRate)
		// a clock behind the farmer's last update just means nothing is pending yet
		if pending, err := f.PendingRewards(now); err == nil {
			stats.PendingRewards = saturatingAdd(stats.PendingRewards, pending)
		}
	}

	receipts, err := l.store.FarmReceipts(farmID)
	if err != nil {
		return FarmStats{}, err
	}
	for _, r := range receipts {
		if r.IsRunning() {
			stats.RunningReceipts++
			stats.Objects += r.Objects.Len()
		}
	}
	return stats, nil
}

// ExpectedHoldings returns how many units of each asset the farm vault should
// hold according to the ledger: staked assets not yet returned, attached
// objects and the reward pool.
func (l *Ledger) ExpectedHoldings(farmID staking.FarmID) (map[staking.AssetID]uint64, error) {
	farm, err := l.loadFarm(farmID)
	if err != nil {
		return nil, err
	}
	receipts, err := l.store.FarmReceipts(farmID)
	if err != nil {
		return nil, err
	}
	holdings := map[staking.AssetID]uint64{}
	if farm.Reward.Asset != 0 {
		holdings[farm.Reward.Asset] = farm.Reward.Available + farm.Reward.Reserved
	}
	for _, r := range receipts {
		if !r.Released {
			holdings[r.Mint] += r.Amount
		}
		for obj := range r.Objects.All() {
			holdings[obj.Asset]++
		}
	}
	return holdings, nil
}

// saturatingAdd caps at MaxUint64; the sums only feed reporting.
func saturatingAdd(a, b uint64) uint64 {
	if v, overflow := math.SafeAdd(a, b); !overflow {
		return v
	}
	return ^uint64(0)
}
