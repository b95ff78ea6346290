package api

import (
	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

type Farm struct {
	ID          uint64 `json:"id"`
	Authority   string `json:"authority"`
	Vault       string `json:"vault"`
	RewardAsset uint64 `json:"rewardAsset"`
	Available   uint64 `json:"available"`
	Reserved    uint64 `json:"reserved"`
}

func convertFarm(f *staking.Farm) Farm {
	return Farm{
		ID:          uint64(f.ID),
		Authority:   f.Authority.String(),
		Vault:       f.Vault.String(),
		RewardAsset: uint64(f.Reward.Asset),
		Available:   f.Reward.Available,
		Reserved:    f.Reward.Reserved,
	}
}

type Lock struct {
	ID          uint64 `json:"id"`
	Duration    uint64 `json:"duration"`
	BonusFactor uint8  `json:"bonusFactor"`
	Cooldown    uint64 `json:"cooldown"`
}

type Whitelist struct {
	Type       string `json:"type"`
	Address    string `json:"address,omitempty"`
	Asset      uint64 `json:"asset,omitempty"`
	RewardRate uint64 `json:"rewardRate"`
}

func convertWhitelist(w *staking.WhitelistProof) Whitelist {
	out := Whitelist{Type: w.Type.String(), RewardRate: w.RewardRate}
	if w.Type == staking.WhitelistMint {
		out.Asset = uint64(w.Asset)
	} else {
		out.Address = w.Address.String()
	}
	return out
}

type Farmer struct {
	Farm           uint64 `json:"farm"`
	Owner          string `json:"owner"`
	RewardRate     uint64 `json:"rewardRate"`
	AccruedRewards uint64 `json:"accruedRewards"`
	PendingRewards uint64 `json:"pendingRewards"`
	LastUpdateTs   uint64 `json:"lastUpdateTs"`
}

type Object struct {
	Asset uint64 `json:"asset"`
	Rate  uint64 `json:"rate"`
}

type Receipt struct {
	Mint       uint64   `json:"mint"`
	Lock       uint64   `json:"lock"`
	Running    bool     `json:"running"`
	StartTs    uint64   `json:"startTs"`
	EndTs      *uint64  `json:"endTs,omitempty"`
	Amount     uint64   `json:"amount"`
	RewardRate uint64   `json:"rewardRate"`
	Released   bool     `json:"released"`
	Objects    []Object `json:"objects"`
}

func convertReceipt(r *staking.StakeReceipt) Receipt {
	out := Receipt{
		Mint:       uint64(r.Mint),
		Lock:       uint64(r.Lock),
		Running:    r.IsRunning(),
		StartTs:    r.StartTs,
		EndTs:      r.EndTs,
		Amount:     r.Amount,
		RewardRate: r.RewardRate,
		Released:   r.Released,
		Objects:    []Object{},
	}
	for obj := range r.Objects.All() {
		out.Objects = append(out.Objects, Object{Asset: uint64(obj.Asset), Rate: obj.Rate})
	}
	return out
}
