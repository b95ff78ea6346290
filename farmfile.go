package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/TxnLab/gemfarm/internal/lib/ledger"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

// FarmDefinition describes a farm to create, with its initial funding, locks
// and whitelist.
type FarmDefinition struct {
	Authority   string           `yaml:"authority" validate:"required,algoaddr"`
	Vault       string           `yaml:"vault" validate:"required,algoaddr"`
	RewardAsset uint64           `yaml:"rewardAsset"`
	Fund        uint64           `yaml:"fund"`
	Locks       []LockDefinition `yaml:"locks" validate:"required,min=1,dive"`
	Whitelist   []WhitelistEntry `yaml:"whitelist" validate:"dive"`
}

type LockDefinition struct {
	Duration    uint64 `yaml:"duration"`
	BonusFactor uint8  `yaml:"bonusFactor"`
	Cooldown    uint64 `yaml:"cooldown"`
}

// WhitelistEntry takes either a per-second rewardRate or tokensPerInterval
// over interval seconds.
type WhitelistEntry struct {
	Type              string `yaml:"type" validate:"required,oneof=creator mint object"`
	Address           string `yaml:"address" validate:"omitempty,algoaddr"`
	Asset             uint64 `yaml:"asset" validate:"required_if=Type mint"`
	RewardRate        uint64 `yaml:"rewardRate" validate:"required_without=TokensPerInterval"`
	TokensPerInterval uint64 `yaml:"tokensPerInterval"`
	Interval          uint64 `yaml:"interval" validate:"required_with=TokensPerInterval"`
}

var farmValidator = newFarmValidator()

func newFarmValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("algoaddr", func(fl validator.FieldLevel) bool {
		_, err := types.DecodeAddress(fl.Field().String())
		return err == nil
	})
	return v
}

func LoadFarmDefinition(path string) (*FarmDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseFarmDefinition(f)
}

func ParseFarmDefinition(r io.Reader) (*FarmDefinition, error) {
	var def FarmDefinition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing farm definition: %w", err)
	}
	if err := farmValidator.Struct(&def); err != nil {
		return nil, fmt.Errorf("invalid farm definition: %w", err)
	}
	for i := range def.Whitelist {
		if _, err := def.Whitelist[i].proof(0); err != nil {
			return nil, fmt.Errorf("whitelist entry %d: %w", i, err)
		}
	}
	return &def, nil
}

func (w WhitelistEntry) proof(farm staking.FarmID) (staking.WhitelistProof, error) {
	wlType, err := staking.ParseWhitelistType(w.Type)
	if err != nil {
		return staking.WhitelistProof{}, err
	}
	proof := staking.WhitelistProof{Farm: farm, Type: wlType, Asset: staking.AssetID(w.Asset), RewardRate: w.RewardRate}
	if wlType != staking.WhitelistMint {
		if w.Address == "" {
			return staking.WhitelistProof{}, errors.New("address is required for creator and object entries")
		}
		if proof.Address, err = types.DecodeAddress(w.Address); err != nil {
			return staking.WhitelistProof{}, err
		}
		proof.Asset = 0
	}
	if proof.RewardRate == 0 {
		if proof.RewardRate, err = staking.RateFromInterval(w.TokensPerInterval, w.Interval); err != nil {
			return staking.WhitelistProof{}, err
		}
	}
	return proof, proof.Validate()
}

// Apply creates the farm and everything it defines through l.
func (d *FarmDefinition) Apply(ctx context.Context, l *ledger.Ledger) (*staking.Farm, error) {
	authority, err := types.DecodeAddress(d.Authority)
	if err != nil {
		return nil, err
	}
	vault, err := types.DecodeAddress(d.Vault)
	if err != nil {
		return nil, err
	}
	farm, err := l.CreateFarm(ctx, authority, vault, staking.AssetID(d.RewardAsset))
	if err != nil {
		return nil, err
	}
	for _, lock := range d.Locks {
		if _, err = l.CreateLock(ctx, farm.ID, authority, lock.Duration, lock.BonusFactor, lock.Cooldown); err != nil {
			return farm, err
		}
	}
	for _, entry := range d.Whitelist {
		proof, err := entry.proof(farm.ID)
		if err != nil {
			return farm, err
		}
		if err = l.AddToWhitelist(ctx, authority, proof); err != nil {
			return farm, err
		}
	}
	if d.Fund > 0 {
		if err = l.FundReward(ctx, farm.ID, authority, d.Fund); err != nil {
			return farm, err
		}
	}
	return l.Farm(farm.ID)
}
