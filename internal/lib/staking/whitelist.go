package staking

import (
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

type WhitelistType uint8

const (
	// WhitelistCreator makes every asset created by an address stakeable.
	WhitelistCreator WhitelistType = iota
	// WhitelistMint makes a single asset stakeable.
	WhitelistMint
	// WhitelistAssociatedObject lets assets created by an address be attached
	// to running stakes.
	WhitelistAssociatedObject
)

func (t WhitelistType) String() string {
	switch t {
	case WhitelistCreator:
		return "creator"
	case WhitelistMint:
		return "mint"
	case WhitelistAssociatedObject:
		return "object"
	}
	return fmt.Sprintf("WhitelistType(%d)", uint8(t))
}

func ParseWhitelistType(s string) (WhitelistType, error) {
	switch s {
	case "creator":
		return WhitelistCreator, nil
	case "mint":
		return WhitelistMint, nil
	case "object":
		return WhitelistAssociatedObject, nil
	}
	return 0, fmt.Errorf("unknown whitelist type %q, expected creator, mint or object", s)
}

// WhitelistProof authorizes a creator address, or a single asset for mint
// proofs, within one farm.
type WhitelistProof struct {
	Farm       FarmID
	Type       WhitelistType
	Address    types.Address
	Asset      AssetID
	RewardRate uint64
}

// RateFromInterval converts a token amount paid per interval seconds into a
// per-second rate.
func RateFromInterval(tokenAmount, interval uint64) (uint64, error) {
	if interval == 0 {
		return 0, ErrRateMustBeGtZero
	}
	rate := tokenAmount / interval
	if rate == 0 {
		return 0, ErrRateMustBeGtZero
	}
	return rate, nil
}

func (w *WhitelistProof) Validate() error {
	switch w.Type {
	case WhitelistCreator, WhitelistAssociatedObject:
		if w.Address.IsZero() {
			return fmt.Errorf("%s whitelist needs an address", w.Type)
		}
	case WhitelistMint:
		if w.Asset == 0 {
			return fmt.Errorf("mint whitelist needs an asset id")
		}
	default:
		return ErrInvalidWhitelistType
	}
	if w.RewardRate == 0 {
		return ErrRateMustBeGtZero
	}
	return nil
}

// AuthorizeObject checks that the proof lets an asset created by creator be
// attached as an object in farm and returns the object it grants. Farm and
// address are checked before the type.
func (w *WhitelistProof) AuthorizeObject(farm FarmID, asset AssetID, creator types.Address) (AssociatedObject, error) {
	if w.Farm != farm {
		return AssociatedObject{}, ErrAddressNotWhitelisted
	}
	if w.Address != creator {
		return AssociatedObject{}, ErrAddressNotWhitelisted
	}
	if w.Type != WhitelistAssociatedObject {
		return AssociatedObject{}, ErrInvalidWhitelistType
	}
	if w.RewardRate == 0 {
		return AssociatedObject{}, ErrRateMustBeGtZero
	}
	return AssociatedObject{Asset: asset, Rate: w.RewardRate}, nil
}

// AuthorizeStake checks that the proof lets asset, created by creator, be
// staked in farm.
func (w *WhitelistProof) AuthorizeStake(farm FarmID, asset AssetID, creator types.Address) error {
	if w.Farm != farm {
		return ErrAddressNotWhitelisted
	}
	switch w.Type {
	case WhitelistMint:
		if w.Asset != asset {
			return ErrAddressNotWhitelisted
		}
	case WhitelistCreator:
		if w.Address != creator {
			return ErrAddressNotWhitelisted
		}
	default:
		return ErrInvalidWhitelistType
	}
	return nil
}
