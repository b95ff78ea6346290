package staking

import (
	"context"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Transfer moves Amount units of Asset from From to To. Authority is the
// account whose signature authorizes the move; for releases out of a vault it
// is the vault itself.
type Transfer struct {
	Asset     AssetID
	From      types.Address
	To        types.Address
	Authority types.Address
	Amount    uint64
}

type Custodian interface {
	MoveAsset(ctx context.Context, t Transfer) error
}

type MetadataLookup interface {
	CreatorOf(ctx context.Context, asset AssetID) (types.Address, error)
}

// Clock returns unix seconds. Implementations must be non-decreasing.
type Clock interface {
	Now() uint64
}

type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}
