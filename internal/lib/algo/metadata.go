package algo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/types"
	lru "github.com/hashicorp/golang-lru"
	"github.com/ssgreg/repeat"

	"github.com/TxnLab/gemfarm/internal/lib/misc"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

const DefaultCreatorCacheSize = 4096

// CreatorLookup resolves the creator address of an ASA from its on-chain
// params. Creators never change, so results are cached.
type CreatorLookup struct {
	log   *slog.Logger
	cache *lru.Cache
	fetch func(ctx context.Context, asset staking.AssetID) (types.Address, error)
}

func NewCreatorLookup(log *slog.Logger, client *algod.Client, cacheSize int) (*CreatorLookup, error) {
	return newCreatorLookup(log, cacheSize, func(ctx context.Context, asset staking.AssetID) (types.Address, error) {
		info, err := client.GetAssetByID(uint64(asset)).Do(ctx)
		if err != nil {
			return types.Address{}, err
		}
		return types.DecodeAddress(info.Params.Creator)
	})
}

func newCreatorLookup(log *slog.Logger, cacheSize int, fetch func(context.Context, staking.AssetID) (types.Address, error)) (*CreatorLookup, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &CreatorLookup{log: log, cache: cache, fetch: fetch}, nil
}

func (c *CreatorLookup) CreatorOf(ctx context.Context, asset staking.AssetID) (types.Address, error) {
	if v, ok := c.cache.Get(asset); ok {
		return v.(types.Address), nil
	}
	var creator types.Address
	err := repeat.Repeat(
		repeat.Fn(func() error {
			var err error
			creator, err = c.fetch(ctx, asset)
			if err != nil {
				return repeat.HintTemporary(err)
			}
			return nil
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(3),
		repeat.FnOnError(func(err error) error {
			misc.Debugf(c.log, "retrying creator lookup of asset %d, error:%v", asset, err)
			return err
		}),
		repeat.WithDelay(
			repeat.SetContext(ctx),
			repeat.SetContextHintStop(),
			(&repeat.FullJitterBackoffBuilder{
				BaseDelay: 250 * time.Millisecond,
				MaxDelay:  2 * time.Second,
			}).Set(),
		),
	)
	if err != nil {
		return types.Address{}, fmt.Errorf("fetching asset %d: %w", asset, err)
	}
	c.cache.Add(asset, creator)
	return creator, nil
}
