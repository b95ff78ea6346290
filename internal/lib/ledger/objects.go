package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
	"github.com/TxnLab/gemfarm/internal/lib/store"
)

type ObjectRequest struct {
	Farm   staking.FarmID
	Owner  types.Address
	Mint   staking.AssetID
	Object staking.AssetID
	// Whitelist names the address proof authorizing the object. It defaults
	// to the object's creator.
	Whitelist types.Address
}

// AddObject attaches one unit of req.Object to the running stake of req.Mint.
func (l *Ledger) AddObject(ctx context.Context, req ObjectRequest) (_ *staking.StakeReceipt, err error) {
	defer func() { recordOp("add_object", err) }()
	defer l.lockFarmer(req.Farm, req.Owner)()

	farm, err := l.loadFarm(req.Farm)
	if err != nil {
		return nil, err
	}
	farmer, err := l.loadFarmer(req.Farm, req.Owner)
	if err != nil {
		return nil, err
	}
	receipt, err := l.loadReceipt(req.Farm, req.Owner, req.Mint)
	if err != nil {
		return nil, err
	}
	if err = receipt.CanAttach(); err != nil {
		return nil, err
	}
	if _, dup := receipt.Objects.Find(req.Object); dup {
		return nil, fmt.Errorf("asset %d is already attached", req.Object)
	}

	creator, err := l.metadata.CreatorOf(ctx, req.Object)
	if err != nil {
		return nil, fmt.Errorf("looking up creator of asset %d: %w", req.Object, err)
	}
	wlAddr := req.Whitelist
	if wlAddr.IsZero() {
		wlAddr = creator
	}
	proof, err := l.store.WhitelistByAddress(req.Farm, wlAddr)
	switch {
	case errors.Is(err, store.ErrNotFound):
		proof = nil
	case err != nil:
		return nil, err
	}

	obj, err := receipt.AddObject(farmer, proof, req.Object, creator, l.clock.Now())
	if err != nil {
		return nil, err
	}

	moves := []staking.Transfer{{
		Asset: obj.Asset, From: req.Owner, To: farm.Vault, Authority: req.Owner, Amount: 1,
	}}
	if err = l.commit(ctx, moves, l.store.NewBatch().PutFarmer(farmer).PutReceipt(receipt)); err != nil {
		return nil, err
	}
	l.log.Info("added object", "farm", req.Farm, "owner", req.Owner.String(), "mint", req.Mint,
		"object", obj.Asset, "objectRate", obj.Rate, "rate", receipt.RewardRate)
	return receipt, nil
}

// RemoveObject detaches req.Object and returns it to the owner.
func (l *Ledger) RemoveObject(ctx context.Context, req ObjectRequest) (_ *staking.StakeReceipt, err error) {
	defer func() { recordOp("remove_object", err) }()
	defer l.lockFarmer(req.Farm, req.Owner)()

	farm, err := l.loadFarm(req.Farm)
	if err != nil {
		return nil, err
	}
	farmer, err := l.loadFarmer(req.Farm, req.Owner)
	if err != nil {
		return nil, err
	}
	receipt, err := l.loadReceipt(req.Farm, req.Owner, req.Mint)
	if err != nil {
		return nil, err
	}
	obj, err := receipt.TryRemoveObject(farmer, req.Object, l.clock.Now())
	if err != nil {
		return nil, err
	}

	moves := []staking.Transfer{{
		Asset: obj.Asset, From: farm.Vault, To: req.Owner, Authority: farm.Vault, Amount: 1,
	}}
	if err = l.commit(ctx, moves, l.store.NewBatch().PutFarmer(farmer).PutReceipt(receipt)); err != nil {
		return nil, err
	}
	l.log.Info("removed object", "farm", req.Farm, "owner", req.Owner.String(), "mint", req.Mint,
		"object", obj.Asset, "rate", receipt.RewardRate)
	return receipt, nil
}
