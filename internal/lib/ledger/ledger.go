// Package ledger runs staking operations against persisted state. Every
// mutating operation holds exclusive access to the records it touches,
// validates on copies, moves assets through custody, then commits all records
// in one batch.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/TxnLab/gemfarm/internal/lib/misc"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
	"github.com/TxnLab/gemfarm/internal/lib/store"
)

type Ledger struct {
	log      *slog.Logger
	store    *store.Store
	custody  staking.Custodian
	metadata staking.MetadataLookup
	clock    staking.Clock

	locks    *keyedMutex
	createMu sync.Mutex
}

func New(log *slog.Logger, st *store.Store, custody staking.Custodian, metadata staking.MetadataLookup, clock staking.Clock) *Ledger {
	if clock == nil {
		clock = staking.SystemClock{}
	}
	return &Ledger{
		log:      log,
		store:    st,
		custody:  custody,
		metadata: metadata,
		clock:    clock,
		locks:    newKeyedMutex(),
	}
}

func farmLockKey(farm staking.FarmID) string {
	return fmt.Sprintf("farm/%d", farm)
}

func farmerLockKey(farm staking.FarmID, owner types.Address) string {
	return fmt.Sprintf("farmer/%d/%s", farm, owner)
}

func (l *Ledger) lockFarm(farm staking.FarmID) func() {
	return l.locks.Lock(farmLockKey(farm))
}

func (l *Ledger) lockFarmAndFarmer(farm staking.FarmID, owner types.Address) func() {
	return l.locks.Lock(farmLockKey(farm), farmerLockKey(farm, owner))
}

func (l *Ledger) lockFarmer(farm staking.FarmID, owner types.Address) func() {
	return l.locks.Lock(farmerLockKey(farm, owner))
}

// commit performs moves in order and then writes batch. A failed move reverses
// the moves already made; a failed write reverses all of them.
func (l *Ledger) commit(ctx context.Context, moves []staking.Transfer, batch *store.Batch) error {
	for i, mv := range moves {
		if err := l.custody.MoveAsset(ctx, mv); err != nil {
			l.compensate(ctx, moves[:i])
			return fmt.Errorf("moving asset %d from %s to %s: %w", mv.Asset, mv.From, mv.To, err)
		}
	}
	if err := batch.Write(); err != nil {
		l.compensate(ctx, moves)
		return err
	}
	return nil
}

func (l *Ledger) compensate(ctx context.Context, done []staking.Transfer) {
	// use a fresh context so cancellation of the original call doesn't strand assets
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		mv := done[i]
		back := staking.Transfer{Asset: mv.Asset, From: mv.To, To: mv.From, Authority: mv.To, Amount: mv.Amount}
		if err := l.custody.MoveAsset(ctx, back); err != nil {
			compensationFailures.Inc()
			misc.Errorf(l.log, "reversing move of asset %d (%d units) back to %s failed: %v", mv.Asset, mv.Amount, mv.From, err)
		}
	}
}

func (l *Ledger) loadFarm(id staking.FarmID) (*staking.Farm, error) {
	farm, err := l.store.Farm(id)
	if err != nil {
		return nil, fmt.Errorf("farm %d: %w", id, err)
	}
	return farm, nil
}

func (l *Ledger) loadFarmer(farm staking.FarmID, owner types.Address) (*staking.Farmer, error) {
	farmer, err := l.store.Farmer(farm, owner)
	if err != nil {
		return nil, fmt.Errorf("farmer %s in farm %d: %w", owner, farm, err)
	}
	return farmer, nil
}

func (l *Ledger) loadLock(farm staking.FarmID, id staking.LockID) (*staking.Lock, error) {
	lock, err := l.store.Lock(farm, id)
	if err != nil {
		return nil, fmt.Errorf("lock %d in farm %d: %w", id, farm, err)
	}
	return lock, nil
}

// loadReceipt maps a missing receipt to ErrGemNotStaked.
func (l *Ledger) loadReceipt(farm staking.FarmID, owner types.Address, mint staking.AssetID) (*staking.StakeReceipt, error) {
	receipt, err := l.store.Receipt(farm, owner, mint)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no stake of asset %d: %w", mint, staking.ErrGemNotStaked)
	}
	return receipt, err
}

func (l *Ledger) requireManager(farm *staking.Farm, caller types.Address) error {
	if caller == farm.Authority {
		return nil
	}
	ok, err := l.store.IsManager(farm.ID, caller)
	if err != nil {
		return err
	}
	if !ok {
		return staking.ErrUnauthorized
	}
	return nil
}
