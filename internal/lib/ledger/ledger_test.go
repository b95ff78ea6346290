package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
	"github.com/TxnLab/gemfarm/internal/lib/store"
)

type fakeCustody struct {
	mu        sync.Mutex
	transfers []staking.Transfer
	failAsset staking.AssetID
}

func (f *fakeCustody) MoveAsset(_ context.Context, t staking.Transfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Asset == f.failAsset {
		return errors.New("transfer rejected")
	}
	f.transfers = append(f.transfers, t)
	return nil
}

func (f *fakeCustody) last() staking.Transfer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transfers[len(f.transfers)-1]
}

func (f *fakeCustody) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transfers)
}

type fakeMetadata map[staking.AssetID]types.Address

func (m fakeMetadata) CreatorOf(_ context.Context, asset staking.AssetID) (types.Address, error) {
	creator, ok := m[asset]
	if !ok {
		return types.Address{}, errors.New("unknown asset")
	}
	return creator, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now uint64
}

func (c *fakeClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d uint64) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

var (
	authority     = types.Address{0xa}
	vault         = types.Address{0xb}
	owner         = types.Address{0xc}
	gemCreator    = types.Address{0x10}
	objectCreator = map[staking.AssetID]types.Address{
		1001: {0x21}, 1002: {0x22}, 1003: {0x23}, 1004: {0x24}, 1005: {0x25},
	}
	objectRates = map[staking.AssetID]uint64{1001: 10, 1002: 20, 1003: 30, 1004: 40, 1005: 50}
)

const (
	rewardAsset staking.AssetID = 9
	gemAsset    staking.AssetID = 500
)

type fixture struct {
	ledger  *Ledger
	custody *fakeCustody
	clock   *fakeClock
	farm    *staking.Farm
	lock    *staking.Lock
}

func newFixture(t *testing.T, duration, cooldown uint64) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	meta := fakeMetadata{gemAsset: gemCreator}
	for asset, creator := range objectCreator {
		meta[asset] = creator
	}
	custody := &fakeCustody{}
	clock := &fakeClock{now: 1_000}
	l := New(slog.New(slog.NewTextHandler(io.Discard, nil)), st, custody, meta, clock)

	farm, err := l.CreateFarm(ctx, authority, vault, rewardAsset)
	require.NoError(t, err)
	require.NoError(t, l.FundReward(ctx, farm.ID, authority, 1_000_000))
	lock, err := l.CreateLock(ctx, farm.ID, authority, duration, 0, cooldown)
	require.NoError(t, err)

	require.NoError(t, l.AddToWhitelist(ctx, authority, staking.WhitelistProof{
		Farm: farm.ID, Type: staking.WhitelistCreator, Address: gemCreator, RewardRate: 100,
	}))
	for asset, creator := range objectCreator {
		require.NoError(t, l.AddToWhitelist(ctx, authority, staking.WhitelistProof{
			Farm: farm.ID, Type: staking.WhitelistAssociatedObject, Address: creator, RewardRate: objectRates[asset],
		}))
	}
	_, err = l.InitializeFarmer(ctx, farm.ID, owner)
	require.NoError(t, err)

	return &fixture{ledger: l, custody: custody, clock: clock, farm: farm, lock: lock}
}

func (f *fixture) stake(t *testing.T) *staking.StakeReceipt {
	t.Helper()
	receipt, err := f.ledger.Stake(context.Background(), StakeRequest{
		Farm: f.farm.ID, Owner: owner, Asset: gemAsset, Lock: f.lock.ID, Amount: 1,
	})
	require.NoError(t, err)
	return receipt
}

func (f *fixture) objectReq(object staking.AssetID) ObjectRequest {
	return ObjectRequest{Farm: f.farm.ID, Owner: owner, Mint: gemAsset, Object: object}
}

func TestObjectScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	receipt := f.stake(t)
	assert.Equal(t, uint64(100), receipt.RewardRate)

	farm, err := f.ledger.Farm(f.farm.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100*100), farm.Reward.Reserved)

	for _, asset := range []staking.AssetID{1001, 1002, 1003} {
		receipt, err = f.ledger.AddObject(ctx, f.objectReq(asset))
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(160), receipt.RewardRate)
	assert.Equal(t, vault, f.custody.last().To)

	moves := f.custody.count()
	_, err = f.ledger.AddObject(ctx, f.objectReq(1004))
	assert.ErrorIs(t, err, staking.ErrMaxObjectsExceeded)
	assert.Equal(t, moves, f.custody.count())

	receipt, err = f.ledger.RemoveObject(ctx, f.objectReq(1002))
	require.NoError(t, err)
	assert.Equal(t, uint64(140), receipt.RewardRate)
	assert.Equal(t, staking.Transfer{Asset: 1002, From: vault, To: owner, Authority: vault, Amount: 1}, f.custody.last())

	farmer, err := f.ledger.Farmer(f.farm.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(140), farmer.RewardRate)

	before, err := f.ledger.PendingRewards(f.farm.ID, owner)
	require.NoError(t, err)
	f.clock.advance(10)
	after, err := f.ledger.PendingRewards(f.farm.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, before+1400, after)
}

func TestObjectRateSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, 0)
	f.stake(t)

	for _, step := range []struct {
		asset staking.AssetID
		want  uint64
	}{{1001, 110}, {1002, 130}, {1003, 160}} {
		receipt, err := f.ledger.AddObject(ctx, f.objectReq(step.asset))
		require.NoError(t, err)
		assert.Equal(t, step.want, receipt.RewardRate)
	}
}

func TestObjectWhitelistChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, 0)
	f.stake(t)

	require.NoError(t, f.ledger.RemoveFromWhitelist(ctx, f.farm.ID, authority, objectCreator[1001], 0))
	_, err := f.ledger.AddObject(ctx, f.objectReq(1001))
	assert.ErrorIs(t, err, staking.ErrAddressNotWhitelisted)

	// an object proof for another creator does not cover this one
	req := f.objectReq(1001)
	req.Whitelist = objectCreator[1002]
	_, err = f.ledger.AddObject(ctx, req)
	assert.ErrorIs(t, err, staking.ErrAddressNotWhitelisted)

	// a stake proof named for another creator fails on the address first
	req.Whitelist = gemCreator
	_, err = f.ledger.AddObject(ctx, req)
	assert.ErrorIs(t, err, staking.ErrAddressNotWhitelisted)

	// the gem creator proof is a stake proof
	require.NoError(t, f.ledger.AddToWhitelist(ctx, authority, staking.WhitelistProof{
		Farm: f.farm.ID, Type: staking.WhitelistCreator, Address: objectCreator[1001], RewardRate: 1,
	}))
	_, err = f.ledger.AddObject(ctx, f.objectReq(1001))
	assert.ErrorIs(t, err, staking.ErrInvalidWhitelistType)

	receipt, err := f.ledger.Receipt(f.farm.ID, owner, gemAsset)
	require.NoError(t, err)
	assert.Zero(t, receipt.Objects.Len())
	assert.Equal(t, uint64(100), receipt.RewardRate)
}

func TestCustodyFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, 0)
	f.stake(t)
	farmerBefore, err := f.ledger.Farmer(f.farm.ID, owner)
	require.NoError(t, err)

	f.custody.failAsset = 1001
	f.clock.advance(5)
	_, err = f.ledger.AddObject(ctx, f.objectReq(1001))
	require.Error(t, err)

	receipt, err := f.ledger.Receipt(f.farm.ID, owner, gemAsset)
	require.NoError(t, err)
	assert.Zero(t, receipt.Objects.Len())
	farmer, err := f.ledger.Farmer(f.farm.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, farmerBefore, farmer)
}

func TestRemoveMissingObject(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.stake(t)
	_, err := f.ledger.RemoveObject(context.Background(), f.objectReq(1001))
	assert.ErrorIs(t, err, staking.ErrObjectNotFound)
}

func TestUnstakeAndWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 50)
	f.stake(t)
	_, err := f.ledger.AddObject(ctx, f.objectReq(1001))
	require.NoError(t, err)

	f.clock.advance(100)
	_, err = f.ledger.Unstake(ctx, f.farm.ID, owner, gemAsset)
	assert.ErrorIs(t, err, staking.ErrGemStillHasObjects)

	_, err = f.ledger.RemoveObject(ctx, f.objectReq(1001))
	require.NoError(t, err)

	f.clock.advance(10)
	_, err = f.ledger.Withdraw(ctx, f.farm.ID, owner, gemAsset)
	assert.ErrorIs(t, err, staking.ErrGemStillStaked)

	receipt, err := f.ledger.Unstake(ctx, f.farm.ID, owner, gemAsset)
	require.NoError(t, err)
	assert.False(t, receipt.IsRunning())
	assert.False(t, receipt.Released)

	_, err = f.ledger.Unstake(ctx, f.farm.ID, owner, gemAsset)
	assert.ErrorIs(t, err, staking.ErrGemNotStaked)
	_, err = f.ledger.AddObject(ctx, f.objectReq(1001))
	assert.ErrorIs(t, err, staking.ErrGemNotStaked)
	_, err = f.ledger.Stake(ctx, StakeRequest{Farm: f.farm.ID, Owner: owner, Asset: gemAsset, Lock: f.lock.ID, Amount: 1})
	assert.ErrorIs(t, err, staking.ErrGemStillStaked)

	f.clock.advance(49)
	_, err = f.ledger.Withdraw(ctx, f.farm.ID, owner, gemAsset)
	assert.ErrorIs(t, err, staking.ErrCooldownNotOver)

	f.clock.advance(1)
	receipt, err = f.ledger.Withdraw(ctx, f.farm.ID, owner, gemAsset)
	require.NoError(t, err)
	assert.True(t, receipt.Released)
	assert.Equal(t, staking.Transfer{Asset: gemAsset, From: vault, To: owner, Authority: vault, Amount: 1}, f.custody.last())

	farmer, err := f.ledger.Farmer(f.farm.ID, owner)
	require.NoError(t, err)
	assert.Zero(t, farmer.RewardRate)
	// 100s at 110 then 10s at 100
	assert.Equal(t, uint64(100*110+10*100), farmer.AccruedRewards)

	farm, err := f.ledger.Farm(f.farm.ID)
	require.NoError(t, err)
	assert.Zero(t, farm.Reward.Reserved)
	assert.Equal(t, uint64(1_000_000), farm.Reward.Available)

	f.stake(t)
}

func TestUnstakeBeforeLockEnds(t *testing.T) {
	f := newFixture(t, 100, 0)
	f.stake(t)
	f.clock.advance(99)
	_, err := f.ledger.Unstake(context.Background(), f.farm.ID, owner, gemAsset)
	assert.ErrorIs(t, err, staking.ErrGemStillLocked)

	f.clock.advance(1)
	receipt, err := f.ledger.Unstake(context.Background(), f.farm.ID, owner, gemAsset)
	require.NoError(t, err)
	assert.True(t, receipt.Released)
	assert.Equal(t, owner, f.custody.last().To)
}

func TestClaimRewards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	f.stake(t)
	f.clock.advance(30)

	amount, err := f.ledger.ClaimRewards(ctx, f.farm.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), amount)
	assert.Equal(t, staking.Transfer{Asset: rewardAsset, From: vault, To: owner, Authority: vault, Amount: 3000}, f.custody.last())

	farm, err := f.ledger.Farm(f.farm.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000-3000), farm.Reward.Reserved)

	amount, err = f.ledger.ClaimRewards(ctx, f.farm.ID, owner)
	require.NoError(t, err)
	assert.Zero(t, amount)
}

func TestStakeChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)

	_, err := f.ledger.Stake(ctx, StakeRequest{Farm: f.farm.ID, Owner: owner, Asset: 1001, Lock: f.lock.ID, Amount: 1})
	assert.ErrorIs(t, err, staking.ErrInvalidWhitelistType)

	f.ledger.metadata.(fakeMetadata)[777] = types.Address{0x77}
	_, err = f.ledger.Stake(ctx, StakeRequest{Farm: f.farm.ID, Owner: owner, Asset: 777, Lock: f.lock.ID, Amount: 1})
	assert.ErrorIs(t, err, staking.ErrAddressNotWhitelisted)

	require.NoError(t, f.ledger.AddToWhitelist(ctx, authority, staking.WhitelistProof{
		Farm: f.farm.ID, Type: staking.WhitelistMint, Asset: 777, RewardRate: 1_000_000,
	}))
	_, err = f.ledger.Stake(ctx, StakeRequest{Farm: f.farm.ID, Owner: owner, Asset: 777, Lock: f.lock.ID, Amount: 1})
	assert.ErrorIs(t, err, staking.ErrReserveRewardFailed)

	f.stake(t)
	_, err = f.ledger.Stake(ctx, StakeRequest{Farm: f.farm.ID, Owner: owner, Asset: gemAsset, Lock: f.lock.ID, Amount: 1})
	assert.ErrorIs(t, err, staking.ErrGemStillStaked)
}

func TestAdminAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, 0)
	manager := types.Address{0x33}

	_, err := f.ledger.CreateLock(ctx, f.farm.ID, manager, 1, 0, 0)
	assert.ErrorIs(t, err, staking.ErrUnauthorized)
	assert.ErrorIs(t, f.ledger.AddManager(ctx, f.farm.ID, manager, manager), staking.ErrUnauthorized)

	require.NoError(t, f.ledger.AddManager(ctx, f.farm.ID, authority, manager))
	_, err = f.ledger.CreateLock(ctx, f.farm.ID, manager, 1, 0, 0)
	require.NoError(t, err)

	err = f.ledger.AddToWhitelist(ctx, manager, staking.WhitelistProof{
		Farm: f.farm.ID, Type: staking.WhitelistAssociatedObject, Address: types.Address{0x44},
	})
	assert.ErrorIs(t, err, staking.ErrRateMustBeGtZero)
}

func TestConcurrentAddsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, 0)
	f.stake(t)

	var wg sync.WaitGroup
	errs := make(chan error, len(objectCreator))
	for asset := range objectCreator {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.AddObject(ctx, f.objectReq(asset))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, full int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, staking.ErrMaxObjectsExceeded):
			full++
		}
	}
	assert.Equal(t, staking.MaxObjects, ok)
	assert.Equal(t, len(objectCreator)-staking.MaxObjects, full)

	receipt, err := f.ledger.Receipt(f.farm.ID, owner, gemAsset)
	require.NoError(t, err)
	total, err := receipt.Objects.TotalRate()
	require.NoError(t, err)
	assert.Equal(t, 100+total, receipt.RewardRate)
	farmer, err := f.ledger.Farmer(f.farm.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, receipt.RewardRate, farmer.RewardRate)
}

func TestStatsAndHoldings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	f.stake(t)
	_, err := f.ledger.AddObject(ctx, f.objectReq(1003))
	require.NoError(t, err)
	f.clock.advance(2)

	stats, err := f.ledger.Stats(f.farm.ID)
	require.NoError(t, err)
	assert.Equal(t, FarmStats{
		Farmers: 1, RunningReceipts: 1, Objects: 1, TotalRate: 130, PendingRewards: 260,
		Available: 1_000_000 - 10_000, Reserved: 10_000,
	}, stats)

	holdings, err := f.ledger.ExpectedHoldings(f.farm.ID)
	require.NoError(t, err)
	assert.Equal(t, map[staking.AssetID]uint64{rewardAsset: 1_000_000, gemAsset: 1, 1003: 1}, holdings)
}

func TestStatsSaturate(t *testing.T) {
	f := newFixture(t, 0, 0)
	for i, rate := range []uint64{math.MaxUint64 - 1, 5} {
		farmer := &staking.Farmer{Farm: f.farm.ID, Owner: types.Address{0x50, byte(i)}, RewardRate: rate, LastUpdateTs: 1_000}
		require.NoError(t, f.ledger.store.NewBatch().PutFarmer(farmer).Write())
	}
	f.clock.advance(1)

	stats, err := f.ledger.Stats(f.farm.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), stats.TotalRate)
	assert.Equal(t, uint64(math.MaxUint64), stats.PendingRewards)
	assert.Equal(t, 3, stats.Farmers)
}
