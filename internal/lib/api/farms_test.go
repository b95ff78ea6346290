package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
	"github.com/TxnLab/gemfarm/internal/lib/store"
)

type fakeReader struct {
	farm     *staking.Farm
	farmer   *staking.Farmer
	receipts []*staking.StakeReceipt
}

func (f *fakeReader) Farm(id staking.FarmID) (*staking.Farm, error) {
	if id != f.farm.ID {
		return nil, errors.Wrap(store.ErrNotFound, "farm")
	}
	return f.farm, nil
}

func (f *fakeReader) Farms() ([]*staking.Farm, error) {
	return []*staking.Farm{f.farm}, nil
}

func (f *fakeReader) Locks(staking.FarmID) ([]*staking.Lock, error) {
	return []*staking.Lock{{ID: 1, Duration: 60, BonusFactor: 10, Cooldown: 5}}, nil
}

func (f *fakeReader) Whitelists(staking.FarmID) ([]*staking.WhitelistProof, error) {
	return []*staking.WhitelistProof{{Type: staking.WhitelistMint, Asset: 44, RewardRate: 2}}, nil
}

func (f *fakeReader) Farmers(staking.FarmID) ([]*staking.Farmer, error) {
	return []*staking.Farmer{f.farmer}, nil
}

func (f *fakeReader) Farmer(staking.FarmID, types.Address) (*staking.Farmer, error) {
	return f.farmer, nil
}

func (f *fakeReader) PendingRewards(staking.FarmID, types.Address) (uint64, error) {
	return f.farmer.AccruedRewards + 50, nil
}

func (f *fakeReader) Receipt(_ staking.FarmID, _ types.Address, mint staking.AssetID) (*staking.StakeReceipt, error) {
	for _, r := range f.receipts {
		if r.Mint == mint {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no stake of asset %d: %w", mint, staking.ErrGemNotStaked)
}

func (f *fakeReader) Receipts(staking.FarmID, types.Address) ([]*staking.StakeReceipt, error) {
	return f.receipts, nil
}

func newTestServer(t *testing.T) (*httptest.Server, types.Address) {
	t.Helper()
	owner := types.Address{3}
	objs, err := staking.NewObjects(staking.AssociatedObject{Asset: 7, Rate: 10})
	require.NoError(t, err)
	reader := &fakeReader{
		farm:     &staking.Farm{ID: 1, Authority: types.Address{1}, Vault: types.Address{2}, Reward: staking.Reward{Asset: 9, Available: 100}},
		farmer:   &staking.Farmer{Farm: 1, Owner: owner, RewardRate: 110, AccruedRewards: 20},
		receipts: []*staking.StakeReceipt{{Farm: 1, Owner: owner, Mint: 500, RewardRate: 110, Amount: 1, Objects: objs}},
	}
	router := mux.NewRouter()
	New(reader).Mount(router, "/farms")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, owner
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestGetFarm(t *testing.T) {
	ts, _ := newTestServer(t)

	var farm Farm
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/farms/1", &farm))
	assert.Equal(t, uint64(9), farm.RewardAsset)
	assert.Equal(t, uint64(100), farm.Available)

	var farms []Farm
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/farms", &farms))
	assert.Len(t, farms, 1)

	var errBody errorBody
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/farms/2", &errBody))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/farms/abc", &errBody))
}

func TestGetFarmerAndReceipts(t *testing.T) {
	ts, owner := newTestServer(t)
	base := ts.URL + "/farms/1/farmers/" + owner.String()

	var farmer Farmer
	assert.Equal(t, http.StatusOK, getJSON(t, base, &farmer))
	assert.Equal(t, uint64(110), farmer.RewardRate)
	assert.Equal(t, uint64(70), farmer.PendingRewards)

	var farmers []Farmer
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/farms/1/farmers", &farmers))
	require.Len(t, farmers, 1)
	assert.Equal(t, owner.String(), farmers[0].Owner)

	var receipts []Receipt
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/receipts", &receipts))
	require.Len(t, receipts, 1)
	assert.True(t, receipts[0].Running)
	assert.Equal(t, []Object{{Asset: 7, Rate: 10}}, receipts[0].Objects)

	var errBody errorBody
	assert.Equal(t, http.StatusNotFound, getJSON(t, base+"/receipts/501", &errBody))
	assert.Equal(t, staking.ErrGemNotStaked.Code, errBody.Code)
	assert.Equal(t, "GemNotStaked", errBody.Name)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/farms/1/farmers/nope", &errBody))
}

func TestLocksAndWhitelist(t *testing.T) {
	ts, _ := newTestServer(t)

	var locks []Lock
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/farms/1/locks", &locks))
	assert.Equal(t, []Lock{{ID: 1, Duration: 60, BonusFactor: 10, Cooldown: 5}}, locks)

	var wl []Whitelist
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/farms/1/whitelist", &wl))
	assert.Equal(t, []Whitelist{{Type: "mint", Asset: 44, RewardRate: 2}}, wl)
}
