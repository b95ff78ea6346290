// Package api serves read-only JSON views of farms, farmers and stake
// receipts.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/gorilla/mux"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

type Reader interface {
	Farm(id staking.FarmID) (*staking.Farm, error)
	Farms() ([]*staking.Farm, error)
	Locks(farm staking.FarmID) ([]*staking.Lock, error)
	Whitelists(farm staking.FarmID) ([]*staking.WhitelistProof, error)
	Farmers(farm staking.FarmID) ([]*staking.Farmer, error)
	Farmer(farm staking.FarmID, owner types.Address) (*staking.Farmer, error)
	PendingRewards(farm staking.FarmID, owner types.Address) (uint64, error)
	Receipt(farm staking.FarmID, owner types.Address, mint staking.AssetID) (*staking.StakeReceipt, error)
	Receipts(farm staking.FarmID, owner types.Address) ([]*staking.StakeReceipt, error)
}

type Farms struct {
	reader Reader
}

func New(reader Reader) *Farms {
	return &Farms{reader: reader}
}

func (f *Farms) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(f.handleListFarms))
	sub.Path("/{farm}").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(f.handleGetFarm))
	sub.Path("/{farm}/locks").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(f.handleGetLocks))
	sub.Path("/{farm}/whitelist").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(f.handleGetWhitelist))
	sub.Path("/{farm}/farmers").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(f.handleListFarmers))
	sub.Path("/{farm}/farmers/{owner}").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(f.handleGetFarmer))
	sub.Path("/{farm}/farmers/{owner}/receipts").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(f.handleGetReceipts))
	sub.Path("/{farm}/farmers/{owner}/receipts/{mint}").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(f.handleGetReceipt))
}

func (f *Farms) handleListFarms(w http.ResponseWriter, req *http.Request) error {
	farms, err := f.reader.Farms()
	if err != nil {
		return err
	}
	out := make([]Farm, 0, len(farms))
	for _, farm := range farms {
		out = append(out, convertFarm(farm))
	}
	return WriteJSON(w, out)
}

func (f *Farms) handleGetFarm(w http.ResponseWriter, req *http.Request) error {
	id, err := farmParam(req)
	if err != nil {
		return err
	}
	farm, err := f.reader.Farm(id)
	if err != nil {
		return err
	}
	return WriteJSON(w, convertFarm(farm))
}

func (f *Farms) handleGetLocks(w http.ResponseWriter, req *http.Request) error {
	id, err := farmParam(req)
	if err != nil {
		return err
	}
	locks, err := f.reader.Locks(id)
	if err != nil {
		return err
	}
	out := make([]Lock, 0, len(locks))
	for _, l := range locks {
		out = append(out, Lock{ID: uint64(l.ID), Duration: l.Duration, BonusFactor: l.BonusFactor, Cooldown: l.Cooldown})
	}
	return WriteJSON(w, out)
}

func (f *Farms) handleGetWhitelist(w http.ResponseWriter, req *http.Request) error {
	id, err := farmParam(req)
	if err != nil {
		return err
	}
	proofs, err := f.reader.Whitelists(id)
	if err != nil {
		return err
	}
	out := make([]Whitelist, 0, len(proofs))
	for _, p := range proofs {
		out = append(out, convertWhitelist(p))
	}
	return WriteJSON(w, out)
}

func (f *Farms) handleListFarmers(w http.ResponseWriter, req *http.Request) error {
	id, err := farmParam(req)
	if err != nil {
		return err
	}
	if _, err = f.reader.Farm(id); err != nil {
		return err
	}
	farmers, err := f.reader.Farmers(id)
	if err != nil {
		return err
	}
	out := make([]Farmer, 0, len(farmers))
	for _, farmer := range farmers {
		view, err := f.farmerView(farmer)
		if err != nil {
			return err
		}
		out = append(out, view)
	}
	return WriteJSON(w, out)
}

func (f *Farms) handleGetFarmer(w http.ResponseWriter, req *http.Request) error {
	id, owner, err := farmerParams(req)
	if err != nil {
		return err
	}
	farmer, err := f.reader.Farmer(id, owner)
	if err != nil {
		return err
	}
	view, err := f.farmerView(farmer)
	if err != nil {
		return err
	}
	return WriteJSON(w, view)
}

func (f *Farms) farmerView(farmer *staking.Farmer) (Farmer, error) {
	pending, err := f.reader.PendingRewards(farmer.Farm, farmer.Owner)
	if err != nil {
		return Farmer{}, err
	}
	return Farmer{
		Farm:           uint64(farmer.Farm),
		Owner:          farmer.Owner.String(),
		RewardRate:     farmer.RewardRate,
		AccruedRewards: farmer.AccruedRewards,
		PendingRewards: pending,
		LastUpdateTs:   farmer.LastUpdateTs,
	}, nil
}

func (f *Farms) handleGetReceipts(w http.ResponseWriter, req *http.Request) error {
	id, owner, err := farmerParams(req)
	if err != nil {
		return err
	}
	receipts, err := f.reader.Receipts(id, owner)
	if err != nil {
		return err
	}
	out := make([]Receipt, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, convertReceipt(r))
	}
	return WriteJSON(w, out)
}

func (f *Farms) handleGetReceipt(w http.ResponseWriter, req *http.Request) error {
	id, owner, err := farmerParams(req)
	if err != nil {
		return err
	}
	mint, err := strconv.ParseUint(mux.Vars(req)["mint"], 10, 64)
	if err != nil {
		return BadRequest(fmt.Errorf("mint: %w", err))
	}
	receipt, err := f.reader.Receipt(id, owner, staking.AssetID(mint))
	if err != nil {
		return err
	}
	return WriteJSON(w, convertReceipt(receipt))
}

func farmParam(req *http.Request) (staking.FarmID, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["farm"], 10, 64)
	if err != nil {
		return 0, BadRequest(fmt.Errorf("farm: %w", err))
	}
	return staking.FarmID(id), nil
}

func farmerParams(req *http.Request) (staking.FarmID, types.Address, error) {
	id, err := farmParam(req)
	if err != nil {
		return 0, types.Address{}, err
	}
	owner, err := types.DecodeAddress(mux.Vars(req)["owner"])
	if err != nil {
		return 0, types.Address{}, BadRequest(fmt.Errorf("owner: %w", err))
	}
	return id, owner, nil
}
