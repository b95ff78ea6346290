package store

import (
	"encoding/binary"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

var (
	farmPrefix      = []byte("f/")
	lockPrefix      = []byte("l/")
	managerPrefix   = []byte("m/")
	whitelistPrefix = []byte("w/")
	farmerPrefix    = []byte("u/")
	receiptPrefix   = []byte("r/")
	farmSeqKey      = []byte("seq/farm")
	lockSeqPrefix   = []byte("seq/lock/")
)

const (
	whitelistAddressTag = 'a'
	whitelistAssetTag   = 's'
)

type keyBuilder []byte

func newKey(prefix []byte) keyBuilder {
	return append(keyBuilder(nil), prefix...)
}

func (k keyBuilder) u64(v uint64) keyBuilder {
	return binary.BigEndian.AppendUint64(k, v)
}

func (k keyBuilder) addr(a types.Address) keyBuilder {
	return append(k, a[:]...)
}

func (k keyBuilder) tag(b byte) keyBuilder {
	return append(k, b)
}

func farmKey(id staking.FarmID) []byte {
	return newKey(farmPrefix).u64(uint64(id))
}

func lockKey(farm staking.FarmID, id staking.LockID) []byte {
	return newKey(lockPrefix).u64(uint64(farm)).u64(uint64(id))
}

func managerKey(farm staking.FarmID, addr types.Address) []byte {
	return newKey(managerPrefix).u64(uint64(farm)).addr(addr)
}

func whitelistAddressKey(farm staking.FarmID, addr types.Address) []byte {
	return newKey(whitelistPrefix).u64(uint64(farm)).tag(whitelistAddressTag).addr(addr)
}

func whitelistAssetKey(farm staking.FarmID, asset staking.AssetID) []byte {
	return newKey(whitelistPrefix).u64(uint64(farm)).tag(whitelistAssetTag).u64(uint64(asset))
}

// whitelistKey stores mint proofs by asset and address proofs by address, so
// a farm holds at most one proof per creator.
func whitelistKey(w *staking.WhitelistProof) []byte {
	if w.Type == staking.WhitelistMint {
		return whitelistAssetKey(w.Farm, w.Asset)
	}
	return whitelistAddressKey(w.Farm, w.Address)
}

func farmerKey(farm staking.FarmID, owner types.Address) []byte {
	return newKey(farmerPrefix).u64(uint64(farm)).addr(owner)
}

func receiptKey(farm staking.FarmID, owner types.Address, mint staking.AssetID) []byte {
	return newKey(receiptPrefix).u64(uint64(farm)).addr(owner).u64(uint64(mint))
}

func lockSeqKey(farm staking.FarmID) []byte {
	return newKey(lockSeqPrefix).u64(uint64(farm))
}
