// Package store persists farms, locks, whitelist proofs, farmers and stake
// receipts in goleveldb using fixed-size binary records.
package store

import (
	"encoding/binary"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *LevelDB
}

func Open(path string, opts Options) (*Store, error) {
	db, err := NewLevelDB(path, opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func OpenMem() (*Store, error) {
	db, err := NewMemLevelDB()
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key []byte, what string) ([]byte, error) {
	val, err := s.db.Get(key)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, errors.Wrap(ErrNotFound, what)
		}
		return nil, errors.Wrapf(err, "reading %s", what)
	}
	return val, nil
}

func getRecord[T any](s *Store, key []byte, what string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	val, err := s.get(key, what)
	if err != nil {
		return zero, err
	}
	rec, err := decode(val)
	if err != nil {
		return zero, errors.Wrapf(err, "decoding %s", what)
	}
	return rec, nil
}

func listRecords[T any](s *Store, prefix []byte, what string, decode func([]byte) (T, error)) ([]T, error) {
	it := s.db.NewIterator(prefix)
	defer it.Release()

	var out []T
	for it.Next() {
		rec, err := decode(it.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s at key %x", what, it.Key())
		}
		out = append(out, rec)
	}
	return out, errors.Wrapf(it.Error(), "iterating %s", what)
}

func (s *Store) Farm(id staking.FarmID) (*staking.Farm, error) {
	return getRecord(s, farmKey(id), "farm", DecodeFarm)
}

func (s *Store) Farms() ([]*staking.Farm, error) {
	return listRecords(s, farmPrefix, "farm", DecodeFarm)
}

func (s *Store) Lock(farm staking.FarmID, id staking.LockID) (*staking.Lock, error) {
	return getRecord(s, lockKey(farm, id), "lock", DecodeLock)
}

func (s *Store) Locks(farm staking.FarmID) ([]*staking.Lock, error) {
	return listRecords(s, newKey(lockPrefix).u64(uint64(farm)), "lock", DecodeLock)
}

func (s *Store) IsManager(farm staking.FarmID, addr types.Address) (bool, error) {
	ok, err := s.db.Has(managerKey(farm, addr))
	return ok, errors.Wrap(err, "reading manager")
}

func (s *Store) WhitelistByAddress(farm staking.FarmID, addr types.Address) (*staking.WhitelistProof, error) {
	return getRecord(s, whitelistAddressKey(farm, addr), "whitelist", DecodeWhitelist)
}

func (s *Store) WhitelistByAsset(farm staking.FarmID, asset staking.AssetID) (*staking.WhitelistProof, error) {
	return getRecord(s, whitelistAssetKey(farm, asset), "whitelist", DecodeWhitelist)
}

func (s *Store) Whitelists(farm staking.FarmID) ([]*staking.WhitelistProof, error) {
	return listRecords(s, newKey(whitelistPrefix).u64(uint64(farm)), "whitelist", DecodeWhitelist)
}

func (s *Store) Farmer(farm staking.FarmID, owner types.Address) (*staking.Farmer, error) {
	return getRecord(s, farmerKey(farm, owner), "farmer", DecodeFarmer)
}

func (s *Store) Farmers(farm staking.FarmID) ([]*staking.Farmer, error) {
	return listRecords(s, newKey(farmerPrefix).u64(uint64(farm)), "farmer", DecodeFarmer)
}

func (s *Store) Receipt(farm staking.FarmID, owner types.Address, mint staking.AssetID) (*staking.StakeReceipt, error) {
	return getRecord(s, receiptKey(farm, owner, mint), "receipt", DecodeReceipt)
}

func (s *Store) Receipts(farm staking.FarmID, owner types.Address) ([]*staking.StakeReceipt, error) {
	return listRecords(s, newKey(receiptPrefix).u64(uint64(farm)).addr(owner), "receipt", DecodeReceipt)
}

// FarmReceipts lists receipts of every farmer in farm.
func (s *Store) FarmReceipts(farm staking.FarmID) ([]*staking.StakeReceipt, error) {
	return listRecords(s, newKey(receiptPrefix).u64(uint64(farm)), "receipt", DecodeReceipt)
}

// NextFarmID returns the id the next created farm will get. Callers must
// serialize creation and persist the id with Batch.PutFarmSeq.
func (s *Store) NextFarmID() (staking.FarmID, error) {
	v, err := s.seq(farmSeqKey)
	return staking.FarmID(v + 1), err
}

func (s *Store) NextLockID(farm staking.FarmID) (staking.LockID, error) {
	v, err := s.seq(lockSeqKey(farm))
	return staking.LockID(v + 1), err
}

func (s *Store) seq(key []byte) (uint64, error) {
	val, err := s.db.Get(key)
	if err != nil {
		if s.db.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "reading sequence")
	}
	if len(val) != 8 {
		return 0, errors.Errorf("sequence value is %d bytes", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

// Batch collects writes that are committed together by Write.
type Batch struct {
	db    *LevelDB
	batch leveldb.Batch
}

func (s *Store) NewBatch() *Batch {
	return &Batch{db: s.db}
}

func (b *Batch) PutFarm(f *staking.Farm) *Batch {
	b.batch.Put(farmKey(f.ID), EncodeFarm(f))
	return b
}

func (b *Batch) PutFarmSeq(id staking.FarmID) *Batch {
	b.batch.Put(farmSeqKey, binary.BigEndian.AppendUint64(nil, uint64(id)))
	return b
}

func (b *Batch) PutLock(l *staking.Lock) *Batch {
	b.batch.Put(lockKey(l.Farm, l.ID), EncodeLock(l))
	b.batch.Put(lockSeqKey(l.Farm), binary.BigEndian.AppendUint64(nil, uint64(l.ID)))
	return b
}

func (b *Batch) PutManager(farm staking.FarmID, addr types.Address) *Batch {
	b.batch.Put(managerKey(farm, addr), []byte{1})
	return b
}

func (b *Batch) PutWhitelist(w *staking.WhitelistProof) *Batch {
	b.batch.Put(whitelistKey(w), EncodeWhitelist(w))
	return b
}

func (b *Batch) DeleteWhitelist(w *staking.WhitelistProof) *Batch {
	b.batch.Delete(whitelistKey(w))
	return b
}

func (b *Batch) PutFarmer(f *staking.Farmer) *Batch {
	b.batch.Put(farmerKey(f.Farm, f.Owner), EncodeFarmer(f))
	return b
}

func (b *Batch) PutReceipt(r *staking.StakeReceipt) *Batch {
	b.batch.Put(receiptKey(r.Farm, r.Owner, r.Mint), EncodeReceipt(r))
	return b
}

func (b *Batch) Len() int {
	return b.batch.Len()
}

func (b *Batch) Write() error {
	return errors.Wrap(b.db.write(&b.batch), "writing batch")
}
