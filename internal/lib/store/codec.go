package store

import (
	"encoding/binary"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

// Record sizes in bytes. All values are big-endian.
const (
	FarmSize      = 8 + 32 + 32 + 8 + 8 + 8
	LockSize      = 8 + 8 + 8 + 1 + 8
	FarmerSize    = 8 + 32 + 8 + 8 + 8
	WhitelistSize = 8 + 1 + 32 + 8 + 8
	objectSize    = 8 + 8
	// ReceiptSize covers every field plus MaxObjects object slots and a u32
	// count of the slots in use.
	ReceiptSize = 8 + 32 + 8 + 8 + 8 + 1 + 8 + 8 + 8 + 1 + 4 + staking.MaxObjects*objectSize
)

type encoder []byte

func (e encoder) u64(v uint64) encoder {
	return binary.BigEndian.AppendUint64(e, v)
}

func (e encoder) u32(v uint32) encoder {
	return binary.BigEndian.AppendUint32(e, v)
}

func (e encoder) u8(v uint8) encoder {
	return append(e, v)
}

func (e encoder) bool(v bool) encoder {
	if v {
		return e.u8(1)
	}
	return e.u8(0)
}

func (e encoder) addr(a types.Address) encoder {
	return append(e, a[:]...)
}

type decoder struct {
	b   []byte
	off int
}

func newDecoder(b []byte, size int, what string) (*decoder, error) {
	if len(b) != size {
		return nil, fmt.Errorf("%s record is %d bytes, expected %d", what, len(b), size)
	}
	return &decoder{b: b}, nil
}

func (d *decoder) u64() uint64 {
	v := binary.BigEndian.Uint64(d.b[d.off:])
	d.off += 8
	return v
}

func (d *decoder) u32() uint32 {
	v := binary.BigEndian.Uint32(d.b[d.off:])
	d.off += 4
	return v
}

func (d *decoder) u8() uint8 {
	v := d.b[d.off]
	d.off++
	return v
}

func (d *decoder) bool() bool {
	return d.u8() != 0
}

func (d *decoder) addr() types.Address {
	var a types.Address
	copy(a[:], d.b[d.off:d.off+32])
	d.off += 32
	return a
}

func EncodeFarm(f *staking.Farm) []byte {
	return encoder(make([]byte, 0, FarmSize)).
		u64(uint64(f.ID)).
		addr(f.Authority).
		addr(f.Vault).
		u64(uint64(f.Reward.Asset)).
		u64(f.Reward.Available).
		u64(f.Reward.Reserved)
}

func DecodeFarm(b []byte) (*staking.Farm, error) {
	d, err := newDecoder(b, FarmSize, "farm")
	if err != nil {
		return nil, err
	}
	return &staking.Farm{
		ID:        staking.FarmID(d.u64()),
		Authority: d.addr(),
		Vault:     d.addr(),
		Reward: staking.Reward{
			Asset:     staking.AssetID(d.u64()),
			Available: d.u64(),
			Reserved:  d.u64(),
		},
	}, nil
}

func EncodeLock(l *staking.Lock) []byte {
	return encoder(make([]byte, 0, LockSize)).
		u64(uint64(l.Farm)).
		u64(uint64(l.ID)).
		u64(l.Duration).
		u8(l.BonusFactor).
		u64(l.Cooldown)
}

func DecodeLock(b []byte) (*staking.Lock, error) {
	d, err := newDecoder(b, LockSize, "lock")
	if err != nil {
		return nil, err
	}
	return &staking.Lock{
		Farm:        staking.FarmID(d.u64()),
		ID:          staking.LockID(d.u64()),
		Duration:    d.u64(),
		BonusFactor: d.u8(),
		Cooldown:    d.u64(),
	}, nil
}

func EncodeFarmer(f *staking.Farmer) []byte {
	return encoder(make([]byte, 0, FarmerSize)).
		u64(uint64(f.Farm)).
		addr(f.Owner).
		u64(f.RewardRate).
		u64(f.AccruedRewards).
		u64(f.LastUpdateTs)
}

func DecodeFarmer(b []byte) (*staking.Farmer, error) {
	d, err := newDecoder(b, FarmerSize, "farmer")
	if err != nil {
		return nil, err
	}
	return &staking.Farmer{
		Farm:           staking.FarmID(d.u64()),
		Owner:          d.addr(),
		RewardRate:     d.u64(),
		AccruedRewards: d.u64(),
		LastUpdateTs:   d.u64(),
	}, nil
}

func EncodeWhitelist(w *staking.WhitelistProof) []byte {
	return encoder(make([]byte, 0, WhitelistSize)).
		u64(uint64(w.Farm)).
		u8(uint8(w.Type)).
		addr(w.Address).
		u64(uint64(w.Asset)).
		u64(w.RewardRate)
}

func DecodeWhitelist(b []byte) (*staking.WhitelistProof, error) {
	d, err := newDecoder(b, WhitelistSize, "whitelist")
	if err != nil {
		return nil, err
	}
	w := &staking.WhitelistProof{
		Farm:       staking.FarmID(d.u64()),
		Type:       staking.WhitelistType(d.u8()),
		Address:    d.addr(),
		Asset:      staking.AssetID(d.u64()),
		RewardRate: d.u64(),
	}
	if w.Type > staking.WhitelistAssociatedObject {
		return nil, staking.ErrInvalidWhitelistType
	}
	return w, nil
}

func EncodeReceipt(r *staking.StakeReceipt) []byte {
	e := encoder(make([]byte, 0, ReceiptSize)).
		u64(uint64(r.Farm)).
		addr(r.Owner).
		u64(uint64(r.Mint)).
		u64(uint64(r.Lock)).
		u64(r.StartTs)
	if r.EndTs != nil {
		e = e.bool(true).u64(*r.EndTs)
	} else {
		e = e.bool(false).u64(0)
	}
	e = e.u64(r.Amount).
		u64(r.RewardRate).
		bool(r.Released).
		u32(uint32(r.Objects.Len()))

	var slots [staking.MaxObjects]staking.AssociatedObject
	copy(slots[:], r.Objects.Slice())
	for _, obj := range slots {
		e = e.u64(uint64(obj.Asset)).u64(obj.Rate)
	}
	return e
}

func DecodeReceipt(b []byte) (*staking.StakeReceipt, error) {
	d, err := newDecoder(b, ReceiptSize, "receipt")
	if err != nil {
		return nil, err
	}
	r := &staking.StakeReceipt{
		Farm:    staking.FarmID(d.u64()),
		Owner:   d.addr(),
		Mint:    staking.AssetID(d.u64()),
		Lock:    staking.LockID(d.u64()),
		StartTs: d.u64(),
	}
	hasEnd, end := d.bool(), d.u64()
	if hasEnd {
		r.EndTs = &end
	}
	r.Amount = d.u64()
	r.RewardRate = d.u64()
	r.Released = d.bool()

	count := d.u32()
	if count > staking.MaxObjects {
		return nil, fmt.Errorf("receipt holds %d objects: %w", count, staking.ErrMaxObjectsExceeded)
	}
	objs := make([]staking.AssociatedObject, 0, count)
	for i := uint32(0); i < staking.MaxObjects; i++ {
		obj := staking.AssociatedObject{Asset: staking.AssetID(d.u64()), Rate: d.u64()}
		if i < count {
			objs = append(objs, obj)
		}
	}
	if r.Objects, err = staking.NewObjects(objs...); err != nil {
		return nil, err
	}
	return r, nil
}
