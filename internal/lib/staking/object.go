package staking

import "iter"

type (
	AssetID uint64
	FarmID  uint64
	LockID  uint64
)

// MaxObjects is the number of object slots a stake receipt carries.
const MaxObjects = 3

// AssociatedObject is an auxiliary asset attached to a running stake. Rate is
// its contribution to the stake's reward rate.
type AssociatedObject struct {
	Asset AssetID
	Rate  uint64
}

// Objects is a fixed-capacity set of attached objects. Only the first n slots
// are meaningful; order among them carries no meaning.
type Objects struct {
	slots [MaxObjects]AssociatedObject
	n     int
}

func (o *Objects) Len() int {
	return o.n
}

func (o *Objects) Full() bool {
	return o.n >= MaxObjects
}

func (o *Objects) Slice() []AssociatedObject {
	return append([]AssociatedObject(nil), o.slots[:o.n]...)
}

func (o *Objects) All() iter.Seq[AssociatedObject] {
	return func(yield func(AssociatedObject) bool) {
		for i := 0; i < o.n; i++ {
			if !yield(o.slots[i]) {
				return
			}
		}
	}
}

// TotalRate sums the rates of all attached objects.
func (o *Objects) TotalRate() (uint64, error) {
	var total uint64
	for obj := range o.All() {
		var err error
		if total, err = checkedAdd(total, obj.Rate); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (o *Objects) Find(asset AssetID) (AssociatedObject, bool) {
	if i := o.index(asset); i >= 0 {
		return o.slots[i], true
	}
	return AssociatedObject{}, false
}

func (o *Objects) push(obj AssociatedObject) error {
	if o.Full() {
		return ErrMaxObjectsExceeded
	}
	o.slots[o.n] = obj
	o.n++
	return nil
}

// swapRemove removes the object for asset by moving the last entry into its slot.
func (o *Objects) swapRemove(asset AssetID) (AssociatedObject, error) {
	i := o.index(asset)
	if i < 0 {
		return AssociatedObject{}, ErrObjectNotFound
	}
	removed := o.slots[i]
	last := o.n - 1
	o.slots[i] = o.slots[last]
	o.slots[last] = AssociatedObject{}
	o.n--
	return removed, nil
}

func (o *Objects) index(asset AssetID) int {
	for i := 0; i < o.n; i++ {
		if o.slots[i].Asset == asset {
			return i
		}
	}
	return -1
}

// NewObjects builds a set from objs. It fails with ErrMaxObjectsExceeded when
// more than MaxObjects entries are given.
func NewObjects(objs ...AssociatedObject) (Objects, error) {
	var o Objects
	for _, obj := range objs {
		if err := o.push(obj); err != nil {
			return Objects{}, err
		}
	}
	return o, nil
}
