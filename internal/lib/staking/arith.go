package staking

import (
	"github.com/ethereum/go-ethereum/common/math"
)

func checkedAdd(a, b uint64) (uint64, error) {
	v, overflow := math.SafeAdd(a, b)
	if overflow {
		return 0, ErrArithmetic
	}
	return v, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	v, underflow := math.SafeSub(a, b)
	if underflow {
		return 0, ErrArithmetic
	}
	return v, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	v, overflow := math.SafeMul(a, b)
	if overflow {
		return 0, ErrArithmetic
	}
	return v, nil
}
