package staking

import "fmt"

// Error is a staking failure with a stable numeric code. Each kind is a single
// sentinel value so callers branch with errors.Is.
type Error struct {
	Code int
	Name string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

const errorCodeBase = 6000

var (
	ErrCooldownNotOver       = newError(0, "CooldownIsNotOver", "cooldown is not over")
	ErrReserveRewardFailed   = newError(1, "CouldNotReserveReward", "could not reserve reward from the pool")
	ErrReleaseRewardFailed   = newError(2, "CouldNotReleaseReward", "could not release reward from the pool")
	ErrGemStillLocked        = newError(3, "GemStillLocked", "lock period has not elapsed")
	ErrGemStillStaked        = newError(4, "GemStillStaked", "must unstake and withdraw before staking again")
	ErrGemNotStaked          = newError(5, "GemNotStaked", "stake is not running")
	ErrAddressNotWhitelisted = newError(6, "AddressNotWhitelisted", "address is not whitelisted for this farm")
	ErrInvalidWhitelistType  = newError(7, "InvalidWhitelistType", "whitelist proof has the wrong type")
	ErrGemStillHasObjects    = newError(8, "GemStillHasObjects", "remove all associated objects before unstaking")
	ErrObjectNotFound        = newError(9, "ObjectNotFound", "object is not attached to this stake")
	ErrMaxObjectsExceeded    = newError(10, "MaxObjectsExceeded", "stake already holds the maximum number of objects")
	ErrArithmetic            = newError(11, "ArithmeticError", "arithmetic overflow or underflow")
	ErrRateMustBeGtZero      = newError(12, "RateMustBeGtZero", "reward rate must be greater than 0")
	ErrUnauthorized          = newError(13, "Unauthorized", "caller is not allowed to manage this farm")
)

var allErrors []*Error

func newError(offset int, name, msg string) *Error {
	e := &Error{Code: errorCodeBase + offset, Name: name, Msg: msg}
	allErrors = append(allErrors, e)
	return e
}

// ErrorByCode maps a numeric code back to its sentinel.
func ErrorByCode(code int) (*Error, bool) {
	for _, e := range allErrors {
		if e.Code == code {
			return e, true
		}
	}
	return nil, false
}
