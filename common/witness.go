package common

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/ft-contract/u128"
)

var (
	// ErrMissingAttentionBond appears when a state changing method requires
	// exactly one unit of native currency attached but it wasn't.
	ErrMissingAttentionBond = errors.New("requires attached deposit of exactly 1 unit")
	// ErrPrivateMethod appears when a callback-only method is called by
	// another account.
	ErrPrivateMethod = errors.New("method is private")
	// ErrOwnerWitnessFailed appears when the method must be called by the
	// contract owner but was not.
	ErrOwnerWitnessFailed = errors.New("owner witness check failed")
)

// Caller describes the invocation of the contract method.
type Caller interface {
	Predecessor() string
	CurrentAccount() string
	AttachedDeposit() u128.Int
}

var one = u128.From(1)

// AssertOneUnit checks that exactly one unit of native currency is attached
// to the call.
func AssertOneUnit(c Caller) error {
	if !c.AttachedDeposit().Eq(one) {
		return fmt.Errorf("%w, got %s", ErrMissingAttentionBond, c.AttachedDeposit())
	}
	return nil
}

// AssertPrivate checks that the contract calls itself (i.e. the method is
// executed as a continuation).
func AssertPrivate(c Caller, method string) error {
	if c.Predecessor() != c.CurrentAccount() {
		return fmt.Errorf("%w: %s", ErrPrivateMethod, method)
	}
	return nil
}

// CheckOwnerWitness checks that the predecessor is owner.
func CheckOwnerWitness(c Caller, owner string) error {
	if c.Predecessor() != owner {
		return ErrOwnerWitnessFailed
	}
	return nil
}
