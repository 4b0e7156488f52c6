package fungible

import (
	"errors"

	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
)

// Errors aborting the call. Returned errors wrap one of them, so check with
// errors.Is.
var (
	ErrInsufficientBalance  = errors.New("the account doesn't have enough balance")
	ErrInsufficientDeposit  = errors.New("the attached deposit is less than the minimum storage balance")
	ErrBondViolation        = errors.New("the amount is greater than the available storage balance")
	ErrNonZeroBalance       = errors.New("can't unregister the account with the positive balance without force")
	ErrUnregisteredAccount  = errors.New("the account is not registered")
	ErrOverflow             = errors.New("balance overflow")
	ErrSelfTransfer         = errors.New("sender and receiver should be different")
	ErrZeroAmount           = errors.New("the amount should be a positive number")
	ErrMissingAttentionBond = common.ErrMissingAttentionBond

	ErrAlreadyRegistered  = errors.New("the account is already registered")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotInitialized     = errors.New("the contract is not initialized")
	ErrPrivateMethod      = common.ErrPrivateMethod
	ErrNotOwner           = common.ErrOwnerWitnessFailed
	ErrInsufficientGas    = errors.New("more gas is required")
	ErrInvalidAccount     = host.ErrInvalidAccountID
	ErrInvalidArguments   = errors.New("invalid arguments")
	ErrInvalidMetadata    = errors.New("invalid metadata")
	ErrUnknownMethod      = errors.New("unknown method")
)

var errNotFound = host.ErrNotFound

// overflowErr maps arithmetic errors to the ledger taxonomy.
func overflowErr(err error) error {
	if errors.Is(err, u128.ErrOverflow) {
		return ErrOverflow
	}
	return err
}
