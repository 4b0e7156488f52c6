package host

import (
	"errors"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
)

var (
	// ErrNotFound is returned by Context.Get for missing keys.
	ErrNotFound = storage.ErrKeyNotFound
	// ErrGasExhausted aborts a call which ran out of its prepaid gas.
	ErrGasExhausted = errors.New("exceeded the prepaid gas")
	// ErrViewCall is returned on attempt to change state from a view call.
	ErrViewCall = errors.New("state modification is not allowed in view calls")
	// ErrInvalidAccountID is returned for malformed account identifiers.
	ErrInvalidAccountID = errors.New("invalid account id")
	// ErrUnknownAccount is returned when an account doesn't exist on the chain.
	ErrUnknownAccount = errors.New("account doesn't exist")
	// ErrAccountExists is returned on attempt to create existing account.
	ErrAccountExists = errors.New("account already exists")
	// ErrNoContract is returned when a function call targets plain account.
	ErrNoContract = errors.New("account has no contract deployed")
	// ErrNotEnoughBalance is returned when native balance can't cover an
	// attached deposit or transfer.
	ErrNotEnoughBalance = errors.New("not enough native balance")
	// ErrStorageStake aborts a call leaving the account unable to pay for its
	// storage.
	ErrStorageStake = errors.New("not enough balance to cover storage")
	// ErrInvalidPromise is returned for unknown promise handles.
	ErrInvalidPromise = errors.New("invalid promise handle")
	// ErrNoPromiseResult is returned when requested result index is out of
	// range (e.g. function is not a callback).
	ErrNoPromiseResult = errors.New("promise result index out of range")
	// ErrUnknownTransaction is returned for unknown transaction IDs.
	ErrUnknownTransaction = errors.New("unknown transaction")
)

// ErrContractPanic is returned when contract code panics.
var ErrContractPanic = errors.New("contract panicked")
