package fungible

import (
	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
)

// Storage is the persistent key-value namespace of the contract.
type Storage = common.Storage

// Caller exposes information about the current invocation.
type Caller interface {
	common.Caller
	PrepaidGas() host.Gas
	UsedGas() host.Gas
}

// Scheduler is the host promise service. Dispatched calls and transfers are
// performed after the current call completes; continuations receive the
// outcome of the promise they are registered on.
type Scheduler interface {
	Dispatch(receiver, method string, args []byte, deposit u128.Int, gas host.Gas) (host.PromiseHandle, error)
	RegisterContinuation(h host.PromiseHandle, method string, args []byte, gas host.Gas) (host.PromiseHandle, error)
	ReturnPromise(h host.PromiseHandle) error
	TransferNative(receiver string, amount u128.Int) error
	PromiseResultsCount() int
	PromiseResult(i int) (host.PromiseResult, error)
}

// Logger records contract logs.
type Logger interface {
	Log(msg string)
}

// Env groups everything the contract needs from the host.
type Env interface {
	Storage
	Caller
	Scheduler
	Logger
}

var _ Env = (*host.Context)(nil)
