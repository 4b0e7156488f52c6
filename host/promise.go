package host

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
)

// PromiseHandle identifies a promise created within the current call.
type PromiseHandle int

// PromiseStatus is an outcome kind of the awaited receipt.
type PromiseStatus byte

const (
	// PromiseSuccessful means the receipt has been executed and returned Value.
	PromiseSuccessful PromiseStatus = iota
	// PromiseFailed means the receipt aborted (error, panic, gas exhaustion,
	// missing contract).
	PromiseFailed
)

// String implements fmt.Stringer.
func (s PromiseStatus) String() string {
	if s == PromiseSuccessful {
		return "successful"
	}
	return "failed"
}

// PromiseResult is an outcome of a receipt delivered to its continuation.
type PromiseResult struct {
	Status PromiseStatus
	// Raw value returned by the receipt, nil on failure.
	Value []byte
}

// Receipt is a unit of execution: either a function call on a contract or
// a native currency transfer (when Method is empty).
type Receipt struct {
	ID          string
	TxID        string
	Signer      string
	Predecessor string
	Receiver    string
	Method      string
	Args        []byte
	Deposit     u128.Int
	Gas         Gas

	deps    []string
	results []PromiseResult
}

type actionKind byte

const (
	actionCall actionKind = iota
	actionContinuation
	actionTransfer
)

// action is a promise recorded by the call. Actions are turned into receipts
// only if the call succeeds.
type action struct {
	kind     actionKind
	receiver string
	method   string
	args     []byte
	deposit  u128.Int
	gas      Gas
	// dependency handle for continuations
	after PromiseHandle
}

// receiptID derives ID of the n-th receipt produced by parent.
func receiptID(parent string, n int) string {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], uint32(n))
	h := hash.Sha256(append([]byte(parent), idx[:]...))
	return base58.Encode(h.BytesBE())
}

// txID derives transaction ID from its random nonce.
func txID(nonce []byte) string {
	return base58.Encode(hash.Sha256(nonce).BytesBE())
}
