// Package fungible contains client wrappers for the fungible token contract.
package fungible

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/ft-contract/fungible"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
)

// Invoker is used by ContractReader to call view methods.
type Invoker interface {
	View(receiver, method string, args []byte) ([]byte, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	Submit(tx host.Transaction) (string, error)
	Execute(tx host.Transaction) (*host.Outcome, error)
}

// ContractReader implements view contract methods.
type ContractReader struct {
	invoker Invoker
	hash    string
}

// Contract implements all contract methods on behalf of a signer.
type Contract struct {
	ContractReader
	actor  Actor
	signer string
}

// NewReader creates an instance of ContractReader using provided contract
// account and the given Invoker.
func NewReader(invoker Invoker, hash string) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract account, the
// given Actor and signer account.
func New(actor Actor, hash string, signer string) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, signer}
}

func (c *ContractReader) call(v any, method string, args any) error {
	var raw []byte
	if args != nil {
		var err error
		if raw, err = json.Marshal(args); err != nil {
			return err
		}
	}
	res, err := c.invoker.View(c.hash, method, raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(res, v)
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (int64, error) {
	var v int64
	err := c.call(&v, fungible.MethodVersion, nil)
	return v, err
}

// TotalSupply invokes `ft_total_supply` method of contract.
func (c *ContractReader) TotalSupply() (u128.Int, error) {
	var v u128.Int
	err := c.call(&v, fungible.MethodTotalSupply, nil)
	return v, err
}

// BalanceOf invokes `ft_balance_of` method of contract.
func (c *ContractReader) BalanceOf(account string) (u128.Int, error) {
	var v u128.Int
	err := c.call(&v, fungible.MethodBalanceOf, fungible.AccountArgs{Account: account})
	return v, err
}

// Metadata invokes `ft_metadata` method of contract.
func (c *ContractReader) Metadata() (fungible.Metadata, error) {
	var v fungible.Metadata
	err := c.call(&v, fungible.MethodMetadata, nil)
	return v, err
}

// StorageBalanceOf invokes `storage_balance_of` method of contract. nil is
// returned for unregistered accounts.
func (c *ContractReader) StorageBalanceOf(account string) (*fungible.StorageBalance, error) {
	var v *fungible.StorageBalance
	err := c.call(&v, fungible.MethodStorageBalanceOf, fungible.AccountArgs{Account: account})
	return v, err
}

// StorageBalanceBounds invokes `storage_balance_bounds` method of contract.
func (c *ContractReader) StorageBalanceBounds() (fungible.StorageBalanceBounds, error) {
	var v fungible.StorageBalanceBounds
	err := c.call(&v, fungible.MethodStorageBalanceBounds, nil)
	return v, err
}

func (c *Contract) makeCall(method string, deposit u128.Int, gas host.Gas, args any) (host.Transaction, error) {
	tx := host.Transaction{
		Signer:   c.signer,
		Receiver: c.hash,
		Method:   method,
		Deposit:  deposit,
		Gas:      gas,
	}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return tx, fmt.Errorf("marshal %s arguments: %w", method, err)
		}
		tx.Args = raw
	}
	return tx, nil
}

func (c *Contract) sendCall(method string, deposit u128.Int, gas host.Gas, args any) (string, error) {
	tx, err := c.makeCall(method, deposit, gas, args)
	if err != nil {
		return "", err
	}
	return c.actor.Submit(tx)
}

var oneUnit = u128.From(1)

// Init creates a transaction invoking `new` method of the contract.
// This transaction is immediately sent to the network.
// The value returned is its ID.
func (c *Contract) Init(owner string, totalSupply u128.Int, m fungible.Metadata) (string, error) {
	return c.sendCall(fungible.MethodNew, u128.Zero(), 0, fungible.NewArgs{Owner: owner, TotalSupply: totalSupply, Metadata: m})
}

// InitTransaction creates a transaction invoking `new` method of the
// contract. The transaction is returned to the caller.
func (c *Contract) InitTransaction(owner string, totalSupply u128.Int, m fungible.Metadata) (host.Transaction, error) {
	return c.makeCall(fungible.MethodNew, u128.Zero(), 0, fungible.NewArgs{Owner: owner, TotalSupply: totalSupply, Metadata: m})
}

// Transfer creates a transaction invoking `ft_transfer` method of the
// contract. This transaction is immediately sent to the network.
// The value returned is its ID.
func (c *Contract) Transfer(to string, amount u128.Int, memo *string) (string, error) {
	return c.sendCall(fungible.MethodTransfer, oneUnit, 0, fungible.TransferArgs{Receiver: to, Amount: amount, Memo: memo})
}

// TransferTransaction creates a transaction invoking `ft_transfer` method of
// the contract. The transaction is returned to the caller.
func (c *Contract) TransferTransaction(to string, amount u128.Int, memo *string) (host.Transaction, error) {
	return c.makeCall(fungible.MethodTransfer, oneUnit, 0, fungible.TransferArgs{Receiver: to, Amount: amount, Memo: memo})
}

// TransferCall creates a transaction invoking `ft_transfer_call` method of
// the contract with gas attached (zero means default).
// This transaction is immediately sent to the network.
// The value returned is its ID.
func (c *Contract) TransferCall(to string, amount u128.Int, memo *string, msg string, gas host.Gas) (string, error) {
	return c.sendCall(fungible.MethodTransferCall, oneUnit, gas,
		fungible.TransferCallArgs{Receiver: to, Amount: amount, Memo: memo, Msg: msg})
}

// TransferCallTransaction creates a transaction invoking `ft_transfer_call`
// method of the contract. The transaction is returned to the caller.
func (c *Contract) TransferCallTransaction(to string, amount u128.Int, memo *string, msg string, gas host.Gas) (host.Transaction, error) {
	return c.makeCall(fungible.MethodTransferCall, oneUnit, gas,
		fungible.TransferCallArgs{Receiver: to, Amount: amount, Memo: memo, Msg: msg})
}

// StorageDeposit creates a transaction invoking `storage_deposit` method of
// the contract with deposit attached.
// This transaction is immediately sent to the network.
// The value returned is its ID.
func (c *Contract) StorageDeposit(account *string, registrationOnly *bool, deposit u128.Int) (string, error) {
	return c.sendCall(fungible.MethodStorageDeposit, deposit, 0,
		fungible.StorageDepositArgs{Account: account, RegistrationOnly: registrationOnly})
}

// StorageDepositTransaction creates a transaction invoking `storage_deposit`
// method of the contract. The transaction is returned to the caller.
func (c *Contract) StorageDepositTransaction(account *string, registrationOnly *bool, deposit u128.Int) (host.Transaction, error) {
	return c.makeCall(fungible.MethodStorageDeposit, deposit, 0,
		fungible.StorageDepositArgs{Account: account, RegistrationOnly: registrationOnly})
}

// StorageWithdraw creates a transaction invoking `storage_withdraw` method of
// the contract. This transaction is immediately sent to the network.
// The value returned is its ID.
func (c *Contract) StorageWithdraw(amount *u128.Int) (string, error) {
	return c.sendCall(fungible.MethodStorageWithdraw, oneUnit, 0, fungible.StorageWithdrawArgs{Amount: amount})
}

// StorageWithdrawTransaction creates a transaction invoking
// `storage_withdraw` method of the contract. The transaction is returned to
// the caller.
func (c *Contract) StorageWithdrawTransaction(amount *u128.Int) (host.Transaction, error) {
	return c.makeCall(fungible.MethodStorageWithdraw, oneUnit, 0, fungible.StorageWithdrawArgs{Amount: amount})
}

// StorageUnregister creates a transaction invoking `storage_unregister`
// method of the contract. This transaction is immediately sent to the
// network. The value returned is its ID.
func (c *Contract) StorageUnregister(force bool) (string, error) {
	return c.sendCall(fungible.MethodStorageUnregister, oneUnit, 0, fungible.StorageUnregisterArgs{Force: &force})
}

// StorageUnregisterTransaction creates a transaction invoking
// `storage_unregister` method of the contract. The transaction is returned
// to the caller.
func (c *Contract) StorageUnregisterTransaction(force bool) (host.Transaction, error) {
	return c.makeCall(fungible.MethodStorageUnregister, oneUnit, 0, fungible.StorageUnregisterArgs{Force: &force})
}

// UpdateMetadata creates a transaction invoking `update_metadata` method of
// the contract. This transaction is immediately sent to the network.
// The value returned is its ID.
func (c *Contract) UpdateMetadata(m fungible.Metadata) (string, error) {
	return c.sendCall(fungible.MethodUpdateMetadata, oneUnit, 0, fungible.UpdateMetadataArgs{Metadata: m})
}

// UpdateOwner creates a transaction invoking `update_owner` method of the
// contract. This transaction is immediately sent to the network.
// The value returned is its ID.
func (c *Contract) UpdateOwner(newOwner string) (string, error) {
	return c.sendCall(fungible.MethodUpdateOwner, oneUnit, 0, fungible.UpdateOwnerArgs{NewOwner: newOwner})
}

// Execute sends tx and waits for its outcome. Failed transactions are
// reported as errors.
func (c *Contract) Execute(tx host.Transaction) (*host.Outcome, error) {
	o, err := c.actor.Execute(tx)
	if err != nil {
		return nil, err
	}
	if o.Status != host.StatusSuccess {
		return o, fmt.Errorf("%s failed: %w", tx.Method, o.Err)
	}
	return o, nil
}

// Unwrap decodes JSON result of the outcome into T.
func Unwrap[T any](o *host.Outcome, err error) (T, error) {
	var v T
	if err != nil {
		return v, err
	}
	if o.Status != host.StatusSuccess {
		return v, fmt.Errorf("transaction %s failed: %w", o.TxID, o.Err)
	}
	if err := json.Unmarshal(o.Value, &v); err != nil {
		return v, fmt.Errorf("decode result: %w", err)
	}
	return v, nil
}

// TransferEventsFromOutcome retrieves a set of all emitted events with
// "ft_transfer" name from the provided outcome.
func TransferEventsFromOutcome(o *host.Outcome) ([]fungible.TransferData, error) {
	return eventsFromOutcome[fungible.TransferData](o, fungible.EventTransfer)
}

// MintEventsFromOutcome retrieves a set of all emitted events with "ft_mint"
// name from the provided outcome.
func MintEventsFromOutcome(o *host.Outcome) ([]fungible.MintData, error) {
	return eventsFromOutcome[fungible.MintData](o, fungible.EventMint)
}

// BurnEventsFromOutcome retrieves a set of all emitted events with "ft_burn"
// name from the provided outcome.
func BurnEventsFromOutcome(o *host.Outcome) ([]fungible.BurnData, error) {
	return eventsFromOutcome[fungible.BurnData](o, fungible.EventBurn)
}

func eventsFromOutcome[T any](o *host.Outcome, name string) ([]T, error) {
	if o == nil {
		return nil, errors.New("nil outcome")
	}

	var res []T
	for i, r := range o.Receipts {
		for j, l := range r.Logs {
			ev, ok := fungible.ParseEvent(l)
			if !ok || ev.Event != name {
				continue
			}
			var data []T
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				return nil, fmt.Errorf("failed to decode %s event (receipt #%d, log #%d): %w", name, i, j, err)
			}
			res = append(res, data...)
		}
	}
	return res, nil
}
