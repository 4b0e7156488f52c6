package host

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
)

// Context is an execution context of a single receipt. It gives a contract
// access to its storage namespace, call information and promise API. All
// writes go to a call-local cache which is persisted only if the call
// succeeds.
type Context struct {
	cache   *storage.MemCachedStore
	receipt *Receipt
	view    bool

	gas   gasMeter
	state AccountState
	logs  []string

	actions  []action
	returned PromiseHandle
}

func newContext(cache *storage.MemCachedStore, r *Receipt, st AccountState, view bool) *Context {
	return &Context{
		cache:    cache,
		receipt:  r,
		view:     view,
		gas:      gasMeter{limit: r.Gas},
		state:    st,
		returned: -1,
	}
}

// CurrentAccount returns account the contract is deployed to.
func (c *Context) CurrentAccount() string { return c.receipt.Receiver }

// Predecessor returns account which issued the receipt: transaction signer
// for the first receipt, calling contract for cross-contract calls.
func (c *Context) Predecessor() string { return c.receipt.Predecessor }

// Signer returns account which signed the original transaction.
func (c *Context) Signer() string { return c.receipt.Signer }

// AttachedDeposit returns native amount attached to the call.
func (c *Context) AttachedDeposit() u128.Int { return c.receipt.Deposit }

// PrepaidGas returns gas budget of the call.
func (c *Context) PrepaidGas() Gas { return c.gas.limit }

// UsedGas returns gas burnt (or attached to promises) so far.
func (c *Context) UsedGas() Gas { return c.gas.used }

// UseGas charges g from the call budget.
func (c *Context) UseGas(g Gas) error { return c.gas.use(g) }

// IsView reports whether the call is read-only.
func (c *Context) IsView() bool { return c.view }

// AccountBalance returns native balance of the current account.
func (c *Context) AccountBalance() u128.Int { return c.state.Balance }

// StorageUsage returns bytes occupied by the current account storage.
func (c *Context) StorageUsage() uint64 { return c.state.StorageUsage }

// Get returns value stored by key. ErrNotFound is returned for missing keys.
func (c *Context) Get(key []byte) ([]byte, error) {
	if err := c.gas.use(CostStorageRead + Gas(len(key))*CostStorageByte); err != nil {
		return nil, err
	}
	v, err := c.cache.Get(dataKey(c.receipt.Receiver, key))
	if err != nil {
		return nil, err
	}
	if err := c.gas.use(Gas(len(v)) * CostStorageByte); err != nil {
		return nil, err
	}
	return v, nil
}

// Put stores value by key.
func (c *Context) Put(key, value []byte) error {
	if c.view {
		return ErrViewCall
	}
	if err := c.gas.use(CostStorageWrite + Gas(len(key)+len(value))*CostStorageByte); err != nil {
		return err
	}
	k := dataKey(c.receipt.Receiver, key)
	old, err := c.cache.Get(k)
	switch {
	case err == nil:
		c.state.StorageUsage -= recordSize(key, old)
	case !errors.Is(err, storage.ErrKeyNotFound):
		return fmt.Errorf("read previous value: %w", err)
	}
	c.state.StorageUsage += recordSize(key, value)
	c.cache.Put(k, value)
	return nil
}

// Delete removes value stored by key. Deleting missing key is a no-op.
func (c *Context) Delete(key []byte) error {
	if c.view {
		return ErrViewCall
	}
	if err := c.gas.use(CostStorageWrite); err != nil {
		return err
	}
	k := dataKey(c.receipt.Receiver, key)
	old, err := c.cache.Get(k)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("read previous value: %w", err)
	}
	c.state.StorageUsage -= recordSize(key, old)
	c.cache.Delete(k)
	return nil
}

// Log records a message in the call outcome. Running out of gas here aborts
// the call when it returns.
func (c *Context) Log(msg string) {
	if c.gas.use(CostLog) != nil {
		return
	}
	c.logs = append(c.logs, msg)
}

func (c *Context) withdraw(amount u128.Int) error {
	if amount.IsZero() {
		return nil
	}
	b, err := c.state.Balance.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: have %s, need %s", ErrNotEnoughBalance, c.state.Balance, amount)
	}
	c.state.Balance = b
	return nil
}

// Dispatch schedules a function call on receiver with the given deposit and
// gas. The call is performed after the current one completes successfully.
func (c *Context) Dispatch(receiver, method string, args []byte, deposit u128.Int, gas Gas) (PromiseHandle, error) {
	if c.view {
		return -1, ErrViewCall
	}
	if err := ValidateAccountID(receiver); err != nil {
		return -1, err
	}
	if err := c.gas.use(CostDispatch + gas); err != nil {
		return -1, err
	}
	if err := c.withdraw(deposit); err != nil {
		return -1, err
	}
	c.actions = append(c.actions, action{
		kind:     actionCall,
		receiver: receiver,
		method:   method,
		args:     args,
		deposit:  deposit,
		gas:      gas,
		after:    -1,
	})
	return PromiseHandle(len(c.actions) - 1), nil
}

// RegisterContinuation schedules method of the current contract to be called
// with args (bound state) once the promise h is resolved. Outcome of h is
// available to the continuation via PromiseResult(0).
func (c *Context) RegisterContinuation(h PromiseHandle, method string, args []byte, gas Gas) (PromiseHandle, error) {
	if c.view {
		return -1, ErrViewCall
	}
	if !c.validHandle(h) {
		return -1, ErrInvalidPromise
	}
	if err := c.gas.use(CostDispatch + gas); err != nil {
		return -1, err
	}
	c.actions = append(c.actions, action{
		kind:     actionContinuation,
		receiver: c.receipt.Receiver,
		method:   method,
		args:     args,
		gas:      gas,
		after:    h,
	})
	return PromiseHandle(len(c.actions) - 1), nil
}

// ReturnPromise makes result of h the result of the current call.
func (c *Context) ReturnPromise(h PromiseHandle) error {
	if !c.validHandle(h) || c.actions[h].kind == actionTransfer {
		return ErrInvalidPromise
	}
	c.returned = h
	return nil
}

// TransferNative sends amount of native currency from the current account to
// receiver.
func (c *Context) TransferNative(receiver string, amount u128.Int) error {
	if c.view {
		return ErrViewCall
	}
	if err := ValidateAccountID(receiver); err != nil {
		return err
	}
	if err := c.gas.use(CostDispatch); err != nil {
		return err
	}
	if err := c.withdraw(amount); err != nil {
		return err
	}
	c.actions = append(c.actions, action{
		kind:     actionTransfer,
		receiver: receiver,
		deposit:  amount,
		after:    -1,
	})
	return nil
}

// PromiseResultsCount returns number of results delivered to the call.
func (c *Context) PromiseResultsCount() int { return len(c.receipt.results) }

// PromiseResult returns i-th delivered result.
func (c *Context) PromiseResult(i int) (PromiseResult, error) {
	if i < 0 || i >= len(c.receipt.results) {
		return PromiseResult{}, ErrNoPromiseResult
	}
	return c.receipt.results[i], nil
}

func (c *Context) validHandle(h PromiseHandle) bool {
	return h >= 0 && int(h) < len(c.actions)
}
