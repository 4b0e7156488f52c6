/*
Package hosttest provides helpers to test contracts executed by host.Chain.
It mirrors neotest: Executor owns the chain and accounts, ContractInvoker
sends transactions to one contract on behalf of a signer.
*/
package hosttest

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// DefaultBalance is the native balance of accounts created by NewAccount.
var DefaultBalance = mustMul(host.OneNative, u128.From(1000))

func mustMul(x, y u128.Int) u128.Int {
	v, err := x.Mul(y)
	if err != nil {
		panic(err)
	}
	return v
}

// Native returns n native coins.
func Native(n uint64) u128.Int {
	return mustMul(host.OneNative, u128.From(n))
}

// Executor is a wrapper over chain used in tests.
type Executor struct {
	Chain *host.Chain

	accounts int
}

// NewExecutor returns Executor over a fresh in-memory chain.
func NewExecutor(t testing.TB, opts ...host.Option) *Executor {
	c := host.NewChain(storage.NewMemoryStore(), zaptest.NewLogger(t), opts...)
	t.Cleanup(func() { _ = c.Close() })
	return &Executor{Chain: c}
}

// NewAccount creates a new plain account with DefaultBalance.
func (e *Executor) NewAccount(t testing.TB) string {
	e.accounts++
	id := fmt.Sprintf("acc%d.test", e.accounts)
	require.NoError(t, e.Chain.CreateAccount(id, DefaultBalance))
	return id
}

// DeployContract deploys code to id with the given native balance.
func (e *Executor) DeployContract(t testing.TB, id string, code host.Contract, balance u128.Int) {
	require.NoError(t, e.Chain.Deploy(id, code, balance))
}

// Balance returns native balance of the account.
func (e *Executor) Balance(t testing.TB, id string) u128.Int {
	b, err := e.Chain.Balance(id)
	require.NoError(t, err)
	return b
}

// Invoker returns invoker of the contract signing with signer.
func (e *Executor) Invoker(contract, signer string) *ContractInvoker {
	return &ContractInvoker{Executor: e, Hash: contract, Signer: signer}
}

// ContractInvoker invokes methods of a single contract.
type ContractInvoker struct {
	*Executor

	Hash    string
	Signer  string
	Deposit u128.Int
	Gas     host.Gas
}

// WithSigners returns a copy of the invoker signing with signer.
func (c *ContractInvoker) WithSigners(signer string) *ContractInvoker {
	res := *c
	res.Signer = signer
	return &res
}

// WithDeposit returns a copy of the invoker attaching deposit to calls.
func (c *ContractInvoker) WithDeposit(deposit u128.Int) *ContractInvoker {
	res := *c
	res.Deposit = deposit
	return &res
}

// WithGas returns a copy of the invoker attaching gas to calls.
func (c *ContractInvoker) WithGas(gas host.Gas) *ContractInvoker {
	res := *c
	res.Gas = gas
	return &res
}

// Args marshals method arguments, nil means no arguments.
func Args(t testing.TB, args any) []byte {
	if args == nil {
		return nil
	}
	if raw, ok := args.([]byte); ok {
		return raw
	}
	data, err := json.Marshal(args)
	require.NoError(t, err)
	return data
}

func (c *ContractInvoker) tx(t testing.TB, method string, args any) host.Transaction {
	return host.Transaction{
		Signer:   c.Signer,
		Receiver: c.Hash,
		Method:   method,
		Args:     Args(t, args),
		Deposit:  c.Deposit,
		Gas:      c.Gas,
	}
}

// Submit queues the transaction without executing it.
func (c *ContractInvoker) Submit(t testing.TB, method string, args any) string {
	id, err := c.Chain.Submit(c.tx(t, method, args))
	require.NoError(t, err)
	return id
}

// Execute runs the transaction to completion and returns its outcome.
func (c *ContractInvoker) Execute(t testing.TB, method string, args any) *host.Outcome {
	o, err := c.Chain.Execute(c.tx(t, method, args))
	require.NoError(t, err)
	return o
}

// Invoke executes the transaction and checks that it succeeds with the
// result equal to expected (as JSON). nil expected skips result check.
func (c *ContractInvoker) Invoke(t testing.TB, expected any, method string, args any) *host.Outcome {
	o := c.Execute(t, method, args)
	require.Equal(t, host.StatusSuccess, o.Status, "%s failed: %v", method, o.Err)
	if expected != nil {
		exp, err := json.Marshal(expected)
		require.NoError(t, err)
		require.JSONEq(t, string(exp), string(o.Value))
	}
	return o
}

// InvokeFail executes the transaction and checks that it fails with an
// error containing substr.
func (c *ContractInvoker) InvokeFail(t testing.TB, substr string, method string, args any) *host.Outcome {
	o := c.Execute(t, method, args)
	require.Equal(t, host.StatusFailure, o.Status)
	require.Error(t, o.Err)
	require.Contains(t, o.Err.Error(), substr)
	return o
}

// View performs a read-only call and decodes its JSON result into v.
func (c *ContractInvoker) View(t testing.TB, v any, method string, args any) {
	res, err := c.Chain.View(c.Hash, method, Args(t, args))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(res, v))
}

// ViewFail performs a read-only call and checks that it fails with an error
// containing substr.
func (c *ContractInvoker) ViewFail(t testing.TB, substr string, method string, args any) {
	_, err := c.Chain.View(c.Hash, method, Args(t, args))
	require.Error(t, err)
	require.Contains(t, err.Error(), substr)
}
