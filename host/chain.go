package host

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StorageByteCost is the native amount locked per byte of contract storage.
var StorageByteCost = u128.MustParse("10000000000000000000")

// OneNative is the number of smallest units in one native coin.
var OneNative = u128.MustParse("1000000000000000000000000")

// Contract is a code deployed to an account. Invoke executes method with JSON
// args and returns raw result. Any returned error (or panic) aborts the call
// and discards all its state changes.
type Contract interface {
	Invoke(ctx *Context, method string, args []byte) ([]byte, error)
}

// Status is an execution status of a receipt or transaction.
type Status byte

const (
	StatusPending Status = iota
	StatusSuccess
	StatusFailure
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	default:
		return "failure"
	}
}

// Transaction is a signed request to call a contract method.
type Transaction struct {
	Signer   string
	Receiver string
	Method   string
	Args     []byte
	Deposit  u128.Int
	// Zero means DefaultGas.
	Gas Gas
}

// ReceiptOutcome describes single receipt execution.
type ReceiptOutcome struct {
	ID          string
	Predecessor string
	Receiver    string
	Method      string
	Status      Status
	Value       []byte
	Err         error
	Logs        []string
	GasUsed     Gas
}

// Outcome is a transaction execution result. Final Status/Value/Err are
// those of the transaction's first receipt or, if it returned a promise, of
// the promise it returned (recursively).
type Outcome struct {
	TxID     string
	Status   Status
	Value    []byte
	Err      error
	Receipts []ReceiptOutcome
}

// Logs returns logs of all receipts in execution order.
func (o *Outcome) Logs() []string {
	var res []string
	for i := range o.Receipts {
		res = append(res, o.Receipts[i].Logs...)
	}
	return res
}

type resolved struct {
	PromiseResult
	err error
}

// Option configures Chain.
type Option func(*Chain)

// WithMetrics registers chain metrics in reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Chain) {
		c.metrics = newMetrics(reg)
	}
}

// Chain executes transactions against contracts deployed to its accounts.
// Receipts are executed one at a time in FIFO order, so contract code never
// runs concurrently. Outcome of each function call is delivered exactly once
// to continuations waiting for it.
type Chain struct {
	mu sync.Mutex

	log     *zap.Logger
	lower   storage.Store
	store   *storage.MemCachedStore
	metrics *metrics

	contracts map[string]Contract

	queue    []*Receipt
	waiting  map[string]*Receipt
	waiters  map[string][]string
	forwards map[string][]string
	results  map[string]resolved
	txs      map[string]*Outcome
}

// NewChain returns Chain working over st.
func NewChain(st storage.Store, log *zap.Logger, opts ...Option) *Chain {
	c := &Chain{
		log:       log,
		lower:     st,
		store:     storage.NewMemCachedStore(st),
		contracts: make(map[string]Contract),
		waiting:   make(map[string]*Receipt),
		waiters:   make(map[string][]string),
		forwards:  make(map[string][]string),
		results:   make(map[string]resolved),
		txs:       make(map[string]*Outcome),
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	return c
}

// CreateAccount creates plain account with initial native balance.
func (c *Chain) CreateAccount(id string, balance u128.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createAccount(id, balance, false)
}

// Deploy creates account holding code.
func (c *Chain) Deploy(id string, code Contract, balance u128.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.createAccount(id, balance, true); err != nil {
		return err
	}
	c.contracts[id] = code
	c.log.Info("contract deployed", zap.String("account", id))
	return nil
}

// Attach binds code to already existing contract account (e.g. after chain
// restart from persistent storage).
func (c *Chain) Attach(id string, code Contract) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, err := getAccount(c.store, id)
	if err != nil {
		return err
	}
	if !st.HasContract {
		return fmt.Errorf("%w: %s", ErrNoContract, id)
	}
	c.contracts[id] = code
	return nil
}

func (c *Chain) createAccount(id string, balance u128.Int, contract bool) error {
	if err := ValidateAccountID(id); err != nil {
		return err
	}
	_, err := getAccount(c.store, id)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrAccountExists, id)
	}
	if !errors.Is(err, ErrUnknownAccount) {
		return err
	}
	return putAccount(c.store, id, AccountState{Balance: balance, HasContract: contract})
}

// Account returns chain-level state of the account.
func (c *Chain) Account(id string) (AccountState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return getAccount(c.store, id)
}

// Balance returns native balance of the account.
func (c *Chain) Balance(id string) (u128.Int, error) {
	st, err := c.Account(id)
	return st.Balance, err
}

// IterateStorage calls f for each storage record of the contract in key
// order until f returns false.
func (c *Chain) IterateStorage(id string, f func(key, value []byte) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := dataPrefix(id)
	c.store.Seek(storage.SeekRange{Prefix: prefix}, func(k, v []byte) bool {
		k = bytes.TrimPrefix(k, prefix)
		return f(bytes.Clone(k), bytes.Clone(v))
	})
}

// Submit validates tx, charges attached deposit from the signer and queues
// the first receipt. Returned ID can be used to get transaction Outcome.
func (c *Chain) Submit(tx Transaction) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ValidateAccountID(tx.Signer); err != nil {
		return "", fmt.Errorf("signer: %w", err)
	}
	if err := ValidateAccountID(tx.Receiver); err != nil {
		return "", fmt.Errorf("receiver: %w", err)
	}
	if tx.Gas == 0 {
		tx.Gas = DefaultGas
	}
	if tx.Gas > MaxGas {
		return "", fmt.Errorf("gas %d exceeds limit %d", tx.Gas, MaxGas)
	}

	cache := storage.NewMemCachedStore(c.store)
	st, err := getAccount(cache, tx.Signer)
	if err != nil {
		return "", err
	}
	st.Balance, err = st.Balance.Sub(tx.Deposit)
	if err != nil {
		return "", fmt.Errorf("%w: deposit %s", ErrNotEnoughBalance, tx.Deposit)
	}
	if err := putAccount(cache, tx.Signer, st); err != nil {
		return "", err
	}
	if _, err := cache.Persist(); err != nil {
		return "", fmt.Errorf("persist signer state: %w", err)
	}

	nonce := uuid.New()
	id := txID(nonce[:])
	c.txs[id] = &Outcome{TxID: id}
	c.queue = append(c.queue, &Receipt{
		ID:          id,
		TxID:        id,
		Signer:      tx.Signer,
		Predecessor: tx.Signer,
		Receiver:    tx.Receiver,
		Method:      tx.Method,
		Args:        tx.Args,
		Deposit:     tx.Deposit,
		Gas:         tx.Gas,
	})
	c.metrics.txs.Inc()
	return id, nil
}

// Pending returns number of receipts ready for execution.
func (c *Chain) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Step executes the next ready receipt. It returns false if there is none.
func (c *Chain) Step() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return false
	}
	r := c.queue[0]
	c.queue = c.queue[1:]
	c.execute(r)
	return true
}

// Run executes receipts until the queue is empty and persists the resulting
// state into the underlying store.
func (c *Chain) Run() error {
	for c.Step() {
	}
	return c.Persist()
}

// Execute submits tx and runs the chain until all receipts are executed.
func (c *Chain) Execute(tx Transaction) (*Outcome, error) {
	id, err := c.Submit(tx)
	if err != nil {
		return nil, err
	}
	if err := c.Run(); err != nil {
		return nil, err
	}
	return c.Outcome(id)
}

// Outcome returns current outcome of the transaction.
func (c *Chain) Outcome(id string) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.txs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
	}
	res := *o
	res.Receipts = slices.Clone(o.Receipts)
	return &res, nil
}

// View performs read-only call of the contract method.
func (c *Chain) View(receiver, method string, args []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &Receipt{Receiver: receiver, Method: method, Args: args, Gas: ViewGas}
	cache := storage.NewMemCachedStore(c.store)
	v, _, err := c.call(cache, r, true)
	return v, err
}

// Persist flushes executed state into the underlying store.
func (c *Chain) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.store.Persist(); err != nil {
		return fmt.Errorf("persist chain state: %w", err)
	}
	return nil
}

// Close persists the state and closes the underlying store.
func (c *Chain) Close() error {
	if err := c.Persist(); err != nil {
		return err
	}
	return c.lower.Close()
}

func (c *Chain) execute(r *Receipt) {
	out := ReceiptOutcome{
		ID:          r.ID,
		Predecessor: r.Predecessor,
		Receiver:    r.Receiver,
		Method:      r.Method,
	}

	if r.Method == "" {
		err := c.credit(r.Receiver, r.Deposit)
		out.Err = err
		out.Status = StatusSuccess
		if err != nil {
			out.Status = StatusFailure
		}
		c.finish(r, out)
		c.deliver(r.ID, resolved{PromiseResult: PromiseResult{Status: statusToPromise(out.Status)}, err: err})
		return
	}

	cache := storage.NewMemCachedStore(c.store)
	value, ctx, err := c.call(cache, r, false)
	if ctx != nil {
		out.Logs = ctx.logs
		out.GasUsed = ctx.gas.used
	}
	if err == nil {
		if _, err = cache.Persist(); err != nil {
			err = fmt.Errorf("persist call state: %w", err)
		}
	}
	if err != nil {
		out.Status, out.Err = StatusFailure, err
		c.log.Info("receipt failed",
			zap.String("id", r.ID),
			zap.String("receiver", r.Receiver),
			zap.String("method", r.Method),
			zap.Error(err))
		if rErr := c.credit(r.Predecessor, r.Deposit); rErr != nil {
			c.log.Warn("deposit refund failed", zap.String("id", r.ID), zap.Error(rErr))
		}
		c.finish(r, out)
		c.deliver(r.ID, resolved{PromiseResult: PromiseResult{Status: PromiseFailed}, err: err})
		return
	}

	out.Status, out.Value = StatusSuccess, value
	c.finish(r, out)

	ids := c.emit(r, ctx)
	if ctx.returned >= 0 {
		target := ids[ctx.returned]
		c.forwards[target] = append(c.forwards[target], r.ID)
		return
	}
	c.deliver(r.ID, resolved{PromiseResult: PromiseResult{Status: PromiseSuccessful, Value: value}})
}

// call runs r on the contract code. Writes are left in cache.
func (c *Chain) call(cache *storage.MemCachedStore, r *Receipt, view bool) ([]byte, *Context, error) {
	st, err := getAccount(cache, r.Receiver)
	if err != nil {
		return nil, nil, err
	}
	code, ok := c.contracts[r.Receiver]
	if !st.HasContract || !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoContract, r.Receiver)
	}
	st.Balance, err = st.Balance.Add(r.Deposit)
	if err != nil {
		return nil, nil, fmt.Errorf("credit attached deposit: %w", err)
	}

	ctx := newContext(cache, r, st, view)
	if err := ctx.UseGas(CostInvoke); err != nil {
		return nil, ctx, err
	}
	value, err := safeInvoke(code, ctx, r.Method, r.Args)
	if err != nil {
		return nil, ctx, err
	}
	if ctx.gas.err != nil {
		return nil, ctx, ctx.gas.err
	}
	for _, l := range ctx.logs {
		c.log.Debug("contract log", zap.String("account", r.Receiver), zap.String("msg", l))
	}
	if view {
		return value, ctx, nil
	}

	locked, err := StorageByteCost.Mul(u128.From(ctx.state.StorageUsage))
	if err != nil {
		return nil, ctx, err
	}
	if ctx.state.Balance.Lt(locked) {
		return nil, ctx, fmt.Errorf("%w: usage %d bytes requires %s, balance %s",
			ErrStorageStake, ctx.state.StorageUsage, locked, ctx.state.Balance)
	}
	if err := putAccount(cache, r.Receiver, ctx.state); err != nil {
		return nil, ctx, err
	}
	return value, ctx, nil
}

func safeInvoke(code Contract, ctx *Context, method string, args []byte) (res []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrContractPanic, rec)
		}
	}()
	return code.Invoke(ctx, method, args)
}

// emit turns actions of the successful call into receipts.
func (c *Chain) emit(parent *Receipt, ctx *Context) []string {
	ids := make([]string, len(ctx.actions))
	for i, a := range ctx.actions {
		ids[i] = receiptID(parent.ID, i)
		r := &Receipt{
			ID:          ids[i],
			TxID:        parent.TxID,
			Signer:      parent.Signer,
			Predecessor: parent.Receiver,
			Receiver:    a.receiver,
			Method:      a.method,
			Args:        a.args,
			Deposit:     a.deposit,
			Gas:         a.gas,
		}
		if a.kind != actionContinuation {
			c.queue = append(c.queue, r)
			continue
		}
		dep := ids[a.after]
		r.deps = []string{dep}
		c.waiting[r.ID] = r
		c.waiters[dep] = append(c.waiters[dep], r.ID)
	}
	return ids
}

// deliver records result of the receipt id and passes it to continuations
// and to receipts which returned promise of id.
func (c *Chain) deliver(id string, res resolved) {
	if _, ok := c.results[id]; ok {
		c.log.Error("duplicated receipt result", zap.String("id", id))
		return
	}
	c.results[id] = res

	if o, ok := c.txs[id]; ok {
		o.Status = promiseToStatus(res.Status)
		o.Value = res.Value
		o.Err = res.err
	}

	for _, wid := range c.waiters[id] {
		w := c.waiting[wid]
		ready := true
		for _, d := range w.deps {
			if _, ok := c.results[d]; !ok {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}
		w.results = make([]PromiseResult, len(w.deps))
		for i, d := range w.deps {
			w.results[i] = c.results[d].PromiseResult
		}
		delete(c.waiting, wid)
		c.queue = append(c.queue, w)
	}
	delete(c.waiters, id)

	fwd := c.forwards[id]
	delete(c.forwards, id)
	for _, f := range fwd {
		c.deliver(f, res)
	}
}

func (c *Chain) finish(r *Receipt, out ReceiptOutcome) {
	c.metrics.receipts.WithLabelValues(out.Status.String()).Inc()
	c.metrics.gasUsed.Add(float64(out.GasUsed))
	if o, ok := c.txs[r.TxID]; ok {
		o.Receipts = append(o.Receipts, out)
	}
	c.log.Debug("receipt executed",
		zap.String("id", r.ID),
		zap.String("receiver", r.Receiver),
		zap.String("method", r.Method),
		zap.Stringer("status", out.Status),
		zap.Uint64("gas", uint64(out.GasUsed)))
}

// credit adds native amount to the account balance. Missing accounts are
// created like in implicit account model.
func (c *Chain) credit(id string, amount u128.Int) error {
	if amount.IsZero() || id == "" {
		return nil
	}
	st, err := getAccount(c.store, id)
	if err != nil && !errors.Is(err, ErrUnknownAccount) {
		return err
	}
	st.Balance, err = st.Balance.Add(amount)
	if err != nil {
		return err
	}
	return putAccount(c.store, id, st)
}

func statusToPromise(s Status) PromiseStatus {
	if s == StatusSuccess {
		return PromiseSuccessful
	}
	return PromiseFailed
}

func promiseToStatus(s PromiseStatus) Status {
	if s == PromiseSuccessful {
		return StatusSuccess
	}
	return StatusFailure
}
