package fungible

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
)

// Contract methods.
const (
	MethodNew                  = "new"
	MethodTransfer             = "ft_transfer"
	MethodTransferCall         = "ft_transfer_call"
	MethodBalanceOf            = "ft_balance_of"
	MethodTotalSupply          = "ft_total_supply"
	MethodMetadata             = "ft_metadata"
	MethodStorageDeposit       = "storage_deposit"
	MethodStorageWithdraw      = "storage_withdraw"
	MethodStorageUnregister    = "storage_unregister"
	MethodStorageBalanceOf     = "storage_balance_of"
	MethodStorageBalanceBounds = "storage_balance_bounds"
	MethodUpdateMetadata       = "update_metadata"
	MethodUpdateOwner          = "update_owner"
	MethodVersion              = "version"
)

type (
	// NewArgs are arguments of the initialization.
	NewArgs struct {
		Owner       string   `json:"owner_id"`
		TotalSupply u128.Int `json:"total_supply"`
		Metadata    Metadata `json:"metadata"`
	}

	// TransferArgs are arguments of ft_transfer.
	TransferArgs struct {
		Receiver string   `json:"receiver_id"`
		Amount   u128.Int `json:"amount"`
		Memo     *string  `json:"memo,omitempty"`
	}

	// TransferCallArgs are arguments of ft_transfer_call.
	TransferCallArgs struct {
		Receiver string   `json:"receiver_id"`
		Amount   u128.Int `json:"amount"`
		Memo     *string  `json:"memo,omitempty"`
		Msg      string   `json:"msg"`
	}

	// AccountArgs are arguments of per-account views.
	AccountArgs struct {
		Account string `json:"account_id"`
	}

	// StorageDepositArgs are arguments of storage_deposit.
	StorageDepositArgs struct {
		Account          *string `json:"account_id,omitempty"`
		RegistrationOnly *bool   `json:"registration_only,omitempty"`
	}

	// StorageWithdrawArgs are arguments of storage_withdraw.
	StorageWithdrawArgs struct {
		Amount *u128.Int `json:"amount,omitempty"`
	}

	// StorageUnregisterArgs are arguments of storage_unregister.
	StorageUnregisterArgs struct {
		Force *bool `json:"force,omitempty"`
	}

	// UpdateMetadataArgs are arguments of update_metadata.
	UpdateMetadataArgs struct {
		Metadata Metadata `json:"metadata"`
	}

	// UpdateOwnerArgs are arguments of update_owner.
	UpdateOwnerArgs struct {
		NewOwner string `json:"new_owner"`
	}
)

var mintMemo = "new tokens are minted"

// Contract is the fungible token contract code. It keeps no state of its
// own: everything lives in the storage provided by the host, so one value
// can serve any number of accounts.
type Contract struct{}

// Invoke implements host.Contract.
func (c Contract) Invoke(ctx *host.Context, method string, args []byte) ([]byte, error) {
	return c.Call(ctx, method, args)
}

// Call executes contract method in env.
func (Contract) Call(env Env, method string, args []byte) ([]byte, error) {
	t := newToken(env)
	if method != MethodNew {
		if _, err := t.meta.Owner(); err != nil {
			return nil, err
		}
	}

	switch method {
	case MethodNew:
		var a NewArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, t.initialize(a)

	case MethodTransfer:
		var a TransferArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		if err := host.ValidateAccountID(a.Receiver); err != nil {
			return nil, err
		}
		return nil, t.transfers.FtTransfer(a.Receiver, a.Amount, a.Memo)

	case MethodTransferCall:
		var a TransferCallArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		if err := host.ValidateAccountID(a.Receiver); err != nil {
			return nil, err
		}
		return nil, t.transfers.FtTransferCall(a.Receiver, a.Amount, a.Memo, a.Msg)

	case MethodResolveTransfer:
		var a ResolveTransferArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		kept, err := t.resolver.Resolve(a.Sender, a.Receiver, a.Amount)
		if err != nil {
			return nil, err
		}
		return json.Marshal(kept)

	case MethodBalanceOf:
		var a AccountArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		b, err := t.ledger.BalanceOf(a.Account)
		if err != nil {
			return nil, err
		}
		return json.Marshal(b)

	case MethodTotalSupply:
		s, err := t.ledger.TotalSupply()
		if err != nil {
			return nil, err
		}
		return json.Marshal(s)

	case MethodMetadata:
		m, err := t.meta.Metadata()
		if err != nil {
			return nil, err
		}
		return json.Marshal(m)

	case MethodStorageDeposit:
		var a StorageDepositArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		b, err := t.storageDeposit(a)
		if err != nil {
			return nil, err
		}
		return json.Marshal(b)

	case MethodStorageWithdraw:
		var a StorageWithdrawArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		b, err := t.storageWithdraw(a.Amount)
		if err != nil {
			return nil, err
		}
		return json.Marshal(b)

	case MethodStorageUnregister:
		var a StorageUnregisterArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		ok, err := t.storageUnregister(a.Force != nil && *a.Force)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ok)

	case MethodStorageBalanceOf:
		var a AccountArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		reg, ok, err := t.registry.Registration(a.Account)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []byte("null"), nil
		}
		return json.Marshal(reg.Balance())

	case MethodStorageBalanceBounds:
		return json.Marshal(StorageBalanceBounds{Min: Bond})

	case MethodUpdateMetadata:
		var a UpdateMetadataArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, t.updateMetadata(a.Metadata)

	case MethodUpdateOwner:
		var a UpdateOwnerArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		if err := t.updateOwner(a.NewOwner); err != nil {
			return nil, err
		}
		return json.Marshal(true)

	case MethodVersion:
		v, err := t.meta.Version()
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

func decodeArgs(args []byte, v any) error {
	args = bytes.TrimSpace(args)
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

// token binds all components to one invocation environment.
type token struct {
	env       Env
	registry  *AccountRegistry
	ledger    *Ledger
	meta      *MetadataStore
	transfers *TransferEngine
	resolver  *ResolutionHandler
}

func newToken(env Env) *token {
	registry := NewAccountRegistry(env)
	ledger := NewLedger(env, registry)
	return &token{
		env:       env,
		registry:  registry,
		ledger:    ledger,
		meta:      NewMetadataStore(env),
		transfers: NewTransferEngine(env, ledger),
		resolver:  NewResolutionHandler(env, ledger, registry),
	}
}

func (t *token) initialize(a NewArgs) error {
	if _, err := t.meta.Owner(); err == nil {
		return ErrAlreadyInitialized
	}
	if err := host.ValidateAccountID(a.Owner); err != nil {
		return err
	}
	if err := t.meta.SetMetadata(a.Metadata); err != nil {
		return err
	}
	if err := t.meta.SetOwner(a.Owner); err != nil {
		return err
	}
	if err := t.meta.SetVersion(common.Version); err != nil {
		return err
	}
	if err := t.registry.Register(a.Owner, Bond); err != nil {
		return err
	}
	if err := t.ledger.Init(a.Owner, a.TotalSupply); err != nil {
		return err
	}
	emitMint(t.env, a.Owner, a.TotalSupply, &mintMemo)
	return nil
}

func (t *token) refund(to string, amount u128.Int) error {
	if amount.IsZero() {
		return nil
	}
	return t.env.TransferNative(to, amount)
}

func (t *token) storageDeposit(a StorageDepositArgs) (StorageBalance, error) {
	deposit := t.env.AttachedDeposit()
	predecessor := t.env.Predecessor()
	account := predecessor
	if a.Account != nil {
		account = *a.Account
	}
	if err := host.ValidateAccountID(account); err != nil {
		return StorageBalance{}, err
	}
	registrationOnly := a.RegistrationOnly == nil || *a.RegistrationOnly

	reg, ok, err := t.registry.Registration(account)
	if err != nil {
		return StorageBalance{}, err
	}
	if ok {
		if !registrationOnly {
			return StorageBalance{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, account)
		}
		t.env.Log("The account is already registered, refunding the deposit")
		return reg.Balance(), t.refund(predecessor, deposit)
	}

	if deposit.Lt(Bond) {
		return StorageBalance{}, fmt.Errorf("%w: %s < %s", ErrInsufficientDeposit, deposit, Bond)
	}
	paid := deposit
	if registrationOnly {
		paid = Bond
	}
	if err := t.registry.Register(account, paid); err != nil {
		return StorageBalance{}, err
	}
	excess, _ := deposit.Sub(paid)
	if err := t.refund(predecessor, excess); err != nil {
		return StorageBalance{}, err
	}
	return Registration{Paid: paid}.Balance(), nil
}

func (t *token) storageWithdraw(amount *u128.Int) (StorageBalance, error) {
	if err := common.AssertOneUnit(t.env); err != nil {
		return StorageBalance{}, err
	}
	account := t.env.Predecessor()
	w, reg, err := t.registry.Withdraw(account, amount)
	if err != nil {
		return StorageBalance{}, err
	}
	return reg.Balance(), t.refund(account, w)
}

func (t *token) storageUnregister(force bool) (bool, error) {
	if err := common.AssertOneUnit(t.env); err != nil {
		return false, err
	}
	account := t.env.Predecessor()
	ok, err := t.registry.IsRegistered(account)
	if err != nil {
		return false, err
	}
	if !ok {
		t.env.Log(fmt.Sprintf("The account %s is not registered", account))
		return false, nil
	}
	balance, err := t.ledger.BalanceOf(account)
	if err != nil {
		return false, err
	}
	reg, err := t.registry.Unregister(account, balance, force)
	if err != nil {
		return false, err
	}
	if _, err := t.ledger.Drop(account); err != nil {
		return false, err
	}
	if !balance.IsZero() {
		emitBurn(t.env, account, balance, nil)
	}
	t.env.Log(fmt.Sprintf("Closed @%s with %s", account, balance))
	return true, t.refund(account, reg.Paid)
}

func (t *token) updateMetadata(m Metadata) error {
	if err := t.assertOwner(); err != nil {
		return err
	}
	cur, err := t.meta.Metadata()
	if err != nil {
		return err
	}
	if cur.Decimals != m.Decimals {
		return fmt.Errorf("%w: can't change decimals", ErrInvalidMetadata)
	}
	return t.meta.SetMetadata(m)
}

func (t *token) updateOwner(newOwner string) error {
	if err := t.assertOwner(); err != nil {
		return err
	}
	if err := host.ValidateAccountID(newOwner); err != nil {
		return err
	}
	owner, _ := t.meta.Owner()
	t.env.Log(fmt.Sprintf("Owner updated from %s to %s", owner, newOwner))
	return t.meta.SetOwner(newOwner)
}

func (t *token) assertOwner() error {
	if err := common.AssertOneUnit(t.env); err != nil {
		return err
	}
	owner, err := t.meta.Owner()
	if err != nil {
		return err
	}
	return common.CheckOwnerWitness(t.env, owner)
}
