package fungible

import (
	"fmt"

	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/ft-contract/u128"
)

var totalSupplyKey = []byte{prefixConfig, 's', 'u', 'p', 'p', 'l', 'y'}

func balanceKey(account string) []byte {
	return append([]byte{prefixBalance}, account...)
}

// Ledger maps registered accounts to their balances. Zero balances are not
// stored.
type Ledger struct {
	st       Storage
	registry *AccountRegistry
}

// NewLedger returns Ledger working over st and checking registrations in
// registry.
func NewLedger(st Storage, registry *AccountRegistry) *Ledger {
	return &Ledger{st: st, registry: registry}
}

// TotalSupply returns the amount of tokens issued at initialization.
func (l *Ledger) TotalSupply() (u128.Int, error) {
	v, ok, err := common.GetAmount(l.st, totalSupplyKey)
	if err != nil {
		return v, fmt.Errorf("read total supply: %w", err)
	}
	if !ok {
		return v, ErrNotInitialized
	}
	return v, nil
}

// BalanceOf returns balance of the account, unregistered accounts have zero
// balance.
func (l *Ledger) BalanceOf(account string) (u128.Int, error) {
	v, _, err := common.GetAmount(l.st, balanceKey(account))
	if err != nil {
		return v, fmt.Errorf("read balance of %s: %w", account, err)
	}
	return v, nil
}

func (l *Ledger) registeredBalance(account string) (u128.Int, error) {
	ok, err := l.registry.IsRegistered(account)
	if err != nil {
		return u128.Zero(), err
	}
	if !ok {
		return u128.Zero(), fmt.Errorf("%w: %s", ErrUnregisteredAccount, account)
	}
	return l.BalanceOf(account)
}

func (l *Ledger) setBalance(account string, v u128.Int) error {
	if v.IsZero() {
		return l.st.Delete(balanceKey(account))
	}
	return common.SetAmount(l.st, balanceKey(account), v)
}

func (l *Ledger) debited(account string, amount u128.Int) (u128.Int, error) {
	b, err := l.registeredBalance(account)
	if err != nil {
		return b, err
	}
	nb, err := b.Sub(amount)
	if err != nil {
		return b, fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, account, b, amount)
	}
	return nb, nil
}

func (l *Ledger) credited(account string, amount u128.Int) (u128.Int, error) {
	b, err := l.registeredBalance(account)
	if err != nil {
		return b, err
	}
	nb, err := b.Add(amount)
	if err != nil {
		return b, fmt.Errorf("%w: %s has %s, adding %s", overflowErr(err), account, b, amount)
	}
	return nb, nil
}

// Debit decreases balance of the registered account.
func (l *Ledger) Debit(account string, amount u128.Int) error {
	nb, err := l.debited(account, amount)
	if err != nil {
		return err
	}
	return l.setBalance(account, nb)
}

// Credit increases balance of the registered account.
func (l *Ledger) Credit(account string, amount u128.Int) error {
	nb, err := l.credited(account, amount)
	if err != nil {
		return err
	}
	return l.setBalance(account, nb)
}

// Transfer moves amount from sender to receiver. Both sides are validated
// before anything is written, so a failed transfer leaves no trace.
func (l *Ledger) Transfer(sender, receiver string, amount u128.Int) error {
	if sender == receiver {
		return fmt.Errorf("%w: %s", ErrSelfTransfer, sender)
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	sb, err := l.debited(sender, amount)
	if err != nil {
		return err
	}
	rb, err := l.credited(receiver, amount)
	if err != nil {
		return err
	}
	if err := l.setBalance(sender, sb); err != nil {
		return err
	}
	return l.setBalance(receiver, rb)
}

// Drop removes balance record of the account and returns dropped amount.
// Dropped tokens are gone: the total supply stays the same.
func (l *Ledger) Drop(account string) (u128.Int, error) {
	b, err := l.BalanceOf(account)
	if err != nil {
		return b, err
	}
	return b, l.st.Delete(balanceKey(account))
}

// Init sets total supply and credits it to the owner.
func (l *Ledger) Init(owner string, supply u128.Int) error {
	if err := common.SetAmount(l.st, totalSupplyKey, supply); err != nil {
		return err
	}
	if supply.IsZero() {
		return nil
	}
	return l.Credit(owner, supply)
}
