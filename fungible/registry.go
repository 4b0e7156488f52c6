package fungible

import (
	"fmt"

	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
)

const (
	prefixConfig       byte = 0x00
	prefixRegistration byte = 0x01
	prefixBalance      byte = 0x02
)

// AccountStorageUsage is the number of storage bytes one account can occupy:
// registration and balance records with the longest possible key.
const AccountStorageUsage = 2 * (host.DataRecordOverhead + 1 + host.MaxAccountIDLen + u128.Size)

// Bond is the minimum storage deposit required to register an account.
var Bond = func() u128.Int {
	b, err := host.StorageByteCost.Mul(u128.From(AccountStorageUsage))
	if err != nil {
		panic(err)
	}
	return b
}()

// Registration is a storage deposit record of an account.
type Registration struct {
	// Native amount paid for the account storage.
	Paid u128.Int
}

// Available returns part of the deposit above the Bond.
func (r Registration) Available() u128.Int {
	a, err := r.Paid.Sub(Bond)
	if err != nil {
		return u128.Zero()
	}
	return a
}

// StorageBalance is a NEP-145 view of the registration.
type StorageBalance struct {
	Total     u128.Int `json:"total"`
	Available u128.Int `json:"available"`
}

// Balance returns StorageBalance of the registration.
func (r Registration) Balance() StorageBalance {
	return StorageBalance{Total: r.Paid, Available: r.Available()}
}

// StorageBalanceBounds is a NEP-145 view of deposit limits. Max is always
// nil: deposits above Bond are allowed and can be withdrawn.
type StorageBalanceBounds struct {
	Min u128.Int  `json:"min"`
	Max *u128.Int `json:"max"`
}

func registrationKey(account string) []byte {
	return append([]byte{prefixRegistration}, account...)
}

// AccountRegistry tracks accounts which paid storage deposit and therefore
// may hold a balance record.
type AccountRegistry struct {
	st Storage
}

// NewAccountRegistry returns AccountRegistry working over st.
func NewAccountRegistry(st Storage) *AccountRegistry {
	return &AccountRegistry{st: st}
}

// Registration returns registration record of the account.
func (r *AccountRegistry) Registration(account string) (Registration, bool, error) {
	paid, ok, err := common.GetAmount(r.st, registrationKey(account))
	if err != nil {
		return Registration{}, false, fmt.Errorf("read registration of %s: %w", account, err)
	}
	return Registration{Paid: paid}, ok, nil
}

// IsRegistered reports whether account has active registration.
func (r *AccountRegistry) IsRegistered(account string) (bool, error) {
	_, ok, err := r.Registration(account)
	return ok, err
}

// Register creates registration for the account with paid deposit.
func (r *AccountRegistry) Register(account string, paid u128.Int) error {
	if paid.Lt(Bond) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientDeposit, paid, Bond)
	}
	ok, err := r.IsRegistered(account)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, account)
	}
	return common.SetAmount(r.st, registrationKey(account), paid)
}

// Withdraw decreases paid deposit of the account by amount (all available
// deposit if amount is nil). The paid amount never goes below the Bond.
// Withdrawn amount and updated registration are returned.
func (r *AccountRegistry) Withdraw(account string, amount *u128.Int) (u128.Int, Registration, error) {
	reg, ok, err := r.Registration(account)
	if err != nil {
		return u128.Zero(), reg, err
	}
	if !ok {
		return u128.Zero(), reg, fmt.Errorf("%w: %s", ErrUnregisteredAccount, account)
	}
	available := reg.Available()
	w := available
	if amount != nil {
		w = *amount
	}
	if w.Gt(available) {
		return u128.Zero(), reg, fmt.Errorf("%w: %s > %s", ErrBondViolation, w, available)
	}
	if w.IsZero() {
		return w, reg, nil
	}
	reg.Paid, _ = reg.Paid.Sub(w)
	if err := common.SetAmount(r.st, registrationKey(account), reg.Paid); err != nil {
		return u128.Zero(), reg, err
	}
	return w, reg, nil
}

// Unregister removes registration of the account holding balance. Non-zero
// balance is allowed only with force; dropping the balance itself is up to
// the caller. Removed registration is returned.
func (r *AccountRegistry) Unregister(account string, balance u128.Int, force bool) (Registration, error) {
	reg, ok, err := r.Registration(account)
	if err != nil {
		return reg, err
	}
	if !ok {
		return reg, fmt.Errorf("%w: %s", ErrUnregisteredAccount, account)
	}
	if !balance.IsZero() && !force {
		return reg, fmt.Errorf("%w: %s holds %s", ErrNonZeroBalance, account, balance)
	}
	if err := r.st.Delete(registrationKey(account)); err != nil {
		return reg, err
	}
	return reg, nil
}
