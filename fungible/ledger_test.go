package fungible

import (
	"testing"

	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/stretchr/testify/require"
)

type memStorage map[string][]byte

func (m memStorage) Get(key []byte) ([]byte, error) {
	v, ok := m[string(key)]
	if !ok {
		return nil, host.ErrNotFound
	}
	return v, nil
}

func (m memStorage) Put(key, value []byte) error {
	m[string(key)] = value
	return nil
}

func (m memStorage) Delete(key []byte) error {
	delete(m, string(key))
	return nil
}

func newTestLedger(t *testing.T, accounts ...string) (*Ledger, *AccountRegistry, memStorage) {
	st := memStorage{}
	reg := NewAccountRegistry(st)
	for _, a := range accounts {
		require.NoError(t, reg.Register(a, Bond))
	}
	return NewLedger(st, reg), reg, st
}

func TestBond(t *testing.T) {
	require.EqualValues(t, 242, AccountStorageUsage)
	require.Equal(t, "2420000000000000000000", Bond.String())
}

func TestLedgerTransfer(t *testing.T) {
	l, _, st := newTestLedger(t, "alice", "bob")
	require.NoError(t, l.Init("alice", u128.From(100)))

	require.ErrorIs(t, l.Transfer("alice", "alice", u128.From(1)), ErrSelfTransfer)
	require.ErrorIs(t, l.Transfer("alice", "bob", u128.Zero()), ErrZeroAmount)
	require.ErrorIs(t, l.Transfer("alice", "carol", u128.From(1)), ErrUnregisteredAccount)
	require.ErrorIs(t, l.Transfer("carol", "alice", u128.From(1)), ErrUnregisteredAccount)
	require.ErrorIs(t, l.Transfer("alice", "bob", u128.From(101)), ErrInsufficientBalance)

	require.NoError(t, l.Transfer("alice", "bob", u128.From(100)))
	b, err := l.BalanceOf("alice")
	require.NoError(t, err)
	require.True(t, b.IsZero())
	_, ok := st[string(balanceKey("alice"))]
	require.False(t, ok, "zero balance is not stored")

	b, err = l.BalanceOf("bob")
	require.NoError(t, err)
	require.Equal(t, u128.From(100), b)

	s, err := l.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, u128.From(100), s)
}

func TestLedgerTransferIsAtomic(t *testing.T) {
	l, _, _ := newTestLedger(t, "alice", "bob")
	require.NoError(t, l.Init("alice", u128.From(100)))
	require.NoError(t, l.setBalance("bob", u128.Max()))

	require.ErrorIs(t, l.Transfer("alice", "bob", u128.From(1)), ErrOverflow)

	b, err := l.BalanceOf("alice")
	require.NoError(t, err)
	require.Equal(t, u128.From(100), b)
	b, err = l.BalanceOf("bob")
	require.NoError(t, err)
	require.Equal(t, u128.Max(), b)
}

func TestLedgerNotInitialized(t *testing.T) {
	l, _, _ := newTestLedger(t)
	_, err := l.TotalSupply()
	require.ErrorIs(t, err, ErrNotInitialized)

	b, err := l.BalanceOf("nobody")
	require.NoError(t, err)
	require.True(t, b.IsZero())
}

func TestLedgerDebitCredit(t *testing.T) {
	l, _, _ := newTestLedger(t, "alice")

	require.ErrorIs(t, l.Debit("alice", u128.From(1)), ErrInsufficientBalance)
	require.ErrorIs(t, l.Credit("bob", u128.From(1)), ErrUnregisteredAccount)
	require.NoError(t, l.Credit("alice", u128.From(5)))
	require.NoError(t, l.Debit("alice", u128.From(2)))

	dropped, err := l.Drop("alice")
	require.NoError(t, err)
	require.Equal(t, u128.From(3), dropped)
}

func TestRegistry(t *testing.T) {
	st := memStorage{}
	r := NewAccountRegistry(st)

	less, err := Bond.Sub(u128.From(1))
	require.NoError(t, err)
	require.ErrorIs(t, r.Register("alice", less), ErrInsufficientDeposit)

	paid, err := Bond.Add(u128.From(10))
	require.NoError(t, err)
	require.NoError(t, r.Register("alice", paid))
	require.ErrorIs(t, r.Register("alice", Bond), ErrAlreadyRegistered)

	reg, ok, err := r.Registration("alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StorageBalance{Total: paid, Available: u128.From(10)}, reg.Balance())

	t.Run("withdraw", func(t *testing.T) {
		_, _, err := r.Withdraw("bob", nil)
		require.ErrorIs(t, err, ErrUnregisteredAccount)

		eleven := u128.From(11)
		_, _, err = r.Withdraw("alice", &eleven)
		require.ErrorIs(t, err, ErrBondViolation)

		four := u128.From(4)
		w, reg, err := r.Withdraw("alice", &four)
		require.NoError(t, err)
		require.Equal(t, four, w)
		require.Equal(t, u128.From(6), reg.Available())

		w, reg, err = r.Withdraw("alice", nil)
		require.NoError(t, err)
		require.Equal(t, u128.From(6), w)
		require.Equal(t, Bond, reg.Paid)
	})

	t.Run("unregister", func(t *testing.T) {
		_, err := r.Unregister("bob", u128.Zero(), false)
		require.ErrorIs(t, err, ErrUnregisteredAccount)

		_, err = r.Unregister("alice", u128.From(1), false)
		require.ErrorIs(t, err, ErrNonZeroBalance)

		reg, err := r.Unregister("alice", u128.From(1), true)
		require.NoError(t, err)
		require.Equal(t, Bond, reg.Paid)

		ok, err := r.IsRegistered("alice")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestMetadataValidate(t *testing.T) {
	ref := "https://example.com"
	testCases := []struct {
		name string
		m    Metadata
		ok   bool
	}{
		{"valid", Metadata{Spec: MetadataSpec, Name: "n", Symbol: "s", Decimals: 8}, true},
		{"wrong spec", Metadata{Spec: "ft-0.1.0"}, false},
		{"reference without hash", Metadata{Spec: MetadataSpec, Reference: &ref}, false},
		{"hash without reference", Metadata{Spec: MetadataSpec, ReferenceHash: make([]byte, 32)}, false},
		{"short hash", Metadata{Spec: MetadataSpec, Reference: &ref, ReferenceHash: make([]byte, 31)}, false},
		{"with reference", Metadata{Spec: MetadataSpec, Reference: &ref, ReferenceHash: make([]byte, 32)}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidMetadata)
			}
		})
	}
}

func TestMetadataStore(t *testing.T) {
	s := NewMetadataStore(memStorage{})

	_, err := s.Metadata()
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.Owner()
	require.ErrorIs(t, err, ErrNotInitialized)

	icon := "data:image/svg+xml,<svg/>"
	ref := "https://example.com"
	m := Metadata{
		Spec:          MetadataSpec,
		Name:          "Token",
		Symbol:        "TKN",
		Icon:          &icon,
		Reference:     &ref,
		ReferenceHash: make([]byte, 32),
		Decimals:      18,
	}
	require.NoError(t, s.SetMetadata(m))
	got, err := s.Metadata()
	require.NoError(t, err)
	require.Equal(t, m, got)

	require.NoError(t, s.SetVersion(1_002_003))
	v, err := s.Version()
	require.NoError(t, err)
	require.EqualValues(t, 1_002_003, v)
}
