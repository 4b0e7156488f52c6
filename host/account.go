package host

import (
	"fmt"
	"regexp"

	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/nspcc-dev/neo-go/pkg/io"
)

const (
	// MinAccountIDLen is the minimum length of account id.
	MinAccountIDLen = 2
	// MaxAccountIDLen is the maximum length of account id.
	MaxAccountIDLen = 64
)

var accountIDRegexp = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

// ValidateAccountID checks that id is a well-formed account identifier:
// lowercase alphanumeric parts separated by single '-', '_' or '.'.
func ValidateAccountID(id string) error {
	if len(id) < MinAccountIDLen || len(id) > MaxAccountIDLen {
		return fmt.Errorf("%w '%s': length must be in [%d, %d]", ErrInvalidAccountID, id, MinAccountIDLen, MaxAccountIDLen)
	}
	if !accountIDRegexp.MatchString(id) {
		return fmt.Errorf("%w '%s'", ErrInvalidAccountID, id)
	}
	return nil
}

// AccountState is a chain-level account record.
type AccountState struct {
	// Native currency balance.
	Balance u128.Int `json:"balance"`
	// Bytes occupied by account's contract storage (records overhead included).
	StorageUsage uint64 `json:"storage_usage"`
	// Whether contract code is deployed to the account.
	HasContract bool `json:"has_contract"`
}

// EncodeBinary implements io.Serializable.
func (a *AccountState) EncodeBinary(w *io.BinWriter) {
	a.Balance.EncodeBinary(w)
	w.WriteU64LE(a.StorageUsage)
	w.WriteBool(a.HasContract)
}

// DecodeBinary implements io.Serializable.
func (a *AccountState) DecodeBinary(r *io.BinReader) {
	a.Balance.DecodeBinary(r)
	a.StorageUsage = r.ReadU64LE()
	a.HasContract = r.ReadBool()
}
