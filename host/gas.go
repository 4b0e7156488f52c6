package host

import "fmt"

// Gas is a unit of computation budget.
type Gas uint64

const (
	// TGas is 10^12 gas units.
	TGas Gas = 1_000_000_000_000

	// DefaultGas is attached to transactions which don't specify gas.
	DefaultGas = 300 * TGas
	// MaxGas is the upper bound of gas attachable to a single transaction.
	MaxGas = 300 * TGas
	// ViewGas is the budget of view calls.
	ViewGas = 300 * TGas
)

// Gas costs of the host operations.
const (
	CostInvoke       Gas = 2 * TGas
	CostStorageRead  Gas = 10_000_000_000
	CostStorageWrite Gas = 50_000_000_000
	CostStorageByte  Gas = 1_000_000
	CostDispatch     Gas = 500_000_000_000
	CostLog          Gas = 1_000_000_000
)

// gasMeter tracks the call budget. Once exhausted it stays exhausted and the
// call is aborted even if the contract ignored the error.
type gasMeter struct {
	limit Gas
	used  Gas
	err   error
}

func (m *gasMeter) use(g Gas) error {
	if m.err != nil {
		return m.err
	}
	if g > m.limit-m.used {
		m.used = m.limit
		m.err = fmt.Errorf("%w: limit %d", ErrGasExhausted, m.limit)
		return m.err
	}
	m.used += g
	return nil
}
