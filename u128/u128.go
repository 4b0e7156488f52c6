/*
Package u128 provides unsigned 128-bit amounts with checked arithmetic.

Amounts are encoded in JSON as decimal strings (so that clients without native
128-bit integers do not lose precision) and in binary form as 16 little-endian
bytes.
*/
package u128

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/io"
)

// Size is the length of the binary representation of Int.
const Size = 16

var (
	// ErrOverflow is returned when the result does not fit into 128 bits.
	ErrOverflow = errors.New("u128 overflow")
	// ErrUnderflow is returned when subtraction result would be negative.
	ErrUnderflow = errors.New("u128 underflow")
)

// Int is an unsigned 128-bit integer. Zero value is 0 and ready to use.
type Int struct {
	v uint256.Int
}

var maxInt = func() Int {
	var x Int
	x.v[0], x.v[1] = ^uint64(0), ^uint64(0)
	return x
}()

// Zero returns 0.
func Zero() Int { return Int{} }

// Max returns 2^128-1.
func Max() Int { return maxInt }

// From returns Int holding v.
func From(v uint64) Int {
	var x Int
	x.v.SetUint64(v)
	return x
}

// FromBig converts non-negative b fitting into 128 bits.
func FromBig(b *big.Int) (Int, error) {
	if b.Sign() < 0 {
		return Int{}, ErrUnderflow
	}
	if b.BitLen() > 128 {
		return Int{}, ErrOverflow
	}
	var x Int
	x.v.SetFromBig(b)
	return x, nil
}

// Parse decodes decimal string s.
func Parse(s string) (Int, error) {
	var x Int
	if s == "" {
		return Int{}, errors.New("invalid u128: empty string")
	}
	if err := x.v.SetFromDecimal(s); err != nil {
		return Int{}, fmt.Errorf("invalid u128 '%s': %w", s, err)
	}
	if x.v.BitLen() > 128 {
		return Int{}, fmt.Errorf("invalid u128 '%s': %w", s, ErrOverflow)
	}
	return x, nil
}

// MustParse is like Parse but panics on error. Use it for constants only.
func MustParse(s string) Int {
	x, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return x
}

// Add returns x+y or ErrOverflow.
func (x Int) Add(y Int) (Int, error) {
	var z Int
	z.v.Add(&x.v, &y.v)
	if z.v.BitLen() > 128 {
		return Int{}, ErrOverflow
	}
	return z, nil
}

// Sub returns x-y or ErrUnderflow.
func (x Int) Sub(y Int) (Int, error) {
	var z Int
	if _, under := z.v.SubOverflow(&x.v, &y.v); under {
		return Int{}, ErrUnderflow
	}
	return z, nil
}

// Mul returns x*y or ErrOverflow.
func (x Int) Mul(y Int) (Int, error) {
	var z Int
	if _, over := z.v.MulOverflow(&x.v, &y.v); over || z.v.BitLen() > 128 {
		return Int{}, ErrOverflow
	}
	return z, nil
}

// Cmp compares x and y and returns -1, 0 or +1.
func (x Int) Cmp(y Int) int { return x.v.Cmp(&y.v) }

// Lt reports whether x < y.
func (x Int) Lt(y Int) bool { return x.v.Lt(&y.v) }

// Gt reports whether x > y.
func (x Int) Gt(y Int) bool { return x.v.Gt(&y.v) }

// Eq reports whether x == y.
func (x Int) Eq(y Int) bool { return x.v.Eq(&y.v) }

// IsZero reports whether x == 0.
func (x Int) IsZero() bool { return x.v.IsZero() }

// Min returns the smaller of x and y.
func Min(x, y Int) Int {
	if x.Lt(y) {
		return x
	}
	return y
}

// Big returns x as a new big.Int.
func (x Int) Big() *big.Int { return x.v.ToBig() }

// Uint64 returns lower 64 bits of x.
func (x Int) Uint64() uint64 { return x.v.Uint64() }

// String returns decimal representation of x.
func (x Int) String() string { return x.v.Dec() }

// MarshalJSON implements json.Marshaler.
func (x Int) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.String())
}

// UnmarshalJSON implements json.Unmarshaler. Only string form is accepted.
func (x *Int) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("u128 must be a decimal string: %w", err)
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*x = v
	return nil
}

// EncodeBinary implements io.Serializable.
func (x *Int) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(x.v[0])
	w.WriteU64LE(x.v[1])
}

// DecodeBinary implements io.Serializable.
func (x *Int) DecodeBinary(r *io.BinReader) {
	x.v[0] = r.ReadU64LE()
	x.v[1] = r.ReadU64LE()
	x.v[2], x.v[3] = 0, 0
}

// Bytes returns 16-byte little-endian form of x.
func (x Int) Bytes() []byte {
	w := io.NewBufBinWriter()
	x.EncodeBinary(w.BinWriter)
	return w.Bytes()
}

// FromBytes decodes 16-byte little-endian form.
func FromBytes(b []byte) (Int, error) {
	if len(b) != Size {
		return Int{}, fmt.Errorf("invalid u128 length %d", len(b))
	}
	var x Int
	r := io.NewBinReaderFromBuf(b)
	x.DecodeBinary(r)
	if r.Err != nil {
		return Int{}, r.Err
	}
	return x, nil
}
