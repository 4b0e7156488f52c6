package common

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Storage is a contract key-value namespace.
type Storage interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// SetSerialized serializes value and puts it into contract storage.
func SetSerialized(st Storage, key []byte, value stackitem.Convertible) error {
	item, err := value.ToStackItem()
	if err != nil {
		return fmt.Errorf("convert to stack item: %w", err)
	}
	data, err := stackitem.Serialize(item)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	return st.Put(key, data)
}

// GetSerialized reads value stored with SetSerialized. It returns false if
// there is no value.
func GetSerialized(st Storage, key []byte, value stackitem.Convertible) (bool, error) {
	data, err := st.Get(key)
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	item, err := stackitem.Deserialize(data)
	if err != nil {
		return false, fmt.Errorf("deserialize: %w", err)
	}
	if err := value.FromStackItem(item); err != nil {
		return false, fmt.Errorf("convert from stack item: %w", err)
	}
	return true, nil
}

// GetAmount reads 128-bit amount stored by key. Missing value is reported
// with false.
func GetAmount(st Storage, key []byte) (u128.Int, bool, error) {
	data, err := st.Get(key)
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return u128.Zero(), false, nil
		}
		return u128.Zero(), false, err
	}
	v, err := u128.FromBytes(data)
	if err != nil {
		return u128.Zero(), false, fmt.Errorf("decode amount: %w", err)
	}
	return v, true, nil
}

// SetAmount stores 128-bit amount by key.
func SetAmount(st Storage, key []byte, v u128.Int) error {
	return st.Put(key, v.Bytes())
}
