package dump

import (
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/ft-contract/host"
)

// Creator dumps states of the contracts. Output file format:
//
//	'<label>-<timestamp>-contracts.json': JSON array of contracts' account states
//	'<label>-<timestamp>-storage.csv': CSV of contracts' storages
//
// Storage CSV are 'name,key,value' where name stands for contract account and
// binary key-value are base64-encoded.
//
// Use IterateDumps to access existing dumps.
type Creator struct {
	dumpStreams

	contracts []dumpAccountState

	storageItemsCSV *csv.Writer
}

// NewCreator returns Creator which dumps contracts into given directory. The
// dump is identified by specified ID. Resulting Creator should be closed when
// finished working with it.
//
// NewCreator fails if dump with provided ID already exists.
func NewCreator(dir string, id ID) (*Creator, error) {
	var res Creator

	err := initDumpStreams(&res.dumpStreams, dir, id, false)
	if err != nil {
		return nil, err
	}

	res.storageItemsCSV = csv.NewWriter(res.dumpStreams.storageItems)

	return &res, nil
}

// AddContract adds given state of the named contract to the resulting dump
// and returns StorageWriter for the contract storage. After all needed
// contracts are added, they should be flushed via Flush method.
func (x *Creator) AddContract(name string, st host.AccountState) *StorageWriter {
	x.contracts = append(x.contracts, dumpAccountState{
		Name:  name,
		State: st,
	})

	return &StorageWriter{
		name: name,
		csv:  x.storageItemsCSV,
	}
}

// Flush flushes accumulated dump to the file system.
func (x *Creator) Flush() error {
	jEnc := json.NewEncoder(x.dumpStreams.contracts)
	jEnc.SetIndent("", " ")

	err := jEnc.Encode(x.contracts)
	if err != nil {
		return fmt.Errorf("encode contract states to JSON: %w", err)
	}

	x.storageItemsCSV.Flush()

	err = x.storageItemsCSV.Error()
	if err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}

	return nil
}

// Close releases underlying resources of the Creator and makes it unusable.
func (x *Creator) Close() {
	x.close()
}

// StorageWriter writes data into the superior contract's storage dump.
type StorageWriter struct {
	name string
	csv  *csv.Writer
}

// Write saves given binary key-value into the contract dump as storage item.
func (x *StorageWriter) Write(key, value []byte) error {
	err := x.csv.Write([]string{
		x.name,
		_encoding.EncodeToString(key),
		_encoding.EncodeToString(value),
	})
	if err != nil {
		return fmt.Errorf("write storage item as CSV data: %w", err)
	}

	return nil
}

// Chain is a source of contract states.
type Chain interface {
	Account(id string) (host.AccountState, error)
	IterateStorage(id string, f func(key, value []byte) bool)
}

// AddFromChain adds state and storage of the contract account from the chain.
func (x *Creator) AddFromChain(c Chain, name string) error {
	st, err := c.Account(name)
	if err != nil {
		return fmt.Errorf("get '%s' account state: %w", name, err)
	}

	var wErr error
	w := x.AddContract(name, st)
	c.IterateStorage(name, func(key, value []byte) bool {
		wErr = w.Write(key, value)
		return wErr == nil
	})
	if wErr != nil {
		return fmt.Errorf("iterate '%s' contract storage: %w", name, wErr)
	}

	return nil
}
