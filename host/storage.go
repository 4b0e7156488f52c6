package host

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/io"
)

// DataRecordOverhead is the number of bytes accounted for each storage record
// in addition to its key and value.
const DataRecordOverhead = 40

const (
	prefixAccount byte = 0x01
	prefixData    byte = 0x02
)

func recordSize(key, value []byte) uint64 {
	return DataRecordOverhead + uint64(len(key)) + uint64(len(value))
}

func accountKey(id string) []byte {
	k := make([]byte, 0, 2+len(id))
	k = append(k, prefixAccount, byte(len(id)))
	return append(k, id...)
}

func dataPrefix(id string) []byte {
	k := make([]byte, 0, 2+len(id))
	k = append(k, prefixData, byte(len(id)))
	return append(k, id...)
}

func dataKey(id string, key []byte) []byte {
	return append(dataPrefix(id), key...)
}

func getAccount(st *storage.MemCachedStore, id string) (AccountState, error) {
	var a AccountState
	data, err := st.Get(accountKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return a, fmt.Errorf("%w: %s", ErrUnknownAccount, id)
		}
		return a, fmt.Errorf("read account %s: %w", id, err)
	}
	r := io.NewBinReaderFromBuf(data)
	a.DecodeBinary(r)
	if r.Err != nil {
		return a, fmt.Errorf("decode account %s: %w", id, r.Err)
	}
	return a, nil
}

func putAccount(st *storage.MemCachedStore, id string, a AccountState) error {
	w := io.NewBufBinWriter()
	a.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return fmt.Errorf("encode account %s: %w", id, w.Err)
	}
	st.Put(accountKey(id), w.Bytes())
	return nil
}
