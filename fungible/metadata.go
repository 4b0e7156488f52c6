package fungible

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// MetadataSpec is the only supported metadata version.
const MetadataSpec = "ft-1.0.0"

const referenceHashLen = 32

var (
	metadataKey = []byte{prefixConfig, 'm', 'e', 't', 'a'}
	ownerKey    = []byte{prefixConfig, 'o', 'w', 'n', 'e', 'r'}
	versionKey  = []byte{prefixConfig, 'v', 'e', 'r', 's', 'i', 'o', 'n'}
)

// Metadata describes the token.
type Metadata struct {
	Spec          string  `json:"spec"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Icon          *string `json:"icon"`
	Reference     *string `json:"reference"`
	ReferenceHash []byte  `json:"reference_hash"`
	Decimals      uint8   `json:"decimals"`
}

// Validate checks metadata consistency.
func (m *Metadata) Validate() error {
	if m.Spec != MetadataSpec {
		return fmt.Errorf("%w: unsupported spec %q", ErrInvalidMetadata, m.Spec)
	}
	if (m.Reference == nil) != (m.ReferenceHash == nil) {
		return fmt.Errorf("%w: reference and reference_hash must be set together", ErrInvalidMetadata)
	}
	if m.ReferenceHash != nil && len(m.ReferenceHash) != referenceHashLen {
		return fmt.Errorf("%w: reference_hash must be %d bytes", ErrInvalidMetadata, referenceHashLen)
	}
	return nil
}

func optString(s *string) stackitem.Item {
	if s == nil {
		return stackitem.Null{}
	}
	return stackitem.NewByteArray([]byte(*s))
}

func optBytes(b []byte) stackitem.Item {
	if b == nil {
		return stackitem.Null{}
	}
	return stackitem.NewByteArray(b)
}

func itemOptBytes(it stackitem.Item) ([]byte, error) {
	if _, ok := it.(stackitem.Null); ok {
		return nil, nil
	}
	return it.TryBytes()
}

func itemOptString(it stackitem.Item) (*string, error) {
	b, err := itemOptBytes(it)
	if err != nil || b == nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// ToStackItem implements stackitem.Convertible.
func (m *Metadata) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray([]byte(m.Spec)),
		stackitem.NewByteArray([]byte(m.Name)),
		stackitem.NewByteArray([]byte(m.Symbol)),
		optString(m.Icon),
		optString(m.Reference),
		optBytes(m.ReferenceHash),
		stackitem.Make(int64(m.Decimals)),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (m *Metadata) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 7 {
		return fmt.Errorf("wrong number of fields: %d", len(arr))
	}
	var err error
	fields := []*string{&m.Spec, &m.Name, &m.Symbol}
	for i, f := range fields {
		b, err := arr[i].TryBytes()
		if err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		*f = string(b)
	}
	if m.Icon, err = itemOptString(arr[3]); err != nil {
		return fmt.Errorf("icon: %w", err)
	}
	if m.Reference, err = itemOptString(arr[4]); err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	if m.ReferenceHash, err = itemOptBytes(arr[5]); err != nil {
		return fmt.Errorf("reference hash: %w", err)
	}
	d, err := arr[6].TryInteger()
	if err != nil {
		return fmt.Errorf("decimals: %w", err)
	}
	if !d.IsUint64() || d.Uint64() > 255 {
		return errors.New("decimals: out of range")
	}
	m.Decimals = uint8(d.Uint64())
	return nil
}

// MetadataStore keeps metadata, owner and version of the token.
type MetadataStore struct {
	st Storage
}

// NewMetadataStore returns MetadataStore working over st.
func NewMetadataStore(st Storage) *MetadataStore {
	return &MetadataStore{st: st}
}

// Metadata returns stored metadata.
func (s *MetadataStore) Metadata() (Metadata, error) {
	var m Metadata
	ok, err := common.GetSerialized(s.st, metadataKey, &m)
	if err != nil {
		return m, fmt.Errorf("read metadata: %w", err)
	}
	if !ok {
		return m, ErrNotInitialized
	}
	return m, nil
}

// SetMetadata validates and stores metadata.
func (s *MetadataStore) SetMetadata(m Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return common.SetSerialized(s.st, metadataKey, &m)
}

// Owner returns the account allowed to update metadata.
func (s *MetadataStore) Owner() (string, error) {
	v, err := s.st.Get(ownerKey)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return "", ErrNotInitialized
		}
		return "", fmt.Errorf("read owner: %w", err)
	}
	return string(v), nil
}

// SetOwner stores owner account.
func (s *MetadataStore) SetOwner(owner string) error {
	return s.st.Put(ownerKey, []byte(owner))
}

// Version returns version of the code which initialized the storage.
func (s *MetadataStore) Version() (int64, error) {
	v, err := s.st.Get(versionKey)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return 0, ErrNotInitialized
		}
		return 0, fmt.Errorf("read version: %w", err)
	}
	item, err := stackitem.Deserialize(v)
	if err != nil {
		return 0, fmt.Errorf("deserialize version: %w", err)
	}
	n, err := item.TryInteger()
	if err != nil {
		return 0, fmt.Errorf("version: %w", err)
	}
	return n.Int64(), nil
}

// SetVersion stores version.
func (s *MetadataStore) SetVersion(v int64) error {
	data, err := stackitem.Serialize(stackitem.Make(v))
	if err != nil {
		return err
	}
	return s.st.Put(versionKey, data)
}
