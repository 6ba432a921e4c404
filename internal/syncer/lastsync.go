package syncer

import (
	"errors"

	"github.com/vanastassiou/seneschal/internal/kv"
)

const lastSyncKeySuffix = "-lastSync"

// KVLastSync is the default LastSyncStore, one "{domain}-lastSync" entry in
// the shared key-value store.
type KVLastSync struct {
	store kv.Store
}

var _ LastSyncStore = (*KVLastSync)(nil)

func NewKVLastSync(store kv.Store) *KVLastSync {
	return &KVLastSync{store: store}
}

func (s *KVLastSync) LastSync(domain string) (string, error) {
	data, err := s.store.Get(domain + lastSyncKeySuffix)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *KVLastSync) SetLastSync(domain, ts string) error {
	return s.store.Set(domain+lastSyncKeySuffix, []byte(ts))
}
