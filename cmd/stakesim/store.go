package main

import (
	"bytes"
	"context"
	"sort"

	"cosmossdk.io/core/store"
)

// memStoreService backs one simulation run with a plain in-memory KV store,
// keeping the binary free of test scaffolding.
type memStoreService struct {
	store *memStore
}

func newMemStoreService() store.KVStoreService {
	return &memStoreService{store: &memStore{kv: map[string][]byte{}}}
}

func (s *memStoreService) OpenKVStore(_ context.Context) store.KVStore {
	return s.store
}

type memStore struct {
	kv map[string][]byte
}

func (s *memStore) Get(key []byte) ([]byte, error) {
	v, ok := s.kv[string(key)]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

func (s *memStore) Has(key []byte) (bool, error) {
	_, ok := s.kv[string(key)]
	return ok, nil
}

func (s *memStore) Set(key, value []byte) error {
	s.kv[string(key)] = bytes.Clone(value)
	return nil
}

func (s *memStore) Delete(key []byte) error {
	delete(s.kv, string(key))
	return nil
}

func (s *memStore) Iterator(start, end []byte) (store.Iterator, error) {
	return s.iterator(start, end, false), nil
}

func (s *memStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return s.iterator(start, end, true), nil
}

// iterator snapshots the keys in [start, end) so writes during a walk do not
// disturb it.
func (s *memStore) iterator(start, end []byte, reverse bool) store.Iterator {
	keys := make([]string, 0, len(s.kv))
	for k := range s.kv {
		if start != nil && k < string(start) {
			continue
		}
		if end != nil && k >= string(end) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = bytes.Clone(s.kv[k])
	}

	return &memIterator{start: start, end: end, keys: keys, values: values}
}

type memIterator struct {
	start, end []byte
	keys       []string
	values     [][]byte
	idx        int
}

func (it *memIterator) Domain() ([]byte, []byte) { return it.start, it.end }

func (it *memIterator) Valid() bool { return it.idx < len(it.keys) }

func (it *memIterator) Next() { it.idx++ }

func (it *memIterator) Key() []byte { return []byte(it.keys[it.idx]) }

func (it *memIterator) Value() []byte { return it.values[it.idx] }

func (it *memIterator) Error() error { return nil }

func (it *memIterator) Close() error { return nil }
