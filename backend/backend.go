// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/luxfi/geth/common"
)

var errInvalidRevision = errors.New("invalid revision id")

// StateDB is the contract storage seen by the pool and the token ledgers.
// Every write is journaled so a failed call can be rolled back in full.
type StateDB interface {
	// GetState returns the word stored at [key] for contract [addr]. Unset
	// slots read as the zero hash.
	GetState(addr common.Address, key common.Hash) common.Hash

	// SetState stores [value] at [key] for contract [addr]
	SetState(addr common.Address, key, value common.Hash)

	// GetNonce returns the number of contracts created by [addr]
	GetNonce(addr common.Address) uint64

	// SetNonce sets the creation nonce of [addr]
	SetNonce(addr common.Address, nonce uint64)

	// Snapshot returns an identifier for the current revision of the state
	Snapshot() int

	// RevertToSnapshot reverts all changes made since the given revision
	RevertToSnapshot(revid int)
}

type storageChange struct {
	addr    common.Address
	key     common.Hash
	prev    common.Hash
	existed bool
}

type nonceChange struct {
	addr common.Address
	prev uint64
}

// journalEntry is exactly one of a storage or nonce change
type journalEntry struct {
	storage *storageChange
	nonce   *nonceChange
}

type revision struct {
	id           int
	journalIndex int
}

// MemoryBackend is an in-memory, journaled implementation of StateDB.
// Transactions submitted through Execute are serialized.
type MemoryBackend struct {
	txLock sync.Mutex

	mu             sync.RWMutex
	storage        map[common.Address]map[common.Hash]common.Hash
	nonces         map[common.Address]uint64
	journal        []journalEntry
	validRevisions []revision
	nextRevisionID int
}

// NewMemoryBackend creates a new memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		storage: make(map[common.Address]map[common.Hash]common.Hash),
		nonces:  make(map[common.Address]uint64),
	}
}

func (b *MemoryBackend) GetState(addr common.Address, key common.Hash) common.Hash {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.storage[addr][key]
}

func (b *MemoryBackend) SetState(addr common.Address, key, value common.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()

	slots, ok := b.storage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		b.storage[addr] = slots
	}
	prev, existed := slots[key]
	b.journal = append(b.journal, journalEntry{storage: &storageChange{
		addr:    addr,
		key:     key,
		prev:    prev,
		existed: existed,
	}})
	slots[key] = value
}

func (b *MemoryBackend) GetNonce(addr common.Address) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.nonces[addr]
}

func (b *MemoryBackend) SetNonce(addr common.Address, nonce uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.journal = append(b.journal, journalEntry{nonce: &nonceChange{
		addr: addr,
		prev: b.nonces[addr],
	}})
	b.nonces[addr] = nonce
}

func (b *MemoryBackend) Snapshot() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextRevisionID
	b.nextRevisionID++
	b.validRevisions = append(b.validRevisions, revision{id: id, journalIndex: len(b.journal)})
	return id
}

func (b *MemoryBackend) RevertToSnapshot(revid int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := sort.Search(len(b.validRevisions), func(i int) bool {
		return b.validRevisions[i].id >= revid
	})
	if idx == len(b.validRevisions) || b.validRevisions[idx].id != revid {
		panic(fmt.Errorf("%w: %d", errInvalidRevision, revid))
	}
	snapshot := b.validRevisions[idx].journalIndex

	for i := len(b.journal) - 1; i >= snapshot; i-- {
		b.undo(b.journal[i])
	}
	b.journal = b.journal[:snapshot]
	b.validRevisions = b.validRevisions[:idx]
}

// undo must be called with mu held
func (b *MemoryBackend) undo(entry journalEntry) {
	switch {
	case entry.storage != nil:
		c := entry.storage
		if c.existed {
			b.storage[c.addr][c.key] = c.prev
		} else {
			delete(b.storage[c.addr], c.key)
		}
	case entry.nonce != nil:
		b.nonces[entry.nonce.addr] = entry.nonce.prev
	}
}

// Execute runs [fn] as a single transaction. Transactions never interleave.
// If [fn] returns an error every state change it made is reverted;
// otherwise the changes are committed and the journal is discarded.
func (b *MemoryBackend) Execute(fn func(StateDB) error) error {
	b.txLock.Lock()
	defer b.txLock.Unlock()

	if err := Atomic(b, func() error { return fn(b) }); err != nil {
		return err
	}

	b.mu.Lock()
	b.journal = b.journal[:0]
	b.validRevisions = b.validRevisions[:0]
	b.mu.Unlock()
	return nil
}

// Atomic runs [fn] against [st] and reverts everything it wrote if it fails.
// Calls may nest; an inner failure only unwinds the inner call.
func Atomic(st StateDB, fn func() error) error {
	revid := st.Snapshot()
	if err := fn(); err != nil {
		st.RevertToSnapshot(revid)
		return err
	}
	return nil
}
