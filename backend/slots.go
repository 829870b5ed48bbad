// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"encoding/binary"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/crypto"
)

// SlotIndex returns the storage key of a fixed state variable.
func SlotIndex(n uint64) common.Hash {
	var h common.Hash
	binary.BigEndian.PutUint64(h[common.HashLength-8:], n)
	return h
}

// AddressKey left-pads an address into a mapping key.
func AddressKey(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// MappingSlot returns the storage key of mapping[key] where the mapping
// lives at [base], using the Solidity layout keccak(key . base).
func MappingSlot(key, base common.Hash) common.Hash {
	return crypto.Keccak256Hash(key.Bytes(), base.Bytes())
}

// HashToAddress reads an address stored in a storage word.
func HashToAddress(h common.Hash) common.Address {
	return common.BytesToAddress(h.Bytes())
}
