// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crypto holds the hashing helpers shared by the pool, the token
// ledgers and the co-processor.
package crypto

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the legacy Keccak-256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash is Keccak256 returned as a storage word.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}

// CreateAddress derives a contract address from its deployer and the
// deployer's nonce.
func CreateAddress(deployer common.Address, nonce uint64) common.Address {
	data, _ := rlp.EncodeToBytes([]interface{}{deployer, nonce})
	return common.BytesToAddress(Keccak256(data)[12:])
}

// Selector returns the 4-byte method identifier for a call signature such as
// "swap(uint8,bytes)".
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], Keccak256([]byte(signature)))
	return sel
}
