// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"

	"github.com/luxfi/cfmm/crypto"
)

const (
	DomainName    = "Authorization token"
	DomainVersion = "1"
)

var (
	ErrInvalidPublicKey = errors.New("capability public key must be 32 bytes")

	domainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,bytes32 chainId,address verifyingContract)",
	))
	reencryptTypeHash = crypto.Keccak256Hash([]byte("Reencrypt(bytes32 publicKey)"))
)

// Domain binds a capability to one contract on one chain
type Domain struct {
	Name              string
	Version           string
	ChainID           ids.ID
	VerifyingContract common.Address
}

// NewDomain returns the capability domain of [contract] on [chainID]
func NewDomain(chainID ids.ID, contract common.Address) Domain {
	return Domain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainID:           chainID,
		VerifyingContract: contract,
	}
}

// Separator returns the typed-data domain separator
func (d Domain) Separator() common.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash[:],
		crypto.Keccak256([]byte(d.Name)),
		crypto.Keccak256([]byte(d.Version)),
		d.ChainID[:],
		common.BytesToHash(d.VerifyingContract.Bytes()).Bytes(),
	)
}

// Digest returns the hash a capability signature commits to
func Digest(d Domain, publicKey []byte) (common.Hash, error) {
	if len(publicKey) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: got %d bytes", ErrInvalidPublicKey, len(publicKey))
	}
	structHash := crypto.Keccak256(reencryptTypeHash[:], publicKey)
	sep := d.Separator()
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, sep[:], structHash), nil
}
