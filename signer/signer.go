// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/crypto"
)

// SignatureLen is the length of a capability signature: r || s || v
const SignatureLen = 65

var (
	ErrInvalidSignature = errors.New("invalid capability signature")
	ErrSignerMismatch   = errors.New("capability signed by another account")
)

// Signer issues capability tokens for an account
type Signer interface {
	// SignCapability authorizes re-encryption of values held by the
	// domain's contract under [publicKey]
	SignCapability(domain Domain, publicKey []byte) ([]byte, error)

	// Address returns the account the signer speaks for
	Address() common.Address
}

var _ Signer = (*LocalSigner)(nil)

// LocalSigner signs capabilities with a local secp256k1 key
type LocalSigner struct {
	sk   *secp256k1.PrivateKey
	addr common.Address
}

// NewLocalSigner creates a new local signer
func NewLocalSigner(sk *secp256k1.PrivateKey) *LocalSigner {
	return &LocalSigner{
		sk:   sk,
		addr: PubkeyToAddress(sk.PubKey()),
	}
}

// GenerateLocalSigner creates a signer backed by a fresh key
func GenerateLocalSigner() (*LocalSigner, error) {
	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewLocalSigner(sk), nil
}

func (s *LocalSigner) Address() common.Address {
	return s.addr
}

func (s *LocalSigner) SignCapability(domain Domain, publicKey []byte) ([]byte, error) {
	digest, err := Digest(domain, publicKey)
	if err != nil {
		return nil, err
	}
	compact := ecdsa.SignCompact(s.sk, digest[:], false)

	// compact is v || r || s with v = 27 + recovery id
	sig := make([]byte, SignatureLen)
	copy(sig, compact[1:])
	sig[64] = compact[0] - 27
	return sig, nil
}

// RecoverAddress returns the account that produced [sig] over [digest]
func RecoverAddress(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLen {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLen, len(sig))
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, fmt.Errorf("%w: bad recovery id", ErrInvalidSignature)
	}

	compact := make([]byte, SignatureLen)
	compact[0] = v + 27
	copy(compact[1:], sig[:64])
	pk, _, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return PubkeyToAddress(pk), nil
}

// PubkeyToAddress returns the account address of a secp256k1 public key
func PubkeyToAddress(pk *secp256k1.PublicKey) common.Address {
	uncompressed := pk.SerializeUncompressed()
	return common.BytesToAddress(crypto.Keccak256(uncompressed[1:])[12:])
}
