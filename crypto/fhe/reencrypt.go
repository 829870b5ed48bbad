// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/geth/rlp"
	"golang.org/x/crypto/nacl/box"

	"github.com/luxfi/cfmm/crypto"
)

// PublicKeyLen is the length of a re-encryption public key
const PublicKeyLen = 32

// Keypair is a requester key used to receive re-encrypted values
type Keypair struct {
	public  *[32]byte
	private *[32]byte
}

// GenerateKeypair creates a fresh requester keypair
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return &Keypair{public: pub, private: priv}, nil
}

// PublicKey returns the key a re-encryption is sealed to
func (k *Keypair) PublicKey() []byte {
	return append([]byte(nil), k.public[:]...)
}

// Reencryption is the envelope returned by Evaluator.Reencrypt. Sealed holds
// the plaintext sealed to the requester key; Signature is the co-processor's
// BLS attestation over AttestationMessage(Sealed, requesterKey).
type Reencryption struct {
	Sealed    []byte
	Signature []byte
}

// Bytes returns the RLP encoding of the envelope
func (r *Reencryption) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// ParseReencryption decodes an envelope
func ParseReencryption(b []byte) (*Reencryption, error) {
	r := new(Reencryption)
	if err := rlp.DecodeBytes(b, r); err != nil {
		return nil, fmt.Errorf("failed to decode re-encryption: %w", err)
	}
	return r, nil
}

// AttestationMessage is the message the co-processor signs for a re-encryption
func AttestationMessage(sealed, publicKey []byte) []byte {
	return crypto.Keccak256(sealed, publicKey)
}

// Open checks the attestation on [envelope] against [attester] and returns
// the raw plaintext bytes.
func (k *Keypair) Open(envelope []byte, attester *bls.PublicKey) ([]byte, error) {
	r, err := ParseReencryption(envelope)
	if err != nil {
		return nil, err
	}
	sig, err := bls.SignatureFromBytes(r.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAttestation, err)
	}
	if !bls.Verify(attester, sig, AttestationMessage(r.Sealed, k.public[:])) {
		return nil, ErrInvalidAttestation
	}
	plaintext, ok := box.OpenAnonymous(nil, r.Sealed, k.public, k.private)
	if !ok {
		return nil, fmt.Errorf("%w: cannot open sealed value", ErrInvalidInput)
	}
	return plaintext, nil
}

// DecryptInt32 opens an envelope holding an Int32 value
func (k *Keypair) DecryptInt32(envelope []byte, attester *bls.PublicKey) (int32, error) {
	plaintext, err := k.Open(envelope, attester)
	if err != nil {
		return 0, err
	}
	if len(plaintext) != 4 {
		return 0, fmt.Errorf("%w: expected %s", ErrTypeMismatch, Int32)
	}
	return int32(binary.BigEndian.Uint32(plaintext)), nil
}

// DecryptBool opens an envelope holding a Bool value
func (k *Keypair) DecryptBool(envelope []byte, attester *bls.PublicKey) (bool, error) {
	plaintext, err := k.Open(envelope, attester)
	if err != nil {
		return false, err
	}
	if len(plaintext) != 1 {
		return false, fmt.Errorf("%w: expected %s", ErrTypeMismatch, Bool)
	}
	return plaintext[0] == 1, nil
}

// EncodeInt32 is the plaintext layout of an Int32 value inside a ciphertext
func EncodeInt32(v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

// EncodeBool is the plaintext layout of a Bool value inside a ciphertext
func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}
