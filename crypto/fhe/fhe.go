// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhe defines the homomorphic primitive layer the pool and the token
// ledgers are written against. Values never leave the co-processor in
// plaintext; contracts only see opaque handles and combine them with the
// primitives of an Evaluator.
package fhe

import (
	"errors"

	"github.com/luxfi/geth/common"
)

// Handle is a 32-byte reference to a ciphertext held by the co-processor.
// Handles are what contracts keep in storage. The zero handle marks an
// uninitialized slot.
type Handle = common.Hash

// Type is the plaintext type behind a handle
type Type uint8

const (
	Bool Type = iota + 1
	Int32
)

func (t Type) String() string {
	switch t {
	case Bool:
		return "ebool"
	case Int32:
		return "eint32"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownHandle is returned when a handle was not produced by the evaluator
	ErrUnknownHandle = errors.New("unknown ciphertext handle")

	// ErrTypeMismatch is returned when an operand has the wrong encrypted type
	ErrTypeMismatch = errors.New("ciphertext type mismatch")

	// ErrRequireFailed is returned by RequireTrue when the condition is false
	ErrRequireFailed = errors.New("encrypted requirement not satisfied")

	// ErrInvalidInput is returned when a user-supplied ciphertext fails verification
	ErrInvalidInput = errors.New("invalid encrypted input")

	// ErrInvalidPublicKey is returned when a re-encryption key is malformed
	ErrInvalidPublicKey = errors.New("invalid re-encryption public key")

	// ErrInvalidAttestation is returned when a re-encryption was not signed by the co-processor
	ErrInvalidAttestation = errors.New("invalid re-encryption attestation")
)

// Evaluator is the ciphertext primitive layer. Integer operations act on
// Int32 handles with two's-complement wrapping semantics; comparisons and
// boolean operations return Bool handles.
//
// Every operation is oblivious: its result is a new handle and nothing about
// the operands is revealed, except through RequireTrue, which discloses one
// bit (pass or abort), and Reencrypt, which discloses the value to the holder
// of the requester key.
type Evaluator interface {
	// TrivialEncrypt wraps a public constant as an Int32 ciphertext
	TrivialEncrypt(v int32) Handle

	// TrivialEncryptBool wraps a public constant as a Bool ciphertext
	TrivialEncryptBool(v bool) Handle

	// Verify imports a ciphertext produced by a user and returns its handle
	Verify(input []byte, typ Type) (Handle, error)

	Add(a, b Handle) (Handle, error)
	Sub(a, b Handle) (Handle, error)
	Mul(a, b Handle) (Handle, error)

	// Div is floor division. Dividing by zero yields -1 and does not fail.
	Div(a, b Handle) (Handle, error)

	// DivScalar is floor division by a public constant
	DivScalar(a Handle, d int32) (Handle, error)

	Lt(a, b Handle) (Handle, error)
	Le(a, b Handle) (Handle, error)
	Gt(a, b Handle) (Handle, error)
	Ge(a, b Handle) (Handle, error)
	Eq(a, b Handle) (Handle, error)
	Ne(a, b Handle) (Handle, error)

	And(a, b Handle) (Handle, error)
	Or(a, b Handle) (Handle, error)
	Not(a Handle) (Handle, error)

	// Select returns a handle equal to [ifTrue] when [cond] holds and to
	// [ifFalse] otherwise, without revealing which.
	Select(cond, ifTrue, ifFalse Handle) (Handle, error)

	// RequireTrue aborts with ErrRequireFailed unless [cond] is true
	RequireTrue(cond Handle) error

	// Reencrypt returns the value behind [h] sealed to [publicKey] inside an
	// attested envelope. See Keypair.Open.
	Reencrypt(h Handle, publicKey []byte) ([]byte, error)
}

// OrZero returns [h], or a fresh encryption of zero when [h] is the unset
// handle of an uninitialized storage slot.
func OrZero(e Evaluator, h Handle) Handle {
	if h == (Handle{}) {
		return e.TrivialEncrypt(0)
	}
	return h
}
