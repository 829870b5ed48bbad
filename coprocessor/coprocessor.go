// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coprocessor is an in-process encryption co-processor. It keeps the
// plaintext behind every handle it issues and evaluates the fhe.Evaluator
// primitives over it, so contracts and tests run without a TFHE backend.
// Inputs arrive sealed under the network key and outputs leave only through
// attested re-encryption.
package coprocessor

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/log"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/luxfi/cfmm/crypto"
	"github.com/luxfi/cfmm/crypto/fhe"
)

const nonceLen = 24

var _ fhe.Evaluator = (*Coprocessor)(nil)

type ciphertext struct {
	typ   fhe.Type
	value int32
}

func (c ciphertext) bool() bool { return c.value != 0 }

// Coprocessor implements fhe.Evaluator
type Coprocessor struct {
	log log.Logger

	lock       sync.RWMutex
	values     map[fhe.Handle]ciphertext
	seq        uint64
	networkKey [32]byte
	attester   *bls.SecretKey
}

// New creates a co-processor with a fresh network key and attestation key
func New(logger log.Logger) (*Coprocessor, error) {
	sk, err := bls.NewSecretKey()
	if err != nil {
		return nil, fmt.Errorf("failed to create attestation key: %w", err)
	}
	c := &Coprocessor{
		log:      logger,
		values:   make(map[fhe.Handle]ciphertext),
		attester: sk,
	}
	if _, err := rand.Read(c.networkKey[:]); err != nil {
		return nil, fmt.Errorf("failed to create network key: %w", err)
	}
	return c, nil
}

// Attester returns the key that signs re-encryptions
func (c *Coprocessor) Attester() *bls.PublicKey {
	return c.attester.PublicKey()
}

// EncryptInput seals [v] under the network key, the way a client prepares
// an encrypted argument. The result is accepted by Verify.
func (c *Coprocessor) EncryptInput(v int32) []byte {
	return c.seal(fhe.Int32, fhe.EncodeInt32(v))
}

// EncryptBoolInput is EncryptInput for booleans
func (c *Coprocessor) EncryptBoolInput(v bool) []byte {
	return c.seal(fhe.Bool, fhe.EncodeBool(v))
}

func (c *Coprocessor) seal(typ fhe.Type, plaintext []byte) []byte {
	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		panic(err)
	}
	out := make([]byte, 0, 1+nonceLen+len(plaintext)+secretbox.Overhead)
	out = append(out, byte(typ))
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, &c.networkKey)
}

func (c *Coprocessor) Verify(input []byte, typ fhe.Type) (fhe.Handle, error) {
	if len(input) < 1+nonceLen+secretbox.Overhead {
		return fhe.Handle{}, fmt.Errorf("%w: too short", fhe.ErrInvalidInput)
	}
	if fhe.Type(input[0]) != typ {
		return fhe.Handle{}, fmt.Errorf("%w: got %s, want %s", fhe.ErrTypeMismatch, fhe.Type(input[0]), typ)
	}
	var nonce [nonceLen]byte
	copy(nonce[:], input[1:1+nonceLen])
	plaintext, ok := secretbox.Open(nil, input[1+nonceLen:], &nonce, &c.networkKey)
	if !ok {
		return fhe.Handle{}, fmt.Errorf("%w: authentication failed", fhe.ErrInvalidInput)
	}

	var value int32
	switch {
	case typ == fhe.Int32 && len(plaintext) == 4:
		value = int32(binary.BigEndian.Uint32(plaintext))
	case typ == fhe.Bool && len(plaintext) == 1 && plaintext[0] <= 1:
		value = int32(plaintext[0])
	default:
		return fhe.Handle{}, fmt.Errorf("%w: malformed %s plaintext", fhe.ErrInvalidInput, typ)
	}

	h := c.store(opVerify, ciphertext{typ: typ, value: value}, crypto.Keccak256(input))
	c.log.Debug("verified encrypted input", log.Stringer("handle", h), log.Stringer("type", typ))
	return h, nil
}

func (c *Coprocessor) TrivialEncrypt(v int32) fhe.Handle {
	return c.store(opTrivialEncrypt, ciphertext{typ: fhe.Int32, value: v})
}

func (c *Coprocessor) TrivialEncryptBool(v bool) fhe.Handle {
	var value int32
	if v {
		value = 1
	}
	return c.store(opTrivialEncrypt, ciphertext{typ: fhe.Bool, value: value})
}

func (c *Coprocessor) Add(a, b fhe.Handle) (fhe.Handle, error) {
	return c.arith(opAdd, a, b, func(x, y int32) int32 { return x + y })
}

func (c *Coprocessor) Sub(a, b fhe.Handle) (fhe.Handle, error) {
	return c.arith(opSub, a, b, func(x, y int32) int32 { return x - y })
}

func (c *Coprocessor) Mul(a, b fhe.Handle) (fhe.Handle, error) {
	return c.arith(opMul, a, b, func(x, y int32) int32 { return x * y })
}

func (c *Coprocessor) Div(a, b fhe.Handle) (fhe.Handle, error) {
	return c.arith(opDiv, a, b, FloorDiv)
}

func (c *Coprocessor) DivScalar(a fhe.Handle, d int32) (fhe.Handle, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	x, err := c.load(a, fhe.Int32)
	if err != nil {
		return fhe.Handle{}, err
	}
	return c.storeLocked(opDivScalar, ciphertext{typ: fhe.Int32, value: FloorDiv(x.value, d)}, a[:], fhe.EncodeInt32(d)), nil
}

func (c *Coprocessor) Lt(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opLt, a, b, func(x, y int32) bool { return x < y })
}

func (c *Coprocessor) Le(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opLe, a, b, func(x, y int32) bool { return x <= y })
}

func (c *Coprocessor) Gt(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opGt, a, b, func(x, y int32) bool { return x > y })
}

func (c *Coprocessor) Ge(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opGe, a, b, func(x, y int32) bool { return x >= y })
}

func (c *Coprocessor) Eq(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opEq, a, b, func(x, y int32) bool { return x == y })
}

func (c *Coprocessor) Ne(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opNe, a, b, func(x, y int32) bool { return x != y })
}

func (c *Coprocessor) And(a, b fhe.Handle) (fhe.Handle, error) {
	return c.logic(opAnd, a, b, func(x, y bool) bool { return x && y })
}

func (c *Coprocessor) Or(a, b fhe.Handle) (fhe.Handle, error) {
	return c.logic(opOr, a, b, func(x, y bool) bool { return x || y })
}

func (c *Coprocessor) Not(a fhe.Handle) (fhe.Handle, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	x, err := c.load(a, fhe.Bool)
	if err != nil {
		return fhe.Handle{}, err
	}
	return c.storeLocked(opNot, boolCiphertext(!x.bool()), a[:]), nil
}

func (c *Coprocessor) Select(cond, ifTrue, ifFalse fhe.Handle) (fhe.Handle, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	cv, err := c.load(cond, fhe.Bool)
	if err != nil {
		return fhe.Handle{}, err
	}
	tv, err := c.load(ifTrue, 0)
	if err != nil {
		return fhe.Handle{}, err
	}
	fv, err := c.load(ifFalse, tv.typ)
	if err != nil {
		return fhe.Handle{}, err
	}
	result := fv
	if cv.bool() {
		result = tv
	}
	return c.storeLocked(opSelect, result, cond[:], ifTrue[:], ifFalse[:]), nil
}

func (c *Coprocessor) RequireTrue(cond fhe.Handle) error {
	c.lock.RLock()
	defer c.lock.RUnlock()

	cv, err := c.load(cond, fhe.Bool)
	if err != nil {
		return err
	}
	if !cv.bool() {
		return fhe.ErrRequireFailed
	}
	return nil
}

func (c *Coprocessor) Reencrypt(h fhe.Handle, publicKey []byte) ([]byte, error) {
	if len(publicKey) != fhe.PublicKeyLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", fhe.ErrInvalidPublicKey, fhe.PublicKeyLen, len(publicKey))
	}

	c.lock.RLock()
	ct, err := c.load(h, 0)
	c.lock.RUnlock()
	if err != nil {
		return nil, err
	}

	var plaintext []byte
	if ct.typ == fhe.Bool {
		plaintext = fhe.EncodeBool(ct.bool())
	} else {
		plaintext = fhe.EncodeInt32(ct.value)
	}

	var recipient [32]byte
	copy(recipient[:], publicKey)
	sealed, err := box.SealAnonymous(nil, plaintext, &recipient, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to seal value: %w", err)
	}
	sig, err := c.attester.Sign(fhe.AttestationMessage(sealed, publicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to attest re-encryption: %w", err)
	}

	envelope := &fhe.Reencryption{
		Sealed:    sealed,
		Signature: bls.SignatureToBytes(sig),
	}
	c.log.Debug("re-encrypted value", log.Stringer("handle", h))
	return envelope.Bytes()
}

func (c *Coprocessor) arith(op opcode, a, b fhe.Handle, f func(x, y int32) int32) (fhe.Handle, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	x, y, err := c.loadPair(a, b, fhe.Int32)
	if err != nil {
		return fhe.Handle{}, err
	}
	return c.storeLocked(op, ciphertext{typ: fhe.Int32, value: f(x.value, y.value)}, a[:], b[:]), nil
}

func (c *Coprocessor) compare(op opcode, a, b fhe.Handle, f func(x, y int32) bool) (fhe.Handle, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	x, y, err := c.loadPair(a, b, fhe.Int32)
	if err != nil {
		return fhe.Handle{}, err
	}
	return c.storeLocked(op, boolCiphertext(f(x.value, y.value)), a[:], b[:]), nil
}

func (c *Coprocessor) logic(op opcode, a, b fhe.Handle, f func(x, y bool) bool) (fhe.Handle, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	x, y, err := c.loadPair(a, b, fhe.Bool)
	if err != nil {
		return fhe.Handle{}, err
	}
	return c.storeLocked(op, boolCiphertext(f(x.bool(), y.bool())), a[:], b[:]), nil
}

func (c *Coprocessor) loadPair(a, b fhe.Handle, typ fhe.Type) (ciphertext, ciphertext, error) {
	x, err := c.load(a, typ)
	if err != nil {
		return ciphertext{}, ciphertext{}, err
	}
	y, err := c.load(b, typ)
	if err != nil {
		return ciphertext{}, ciphertext{}, err
	}
	return x, y, nil
}

// load must be called with the lock held. A zero [typ] accepts any type.
func (c *Coprocessor) load(h fhe.Handle, typ fhe.Type) (ciphertext, error) {
	ct, ok := c.values[h]
	if !ok {
		return ciphertext{}, fmt.Errorf("%w: %s", fhe.ErrUnknownHandle, h)
	}
	if typ != 0 && ct.typ != typ {
		return ciphertext{}, fmt.Errorf("%w: %s is %s, want %s", fhe.ErrTypeMismatch, h, ct.typ, typ)
	}
	return ct, nil
}

func (c *Coprocessor) store(op opcode, ct ciphertext, operands ...[]byte) fhe.Handle {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.storeLocked(op, ct, operands...)
}

// storeLocked derives a fresh handle from the sequence number, the opcode
// and the operands. It must be called with the lock held.
func (c *Coprocessor) storeLocked(op opcode, ct ciphertext, operands ...[]byte) fhe.Handle {
	var prefix [9]byte
	binary.BigEndian.PutUint64(prefix[:8], c.seq)
	prefix[8] = byte(op)
	c.seq++

	h := crypto.Keccak256Hash(append([][]byte{prefix[:]}, operands...)...)
	c.values[h] = ct
	return h
}

func boolCiphertext(v bool) ciphertext {
	if v {
		return ciphertext{typ: fhe.Bool, value: 1}
	}
	return ciphertext{typ: fhe.Bool, value: 0}
}

// FloorDiv divides rounding toward negative infinity. Division by zero
// returns -1, matching the all-ones result of an unsigned TFHE divider.
func FloorDiv(x, y int32) int32 {
	if y == 0 {
		return -1
	}
	q := x / y
	if x%y != 0 && (x < 0) != (y < 0) {
		q--
	}
	return q
}
