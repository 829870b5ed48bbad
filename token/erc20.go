// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/crypto"
	"github.com/luxfi/cfmm/crypto/fhe"
	"github.com/luxfi/cfmm/signer"
)

// Storage layout of an EncryptedERC20 contract
var (
	slotTotalSupply = backend.SlotIndex(0)
	slotBalances    = backend.SlotIndex(1)
	slotAllowances  = backend.SlotIndex(2)
	slotOwner       = backend.SlotIndex(3)
)

var _ Ledger = (*EncryptedERC20)(nil)

// Config configures an EncryptedERC20 deployment
type Config struct {
	Name      string
	Symbol    string
	ChainID   ids.ID
	Evaluator fhe.Evaluator
	Verifier  *signer.Verifier
	Log       log.Logger
}

// EncryptedERC20 is a token with encrypted balances and allowances. The
// deployer owns the contract and is the only account allowed to mint.
type EncryptedERC20 struct {
	name     string
	symbol   string
	addr     common.Address
	domain   signer.Domain
	fhe      fhe.Evaluator
	verifier *signer.Verifier
	log      log.Logger
}

// Deploy creates a new token owned by [deployer]. The contract address is
// derived from the deployer and its nonce.
func Deploy(st backend.StateDB, deployer common.Address, cfg Config) (*EncryptedERC20, error) {
	nonce := st.GetNonce(deployer)
	addr := crypto.CreateAddress(deployer, nonce)
	if st.GetState(addr, slotOwner) != (common.Hash{}) {
		return nil, fmt.Errorf("%w at %s", ErrAlreadyDeployed, addr)
	}
	st.SetNonce(deployer, nonce+1)

	t := At(addr, cfg)
	st.SetState(addr, slotOwner, backend.AddressKey(deployer))
	st.SetState(addr, slotTotalSupply, cfg.Evaluator.TrivialEncrypt(0))

	t.log.Info("deployed confidential token",
		log.Stringer("token", addr),
		log.Stringer("owner", deployer),
	)
	return t, nil
}

// At binds to a token already deployed at [addr]
func At(addr common.Address, cfg Config) *EncryptedERC20 {
	return &EncryptedERC20{
		name:     cfg.Name,
		symbol:   cfg.Symbol,
		addr:     addr,
		domain:   signer.NewDomain(cfg.ChainID, addr),
		fhe:      cfg.Evaluator,
		verifier: cfg.Verifier,
		log:      cfg.Log,
	}
}

func (t *EncryptedERC20) Address() common.Address { return t.addr }
func (t *EncryptedERC20) Name() string            { return t.name }
func (t *EncryptedERC20) Symbol() string          { return t.symbol }

// Domain returns the capability domain for re-encryption requests
func (t *EncryptedERC20) Domain() signer.Domain { return t.domain }

// Owner returns the contract owner
func (t *EncryptedERC20) Owner(st backend.StateDB) common.Address {
	return backend.HashToAddress(st.GetState(t.addr, slotOwner))
}

// Mint credits [amount] to the owner. The amount must be positive and must
// not push the encrypted total supply past the int32 range; since every
// balance is bounded by the supply no balance can wrap either.
func (t *EncryptedERC20) Mint(st backend.StateDB, caller common.Address, amount fhe.Handle) error {
	owner, err := t.requireOwner(st, caller)
	if err != nil {
		return err
	}
	return backend.Atomic(st, func() error {
		c := fhe.NewCircuit(t.fhe)
		supply := c.Load(st.GetState(t.addr, slotTotalSupply))
		newSupply := c.Add(supply, amount)
		ok := c.And(c.Gt(amount, c.Const(0)), c.Gt(newSupply, supply))

		balanceSlot := t.balanceSlot(owner)
		newBalance := c.Add(c.Load(st.GetState(t.addr, balanceSlot)), amount)
		if err := c.Err(); err != nil {
			return err
		}
		if err := t.fhe.RequireTrue(ok); err != nil {
			return fmt.Errorf("%w: %w", ErrMintFailed, err)
		}

		st.SetState(t.addr, slotTotalSupply, newSupply)
		st.SetState(t.addr, balanceSlot, newBalance)
		t.log.Debug("minted", log.Stringer("token", t.addr))
		return nil
	})
}

// Approve sets the allowance [caller] grants to [spender]
func (t *EncryptedERC20) Approve(st backend.StateDB, caller, spender common.Address, amount fhe.Handle) error {
	if st.GetState(t.addr, slotOwner) == (common.Hash{}) {
		return fmt.Errorf("%w at %s", ErrNotDeployed, t.addr)
	}
	st.SetState(t.addr, t.allowanceSlot(caller, spender), amount)
	return nil
}

func (t *EncryptedERC20) Transfer(st backend.StateDB, from, to common.Address, amount fhe.Handle) (fhe.Handle, error) {
	c := fhe.NewCircuit(t.fhe)
	balance := c.Load(st.GetState(t.addr, t.balanceSlot(from)))
	canTransfer := c.And(c.Le(amount, balance), c.Ge(amount, c.Const(0)))
	if err := c.Err(); err != nil {
		return fhe.Handle{}, err
	}
	return t.move(st, from, to, amount, canTransfer)
}

func (t *EncryptedERC20) TransferFrom(st backend.StateDB, spender, from, to common.Address, amount fhe.Handle) (fhe.Handle, error) {
	c := fhe.NewCircuit(t.fhe)
	allowanceSlot := t.allowanceSlot(from, spender)
	allowance := c.Load(st.GetState(t.addr, allowanceSlot))
	balance := c.Load(st.GetState(t.addr, t.balanceSlot(from)))

	canTransfer := c.And(
		c.And(c.Le(amount, allowance), c.Le(amount, balance)),
		c.Ge(amount, c.Const(0)),
	)
	moved := c.Select(canTransfer, amount, c.Const(0))
	newAllowance := c.Sub(allowance, moved)
	if err := c.Err(); err != nil {
		return fhe.Handle{}, err
	}

	st.SetState(t.addr, allowanceSlot, newAllowance)
	return t.move(st, from, to, amount, canTransfer)
}

// move debits and credits select(canTransfer, amount, 0) and returns it
func (t *EncryptedERC20) move(st backend.StateDB, from, to common.Address, amount, canTransfer fhe.Handle) (fhe.Handle, error) {
	c := fhe.NewCircuit(t.fhe)
	moved := c.Select(canTransfer, amount, c.Const(0))

	fromSlot := t.balanceSlot(from)
	st.SetState(t.addr, fromSlot, c.Sub(c.Load(st.GetState(t.addr, fromSlot)), moved))

	// read after the debit so self transfers net to zero
	toSlot := t.balanceSlot(to)
	st.SetState(t.addr, toSlot, c.Add(c.Load(st.GetState(t.addr, toSlot)), moved))
	if err := c.Err(); err != nil {
		return fhe.Handle{}, err
	}
	return moved, nil
}

// BalanceOf re-encrypts the caller's balance under [publicKey]. [sig] must be
// the caller's capability for this token and key.
func (t *EncryptedERC20) BalanceOf(st backend.StateDB, caller common.Address, publicKey, sig []byte) ([]byte, error) {
	if err := t.verifier.Authorize(t.domain, publicKey, sig, caller); err != nil {
		return nil, err
	}
	h := fhe.OrZero(t.fhe, st.GetState(t.addr, t.balanceSlot(caller)))
	return t.fhe.Reencrypt(h, publicKey)
}

// Allowance re-encrypts the allowance the caller granted to [spender]
func (t *EncryptedERC20) Allowance(st backend.StateDB, caller, spender common.Address, publicKey, sig []byte) ([]byte, error) {
	if err := t.verifier.Authorize(t.domain, publicKey, sig, caller); err != nil {
		return nil, err
	}
	h := fhe.OrZero(t.fhe, st.GetState(t.addr, t.allowanceSlot(caller, spender)))
	return t.fhe.Reencrypt(h, publicKey)
}

// TotalSupply re-encrypts the total supply for the owner
func (t *EncryptedERC20) TotalSupply(st backend.StateDB, caller common.Address, publicKey, sig []byte) ([]byte, error) {
	if _, err := t.requireOwner(st, caller); err != nil {
		return nil, err
	}
	if err := t.verifier.Authorize(t.domain, publicKey, sig, caller); err != nil {
		return nil, err
	}
	return t.fhe.Reencrypt(fhe.OrZero(t.fhe, st.GetState(t.addr, slotTotalSupply)), publicKey)
}

func (t *EncryptedERC20) requireOwner(st backend.StateDB, caller common.Address) (common.Address, error) {
	word := st.GetState(t.addr, slotOwner)
	if word == (common.Hash{}) {
		return common.Address{}, fmt.Errorf("%w at %s", ErrNotDeployed, t.addr)
	}
	owner := backend.HashToAddress(word)
	if caller != owner {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	return owner, nil
}

func (t *EncryptedERC20) balanceSlot(account common.Address) common.Hash {
	return backend.MappingSlot(backend.AddressKey(account), slotBalances)
}

func (t *EncryptedERC20) allowanceSlot(owner, spender common.Address) common.Hash {
	return backend.MappingSlot(backend.AddressKey(spender), backend.MappingSlot(backend.AddressKey(owner), slotAllowances))
}
