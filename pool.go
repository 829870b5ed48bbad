// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package cfmm implements a confidential two-asset constant-product market
// maker. Reserves, fee balances and trade sizes are encrypted handles;
// every rule a call enforces is evaluated under encryption and checked with
// a single RequireTrue, so an aborted call does not reveal which rule failed.
package cfmm

import (
	"fmt"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/crypto"
	"github.com/luxfi/cfmm/crypto/fhe"
	"github.com/luxfi/cfmm/signer"
	"github.com/luxfi/cfmm/token"
)

// FeeDivisor sets the protocol fee: floor(grossOut / FeeDivisor) of every
// swap output goes to the fee balance of the output asset.
const FeeDivisor = 20

// Storage layout of a pool contract
var (
	slotReserveA = backend.SlotIndex(0)
	slotReserveB = backend.SlotIndex(1)
	slotFeeA     = backend.SlotIndex(2)
	slotFeeB     = backend.SlotIndex(3)
	slotOwner    = backend.SlotIndex(4)
)

// Asset is one side of the pair
type Asset uint8

const (
	AssetA Asset = iota
	AssetB
)

func (a Asset) String() string {
	if a == AssetA {
		return "A"
	}
	return "B"
}

func (a Asset) reserveSlot() common.Hash {
	if a == AssetA {
		return slotReserveA
	}
	return slotReserveB
}

func (a Asset) feeSlot() common.Hash {
	if a == AssetA {
		return slotFeeA
	}
	return slotFeeB
}

// Config configures a pool
type Config struct {
	ChainID   ids.ID
	TokenA    token.Ledger
	TokenB    token.Ledger
	Evaluator fhe.Evaluator
	Verifier  *signer.Verifier
	Log       log.Logger

	// Metrics is optional
	Metrics *Metrics
}

// Pool is a deployed confidential CFMM. All state lives in the StateDB
// passed to each call; a Pool only carries its address and collaborators.
//
// Pool does not check who may use an encrypted handle. Amount and direction
// handles passed to its methods must come from Evaluator.Verify on the
// caller's own input, or from results returned to that caller. The
// precompile only passes handles it imported through Verify.
type Pool struct {
	addr     common.Address
	domain   signer.Domain
	tokens   [2]token.Ledger
	fhe      fhe.Evaluator
	verifier *signer.Verifier
	log      log.Logger
	metrics  *Metrics
}

// Deploy creates a pool owned by [deployer] with zero reserves and fees.
func Deploy(st backend.StateDB, deployer common.Address, cfg Config) (*Pool, error) {
	nonce := st.GetNonce(deployer)
	addr := crypto.CreateAddress(deployer, nonce)
	if st.GetState(addr, slotOwner) != (common.Hash{}) {
		return nil, fmt.Errorf("%w at %s", ErrAlreadyDeployed, addr)
	}
	st.SetNonce(deployer, nonce+1)

	p := At(addr, cfg)
	for _, slot := range []common.Hash{slotReserveA, slotReserveB, slotFeeA, slotFeeB} {
		st.SetState(addr, slot, p.fhe.TrivialEncrypt(0))
	}
	st.SetState(addr, slotOwner, backend.AddressKey(deployer))

	p.log.Info("deployed confidential pool",
		log.Stringer("pool", addr),
		log.Stringer("owner", deployer),
		log.Stringer("tokenA", cfg.TokenA.Address()),
		log.Stringer("tokenB", cfg.TokenB.Address()),
	)
	return p, nil
}

// At binds to a pool already deployed at [addr]
func At(addr common.Address, cfg Config) *Pool {
	return &Pool{
		addr:     addr,
		domain:   signer.NewDomain(cfg.ChainID, addr),
		tokens:   [2]token.Ledger{cfg.TokenA, cfg.TokenB},
		fhe:      cfg.Evaluator,
		verifier: cfg.Verifier,
		log:      cfg.Log,
		metrics:  cfg.Metrics,
	}
}

// Address returns the pool's contract address
func (p *Pool) Address() common.Address { return p.addr }

// Domain returns the capability domain for disclosure requests
func (p *Pool) Domain() signer.Domain { return p.domain }

// Owner returns the single account allowed to disclose state and withdraw fees
func (p *Pool) Owner(st backend.StateDB) (common.Address, error) {
	word := st.GetState(p.addr, slotOwner)
	if word == (common.Hash{}) {
		return common.Address{}, fmt.Errorf("%w at %s", ErrNotDeployed, p.addr)
	}
	return backend.HashToAddress(word), nil
}

// requireOwner reads the owner from state on every call
func (p *Pool) requireOwner(st backend.StateDB, caller common.Address) error {
	owner, err := p.Owner(st)
	if err != nil {
		return err
	}
	if caller != owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

func (p *Pool) load(st backend.StateDB, slot common.Hash) fhe.Handle {
	return fhe.OrZero(p.fhe, st.GetState(p.addr, slot))
}

// pull moves [amount] of [asset] from [from] into the pool against the
// allowance granted to the pool. Moving less than asked fails the guard.
func (p *Pool) pull(g *guard, st backend.StateDB, asset Asset, from common.Address, amount fhe.Handle) {
	if g.Err() != nil {
		return
	}
	moved, err := p.tokens[asset].TransferFrom(st, p.addr, from, p.addr, amount)
	if err != nil {
		g.Fail(fmt.Errorf("transfer of %s from %s failed: %w", asset, from, err))
		return
	}
	g.require(TransferFailed, g.Eq(moved, amount))
}

// pay moves [amount] of [asset] out of the pool to [to]
func (p *Pool) pay(g *guard, st backend.StateDB, asset Asset, to common.Address, amount fhe.Handle) {
	if g.Err() != nil {
		return
	}
	moved, err := p.tokens[asset].Transfer(st, p.addr, to, amount)
	if err != nil {
		g.Fail(fmt.Errorf("transfer of %s to %s failed: %w", asset, to, err))
		return
	}
	g.require(TransferFailed, g.Eq(moved, amount))
}

// call runs [fn] as one all-or-nothing pool call
func (p *Pool) call(st backend.StateDB, method Method, caller common.Address, fn func() error) error {
	start := time.Now()
	err := backend.Atomic(st, fn)
	p.metrics.observe(method, err, time.Since(start))
	if err != nil {
		p.log.Debug("pool call failed",
			log.Stringer("pool", p.addr),
			log.Stringer("method", method),
			log.Stringer("caller", caller),
			log.Err(err),
		)
		return err
	}
	p.log.Debug("pool call committed",
		log.Stringer("pool", p.addr),
		log.Stringer("method", method),
		log.Stringer("caller", caller),
	)
	return nil
}
