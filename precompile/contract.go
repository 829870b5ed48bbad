// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompile exposes a confidential pool as a stateful precompiled
// contract: 4-byte selector dispatch, a fixed gas schedule and RLP encoded
// arguments and results.
package precompile

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/log"

	"github.com/luxfi/cfmm"
	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/crypto"
	"github.com/luxfi/cfmm/crypto/fhe"
)

// Gas costs for pool operations
const (
	AddLiquidityGas       = 500_000
	SwapGas               = 400_000
	SwapConfidentialGas   = 900_000
	WithdrawFeeGas        = 300_000
	DiscloseGas           = 100_000
	GetConstantProductGas = 150_000
	OwnerGas              = 2_100
)

// ContractAddress is the address the pool precompile is installed at
var ContractAddress = common.HexToAddress("0x0300000000000000000000000000000000000001")

var (
	ErrUnknownSelector  = errors.New("unknown function selector")
	ErrOutOfGas         = errors.New("out of gas")
	ErrWriteProtection  = errors.New("write protection")
	ErrNonPayable       = errors.New("function is not payable")
	ErrInvalidArguments = errors.New("invalid call arguments")
)

// Function signatures
const (
	AddLiquiditySig       = "addLiquidity(bytes,bytes)"
	SwapSig               = "swap(uint8,bytes)"
	SwapConfidentialSig   = "swapConfidential(bytes,bytes)"
	WithdrawFeeSig        = "withdrawFee(address)"
	GetReserveASig        = "getReserveA(bytes32,bytes)"
	GetReserveBSig        = "getReserveB(bytes32,bytes)"
	GetConstantProductSig = "getConstantProduct(bytes32,bytes)"
	GetFeeBalancesSig     = "getFeeBalances(bytes32,bytes)"
	OwnerSig              = "owner()"
)

// AddLiquidityArgs carries two encrypted inputs
type AddLiquidityArgs struct {
	AmountA []byte
	AmountB []byte
}

type SwapArgs struct {
	Direction uint8
	AmountIn  []byte
}

type SwapConfidentialArgs struct {
	IsAToB   []byte
	AmountIn []byte
}

type SwapConfidentialResult struct {
	OutA common.Hash
	OutB common.Hash
}

type WithdrawFeeArgs struct {
	To common.Address
}

// DiscloseArgs is the re-encryption request of every disclosure function
type DiscloseArgs struct {
	PublicKey common.Hash
	Signature []byte
}

type FeeBalancesResult struct {
	FeeA []byte
	FeeB []byte
}

type function struct {
	name     string
	gas      uint64
	mutating bool
	run      func(c *Contract, st backend.StateDB, caller common.Address, args []byte) ([]byte, error)
}

var functions = map[[4]byte]function{
	crypto.Selector(AddLiquiditySig):       {"addLiquidity", AddLiquidityGas, true, (*Contract).addLiquidity},
	crypto.Selector(SwapSig):               {"swap", SwapGas, true, (*Contract).swap},
	crypto.Selector(SwapConfidentialSig):   {"swapConfidential", SwapConfidentialGas, true, (*Contract).swapConfidential},
	crypto.Selector(WithdrawFeeSig):        {"withdrawFee", WithdrawFeeGas, true, (*Contract).withdrawFee},
	crypto.Selector(GetReserveASig):        {"getReserveA", DiscloseGas, false, (*Contract).getReserveA},
	crypto.Selector(GetReserveBSig):        {"getReserveB", DiscloseGas, false, (*Contract).getReserveB},
	crypto.Selector(GetConstantProductSig): {"getConstantProduct", GetConstantProductGas, false, (*Contract).getConstantProduct},
	crypto.Selector(GetFeeBalancesSig):     {"getFeeBalances", DiscloseGas, false, (*Contract).getFeeBalances},
	crypto.Selector(OwnerSig):              {"owner", OwnerGas, false, (*Contract).owner},
}

// Contract dispatches precompile calls to a pool
type Contract struct {
	pool *cfmm.Pool
	fhe  fhe.Evaluator
	log  log.Logger
}

// NewContract wraps [pool]. Encrypted inputs are imported through [eval].
func NewContract(pool *cfmm.Pool, eval fhe.Evaluator, logger log.Logger) *Contract {
	return &Contract{
		pool: pool,
		fhe:  eval,
		log:  logger,
	}
}

// RequiredGas returns the gas cost of [input], or 0 for an unknown selector
func (c *Contract) RequiredGas(input []byte) uint64 {
	if len(input) < 4 {
		return 0
	}
	return functions[[4]byte(input[:4])].gas
}

// Run executes one call. The call is all-or-nothing: on error no state
// changes survive and the remaining gas is returned as zero.
func (c *Contract) Run(
	st backend.StateDB,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
	value *uint256.Int,
	readOnly bool,
) ([]byte, uint64, error) {
	if len(input) < 4 {
		return nil, 0, fmt.Errorf("%w: input of %d bytes", ErrUnknownSelector, len(input))
	}
	fn, ok := functions[[4]byte(input[:4])]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %x", ErrUnknownSelector, input[:4])
	}
	if suppliedGas < fn.gas {
		return nil, 0, fmt.Errorf("%w: %s needs %d, have %d", ErrOutOfGas, fn.name, fn.gas, suppliedGas)
	}
	if value != nil && !value.IsZero() {
		return nil, 0, fmt.Errorf("%w: %s", ErrNonPayable, fn.name)
	}
	if readOnly && fn.mutating {
		return nil, 0, fmt.Errorf("%w: %s", ErrWriteProtection, fn.name)
	}

	var ret []byte
	err := backend.Atomic(st, func() error {
		var err error
		ret, err = fn.run(c, st, caller, input[4:])
		return err
	})
	if err != nil {
		c.log.Debug("precompile call reverted",
			log.Stringer("caller", caller),
			log.Err(err),
		)
		return nil, 0, err
	}
	return ret, suppliedGas - fn.gas, nil
}

func decode(args []byte, v interface{}) error {
	if err := rlp.DecodeBytes(args, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return nil
}

func (c *Contract) input(raw []byte, typ fhe.Type) (fhe.Handle, error) {
	h, err := c.fhe.Verify(raw, typ)
	if err != nil {
		return fhe.Handle{}, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return h, nil
}

func (c *Contract) addLiquidity(st backend.StateDB, caller common.Address, args []byte) ([]byte, error) {
	var a AddLiquidityArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	amountA, err := c.input(a.AmountA, fhe.Int32)
	if err != nil {
		return nil, err
	}
	amountB, err := c.input(a.AmountB, fhe.Int32)
	if err != nil {
		return nil, err
	}
	return nil, c.pool.AddLiquidity(st, caller, amountA, amountB)
}

func (c *Contract) swap(st backend.StateDB, caller common.Address, args []byte) ([]byte, error) {
	var a SwapArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	amountIn, err := c.input(a.AmountIn, fhe.Int32)
	if err != nil {
		return nil, err
	}
	netOut, err := c.pool.Swap(st, caller, cfmm.Direction(a.Direction), amountIn)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(netOut)
}

func (c *Contract) swapConfidential(st backend.StateDB, caller common.Address, args []byte) ([]byte, error) {
	var a SwapConfidentialArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	isAToB, err := c.input(a.IsAToB, fhe.Bool)
	if err != nil {
		return nil, err
	}
	amountIn, err := c.input(a.AmountIn, fhe.Int32)
	if err != nil {
		return nil, err
	}
	outA, outB, err := c.pool.SwapConfidential(st, caller, isAToB, amountIn)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&SwapConfidentialResult{OutA: outA, OutB: outB})
}

func (c *Contract) withdrawFee(st backend.StateDB, caller common.Address, args []byte) ([]byte, error) {
	var a WithdrawFeeArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	return nil, c.pool.WithdrawFee(st, caller, a.To)
}

type discloseFunc func(st backend.StateDB, caller common.Address, publicKey, sig []byte) ([]byte, error)

func (c *Contract) disclose(st backend.StateDB, caller common.Address, args []byte, fn discloseFunc) ([]byte, error) {
	var a DiscloseArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	envelope, err := fn(st, caller, a.PublicKey[:], a.Signature)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(envelope)
}

func (c *Contract) getReserveA(st backend.StateDB, caller common.Address, args []byte) ([]byte, error) {
	return c.disclose(st, caller, args, c.pool.GetReserveA)
}

func (c *Contract) getReserveB(st backend.StateDB, caller common.Address, args []byte) ([]byte, error) {
	return c.disclose(st, caller, args, c.pool.GetReserveB)
}

func (c *Contract) getConstantProduct(st backend.StateDB, caller common.Address, args []byte) ([]byte, error) {
	return c.disclose(st, caller, args, c.pool.GetConstantProduct)
}

func (c *Contract) getFeeBalances(st backend.StateDB, caller common.Address, args []byte) ([]byte, error) {
	var a DiscloseArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	feeA, feeB, err := c.pool.GetFeeBalances(st, caller, a.PublicKey[:], a.Signature)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&FeeBalancesResult{FeeA: feeA, FeeB: feeB})
}

func (c *Contract) owner(st backend.StateDB, _ common.Address, _ []byte) ([]byte, error) {
	owner, err := c.pool.Owner(st)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(owner)
}
