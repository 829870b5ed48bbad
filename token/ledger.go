// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements the confidential token ledger the pool trades
// against. Balances, allowances and the total supply are encrypted; a
// transfer that is not covered moves an encrypted zero instead of failing,
// so nothing about a balance leaks through the success of a call.
package token

import (
	"errors"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/crypto/fhe"
)

var (
	ErrNotOwner        = errors.New("caller is not the token owner")
	ErrMintFailed      = errors.New("mint amount is not positive or overflows the supply")
	ErrNotDeployed     = errors.New("token is not deployed")
	ErrAlreadyDeployed = errors.New("token is already deployed")
)

// Ledger is a confidential token ledger. Transfer and TransferFrom never
// fail on insufficient funds: they return a handle to the amount actually
// moved, which is an encryption of zero when the balance or allowance does
// not cover [amount].
type Ledger interface {
	// Address returns the ledger's contract address
	Address() common.Address

	// Transfer moves [amount] from [from] to [to]
	Transfer(st backend.StateDB, from, to common.Address, amount fhe.Handle) (fhe.Handle, error)

	// TransferFrom moves [amount] from [from] to [to] against the allowance
	// [from] granted to [spender]
	TransferFrom(st backend.StateDB, spender, from, to common.Address, amount fhe.Handle) (fhe.Handle, error)
}
