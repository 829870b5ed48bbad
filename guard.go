// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"errors"
	"slices"

	"github.com/luxfi/cfmm/crypto/fhe"
)

// guard collects the rules of one call as encrypted predicates and enforces
// their conjunction with a single RequireTrue.
type guard struct {
	*fhe.Circuit
	ok    fhe.Handle
	kinds []Kind
}

func newGuard(eval fhe.Evaluator) *guard {
	return &guard{Circuit: fhe.NewCircuit(eval)}
}

func (g *guard) require(kind Kind, cond fhe.Handle) {
	if !slices.Contains(g.kinds, kind) {
		g.kinds = append(g.kinds, kind)
	}
	if g.ok == (fhe.Handle{}) {
		g.ok = cond
		return
	}
	g.ok = g.And(g.ok, cond)
}

// enforce aborts the call unless every rule held
func (g *guard) enforce() error {
	if err := g.Err(); err != nil {
		return err
	}
	if g.ok == (fhe.Handle{}) {
		return nil
	}
	err := g.Evaluator().RequireTrue(g.ok)
	if errors.Is(err, fhe.ErrRequireFailed) {
		return abortError(g.kinds)
	}
	return err
}

func (g *guard) positive(x fhe.Handle) fhe.Handle {
	return g.Gt(x, g.Const(0))
}

// accumulate returns a + b and requires that it did not wrap. Both operands
// must be non-negative, which holds for reserves, fees and checked amounts.
func (g *guard) accumulate(a, b fhe.Handle) fhe.Handle {
	sum := g.Add(a, b)
	g.require(Overflow, g.Ge(sum, a))
	return sum
}

// product returns a * b and requires that it fits in int32. Both operands
// must be non-negative. A wrapped product never divides back to [a].
func (g *guard) product(a, b fhe.Handle) fhe.Handle {
	p := g.Mul(a, b)
	bIsZero := g.Eq(b, g.Const(0))
	denominator := g.Select(bIsZero, g.Const(1), b)
	g.require(Overflow, g.Or(bIsZero, g.Eq(g.Div(p, denominator), a)))
	return p
}

// swapQuote is the outcome of a constant-product trade
type swapQuote struct {
	reserveIn  fhe.Handle
	reserveOut fhe.Handle
	fee        fhe.Handle
	netOut     fhe.Handle
}

// constantProduct prices [amountIn] against the reserves. The output
// reserve is floor(reserveIn * reserveOut / (reserveIn + amountIn)) and must
// stay at least 1; the trader receives the gross output less a FeeDivisor-th.
// reserveIn * reserveOut never wraps: AddLiquidity bounds it and a trade
// never increases it.
func (g *guard) constantProduct(reserveIn, reserveOut, amountIn fhe.Handle) swapQuote {
	one := g.Const(1)
	g.require(InvalidAmount, g.positive(amountIn))

	newIn := g.accumulate(reserveIn, amountIn)
	newOut := g.Div(g.Mul(reserveIn, reserveOut), newIn)
	g.require(InsufficientLiquidity, g.Ge(newOut, one))

	gross := g.Sub(reserveOut, newOut)
	g.require(InsufficientLiquidity, g.Ge(gross, one))

	fee := g.DivScalar(gross, FeeDivisor)
	return swapQuote{
		reserveIn:  newIn,
		reserveOut: newOut,
		fee:        fee,
		netOut:     g.Sub(gross, fee),
	}
}
