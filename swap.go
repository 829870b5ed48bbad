// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"fmt"
	"strings"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/crypto/fhe"
)

// Direction is the public trade direction of a swap
type Direction uint8

const (
	AToB Direction = iota
	BToA
)

func (d Direction) String() string {
	switch d {
	case AToB:
		return "AtoB"
	case BToA:
		return "BtoA"
	default:
		return "unknown"
	}
}

// Assets returns the input and output asset of the direction
func (d Direction) Assets() (in Asset, out Asset) {
	if d == BToA {
		return AssetB, AssetA
	}
	return AssetA, AssetB
}

// ParseDirection accepts "AtoB" or "BtoA", case insensitively
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "atob", "a2b", "a->b":
		return AToB, nil
	case "btoa", "b2a", "b->a":
		return BToA, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Swap trades [amountIn] of the direction's input asset for the output
// asset. The direction is public; the amounts are not. The caller must have
// approved the pool for [amountIn] on the input ledger. Swap returns the
// handle of the net amount credited to the caller.
func (p *Pool) Swap(st backend.StateDB, caller common.Address, dir Direction, amountIn fhe.Handle) (fhe.Handle, error) {
	if dir != AToB && dir != BToA {
		return fhe.Handle{}, fmt.Errorf("%w: %d", ErrInvalidDirection, dir)
	}

	var netOut fhe.Handle
	err := p.call(st, MethodSwap, caller, func() error {
		if _, err := p.Owner(st); err != nil {
			return err
		}
		in, out := dir.Assets()

		g := newGuard(p.fhe)
		q := g.constantProduct(p.load(st, in.reserveSlot()), p.load(st, out.reserveSlot()), amountIn)
		fee := g.accumulate(p.load(st, out.feeSlot()), q.fee)

		p.pull(g, st, in, caller, amountIn)
		p.pay(g, st, out, caller, q.netOut)
		if err := g.enforce(); err != nil {
			return err
		}

		st.SetState(p.addr, in.reserveSlot(), q.reserveIn)
		st.SetState(p.addr, out.reserveSlot(), q.reserveOut)
		st.SetState(p.addr, out.feeSlot(), fee)
		netOut = q.netOut
		return nil
	})
	return netOut, err
}

// SwapConfidential is Swap with an encrypted direction: [isAToB] is a Bool
// handle. Both reserves, both fee balances and both ledgers are touched on
// every call, with the unused side moving an encrypted zero, so the trade
// reveals neither its size nor its direction. The caller must approve the
// pool on the input ledger as for Swap. It returns the net output handles
// credited to the caller on each ledger; one of them is an encrypted zero.
func (p *Pool) SwapConfidential(st backend.StateDB, caller common.Address, isAToB, amountIn fhe.Handle) (fhe.Handle, fhe.Handle, error) {
	var outA, outB fhe.Handle
	err := p.call(st, MethodSwapConfidential, caller, func() error {
		if _, err := p.Owner(st); err != nil {
			return err
		}

		g := newGuard(p.fhe)
		zero := g.Const(0)
		reserveA, reserveB := p.load(st, slotReserveA), p.load(st, slotReserveB)

		q := g.constantProduct(
			g.Select(isAToB, reserveA, reserveB),
			g.Select(isAToB, reserveB, reserveA),
			amountIn,
		)
		newReserveA := g.Select(isAToB, q.reserveIn, q.reserveOut)
		newReserveB := g.Select(isAToB, q.reserveOut, q.reserveIn)
		feeA := g.accumulate(p.load(st, slotFeeA), g.Select(isAToB, zero, q.fee))
		feeB := g.accumulate(p.load(st, slotFeeB), g.Select(isAToB, q.fee, zero))

		outA = g.Select(isAToB, zero, q.netOut)
		outB = g.Select(isAToB, q.netOut, zero)
		p.pull(g, st, AssetA, caller, g.Select(isAToB, amountIn, zero))
		p.pull(g, st, AssetB, caller, g.Select(isAToB, zero, amountIn))
		p.pay(g, st, AssetA, caller, outA)
		p.pay(g, st, AssetB, caller, outB)
		if err := g.enforce(); err != nil {
			return err
		}

		st.SetState(p.addr, slotReserveA, newReserveA)
		st.SetState(p.addr, slotReserveB, newReserveB)
		st.SetState(p.addr, slotFeeA, feeA)
		st.SetState(p.addr, slotFeeB, feeB)
		return nil
	})
	if err != nil {
		return fhe.Handle{}, fhe.Handle{}, err
	}
	return outA, outB, nil
}
