// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/crypto/fhe"
)

// AddLiquidity pulls [amountA] and [amountB] from [caller] and adds them to
// the reserves. Both amounts must be positive and neither reserve may wrap.
// Beyond that per-reserve overflow rule, the new reserve product must also
// fit in int32, so a provision like (50000, 50000) on an empty pool aborts.
// The top-up is additive; keeping the price ratio is up to the caller.
func (p *Pool) AddLiquidity(st backend.StateDB, caller common.Address, amountA, amountB fhe.Handle) error {
	return p.call(st, MethodAddLiquidity, caller, func() error {
		if _, err := p.Owner(st); err != nil {
			return err
		}

		g := newGuard(p.fhe)
		g.require(InvalidAmount, g.positive(amountA))
		g.require(InvalidAmount, g.positive(amountB))

		reserveA := g.accumulate(p.load(st, slotReserveA), amountA)
		reserveB := g.accumulate(p.load(st, slotReserveB), amountB)
		g.product(reserveA, reserveB)

		p.pull(g, st, AssetA, caller, amountA)
		p.pull(g, st, AssetB, caller, amountB)
		if err := g.enforce(); err != nil {
			return err
		}

		st.SetState(p.addr, slotReserveA, reserveA)
		st.SetState(p.addr, slotReserveB, reserveB)
		return nil
	})
}
