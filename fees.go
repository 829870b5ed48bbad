// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/backend"
)

// WithdrawFee pays both accrued fee balances to [to] and resets them to
// zero. Only the owner may call it, and it aborts when both balances are
// already zero.
func (p *Pool) WithdrawFee(st backend.StateDB, caller, to common.Address) error {
	return p.call(st, MethodWithdrawFee, caller, func() error {
		if err := p.requireOwner(st, caller); err != nil {
			return err
		}

		g := newGuard(p.fhe)
		feeA, feeB := p.load(st, slotFeeA), p.load(st, slotFeeB)
		g.require(NothingToWithdraw, g.Or(g.positive(feeA), g.positive(feeB)))

		// a zero balance moves an encrypted zero
		p.pay(g, st, AssetA, to, feeA)
		p.pay(g, st, AssetB, to, feeB)
		if err := g.enforce(); err != nil {
			return err
		}

		st.SetState(p.addr, slotFeeA, p.fhe.TrivialEncrypt(0))
		st.SetState(p.addr, slotFeeB, p.fhe.TrivialEncrypt(0))
		return nil
	})
}
