// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/backend"
)

// State is the persisted layout of a pool: four ciphertext handles and the
// owner. It holds no plaintext and is safe to export.
type State struct {
	Pool     common.Address
	Owner    common.Address
	ReserveA common.Hash
	ReserveB common.Hash
	FeeA     common.Hash
	FeeB     common.Hash
}

// State reads the pool's storage words
func (p *Pool) State(st backend.StateDB) (State, error) {
	owner, err := p.Owner(st)
	if err != nil {
		return State{}, err
	}
	return State{
		Pool:     p.addr,
		Owner:    owner,
		ReserveA: st.GetState(p.addr, slotReserveA),
		ReserveB: st.GetState(p.addr, slotReserveB),
		FeeA:     st.GetState(p.addr, slotFeeA),
		FeeB:     st.GetState(p.addr, slotFeeB),
	}, nil
}

// Bytes returns the codec encoding of the state
func (s State) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, &s)
}

// ParseState decodes a state export
func ParseState(b []byte) (State, error) {
	var s State
	_, err := Codec.Unmarshal(b, &s)
	return s, err
}
